package provider

import (
	"fmt"

	"chat-gateway/internal/models"
	"chat-gateway/internal/provider/claude"
	"chat-gateway/internal/provider/gemini"
	"chat-gateway/internal/provider/openai"
)

// NormalizeModelsList converts a native models listing to canonical JSON.
// OpenAI-compatible listings are returned untouched.
func NormalizeModelsList(v Variant, raw []byte) ([]byte, error) {
	var (
		list models.ModelList
		err  error
	)
	switch v {
	case Claude:
		list, err = claude.NormalizeModels(raw)
	case Gemini:
		list, err = gemini.NormalizeModels(raw)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	return encode(list)
}

// NormalizeCompletion converts a native non-streaming completion to canonical JSON.
// OpenAI-compatible completions are returned untouched.
func NormalizeCompletion(v Variant, raw []byte) ([]byte, error) {
	var (
		completion models.ChatCompletion
		err        error
	)
	switch v {
	case Claude:
		completion, err = claude.NormalizeCompletion(raw)
	case Gemini:
		completion, err = gemini.NormalizeCompletion(raw)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	return encode(completion)
}

// NormalizeStreamLine converts one stream payload, already stripped of its
// "data:" prefix, to a framed canonical line. ok is false when the payload
// carries nothing the client needs.
func NormalizeStreamLine(v Variant, payload string) (line string, ok bool) {
	if payload == models.DoneSentinel {
		return models.DoneLine, true
	}
	switch v {
	case Claude:
		return claude.NormalizeStreamLine(payload)
	case Gemini:
		return gemini.NormalizeStreamLine(payload)
	default:
		return openai.NormalizeStreamLine(payload), true
	}
}

func encode(v any) ([]byte, error) {
	data, err := models.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode canonical response: %w", err)
	}
	return data, nil
}
