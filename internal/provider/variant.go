// Package provider classifies upstream endpoints into wire-format variants and
// dispatches every translation operation to the matching variant package.
//
// All functions here are pure: they perform no I/O and never fail on
// unexpected input. Unknown endpoints degrade to the OpenAI-compatible variant.
package provider

import (
	"strings"

	"chat-gateway/internal/models"
	"chat-gateway/internal/provider/claude"
	"chat-gateway/internal/provider/gemini"
	"chat-gateway/internal/provider/openai"
)

// Variant identifies an upstream wire-format family.
type Variant int

const (
	// OpenAICompat speaks the generic chat/completions format. It is the default.
	OpenAICompat Variant = iota
	// Claude speaks the Anthropic Messages format.
	Claude
	// Gemini speaks the Gemini generateContent format.
	Gemini
)

func (v Variant) String() string {
	switch v {
	case Claude:
		return "claude"
	case Gemini:
		return "gemini"
	default:
		return "openai"
	}
}

var (
	claudeKeywords = []string{"anthropic.com", "claude"}
	geminiKeywords = []string{"generativelanguage.googleapis.com", "gemini"}
)

// Classify maps an endpoint URL to its variant by case-insensitive keyword match.
func Classify(endpoint string) Variant {
	lower := strings.ToLower(endpoint)
	switch {
	case containsAny(lower, claudeKeywords):
		return Claude
	case containsAny(lower, geminiKeywords):
		return Gemini
	default:
		return OpenAICompat
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// BuildListModels describes the "list models" call for the variant.
func BuildListModels(v Variant, endpoint, apiKey string) models.NativeRequest {
	switch v {
	case Claude:
		return claude.BuildListModels(endpoint, apiKey)
	case Gemini:
		return gemini.BuildListModels(endpoint, apiKey)
	default:
		return openai.BuildListModels(endpoint, apiKey)
	}
}

// BuildChatCompletion describes the "create completion" call for the variant.
func BuildChatCompletion(v Variant, endpoint, model, apiKey string, req models.ChatRequest) models.NativeRequest {
	switch v {
	case Claude:
		return claude.BuildChatCompletion(endpoint, model, apiKey, req)
	case Gemini:
		return gemini.BuildChatCompletion(endpoint, model, apiKey, req)
	default:
		return openai.BuildChatCompletion(endpoint, model, apiKey, req)
	}
}
