package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Canonical message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Canonical content part types.
const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Canonical finish reasons.
const (
	FinishStop   = "stop"
	FinishLength = "length"
)

// DoneSentinel is the payload that terminates a canonical event stream.
const DoneSentinel = "[DONE]"

// DoneLine is the framed terminal sentinel.
const DoneLine = "data: " + DoneSentinel

// ChatRequest is the canonical chat completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   *int
	Temperature *float64
	Stream      bool
	ToolServers []json.RawMessage
}

// Message represents a single conversational message in the canonical schema.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Content is either plain text or an ordered list of typed parts.
type Content struct {
	Text  string
	Parts []ContentPart
}

// HasParts reports whether the content was supplied as a part list.
func (c Content) HasParts() bool {
	return c.Parts != nil
}

// PlainText flattens the content to text, dropping non-text parts.
func (c Content) PlainText() string {
	if !c.HasParts() {
		return c.Text
	}
	var builder strings.Builder
	for _, part := range c.Parts {
		if part.Type == PartText {
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}

// UnmarshalJSON accepts a string, null, or an array of parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		*c = Content{Text: text}
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return fmt.Errorf("content must be a string or an array of parts: %w", err)
	}
	if parts == nil {
		parts = []ContentPart{}
	}
	*c = Content{Parts: parts}
	return nil
}

// MarshalJSON writes the content back in the shape it was received.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.HasParts() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// ContentPart is one element of a multi-part message.
type ContentPart struct {
	Type     string
	Text     string
	ImageURL *ImageURL

	raw json.RawMessage
}

// ImageURL references an image by URL or data URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// UnmarshalJSON keeps the original bytes so unknown part types survive passthrough.
func (p *ContentPart) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string          `json:"type"`
		Text     string          `json:"text"`
		ImageURL json.RawMessage `json:"image_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode content part: %w", err)
	}

	p.Type = raw.Type
	p.Text = raw.Text
	p.ImageURL = nil
	p.raw = append(json.RawMessage(nil), data...)

	if len(raw.ImageURL) > 0 && !bytes.Equal(raw.ImageURL, []byte("null")) {
		var url string
		if err := json.Unmarshal(raw.ImageURL, &url); err == nil {
			p.ImageURL = &ImageURL{URL: url}
			return nil
		}
		var img ImageURL
		if err := json.Unmarshal(raw.ImageURL, &img); err != nil {
			return fmt.Errorf("decode image_url: %w", err)
		}
		p.ImageURL = &img
	}
	return nil
}

// MarshalJSON returns the received bytes when available.
func (p ContentPart) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	type wire struct {
		Type     string    `json:"type"`
		Text     string    `json:"text,omitempty"`
		ImageURL *ImageURL `json:"image_url,omitempty"`
	}
	return json.Marshal(wire{Type: p.Type, Text: p.Text, ImageURL: p.ImageURL})
}

// NativeRequest describes a provider-specific HTTP call. Body is nil for reads.
type NativeRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// ModelList is the canonical list-models response.
type ModelList struct {
	Data []ModelEntry `json:"data"`
}

// ModelEntry identifies a single upstream model.
type ModelEntry struct {
	ID string `json:"id"`
}

// StreamChunk is the canonical streamed delta event.
type StreamChunk struct {
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice carries one delta and an optional finish reason.
type StreamChoice struct {
	Index        int         `json:"index"`
	Delta        StreamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// StreamDelta is the incremental content of a StreamChoice.
type StreamDelta struct {
	Content *string `json:"content,omitempty"`
}

// DeltaLine builds a framed canonical event. An empty text yields an empty delta.
func DeltaLine(text string, finishReason string) string {
	choice := StreamChoice{Index: 0}
	if text != "" {
		choice.Delta.Content = &text
	}
	if finishReason != "" {
		choice.FinishReason = &finishReason
	}
	return "data: " + string(encodeCompact(StreamChunk{Choices: []StreamChoice{choice}}))
}

// ChatCompletion is the canonical non-streaming completion response.
type ChatCompletion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// CompletionChoice represents a single choice in a ChatCompletion.
type CompletionChoice struct {
	Index        int               `json:"index"`
	Message      CompletionMessage `json:"message"`
	FinishReason *string           `json:"finish_reason"`
}

// CompletionMessage is the assistant message of a CompletionChoice.
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage records token accounting information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Encode marshals v without HTML escaping and without a trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encodeCompact is Encode for values built only from strings, ints and pointers to them.
func encodeCompact(v any) []byte {
	data, _ := Encode(v)
	return data
}

// ParseDataURL splits a base64 data URL into its media type and payload.
func ParseDataURL(url string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, found = strings.CutSuffix(meta, ";base64")
	if !found || mediaType == "" {
		return "", "", false
	}
	return mediaType, payload, true
}
