// Package openai builds requests for OpenAI-compatible chat completion APIs.
// Their responses are already canonical, so the normalizers only pass through.
package openai

import (
	"encoding/json"
	"net/http"
	"strings"

	"chat-gateway/internal/models"
)

const contentTypeJSON = "application/json"

// BuildListModels describes the models listing call.
func BuildListModels(endpoint, apiKey string) models.NativeRequest {
	header := make(http.Header)
	header.Set("Authorization", "Bearer "+apiKey)

	return models.NativeRequest{
		Method: http.MethodGet,
		URL:    strings.TrimRight(endpoint, "/") + "/models",
		Header: header,
	}
}

type chatPayload struct {
	Model       string            `json:"model"`
	Messages    []models.Message  `json:"messages"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
	Stream      bool              `json:"stream"`
	MCPServers  []json.RawMessage `json:"mcp_servers,omitempty"`
}

// BuildChatCompletion describes a chat/completions call. The canonical request
// is forwarded nearly verbatim; tool servers are attached only when present.
func BuildChatCompletion(endpoint, model, apiKey string, req models.ChatRequest) models.NativeRequest {
	header := make(http.Header)
	header.Set("Content-Type", contentTypeJSON)
	header.Set("Authorization", "Bearer "+apiKey)

	messages := req.Messages
	if messages == nil {
		messages = []models.Message{}
	}

	body, _ := json.Marshal(chatPayload{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
		MCPServers:  req.ToolServers,
	})

	return models.NativeRequest{
		Method: http.MethodPost,
		URL:    strings.TrimRight(endpoint, "/") + "/chat/completions",
		Header: header,
		Body:   body,
	}
}

// NormalizeStreamLine re-applies SSE framing without touching the payload.
func NormalizeStreamLine(payload string) string {
	return "data: " + payload
}
