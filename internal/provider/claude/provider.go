// Package claude translates canonical requests to the Anthropic Messages API
// and normalizes its responses back to the canonical shape.
package claude

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chat-gateway/internal/models"
)

const (
	contentTypeJSON  = "application/json"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
	versionSegment   = "/v1"
	stopMaxTokens    = "max_tokens"
)

// BaseURL appends the API version segment unless the endpoint already carries one.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(base, versionSegment) || strings.Contains(base, versionSegment+"/") {
		return base
	}
	return base + versionSegment
}

// BuildListModels describes the models listing call.
func BuildListModels(endpoint, apiKey string) models.NativeRequest {
	header := make(http.Header)
	header.Set("x-api-key", apiKey)
	header.Set("anthropic-version", apiVersion)

	return models.NativeRequest{
		Method: http.MethodGet,
		URL:    BaseURL(endpoint) + "/models",
		Header: header,
	}
}

// BuildChatCompletion describes a Messages API call. System messages are
// hoisted into the top-level system field.
func BuildChatCompletion(endpoint, model, apiKey string, req models.ChatRequest) models.NativeRequest {
	header := make(http.Header)
	header.Set("Content-Type", contentTypeJSON)
	header.Set("x-api-key", apiKey)
	header.Set("anthropic-version", apiVersion)

	body, _ := json.Marshal(buildMessagePayload(model, req))

	return models.NativeRequest{
		Method: http.MethodPost,
		URL:    BaseURL(endpoint) + "/messages",
		Header: header,
		Body:   body,
	}
}

type messagePayload struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

func buildMessagePayload(model string, req models.ChatRequest) messagePayload {
	messages := make([]message, 0, len(req.Messages))
	var systemParts []string

	for _, msg := range req.Messages {
		if msg.Role == models.RoleSystem {
			systemParts = append(systemParts, msg.Content.PlainText())
			continue
		}
		messages = append(messages, message{
			Role:    msg.Role,
			Content: toMessageContent(msg.Content),
		})
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = *req.MaxTokens
	}

	return messagePayload{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
		System:      strings.Join(systemParts, "\n\n"),
		Messages:    messages,
	}
}

func toMessageContent(content models.Content) any {
	if !content.HasParts() {
		return content.Text
	}

	blocks := make([]contentBlock, 0, len(content.Parts))
	for _, part := range content.Parts {
		switch part.Type {
		case models.PartText:
			blocks = append(blocks, contentBlock{Type: "text", Text: part.Text})
		case models.PartImageURL:
			if part.ImageURL == nil || part.ImageURL.URL == "" {
				continue
			}
			blocks = append(blocks, contentBlock{Type: "image", Source: toImageSource(part.ImageURL.URL)})
		}
	}
	return blocks
}

func toImageSource(url string) *imageSource {
	if mediaType, data, ok := models.ParseDataURL(url); ok {
		return &imageSource{Type: "base64", MediaType: mediaType, Data: data}
	}
	return &imageSource{Type: "url", URL: url}
}

// MapStopReason converts an Anthropic stop reason to a canonical finish reason.
func MapStopReason(reason string) string {
	if reason == stopMaxTokens {
		return models.FinishLength
	}
	return models.FinishStop
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NormalizeModels projects the native listing onto the canonical one.
func NormalizeModels(raw []byte) (models.ModelList, error) {
	var resp modelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.ModelList{}, fmt.Errorf("decode claude models response: %w", err)
	}

	list := models.ModelList{Data: make([]models.ModelEntry, 0, len(resp.Data))}
	for _, m := range resp.Data {
		list.Data = append(list.Data, models.ModelEntry{ID: m.ID})
	}
	return list, nil
}

type messageResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      usageBlock     `json:"usage"`
}

type usageBlock struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// NormalizeCompletion converts a Messages API response to a canonical completion.
func NormalizeCompletion(raw []byte) (models.ChatCompletion, error) {
	var resp messageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.ChatCompletion{}, fmt.Errorf("decode claude message response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	var finish *string
	if resp.StopReason != "" {
		reason := MapStopReason(resp.StopReason)
		finish = &reason
	}

	return models.ChatCompletion{
		ID:      resp.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.Model,
		Choices: []models.CompletionChoice{
			{
				Index:        0,
				Message:      models.CompletionMessage{Role: models.RoleAssistant, Content: text.String()},
				FinishReason: finish,
			},
		},
		Usage: &models.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
