// Package translator decodes the inbound gateway body into the canonical request.
package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chat-gateway/internal/models"
)

// ActionFetchModels selects the "list models" operation on the non-streaming entry point.
const ActionFetchModels = "fetchModels"

// ErrMissingCredentials is returned when endpoint or apiKey is absent.
var ErrMissingCredentials = errors.New("missing endpoint or apiKey")

// GatewayRequest models the inbound JSON body shared by both entry points.
type GatewayRequest struct {
	Endpoint    string
	APIKey      string
	Model       string
	Messages    []models.Message
	MaxTokens   *int
	Temperature *float64
	MCPServers  []json.RawMessage
	Action      string
}

// UnmarshalJSON decodes the body and trims identifying fields.
func (r *GatewayRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Endpoint    string            `json:"endpoint"`
		APIKey      string            `json:"apiKey"`
		Model       string            `json:"model"`
		Messages    []models.Message  `json:"messages"`
		MaxTokens   *int              `json:"max_tokens"`
		Temperature *float64          `json:"temperature"`
		MCPServers  []json.RawMessage `json:"mcp_servers"`
		Action      string            `json:"action"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode gateway request: %w", err)
	}

	r.Endpoint = strings.TrimSpace(raw.Endpoint)
	r.APIKey = strings.TrimSpace(raw.APIKey)
	r.Model = strings.TrimSpace(raw.Model)
	r.Messages = raw.Messages
	r.MaxTokens = raw.MaxTokens
	r.Temperature = raw.Temperature
	r.MCPServers = raw.MCPServers
	r.Action = strings.TrimSpace(raw.Action)
	return nil
}

// Validate checks the fields required before any upstream call.
func (r GatewayRequest) Validate() error {
	if r.Endpoint == "" || r.APIKey == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ToCanonical converts the inbound body into the canonical chat request.
func (r GatewayRequest) ToCanonical(stream bool) models.ChatRequest {
	messages := make([]models.Message, len(r.Messages))
	copy(messages, r.Messages)

	var servers []json.RawMessage
	if len(r.MCPServers) > 0 {
		servers = make([]json.RawMessage, len(r.MCPServers))
		copy(servers, r.MCPServers)
	}

	return models.ChatRequest{
		Model:       r.Model,
		Messages:    messages,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		Stream:      stream,
		ToolServers: servers,
	}
}
