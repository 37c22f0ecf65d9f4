package translator

import (
	"encoding/json"
	"errors"
	"testing"

	"chat-gateway/internal/models"
)

func TestGatewayRequestUnmarshal(t *testing.T) {
	body := `{
		"endpoint": "  https://api.openai.com/v1 ",
		"apiKey": " sk-1 ",
		"model": "gpt-4o",
		"messages": [{"role":"user","content":"hi"}],
		"max_tokens": 64,
		"temperature": 0.5,
		"mcp_servers": [{"name":"docs"}],
		"action": "fetchModels"
	}`

	var req GatewayRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Endpoint != "https://api.openai.com/v1" || req.APIKey != "sk-1" {
		t.Fatalf("fields not trimmed: %+v", req)
	}
	if req.Action != ActionFetchModels {
		t.Fatalf("action = %q", req.Action)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 64 || req.Temperature == nil || *req.Temperature != 0.5 {
		t.Fatalf("options = %v %v", req.MaxTokens, req.Temperature)
	}
	if len(req.MCPServers) != 1 {
		t.Fatalf("mcp_servers = %v", req.MCPServers)
	}
}

func TestGatewayRequestUnmarshalRejectsBadContent(t *testing.T) {
	var req GatewayRequest
	err := json.Unmarshal([]byte(`{"messages":[{"role":"user","content":5}]}`), &req)
	if err == nil {
		t.Fatal("expected error for numeric content")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  GatewayRequest
		want error
	}{
		{name: "complete", req: GatewayRequest{Endpoint: "https://x", APIKey: "k"}},
		{name: "missing key", req: GatewayRequest{Endpoint: "https://x"}, want: ErrMissingCredentials},
		{name: "missing endpoint", req: GatewayRequest{APIKey: "k"}, want: ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestToCanonical(t *testing.T) {
	req := GatewayRequest{
		Model:      "m",
		Messages:   []models.Message{{Role: models.RoleUser, Content: models.Content{Text: "hi"}}},
		MCPServers: []json.RawMessage{json.RawMessage(`{}`)},
	}

	canonical := req.ToCanonical(true)
	if !canonical.Stream || canonical.Model != "m" || len(canonical.ToolServers) != 1 {
		t.Fatalf("canonical = %+v", canonical)
	}

	canonical.Messages[0].Role = models.RoleSystem
	if req.Messages[0].Role != models.RoleUser {
		t.Fatal("canonical request must not alias inbound messages")
	}

	if got := (GatewayRequest{}).ToCanonical(false); got.ToolServers != nil {
		t.Fatalf("tool servers = %v, want nil", got.ToolServers)
	}
}
