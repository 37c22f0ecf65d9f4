package claude

import (
	"encoding/json"

	"chat-gateway/internal/models"
)

// Event types carried in the "type" field of Anthropic stream payloads.
const (
	eventContentBlockDelta = "content_block_delta"
	eventMessageDelta      = "message_delta"
	eventMessageStop       = "message_stop"
)

// streamEvent is the envelope shared by every Anthropic stream payload.
type streamEvent struct {
	Type  string       `json:"type"`
	Delta *streamDelta `json:"delta,omitempty"`
}

type streamDelta struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// NormalizeStreamLine converts one Anthropic stream payload to a framed
// canonical line. Lifecycle events, pings and malformed payloads yield ok=false.
func NormalizeStreamLine(payload string) (string, bool) {
	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return "", false
	}

	switch event.Type {
	case eventContentBlockDelta:
		if event.Delta == nil || event.Delta.Text == "" {
			return "", false
		}
		return models.DeltaLine(event.Delta.Text, ""), true
	case eventMessageDelta:
		if event.Delta == nil || event.Delta.StopReason == "" {
			return "", false
		}
		return models.DeltaLine("", MapStopReason(event.Delta.StopReason)), true
	case eventMessageStop:
		return models.DoneLine, true
	default:
		return "", false
	}
}
