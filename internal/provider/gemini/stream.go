package gemini

import (
	"encoding/json"

	"google.golang.org/genai"

	"chat-gateway/internal/models"
)

// NormalizeStreamLine converts one Gemini stream chunk to a framed canonical
// line. Chunks without a candidate, and malformed payloads, yield ok=false.
func NormalizeStreamLine(payload string) (string, bool) {
	var chunk genai.GenerateContentResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", false
	}

	candidate := firstCandidate(&chunk)
	if candidate == nil {
		return "", false
	}

	if text := candidateText(candidate); text != "" {
		finish := ""
		if candidate.FinishReason == genai.FinishReasonMaxTokens {
			finish = models.FinishLength
		}
		return models.DeltaLine(text, finish), true
	}

	if candidate.FinishReason != "" {
		return models.DeltaLine("", MapFinishReason(candidate.FinishReason)), true
	}
	return "", false
}
