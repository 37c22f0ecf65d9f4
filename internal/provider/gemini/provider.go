// Package gemini translates canonical requests to the Gemini generateContent
// REST API and normalizes its responses back to the canonical shape.
//
// Wire shapes for contents and candidates come from google.golang.org/genai,
// which mirrors the REST JSON field names.
package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"google.golang.org/genai"

	"chat-gateway/internal/models"
)

const (
	contentTypeJSON   = "application/json"
	defaultMaxTokens  = 4096
	modelPrefix       = "models/"
	generateMethod    = "generateContent"
	streamMethod      = "streamGenerateContent"
	systemPartsJoiner = "\n\n"
)

// BuildListModels describes the models listing call. The key travels as a
// query parameter, so no auth header is set.
func BuildListModels(endpoint, apiKey string) models.NativeRequest {
	query := url.Values{}
	query.Set("key", apiKey)

	return models.NativeRequest{
		Method: http.MethodGet,
		URL:    strings.TrimRight(endpoint, "/") + "/models?" + query.Encode(),
		Header: make(http.Header),
	}
}

// ChatURL embeds the model, the streaming mode and the key.
func ChatURL(endpoint, model, apiKey string, stream bool) string {
	query := url.Values{}
	query.Set("key", apiKey)
	method := generateMethod
	if stream {
		method = streamMethod
		query.Set("alt", "sse")
	}
	model = strings.TrimPrefix(model, modelPrefix)
	return fmt.Sprintf("%s/models/%s:%s?%s", strings.TrimRight(endpoint, "/"), model, method, query.Encode())
}

// BuildChatCompletion describes a generateContent call.
func BuildChatCompletion(endpoint, model, apiKey string, req models.ChatRequest) models.NativeRequest {
	header := make(http.Header)
	header.Set("Content-Type", contentTypeJSON)

	body, _ := json.Marshal(buildGenerateContentRequest(req))

	return models.NativeRequest{
		Method: http.MethodPost,
		URL:    ChatURL(endpoint, model, apiKey, req.Stream),
		Header: header,
		Body:   body,
	}
}

type generateContentRequest struct {
	Contents          []*genai.Content `json:"contents"`
	SystemInstruction *genai.Content   `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

func buildGenerateContentRequest(req models.ChatRequest) generateContentRequest {
	contents := make([]*genai.Content, 0, len(req.Messages))
	var systemParts []string

	for _, msg := range req.Messages {
		if msg.Role == models.RoleSystem {
			systemParts = append(systemParts, msg.Content.PlainText())
			continue
		}
		role := genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: toParts(msg.Content),
		})
	}

	out := generateContentRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			MaxOutputTokens: defaultMaxTokens,
			Temperature:     req.Temperature,
		},
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		out.GenerationConfig.MaxOutputTokens = *req.MaxTokens
	}
	if instruction := strings.Join(systemParts, systemPartsJoiner); instruction != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
	}
	return out
}

func toParts(content models.Content) []*genai.Part {
	if !content.HasParts() {
		return []*genai.Part{{Text: content.Text}}
	}

	parts := make([]*genai.Part, 0, len(content.Parts))
	for _, part := range content.Parts {
		switch part.Type {
		case models.PartText:
			parts = append(parts, &genai.Part{Text: part.Text})
		case models.PartImageURL:
			if part.ImageURL == nil || part.ImageURL.URL == "" {
				continue
			}
			if p := imagePart(part.ImageURL.URL); p != nil {
				parts = append(parts, p)
			}
		}
	}
	if len(parts) == 0 {
		parts = append(parts, &genai.Part{Text: ""})
	}
	return parts
}

func imagePart(ref string) *genai.Part {
	if mediaType, data, ok := models.ParseDataURL(ref); ok {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil
		}
		return &genai.Part{InlineData: &genai.Blob{MIMEType: mediaType, Data: decoded}}
	}

	fileData := &genai.FileData{FileURI: ref}
	if u, err := url.Parse(ref); err == nil {
		fileData.MIMEType = mime.TypeByExtension(path.Ext(u.Path))
	}
	return &genai.Part{FileData: fileData}
}

// MapFinishReason converts a Gemini finish code to a canonical finish reason.
// Every code other than MAX_TOKENS collapses to stop.
func MapFinishReason(reason genai.FinishReason) string {
	if reason == genai.FinishReasonMaxTokens {
		return models.FinishLength
	}
	return models.FinishStop
}

type modelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// NormalizeModels keeps models that support generateContent and strips the
// "models/" namespace from their ids.
func NormalizeModels(raw []byte) (models.ModelList, error) {
	var resp modelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.ModelList{}, fmt.Errorf("decode gemini models response: %w", err)
	}

	list := models.ModelList{Data: make([]models.ModelEntry, 0, len(resp.Models))}
	for _, m := range resp.Models {
		if !slices.Contains(m.SupportedGenerationMethods, generateMethod) {
			continue
		}
		list.Data = append(list.Data, models.ModelEntry{ID: strings.TrimPrefix(m.Name, modelPrefix)})
	}
	return list, nil
}

// NormalizeCompletion converts a generateContent response to a canonical completion.
func NormalizeCompletion(raw []byte) (models.ChatCompletion, error) {
	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.ChatCompletion{}, fmt.Errorf("decode gemini response: %w", err)
	}

	var (
		text   string
		finish *string
	)
	if candidate := firstCandidate(&resp); candidate != nil {
		text = candidateText(candidate)
		if candidate.FinishReason != "" {
			reason := MapFinishReason(candidate.FinishReason)
			finish = &reason
		}
	}

	out := models.ChatCompletion{
		ID:      resp.ResponseID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.ModelVersion,
		Choices: []models.CompletionChoice{
			{
				Index:        0,
				Message:      models.CompletionMessage{Role: models.RoleAssistant, Content: text},
				FinishReason: finish,
			},
		},
	}
	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = &models.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	return out, nil
}

func firstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0]
}

// candidateText concatenates the visible text parts of a candidate.
func candidateText(candidate *genai.Candidate) string {
	if candidate.Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		builder.WriteString(part.Text)
	}
	return builder.String()
}
