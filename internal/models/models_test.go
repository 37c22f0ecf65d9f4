package models

import (
	"encoding/json"
	"testing"
)

func TestContentUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantParts bool
		wantText  string
		wantErr   bool
	}{
		{name: "string", input: `"hello"`, wantText: "hello"},
		{name: "null", input: `null`},
		{name: "parts", input: `[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"https://x/y.png"}},{"type":"text","text":"b"}]`, wantParts: true, wantText: "ab"},
		{name: "empty parts", input: `[]`, wantParts: true},
		{name: "number", input: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			err := json.Unmarshal([]byte(tt.input), &c)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if c.HasParts() != tt.wantParts {
				t.Fatalf("HasParts() = %v, want %v", c.HasParts(), tt.wantParts)
			}
			if got := c.PlainText(); got != tt.wantText {
				t.Fatalf("PlainText() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestContentPartImageURLForms(t *testing.T) {
	var parts []ContentPart
	input := `[{"type":"image_url","image_url":"https://a/b.png"},{"type":"image_url","image_url":{"url":"https://c/d.png","detail":"low"}}]`
	if err := json.Unmarshal([]byte(input), &parts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parts[0].ImageURL == nil || parts[0].ImageURL.URL != "https://a/b.png" {
		t.Fatalf("string form not decoded: %+v", parts[0].ImageURL)
	}
	if parts[1].ImageURL == nil || parts[1].ImageURL.Detail != "low" {
		t.Fatalf("object form not decoded: %+v", parts[1].ImageURL)
	}
}

func TestContentMarshalPreservesUnknownParts(t *testing.T) {
	input := `[{"type":"input_audio","input_audio":{"data":"AAA","format":"wav"}}]`
	var c Content
	if err := json.Unmarshal([]byte(input), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != input {
		t.Fatalf("marshal = %s, want %s", out, input)
	}
}

func TestDeltaLine(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		finish string
		want   string
	}{
		{
			name: "text only",
			text: "hi",
			want: `data: {"choices":[{"index":0,"delta":{"content":"hi"},"finish_reason":null}]}`,
		},
		{
			name:   "finish only",
			finish: FinishLength,
			want:   `data: {"choices":[{"index":0,"delta":{},"finish_reason":"length"}]}`,
		},
		{
			name:   "text and finish",
			text:   "<b>",
			finish: FinishStop,
			want:   `data: {"choices":[{"index":0,"delta":{"content":"<b>"},"finish_reason":"stop"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeltaLine(tt.text, tt.finish); got != tt.want {
				t.Fatalf("DeltaLine() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		input     string
		wantType  string
		wantData  string
		wantValid bool
	}{
		{input: "data:image/png;base64,AAAA", wantType: "image/png", wantData: "AAAA", wantValid: true},
		{input: "data:image/png,AAAA"},
		{input: "data:;base64,AAAA"},
		{input: "https://example.com/cat.png"},
		{input: "data:image/jpeg;base64"},
	}

	for _, tt := range tests {
		mediaType, data, ok := ParseDataURL(tt.input)
		if ok != tt.wantValid || mediaType != tt.wantType || data != tt.wantData {
			t.Errorf("ParseDataURL(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.input, mediaType, data, ok, tt.wantType, tt.wantData, tt.wantValid)
		}
	}
}
