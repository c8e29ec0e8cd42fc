package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"TriadNews/internal/config"
	"TriadNews/internal/domain"
)

const validTriadJSON = `{
  "transformed_title": "Skupnost najde ravnovesje",
  "category": "Družba",
  "thesis": {"label": "Teza — Napredek", "text": "Prva stran trdi, da je sprememba nujna."},
  "antithesis": {"label": "Antiteza — Previdnost", "text": "Druga stran opozarja na tveganja."},
  "synthesis": {"label": "Sinteza — Harmonija", "text": "Obe strani skupaj gradita vzdržno pot."},
  "key_insight": "Sprememba in previdnost se dopolnjujeta.",
  "harmony_score": 72
}`

func TestParseTriadResponseExtractsEmbeddedJSON(t *testing.T) {
	t.Parallel()

	text := "Tukaj je analiza:\n" + validTriadJSON + "\nUpam, da pomaga."
	analysis, err := parseTriadResponse(text)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if analysis.TransformedTitle != "Skupnost najde ravnovesje" {
		t.Fatalf("unexpected title: %q", analysis.TransformedTitle)
	}
	if analysis.HarmonyScore != 72 {
		t.Fatalf("unexpected score: %d", analysis.HarmonyScore)
	}
	if analysis.Thesis.Label != "Teza — Napredek" {
		t.Fatalf("unexpected thesis label: %q", analysis.Thesis.Label)
	}
}

func TestParseTriadResponseNoJSON(t *testing.T) {
	t.Parallel()

	if _, err := parseTriadResponse("žal ne morem analizirati te novice"); err == nil {
		t.Fatal("expected error for response without JSON")
	}
}

func TestParseTriadResponseIncomplete(t *testing.T) {
	t.Parallel()

	incomplete := `{"transformed_title": "Naslov", "thesis": {"text": "a"}, "antithesis": {"text": "b"}}`
	if _, err := parseTriadResponse(incomplete); err == nil {
		t.Fatal("expected error for missing synthesis")
	}
}

func TestClampScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want int
	}{
		{"72", 72},
		{"-5", 0},
		{"150", 100},
		{"64.7", 64},
		{`"visoko"`, defaultHarmonyScore},
		{"", defaultHarmonyScore},
	}

	for _, tc := range cases {
		if got := clampScore(json.RawMessage(tc.raw)); got != tc.want {
			t.Errorf("clampScore(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestAnalyzeMissingAPIKey(t *testing.T) {
	t.Parallel()

	client := NewClaudeClient(config.AnthropicConfig{Model: "m"})
	if _, err := client.Analyze(context.Background(), domain.AnalysisRequest{}); err != ErrMissingAPIKey {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestAnalyzeRoundTrip(t *testing.T) {
	t.Parallel()

	var gotSystem, gotUser string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing version header")
		}

		var payload struct {
			System   string `json:"system"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotSystem = payload.System
		if len(payload.Messages) == 1 {
			gotUser = payload.Messages[0].Content
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "Analiza:\n" + validTriadJSON},
			},
		})
	}))
	defer server.Close()

	client := NewClaudeClient(config.AnthropicConfig{
		Endpoint: server.URL,
		Model:    "claude-test",
		APIKey:   "test-key",
	})

	req := domain.AnalysisRequest{
		SourceID:   "rtvslo",
		SourceBias: "center",
		Title:      "Naslov novice",
		Summary:    "Povzetek novice.",
		Content:    strings.Repeat("vsebina ", 20),
	}

	analysis, err := client.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.TransformedTitle == "" {
		t.Fatal("expected parsed analysis")
	}

	if !strings.Contains(gotSystem, "transformed_content") {
		t.Fatal("long articles should request a content rewrite")
	}
	if !strings.Contains(gotUser, "CELOTNA VSEBINA") {
		t.Fatal("user prompt should carry the full content section")
	}
	if !strings.Contains(gotUser, "rtvslo (center)") {
		t.Fatalf("user prompt should name source and bias: %q", gotUser)
	}
}

func TestAnalyzeShortContentUsesShortPrompt(t *testing.T) {
	t.Parallel()

	var gotSystem string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			System string `json:"system"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotSystem = payload.System

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": validTriadJSON}},
		})
	}))
	defer server.Close()

	client := NewClaudeClient(config.AnthropicConfig{
		Endpoint: server.URL,
		Model:    "claude-test",
		APIKey:   "test-key",
	})

	_, err := client.Analyze(context.Background(), domain.AnalysisRequest{
		SourceID: "cnn",
		Title:    "Headline",
	})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if strings.Contains(gotSystem, "transformed_content") {
		t.Fatal("short articles must not request a content rewrite")
	}
}

func TestAnalyzeProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClaudeClient(config.AnthropicConfig{
		Endpoint: server.URL,
		Model:    "claude-test",
		APIKey:   "test-key",
	})

	if _, err := client.Analyze(context.Background(), domain.AnalysisRequest{Title: "x"}); err == nil {
		t.Fatal("expected error from provider failure")
	}
}
