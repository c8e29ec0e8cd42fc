package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TriadNews/internal/config"
	"TriadNews/internal/domain"
	"TriadNews/internal/ports"
)

// ErrMissingAPIKey fails analyze calls when no key is configured; the
// rest of the service keeps running.
var ErrMissingAPIKey = errors.New("anthropic api key is not configured")

const (
	anthropicVersion = "2023-06-01"
	// below this many characters of scraped text the short prompt is
	// used and no body rewrite is requested
	fullContentThreshold = 100
	defaultHarmonyScore  = 50
)

// Categories enumerates the labels the provider may assign.
var Categories = []string{
	"Svet", "Tehnologija", "Okolje", "Družba", "Ekonomija", "Politika", "Kultura", "Zdravje",
}

// ClaudeClient implements the triad enrichment provider on top of the
// Anthropic Messages API.
type ClaudeClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

var _ ports.Analyzer = (*ClaudeClient)(nil)

// NewClaudeClient builds a client from configuration.
func NewClaudeClient(cfg config.AnthropicConfig) *ClaudeClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &ClaudeClient{
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

const triadSystemPrompt = `Si analitik novic, ki deluje po principu triade (teza-antiteza-sinteza).

Tvoja naloga je:
1. Preberi novico
2. Identificiraj TEZO — glavno trditev ali perspektivo novice
3. Identificiraj ANTITEZO — nasprotno perspektivo, kritiko ali senčno plat
4. Oblikuj SINTEZO — višjo perspektivo, ki harmonizira obe strani in služi človeštvu
5. Ustvari nov naslov, ki odraža sintezo — konstruktiven, uravnotežen, človeštvu usmerjen
6. Oceni "harmony score" (0-100) — kako blizu je tema harmonični resoluciji
7. Oblikuj ključni uvid — en stavek, ki zajame bistvo sinteze

PRAVILA:
- Piši v slovenščini (razen če je članek v angleščini — takrat piši angleško, a generiraj tudi slovensko sintezo)
- Bodi specifičen, ne generičen
- Sinteza NI kompromis — je VIŠJA perspektiva
- Ne moraliziraj — pokaži pot do razumevanja
- Ključni uvid mora biti konkreten in akcijski

Odgovori VEDNO v JSON formatu:

{
  "transformed_title": "Nov naslov, ki odraža sintezo",
  "category": "%s",
  "thesis": {
    "label": "Teza — [kratka oznaka, 1-2 besedi]",
    "text": "2-3 stavki, ki opisujejo tezo"
  },
  "antithesis": {
    "label": "Antiteza — [kratka oznaka]",
    "text": "2-3 stavki, ki opisujejo antitezo"
  },
  "synthesis": {
    "label": "Sinteza — Harmonija",
    "text": "3-4 stavki, ki opisujejo sintezo in kako služi človeštvu"
  },
  "key_insight": "En stavek — ključni uvid iz sinteze",
  "harmony_score": 72
}`

const fullContentAddendum = `

Na voljo imaš CELOTNO VSEBINO članka. Poleg zgornjih polj dodaj v JSON še polje "transformed_content": celoten članek na novo napisan skozi perspektivo sinteze, razdeljen v odstavke.`

// Analyze sends one article to the provider and returns the validated
// triad result.
func (c *ClaudeClient) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.TriadAnalysis, error) {
	if c.apiKey == "" {
		return domain.TriadAnalysis{}, ErrMissingAPIKey
	}

	text, err := c.complete(ctx, buildSystemPrompt(req), buildUserPrompt(req))
	if err != nil {
		return domain.TriadAnalysis{}, err
	}

	return parseTriadResponse(text)
}

func buildSystemPrompt(req domain.AnalysisRequest) string {
	prompt := fmt.Sprintf(triadSystemPrompt, strings.Join(Categories, "|"))
	if hasFullContent(req) {
		prompt += fullContentAddendum
	}
	return prompt
}

func buildUserPrompt(req domain.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString("Analiziraj to novico s triadno metodo:\n\n")
	b.WriteString("VIR: " + req.SourceID)
	if req.SourceBias != "" {
		b.WriteString(" (" + req.SourceBias + ")")
	}
	b.WriteString("\nNASLOV: " + req.Title + "\n")

	summary := req.Summary
	if summary == "" {
		summary = "Ni povzetka — analiziraj na podlagi naslova."
	}
	b.WriteString("POVZETEK: " + summary + "\n")

	if hasFullContent(req) {
		b.WriteString("\nCELOTNA VSEBINA:\n" + req.Content + "\n")
	}

	b.WriteString("\nVrni JSON.")
	return b.String()
}

func hasFullContent(req domain.AnalysisRequest) bool {
	return len(req.Content) > fullContentThreshold
}

func (c *ClaudeClient) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"system":     system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal messages payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send messages request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("anthropic error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}

	for _, block := range decoded.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text block in response")
}

// triadPayload tolerates a non-numeric harmony score so a sloppy
// provider response degrades to the default instead of a parse failure.
type triadPayload struct {
	TransformedTitle   string           `json:"transformed_title"`
	TransformedContent string           `json:"transformed_content"`
	Category           string           `json:"category"`
	Thesis             domain.TriadPart `json:"thesis"`
	Antithesis         domain.TriadPart `json:"antithesis"`
	Synthesis          domain.TriadPart `json:"synthesis"`
	KeyInsight         string           `json:"key_insight"`
	HarmonyScore       json.RawMessage  `json:"harmony_score"`
}

// parseTriadResponse locates the JSON object inside the returned text,
// validates required fields, and clamps the harmony score.
func parseTriadResponse(text string) (domain.TriadAnalysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return domain.TriadAnalysis{}, fmt.Errorf("no JSON object in provider response")
	}

	var payload triadPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return domain.TriadAnalysis{}, fmt.Errorf("parse provider response: %w", err)
	}

	if payload.TransformedTitle == "" || payload.Thesis.Text == "" ||
		payload.Antithesis.Text == "" || payload.Synthesis.Text == "" {
		return domain.TriadAnalysis{}, fmt.Errorf("incomplete triad analysis")
	}

	return domain.TriadAnalysis{
		TransformedTitle:   payload.TransformedTitle,
		TransformedContent: payload.TransformedContent,
		Category:           payload.Category,
		Thesis:             payload.Thesis,
		Antithesis:         payload.Antithesis,
		Synthesis:          payload.Synthesis,
		KeyInsight:         payload.KeyInsight,
		HarmonyScore:       clampScore(payload.HarmonyScore),
	}, nil
}

func clampScore(raw json.RawMessage) int {
	var score float64
	if len(raw) == 0 || json.Unmarshal(raw, &score) != nil {
		return defaultHarmonyScore
	}

	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return int(score)
	}
}
