package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Source describes one upstream news origin and its display metadata.
// An empty FeedURL means the source has no usable feed and is collected
// by scanning its homepage instead.
type Source struct {
	ID          string
	Name        string
	FeedURL     string
	HomepageURL string
	Color       string
	Language    string
	Bias        string
}

// FeedItem is a normalized entry produced by a fetch strategy before it
// is persisted.
type FeedItem struct {
	Title   string
	Link    string
	Summary string
	Source  string
	PubDate string
}

// TriadPart is one labeled side of the thesis/antithesis/synthesis triad.
type TriadPart struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// TriadAnalysis is the validated result of one enrichment call.
type TriadAnalysis struct {
	TransformedTitle   string    `json:"transformed_title"`
	TransformedContent string    `json:"transformed_content,omitempty"`
	Category           string    `json:"category"`
	Thesis             TriadPart `json:"thesis"`
	Antithesis         TriadPart `json:"antithesis"`
	Synthesis          TriadPart `json:"synthesis"`
	KeyInsight         string    `json:"key_insight"`
	HarmonyScore       int       `json:"harmony_score"`
}

// AnalysisRequest carries everything the enrichment provider needs for
// one article. Content is the optional scraped full text.
type AnalysisRequest struct {
	Title      string
	Summary    string
	SourceID   string
	SourceBias string
	Content    string
}

// Article is the persisted entity. Enrichment fields are nil until the
// article has been analyzed; AnalyzedAt being set implies all required
// enrichment fields are set.
type Article struct {
	ID                 string  `json:"id"`
	SourceID           string  `json:"source_id"`
	OriginalTitle      string  `json:"original_title"`
	OriginalSummary    *string `json:"original_summary"`
	URL                string  `json:"url"`
	PubDate            *string `json:"pub_date"`
	FetchedAt          string  `json:"fetched_at"`
	AnalyzedAt         *string `json:"analyzed_at"`
	TransformedTitle   *string `json:"transformed_title"`
	Category           *string `json:"category"`
	ThesisLabel        *string `json:"thesis_label"`
	ThesisText         *string `json:"thesis_text"`
	AntithesisLabel    *string `json:"antithesis_label"`
	AntithesisText     *string `json:"antithesis_text"`
	SynthesisLabel     *string `json:"synthesis_label"`
	SynthesisText      *string `json:"synthesis_text"`
	KeyInsight         *string `json:"key_insight"`
	HarmonyScore       *int    `json:"harmony_score"`
	OriginalContent    *string `json:"-"`
	TransformedContent *string `json:"transformed_content,omitempty"`
	Language           string  `json:"language"`
}

// Analyzed reports whether the article already carries enrichment data.
func (a Article) Analyzed() bool {
	return a.AnalyzedAt != nil
}

// Analysis rebuilds the TriadAnalysis stored on an analyzed article.
func (a Article) Analysis() TriadAnalysis {
	analysis := TriadAnalysis{
		TransformedTitle: deref(a.TransformedTitle),
		Category:         deref(a.Category),
		Thesis:           TriadPart{Label: deref(a.ThesisLabel), Text: deref(a.ThesisText)},
		Antithesis:       TriadPart{Label: deref(a.AntithesisLabel), Text: deref(a.AntithesisText)},
		Synthesis:        TriadPart{Label: deref(a.SynthesisLabel), Text: deref(a.SynthesisText)},
		KeyInsight:       deref(a.KeyInsight),
	}
	if a.TransformedContent != nil {
		analysis.TransformedContent = *a.TransformedContent
	}
	if a.HarmonyScore != nil {
		analysis.HarmonyScore = *a.HarmonyScore
	}
	return analysis
}

// ArticleID derives the stable primary key for a canonical article URL.
// Re-fetching the same URL always maps to the same row.
func ArticleID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])[:32]
}

// ListFilter narrows article listings; all set predicates compose with AND.
type ListFilter struct {
	Source   string
	Category string
	Analyzed *bool
	Search   string
	Limit    int
	Offset   int
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
