package domain

import "testing"

func TestArticleIDStable(t *testing.T) {
	t.Parallel()

	url := "https://rtvslo.si/novica/1"
	first := ArticleID(url)
	second := ArticleID(url)

	if first != second {
		t.Fatalf("same url must yield same id: %s != %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("id must be 32 hex chars, got %d", len(first))
	}
	for _, r := range first {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("id contains non-hex character: %q", r)
		}
	}

	if ArticleID("https://rtvslo.si/novica/2") == first {
		t.Fatal("different urls must yield different ids")
	}
}

func TestAnalyzedFollowsTimestamp(t *testing.T) {
	t.Parallel()

	var article Article
	if article.Analyzed() {
		t.Fatal("article without analyzed_at must not report analyzed")
	}

	ts := "2026-08-31 12:00:00"
	article.AnalyzedAt = &ts
	if !article.Analyzed() {
		t.Fatal("article with analyzed_at must report analyzed")
	}
}

func TestAnalysisRebuild(t *testing.T) {
	t.Parallel()

	title := "Naslov"
	category := "Svet"
	thesisLabel, thesisText := "Teza", "t"
	antithesisLabel, antithesisText := "Antiteza", "a"
	synthesisLabel, synthesisText := "Sinteza", "s"
	insight := "uvid"
	score := 64
	content := "prepisana vsebina"

	article := Article{
		TransformedTitle:   &title,
		Category:           &category,
		ThesisLabel:        &thesisLabel,
		ThesisText:         &thesisText,
		AntithesisLabel:    &antithesisLabel,
		AntithesisText:     &antithesisText,
		SynthesisLabel:     &synthesisLabel,
		SynthesisText:      &synthesisText,
		KeyInsight:         &insight,
		HarmonyScore:       &score,
		TransformedContent: &content,
	}

	analysis := article.Analysis()
	if analysis.TransformedTitle != title || analysis.Category != category {
		t.Fatalf("unexpected rebuild: %+v", analysis)
	}
	if analysis.Thesis != (TriadPart{Label: thesisLabel, Text: thesisText}) {
		t.Fatalf("thesis mismatch: %+v", analysis.Thesis)
	}
	if analysis.HarmonyScore != score {
		t.Fatalf("score mismatch: %d", analysis.HarmonyScore)
	}
	if analysis.TransformedContent != content {
		t.Fatalf("content mismatch: %q", analysis.TransformedContent)
	}
}
