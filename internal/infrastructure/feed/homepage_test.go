package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"TriadNews/internal/domain"
)

const sampleHomepage = `<!DOCTYPE html>
<html>
<head><script>window.tracker()</script></head>
<body>
  <nav><a href="/rubrika">Rubrika z dolgim imenom</a></nav>
  <article>
    <a href="/novice/prva-zgodba"><h2>Prva zgodba o pomembnem dogodku</h2></a>
    <p>Povzetek prve zgodbe iz naslovnice.</p>
  </article>
  <article>
    <a href="/novice/prva-zgodba"><h2>Prva zgodba o pomembnem dogodku</h2></a>
  </article>
  <article>
    <a href="https://other.example/story"><h3>Zunanja zgodba z lastno domeno</h3></a>
  </article>
  <div class="card">
    <a href="/kratko">OK</a>
  </div>
</body>
</html>`

func TestHomepageStrategyFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleHomepage))
	}))
	defer server.Close()

	strategy := NewHomepageStrategy(server.Client())
	source := domain.Source{ID: "siol", Name: "Siol.net", HomepageURL: server.URL}

	items, err := strategy.Fetch(context.Background(), source)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	// duplicate href and too-short anchor text are both dropped
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Prva zgodba o pomembnem dogodku" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Link != server.URL+"/novice/prva-zgodba" {
		t.Fatalf("relative href not made absolute: %s", first.Link)
	}
	if first.Summary != "Povzetek prve zgodbe iz naslovnice." {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.PubDate == "" {
		t.Fatal("scanned item should carry a fetch-time publish date")
	}

	if items[1].Link != "https://other.example/story" {
		t.Fatalf("absolute href rewritten: %s", items[1].Link)
	}
}

func TestHomepageStrategyFetchBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	strategy := NewHomepageStrategy(server.Client())
	_, err := strategy.Fetch(context.Background(), domain.Source{ID: "down", HomepageURL: server.URL})
	if err == nil {
		t.Fatal("expected error for non-200 homepage")
	}
}

func TestHomepageStrategyFetchNoURL(t *testing.T) {
	t.Parallel()

	strategy := NewHomepageStrategy(nil)
	if _, err := strategy.Fetch(context.Background(), domain.Source{ID: "none"}); err == nil {
		t.Fatal("expected error for source without homepage url")
	}
}
