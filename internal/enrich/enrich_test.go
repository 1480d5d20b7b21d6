package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestEnhanceUsesGeneratedText(t *testing.T) {
	gen := &stubGenerator{text: "Indeed, as I proved in 1905..."}
	e := NewEnricher(gen)

	out := e.Enhance(context.Background(), "Albert Einstein", "What is relativity?", "It is a theory.")
	if !out.Enhanced {
		t.Fatalf("Enhanced = false, want true")
	}
	if out.Text != "Indeed, as I proved in 1905..." {
		t.Fatalf("Text = %q, want generated text", out.Text)
	}
	for _, want := range []string{"Albert Einstein", "What is relativity?", "It is a theory."} {
		if !strings.Contains(gen.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, gen.prompt)
		}
	}
}

func TestEnhanceFallsBackOnGeneratorError(t *testing.T) {
	raw := "It is a theory."
	e := NewEnricher(&stubGenerator{err: errors.New("backend down")})

	out := e.Enhance(context.Background(), "Albert Einstein", "q", raw)
	if out.Enhanced {
		t.Fatalf("Enhanced = true after failure, want false")
	}
	if out.Text != raw {
		t.Fatalf("Text = %q, want original reply %q", out.Text, raw)
	}
}

func TestEnhanceFallsBackOnEmptyText(t *testing.T) {
	raw := "It is a theory."
	e := NewEnricher(&stubGenerator{text: "   "})

	out := e.Enhance(context.Background(), "Albert Einstein", "q", raw)
	if out.Enhanced || out.Text != raw {
		t.Fatalf("Outcome = %+v, want fallback to original", out)
	}
}

func TestNilEnricherPassesThrough(t *testing.T) {
	var e *Enricher
	out := e.Enhance(context.Background(), "Carl Sagan", "q", "billions and billions")
	if out.Enhanced || out.Text != "billions and billions" {
		t.Fatalf("Outcome = %+v, want untouched pass-through", out)
	}
}

func TestGeminiGenerateContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want query-string auth", r.URL.Query().Get("key"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["contents"]; !ok {
			t.Errorf("request body missing contents: %v", body)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"rewritten"}]}}]}`))
	}))
	defer ts.Close()

	g := NewGemini(GeminiConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "gemini-2.0-flash"})
	text, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateContent() error = %v", err)
	}
	if text != "rewritten" {
		t.Fatalf("text = %q, want %q", text, "rewritten")
	}
}

func TestGeminiEmptyCandidatesIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer ts.Close()

	g := NewGemini(GeminiConfig{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("GenerateContent() error = nil, want error for empty candidates")
	}
}

func TestGeminiFailureTriggersEnricherFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer ts.Close()

	e := NewEnricher(NewGemini(GeminiConfig{APIKey: "test-key", BaseURL: ts.URL}))
	raw := "the original reply"
	out := e.Enhance(context.Background(), "Marie Curie", "q", raw)
	if out.Enhanced {
		t.Fatalf("Enhanced = true, want false")
	}
	if out.Text != raw {
		t.Fatalf("Text = %q, want byte-for-byte original %q", out.Text, raw)
	}
}
