package enrich

import (
	"context"
	"fmt"
	"strings"
)

// Outcome is the result of an enrichment attempt. Text is always usable: when
// Enhanced is false it is the caller's original reply, unchanged.
type Outcome struct {
	Text     string
	Enhanced bool
}

// Enricher rewrites a persona's raw reply in the persona's voice through a
// text-generation backend. Enrichment is best-effort: any backend failure
// falls back to the original reply and is never surfaced to the conversation.
type Enricher struct {
	generator Generator
}

func NewEnricher(generator Generator) *Enricher {
	return &Enricher{generator: generator}
}

// Enhance rewrites rawReply in figureName's voice. A nil enricher or
// generator passes the reply through untouched.
func (e *Enricher) Enhance(ctx context.Context, figureName, question, rawReply string) Outcome {
	if e == nil || e.generator == nil {
		return Outcome{Text: rawReply}
	}

	prompt := buildPrompt(figureName, question, rawReply)
	text, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return Outcome{Text: rawReply}
	}
	return Outcome{Text: text, Enhanced: true}
}

func buildPrompt(figureName, question, rawReply string) string {
	return fmt.Sprintf(`You are %s, a historical figure.
The user asked: %q

Initial response: %q

Please enhance this response to make it more accurate, informative, and in the style of how %s would speak.
Include relevant historical facts and context that %s would know.
Make sure to maintain the authentic voice and perspective of %s.
Keep your answer concise but informative.`,
		figureName, question, rawReply, figureName, figureName, figureName)
}
