package genai

import (
	"context"
	"strings"

	"github.com/eugener/genai/internal/core"
)

// TextGenerator is the convenience layer over Model.Generate for callers
// that just want plain strings back. Unlike the engine-level Generate,
// which always passes stop sequences through to the server untouched,
// GenerateOne and GenerateMany additionally truncate the returned text at
// the first client-observed occurrence of a stop sequence -- the server's
// own stop handling only ever looks forward from its own tokenization, and
// can occasionally let a sequence straddling a token boundary through.
type TextGenerator struct {
	model *Model
}

// NewTextGenerator wraps model for plain-string generation.
func NewTextGenerator(model *Model) *TextGenerator {
	return &TextGenerator{model: model}
}

// GenerateOne generates a single completion for prompt. If stop is
// non-empty it replaces params.StopSequences for this call.
func (g *TextGenerator) GenerateOne(ctx context.Context, prompt string, params core.GenerateParams, stop []string) (string, error) {
	texts, err := g.GenerateMany(ctx, []string{prompt}, params, stop)
	if err != nil {
		return "", err
	}
	return texts[0], nil
}

// GenerateMany generates one completion per prompt, preserving submission
// order. If stop is non-empty it replaces params.StopSequences for this
// call.
func (g *TextGenerator) GenerateMany(ctx context.Context, prompts []string, params core.GenerateParams, stop []string) ([]string, error) {
	if len(stop) > 0 {
		params = params.Clone()
		params.StopSequences = stop
	}

	texts := make([]string, 0, len(prompts))
	for item := range g.model.Generate(ctx, prompts, params) {
		if item.Err != nil {
			return nil, item.Err
		}
		texts = append(texts, enforceStopSequences(item.Result.GeneratedText, params.StopSequences))
	}
	return texts, nil
}

// enforceStopSequences truncates text at the earliest occurrence of any of
// stops, if any occur at all.
func enforceStopSequences(text string, stops []string) string {
	cut := -1
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if i := strings.Index(text, stop); i >= 0 && (cut == -1 || i < cut) {
			cut = i
		}
	}
	if cut == -1 {
		return text
	}
	return text[:cut]
}
