// Package engine implements the generation execution engine: SyncEngine,
// AsyncEngine, and StreamEngine (§2, §4.6-4.8). Each composes Batcher,
// CapacityGate, Transport, RetryPolicy, and -- for streaming -- SseDemux.
package engine

import (
	"context"
	"io"

	"github.com/eugener/genai/internal/core"
)

// Transport is the subset of internal/transport.Transport the engines
// consume. Declaring it here (rather than importing the concrete type)
// keeps the engines testable against hand-rolled fakes, matching this
// codebase's provider-adapter/gateway.Provider split.
type Transport interface {
	Generate(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error)
	GenerateStream(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error)
	Tokenize(ctx context.Context, model string, inputs []string, params core.TokenParams) (*core.TokenizeResponse, error)
	Chat(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (*core.ChatResponse, error)
	ChatStream(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (io.ReadCloser, error)
	Limits(ctx context.Context) (core.CapacitySnapshot, error)
}

// injectInputText sets each result's InputText from the matching request
// input by position, overriding anything the server echoed, per §4.6.
func injectInputText(results []core.GenerateResult, inputs []string) {
	for i := range results {
		if i < len(inputs) {
			results[i].InputText = inputs[i]
		}
	}
}

func injectTokenizeInputText(results []core.TokenizeResult, inputs []string) {
	for i := range results {
		if i < len(inputs) {
			results[i].InputText = inputs[i]
		}
	}
}
