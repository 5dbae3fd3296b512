package engine

import (
	"context"
	"log/slog"

	"github.com/eugener/genai/internal/capacity"
	"github.com/eugener/genai/internal/core"
	"github.com/eugener/genai/internal/retry"
)

// GenerateItem is one element of a SyncEngine.Generate sequence: either a
// decoded result, a whole raw response (when rawResponse=true), or a
// terminal error. The channel closes immediately after an error item.
type GenerateItem struct {
	Result *core.GenerateResult
	Raw    *core.GenerateResponse
	Err    error
}

// TokenizeItem is the tokenize analogue of GenerateItem.
type TokenizeItem struct {
	Result *core.TokenizeResult
	Raw    *core.TokenizeResponse
	Err    error
}

// SyncEngine drives batched, throttled, retrying generation and yields
// results as they complete (generate_as_completed / tokenize_as_completed,
// §4.6). It is single-threaded cooperative: one request at a time,
// caller-thread driven (§5).
type SyncEngine struct {
	transport      Transport
	model          string
	maxPrompts     int
	generateRetry  retry.Policy
	tokenizeRetry  retry.Policy
}

// NewSyncEngine creates a SyncEngine for model, using the core's default
// prompt bound and retry budgets.
func NewSyncEngine(transport Transport, model string) *SyncEngine {
	return &SyncEngine{
		transport:     transport,
		model:         model,
		maxPrompts:    core.MaxPrompts,
		generateRetry: retry.New(core.MaxRetriesGenerate),
		tokenizeRetry: retry.New(core.MaxRetriesTokenize),
	}
}

// Generate is one-shot: the returned channel must be drained to
// completion or the caller must cancel ctx to release the engine's
// goroutine (§5 lifecycle).
func (e *SyncEngine) Generate(ctx context.Context, prompts []string, params core.GenerateParams, rawResponse bool) <-chan GenerateItem {
	out := make(chan GenerateItem)
	params = params.WithStream(false)

	go func() {
		defer close(out)

		// sendErr delivers a terminal error item unless the caller has
		// cancelled ctx and may no longer be reading.
		sendErr := func(err error) {
			select {
			case sendErr(err):
			case <-ctx.Done():
			}
		}

		gate := capacity.New(e.transport.Limits)
		if err := gate.Init(ctx); err != nil {
			sendErr(err)
			return
		}

		pending := append([]string(nil), prompts...)
		for len(pending) > 0 {
			want := len(pending)
			if want > e.maxPrompts {
				want = e.maxPrompts
			}
			take, err := gate.Take(ctx, want)
			if err != nil {
				sendErr(err)
				return
			}
			inputs := pending[:take]
			pending = pending[take:]

			resp, err := retry.Do(ctx, e.generateRetry, "/generate", func(n int) (*core.GenerateResponse, error) {
				return e.transport.Generate(ctx, e.model, inputs, params)
			}, func(n int) {
				slog.Debug("generate retry", "attempt", n, "inputs", len(inputs))
				gate.ForceDepleted()
			})
			if err != nil {
				sendErr(err)
				return
			}

			injectInputText(resp.Results, inputs)
			if rawResponse {
				select {
				case out <- GenerateItem{Raw: resp}:
				case <-ctx.Done():
					return
				}
				continue
			}
			for i := range resp.Results {
				select {
				case out <- GenerateItem{Result: &resp.Results[i]}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Tokenize is tokenize_as_completed: the same batching/capacity/retry
// discipline as Generate, against /tokenize.
func (e *SyncEngine) Tokenize(ctx context.Context, prompts []string, params core.TokenParams, rawResponse bool) <-chan TokenizeItem {
	out := make(chan TokenizeItem)

	go func() {
		defer close(out)

		gate := capacity.New(e.transport.Limits)
		if err := gate.Init(ctx); err != nil {
			out <- TokenizeItem{Err: err}
			return
		}

		pending := append([]string(nil), prompts...)
		for len(pending) > 0 {
			want := len(pending)
			if want > e.maxPrompts {
				want = e.maxPrompts
			}
			take, err := gate.Take(ctx, want)
			if err != nil {
				out <- TokenizeItem{Err: err}
				return
			}
			inputs := pending[:take]
			pending = pending[take:]

			resp, err := retry.Do(ctx, e.tokenizeRetry, "/tokenize", func(n int) (*core.TokenizeResponse, error) {
				return e.transport.Tokenize(ctx, e.model, inputs, params)
			}, func(n int) {
				slog.Debug("tokenize retry", "attempt", n, "inputs", len(inputs))
				gate.ForceDepleted()
			})
			if err != nil {
				out <- TokenizeItem{Err: err}
				return
			}

			injectTokenizeInputText(resp.Results, inputs)
			if rawResponse {
				select {
				case out <- TokenizeItem{Raw: resp}:
				case <-ctx.Done():
					return
				}
				continue
			}
			for i := range resp.Results {
				select {
				case out <- TokenizeItem{Result: &resp.Results[i]}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
