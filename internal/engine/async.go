package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/eugener/genai/internal/batch"
	"github.com/eugener/genai/internal/capacity"
	"github.com/eugener/genai/internal/core"
	"github.com/eugener/genai/internal/dispatch"
	"github.com/eugener/genai/internal/retry"
)

// AsyncOp selects which operation AsyncEngine multiplexes.
type AsyncOp int

const (
	// AsyncGenerate drives /generate sub-batches.
	AsyncGenerate AsyncOp = iota
	// AsyncTokenize drives /tokenize sub-batches.
	AsyncTokenize
)

// AsyncItem is one yielded element of an AsyncEngine run. Present is
// false for the absent sentinel (§4.7): a prompt whose sub-batch failed
// under throw_on_error=false. Exactly one of GenerateResult/TokenizeResult
// is set when Present, matching the op the Run was configured for.
type AsyncItem struct {
	Index          int
	Present        bool
	GenerateResult *core.GenerateResult
	TokenizeResult *core.TokenizeResult
	Err            error
}

// AsyncOptions configures one AsyncEngine.Run call.
type AsyncOptions struct {
	Op                  AsyncOp
	Ordered             bool
	Callback            func(AsyncItem)
	ThrowOnError        bool
	MaxConcurrencyLimit int
	GenerateParams      core.GenerateParams
	TokenizeParams      core.TokenParams
}

// AsyncEngine is the concurrency-limited dispatcher: many concurrent
// outbound requests bounded by a semaphore, with configurable ordering,
// callback delivery, and error-surfacing policy (§4.7). It is the core's
// most intricate piece.
type AsyncEngine struct {
	transport     Transport
	model         string
	maxPrompts    int
	generateRetry retry.Policy
	tokenizeRetry retry.Policy
}

// NewAsyncEngine creates an AsyncEngine for model.
func NewAsyncEngine(transport Transport, model string) *AsyncEngine {
	return &AsyncEngine{
		transport:     transport,
		model:         model,
		maxPrompts:    core.MaxPrompts,
		generateRetry: retry.New(core.MaxRetriesGenerate),
		tokenizeRetry: retry.New(core.MaxRetriesTokenize),
	}
}

// subBatch is one unit of concurrency: a contiguous slice of the original
// prompt list, tagged with the index its first prompt occupies.
type subBatch struct {
	offset int
	inputs []string
}

// Run multiplexes prompts across sub-batches under opts. The returned
// channel yields exactly len(prompts) items (absent sentinels included)
// unless ThrowOnError cancels the run early, in which case it yields
// whatever completed before the cancelling error plus that error as the
// final item.
//
// Abandoning the channel without cancelling ctx will leak the Run
// goroutine; callers that stop ranging early must cancel ctx (§4.7
// cancellation).
func (e *AsyncEngine) Run(ctx context.Context, prompts []string, opts AsyncOptions) <-chan AsyncItem {
	out := make(chan AsyncItem)

	concurrency := opts.MaxConcurrencyLimit
	if concurrency <= 0 {
		concurrency = core.DefaultConcurrency
	}

	batches := make([]subBatch, 0)
	offset := 0
	for _, inputs := range batch.Split(prompts, e.maxPrompts) {
		batches = append(batches, subBatch{offset: offset, inputs: inputs})
		offset += len(inputs)
	}

	gate := capacity.New(e.transport.Limits)

	go func() {
		defer close(out)

		runCtx := ctx
		var cancel context.CancelFunc
		if opts.ThrowOnError {
			runCtx, cancel = context.WithCancel(ctx)
			defer cancel()
		}

		if err := gate.Init(runCtx); err != nil {
			e.deliver(out, opts, errorItems(batches, err)...)
			return
		}

		results := dispatch.Run(runCtx, int64(concurrency), len(batches), func(wctx context.Context, i int) (asyncBatchResult, error) {
			sb := batches[i]
			if _, err := gate.Take(wctx, len(sb.inputs)); err != nil {
				return asyncBatchResult{sb: sb, err: err}, nil
			}
			res, err := e.runOne(wctx, opts, gate, sb)
			res.sb = sb
			if err != nil {
				if opts.ThrowOnError && cancel != nil {
					cancel()
				}
				return asyncBatchResult{sb: sb, err: err}, nil
			}
			return res, nil
		})

		if opts.Ordered {
			e.deliverOrdered(runCtx, out, opts, results, len(prompts))
			return
		}
		e.deliverUnordered(runCtx, out, opts, results)
	}()

	return out
}

// runOne executes one sub-batch's request with retry, returning decoded,
// input-text-injected results for whichever op was requested.
func (e *AsyncEngine) runOne(ctx context.Context, opts AsyncOptions, gate *capacity.Gate, sb subBatch) (asyncBatchResult, error) {
	switch opts.Op {
	case AsyncTokenize:
		resp, err := retry.Do(ctx, e.tokenizeRetry, "/tokenize", func(n int) (*core.TokenizeResponse, error) {
			return e.transport.Tokenize(ctx, e.model, sb.inputs, opts.TokenizeParams)
		}, func(n int) {
			slog.Debug("tokenize retry", "attempt", n, "offset", sb.offset)
			gate.ForceDepleted()
		})
		if err != nil {
			return asyncBatchResult{}, err
		}
		injectTokenizeInputText(resp.Results, sb.inputs)
		return asyncBatchResult{tokenizeResults: resp.Results}, nil
	default:
		resp, err := retry.Do(ctx, e.generateRetry, "/generate", func(n int) (*core.GenerateResponse, error) {
			return e.transport.Generate(ctx, e.model, sb.inputs, opts.GenerateParams)
		}, func(n int) {
			slog.Debug("generate retry", "attempt", n, "offset", sb.offset)
			gate.ForceDepleted()
		})
		if err != nil {
			return asyncBatchResult{}, err
		}
		injectInputText(resp.Results, sb.inputs)
		return asyncBatchResult{generateResults: resp.Results}, nil
	}
}

type asyncBatchResult struct {
	sb              subBatch
	generateResults []core.GenerateResult
	tokenizeResults []core.TokenizeResult
	err             error
}

func (e *AsyncEngine) deliverUnordered(ctx context.Context, out chan<- AsyncItem, opts AsyncOptions, results <-chan dispatch.Result[asyncBatchResult]) {
	for r := range results {
		items := e.itemsFor(r)
		for _, item := range items {
			e.deliver(out, opts, item)
			if opts.ThrowOnError && item.Err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}
}

func (e *AsyncEngine) deliverOrdered(ctx context.Context, out chan<- AsyncItem, opts AsyncOptions, results <-chan dispatch.Result[asyncBatchResult], n int) {
	pending := make(map[int]AsyncItem, n)
	next := 0
	for r := range results {
		for _, item := range e.itemsFor(r) {
			pending[item.Index] = item
		}
		for {
			item, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			e.deliver(out, opts, item)
			if opts.ThrowOnError && item.Err != nil {
				return
			}
			next++
		}
	}
	if next < n {
		remaining := make([]int, 0, len(pending))
		for idx := range pending {
			remaining = append(remaining, idx)
		}
		sort.Ints(remaining)
		for _, idx := range remaining {
			e.deliver(out, opts, pending[idx])
			if opts.ThrowOnError && pending[idx].Err != nil {
				return
			}
		}
	}
}

func (e *AsyncEngine) itemsFor(r dispatch.Result[asyncBatchResult]) []AsyncItem {
	v := r.Value
	if v.err != nil {
		return absentItems(v.sb, v.err)
	}
	if v.tokenizeResults != nil {
		items := make([]AsyncItem, len(v.tokenizeResults))
		for i := range v.tokenizeResults {
			items[i] = AsyncItem{Index: v.sb.offset + i, Present: true, TokenizeResult: &v.tokenizeResults[i]}
		}
		return items
	}
	items := make([]AsyncItem, len(v.generateResults))
	for i := range v.generateResults {
		items[i] = AsyncItem{Index: v.sb.offset + i, Present: true, GenerateResult: &v.generateResults[i]}
	}
	return items
}

func absentItems(sb subBatch, err error) []AsyncItem {
	items := make([]AsyncItem, len(sb.inputs))
	for i := range sb.inputs {
		items[i] = AsyncItem{Index: sb.offset + i, Present: false, Err: err}
	}
	return items
}

func errorItems(batches []subBatch, err error) []AsyncItem {
	var items []AsyncItem
	for _, sb := range batches {
		items = append(items, absentItems(sb, err)...)
	}
	return items
}

// deliver invokes the callback (if any) then sends each item, honoring
// throw_on_error by terminating after the first error item when set.
func (e *AsyncEngine) deliver(out chan<- AsyncItem, opts AsyncOptions, items ...AsyncItem) {
	for _, item := range items {
		if opts.Callback != nil {
			opts.Callback(item)
		}
		out <- item
		if opts.ThrowOnError && item.Err != nil {
			return
		}
	}
}
