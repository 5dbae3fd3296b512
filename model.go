package genai

import (
	"context"

	"github.com/eugener/genai/internal/core"
	"github.com/eugener/genai/internal/engine"
	"github.com/eugener/genai/internal/transport"
)

// Model is a generation engine bound to one model id. It owns no
// connection state of its own -- all three engines share the Client's
// Transport.
type Model struct {
	id        string
	transport *transport.Transport
	sync      *engine.SyncEngine
	async     *engine.AsyncEngine
	stream    *engine.StreamEngine
}

func newModel(t *transport.Transport, id string) *Model {
	return &Model{
		id:        id,
		transport: t,
		sync:      engine.NewSyncEngine(t, id),
		async:     engine.NewAsyncEngine(t, id),
		stream:    engine.NewStreamEngine(t, id),
	}
}

// ID returns the bound model identifier.
func (m *Model) ID() string { return m.id }

// Generate drives generate_as_completed: batched, throttled, retrying
// synchronous generation, yielding results as each sub-batch completes.
func (m *Model) Generate(ctx context.Context, prompts []string, params core.GenerateParams) <-chan engine.GenerateItem {
	return m.sync.Generate(ctx, prompts, params, false)
}

// Tokenize drives tokenize_as_completed, the tokenize analogue of Generate.
func (m *Model) Tokenize(ctx context.Context, prompts []string, params core.TokenParams) <-chan engine.TokenizeItem {
	return m.sync.Tokenize(ctx, prompts, params, false)
}

// GenerateAsync drives the concurrency-limited dispatcher across prompts'
// sub-batches. See engine.AsyncOptions for ordering, callback, and
// error-surfacing configuration.
func (m *Model) GenerateAsync(ctx context.Context, prompts []string, opts engine.AsyncOptions) <-chan engine.AsyncItem {
	opts.Op = engine.AsyncGenerate
	return m.async.Run(ctx, prompts, opts)
}

// TokenizeAsync is the tokenize analogue of GenerateAsync.
func (m *Model) TokenizeAsync(ctx context.Context, prompts []string, opts engine.AsyncOptions) <-chan engine.AsyncItem {
	opts.Op = engine.AsyncTokenize
	return m.async.Run(ctx, prompts, opts)
}

// GenerateStream drives generate_stream: one streaming request per
// sub-batch, yielding incremental text and moderation events.
func (m *Model) GenerateStream(ctx context.Context, prompts []string, params core.GenerateParams) <-chan engine.GenerateStreamItem {
	return m.stream.Generate(ctx, prompts, params, false)
}

// Chat drives a single, non-streaming /chat turn.
func (m *Model) Chat(ctx context.Context, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (*core.ChatResponse, error) {
	return m.transport.Chat(ctx, m.id, messages, params, opts)
}

// ChatStream drives chat_stream: one streaming request over the
// conversation's message list.
func (m *Model) ChatStream(ctx context.Context, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) <-chan engine.ChatStreamItem {
	return m.stream.Chat(ctx, messages, params, opts, false)
}

// Available reports whether the bound model id is among the service's
// currently listed models. A tuned model still in progress may list as
// unavailable even though its tune is not yet Status()=="FAILED".
func (m *Model) Available(ctx context.Context) (bool, error) {
	models, err := m.transport.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, card := range models {
		if card.ID == m.id {
			return true, nil
		}
	}
	return false, nil
}

// Info returns the service's ModelCard for the bound model id, or nil if
// the service does not list it.
func (m *Model) Info(ctx context.Context) (*core.ModelCard, error) {
	models, err := m.transport.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range models {
		if models[i].ID == m.id {
			return &models[i], nil
		}
	}
	return nil, nil
}
