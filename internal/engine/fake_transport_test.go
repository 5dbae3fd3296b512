package engine

import (
	"context"
	"io"

	"github.com/eugener/genai/internal/core"
)

// fakeTransport is a hand-rolled stand-in for internal/transport.Transport,
// scripted per test with closures so engine tests never touch the network.
type fakeTransport struct {
	generate       func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error)
	generateStream func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error)
	tokenize       func(ctx context.Context, model string, inputs []string, params core.TokenParams) (*core.TokenizeResponse, error)
	chat           func(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (*core.ChatResponse, error)
	chatStream     func(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (io.ReadCloser, error)
	limits         func(ctx context.Context) (core.CapacitySnapshot, error)
}

func (f *fakeTransport) Generate(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error) {
	return f.generate(ctx, model, inputs, params)
}

func (f *fakeTransport) GenerateStream(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error) {
	return f.generateStream(ctx, model, inputs, params)
}

func (f *fakeTransport) Tokenize(ctx context.Context, model string, inputs []string, params core.TokenParams) (*core.TokenizeResponse, error) {
	return f.tokenize(ctx, model, inputs, params)
}

func (f *fakeTransport) Chat(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (*core.ChatResponse, error) {
	return f.chat(ctx, model, messages, params, opts)
}

func (f *fakeTransport) ChatStream(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (io.ReadCloser, error) {
	return f.chatStream(ctx, model, messages, params, opts)
}

func (f *fakeTransport) Limits(ctx context.Context) (core.CapacitySnapshot, error) {
	return f.limits(ctx)
}

func unlimited() func(ctx context.Context) (core.CapacitySnapshot, error) {
	return func(ctx context.Context) (core.CapacitySnapshot, error) {
		return core.CapacitySnapshot{TokenCapacity: 1_000_000, TokensUsed: 0}, nil
	}
}
