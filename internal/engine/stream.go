package engine

import (
	"context"
	"encoding/json"
	"io"

	"github.com/eugener/genai/internal/batch"
	"github.com/eugener/genai/internal/core"
	"github.com/eugener/genai/internal/sse"
)

// GenerateStreamItem is one element of a StreamEngine.Generate sequence.
type GenerateStreamItem struct {
	Result *core.GenerateStreamResult
	Raw    *core.ApiGenerateStreamResponse
	Err    error
}

// ChatStreamItem is the chat analogue of GenerateStreamItem.
type ChatStreamItem struct {
	ConversationID string
	Result         *core.GenerateStreamResult
	Raw            *core.ChatStreamResponse
	Err            error
}

// StreamEngine composes Batcher+Transport+SseDemux for incremental
// generation (generate_stream / chat_stream, §4.8). 429 handling and
// capacity gating do not apply to streaming calls in this core: streams
// are long-lived, and the server throttles by refusing the initial
// handshake.
type StreamEngine struct {
	transport  Transport
	model      string
	maxPrompts int
}

// NewStreamEngine creates a StreamEngine for model.
func NewStreamEngine(transport Transport, model string) *StreamEngine {
	return &StreamEngine{transport: transport, model: model, maxPrompts: core.MaxPrompts}
}

// Generate opens one streaming request per sub-batch, serially (sub-batches
// are issued one after another, preserving submission order across them,
// §5), and projects each frame per §4.5.
func (e *StreamEngine) Generate(ctx context.Context, prompts []string, params core.GenerateParams, rawResponse bool) <-chan GenerateStreamItem {
	out := make(chan GenerateStreamItem)
	params = params.WithStream(true)

	go func() {
		defer close(out)

		for _, inputs := range batch.Split(prompts, e.maxPrompts) {
			if ctx.Err() != nil {
				return
			}

			body, err := e.transport.GenerateStream(ctx, e.model, inputs, params)
			if err != nil {
				out <- GenerateStreamItem{Err: err}
				return
			}

			ok := drainGenerateStream(ctx, body, rawResponse, out)
			if !ok {
				return
			}
		}
	}()

	return out
}

func drainGenerateStream(ctx context.Context, body io.ReadCloser, rawResponse bool, out chan<- GenerateStreamItem) bool {
	dec := sse.NewDecoder("/generate", body)
	defer dec.Close()

	for {
		frame, ok, err := dec.Next()
		if err != nil {
			out <- GenerateStreamItem{Err: err}
			return false
		}
		if !ok {
			return true
		}

		if rawResponse {
			var event core.ApiGenerateStreamResponse
			if err := json.Unmarshal(frame, &event); err != nil {
				out <- GenerateStreamItem{Err: &core.DecodeError{Endpoint: "/generate", Frame: string(frame), Cause: err}}
				return false
			}
			select {
			case out <- GenerateStreamItem{Raw: &event}:
			case <-ctx.Done():
				return false
			}
			continue
		}

		results, err := sse.ProjectGenerate("/generate", frame)
		if err != nil {
			out <- GenerateStreamItem{Err: err}
			return false
		}
		for i := range results {
			select {
			case out <- GenerateStreamItem{Result: &results[i]}:
			case <-ctx.Done():
				return false
			}
		}
	}
}

// Chat opens a single streaming request over the conversation's message
// list and projects each frame per §4.5, surfacing the conversation id the
// server echoes.
func (e *StreamEngine) Chat(ctx context.Context, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions, rawResponse bool) <-chan ChatStreamItem {
	out := make(chan ChatStreamItem)
	params = params.WithStream(true)

	go func() {
		defer close(out)

		body, err := e.transport.ChatStream(ctx, e.model, messages, params, opts)
		if err != nil {
			out <- ChatStreamItem{Err: err}
			return
		}

		dec := sse.NewDecoder("/chat", body)
		defer dec.Close()
		for {
			frame, ok, err := dec.Next()
			if err != nil {
				out <- ChatStreamItem{Err: err}
				return
			}
			if !ok {
				return
			}

			if rawResponse {
				var event core.ChatStreamResponse
				if err := json.Unmarshal(frame, &event); err != nil {
					out <- ChatStreamItem{Err: &core.DecodeError{Endpoint: "/chat", Frame: string(frame), Cause: err}}
					return
				}
				select {
				case out <- ChatStreamItem{ConversationID: event.ConversationID, Raw: &event}:
				case <-ctx.Done():
					return
				}
				continue
			}

			conversationID, results, err := sse.ProjectChat("/chat", frame)
			if err != nil {
				out <- ChatStreamItem{Err: err}
				return
			}
			for i := range results {
				select {
				case out <- ChatStreamItem{ConversationID: conversationID, Result: &results[i]}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
