package engine

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/eugener/genai/internal/core"
)

func sseBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestStreamEngine_Generate_ProjectsFrames(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{
		generateStream: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error) {
			return sseBody("data: {\"results\":[{\"generated_text\":\"hi\"}]}\n\n" +
				"data: {\"results\":[{\"generated_text\":\" there\"}]}\n\n"), nil
		},
	}
	eng := NewStreamEngine(ft, "m1")

	var texts []string
	for item := range eng.Generate(context.Background(), []string{"prompt"}, core.GenerateParams{}, false) {
		if item.Err != nil {
			t.Fatal(item.Err)
		}
		texts = append(texts, item.Result.GeneratedText)
	}
	if len(texts) != 2 || texts[0] != "hi" || texts[1] != " there" {
		t.Errorf("texts = %v", texts)
	}
}

func TestStreamEngine_Generate_SplitsAcrossSubBatches(t *testing.T) {
	t.Parallel()
	var calls int
	ft := &fakeTransport{
		generateStream: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error) {
			calls++
			return sseBody("data: {\"results\":[{\"generated_text\":\"ok\"}]}\n\n"), nil
		},
	}
	eng := NewStreamEngine(ft, "m1")
	eng.maxPrompts = 1

	count := 0
	for range eng.Generate(context.Background(), []string{"a", "b", "c"}, core.GenerateParams{}, false) {
		count++
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 sub-batches", calls)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestStreamEngine_Chat_SurfacesConversationID(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{
		chatStream: func(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (io.ReadCloser, error) {
			return sseBody("data: {\"conversation_id\":\"c1\",\"results\":[{\"generated_text\":\"hi\"}]}\n\n"), nil
		},
	}
	eng := NewStreamEngine(ft, "m1")

	var items []ChatStreamItem
	for item := range eng.Chat(context.Background(), []core.ChatMessage{{Role: "user", Content: "hi"}}, core.GenerateParams{}, core.ChatOptions{}, false) {
		items = append(items, item)
	}
	if len(items) != 1 || items[0].ConversationID != "c1" {
		t.Fatalf("items = %+v", items)
	}
}

func TestStreamEngine_Generate_TransportErrorTerminates(t *testing.T) {
	t.Parallel()
	boom := &core.ServerError{StatusCode: 503}
	ft := &fakeTransport{
		generateStream: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error) {
			return nil, boom
		},
	}
	eng := NewStreamEngine(ft, "m1")

	var last GenerateStreamItem
	for item := range eng.Generate(context.Background(), []string{"a"}, core.GenerateParams{}, false) {
		last = item
	}
	if last.Err != boom {
		t.Errorf("Err = %v, want %v", last.Err, boom)
	}
}
