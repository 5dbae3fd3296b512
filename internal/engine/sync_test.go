package engine

import (
	"context"
	"testing"

	"github.com/eugener/genai/internal/core"
)

func TestSyncEngine_Generate_InjectsInputText(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{
		limits: unlimited(),
		generate: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error) {
			results := make([]core.GenerateResult, len(inputs))
			for i := range inputs {
				results[i] = core.GenerateResult{GeneratedText: "echo"}
			}
			return &core.GenerateResponse{ModelID: model, Results: results}, nil
		},
	}
	eng := NewSyncEngine(ft, "m1")

	var items []GenerateItem
	for item := range eng.Generate(context.Background(), []string{"a", "b"}, core.GenerateParams{}, false) {
		items = append(items, item)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Result.InputText != "a" || items[1].Result.InputText != "b" {
		t.Errorf("InputText not injected by position: %+v / %+v", items[0].Result, items[1].Result)
	}
}

func TestSyncEngine_Generate_SplitsAcrossMaxPrompts(t *testing.T) {
	t.Parallel()
	var batchSizes []int
	ft := &fakeTransport{
		limits: unlimited(),
		generate: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error) {
			batchSizes = append(batchSizes, len(inputs))
			return &core.GenerateResponse{Results: make([]core.GenerateResult, len(inputs))}, nil
		},
	}
	eng := NewSyncEngine(ft, "m1")
	eng.maxPrompts = 2

	prompts := []string{"a", "b", "c", "d", "e"}
	count := 0
	for range eng.Generate(context.Background(), prompts, core.GenerateParams{}, false) {
		count++
	}
	if count != len(prompts) {
		t.Fatalf("got %d results, want %d", count, len(prompts))
	}
	if len(batchSizes) != 3 || batchSizes[0] != 2 || batchSizes[1] != 2 || batchSizes[2] != 1 {
		t.Errorf("batch sizes = %v, want [2 2 1]", batchSizes)
	}
}

func TestSyncEngine_Generate_PropagatesTerminalError(t *testing.T) {
	t.Parallel()
	boom := &core.ServerError{StatusCode: 500}
	ft := &fakeTransport{
		limits: unlimited(),
		generate: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error) {
			return nil, boom
		},
	}
	eng := NewSyncEngine(ft, "m1")

	var last GenerateItem
	for item := range eng.Generate(context.Background(), []string{"a"}, core.GenerateParams{}, false) {
		last = item
	}
	if last.Err != boom {
		t.Errorf("Err = %v, want %v", last.Err, boom)
	}
}

func TestSyncEngine_Generate_RawResponse(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{
		limits: unlimited(),
		generate: func(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error) {
			return &core.GenerateResponse{ModelID: model, Results: []core.GenerateResult{{}, {}}}, nil
		},
	}
	eng := NewSyncEngine(ft, "m1")

	var items []GenerateItem
	for item := range eng.Generate(context.Background(), []string{"a", "b"}, core.GenerateParams{}, true) {
		items = append(items, item)
	}
	if len(items) != 1 || items[0].Raw == nil {
		t.Fatalf("expected a single raw item, got %+v", items)
	}
}

func TestSyncEngine_Tokenize_InjectsInputText(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{
		limits: unlimited(),
		tokenize: func(ctx context.Context, model string, inputs []string, params core.TokenParams) (*core.TokenizeResponse, error) {
			results := make([]core.TokenizeResult, len(inputs))
			for i := range inputs {
				results[i] = core.TokenizeResult{TokenCount: len(inputs[i])}
			}
			return &core.TokenizeResponse{Results: results}, nil
		},
	}
	eng := NewSyncEngine(ft, "m1")

	var items []TokenizeItem
	for item := range eng.Tokenize(context.Background(), []string{"hi"}, core.TokenParams{}, false) {
		items = append(items, item)
	}
	if len(items) != 1 || items[0].Result.InputText != "hi" {
		t.Fatalf("items = %+v", items)
	}
}
