package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eugener/genai/internal/core"
	"github.com/eugener/genai/internal/transport"
)

func TestTextGenerator_GenerateOne_TruncatesAtStopSequence(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate/limits":
			json.NewEncoder(w).Encode(core.CapacitySnapshot{TokenCapacity: 1000, TokensUsed: 0})
		case "/generate":
			json.NewEncoder(w).Encode(core.GenerateResponse{
				Results: []core.GenerateResult{{GeneratedText: "answer: 42\nEND garbage"}},
			})
		}
	}))
	defer srv.Close()

	tr := transport.New(srv.URL, nil, nil)
	model := newModel(tr, "m1")
	gen := NewTextGenerator(model)

	got, err := gen.GenerateOne(context.Background(), "what is 6*7?", core.GenerateParams{}, []string{"END"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "answer: 42\n" {
		t.Errorf("got %q, want %q", got, "answer: 42\n")
	}
}

func TestModel_AvailableAndInfo(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []core.ModelCard{{ID: "m1", Name: "Model One"}},
		})
	}))
	defer srv.Close()

	tr := transport.New(srv.URL, nil, nil)
	model := newModel(tr, "m1")

	ok, err := model.Available(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected model to be available")
	}

	missing := newModel(tr, "missing")
	ok, err = missing.Available(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected unknown model id to be unavailable")
	}

	info, err := model.Info(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info == nil || info.Name != "Model One" {
		t.Errorf("Info() = %+v", info)
	}
}
