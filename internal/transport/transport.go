// Package transport issues the HTTP requests the generation engine drives:
// generate and chat (each with a streaming variant), tokenize, limits,
// model listing, and the tune endpoints. It holds no retry or capacity logic of its own -- that
// lives in internal/retry and internal/capacity, one layer up.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/dnscache"

	"github.com/eugener/genai/internal/core"
)

// Transport is a stateless (aside from its pooled connections) HTTP client
// for the generation service. The authenticated http.Client it wraps is
// supplied by the caller -- credential holding and signing are the
// internal/credentials collaborator's concern, not this package's.
type Transport struct {
	baseURL string
	http    *http.Client
}

// New creates a Transport against baseURL using httpClient. If resolver is
// non-nil, the transport's DialContext is wrapped with cached DNS lookups,
// the same shape the provider adapters in this codebase's lineage use.
func New(baseURL string, httpClient *http.Client, resolver *dnscache.Resolver) *Transport {
	baseURL = strings.TrimRight(baseURL, "/")

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Transport == nil {
		httpClient.Transport = &http.Transport{
			MaxIdleConnsPerHost: 100,
			MaxConnsPerHost:     200,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: 5 * time.Second,
		}
	}
	if resolver != nil {
		if t, ok := httpClient.Transport.(*http.Transport); ok {
			t.DialContext = cachedDialContext(resolver)
		}
	}

	return &Transport{baseURL: baseURL, http: httpClient}
}

func cachedDialContext(resolver *dnscache.Resolver) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := resolver.LookupHost(ctx, host)
		if err != nil {
			return nil, err
		}
		var d net.Dialer
		var lastErr error
		for _, ip := range ips {
			conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

type generateRequest struct {
	ModelID    string             `json:"model_id"`
	Inputs     []string           `json:"inputs"`
	Parameters core.GenerateParams `json:"parameters"`
}

type tokenizeRequest struct {
	ModelID    string          `json:"model_id"`
	Inputs     []string        `json:"inputs"`
	Parameters core.TokenParams `json:"parameters"`
}

type chatRequest struct {
	ModelID                   string               `json:"model_id"`
	Messages                  []core.ChatMessage   `json:"messages"`
	Parameters                core.GenerateParams  `json:"parameters"`
	ConversationID            string               `json:"conversation_id,omitempty"`
	ParentID                  string               `json:"parent_id,omitempty"`
	PromptID                  string               `json:"prompt_id,omitempty"`
	TemplateID                string               `json:"template_id,omitempty"`
	UseConversationParameters bool                 `json:"use_conversation_parameters,omitempty"`
}

type modelsResponse struct {
	Results []core.ModelCard `json:"results"`
}

// Generate issues a non-streaming POST /generate.
func (t *Transport) Generate(ctx context.Context, model string, inputs []string, params core.GenerateParams) (*core.GenerateResponse, error) {
	params = params.WithStream(false)
	var out core.GenerateResponse
	if err := t.postJSON(ctx, "/generate", generateRequest{ModelID: model, Inputs: inputs, Parameters: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateStream issues a streaming POST /generate and returns the raw
// text/event-stream body. Callers pass the body to internal/sse.
func (t *Transport) GenerateStream(ctx context.Context, model string, inputs []string, params core.GenerateParams) (io.ReadCloser, error) {
	params = params.WithStream(true)
	return t.postStream(ctx, "/generate", generateRequest{ModelID: model, Inputs: inputs, Parameters: params})
}

// Tokenize issues a POST /tokenize.
func (t *Transport) Tokenize(ctx context.Context, model string, inputs []string, params core.TokenParams) (*core.TokenizeResponse, error) {
	var out core.TokenizeResponse
	if err := t.postJSON(ctx, "/tokenize", tokenizeRequest{ModelID: model, Inputs: inputs, Parameters: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat issues a non-streaming POST /chat.
func (t *Transport) Chat(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (*core.ChatResponse, error) {
	params = params.WithStream(false)
	req := chatRequestFrom(model, messages, params, opts)
	var out core.ChatResponse
	if err := t.postJSON(ctx, "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChatStream issues a streaming POST /chat and returns the raw body.
func (t *Transport) ChatStream(ctx context.Context, model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) (io.ReadCloser, error) {
	params = params.WithStream(true)
	req := chatRequestFrom(model, messages, params, opts)
	return t.postStream(ctx, "/chat", req)
}

func chatRequestFrom(model string, messages []core.ChatMessage, params core.GenerateParams, opts core.ChatOptions) chatRequest {
	return chatRequest{
		ModelID:                   model,
		Messages:                  messages,
		Parameters:                params,
		ConversationID:            opts.ConversationID,
		ParentID:                  opts.ParentID,
		PromptID:                  opts.PromptID,
		TemplateID:                opts.TemplateID,
		UseConversationParameters: opts.UseConversationParameters,
	}
}

// Limits issues a GET /generate/limits, the server-advertised token budget
// the capacity gate polls.
func (t *Transport) Limits(ctx context.Context) (core.CapacitySnapshot, error) {
	var out core.CapacitySnapshot
	if err := t.getJSON(ctx, "/generate/limits", &out); err != nil {
		return core.CapacitySnapshot{}, err
	}
	return out, nil
}

// ListModels issues a GET /models.
func (t *Transport) ListModels(ctx context.Context) ([]core.ModelCard, error) {
	var out modelsResponse
	if err := t.getJSON(ctx, "/models", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CreateTune issues a POST /tunes, starting a tuning run.
func (t *Transport) CreateTune(ctx context.Context, params core.CreateTuneParams) (*core.TuneResult, error) {
	var out core.TuneResult
	if err := t.postJSON(ctx, "/tunes", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTune issues a GET /tunes/{id}.
func (t *Transport) GetTune(ctx context.Context, tuneID string) (*core.TuneResult, error) {
	var out core.TuneResult
	if err := t.getJSON(ctx, "/tunes/"+tuneID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTunes issues a GET /tunes.
func (t *Transport) ListTunes(ctx context.Context) ([]core.TuneResult, error) {
	var out core.TunesListResult
	if err := t.getJSON(ctx, "/tunes", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// DeleteTune issues a DELETE /tunes/{id}.
func (t *Transport) DeleteTune(ctx context.Context, tuneID string) error {
	resp, err := t.do(ctx, http.MethodDelete, "/tunes/"+tuneID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return parseServerError("/tunes/"+tuneID, resp)
	}
	return nil
}

// DownloadTuneAsset issues a GET /tunes/{id}/content/{kind} and returns the
// raw asset body. The caller owns the returned reader and must close it.
func (t *Transport) DownloadTuneAsset(ctx context.Context, tuneID string, kind core.TuneAssetKind) (io.ReadCloser, error) {
	path := fmt.Sprintf("/tunes/%s/content/%s", tuneID, kind)
	resp, err := t.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseServerError(path, resp)
	}
	return resp.Body, nil
}

func (t *Transport) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := t.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(path, resp, out)
}

func (t *Transport) getJSON(ctx context.Context, path string, out any) error {
	resp, err := t.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(path, resp, out)
}

// postStream issues a request whose successful response body is an open
// SSE stream. The caller owns resp.Body and must close it.
func (t *Transport) postStream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	resp, err := t.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseServerError(path, resp)
	}
	return resp.Body, nil
}

func (t *Transport) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &core.ValidationError{Field: path, Reason: fmt.Sprintf("marshal request: %v", err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, &core.TransportError{Endpoint: path, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := t.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &core.CancelledError{Stage: path, Cause: ctx.Err()}
		}
		return nil, &core.TransportError{Endpoint: path, Cause: err}
	}
	return resp, nil
}

func decodeJSON(path string, resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parseServerError(path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.DecodeError{Endpoint: path, Frame: "response body", Cause: err}
	}
	return nil
}

// parseServerError reads up to 4KB from the response body and wraps it in
// a typed error. Status 429 is surfaced as *core.ServerError too -- it is
// the retry policy's job, not the transport's, to recognize 429 and act.
func parseServerError(path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &core.ServerError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
}
