// Package genai is a client for a remote text-generation service: batched
// and throttled synchronous generation, concurrency-limited asynchronous
// generation, and incremental streaming, plus the thin façades around tune
// lifecycle and model listing that sit alongside the generation engine.
//
// Credential holding, request signing, parameter validation beyond what the
// wire format requires, and prompt templating are the caller's concern --
// this package drives the engine, nothing upstream of it.
package genai

import (
	"github.com/rs/dnscache"

	"github.com/eugener/genai/internal/config"
	"github.com/eugener/genai/internal/credentials"
	"github.com/eugener/genai/internal/telemetry"
	"github.com/eugener/genai/internal/transport"
	"github.com/eugener/genai/internal/tune"
)

// Client holds the transport and default wiring shared by every Model
// obtained from it. A Client is safe for concurrent use; it holds no
// per-request state.
type Client struct {
	transport *transport.Transport
	cfg       *config.Config
	metrics   *telemetry.Metrics
}

// NewClient builds a Client from cfg. It constructs the authenticated HTTP
// client (internal/credentials) and the DNS-cached transport. It sets up no
// metrics; attach them with WithMetrics.
func NewClient(cfg *config.Config) (*Client, error) {
	httpClient := credentials.NewClient(cfg.APIKey())
	if cfg.RequestTimeout > 0 {
		httpClient.Timeout = cfg.RequestTimeout
	}

	resolver := &dnscache.Resolver{}
	t := transport.New(cfg.BaseURL, httpClient, resolver)

	c := &Client{transport: t, cfg: cfg}
	return c, nil
}

// WithMetrics stores m on the Client and returns the Client. The engines
// and the transport do not record against m. It is the caller's
// responsibility to register m's collectors with a Prometheus registerer.
func (c *Client) WithMetrics(m *telemetry.Metrics) *Client {
	c.metrics = m
	return c
}

// Model returns a Model handle bound to modelID, ready to drive the
// generation engines or the tune façade.
func (c *Client) Model(modelID string) *Model {
	return newModel(c.transport, modelID)
}

// Tunes returns the tune lifecycle façade, independent of any one model id
// (each tuning run names its base model in CreateParams.BaseModelID).
func (c *Client) Tunes() tune.Service {
	return tune.New(c.transport)
}
