// Package tune implements the tune lifecycle façade consumed by the public
// client: starting a tuning run against training data, polling its status,
// deleting a finished run, and pulling down its artifacts. It holds no
// generation-engine concerns -- a tuned run only ever participates in
// generation as the model_id of an ordinary request.
package tune

import (
	"context"
	"io"

	"github.com/eugener/genai/internal/core"
)

// Transport is the subset of internal/transport.Transport the tune service
// drives.
type Transport interface {
	CreateTune(ctx context.Context, params core.CreateTuneParams) (*core.TuneResult, error)
	GetTune(ctx context.Context, tuneID string) (*core.TuneResult, error)
	ListTunes(ctx context.Context) ([]core.TuneResult, error)
	DeleteTune(ctx context.Context, tuneID string) error
	DownloadTuneAsset(ctx context.Context, tuneID string, kind core.TuneAssetKind) (io.ReadCloser, error)
}

// Service is the tune lifecycle façade: create, status, delete, download.
// Implementations must be safe for concurrent use.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*core.TuneResult, error)
	Status(ctx context.Context, tuneID string) (string, error)
	Delete(ctx context.Context, tuneID string) error
	Download(ctx context.Context, tuneID string) (encoder, logs io.ReadCloser, err error)
}

// CreateParams names a tuning run and the training data it runs against.
// TrainingFileIDs is required -- the service has no notion of tuning from
// raw local files, only from files already uploaded to it.
type CreateParams struct {
	Name              string
	BaseModelID       string
	Method            string
	Task              string
	TrainingFileIDs   []string
	ValidationFileIDs []string
	Hyperparameters   core.TuneHyperParams
}

type service struct {
	transport Transport
}

// New returns a Service backed by the given Transport.
func New(transport Transport) Service {
	return &service{transport: transport}
}

// Create starts a tuning run. TrainingFileIDs must be non-empty.
func (s *service) Create(ctx context.Context, params CreateParams) (*core.TuneResult, error) {
	if len(params.TrainingFileIDs) == 0 {
		return nil, &core.ValidationError{Field: "TrainingFileIDs", Reason: "at least one training file id is required"}
	}
	return s.transport.CreateTune(ctx, core.CreateTuneParams{
		Name:              params.Name,
		ModelID:           params.BaseModelID,
		MethodID:          params.Method,
		TaskID:            params.Task,
		TrainingFileIDs:   params.TrainingFileIDs,
		ValidationFileIDs: params.ValidationFileIDs,
		Parameters:        params.Hyperparameters,
	})
}

// Status returns the current status of a tuning run.
func (s *service) Status(ctx context.Context, tuneID string) (string, error) {
	tune, err := s.transport.GetTune(ctx, tuneID)
	if err != nil {
		return "", err
	}
	return tune.Status, nil
}

// Delete removes a tuning run. It first confirms tuneID names a tune the
// service actually knows about, since the service's DELETE on an unknown or
// non-tune model id is not well defined.
func (s *service) Delete(ctx context.Context, tuneID string) error {
	tunes, err := s.transport.ListTunes(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, t := range tunes {
		if t.ID == tuneID {
			found = true
			break
		}
	}
	if !found {
		return &core.ValidationError{Field: "tuneID", Reason: "no such tuning run: " + tuneID}
	}
	return s.transport.DeleteTune(ctx, tuneID)
}

// Download retrieves a completed tune's encoder and training-log assets.
// Callers must close both readers; if encoder download fails, logs is nil.
func (s *service) Download(ctx context.Context, tuneID string) (io.ReadCloser, io.ReadCloser, error) {
	encoder, err := s.transport.DownloadTuneAsset(ctx, tuneID, core.TuneAssetEncoder)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.transport.DownloadTuneAsset(ctx, tuneID, core.TuneAssetLogs)
	if err != nil {
		encoder.Close()
		return nil, nil, err
	}
	return encoder, logs, nil
}
