package tune

import (
	"context"
	"io"
	"testing"

	"github.com/eugener/genai/internal/core"
)

type fakeTransport struct {
	created     core.CreateTuneParams
	tunes       []core.TuneResult
	deletedID   string
	downloadErr error
}

func (f *fakeTransport) CreateTune(ctx context.Context, params core.CreateTuneParams) (*core.TuneResult, error) {
	f.created = params
	return &core.TuneResult{ID: "t1", Name: params.Name, Status: "PENDING"}, nil
}

func (f *fakeTransport) GetTune(ctx context.Context, tuneID string) (*core.TuneResult, error) {
	for _, tn := range f.tunes {
		if tn.ID == tuneID {
			return &tn, nil
		}
	}
	return &core.TuneResult{ID: tuneID, Status: "NOT_FOUND"}, nil
}

func (f *fakeTransport) ListTunes(ctx context.Context) ([]core.TuneResult, error) {
	return f.tunes, nil
}

func (f *fakeTransport) DeleteTune(ctx context.Context, tuneID string) error {
	f.deletedID = tuneID
	return nil
}

func (f *fakeTransport) DownloadTuneAsset(ctx context.Context, tuneID string, kind core.TuneAssetKind) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return io.NopCloser(nil), nil
}

func TestCreate_RequiresTrainingFiles(t *testing.T) {
	t.Parallel()
	svc := New(&fakeTransport{})
	_, err := svc.Create(context.Background(), CreateParams{Name: "my-tune"})
	if err == nil {
		t.Fatal("expected validation error for missing training file ids")
	}
}

func TestCreate_PassesParamsThrough(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{}
	svc := New(ft)

	tune, err := svc.Create(context.Background(), CreateParams{
		Name:            "my-tune",
		BaseModelID:     "base-1",
		Method:          "mpt",
		Task:            "generation",
		TrainingFileIDs: []string{"f1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tune.ID != "t1" {
		t.Errorf("tune.ID = %q, want t1", tune.ID)
	}
	if ft.created.ModelID != "base-1" || ft.created.MethodID != "mpt" {
		t.Errorf("created params = %+v", ft.created)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{tunes: []core.TuneResult{{ID: "t1", Status: "COMPLETED"}}}
	svc := New(ft)

	status, err := svc.Status(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if status != "COMPLETED" {
		t.Errorf("status = %q, want COMPLETED", status)
	}
}

func TestDelete_RejectsUnknownTune(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{tunes: []core.TuneResult{{ID: "t1"}}}
	svc := New(ft)

	if err := svc.Delete(context.Background(), "unknown"); err == nil {
		t.Fatal("expected error deleting an unknown tune")
	}
	if ft.deletedID != "" {
		t.Error("transport DeleteTune should not have been called")
	}
}

func TestDelete_RemovesKnownTune(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{tunes: []core.TuneResult{{ID: "t1"}}}
	svc := New(ft)

	if err := svc.Delete(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}
	if ft.deletedID != "t1" {
		t.Errorf("deletedID = %q, want t1", ft.deletedID)
	}
}

func TestDownload_ReturnsBothReaders(t *testing.T) {
	t.Parallel()
	ft := &fakeTransport{}
	svc := New(ft)

	encoder, logs, err := svc.Download(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if encoder == nil || logs == nil {
		t.Fatal("expected both readers")
	}
}
