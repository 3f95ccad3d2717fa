package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LJTian/NewsPulse/internal/storage"
)

func seedRaw(store *fakeStore, id string) {
	store.raws["https://example.com/"+id] = &storage.RawArticle{
		ExternalID:  "https://example.com/" + id,
		Title:       "Item " + id,
		Description: "desc " + id,
		PublishedAt: time.Now(),
	}
}

func TestDispatchRequiresSecretForJobRunner(t *testing.T) {
	store := newFakeStore()
	d := &Dispatcher{Store: store, JobRunnerURL: "https://runner.example/jobs"}

	_, err := d.Dispatch()
	if !errors.Is(err, ErrNoTriggerSecret) {
		t.Fatalf("err = %v, want ErrNoTriggerSecret", err)
	}
}

func TestDispatchTriggersJobRunner(t *testing.T) {
	store := newFakeStore()
	seedRaw(store, "a")
	seedRaw(store, "b")

	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := &Dispatcher{Store: store, JobRunnerURL: srv.URL, Secret: "s3cret"}
	res, err := d.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if !res.Triggered || res.Before != 2 {
		t.Fatalf("result = %+v, want triggered with before=2", res)
	}
	if gotAuth != "Bearer s3cret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["job"] != "process-raw" {
		t.Fatalf("job payload = %v", gotBody)
	}
}

func TestDispatchSurfacesJobRunnerRejection(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := &Dispatcher{Store: store, JobRunnerURL: srv.URL, Secret: "s3cret"}
	_, err := d.Dispatch()

	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DispatchError", err)
	}
	if de.Status != http.StatusServiceUnavailable {
		t.Fatalf("DispatchError.Status = %d", de.Status)
	}
}

func TestDispatchLocalFallbackProcessesRaws(t *testing.T) {
	store := newFakeStore()
	seedRaw(store, "a")
	seedRaw(store, "b")

	// 未配置外部执行器：走进程内兜底加工
	d := &Dispatcher{Store: store}
	res, err := d.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if res.Before != 2 || res.After != 0 || res.Created != 2 || res.Total != 2 {
		t.Fatalf("result = %+v, want before=2 after=0 created=2 total=2", res)
	}

	// is_processed 只翻转一次：再跑一轮不会重复产出成稿
	res, err = d.Dispatch()
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if res.Before != 0 || res.Created != 0 || res.Total != 2 {
		t.Fatalf("second run = %+v, want before=0 created=0 total=2", res)
	}
}

func TestStatusCounts(t *testing.T) {
	store := newFakeStore()
	seedRaw(store, "a")
	seedRaw(store, "b")
	store.raws["https://example.com/b"].IsProcessed = true

	d := &Dispatcher{Store: store}
	unprocessed, processed, err := d.Status()
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if unprocessed != 1 || processed != 1 {
		t.Fatalf("Status = %d/%d, want 1/1", unprocessed, processed)
	}
}
