package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/MohitThorat/kvserver/cache"
	"github.com/MohitThorat/kvserver/coordinator"
	"github.com/MohitThorat/kvserver/digest"
	"github.com/MohitThorat/kvserver/queue"
	"github.com/MohitThorat/kvserver/server"
	"github.com/MohitThorat/kvserver/store"
)

// fakeStore backs the coordinator with an in-memory row set so the full
// HTTP -> coordinator -> cache/store path can be exercised without a
// database. It satisfies both coordinator.Sessions and
// coordinator.Lookups.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[digest.Key][]byte
	lookups int
}

func (f *fakeStore) Acquire(context.Context) (*store.Session, error) {
	return &store.Session{}, nil
}

func (f *fakeStore) Release(*store.Session) {}

func (f *fakeStore) Lookup(_ context.Context, _ *store.Session, d digest.Key) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	v, ok := f.rows[d]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func newTestServer(t *testing.T, rows map[digest.Key][]byte) (*httptest.Server, *fakeStore, *queue.Queue) {
	t.Helper()

	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 64})
	t.Cleanup(func() { _ = c.Close() })

	fs := &fakeStore{rows: rows}
	q, err := queue.New(queue.Options{})
	if err != nil {
		t.Fatalf("queue.New: %v", err)
	}

	co := coordinator.New(c, fs, fs, q, nil)
	ts := httptest.NewServer(server.New(co, 8, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, fs, q
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("response was not valid JSON: %v", err)
	}
	return body
}

func postKey(t *testing.T, ts *httptest.Server, payload string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/key", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /key: %v", err)
	}
	return resp
}

func getKey(t *testing.T, ts *httptest.Server, key string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + "/key?key=" + key)
	if err != nil {
		t.Fatalf("GET /key: %v", err)
	}
	return resp
}

func deleteKey(t *testing.T, ts *httptest.Server, key string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/key/"+key, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /key/%s: %v", key, err)
	}
	return resp
}

func TestServer_CreateRead(t *testing.T) {
	t.Parallel()
	ts, _, _ := newTestServer(t, nil)

	resp := postKey(t, ts, `{"key":"k1","value":"v1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST: want 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["status"] != "ok" || body["created_key"] != "k1" {
		t.Fatalf("POST body mismatch: %v", body)
	}

	resp = getKey(t, ts, "k1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET: want 200, got %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	if body["key"] != "k1" || body["value"] != "v1" {
		t.Fatalf("GET body mismatch: %v", body)
	}
}

func TestServer_ReadMiss(t *testing.T) {
	t.Parallel()
	ts, _, _ := newTestServer(t, nil)

	resp := getKey(t, ts, "nonexistent_xyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Key not found" || body["value"] != "" {
		t.Fatalf("miss body mismatch: %v", body)
	}
}

func TestServer_DeleteThenReadIsAbsent(t *testing.T) {
	t.Parallel()
	ts, _, q := newTestServer(t, nil)

	resp := postKey(t, ts, `{"key":"k2","value":"v2"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST: want 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = deleteKey(t, ts, "k2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE: want 200, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["status"] != "ok" {
		t.Fatalf("DELETE body mismatch: %v", body)
	}

	resp = getKey(t, ts, "k2")
	if body := decodeBody(t, resp); body["error"] != "Key not found" {
		t.Fatalf("GET after DELETE must be absent: %v", body)
	}

	// The mutations were handed to the write-behind queue in order.
	if task, ok := q.Dequeue(); !ok || task.Kind != queue.Upsert || task.Key != "k2" {
		t.Fatalf("want queued upsert for k2, got %+v", task)
	}
	if task, ok := q.Dequeue(); !ok || task.Kind != queue.Delete || task.Digest != digest.OfString("k2") {
		t.Fatalf("want queued delete for k2, got %+v", task)
	}
}

func TestServer_UpdateReturnsNewValue(t *testing.T) {
	t.Parallel()
	ts, _, _ := newTestServer(t, nil)

	postKey(t, ts, `{"key":"k3","value":"v_old"}`).Body.Close()
	postKey(t, ts, `{"key":"k3","value":"v_new"}`).Body.Close()

	body := decodeBody(t, getKey(t, ts, "k3"))
	if body["value"] != "v_new" {
		t.Fatalf("want v_new, got %v", body)
	}
}

func TestServer_ReadThroughPopulatesCache(t *testing.T) {
	t.Parallel()

	// Pre-populate the store, bypassing the cache.
	rows := map[digest.Key][]byte{digest.OfString("k4"): []byte("v4")}
	ts, fs, _ := newTestServer(t, rows)

	body := decodeBody(t, getKey(t, ts, "k4"))
	if body["value"] != "v4" {
		t.Fatalf("read-through failed: %v", body)
	}

	// The second GET is served from the cache: still exactly one lookup.
	body = decodeBody(t, getKey(t, ts, "k4"))
	if body["value"] != "v4" {
		t.Fatalf("cached read failed: %v", body)
	}
	if got := fs.lookupCount(); got != 1 {
		t.Fatalf("want exactly 1 store lookup, got %d", got)
	}
}

func TestServer_PostRejectsInvalidJSON(t *testing.T) {
	t.Parallel()
	ts, _, _ := newTestServer(t, nil)

	resp := postKey(t, ts, `{"key": "broken`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_PostRequiresContentLength(t *testing.T) {
	t.Parallel()
	ts, _, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/key", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusLengthRequired {
		t.Fatalf("want 411, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestServer_DeleteWithoutKeyIs400(t *testing.T) {
	t.Parallel()
	ts, _, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/key/", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
