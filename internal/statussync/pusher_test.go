package statussync_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowstate/internal/services"
	"flowstate/internal/statussync"
	"flowstate/internal/testsupport"
)

func TestHTTPPusherPaths(t *testing.T) {
	type seen struct {
		method string
		path   string
		auth   string
		task   statussync.Task
	}
	var requests []seen

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := seen{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.Method != http.MethodGet {
			if err := json.NewDecoder(r.Body).Decode(&entry.task); err != nil {
				t.Errorf("decode request body: %v", err)
			}
		}
		requests = append(requests, entry)

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/tasks/flow-missing":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(statussync.Task{ID: "flow-s1", Status: statussync.ExternalOnHold})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithSyncEndpoint(server.URL),
		testsupport.WithSyncToken("secret"),
	)
	pusher := statussync.NewPusher(cfg)
	ctx := context.Background()

	task := statussync.Task{ID: "flow-s1", Name: "Ship", Type: "FLOW", Status: statussync.ExternalPending}
	if err := pusher.Create(ctx, task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := pusher.Push(ctx, task); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	pulled, err := pusher.Pull(ctx, "flow-s1")
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if pulled == nil || pulled.Status != statussync.ExternalOnHold {
		t.Fatalf("unexpected pulled task: %#v", pulled)
	}
	missing, err := pusher.Pull(ctx, "flow-missing")
	if err != nil {
		t.Fatalf("Pull of missing task failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for 404 pull, got %#v", missing)
	}

	if len(requests) != 4 {
		t.Fatalf("expected 4 requests, got %d", len(requests))
	}
	if requests[0].method != http.MethodPost || requests[0].path != "/tasks" {
		t.Fatalf("unexpected create request: %#v", requests[0])
	}
	if requests[1].method != http.MethodPut || requests[1].path != "/tasks/flow-s1" {
		t.Fatalf("unexpected push request: %#v", requests[1])
	}
	for _, req := range requests {
		if req.auth != "Bearer secret" {
			t.Fatalf("expected bearer token on %s %s, got %q", req.method, req.path, req.auth)
		}
	}
	if requests[1].task.ID != "flow-s1" {
		t.Fatalf("unexpected pushed payload: %#v", requests[1].task)
	}
}

func TestHTTPPusherErrorStatusWrapsExternalSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSyncEndpoint(server.URL))
	pusher := statussync.NewPusher(cfg)

	err := pusher.Push(context.Background(), statussync.Task{ID: "flow-s1"})
	if !errors.Is(err, services.ErrExternalSync) {
		t.Fatalf("expected external sync error, got %v", err)
	}
	if _, err := pusher.Pull(context.Background(), "flow-s1"); !errors.Is(err, services.ErrExternalSync) {
		t.Fatalf("expected external sync error on pull, got %v", err)
	}
}

func TestNewPusherWithoutEndpointIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pusher := statussync.NewPusher(cfg)

	if err := pusher.Push(context.Background(), statussync.Task{ID: "flow-s1"}); err != nil {
		t.Fatalf("noop Push failed: %v", err)
	}
	task, err := pusher.Pull(context.Background(), "flow-s1")
	if err != nil || task != nil {
		t.Fatalf("noop Pull should return nil, nil; got %#v, %v", task, err)
	}
}
