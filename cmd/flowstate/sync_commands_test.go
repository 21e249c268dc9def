package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"flowstate/internal/statussync"
)

// taskServer is a minimal in-memory stand-in for the external status system.
type taskServer struct {
	mu    sync.Mutex
	tasks map[string]statussync.Task
}

func newTaskServer() *taskServer {
	return &taskServer{tasks: make(map[string]statussync.Task)}
}

func (s *taskServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimPrefix(r.URL.Path, "/tasks/")
	switch r.Method {
	case http.MethodGet:
		task, ok := s.tasks[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(task)
	case http.MethodPost, http.MethodPut:
		var task statussync.Task
		if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.tasks[task.ID] = task
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *taskServer) setStatus(id string, status statussync.ExternalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[id]
	task.Status = status
	s.tasks[id] = task
}

func TestSyncPushWithoutEndpoint(t *testing.T) {
	env := setupCLITestEnv(t)

	id := mustCreateSession(t, env.configPath, "feature-delivery")
	out, _, err := runCLI(t, env.configPath, "sync", "push", id)
	if err != nil {
		t.Fatalf("sync push: %v", err)
	}
	requireContains(t, out, "Pushed flow-"+id)
}

func TestSyncPushAndPullRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	server := newTaskServer()
	httpSrv := httptest.NewServer(server)
	defer httpSrv.Close()
	env.cfg.StatusSync.Endpoint = httpSrv.URL
	writeTestConfig(t, env.configPath, env.cfg)

	id := mustCreateSession(t, env.configPath, "feature-delivery")
	if _, err := runCLIJSON(t, env.configPath, "session", "start", id); err != nil {
		t.Fatalf("session start: %v", err)
	}

	taskID := "flow-" + id
	server.mu.Lock()
	task, ok := server.tasks[taskID]
	server.mu.Unlock()
	if !ok {
		t.Fatalf("expected change hooks to push task %s", taskID)
	}
	if task.Status != statussync.ExternalInProgress {
		t.Fatalf("expected IN_PROGRESS task, got %s", task.Status)
	}

	// The external side parks the task; pull applies it locally.
	server.setStatus(taskID, statussync.ExternalOnHold)
	res, err := runCLIJSON(t, env.configPath, "sync", "pull", taskID)
	if err != nil {
		t.Fatalf("sync pull: %v", err)
	}
	if res.Session.Status != "paused" {
		t.Fatalf("expected paused session after pull, got %s", res.Session.Status)
	}
}

func TestSyncPullUnknownTask(t *testing.T) {
	env := setupCLITestEnv(t)
	server := newTaskServer()
	httpSrv := httptest.NewServer(server)
	defer httpSrv.Close()
	env.cfg.StatusSync.Endpoint = httpSrv.URL
	writeTestConfig(t, env.configPath, env.cfg)

	res, err := runCLIJSON(t, env.configPath, "sync", "pull", "flow-does-not-exist")
	if err == nil {
		t.Fatal("expected pull of unknown task to fail")
	}
	if res.Error == nil || res.Error.Code != "not_found" {
		t.Fatalf("expected not_found envelope, got %+v", res.Error)
	}
}
