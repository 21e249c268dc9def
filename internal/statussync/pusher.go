package statussync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flowstate/internal/config"
	"flowstate/internal/services"
)

const userAgent = "Flowstate-Go/0.1.0"

// Pusher writes session snapshots to the external tracking system and reads
// them back.
type Pusher interface {
	// Push upserts the full task snapshot.
	Push(ctx context.Context, task Task) error
	// Create registers a new task.
	Create(ctx context.Context, task Task) error
	// Pull fetches a task by id. Absent tasks return nil, nil.
	Pull(ctx context.Context, taskID string) (*Task, error)
}

// NewPusher builds a pusher backed by the configured HTTP endpoint. When no
// endpoint is configured, a noop implementation is returned.
func NewPusher(cfg *config.Config) Pusher {
	endpoint := strings.TrimSpace(cfg.StatusSync.Endpoint)
	if endpoint == "" {
		return noopPusher{}
	}

	timeout := time.Duration(cfg.StatusSync.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpPusher{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    cfg.StatusSync.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

type httpPusher struct {
	endpoint string
	token    string
	client   *http.Client
}

func (p *httpPusher) Push(ctx context.Context, task Task) error {
	return p.send(ctx, http.MethodPut, p.endpoint+"/tasks/"+task.ID, task)
}

func (p *httpPusher) Create(ctx context.Context, task Task) error {
	return p.send(ctx, http.MethodPost, p.endpoint+"/tasks", task)
}

func (p *httpPusher) Pull(ctx context.Context, taskID string) (*Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("build pull request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalSync, "statussync", "pull",
			"pull task "+taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrExternalSync, "statussync", "pull",
			fmt.Sprintf("status system returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, services.Wrap(services.ErrExternalSync, "statussync", "pull",
			"decode task "+taskID, err)
	}
	return &task, nil
}

func (p *httpPusher) send(ctx context.Context, method, url string, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalSync, "statussync", "push",
			"send task "+task.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrExternalSync, "statussync", "push",
			fmt.Sprintf("status system returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p *httpPusher) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}

type noopPusher struct{}

func (noopPusher) Push(context.Context, Task) error            { return nil }
func (noopPusher) Create(context.Context, Task) error          { return nil }
func (noopPusher) Pull(context.Context, string) (*Task, error) { return nil, nil }
