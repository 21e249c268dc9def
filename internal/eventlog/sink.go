package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sink receives lifecycle events. Implementations must tolerate concurrent
// callers.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// FileSink appends events as JSON lines to a log file.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates the parent directory and returns a sink writing to
// path.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure event log dir: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Record appends one JSON line. The file is opened per write so external
// rotation never strands a handle.
func (s *FileSink) Record(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// RedisSink publishes events to a Redis channel so external consumers can
// follow session lifecycles live.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink connects to addr and publishes to channel.
func NewRedisSink(addr, channel string) *RedisSink {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisSink{client: client, channel: channel}
}

// Record publishes the JSON event.
func (s *RedisSink) Record(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) error { return nil }
