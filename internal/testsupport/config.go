package testsupport

import (
	"path/filepath"
	"testing"

	"flowstate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.WorkflowsDir = filepath.Join(base, "workflows")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSyncEndpoint points the status sync client at the provided URL.
func WithSyncEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.StatusSync.Endpoint = endpoint
	}
}

// WithSyncToken sets the bearer token used for outbound sync requests.
func WithSyncToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.StatusSync.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
