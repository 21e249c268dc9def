package config

const (
	defaultDataDir          = "~/.local/share/flowstate"
	defaultLogDir           = "~/.local/share/flowstate/logs"
	defaultWorkflowsDir     = "~/.config/flowstate/workflows"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultSyncTimeout      = 10
	defaultSyncMaxAttempts  = 5
	defaultSyncRetryBackoff = 2
	defaultSyncQueueSize    = 64
	defaultRedisChannel     = "flowstate:events"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			WorkflowsDir: defaultWorkflowsDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		StatusSync: StatusSync{
			RequestTimeout: defaultSyncTimeout,
			MaxAttempts:    defaultSyncMaxAttempts,
			RetryBackoff:   defaultSyncRetryBackoff,
			QueueSize:      defaultSyncQueueSize,
		},
		EventLog: EventLog{
			RedisChannel: defaultRedisChannel,
		},
	}
}
