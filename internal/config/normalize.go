package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeStatusSync()
	c.normalizeEventLog()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkflowsDir) == "" {
		c.Paths.WorkflowsDir = defaultWorkflowsDir
	}
	if c.Paths.WorkflowsDir, err = expandPath(c.Paths.WorkflowsDir); err != nil {
		return fmt.Errorf("paths.workflows_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeStatusSync() {
	c.StatusSync.Endpoint = strings.TrimSpace(c.StatusSync.Endpoint)
	if c.StatusSync.Token == "" {
		if value, ok := os.LookupEnv("FLOWSTATE_SYNC_TOKEN"); ok {
			c.StatusSync.Token = strings.TrimSpace(value)
		}
	}
	if c.StatusSync.RequestTimeout <= 0 {
		c.StatusSync.RequestTimeout = defaultSyncTimeout
	}
	if c.StatusSync.MaxAttempts <= 0 {
		c.StatusSync.MaxAttempts = defaultSyncMaxAttempts
	}
	if c.StatusSync.RetryBackoff <= 0 {
		c.StatusSync.RetryBackoff = defaultSyncRetryBackoff
	}
	if c.StatusSync.QueueSize <= 0 {
		c.StatusSync.QueueSize = defaultSyncQueueSize
	}
}

func (c *Config) normalizeEventLog() {
	c.EventLog.RedisAddr = strings.TrimSpace(c.EventLog.RedisAddr)
	c.EventLog.RedisChannel = strings.TrimSpace(c.EventLog.RedisChannel)
	if c.EventLog.RedisChannel == "" {
		c.EventLog.RedisChannel = defaultRedisChannel
	}
}
