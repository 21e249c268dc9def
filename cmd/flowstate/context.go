package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"flowstate/internal/config"
	"flowstate/internal/engine"
	"flowstate/internal/eventlog"
	"flowstate/internal/logging"
	"flowstate/internal/session"
	"flowstate/internal/statussync"
	"flowstate/internal/workflowdef"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// runtime bundles the wired services a command needs: catalog, store,
// engine, and the outbound sync dispatcher.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *session.Store
	defs       *workflowdef.Catalog
	mgr        *engine.Manager
	pusher     statussync.Pusher
	dispatcher *statussync.Dispatcher
	syncer     *statussync.Syncer
}

// withRuntime opens the session store and wires the engine for one command
// invocation. Pending outbound syncs are flushed before the store closes so
// short-lived CLI processes do not strand the external system.
func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(rt *runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	defs, err := workflowdef.OpenCatalog(cfg)
	if err != nil {
		return err
	}

	sinks := []eventlog.Sink{}
	fileSink, err := eventlog.NewFileSink(cfg.EventLogPath())
	if err != nil {
		return err
	}
	sinks = append(sinks, fileSink)
	if cfg.EventLog.RedisAddr != "" {
		redisSink := eventlog.NewRedisSink(cfg.EventLog.RedisAddr, cfg.EventLog.RedisChannel)
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
	}

	mgr := engine.NewManager(defs, store, logger, engine.WithSinks(sinks...))
	pusher := statussync.NewPusher(cfg)
	dispatcher := statussync.NewDispatcher(cfg, store, defs, pusher, logger)
	if err := dispatcher.Start(cmd.Context()); err != nil {
		return err
	}
	statussync.RegisterSessionChangeHooks(mgr, dispatcher)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := dispatcher.Flush(flushCtx); err != nil {
			logger.Warn("sync flush timed out", logging.Error(err))
		}
		dispatcher.Stop()
	}()

	return fn(&runtime{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		defs:       defs,
		mgr:        mgr,
		pusher:     pusher,
		dispatcher: dispatcher,
		syncer:     statussync.NewSyncer(mgr, pusher, logger),
	})
}
