package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"simwatch/internal/activation"
	"simwatch/internal/config"
	"simwatch/internal/history"
	"simwatch/internal/logging"
	"simwatch/internal/notifications"
	"simwatch/internal/services/voiceapi"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) client() (*voiceapi.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return voiceapi.NewFromConfig(cfg)
}

func (c *commandContext) notifier() notifications.Service {
	cfg, err := c.ensureConfig()
	if err != nil {
		return notifications.NewService(&config.Config{})
	}
	return notifications.NewService(cfg)
}

// historyStore opens the audit log when history is enabled. Callers own the
// returned store; a nil store with nil error means history is off.
func (c *commandContext) historyStore() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.Open(cfg)
}

// coordinator wires a full activation coordinator: client, notifier, and,
// when enabled, the audit recorder. The returned cleanup closes the history
// store.
func (c *commandContext) coordinator(extra ...activation.Option) (*activation.Coordinator, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := c.client()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.historyStore()
	if err != nil {
		return nil, nil, err
	}

	opts := []activation.Option{activation.WithNotifier(c.notifier())}
	if store != nil {
		opts = append(opts, activation.WithRecorder(store))
	}
	opts = append(opts, extra...)
	cleanup := func() {
		if store != nil {
			_ = store.Close()
		}
	}
	return activation.New(client, cfg, logger, opts...), cleanup, nil
}

// reportError forwards an operation failure to the notification sink and
// returns the error unchanged for the CLI to print. Notification failures
// are swallowed so they never mask the original error.
func (c *commandContext) reportError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	_ = c.notifier().NotifyError(ctx, err, operation)
	return err
}

// signalContext returns a context canceled on SIGINT or SIGTERM, for
// long-running commands.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
