package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack-advisor/internal/server"
	"github.com/lox/blackjack-advisor/internal/store"
	"github.com/lox/blackjack-advisor/internal/strategy"
)

// Globals are flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"bjadvisor.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" env:"BJ_LOG_LEVEL" help:"Log level: debug, info, warn, error (overrides config)"`
	DB       string `env:"BJ_DB_PATH" help:"Database DSN or SQLite path (overrides config)"`
}

// load reads the config file, applies flag overrides and validates the result
func (g *Globals) load(override func(*server.Config)) (*server.Config, error) {
	cfg, err := server.LoadConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if g.DB != "" {
		cfg.Store.DSN = g.DB
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

func openStore(ctx context.Context, cfg *server.Config, logger *log.Logger) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.DSN, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Opened store", "dialect", st.Dialect())
	return st, nil
}

func newRegistry(cfg *server.Config) (*strategy.Registry, error) {
	registry := strategy.NewRegistry()
	if !registry.SetDefault(cfg.Strategy.Default) {
		return nil, fmt.Errorf("unknown default strategy %q (known: %s)",
			cfg.Strategy.Default, strings.Join(registry.Names(), ", "))
	}
	return registry, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
