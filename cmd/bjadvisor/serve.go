package main

import (
	"github.com/lox/blackjack-advisor/internal/advisor"
	"github.com/lox/blackjack-advisor/internal/server"
)

// ServeCmd runs the advisor service
type ServeCmd struct {
	Addr              string `short:"a" help:"Address to bind to (overrides config)"`
	Port              int    `short:"p" env:"PORT" help:"Port to listen on (overrides config)"`
	CertFile          string `env:"SSL_PUBLIC_CERT_PATH" help:"TLS certificate file (overrides config)"`
	KeyFile           string `env:"SSL_PRIVATE_KEY_PATH" help:"TLS private key file (overrides config)"`
	LegacyActionNames bool   `help:"Answer stay/stay_split instead of stand/stand_split"`
	NoRecord          bool   `help:"Advise without recording hands"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load(func(cfg *server.Config) {
		if c.Addr != "" {
			cfg.Server.Address = c.Addr
		}
		if c.Port != 0 {
			cfg.Server.Port = c.Port
		}
		if c.CertFile != "" {
			cfg.Server.TLS.CertFile = c.CertFile
		}
		if c.KeyFile != "" {
			cfg.Server.TLS.KeyFile = c.KeyFile
		}
		if c.LegacyActionNames {
			cfg.Server.LegacyActionNames = true
		}
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)

	ctx, cancel := signalContext()
	defer cancel()

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	var (
		recorder advisor.Recorder
		stats    server.StatsSource
	)
	if c.NoRecord {
		logger.Warn("Recording disabled, hands will not be stored")
	} else {
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		recorder, stats = st, st
	}

	adv := advisor.New(registry, recorder, logger,
		advisor.WithLegacyActionNames(cfg.Server.LegacyActionNames))

	var opts []server.Option
	if certFile, keyFile, ok := cfg.TLSFiles(); ok {
		opts = append(opts, server.WithTLS(certFile, keyFile))
	} else {
		logger.Warn("TLS certificate not found, serving plain HTTP", "cert", certFile, "key", keyFile)
	}

	logger.Info("Starting blackjack advisor",
		"addr", cfg.GetServerAddress(),
		"strategy", registry.Default().Name(),
		"recording", !c.NoRecord,
	)

	srv := server.NewServer(cfg.GetServerAddress(), adv, stats, logger, opts...)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
