// Sui Liquidity Risk Index - risk scoring for DeepBook pools and wallets
package main

import (
	"context"
	"os"

	"github.com/ekinalp/suirisk/internal/config"
	"github.com/ekinalp/suirisk/internal/logging"
	"github.com/ekinalp/suirisk/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting suirisk",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"surflux", cfg.SurfluxBaseURL,
		"sui_rpc", cfg.SuiRPCURL,
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
