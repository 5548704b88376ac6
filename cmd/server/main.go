package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"quantdesk/server/config"
	"quantdesk/server/internal/auth"
	"quantdesk/server/internal/logging"
	"quantdesk/server/internal/preset"
	"quantdesk/server/internal/relay"
	"quantdesk/server/pkg/quant"
)

func main() {
	fs := pflag.NewFlagSet("quantdesk", pflag.ExitOnError)
	config.Flags(fs)
	_ = fs.Parse(os.Args[1:])

	// 1. Config
	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, closer := logging.Setup(cfg.Log)
	defer closer.Close()

	// 2. Presets
	logger.Printf("Initializing SQLite presets at %s...", cfg.DB.Path)
	presets, err := preset.NewSQLiteRepo(cfg.DB.Path)
	if err != nil {
		logger.Fatalf("Failed to initialize presets: %v", err)
	}
	defer presets.Close()

	// 3. Backend client
	base, err := quant.ParseStrategy(cfg.Backend.Strategy, cfg.Backend.Origin)
	if err != nil {
		logger.Fatalf("Invalid backend strategy: %v", err)
	}
	client := quant.NewClient(cfg.Backend.Page, base,
		quant.WithTimeout(cfg.Backend.Timeout),
		quant.WithLogger(log.New(logger.Writer(), "[quant] ", logger.Flags())),
	)
	if u, err := client.URL("", nil); err == nil {
		logger.Printf("Pricing backend base: %s (strategy %s)", u, cfg.Backend.Strategy)
	}

	// 4. Relay
	gin.SetMode(gin.ReleaseMode)
	verifier := auth.NewVerifier(cfg.Auth.Mode, cfg.Auth.Token, cfg.Auth.Secret)
	server := relay.NewServer(client, presets, verifier, logger)

	logger.Printf("Relay starting on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, server.Engine()); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}
