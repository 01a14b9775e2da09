package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/shipmentbot/server/internal/core"
	"github.com/shipmentbot/server/internal/extract"
	"github.com/shipmentbot/server/internal/extract/model"
	"github.com/shipmentbot/server/internal/session"
	logx "github.com/shipmentbot/server/pkg/logger"
	pkgredis "github.com/shipmentbot/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the extraction console,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// Pipeline configs
	LLM     model.LLMConfig
	Prompt  model.PromptConfig
	Trace   model.TraceConfig
	Session model.SessionConfig
	Graph   model.GraphConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	sessions, cleanup, err := buildSessionRepository(envCfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise session storage")
	}
	defer cleanup()

	pipeline, err := extract.Build(ctx, extract.Config{
		LLM:      envCfg.LLM,
		Prompt:   envCfg.Prompt,
		Trace:    envCfg.Trace,
		Graph:    envCfg.Graph,
		Sessions: sessions,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build extraction pipeline")
	}

	sessionID := uuid.NewString()
	fmt.Printf("Shipment extraction console (session %s)\n", sessionID)
	fmt.Println("Describe a shipment; empty line quits.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			break
		}

		state, err := pipeline.Extract(ctx, extract.Request{
			SessionID: sessionID,
			Input:     input,
		})
		if err != nil {
			logx.Error().Err(err).Msg("extraction turn failed")
			continue
		}

		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			logx.Error().Err(err).Msg("failed to render result")
			continue
		}
		fmt.Println(string(out))
	}
}

// buildSessionRepository returns a redis-backed history when REDIS_URL is
// configured, otherwise an in-memory one.
func buildSessionRepository(cfg AppConfig) (session.Repository, func(), error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("no redis configured, using in-memory session storage")
		return session.NewMemoryRepository(), func() {}, nil
	}

	ttl, err := time.ParseDuration(cfg.Session.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid SESSION_TTL %q: %w", cfg.Session.TTL, err)
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logx.Info().Msg("connected to redis")

	return session.NewRedisRepository(rdb, ttl), func() { _ = rdb.Close() }, nil
}
