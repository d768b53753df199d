package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/crispit/crispit-server/config"
	"github.com/crispit/crispit-server/internal/analysis"
	"github.com/crispit/crispit-server/internal/barcode"
	"github.com/crispit/crispit-server/internal/breaker"
	"github.com/crispit/crispit-server/internal/carbon"
	"github.com/crispit/crispit-server/internal/provider"
	"github.com/crispit/crispit-server/internal/server"
	"github.com/crispit/crispit-server/internal/speech"
	"github.com/crispit/crispit-server/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg := config.Load()
	if missing := cfg.CheckRequired(); len(missing) > 0 {
		log.Fatal().Msgf("missing required config: %s", strings.Join(missing, ", "))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gemini, err := provider.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini provider")
	}
	openRouter := provider.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	log.Info().Msg("providers initialized")

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize scan store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("scan store initialized")

	var synth speech.Synthesizer
	if cfg.ElevenLabsAPIKey != "" {
		synth = speech.NewElevenLabs(cfg.ElevenLabsAPIKey)
		log.Info().Msg("speech synthesis enabled")
	} else {
		log.Warn().Msg("ELEVENLABS_API_KEY not set, speech synthesis disabled")
	}

	carbonIndex := carbon.NewIndex()
	svc := analysis.New(
		gemini, openRouter,
		breaker.New(gemini.Name(), nil), breaker.New(openRouter.Name(), nil),
		carbonIndex,
	)
	srv := server.New(svc, store, synth, barcode.New(), carbonIndex)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, ":"+cfg.Port)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}
