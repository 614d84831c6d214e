package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"givechain/internal/adapter/repo"
	"givechain/internal/chain"
	"givechain/internal/enrich"
	"givechain/internal/http/handlers"
	"givechain/internal/http/httpapi"
	"givechain/internal/infra"
	"givechain/internal/infra/geoip"
	"givechain/internal/providers/chatbot"
	"givechain/internal/providers/predict"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := infra.NewLogger(cfg.AppEnv)
	logger.Info().Str("env", cfg.AppEnv).Str("port", cfg.Port).Msg("starting givechain api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("geoip database open failed")
	}

	rpc, err := chain.NewRPCClient(chain.RPCOptions{URL: cfg.ChainRPCURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("rpc client init failed")
	}
	reader := chain.NewReader(rpc)

	bridge, err := chain.NewHTTPWalletBridge(chain.HTTPWalletBridgeOptions{BaseURL: cfg.WalletBridgeURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("wallet bridge init failed")
	}
	submitter, err := chain.NewSubmitter(chain.SubmitterOptions{
		Bridge:         bridge,
		Receipts:       rpc,
		Logger:         logger,
		PollInterval:   cfg.ConfirmPoll,
		ConfirmTimeout: cfg.ConfirmTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("submitter init failed")
	}

	donors := repo.NewDonorRepository(pool)
	donations := repo.NewDonationRepository(pool)
	analytics := repo.NewAnalyticsRepository(pool)

	enricher := enrich.NewEnricher(reader, enrich.NewRepositoryResolver(donors), logger)

	var forecaster predict.Forecaster
	var responder chatbot.Responder = chatbot.NewStaticResponder()
	if cfg.GeminiAPIKey != "" {
		forecaster, err = predict.NewGeminiForecaster(predict.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("forecaster init failed")
		}
		responder, err = chatbot.NewGeminiResponder(chatbot.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("chat responder init failed")
		}
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, using static forecasts and canned chat answers")
		forecaster = predict.StaticForecaster{}
	}

	app := &handlers.App{
		Logger:     logger,
		JWTSecret:  cfg.JWTSecret,
		Donors:     donors,
		Donations:  donations,
		Analytics:  analytics,
		Campaigns:  reader,
		Enricher:   enricher,
		Submitter:  submitter,
		Forecaster: forecaster,
		Responder:  responder,
		GeoIP:      countries,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(cfg, app))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
}
