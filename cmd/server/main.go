package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-image/pkg/simpleimage/api"
	"github.com/tendant/simple-image/pkg/simpleimage/config"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n\n", os.Args[0])
		desc, err := config.Description()
		if err == nil {
			fmt.Fprintln(flag.CommandLine.Output(), desc)
		}
	}
	flag.Parse()

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	svc, closeService, err := cfg.BuildService(ctx, logger)
	if err != nil {
		logger.Error("Failed to build image service", "err", err)
		os.Exit(1)
	}
	defer closeService()

	signer := cfg.BuildSigner()
	if !signer.IsEnabled() {
		logger.Warn("IMAGOR_URL is not set, image URLs will be unavailable")
	} else if !signer.IsSigned() {
		logger.Warn("IMAGOR_SECRET is not set, emitting unsafe imagor URLs")
	}

	opts := []api.RouterOption{
		api.WithRouterLogger(logger),
		api.WithUploadLimit(cfg.MaxUploadBytes),
	}
	if ja := cfg.BuildJWTAuth(); ja != nil {
		opts = append(opts, api.WithJWTAuth(ja))
	} else {
		logger.Warn("JWT_SECRET is not set, authenticated image endpoints are disabled")
	}
	if cfg.AdminAPIKeySHA256 != "" {
		apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"admin": cfg.AdminAPIKeySHA256,
			},
		})
		if err != nil {
			logger.Error("Failed to initialize API key middleware", "err", err)
			os.Exit(1)
		}
		opts = append(opts, api.WithAdminAuth(apiKeyMiddleware))
	}

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	api.Register(server.R, svc, signer, opts...)

	logger.Info("Simple image server starting",
		"environment", cfg.Environment,
		"storage", cfg.StorageType,
		"database", cfg.DatabaseType(),
		"image_host", signer.ImageHost(),
		"signed", signer.IsSigned(),
	)
	server.Run()
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
