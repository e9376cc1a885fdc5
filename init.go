package main

import (
	"context"

	"github.com/tournevent/dispatch/internal/config"
	"github.com/tournevent/dispatch/internal/telemetry"
	"github.com/tournevent/dispatch/pkg/lalamove"
	"github.com/tournevent/dispatch/pkg/shipper"
	"github.com/tournevent/dispatch/pkg/shipper/mock"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return otel.Tracer(cfg.ServiceName), func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func lalamoveConfig(cfg *config.Config, market lalamove.Market) lalamove.Config {
	return lalamove.Config{
		APIKey:    cfg.LalamoveAPIKey,
		APISecret: cfg.LalamoveAPISecret,
		BaseURL:   cfg.LalamoveBaseURL,
		Market:    market,
		Timeout:   cfg.LalamoveTimeout,
		UseMock:   cfg.LalamoveUseMock,
	}
}

func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *shipper.Registry {
	registry := shipper.NewRegistry()

	// One Lalamove carrier per market, since the market travels with every request
	if cfg.LalamoveEnabled {
		for _, market := range cfg.Markets() {
			registry.Register(lalamove.New(lalamoveConfig(cfg, market), logger, tracer))
		}
	}

	if cfg.MockCarrierEnabled {
		registry.Register(mock.New("mock"))
	}

	if registry.Count() == 0 {
		logger.Warn("No carriers enabled", zap.Bool("lalamove_enabled", cfg.LalamoveEnabled))
	}
	return registry
}
