package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/dispatch/internal/server"
	"github.com/tournevent/dispatch/internal/telemetry"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dispatch",
	Short:   "Lalamove dispatch bridge - on-demand delivery GraphQL service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL server",
	RunE:  runServe,
}

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the cities and vehicle classes served in a market",
	RunE:  runCities,
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print the canonical string and HMAC signature of a request",
	RunE:  runSign,
}

func init() {
	citiesCmd.Flags().String("market", "TW", "Lalamove market (TW, HK, SG)")

	signCmd.Flags().String("secret", "", "API secret")
	signCmd.Flags().String("key", "", "API key, to print the Authorization header")
	signCmd.Flags().String("method", "GET", "HTTP method")
	signCmd.Flags().String("path", "", "request path, e.g. /v3/quotations")
	signCmd.Flags().String("body", "", "exact request body")
	signCmd.Flags().Int64("timestamp", 0, "milliseconds since epoch (default now)")
	signCmd.MarkFlagRequired("secret")
	signCmd.MarkFlagRequired("path")

	rootCmd.AddCommand(serveCmd, citiesCmd, signCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	// Initialize shipper registry with all carriers
	registry := initShipperRegistry(cfg, logger, tracer)

	logger.Info("Starting Lalamove dispatch bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", registry.Names()),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, registry, logger, telemetry.NewMetrics())
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
