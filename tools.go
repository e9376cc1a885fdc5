package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tournevent/dispatch/pkg/lalamove"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func runCities(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetString("market")
	market := lalamove.Market(strings.ToUpper(raw))
	if !lalamove.KnownMarket(market) {
		return fmt.Errorf("unknown market %q", raw)
	}

	logger := otelzap.New(zap.NewNop())
	client := lalamove.New(lalamoveConfig(cfg, market), logger, otel.Tracer(cfg.ServiceName))

	cities, err := client.ListCities(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, city := range cities {
		fmt.Fprintf(out, "%s\t%s\n", city.Code, city.Name)
		for _, svc := range city.Services {
			fmt.Fprintf(out, "  %s\t%s\n", svc.ServiceType, strings.Join(svc.SpecialRequests, ","))
		}
	}
	return nil
}

func runSign(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	secret, _ := flags.GetString("secret")
	key, _ := flags.GetString("key")
	rawMethod, _ := flags.GetString("method")
	path, _ := flags.GetString("path")
	body, _ := flags.GetString("body")
	ts, _ := flags.GetInt64("timestamp")

	method := lalamove.Method(strings.ToUpper(rawMethod))
	if !method.Valid() {
		return fmt.Errorf("unsupported method %q", rawMethod)
	}
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	canonical := lalamove.CanonicalString(lalamove.SigningMaterial{
		Timestamp: ts,
		Method:    method,
		Path:      path,
		Body:      body,
	})
	signature := lalamove.Sign(secret, canonical)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "canonical: %q\n", canonical)
	fmt.Fprintf(out, "signature: %s\n", signature)
	if key != "" {
		token := lalamove.AuthToken{APIKey: key, Timestamp: ts, Signature: signature}
		fmt.Fprintf(out, "authorization: %s\n", token)
	}
	return nil
}
