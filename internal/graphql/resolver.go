package graphql

import (
	"context"
	"time"

	"github.com/tournevent/dispatch/internal/telemetry"
	"github.com/tournevent/dispatch/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Registry *shipper.Registry
	Logger   *otelzap.Logger
	Metrics  *telemetry.Metrics
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(registry *shipper.Registry, logger *otelzap.Logger, metrics *telemetry.Metrics) *Resolver {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Resolver{
		Registry: registry,
		Logger:   logger,
		Metrics:  metrics,
	}
}

// Query returns the query root.
func (r *Resolver) Query() *QueryResolver { return &QueryResolver{r} }

// Mutation returns the mutation root.
func (r *Resolver) Mutation() *MutationResolver { return &MutationResolver{r} }

// observe records the outcome of one carrier call.
func (r *Resolver) observe(ctx context.Context, op, carrier string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		r.Metrics.RecordError(carrier, errorType(err))
		r.Logger.Ctx(ctx).Warn("carrier call failed",
			zap.String("operation", op),
			zap.String("carrier", carrier),
			zap.Error(err),
		)
	}
	r.Metrics.RecordRequest(op, carrier, status, time.Since(start).Seconds())
}
