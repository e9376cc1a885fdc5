// Package shipper provides an abstraction layer for on-demand delivery carriers.
package shipper

import (
	"context"
)

// Shipper defines the interface that all delivery carriers must implement.
type Shipper interface {
	// Name returns the carrier identifier (e.g., "lalamove-tw").
	Name() string

	// GetQuote prices a delivery between two or more stops.
	GetQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)

	// CreateOrder books a delivery from a quote.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)

	// GetOrder returns the current state of an order.
	GetOrder(ctx context.Context, req *GetOrderRequest) (*Order, error)

	// CancelOrder cancels an order that has not been picked up.
	CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error)
}

// DriverManager is implemented by carriers that assign one driver per order.
type DriverManager interface {
	// GetDriver returns the driver assigned to an order.
	GetDriver(ctx context.Context, req *DriverRequest) (*Driver, error)

	// GetDriverLocation returns the driver's last known position.
	GetDriverLocation(ctx context.Context, req *DriverRequest) (*DriverLocation, error)

	// ChangeDriver asks the carrier for another driver.
	ChangeDriver(ctx context.Context, req *ChangeDriverRequest) error

	// AddPriorityFee adds a tip to speed up driver matching.
	AddPriorityFee(ctx context.Context, req *PriorityFeeRequest) (*Order, error)
}

// CityLister is implemented by carriers that publish their service area.
type CityLister interface {
	// ListCities returns the cities served, with their vehicle classes.
	ListCities(ctx context.Context) ([]City, error)
}
