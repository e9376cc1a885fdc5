// Package mock provides an in-memory carrier for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/dispatch/pkg/shipper"
)

// Client is an in-memory carrier. Orders it creates can be read back,
// cancelled and tipped.
type Client struct {
	name string

	mu     sync.Mutex
	seq    int
	quotes map[string]*shipper.QuoteResponse
	orders map[string]*shipper.Order
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{
		name:   name,
		quotes: make(map[string]*shipper.QuoteResponse),
		orders: make(map[string]*shipper.Order),
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) nextID(kind string) string {
	c.seq++
	return fmt.Sprintf("%s-%s-%d", c.name, kind, c.seq)
}

// GetQuote prices every delivery at a flat rate plus a per-stop fee.
func (c *Client) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	if len(req.Stops) < 2 {
		return nil, fmt.Errorf("%w: at least two stops are required", shipper.ErrInvalidRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	scheduleAt := now
	if req.ScheduleAt != nil {
		scheduleAt = *req.ScheduleAt
	}

	stops := make([]shipper.Stop, len(req.Stops))
	for i, s := range req.Stops {
		s.ID = c.nextID("stop")
		stops[i] = s
	}

	extra := float64(len(stops)-2) * 20
	quote := &shipper.QuoteResponse{
		QuoteID:         c.nextID("quote"),
		Carrier:         c.name,
		ServiceType:     req.ServiceType,
		SpecialRequests: req.SpecialRequests,
		Stops:           stops,
		Price: shipper.PriceBreakdown{
			Base:         shipper.Money{Amount: 90, Currency: "TWD"},
			ExtraMileage: shipper.Money{Amount: extra, Currency: "TWD"},
			Total:        shipper.Money{Amount: 90 + extra, Currency: "TWD"},
		},
		Distance:   shipper.Distance{Meters: 2500},
		ScheduleAt: scheduleAt,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
	c.quotes[quote.QuoteID] = quote
	return quote, nil
}

// CreateOrder books a quoted delivery.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	quote, ok := c.quotes[req.QuoteID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipper.ErrQuoteExpired, req.QuoteID)
	}

	order := &shipper.Order{
		OrderID:   c.nextID("order"),
		QuoteID:   quote.QuoteID,
		Carrier:   c.name,
		Status:    shipper.StatusAssigning,
		ShareLink: fmt.Sprintf("https://track.%s.mock/%s", c.name, quote.QuoteID),
		Price:     quote.Price,
		Distance:  quote.Distance,
		Stops:     quote.Stops,
		Metadata:  req.Metadata,
	}
	c.orders[order.OrderID] = order
	delete(c.quotes, req.QuoteID)

	copied := *order
	return &copied, nil
}

// GetOrder returns a stored order.
func (c *Client) GetOrder(ctx context.Context, req *shipper.GetOrderRequest) (*shipper.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[req.OrderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, req.OrderID)
	}
	copied := *order
	return &copied, nil
}

// CancelOrder cancels an order unless it is already terminal.
func (c *Client) CancelOrder(ctx context.Context, req *shipper.CancelOrderRequest) (*shipper.CancelOrderResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[req.OrderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, req.OrderID)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", shipper.ErrCancellationNotAllowed, order.Status)
	}
	order.Status = shipper.StatusCancelled
	return &shipper.CancelOrderResponse{OrderID: order.OrderID, Status: order.Status}, nil
}

// AssignDriver moves an order to on-going with the given driver.
func (c *Client) AssignDriver(orderID, driverID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	order.DriverID = driverID
	order.Status = shipper.StatusOnGoing
	return nil
}

// GetDriver returns a fixed driver for assigned orders.
func (c *Client) GetDriver(ctx context.Context, req *shipper.DriverRequest) (*shipper.Driver, error) {
	if err := c.checkDriver(req.OrderID, req.DriverID); err != nil {
		return nil, err
	}
	return &shipper.Driver{
		DriverID:    req.DriverID,
		Name:        "Mock Driver",
		Phone:       "+886912000000",
		PlateNumber: "MOCK-001",
	}, nil
}

// GetDriverLocation returns a fixed position in Taipei.
func (c *Client) GetDriverLocation(ctx context.Context, req *shipper.DriverRequest) (*shipper.DriverLocation, error) {
	if err := c.checkDriver(req.OrderID, req.DriverID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &shipper.DriverLocation{
		DriverID:    req.DriverID,
		Coordinates: shipper.Coordinates{Lat: "25.0330", Lng: "121.5654"},
		UpdatedAt:   &now,
	}, nil
}

// ChangeDriver puts the order back to driver assignment.
func (c *Client) ChangeDriver(ctx context.Context, req *shipper.ChangeDriverRequest) error {
	if err := c.checkDriver(req.OrderID, req.DriverID); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	order := c.orders[req.OrderID]
	order.DriverID = ""
	order.Status = shipper.StatusAssigning
	return nil
}

// AddPriorityFee adds the fee to the order total.
func (c *Client) AddPriorityFee(ctx context.Context, req *shipper.PriorityFeeRequest) (*shipper.Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: priority fee must be positive", shipper.ErrInvalidRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[req.OrderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, req.OrderID)
	}
	order.Price.PriorityFee.Amount += req.Amount
	order.Price.PriorityFee.Currency = order.Price.Total.Currency
	order.Price.Total.Amount += req.Amount

	copied := *order
	return &copied, nil
}

// ListCities returns a single mock city.
func (c *Client) ListCities(ctx context.Context) ([]shipper.City, error) {
	return []shipper.City{
		{
			Code: "MOCK",
			Name: "Mock City",
			Services: []shipper.CityService{
				{ServiceType: "MOTORCYCLE", Description: "Motorcycle"},
				{ServiceType: "VAN", Description: "Van"},
			},
		},
	}, nil
}

func (c *Client) checkDriver(orderID, driverID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", shipper.ErrOrderNotFound, orderID)
	}
	if order.DriverID == "" || order.DriverID != driverID {
		return fmt.Errorf("%w: order %s", shipper.ErrDriverNotAssigned, orderID)
	}
	return nil
}

var (
	_ shipper.Shipper       = (*Client)(nil)
	_ shipper.DriverManager = (*Client)(nil)
	_ shipper.CityLister    = (*Client)(nil)
)
