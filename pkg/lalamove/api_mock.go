package lalamove

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetQuotation      func(ctx context.Context, req *QuotationRequest) (*Quotation, error)
	OnPlaceOrder        func(ctx context.Context, req *OrderRequest) (*Order, error)
	OnGetOrder          func(ctx context.Context, orderID string) (*Order, error)
	OnGetDriver         func(ctx context.Context, orderID, driverID string) (*Driver, error)
	OnGetDriverLocation func(ctx context.Context, orderID, driverID string) (*DriverLocation, error)
	OnCancelOrder       func(ctx context.Context, orderID string) error
	OnChangeDriver      func(ctx context.Context, orderID, driverID string, reason ChangeDriverReason) error
	OnAddPriorityFee    func(ctx context.Context, orderID, amount string) (*Order, error)
	OnListCities        func(ctx context.Context) ([]CityInfo, error)

	mu     sync.Mutex
	market Market
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient(market Market) *MockAPIClient {
	return &MockAPIClient{market: market}
}

func (m *MockAPIClient) simulate(ctx context.Context) error {
	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return newUnexpectedError(ctx.Err())
			}
			return newTimeoutError(ctx.Err())
		}
	}
	if m.SimulateErrors {
		return newHTTPError(500, map[string]any{"message": "Simulated API error"})
	}
	return nil
}

// Market returns the configured market.
func (m *MockAPIClient) Market() Market {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.market
}

// SetMarket switches the configured market.
func (m *MockAPIClient) SetMarket(market Market) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.market = market
}

// GetQuotation returns a mock quotation echoing the requested stops.
func (m *MockAPIClient) GetQuotation(ctx context.Context, req *QuotationRequest) (*Quotation, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnGetQuotation != nil {
		return m.OnGetQuotation(ctx, req)
	}

	now := time.Now()
	stops := make([]Stop, len(req.Stops))
	for i, s := range req.Stops {
		s.StopID = fmt.Sprintf("%d", 1000+i)
		stops[i] = s
	}
	scheduleAt := req.ScheduleAt
	if scheduleAt == "" {
		scheduleAt = FormatScheduleAt(now)
	}

	return &Quotation{
		QuotationID:      "mock-quote-" + uuid.New().String()[:8],
		ScheduleAt:       scheduleAt,
		ExpiresAt:        FormatScheduleAt(now.Add(5 * time.Minute)),
		ServiceType:      req.ServiceType,
		SpecialRequests:  req.SpecialRequests,
		Language:         req.Language,
		Stops:            stops,
		IsRouteOptimized: req.IsRouteOptimized,
		PriceBreakdown: PriceBreakdown{
			Base:                    "90",
			ExtraMileage:            "18",
			TotalExcludePriorityFee: "108",
			Total:                   "108",
			Currency:                currencyOf(m.Market()),
		},
		Item:     req.Item,
		Distance: Distance{Value: "2510", Unit: "m"},
	}, nil
}

// PlaceOrder returns a mock order waiting for a driver.
func (m *MockAPIClient) PlaceOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnPlaceOrder != nil {
		return m.OnPlaceOrder(ctx, req)
	}

	orderID := fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000_000)
	stops := []OrderStop{{StopID: req.Sender.StopID, Name: req.Sender.Name, Phone: req.Sender.Phone}}
	for _, r := range req.Recipients {
		stops = append(stops, OrderStop{StopID: r.StopID, Name: r.Name, Phone: r.Phone})
	}

	return &Order{
		OrderID:     orderID,
		QuotationID: req.QuotationID,
		PriceBreakdown: PriceBreakdown{
			Base:     "90",
			Total:    "108",
			Currency: currencyOf(m.Market()),
		},
		ShareLink: "https://share.sandbox.lalamove.com/?" + orderID,
		Status:    OrderAssigningDriver,
		Distance:  Distance{Value: "2510", Unit: "m"},
		Stops:     stops,
		Metadata:  req.Metadata,
	}, nil
}

// GetOrder returns a mock order with a driver on the way.
func (m *MockAPIClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnGetOrder != nil {
		return m.OnGetOrder(ctx, orderID)
	}

	return &Order{
		OrderID:     orderID,
		QuotationID: "mock-quote",
		PriceBreakdown: PriceBreakdown{
			Base:     "90",
			Total:    "108",
			Currency: currencyOf(m.Market()),
		},
		DriverID:  "80557",
		ShareLink: "https://share.sandbox.lalamove.com/?" + orderID,
		Status:    OrderOnGoing,
		Distance:  Distance{Value: "2510", Unit: "m"},
	}, nil
}

// GetDriver returns a mock driver.
func (m *MockAPIClient) GetDriver(ctx context.Context, orderID, driverID string) (*Driver, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnGetDriver != nil {
		return m.OnGetDriver(ctx, orderID, driverID)
	}

	return &Driver{
		DriverID:    driverID,
		Name:        "Mock Driver",
		Phone:       "+886912000000",
		PlateNumber: "MOCK-001",
		Coordinates: &DriverCoordinates{
			Lat:       "25.0330",
			Lng:       "121.5654",
			UpdatedAt: FormatScheduleAt(time.Now()),
		},
	}, nil
}

// GetDriverLocation returns a mock driver position.
func (m *MockAPIClient) GetDriverLocation(ctx context.Context, orderID, driverID string) (*DriverLocation, error) {
	if m.OnGetDriverLocation != nil {
		if err := m.simulate(ctx); err != nil {
			return nil, err
		}
		return m.OnGetDriverLocation(ctx, orderID, driverID)
	}

	driver, err := m.GetDriver(ctx, orderID, driverID)
	if err != nil {
		return nil, err
	}
	loc := &DriverLocation{}
	if driver.Coordinates != nil {
		loc.Location = Coordinates{Lat: driver.Coordinates.Lat, Lng: driver.Coordinates.Lng}
		loc.UpdatedAt = driver.Coordinates.UpdatedAt
	}
	return loc, nil
}

// CancelOrder accepts every cancellation.
func (m *MockAPIClient) CancelOrder(ctx context.Context, orderID string) error {
	if err := m.simulate(ctx); err != nil {
		return err
	}
	if m.OnCancelOrder != nil {
		return m.OnCancelOrder(ctx, orderID)
	}
	return nil
}

// ChangeDriver accepts every driver change.
func (m *MockAPIClient) ChangeDriver(ctx context.Context, orderID, driverID string, reason ChangeDriverReason) error {
	if err := m.simulate(ctx); err != nil {
		return err
	}
	if m.OnChangeDriver != nil {
		return m.OnChangeDriver(ctx, orderID, driverID, reason)
	}
	return nil
}

// AddPriorityFee returns the order with the fee applied.
func (m *MockAPIClient) AddPriorityFee(ctx context.Context, orderID, amount string) (*Order, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnAddPriorityFee != nil {
		return m.OnAddPriorityFee(ctx, orderID, amount)
	}

	order, err := m.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.PriorityFee = amount
	order.PriceBreakdown.PriorityFee = amount
	order.Status = OrderAssigningDriver
	return order, nil
}

// ListCities builds the city list from the static catalog.
func (m *MockAPIClient) ListCities(ctx context.Context) ([]CityInfo, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if m.OnListCities != nil {
		return m.OnListCities(ctx)
	}

	market := m.Market()
	cities := make([]CityInfo, 0)
	for _, city := range Cities(market) {
		info := CityInfo{Locode: city, Name: string(city)}
		for _, st := range ServiceTypes(market) {
			if !SupportsServiceType(market, city, st) {
				continue
			}
			svc := CityService{Key: st, Description: string(st)}
			for _, sr := range SpecialRequests(market, city, st) {
				svc.SpecialRequests = append(svc.SpecialRequests, CitySpecialRequest{
					Name:        string(sr),
					Description: string(sr),
				})
			}
			info.Services = append(info.Services, svc)
		}
		cities = append(cities, info)
	}
	return cities, nil
}

func currencyOf(m Market) string {
	switch m {
	case MarketTaiwan:
		return "TWD"
	case MarketHongKong:
		return "HKD"
	case MarketSingapore:
		return "SGD"
	default:
		return ""
	}
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
