package shipper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/dispatch/pkg/shipper"
	"github.com/tournevent/dispatch/pkg/shipper/mock"
)

// quoteOnly implements Shipper without the optional interfaces.
type quoteOnly struct {
	name string
	err  error
}

func (q quoteOnly) Name() string { return q.name }

func (q quoteOnly) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	if q.err != nil {
		return nil, q.err
	}
	return &shipper.QuoteResponse{QuoteID: q.name + "-quote", Carrier: q.name}, nil
}

func (q quoteOnly) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.Order, error) {
	return nil, shipper.ErrNotSupported
}

func (q quoteOnly) GetOrder(ctx context.Context, req *shipper.GetOrderRequest) (*shipper.Order, error) {
	return nil, shipper.ErrNotSupported
}

func (q quoteOnly) CancelOrder(ctx context.Context, req *shipper.CancelOrderRequest) (*shipper.CancelOrderResponse, error) {
	return nil, shipper.ErrNotSupported
}

func twoStopRequest() *shipper.QuoteRequest {
	return &shipper.QuoteRequest{
		ServiceType: "MOTORCYCLE",
		Stops: []shipper.Stop{
			{Coordinates: shipper.Coordinates{Lat: "25.0330", Lng: "121.5654"}, Address: "Taipei 101"},
			{Coordinates: shipper.Coordinates{Lat: "25.0478", Lng: "121.5170"}, Address: "Taipei Main Station"},
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))

	got, err := registry.Get("lalamove-tw")
	require.NoError(t, err, "carrier should be registered")
	assert.Equal(t, "lalamove-tw", got.Name())
}

func TestRegistry_Register_Override(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))
	assert.Equal(t, 1, registry.Count())

	// Register again with same name should override
	registry.Register(mock.New("lalamove-tw"))
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := shipper.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.Error(t, err, "should return error for unregistered carrier")
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotFound))
}

func TestRegistry_AllSorted(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-sg"))
	registry.Register(mock.New("lalamove-hk"))
	registry.Register(mock.New("lalamove-tw"))

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "lalamove-hk", all[0].Name())
	assert.Equal(t, "lalamove-sg", all[1].Name())
	assert.Equal(t, "lalamove-tw", all[2].Name())
}

func TestRegistry_Names(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))
	registry.Register(mock.New("lalamove-hk"))
	registry.Register(mock.New("mock"))

	assert.Equal(t, []string{"lalamove-hk", "lalamove-tw", "mock"}, registry.Names())
}

func TestRegistry_Count(t *testing.T) {
	registry := shipper.NewRegistry()
	assert.Equal(t, 0, registry.Count())

	registry.Register(mock.New("carrier-a"))
	assert.Equal(t, 1, registry.Count())

	registry.Register(mock.New("carrier-b"))
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_DriverManager(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("mock"))
	registry.Register(quoteOnly{name: "quotes-only"})

	dm, err := registry.DriverManager("mock")
	require.NoError(t, err)
	assert.NotNil(t, dm)

	_, err = registry.DriverManager("quotes-only")
	assert.True(t, errors.Is(err, shipper.ErrNotSupported))

	_, err = registry.DriverManager("missing")
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotFound))
}

func TestRegistry_CityLister(t *testing.T) {
	registry := shipper.NewRegistry()
	registry.Register(mock.New("mock"))
	registry.Register(quoteOnly{name: "quotes-only"})

	cl, err := registry.CityLister("mock")
	require.NoError(t, err)
	cities, err := cl.ListCities(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cities)

	_, err = registry.CityLister("quotes-only")
	assert.True(t, errors.Is(err, shipper.ErrNotSupported))
}

func TestRegistry_GetQuotesFromCarriers_Success(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))
	registry.Register(mock.New("lalamove-hk"))
	registry.Register(mock.New("mock"))

	ctx := context.Background()
	// Only request quotes from 2 carriers
	results, errs := registry.GetQuotesFromCarriers(ctx, twoStopRequest(), []string{"mock", "lalamove-tw"})

	assert.Empty(t, errs)
	require.Len(t, results, 2)
	assert.Equal(t, "lalamove-tw", results[0].Carrier)
	assert.Equal(t, "mock", results[1].Carrier)
}

func TestRegistry_GetQuotesFromCarriers_EmptyCarriers(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))
	registry.Register(mock.New("lalamove-hk"))

	ctx := context.Background()
	// Empty carriers list should get all quotes
	results, errs := registry.GetQuotesFromCarriers(ctx, twoStopRequest(), []string{})

	assert.Empty(t, errs)
	assert.Len(t, results, 2, "should get quotes from all carriers when empty list")
}

func TestRegistry_GetQuotesFromCarriers_EmptyRegistry(t *testing.T) {
	registry := shipper.NewRegistry()

	results, errs := registry.GetQuotesFromCarriers(context.Background(), twoStopRequest(), nil)

	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shipper.ErrCarrierNotFound))
}

func TestRegistry_GetQuotesFromCarriers_NotFound(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))

	ctx := context.Background()
	results, errs := registry.GetQuotesFromCarriers(ctx, twoStopRequest(), []string{"nonexistent"})

	assert.Len(t, results, 0)
	assert.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shipper.ErrCarrierNotFound))
}

func TestRegistry_GetQuotesFromCarriers_PartialFailure(t *testing.T) {
	registry := shipper.NewRegistry()

	registry.Register(mock.New("lalamove-tw"))
	registry.Register(quoteOnly{name: "broken", err: shipper.ErrServiceUnavailable})

	results, errs := registry.GetQuotesFromCarriers(context.Background(), twoStopRequest(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, "lalamove-tw", results[0].Carrier)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shipper.ErrServiceUnavailable))
	assert.Contains(t, errs[0].Error(), "broken")
}
