package graphql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tournevent/dispatch/pkg/lalamove"
	"github.com/tournevent/dispatch/pkg/shipper"
	"go.uber.org/zap"
)

// QueryResolver resolves the read-only root fields.
type QueryResolver struct{ *Resolver }

// MutationResolver resolves the root fields that change carrier state.
type MutationResolver struct{ *Resolver }

// Health is the resolver for the health field.
func (r *QueryResolver) Health(ctx context.Context) (bool, error) {
	return true, nil
}

// Carriers is the resolver for the carriers field.
func (r *QueryResolver) Carriers(ctx context.Context) ([]*Carrier, error) {
	all := r.Registry.All()
	result := make([]*Carrier, 0, len(all))
	for _, s := range all {
		_, manages := s.(shipper.DriverManager)
		_, lists := s.(shipper.CityLister)
		result = append(result, &Carrier{Name: s.Name(), ManageDrivers: manages, ListCities: lists})
	}
	return result, nil
}

// ServiceTypes is the resolver for the serviceTypes field.
func (r *QueryResolver) ServiceTypes(ctx context.Context, market string) ([]string, error) {
	m, err := knownMarket(market)
	if err != nil {
		return nil, err
	}
	types := lalamove.ServiceTypes(m)
	result := make([]string, len(types))
	for i, st := range types {
		result[i] = string(st)
	}
	return result, nil
}

// SpecialRequests is the resolver for the specialRequests field.
func (r *QueryResolver) SpecialRequests(ctx context.Context, market, city, serviceType string) ([]string, error) {
	m, err := knownMarket(market)
	if err != nil {
		return nil, err
	}
	st := lalamove.ServiceType(strings.ToUpper(serviceType))
	if !lalamove.SupportsServiceType(m, lalamove.City(city), st) {
		return nil, fmt.Errorf("service type %q is not offered in %s %s", serviceType, m, city)
	}
	reqs := lalamove.SpecialRequests(m, lalamove.City(city), st)
	result := make([]string, len(reqs))
	for i, sr := range reqs {
		result[i] = string(sr)
	}
	return result, nil
}

func knownMarket(market string) (lalamove.Market, error) {
	m := lalamove.Market(strings.ToUpper(market))
	if !lalamove.KnownMarket(m) {
		return "", fmt.Errorf("unknown market %q", market)
	}
	return m, nil
}

// Cities is the resolver for the cities field.
func (r *QueryResolver) Cities(ctx context.Context, carrier string) (*CitiesPayload, error) {
	start := time.Now()
	payload := &CitiesPayload{Metadata: newMetadata()}

	cl, err := r.Registry.CityLister(carrier)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}
	cities, err := cl.ListCities(ctx)
	r.observe(ctx, "list_cities", carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}

	payload.Success = true
	payload.Cities = citiesToGraphQL(cities)
	return payload, nil
}

// Order is the resolver for the order field.
func (r *QueryResolver) Order(ctx context.Context, carrier, orderID string) (*OrderPayload, error) {
	start := time.Now()
	payload := &OrderPayload{Metadata: newMetadata()}

	s, err := r.Registry.Get(carrier)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}
	order, err := s.GetOrder(ctx, &shipper.GetOrderRequest{OrderID: orderID})
	r.observe(ctx, "get_order", carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}

	payload.Success = true
	payload.Order = orderToGraphQL(order)
	return payload, nil
}

// Driver is the resolver for the driver field.
func (r *QueryResolver) Driver(ctx context.Context, carrier, orderID, driverID string) (*DriverPayload, error) {
	start := time.Now()
	payload := &DriverPayload{Metadata: newMetadata()}

	dm, err := r.Registry.DriverManager(carrier)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}
	driver, err := dm.GetDriver(ctx, &shipper.DriverRequest{OrderID: orderID, DriverID: driverID})
	r.observe(ctx, "get_driver", carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}

	payload.Success = true
	payload.Driver = driverToGraphQL(driver)
	return payload, nil
}

// DriverLocation is the resolver for the driverLocation field.
func (r *QueryResolver) DriverLocation(ctx context.Context, carrier, orderID, driverID string) (*DriverLocationPayload, error) {
	start := time.Now()
	payload := &DriverLocationPayload{Metadata: newMetadata()}

	dm, err := r.Registry.DriverManager(carrier)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}
	loc, err := dm.GetDriverLocation(ctx, &shipper.DriverRequest{OrderID: orderID, DriverID: driverID})
	r.observe(ctx, "get_driver_location", carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(carrier, err)
		return payload, nil
	}

	payload.Success = true
	payload.Location = locationToGraphQL(loc)
	return payload, nil
}

// DispatchGetQuote is the resolver for the dispatch_get_quote field.
func (r *MutationResolver) DispatchGetQuote(ctx context.Context, input GetQuoteInput) (*QuotePayload, error) {
	start := time.Now()
	payload := &QuotePayload{Metadata: newMetadata(), Quotes: []*Quote{}}

	req, err := quoteInputToModel(input)
	if err != nil {
		payload.Error = errorToGraphQL("", err)
		return payload, nil
	}

	quotes, errs := r.Registry.GetQuotesFromCarriers(ctx, req, input.Carriers)
	for _, q := range quotes {
		r.Metrics.RecordRequest("get_quote", q.Carrier, "success", time.Since(start).Seconds())
		payload.Quotes = append(payload.Quotes, quoteToGraphQL(q))
	}
	payload.Errors = errorsToGraphQL(errs)
	for i, err := range errs {
		carrier := payload.Errors[i].Carrier
		if carrier == "" {
			carrier = "unknown"
		}
		r.Metrics.RecordError(carrier, errorType(err))
		r.Logger.Ctx(ctx).Warn("quote failed", zap.Error(err))
	}

	if len(quotes) == 0 {
		if len(payload.Errors) > 0 {
			payload.Error = payload.Errors[0]
		}
		return payload, nil
	}
	payload.Success = true
	return payload, nil
}

// DispatchPlaceOrder is the resolver for the dispatch_place_order field.
func (r *MutationResolver) DispatchPlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderPayload, error) {
	start := time.Now()
	payload := &OrderPayload{Metadata: newMetadata()}

	s, err := r.Registry.Get(input.Carrier)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}
	order, err := s.CreateOrder(ctx, placeOrderInputToModel(input))
	r.observe(ctx, "place_order", input.Carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}

	r.Logger.Ctx(ctx).Info("Order placed",
		zap.String("carrier", input.Carrier),
		zap.String("order_id", order.OrderID),
		zap.String("request_id", payload.Metadata.RequestID),
	)
	payload.Success = true
	payload.Order = orderToGraphQL(order)
	return payload, nil
}

// DispatchCancelOrder is the resolver for the dispatch_cancel_order field.
func (r *MutationResolver) DispatchCancelOrder(ctx context.Context, input CancelOrderInput) (*CancelOrderPayload, error) {
	start := time.Now()
	payload := &CancelOrderPayload{Metadata: newMetadata(), OrderID: input.OrderID}

	s, err := r.Registry.Get(input.Carrier)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}
	resp, err := s.CancelOrder(ctx, &shipper.CancelOrderRequest{OrderID: input.OrderID})
	r.observe(ctx, "cancel_order", input.Carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}

	payload.Success = true
	payload.Status = string(resp.Status)
	return payload, nil
}

// DispatchChangeDriver is the resolver for the dispatch_change_driver field.
func (r *MutationResolver) DispatchChangeDriver(ctx context.Context, input ChangeDriverInput) (*ChangeDriverPayload, error) {
	start := time.Now()
	payload := &ChangeDriverPayload{Metadata: newMetadata(), OrderID: input.OrderID}

	dm, err := r.Registry.DriverManager(input.Carrier)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}
	err = dm.ChangeDriver(ctx, &shipper.ChangeDriverRequest{
		OrderID:  input.OrderID,
		DriverID: input.DriverID,
		Reason:   input.Reason,
	})
	r.observe(ctx, "change_driver", input.Carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}

	payload.Success = true
	return payload, nil
}

// DispatchAddPriorityFee is the resolver for the dispatch_add_priority_fee field.
func (r *MutationResolver) DispatchAddPriorityFee(ctx context.Context, input PriorityFeeInput) (*OrderPayload, error) {
	start := time.Now()
	payload := &OrderPayload{Metadata: newMetadata()}

	dm, err := r.Registry.DriverManager(input.Carrier)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}
	order, err := dm.AddPriorityFee(ctx, &shipper.PriorityFeeRequest{OrderID: input.OrderID, Amount: input.Amount})
	r.observe(ctx, "add_priority_fee", input.Carrier, start, err)
	if err != nil {
		payload.Error = errorToGraphQL(input.Carrier, err)
		return payload, nil
	}

	payload.Success = true
	payload.Order = orderToGraphQL(order)
	return payload, nil
}
