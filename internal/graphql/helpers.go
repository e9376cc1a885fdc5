package graphql

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/dispatch/pkg/shipper"
)

func newMetadata() *Metadata {
	return &Metadata{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func quoteInputToModel(input GetQuoteInput) (*shipper.QuoteRequest, error) {
	req := &shipper.QuoteRequest{
		City:            input.City,
		ServiceType:     input.ServiceType,
		SpecialRequests: input.SpecialRequests,
		Language:        input.Language,
		OptimizeRoute:   input.OptimizeRoute,
	}
	for _, s := range input.Stops {
		req.Stops = append(req.Stops, shipper.Stop{
			Coordinates: shipper.Coordinates{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng},
			Address:     s.Address,
		})
	}
	if input.Item != nil {
		req.Item = &shipper.Item{
			Quantity:             input.Item.Quantity,
			Weight:               input.Item.Weight,
			Categories:           input.Item.Categories,
			HandlingInstructions: input.Item.HandlingInstructions,
		}
	}
	if input.ScheduleAt != nil && *input.ScheduleAt != "" {
		at, err := time.Parse(time.RFC3339, *input.ScheduleAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduleAt: %v", shipper.ErrInvalidRequest, err)
		}
		req.ScheduleAt = &at
	}
	return req, nil
}

func placeOrderInputToModel(input PlaceOrderInput) *shipper.CreateOrderRequest {
	req := &shipper.CreateOrderRequest{
		QuoteID:       input.QuoteID,
		SenderStopID:  input.SenderStopID,
		Sender:        shipper.Contact{Name: input.Sender.Name, Phone: input.Sender.Phone},
		NotifyBySMS:   input.NotifyBySMS,
		ProofRequired: input.ProofOfDelivery,
		Metadata:      input.Metadata,
	}
	for _, r := range input.Recipients {
		recipient := shipper.Recipient{
			StopID:  r.StopID,
			Contact: shipper.Contact{Name: r.Contact.Name, Phone: r.Contact.Phone},
		}
		for _, rm := range r.Remarks {
			recipient.Remarks = append(recipient.Remarks, shipper.Remark{Key: rm.Key, Value: rm.Value})
		}
		req.Recipients = append(req.Recipients, recipient)
	}
	return req
}

func quoteToGraphQL(q *shipper.QuoteResponse) *Quote {
	return &Quote{
		QuoteID:         q.QuoteID,
		Carrier:         q.Carrier,
		ServiceType:     q.ServiceType,
		SpecialRequests: q.SpecialRequests,
		Stops:           stopsToGraphQL(q.Stops),
		Price:           priceToGraphQL(q.Price),
		DistanceMeters:  q.Distance.Meters,
		ScheduleAt:      timeToGraphQL(q.ScheduleAt),
		ExpiresAt:       timeToGraphQL(q.ExpiresAt),
	}
}

func orderToGraphQL(o *shipper.Order) *Order {
	return &Order{
		OrderID:        o.OrderID,
		QuoteID:        o.QuoteID,
		Carrier:        o.Carrier,
		Status:         string(o.Status),
		DriverID:       o.DriverID,
		ShareLink:      o.ShareLink,
		Price:          priceToGraphQL(o.Price),
		DistanceMeters: o.Distance.Meters,
		Stops:          stopsToGraphQL(o.Stops),
		Metadata:       o.Metadata,
	}
}

func driverToGraphQL(d *shipper.Driver) *Driver {
	return &Driver{
		DriverID:    d.DriverID,
		Name:        d.Name,
		Phone:       d.Phone,
		PlateNumber: d.PlateNumber,
		PhotoURL:    d.PhotoURL,
	}
}

func locationToGraphQL(l *shipper.DriverLocation) *DriverLocation {
	loc := &DriverLocation{
		DriverID:    l.DriverID,
		Coordinates: &Coordinates{Lat: l.Coordinates.Lat, Lng: l.Coordinates.Lng},
	}
	if l.UpdatedAt != nil {
		loc.UpdatedAt = timeToGraphQL(*l.UpdatedAt)
	}
	return loc
}

func citiesToGraphQL(cities []shipper.City) []*City {
	result := make([]*City, 0, len(cities))
	for _, c := range cities {
		city := &City{Code: c.Code, Name: c.Name, Services: make([]*CityService, 0, len(c.Services))}
		for _, s := range c.Services {
			city.Services = append(city.Services, &CityService{
				ServiceType:     s.ServiceType,
				Description:     s.Description,
				SpecialRequests: s.SpecialRequests,
			})
		}
		result = append(result, city)
	}
	return result
}

func stopsToGraphQL(stops []shipper.Stop) []*Stop {
	result := make([]*Stop, 0, len(stops))
	for _, s := range stops {
		result = append(result, &Stop{
			ID:          s.ID,
			Coordinates: &Coordinates{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng},
			Address:     s.Address,
		})
	}
	return result
}

func priceToGraphQL(p shipper.PriceBreakdown) *Price {
	return &Price{
		Base:         moneyToGraphQL(p.Base),
		ExtraMileage: moneyToGraphQL(p.ExtraMileage),
		Surcharge:    moneyToGraphQL(p.Surcharge),
		PriorityFee:  moneyToGraphQL(p.PriorityFee),
		Total:        moneyToGraphQL(p.Total),
	}
}

func moneyToGraphQL(m shipper.Money) *Money {
	if m.Amount == 0 && m.Currency == "" {
		return nil
	}
	return &Money{Amount: m.Amount, Currency: m.Currency}
}

func timeToGraphQL(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// errorCodes maps dispatch sentinels to the codes clients switch on.
var errorCodes = []struct {
	sentinel error
	code     string
	status   int
}{
	{shipper.ErrCarrierNotFound, "CARRIER_NOT_FOUND", http.StatusNotFound},
	{shipper.ErrNotSupported, "NOT_SUPPORTED", http.StatusNotImplemented},
	{shipper.ErrInvalidRequest, "INVALID_REQUEST", http.StatusBadRequest},
	{shipper.ErrTimeout, "TIMEOUT", http.StatusRequestTimeout},
	{shipper.ErrQuoteExpired, "QUOTE_EXPIRED", http.StatusConflict},
	{shipper.ErrOrderNotFound, "ORDER_NOT_FOUND", http.StatusNotFound},
	{shipper.ErrCancellationNotAllowed, "CANCELLATION_NOT_ALLOWED", http.StatusConflict},
	{shipper.ErrDriverNotAssigned, "DRIVER_NOT_ASSIGNED", http.StatusConflict},
	{shipper.ErrAuthenticationFailed, "AUTHENTICATION_FAILED", http.StatusUnauthorized},
	{shipper.ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests},
	{shipper.ErrServiceUnavailable, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
}

// errorToGraphQL describes err for a payload. A carrier status code, when
// present, wins over the default status of the matched sentinel.
func errorToGraphQL(carrier string, err error) *Error {
	result := &Error{
		Code:      "CARRIER_ERROR",
		Message:   err.Error(),
		Status:    http.StatusBadGateway,
		Carrier:   carrier,
		Retryable: shipper.IsRetryable(err),
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.sentinel) {
			result.Code = ec.code
			result.Status = ec.status
			break
		}
	}

	var se *shipper.ShipperError
	if errors.As(err, &se) {
		if se.StatusCode != 0 {
			result.Status = se.StatusCode
		}
		if result.Carrier == "" {
			result.Carrier = se.Carrier
		}
	}
	return result
}

func errorsToGraphQL(errs []error) []*Error {
	if len(errs) == 0 {
		return nil
	}
	result := make([]*Error, len(errs))
	for i, err := range errs {
		result[i] = errorToGraphQL("", err)
	}
	return result
}

// errorType labels err for the carrier error counter.
func errorType(err error) string {
	var se *shipper.ShipperError
	if errors.As(err, &se) && se.Code != "" {
		return se.Code
	}
	return strings.ToLower(errorToGraphQL("", err).Code)
}
