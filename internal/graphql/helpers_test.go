package graphql

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/dispatch/pkg/shipper"
)

func TestQuoteInputToModel(t *testing.T) {
	at := "2024-03-01T10:30:00Z"
	input := GetQuoteInput{
		City:            "TW TPE",
		ServiceType:     "VAN",
		SpecialRequests: []string{"MOVING"},
		Language:        "zh_TW",
		Stops: []StopInput{
			{Coordinates: CoordinatesInput{Lat: "25.1", Lng: "121.5"}, Address: "A"},
			{Coordinates: CoordinatesInput{Lat: "25.2", Lng: "121.6"}, Address: "B"},
		},
		Item:          &ItemInput{Quantity: "3", Weight: "LESS_THAN_3KG", Categories: []string{"FOOD_DELIVERY"}},
		ScheduleAt:    &at,
		OptimizeRoute: true,
	}

	req, err := quoteInputToModel(input)
	require.NoError(t, err)

	assert.Equal(t, "TW TPE", req.City)
	assert.Equal(t, "VAN", req.ServiceType)
	assert.Equal(t, []string{"MOVING"}, req.SpecialRequests)
	require.Len(t, req.Stops, 2)
	assert.Equal(t, shipper.Coordinates{Lat: "25.2", Lng: "121.6"}, req.Stops[1].Coordinates)
	assert.Equal(t, "B", req.Stops[1].Address)
	require.NotNil(t, req.Item)
	assert.Equal(t, "3", req.Item.Quantity)
	require.NotNil(t, req.ScheduleAt)
	assert.True(t, req.ScheduleAt.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
	assert.True(t, req.OptimizeRoute)
}

func TestQuoteInputToModel_Defaults(t *testing.T) {
	empty := ""
	req, err := quoteInputToModel(GetQuoteInput{ScheduleAt: &empty})
	require.NoError(t, err)
	assert.Nil(t, req.ScheduleAt)
	assert.Nil(t, req.Item)
	assert.Empty(t, req.Stops)
}

func TestQuoteInputToModel_BadSchedule(t *testing.T) {
	bad := "01/03/2024"
	_, err := quoteInputToModel(GetQuoteInput{ScheduleAt: &bad})
	assert.ErrorIs(t, err, shipper.ErrInvalidRequest)
}

func TestPlaceOrderInputToModel(t *testing.T) {
	req := placeOrderInputToModel(PlaceOrderInput{
		QuoteID:      "q-1",
		SenderStopID: "s-1",
		Sender:       ContactInput{Name: "Sender", Phone: "+886911111111"},
		Recipients: []RecipientInput{{
			StopID:  "s-2",
			Contact: ContactInput{Name: "Recipient", Phone: "+886922222222"},
			Remarks: []RemarkInput{{Key: "Floor", Value: "3"}, {Key: "Door", Value: "B"}},
		}},
		NotifyBySMS:     true,
		ProofOfDelivery: true,
		Metadata:        map[string]string{"ref": "A-1"},
	})

	assert.Equal(t, "q-1", req.QuoteID)
	assert.Equal(t, "s-1", req.SenderStopID)
	assert.Equal(t, "Sender", req.Sender.Name)
	require.Len(t, req.Recipients, 1)
	assert.Equal(t, "s-2", req.Recipients[0].StopID)
	assert.Equal(t, []shipper.Remark{{Key: "Floor", Value: "3"}, {Key: "Door", Value: "B"}}, req.Recipients[0].Remarks)
	assert.True(t, req.NotifyBySMS)
	assert.True(t, req.ProofRequired)
	assert.Equal(t, "A-1", req.Metadata["ref"])
}

func TestErrorToGraphQL(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"carrier not found", fmt.Errorf("%w: x", shipper.ErrCarrierNotFound), "CARRIER_NOT_FOUND", 404},
		{"not supported", shipper.ErrNotSupported, "NOT_SUPPORTED", 501},
		{"invalid", shipper.ErrInvalidRequest, "INVALID_REQUEST", 400},
		{"order not found", shipper.ErrOrderNotFound, "ORDER_NOT_FOUND", 404},
		{"driver", shipper.ErrDriverNotAssigned, "DRIVER_NOT_ASSIGNED", 409},
		{"plain", errors.New("boom"), "CARRIER_ERROR", 502},
		{
			"carrier status wins",
			shipper.NewShipperError("lalamove-tw", "http", "Unprocessable").
				WithStatusCode(422).
				WithSentinel(shipper.ErrInvalidRequest),
			"INVALID_REQUEST", 422,
		},
		{
			"timeout",
			shipper.NewShipperError("lalamove-tw", "timeout", "Connection Timeout").
				WithStatusCode(408).
				WithSentinel(shipper.ErrTimeout).
				WithRetryable(true),
			"TIMEOUT", 408,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorToGraphQL("", tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.err.Error(), got.Message)
		})
	}
}

func TestErrorToGraphQL_CarrierAndRetryable(t *testing.T) {
	se := shipper.NewShipperError("lalamove-hk", "timeout", "Connection Timeout").
		WithStatusCode(408).
		WithSentinel(shipper.ErrTimeout).
		WithRetryable(true)

	got := errorToGraphQL("", fmt.Errorf("lalamove-hk: %w", se))
	assert.Equal(t, "lalamove-hk", got.Carrier)
	assert.True(t, got.Retryable)

	got = errorToGraphQL("mock", shipper.ErrOrderNotFound)
	assert.Equal(t, "mock", got.Carrier)
	assert.False(t, got.Retryable)
}

func TestErrorsToGraphQL(t *testing.T) {
	assert.Nil(t, errorsToGraphQL(nil))

	got := errorsToGraphQL([]error{shipper.ErrTimeout, shipper.ErrQuoteExpired})
	require.Len(t, got, 2)
	assert.Equal(t, "TIMEOUT", got[0].Code)
	assert.Equal(t, "QUOTE_EXPIRED", got[1].Code)
}

func TestErrorType(t *testing.T) {
	se := shipper.NewShipperError("lalamove-tw", "validation", "bad").WithSentinel(shipper.ErrInvalidRequest)
	assert.Equal(t, "validation", errorType(se))
	assert.Equal(t, "order_not_found", errorType(shipper.ErrOrderNotFound))
	assert.Equal(t, "carrier_error", errorType(errors.New("boom")))
}

func TestMoneyAndTimeToGraphQL(t *testing.T) {
	assert.Nil(t, moneyToGraphQL(shipper.Money{}))
	assert.Equal(t, &Money{Amount: 12.5, Currency: "HKD"}, moneyToGraphQL(shipper.Money{Amount: 12.5, Currency: "HKD"}))

	assert.Nil(t, timeToGraphQL(time.Time{}))
	s := timeToGraphQL(time.Date(2024, 3, 1, 18, 30, 0, 0, time.FixedZone("TST", 8*3600)))
	require.NotNil(t, s)
	assert.Equal(t, "2024-03-01T10:30:00Z", *s)
}

func TestOrderToGraphQL(t *testing.T) {
	updated := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	order := orderToGraphQL(&shipper.Order{
		OrderID: "o-1",
		Status:  shipper.StatusPickedUp,
		Price: shipper.PriceBreakdown{
			Total: shipper.Money{Amount: 120, Currency: "TWD"},
		},
		Distance: shipper.Distance{Meters: 3100},
		Stops:    []shipper.Stop{{ID: "s-1", Address: "A"}},
	})

	assert.Equal(t, "picked_up", order.Status)
	assert.Equal(t, 120.0, order.Price.Total.Amount)
	assert.Nil(t, order.Price.Base)
	assert.Equal(t, 3100.0, order.DistanceMeters)
	assert.Equal(t, "s-1", order.Stops[0].ID)

	loc := locationToGraphQL(&shipper.DriverLocation{DriverID: "d-1", UpdatedAt: &updated})
	assert.Equal(t, "2024-03-01T10:00:00Z", *loc.UpdatedAt)
	assert.Nil(t, locationToGraphQL(&shipper.DriverLocation{}).UpdatedAt)
}
