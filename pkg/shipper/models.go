package shipper

import (
	"time"
)

// OrderStatus represents the normalized status of a delivery order.
type OrderStatus string

const (
	StatusAssigning OrderStatus = "assigning_driver"
	StatusOnGoing   OrderStatus = "on_going"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusCompleted OrderStatus = "completed"
	StatusRejected  OrderStatus = "rejected"
	StatusCancelled OrderStatus = "cancelled"
	StatusExpired   OrderStatus = "expired"
	StatusUnknown   OrderStatus = "unknown"
)

// Terminal reports whether no further transition is expected.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Coordinates are decimal degrees kept as strings to avoid precision loss.
type Coordinates struct {
	Lat string
	Lng string
}

// Remark is one keyed note for the driver, kept in caller order.
type Remark struct {
	Key   string
	Value string
}

// Stop is a pickup or drop-off point.
type Stop struct {
	ID          string // carrier stop id, set on quote responses
	Coordinates Coordinates
	Address     string
}

// Contact represents sender or recipient contact info.
type Contact struct {
	Name  string
	Phone string
}

// Item describes the goods being delivered.
type Item struct {
	Quantity             string
	Weight               string
	Categories           []string
	HandlingInstructions []string
}

// Money represents a monetary amount.
type Money struct {
	Amount   float64
	Currency string
}

// PriceBreakdown is the itemized price of a delivery.
type PriceBreakdown struct {
	Base         Money
	ExtraMileage Money
	Surcharge    Money
	PriorityFee  Money
	Total        Money
}

// Distance is a route length in meters.
type Distance struct {
	Meters float64
}

// ============================================================================
// Request/Response Types
// ============================================================================

// QuoteRequest is the request for pricing a delivery.
type QuoteRequest struct {
	City            string // carrier city code, used to filter special requests
	ServiceType     string // vehicle class, e.g. "MOTORCYCLE"
	SpecialRequests []string
	Language        string
	Stops           []Stop
	Item            *Item
	ScheduleAt      *time.Time // nil means as soon as possible
	OptimizeRoute   bool
}

// QuoteResponse is a priced delivery that can be turned into an order.
type QuoteResponse struct {
	QuoteID         string
	Carrier         string
	ServiceType     string
	SpecialRequests []string
	Stops           []Stop
	Price           PriceBreakdown
	Distance        Distance
	ScheduleAt      time.Time
	ExpiresAt       time.Time
}

// Recipient is a drop-off contact bound to a quoted stop.
type Recipient struct {
	StopID  string
	Contact Contact
	Remarks []Remark
}

// CreateOrderRequest is the request for booking a delivery.
type CreateOrderRequest struct {
	QuoteID       string
	SenderStopID  string
	Sender        Contact
	Recipients    []Recipient
	NotifyBySMS   bool
	ProofRequired bool
	Metadata      map[string]string
}

// Order is the state of a delivery order.
type Order struct {
	OrderID   string
	QuoteID   string
	Carrier   string
	Status    OrderStatus
	DriverID  string
	ShareLink string
	Price     PriceBreakdown
	Distance  Distance
	Stops     []Stop
	Metadata  map[string]string
}

// GetOrderRequest is the request for reading an order.
type GetOrderRequest struct {
	OrderID string
}

// CancelOrderRequest is the request for cancelling an order.
type CancelOrderRequest struct {
	OrderID string
}

// CancelOrderResponse is the response from cancelling an order.
type CancelOrderResponse struct {
	OrderID string
	Status  OrderStatus
}

// DriverRequest identifies the driver of an order.
type DriverRequest struct {
	OrderID  string
	DriverID string
}

// Driver is the courier assigned to an order.
type Driver struct {
	DriverID    string
	Name        string
	Phone       string
	PlateNumber string
	PhotoURL    string
}

// DriverLocation is a driver position.
type DriverLocation struct {
	DriverID    string
	Coordinates Coordinates
	UpdatedAt   *time.Time
}

// ChangeDriverRequest asks for the driver of an order to be replaced.
type ChangeDriverRequest struct {
	OrderID  string
	DriverID string
	Reason   string
}

// PriorityFeeRequest adds a tip to an order.
type PriorityFeeRequest struct {
	OrderID string
	Amount  float64
}

// City is a served city and its vehicle classes.
type City struct {
	Code     string
	Name     string
	Services []CityService
}

// CityService is a vehicle class offered in a city.
type CityService struct {
	ServiceType     string
	Description     string
	SpecialRequests []string
}
