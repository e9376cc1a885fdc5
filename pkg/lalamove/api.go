// Package lalamove provides a signed client for the Lalamove v3 REST API and
// an adapter exposing it as a shipper.Shipper.
package lalamove

import (
	"context"
)

// APIClient defines the Lalamove API operations.
// HTTPAPIClient talks to the real API; MockAPIClient is used in tests and
// local development.
type APIClient interface {
	// GetQuotation prices a delivery. POST /v3/quotations
	GetQuotation(ctx context.Context, req *QuotationRequest) (*Quotation, error)

	// PlaceOrder books a delivery from a quotation. POST /v3/orders
	PlaceOrder(ctx context.Context, req *OrderRequest) (*Order, error)

	// GetOrder fetches order details. GET /v3/orders/{orderId}
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	// GetDriver fetches the driver assigned to an order.
	GetDriver(ctx context.Context, orderID, driverID string) (*Driver, error)

	// GetDriverLocation fetches the last known driver position.
	GetDriverLocation(ctx context.Context, orderID, driverID string) (*DriverLocation, error)

	// CancelOrder cancels an order. DELETE /v3/orders/{orderId}
	CancelOrder(ctx context.Context, orderID string) error

	// ChangeDriver asks for another driver.
	ChangeDriver(ctx context.Context, orderID, driverID string, reason ChangeDriverReason) error

	// AddPriorityFee tips the driver to speed up matching.
	AddPriorityFee(ctx context.Context, orderID, amount string) (*Order, error)

	// ListCities returns the cities and services of the current market.
	ListCities(ctx context.Context) ([]CityInfo, error)

	// Market returns the market tag attached to requests.
	Market() Market

	// SetMarket switches the market tag. Not safe to call while requests
	// for the previous market are in flight.
	SetMarket(m Market)
}

// ============================================================================
// Enumerations
// ============================================================================

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderAssigningDriver OrderStatus = "ASSIGNING_DRIVER"
	OrderOnGoing         OrderStatus = "ON_GOING"
	OrderPickedUp        OrderStatus = "PICKED_UP"
	OrderCompleted       OrderStatus = "COMPLETED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderCanceled        OrderStatus = "CANCELED"
	OrderExpired         OrderStatus = "EXPIRED"
)

// Weight is the declared weight bracket of an item.
type Weight string

const (
	WeightLessThan3KG Weight = "LESS_THAN_3_KG"
	Weight3To10KG     Weight = "3_TO_10_KG"
	Weight10To20KG    Weight = "10_TO_20_KG"
	WeightOver20KG    Weight = "MORE_THAN_20_KG"
)

// Category describes the goods.
type Category string

const (
	CategoryFoodDelivery Category = "FOOD_DELIVERY"
	CategoryOfficeItem   Category = "OFFICE_ITEM"
	CategoryFurniture    Category = "FURNITURE"
	CategoryElectronics  Category = "ELECTRONICS"
	CategoryDocuments    Category = "DOCUMENTS"
)

// HandlingInstruction tells the driver how to carry the goods.
type HandlingInstruction string

const (
	HandlingKeepUpright HandlingInstruction = "KEEP_UPRIGHT"
	HandlingFragile     HandlingInstruction = "FRAGILE"
	HandlingKeepDry     HandlingInstruction = "KEEP_DRY"
)

// ChangeDriverReason is why a driver change is requested.
type ChangeDriverReason string

const (
	ReasonDriverLate         ChangeDriverReason = "DRIVER_LATE"
	ReasonDriverAskedChange  ChangeDriverReason = "DRIVER_ASKED_CHANGE"
	ReasonDriverUnresponsive ChangeDriverReason = "DRIVER_UNRESPONSIVE"
	ReasonDriverRude         ChangeDriverReason = "DRIVER_RUDE"
)

// Valid reports whether r is a reason the API accepts.
func (r ChangeDriverReason) Valid() bool {
	switch r {
	case ReasonDriverLate, ReasonDriverAskedChange, ReasonDriverUnresponsive, ReasonDriverRude:
		return true
	default:
		return false
	}
}

// ============================================================================
// API Request/Response Types (match Lalamove REST API v3 structure)
// ============================================================================

// Coordinates are decimal degrees encoded as strings.
type Coordinates struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Stop is a pickup or drop-off point.
type Stop struct {
	StopID      string      `json:"stopId,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
}

// Item describes what is delivered.
type Item struct {
	Quantity             string                `json:"quantity,omitempty"`
	Weight               Weight                `json:"weight,omitempty"`
	Categories           []Category            `json:"categories,omitempty"`
	HandlingInstructions []HandlingInstruction `json:"handlingInstructions,omitempty"`
}

// QuotationRequest is the body of POST /v3/quotations.
type QuotationRequest struct {
	ScheduleAt       string           `json:"scheduleAt,omitempty"` // FormatScheduleAt; immediate when empty
	ServiceType      ServiceType      `json:"serviceType"`
	SpecialRequests  []SpecialRequest `json:"specialRequests,omitempty"`
	Language         Language         `json:"language"`
	Stops            []Stop           `json:"stops"`
	IsRouteOptimized bool             `json:"isRouteOptimized,omitempty"`
	Item             *Item            `json:"item,omitempty"`
}

// PriceBreakdown is the itemized price; amounts are decimal strings.
type PriceBreakdown struct {
	Base                    string `json:"base"`
	ExtraMileage            string `json:"extraMileage,omitempty"`
	Surcharge               string `json:"surcharge,omitempty"`
	SpecialRequests         string `json:"specialRequests,omitempty"`
	PriorityFee             string `json:"priorityFee,omitempty"`
	TotalExcludePriorityFee string `json:"totalExcludePriorityFee,omitempty"`
	Total                   string `json:"total"`
	Currency                string `json:"currency"`
}

// Distance is a route length.
type Distance struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Quotation is the response of POST /v3/quotations.
type Quotation struct {
	QuotationID      string           `json:"quotationId"`
	ScheduleAt       string           `json:"scheduleAt"`
	ExpiresAt        string           `json:"expiresAt"`
	ServiceType      ServiceType      `json:"serviceType"`
	SpecialRequests  []SpecialRequest `json:"specialRequests"`
	Language         Language         `json:"language"`
	Stops            []Stop           `json:"stops"`
	IsRouteOptimized bool             `json:"isRouteOptimized"`
	PriceBreakdown   PriceBreakdown   `json:"priceBreakdown"`
	Item             *Item            `json:"item,omitempty"`
	Distance         Distance         `json:"distance"`
}

// Contact is the sender of an order, tied to a quoted stop.
type Contact struct {
	StopID string `json:"stopId"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// Recipient is a receiver of an order, tied to a quoted stop.
type Recipient struct {
	StopID  string `json:"stopId"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Remarks string `json:"remarks,omitempty"` // JoinRemarks output
}

// OrderRequest is the body of POST /v3/orders.
type OrderRequest struct {
	QuotationID           string            `json:"quotationId"`
	Sender                Contact           `json:"sender"`
	Recipients            []Recipient       `json:"recipients"`
	IsRecipientSMSEnabled bool              `json:"isRecipientSMSEnabled"`
	IsPODEnabled          bool              `json:"isPODEnabled"`
	Partner               string            `json:"partner,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

// OrderStop is a stop as reported on an order.
type OrderStop struct {
	StopID      string      `json:"stopId"`
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
	Name        string      `json:"name,omitempty"`
	Phone       string      `json:"phone,omitempty"`
}

// Order is the response of the order endpoints.
type Order struct {
	OrderID        string            `json:"orderId"`
	QuotationID    string            `json:"quotationId"`
	PriceBreakdown PriceBreakdown    `json:"priceBreakdown"`
	PriorityFee    string            `json:"priorityFee,omitempty"`
	DriverID       string            `json:"driverId,omitempty"`
	ShareLink      string            `json:"shareLink,omitempty"`
	Status         OrderStatus       `json:"status"`
	Distance       Distance          `json:"distance"`
	Stops          []OrderStop       `json:"stops"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DriverCoordinates is a driver position with its fix time.
type DriverCoordinates struct {
	Lat       string `json:"lat"`
	Lng       string `json:"lng"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Driver is the response of GET /v3/orders/{orderId}/drivers/{driverId}.
type Driver struct {
	DriverID    string             `json:"driverId"`
	Name        string             `json:"name"`
	Phone       string             `json:"phone"`
	PlateNumber string             `json:"plateNumber"`
	Photo       string             `json:"photo,omitempty"`
	Coordinates *DriverCoordinates `json:"coordinates,omitempty"`
}

// DriverLocation is the last known position of a driver.
type DriverLocation struct {
	Location  Coordinates `json:"location"`
	UpdatedAt string      `json:"updatedAt"`
}

// changeDriverRequest is the body of DELETE /v3/orders/{orderId}/drivers/{driverId}.
type changeDriverRequest struct {
	Reason ChangeDriverReason `json:"reason"`
}

// priorityFeeRequest is the body of POST /v3/orders/{orderId}/priority-fee.
type priorityFeeRequest struct {
	PriorityFee string `json:"priorityFee"`
}

// Measure is a value with its unit.
type Measure struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Dimensions of a vehicle's load space.
type Dimensions struct {
	Length Measure `json:"length"`
	Width  Measure `json:"width"`
	Height Measure `json:"height"`
}

// CitySpecialRequest is an add-on offered by a city service.
type CitySpecialRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ParentType   string `json:"parent_type,omitempty"`
	MaxSelection int    `json:"max_selection,omitempty"`
}

// CityService is a vehicle class offered in a city.
type CityService struct {
	Key             ServiceType          `json:"key"`
	Description     string               `json:"description"`
	Dimensions      Dimensions           `json:"dimensions"`
	Load            Measure              `json:"load"`
	SpecialRequests []CitySpecialRequest `json:"specialRequests"`
}

// CityInfo is one entry of GET /v3/cities.
type CityInfo struct {
	Locode   City          `json:"locode"`
	Name     string        `json:"name"`
	Services []CityService `json:"services"`
}
