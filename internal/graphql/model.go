package graphql

// ============================================================================
// Inputs
// ============================================================================

type CoordinatesInput struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type StopInput struct {
	Coordinates CoordinatesInput `json:"coordinates"`
	Address     string           `json:"address"`
}

type ItemInput struct {
	Quantity             string   `json:"quantity"`
	Weight               string   `json:"weight"`
	Categories           []string `json:"categories"`
	HandlingInstructions []string `json:"handlingInstructions"`
}

// GetQuoteInput prices a delivery. An empty Carriers list asks every
// registered carrier.
type GetQuoteInput struct {
	Carriers        []string    `json:"carriers"`
	City            string      `json:"city"`
	ServiceType     string      `json:"serviceType"`
	SpecialRequests []string    `json:"specialRequests"`
	Language        string      `json:"language"`
	Stops           []StopInput `json:"stops"`
	Item            *ItemInput  `json:"item"`
	ScheduleAt      *string     `json:"scheduleAt"` // RFC 3339
	OptimizeRoute   bool        `json:"optimizeRoute"`
}

type ContactInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type RemarkInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type RecipientInput struct {
	StopID  string        `json:"stopId"`
	Contact ContactInput  `json:"contact"`
	Remarks []RemarkInput `json:"remarks"`
}

type PlaceOrderInput struct {
	Carrier         string            `json:"carrier"`
	QuoteID         string            `json:"quoteId"`
	SenderStopID    string            `json:"senderStopId"`
	Sender          ContactInput      `json:"sender"`
	Recipients      []RecipientInput  `json:"recipients"`
	NotifyBySMS     bool              `json:"notifyBySms"`
	ProofOfDelivery bool              `json:"proofOfDelivery"`
	Metadata        map[string]string `json:"metadata"`
}

type CancelOrderInput struct {
	Carrier string `json:"carrier"`
	OrderID string `json:"orderId"`
}

type ChangeDriverInput struct {
	Carrier  string `json:"carrier"`
	OrderID  string `json:"orderId"`
	DriverID string `json:"driverId"`
	Reason   string `json:"reason"`
}

type PriorityFeeInput struct {
	Carrier string  `json:"carrier"`
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
}

// ============================================================================
// Outputs
// ============================================================================

// Error is a failure reported inside a payload.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Carrier   string `json:"carrier,omitempty"`
	Retryable bool   `json:"retryable"`
}

type Metadata struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

type Carrier struct {
	Name          string `json:"name"`
	ManageDrivers bool   `json:"manageDrivers"`
	ListCities    bool   `json:"listCities"`
}

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Price struct {
	Base         *Money `json:"base"`
	ExtraMileage *Money `json:"extraMileage"`
	Surcharge    *Money `json:"surcharge"`
	PriorityFee  *Money `json:"priorityFee"`
	Total        *Money `json:"total"`
}

type Coordinates struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type Stop struct {
	ID          string       `json:"id"`
	Coordinates *Coordinates `json:"coordinates"`
	Address     string       `json:"address"`
}

type Quote struct {
	QuoteID         string   `json:"quoteId"`
	Carrier         string   `json:"carrier"`
	ServiceType     string   `json:"serviceType"`
	SpecialRequests []string `json:"specialRequests"`
	Stops           []*Stop  `json:"stops"`
	Price           *Price   `json:"price"`
	DistanceMeters  float64  `json:"distanceMeters"`
	ScheduleAt      *string  `json:"scheduleAt"`
	ExpiresAt       *string  `json:"expiresAt"`
}

type Order struct {
	OrderID        string            `json:"orderId"`
	QuoteID        string            `json:"quoteId"`
	Carrier        string            `json:"carrier"`
	Status         string            `json:"status"`
	DriverID       string            `json:"driverId"`
	ShareLink      string            `json:"shareLink"`
	Price          *Price            `json:"price"`
	DistanceMeters float64           `json:"distanceMeters"`
	Stops          []*Stop           `json:"stops"`
	Metadata       map[string]string `json:"metadata"`
}

type Driver struct {
	DriverID    string `json:"driverId"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	PlateNumber string `json:"plateNumber"`
	PhotoURL    string `json:"photoUrl"`
}

type DriverLocation struct {
	DriverID    string       `json:"driverId"`
	Coordinates *Coordinates `json:"coordinates"`
	UpdatedAt   *string      `json:"updatedAt"`
}

type City struct {
	Code     string         `json:"code"`
	Name     string         `json:"name"`
	Services []*CityService `json:"services"`
}

type CityService struct {
	ServiceType     string   `json:"serviceType"`
	Description     string   `json:"description"`
	SpecialRequests []string `json:"specialRequests"`
}

// ============================================================================
// Payloads
// ============================================================================

// QuotePayload lists the quotes of every carrier that answered. Errors holds
// the per-carrier failures; Error is set when no carrier answered.
type QuotePayload struct {
	Success  bool      `json:"success"`
	Quotes   []*Quote  `json:"quotes"`
	Errors   []*Error  `json:"errors"`
	Error    *Error    `json:"error"`
	Metadata *Metadata `json:"metadata"`
}

type OrderPayload struct {
	Success  bool      `json:"success"`
	Order    *Order    `json:"order"`
	Error    *Error    `json:"error"`
	Metadata *Metadata `json:"metadata"`
}

type CancelOrderPayload struct {
	Success  bool      `json:"success"`
	OrderID  string    `json:"orderId"`
	Status   string    `json:"status"`
	Error    *Error    `json:"error"`
	Metadata *Metadata `json:"metadata"`
}

type ChangeDriverPayload struct {
	Success  bool      `json:"success"`
	OrderID  string    `json:"orderId"`
	Error    *Error    `json:"error"`
	Metadata *Metadata `json:"metadata"`
}

type DriverPayload struct {
	Success  bool      `json:"success"`
	Driver   *Driver   `json:"driver"`
	Error    *Error    `json:"error"`
	Metadata *Metadata `json:"metadata"`
}

type DriverLocationPayload struct {
	Success  bool            `json:"success"`
	Location *DriverLocation `json:"location"`
	Error    *Error          `json:"error"`
	Metadata *Metadata       `json:"metadata"`
}

type CitiesPayload struct {
	Success  bool      `json:"success"`
	Cities   []*City   `json:"cities"`
	Error    *Error    `json:"error"`
	Metadata *Metadata `json:"metadata"`
}
