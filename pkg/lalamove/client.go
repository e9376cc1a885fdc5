package lalamove

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/dispatch/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const carrierPrefix = "lalamove-"

// Config holds Lalamove configuration for one market.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Market    Market
	Timeout   time.Duration
	UseMock   bool // When true, uses mock API client
}

// Client is the Lalamove carrier for one market.
// It implements shipper.Shipper, shipper.DriverManager and shipper.CityLister
// and delegates API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Lalamove client.
// If cfg.UseMock is true, it uses a mock API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient(cfg.Market)
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Market:    cfg.Market,
			Timeout:   cfg.Timeout,
			Logger:    logger,
		})
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new Lalamove client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("lalamove")
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// CarrierName returns the registry name of the carrier for m, e.g. "lalamove-tw".
func CarrierName(m Market) string {
	return carrierPrefix + strings.ToLower(string(m))
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return CarrierName(c.Market())
}

// Market returns the market this carrier serves.
func (c *Client) Market() Market {
	return c.apiClient.Market()
}

func (c *Client) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("carrier", c.Name()),
		attribute.String("market", string(c.Market())),
	)
	return c.tracer.Start(ctx, "lalamove."+op, trace.WithAttributes(attrs...))
}

// rejectNil fails op for a missing request.
func (c *Client) rejectNil(ctx context.Context, op string) error {
	ctx, span := c.startSpan(ctx, op)
	defer span.End()
	return c.fail(ctx, span, op, ValidationError("%s request is required", op))
}

// fail records err on the span, logs it and converts it to a ShipperError.
func (c *Client) fail(ctx context.Context, span trace.Span, op string, err error) error {
	serr := c.toShipperError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, serr.Message)

	log := c.logger.Ctx(ctx)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("code", serr.Code),
		zap.Int("status", serr.StatusCode),
		zap.Error(err),
	}
	if IsValidation(err) {
		log.Warn("Lalamove request rejected", fields...)
	} else {
		log.Error("Lalamove API error", fields...)
	}
	return serr
}

// toShipperError wraps err in a ShipperError keeping the ClientError reachable
// through errors.As.
func (c *Client) toShipperError(err error) *shipper.ShipperError {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return shipper.NewShipperError(c.Name(), string(KindUnexpected), err.Error()).
			WithCause(err).
			WithStatusCode(StatusUnexpected)
	}

	msg := ce.Message()
	if msg == "" {
		msg = ce.Error()
	}

	serr := shipper.NewShipperError(c.Name(), string(ce.Kind), msg).
		WithCause(ce).
		WithStatusCode(ce.Status)

	switch ce.Kind {
	case KindValidation:
		serr.WithSentinel(shipper.ErrInvalidRequest)
	case KindTimeout:
		serr.WithSentinel(shipper.ErrTimeout).WithRetryable(true)
	case KindHTTP:
		serr.WithSentinel(shipper.SentinelForStatus(ce.Status)).
			WithRetryable(shipper.RetryableStatus(ce.Status))
	}
	return serr
}

// GetQuote prices a delivery.
func (c *Client) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "GetQuote")
	}
	ctx, span := c.startSpan(ctx, "GetQuote",
		attribute.String("service_type", req.ServiceType),
		attribute.Int("stops", len(req.Stops)),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Getting Lalamove quotation",
		zap.String("carrier", c.Name()),
		zap.String("city", req.City),
		zap.String("service_type", req.ServiceType),
		zap.Int("stop_count", len(req.Stops)),
	)

	apiReq, err := c.quotationRequest(req)
	if err != nil {
		return nil, c.fail(ctx, span, "GetQuote", err)
	}

	quote, err := c.apiClient.GetQuotation(ctx, apiReq)
	if err != nil {
		return nil, c.fail(ctx, span, "GetQuote", err)
	}

	span.SetAttributes(attribute.String("quotation_id", quote.QuotationID))
	return quotationToShipper(c.Name(), quote), nil
}

// CreateOrder books a delivery from a quotation.
func (c *Client) CreateOrder(ctx context.Context, req *shipper.CreateOrderRequest) (*shipper.Order, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "CreateOrder")
	}
	ctx, span := c.startSpan(ctx, "CreateOrder",
		attribute.String("quotation_id", req.QuoteID),
		attribute.Int("recipients", len(req.Recipients)),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Placing Lalamove order",
		zap.String("carrier", c.Name()),
		zap.String("quotation_id", req.QuoteID),
		zap.Int("recipient_count", len(req.Recipients)),
	)

	apiReq, err := orderRequest(req)
	if err != nil {
		return nil, c.fail(ctx, span, "CreateOrder", err)
	}

	order, err := c.apiClient.PlaceOrder(ctx, apiReq)
	if err != nil {
		return nil, c.fail(ctx, span, "CreateOrder", err)
	}

	span.SetAttributes(attribute.String("order_id", order.OrderID))
	return orderToShipper(c.Name(), order), nil
}

// GetOrder returns the current state of an order.
func (c *Client) GetOrder(ctx context.Context, req *shipper.GetOrderRequest) (*shipper.Order, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "GetOrder")
	}
	ctx, span := c.startSpan(ctx, "GetOrder", attribute.String("order_id", req.OrderID))
	defer span.End()

	order, err := c.apiClient.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, c.fail(ctx, span, "GetOrder", err)
	}
	return orderToShipper(c.Name(), order), nil
}

// CancelOrder cancels an order.
func (c *Client) CancelOrder(ctx context.Context, req *shipper.CancelOrderRequest) (*shipper.CancelOrderResponse, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "CancelOrder")
	}
	ctx, span := c.startSpan(ctx, "CancelOrder", attribute.String("order_id", req.OrderID))
	defer span.End()

	c.logger.Ctx(ctx).Info("Cancelling Lalamove order",
		zap.String("carrier", c.Name()),
		zap.String("order_id", req.OrderID),
	)

	if err := c.apiClient.CancelOrder(ctx, req.OrderID); err != nil {
		return nil, c.fail(ctx, span, "CancelOrder", err)
	}
	return &shipper.CancelOrderResponse{
		OrderID: req.OrderID,
		Status:  shipper.StatusCancelled,
	}, nil
}

// GetDriver returns the driver assigned to an order.
func (c *Client) GetDriver(ctx context.Context, req *shipper.DriverRequest) (*shipper.Driver, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "GetDriver")
	}
	ctx, span := c.startSpan(ctx, "GetDriver",
		attribute.String("order_id", req.OrderID),
		attribute.String("driver_id", req.DriverID),
	)
	defer span.End()

	driver, err := c.apiClient.GetDriver(ctx, req.OrderID, req.DriverID)
	if err != nil {
		return nil, c.fail(ctx, span, "GetDriver", err)
	}
	return &shipper.Driver{
		DriverID:    driver.DriverID,
		Name:        driver.Name,
		Phone:       driver.Phone,
		PlateNumber: driver.PlateNumber,
		PhotoURL:    driver.Photo,
	}, nil
}

// GetDriverLocation returns the driver's last known position.
func (c *Client) GetDriverLocation(ctx context.Context, req *shipper.DriverRequest) (*shipper.DriverLocation, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "GetDriverLocation")
	}
	ctx, span := c.startSpan(ctx, "GetDriverLocation",
		attribute.String("order_id", req.OrderID),
		attribute.String("driver_id", req.DriverID),
	)
	defer span.End()

	loc, err := c.apiClient.GetDriverLocation(ctx, req.OrderID, req.DriverID)
	if err != nil {
		return nil, c.fail(ctx, span, "GetDriverLocation", err)
	}
	return &shipper.DriverLocation{
		DriverID:    req.DriverID,
		Coordinates: shipper.Coordinates{Lat: loc.Location.Lat, Lng: loc.Location.Lng},
		UpdatedAt:   parseTimePtr(loc.UpdatedAt),
	}, nil
}

// ChangeDriver asks for another driver.
func (c *Client) ChangeDriver(ctx context.Context, req *shipper.ChangeDriverRequest) error {
	if req == nil {
		return c.rejectNil(ctx, "ChangeDriver")
	}
	ctx, span := c.startSpan(ctx, "ChangeDriver",
		attribute.String("order_id", req.OrderID),
		attribute.String("driver_id", req.DriverID),
		attribute.String("reason", req.Reason),
	)
	defer span.End()

	c.logger.Ctx(ctx).Info("Changing Lalamove driver",
		zap.String("carrier", c.Name()),
		zap.String("order_id", req.OrderID),
		zap.String("driver_id", req.DriverID),
		zap.String("reason", req.Reason),
	)

	reason := ChangeDriverReason(req.Reason)
	if reason == "" {
		reason = ReasonDriverAskedChange
	}
	if err := c.apiClient.ChangeDriver(ctx, req.OrderID, req.DriverID, reason); err != nil {
		return c.fail(ctx, span, "ChangeDriver", err)
	}
	return nil
}

// AddPriorityFee tips the driver to speed up matching.
func (c *Client) AddPriorityFee(ctx context.Context, req *shipper.PriorityFeeRequest) (*shipper.Order, error) {
	if req == nil {
		return nil, c.rejectNil(ctx, "AddPriorityFee")
	}
	ctx, span := c.startSpan(ctx, "AddPriorityFee",
		attribute.String("order_id", req.OrderID),
		attribute.Float64("amount", req.Amount),
	)
	defer span.End()

	if req.Amount <= 0 {
		return nil, c.fail(ctx, span, "AddPriorityFee",
			ValidationError("priority fee must be positive, got %v", req.Amount))
	}

	amount := strconv.FormatFloat(req.Amount, 'f', -1, 64)
	order, err := c.apiClient.AddPriorityFee(ctx, req.OrderID, amount)
	if err != nil {
		return nil, c.fail(ctx, span, "AddPriorityFee", err)
	}
	return orderToShipper(c.Name(), order), nil
}

// ListCities returns the cities served in the carrier's market.
func (c *Client) ListCities(ctx context.Context) ([]shipper.City, error) {
	ctx, span := c.startSpan(ctx, "ListCities")
	defer span.End()

	cities, err := c.apiClient.ListCities(ctx)
	if err != nil {
		return nil, c.fail(ctx, span, "ListCities", err)
	}

	out := make([]shipper.City, 0, len(cities))
	for _, city := range cities {
		sc := shipper.City{
			Code:     string(city.Locode),
			Name:     city.Name,
			Services: make([]shipper.CityService, 0, len(city.Services)),
		}
		for _, svc := range city.Services {
			requests := make([]string, 0, len(svc.SpecialRequests))
			for _, sr := range svc.SpecialRequests {
				requests = append(requests, sr.Name)
			}
			sc.Services = append(sc.Services, shipper.CityService{
				ServiceType:     string(svc.Key),
				Description:     svc.Description,
				SpecialRequests: requests,
			})
		}
		out = append(out, sc)
	}
	return out, nil
}

// ============================================================================
// Conversion helpers: Shipper models -> API models
// ============================================================================

// quotationRequest validates req against the market catalog and shapes it
// for the wire.
func (c *Client) quotationRequest(req *shipper.QuoteRequest) (*QuotationRequest, error) {
	market := c.Market()

	if len(req.Stops) < 2 {
		return nil, ValidationError("at least 2 stops are required, got %d", len(req.Stops))
	}
	stops := make([]Stop, len(req.Stops))
	for i, s := range req.Stops {
		if strings.TrimSpace(s.Address) == "" {
			return nil, ValidationError("stop %d: address is required", i)
		}
		if s.Coordinates.Lat == "" || s.Coordinates.Lng == "" {
			return nil, ValidationError("stop %d: coordinates are required", i)
		}
		stops[i] = Stop{
			Coordinates: Coordinates{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng},
			Address:     s.Address,
		}
	}

	lang := Language(req.Language)
	if lang == "" {
		if langs := Languages(market); len(langs) > 0 {
			lang = langs[0]
		}
	}
	if !SupportsLanguage(market, lang) {
		return nil, ValidationError("language %q is not offered in market %s", lang, market)
	}

	st := ServiceType(req.ServiceType)
	city := City(req.City)
	if st == "" {
		return nil, ValidationError("serviceType is required")
	}
	if !SupportsServiceType(market, city, st) {
		return nil, ValidationError("service type %s is not offered in %s", st, placeName(market, city))
	}
	if city == "" {
		city = firstCityOffering(market, st)
	}

	requested := make([]SpecialRequest, len(req.SpecialRequests))
	for i, r := range req.SpecialRequests {
		requested[i] = SpecialRequest(r)
	}

	apiReq := &QuotationRequest{
		ServiceType:      st,
		SpecialRequests:  FilterSpecialRequests(market, city, st, requested),
		Language:         lang,
		Stops:            stops,
		IsRouteOptimized: req.OptimizeRoute,
		Item:             itemToAPI(req.Item),
	}
	if req.ScheduleAt != nil {
		apiReq.ScheduleAt = FormatScheduleAt(*req.ScheduleAt)
	}
	return apiReq, nil
}

func placeName(m Market, city City) string {
	if city == "" {
		return "market " + string(m)
	}
	return "city " + string(city)
}

// firstCityOffering picks the first catalogued city of m offering st; its
// allow-list filters special requests when the caller names no city.
func firstCityOffering(m Market, st ServiceType) City {
	for _, city := range Cities(m) {
		if SupportsServiceType(m, city, st) {
			return city
		}
	}
	return ""
}

func itemToAPI(item *shipper.Item) *Item {
	if item == nil {
		return nil
	}
	out := &Item{
		Quantity: item.Quantity,
		Weight:   Weight(item.Weight),
	}
	for _, cat := range item.Categories {
		out.Categories = append(out.Categories, Category(cat))
	}
	for _, hi := range item.HandlingInstructions {
		out.HandlingInstructions = append(out.HandlingInstructions, HandlingInstruction(hi))
	}
	return out
}

func orderRequest(req *shipper.CreateOrderRequest) (*OrderRequest, error) {
	if req.QuoteID == "" {
		return nil, ValidationError("quotationId is required")
	}
	if req.SenderStopID == "" {
		return nil, ValidationError("sender stopId is required")
	}
	if len(req.Recipients) == 0 {
		return nil, ValidationError("at least one recipient is required")
	}

	recipients := make([]Recipient, len(req.Recipients))
	for i, r := range req.Recipients {
		if r.StopID == "" {
			return nil, ValidationError("recipient %d: stopId is required", i)
		}
		remarks := make([]Remark, len(r.Remarks))
		for j, rm := range r.Remarks {
			remarks[j] = Remark{Key: rm.Key, Value: rm.Value}
		}
		recipients[i] = Recipient{
			StopID:  r.StopID,
			Name:    r.Contact.Name,
			Phone:   r.Contact.Phone,
			Remarks: JoinRemarks(remarks),
		}
	}

	return &OrderRequest{
		QuotationID: req.QuoteID,
		Sender: Contact{
			StopID: req.SenderStopID,
			Name:   req.Sender.Name,
			Phone:  req.Sender.Phone,
		},
		Recipients:            recipients,
		IsRecipientSMSEnabled: req.NotifyBySMS,
		IsPODEnabled:          req.ProofRequired,
		Metadata:              req.Metadata,
	}, nil
}

// ============================================================================
// Conversion helpers: API models -> Shipper models
// ============================================================================

func quotationToShipper(carrier string, q *Quotation) *shipper.QuoteResponse {
	stops := make([]shipper.Stop, len(q.Stops))
	for i, s := range q.Stops {
		stops[i] = shipper.Stop{
			ID:          s.StopID,
			Coordinates: shipper.Coordinates{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng},
			Address:     s.Address,
		}
	}
	requests := make([]string, len(q.SpecialRequests))
	for i, r := range q.SpecialRequests {
		requests[i] = string(r)
	}

	return &shipper.QuoteResponse{
		QuoteID:         q.QuotationID,
		Carrier:         carrier,
		ServiceType:     string(q.ServiceType),
		SpecialRequests: requests,
		Stops:           stops,
		Price:           priceToShipper(q.PriceBreakdown),
		Distance:        distanceToShipper(q.Distance),
		ScheduleAt:      parseTime(q.ScheduleAt),
		ExpiresAt:       parseTime(q.ExpiresAt),
	}
}

func orderToShipper(carrier string, o *Order) *shipper.Order {
	stops := make([]shipper.Stop, len(o.Stops))
	for i, s := range o.Stops {
		stops[i] = shipper.Stop{
			ID:          s.StopID,
			Coordinates: shipper.Coordinates{Lat: s.Coordinates.Lat, Lng: s.Coordinates.Lng},
			Address:     s.Address,
		}
	}

	price := priceToShipper(o.PriceBreakdown)
	if price.PriorityFee.Amount == 0 && o.PriorityFee != "" {
		price.PriorityFee = money(o.PriorityFee, o.PriceBreakdown.Currency)
	}

	return &shipper.Order{
		OrderID:   o.OrderID,
		QuoteID:   o.QuotationID,
		Carrier:   carrier,
		Status:    statusToShipper(o.Status),
		DriverID:  o.DriverID,
		ShareLink: o.ShareLink,
		Price:     price,
		Distance:  distanceToShipper(o.Distance),
		Stops:     stops,
		Metadata:  o.Metadata,
	}
}

func statusToShipper(s OrderStatus) shipper.OrderStatus {
	switch s {
	case OrderAssigningDriver:
		return shipper.StatusAssigning
	case OrderOnGoing:
		return shipper.StatusOnGoing
	case OrderPickedUp:
		return shipper.StatusPickedUp
	case OrderCompleted:
		return shipper.StatusCompleted
	case OrderRejected:
		return shipper.StatusRejected
	case OrderCanceled:
		return shipper.StatusCancelled
	case OrderExpired:
		return shipper.StatusExpired
	default:
		return shipper.StatusUnknown
	}
}

func priceToShipper(p PriceBreakdown) shipper.PriceBreakdown {
	return shipper.PriceBreakdown{
		Base:         money(p.Base, p.Currency),
		ExtraMileage: money(p.ExtraMileage, p.Currency),
		Surcharge:    money(p.Surcharge, p.Currency),
		PriorityFee:  money(p.PriorityFee, p.Currency),
		Total:        money(p.Total, p.Currency),
	}
}

// money parses a decimal string; malformed or empty amounts become zero.
func money(amount, currency string) shipper.Money {
	v, _ := strconv.ParseFloat(amount, 64)
	return shipper.Money{Amount: v, Currency: currency}
}

func distanceToShipper(d Distance) shipper.Distance {
	v, _ := strconv.ParseFloat(d.Value, 64)
	if strings.EqualFold(d.Unit, "km") {
		v *= 1000
	}
	return shipper.Distance{Meters: v}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

// Ensure Client implements the carrier interfaces
var (
	_ shipper.Shipper       = (*Client)(nil)
	_ shipper.DriverManager = (*Client)(nil)
	_ shipper.CityLister    = (*Client)(nil)
)
