package lalamove

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Base URLs of the Lalamove REST API.
const (
	SandboxBaseURL    = "https://rest.sandbox.lalamove.com"
	ProductionBaseURL = "https://rest.lalamove.com"
)

// DefaultTimeout bounds a single call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// HTTPAPIClient is the production implementation of APIClient.
// Every call is signed, sent once and classified; nothing is retried.
type HTTPAPIClient struct {
	baseURL    string
	auth       *Authenticator
	httpClient *http.Client
	logger     *otelzap.Logger
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Market    Market
	Timeout   time.Duration
	// HTTPClient overrides the underlying client; Timeout is applied to it
	// only when it has none of its own.
	HTTPClient *http.Client
	Logger     *otelzap.Logger
}

// NewHTTPAPIClient creates a new HTTP-based API client.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	} else if httpClient.Timeout == 0 {
		cloned := *httpClient
		cloned.Timeout = timeout
		httpClient = &cloned
	}

	logger := cfg.Logger
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	return &HTTPAPIClient{
		baseURL: baseURL,
		auth: NewAuthenticator(Credentials{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Market:    cfg.Market,
		}),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Authenticator exposes the request signer, e.g. to pin its clock in tests.
func (c *HTTPAPIClient) Authenticator() *Authenticator {
	return c.auth
}

// Market returns the market tag attached to requests.
func (c *HTTPAPIClient) Market() Market {
	return c.auth.Market()
}

// SetMarket switches the market tag for subsequent requests.
// Do not call it while requests for the previous market are in flight;
// build one client per market instead when calls run concurrently.
func (c *HTTPAPIClient) SetMarket(m Market) {
	c.auth.SetMarket(m)
}

// Request describes one API call.
type Request struct {
	Method Method
	Path   string // no scheme or host, e.g. "/v3/orders"
	Body   any    // nil for no body; always nil for GET
}

// Execute signs and sends req, and returns the unwrapped success payload.
// Every failure is a *ClientError.
func (c *HTTPAPIClient) Execute(ctx context.Context, req Request) (json.RawMessage, error) {
	if !req.Method.Valid() {
		return nil, ValidationError("unsupported method %q", req.Method)
	}
	if !strings.HasPrefix(req.Path, "/") {
		return nil, ValidationError("path %q must start with /", req.Path)
	}
	if req.Body != nil && !req.Method.allowsBody() {
		return nil, ValidationError("%s requests cannot carry a body", req.Method)
	}
	if err := c.auth.validate(); err != nil {
		return nil, ValidationError("invalid credentials: %v", err)
	}

	log := c.logger.Ctx(ctx)

	// The body is serialized once; these exact bytes are signed and sent.
	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			log.Error("Failed to encode Lalamove request body",
				zap.String("method", string(req.Method)),
				zap.String("path", req.Path),
				zap.Error(err),
			)
			return nil, newUnexpectedError(fmt.Errorf("marshal request body: %w", err))
		}
		payload = b
	}

	headers, material := c.auth.Headers(req.Method, req.Path, payload)
	requestID := headers.Get(HeaderRequestID)

	var bodyReader io.Reader
	if len(payload) > 0 {
		bodyReader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), c.baseURL+req.Path, bodyReader)
	if err != nil {
		log.Error("Failed to build Lalamove request",
			zap.String("method", string(req.Method)),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, newUnexpectedError(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header = headers

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportFailure(ctx, req, requestID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		// the answer never arrived in full, whatever the status line said
		return nil, c.transportFailure(ctx, req, requestID, err)
	}

	log.Debug("Lalamove call completed",
		zap.String("method", string(req.Method)),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
		zap.Int64("timestamp", material.Timestamp),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return unwrapEnvelope(raw), nil
	}

	apiErr := newHTTPError(resp.StatusCode, parseErrorDetail(raw))
	log.Warn("Lalamove API returned an error",
		zap.String("method", string(req.Method)),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
	)
	return nil, apiErr
}

// transportFailure classifies an error raised before a complete response arrived.
func (c *HTTPAPIClient) transportFailure(ctx context.Context, req Request, requestID string, err error) *ClientError {
	log := c.logger.Ctx(ctx)
	if isNoResponse(err) {
		log.Warn("Lalamove request timed out",
			zap.String("method", string(req.Method)),
			zap.String("path", req.Path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return newTimeoutError(err)
	}

	log.Error("Unexpected Lalamove request error",
		zap.String("method", string(req.Method)),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	return newUnexpectedError(err)
}

// isNoResponse reports whether err means the request never got an answer:
// a timeout, or a connection that was refused, reset or closed early.
func isNoResponse(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// execute runs req and decodes the payload into T. A payload that does not
// decode is treated as an empty object.
func execute[T any](ctx context.Context, c *HTTPAPIClient, req Request) (*T, error) {
	data, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Ctx(ctx).Warn("Unexpected Lalamove response shape",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		var zero T
		return &zero, nil
	}
	return &out, nil
}

// GetQuotation prices a delivery.
func (c *HTTPAPIClient) GetQuotation(ctx context.Context, req *QuotationRequest) (*Quotation, error) {
	if req == nil {
		return nil, ValidationError("quotation request is required")
	}
	return execute[Quotation](ctx, c, Request{
		Method: MethodPost,
		Path:   "/v3/quotations",
		Body:   dataEnvelope{Data: req},
	})
}

// PlaceOrder books a delivery from a quotation.
func (c *HTTPAPIClient) PlaceOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if req == nil {
		return nil, ValidationError("order request is required")
	}
	if req.QuotationID == "" {
		return nil, ValidationError("quotationId is required")
	}
	return execute[Order](ctx, c, Request{
		Method: MethodPost,
		Path:   "/v3/orders",
		Body:   dataEnvelope{Data: req},
	})
}

// GetOrder fetches order details.
func (c *HTTPAPIClient) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, ValidationError("orderId is required")
	}
	return execute[Order](ctx, c, Request{
		Method: MethodGet,
		Path:   orderPath(orderID),
	})
}

// GetDriver fetches the driver assigned to an order.
func (c *HTTPAPIClient) GetDriver(ctx context.Context, orderID, driverID string) (*Driver, error) {
	if err := requireOrderAndDriver(orderID, driverID); err != nil {
		return nil, err
	}
	return execute[Driver](ctx, c, Request{
		Method: MethodGet,
		Path:   driverPath(orderID, driverID),
	})
}

// GetDriverLocation fetches the driver and projects its position.
func (c *HTTPAPIClient) GetDriverLocation(ctx context.Context, orderID, driverID string) (*DriverLocation, error) {
	driver, err := c.GetDriver(ctx, orderID, driverID)
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

// CancelOrder cancels an order.
func (c *HTTPAPIClient) CancelOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ValidationError("orderId is required")
	}
	_, err := c.Execute(ctx, Request{
		Method: MethodDelete,
		Path:   orderPath(orderID),
	})
	return err
}

// ChangeDriver asks for another driver. The reason travels in a DELETE body.
func (c *HTTPAPIClient) ChangeDriver(ctx context.Context, orderID, driverID string, reason ChangeDriverReason) error {
	if err := requireOrderAndDriver(orderID, driverID); err != nil {
		return err
	}
	if !reason.Valid() {
		return ValidationError("unsupported change driver reason %q", reason)
	}
	_, err := c.Execute(ctx, Request{
		Method: MethodDelete,
		Path:   driverPath(orderID, driverID),
		Body:   dataEnvelope{Data: changeDriverRequest{Reason: reason}},
	})
	return err
}

// AddPriorityFee tips the driver. amount is a positive decimal string.
func (c *HTTPAPIClient) AddPriorityFee(ctx context.Context, orderID, amount string) (*Order, error) {
	if orderID == "" {
		return nil, ValidationError("orderId is required")
	}
	if v, err := strconv.ParseFloat(amount, 64); err != nil || v <= 0 {
		return nil, ValidationError("priority fee must be a positive amount, got %q", amount)
	}
	return execute[Order](ctx, c, Request{
		Method: MethodPost,
		Path:   orderPath(orderID) + "/priority-fee",
		Body:   dataEnvelope{Data: priorityFeeRequest{PriorityFee: amount}},
	})
}

// ListCities returns the cities and services of the current market.
func (c *HTTPAPIClient) ListCities(ctx context.Context) ([]CityInfo, error) {
	cities, err := execute[[]CityInfo](ctx, c, Request{
		Method: MethodGet,
		Path:   "/v3/cities",
	})
	if err != nil {
		return nil, err
	}
	if *cities == nil {
		return []CityInfo{}, nil
	}
	return *cities, nil
}

func orderPath(orderID string) string {
	return "/v3/orders/" + url.PathEscape(orderID)
}

func driverPath(orderID, driverID string) string {
	return orderPath(orderID) + "/drivers/" + url.PathEscape(driverID)
}

func requireOrderAndDriver(orderID, driverID string) error {
	if orderID == "" {
		return ValidationError("orderId is required")
	}
	if driverID == "" {
		return ValidationError("driverId is required")
	}
	return nil
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
