package lalamove_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/dispatch/pkg/lalamove"
)

const (
	testKey    = "pk_test_1"
	testSecret = "sk_test_1"
)

// captured is what the fake API saw of the last request.
type captured struct {
	Method  string
	Path    string
	Body    string
	Header  http.Header
	HasBody bool
}

type fakeAPI struct {
	*httptest.Server

	mu    sync.Mutex
	last  captured
	calls atomic.Int32
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		f.calls.Add(1)
		f.mu.Lock()
		f.last = captured{
			Method:  r.Method,
			Path:    r.URL.EscapedPath(),
			Body:    string(raw),
			Header:  r.Header.Clone(),
			HasBody: r.ContentLength > 0,
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) request() captured {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func newAPIClient(baseURL string, timeout time.Duration) *lalamove.HTTPAPIClient {
	return lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		BaseURL:   baseURL,
		APIKey:    testKey,
		APISecret: testSecret,
		Market:    lalamove.MarketTaiwan,
		Timeout:   timeout,
	})
}

// assertSigned recomputes the signature from what the server received.
func assertSigned(t *testing.T, req captured) {
	t.Helper()
	token := req.Header.Get(lalamove.HeaderAuthorization)
	require.True(t, strings.HasPrefix(token, "hmac "), token)

	parts := strings.SplitN(strings.TrimPrefix(token, "hmac "), ":", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, testKey, parts[0])

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), ts, float64(time.Minute.Milliseconds()))

	want := lalamove.Sign(testSecret, lalamove.CanonicalString(lalamove.SigningMaterial{
		Timestamp: ts,
		Method:    lalamove.Method(req.Method),
		Path:      req.Path,
		Body:      req.Body,
	}))
	assert.Equal(t, want, parts[2])
}

func TestExecute_SignsExactTransmittedBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":{"quotationId":"q-1"}}`)
	client := newAPIClient(api.URL, time.Second)

	_, err := client.GetQuotation(context.Background(), &lalamove.QuotationRequest{
		ServiceType: lalamove.ServiceMotorcycle,
		Language:    lalamove.LanguageZhTW,
		Stops: []lalamove.Stop{
			{Coordinates: lalamove.Coordinates{Lat: "25.0330", Lng: "121.5654"}, Address: "台北101"},
			{Coordinates: lalamove.Coordinates{Lat: "25.0478", Lng: "121.5170"}, Address: "台北車站"},
		},
	})
	require.NoError(t, err)

	req := api.request()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v3/quotations", req.Path)
	assertSigned(t, req)

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(req.Body), &envelope))
	assert.Contains(t, envelope, "data")
}

func TestExecute_Headers(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":{}}`)
	client := newAPIClient(api.URL, time.Second)

	_, err := client.GetOrder(context.Background(), "123")
	require.NoError(t, err)

	req := api.request()
	assert.Equal(t, "TW", req.Header.Get(lalamove.HeaderMarket))
	assert.Equal(t, "application/json", req.Header.Get(lalamove.HeaderContentType))
	assert.Equal(t, "application/json", req.Header.Get(lalamove.HeaderAccept))
	assert.NotEmpty(t, req.Header.Get(lalamove.HeaderRequestID))
}

func TestExecute_GetSignsEmptyBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":{"orderId":"123","status":"ON_GOING"}}`)
	client := newAPIClient(api.URL, time.Second)

	order, err := client.GetOrder(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", order.OrderID)
	assert.Equal(t, lalamove.OrderOnGoing, order.Status)

	req := api.request()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/v3/orders/123", req.Path)
	assert.Empty(t, req.Body)
	assert.False(t, req.HasBody)
	assertSigned(t, req)
}

func TestExecute_FreshRequestIDPerCall(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":{}}`)
	client := newAPIClient(api.URL, time.Second)

	_, err := client.GetOrder(context.Background(), "1")
	require.NoError(t, err)
	first := api.request().Header.Get(lalamove.HeaderRequestID)

	_, err = client.GetOrder(context.Background(), "1")
	require.NoError(t, err)
	second := api.request().Header.Get(lalamove.HeaderRequestID)

	assert.NotEqual(t, first, second)
}

func TestExecute_StatusBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"200 is success", 200, false},
		{"201 is success", 201, false},
		{"399 is success", 399, false},
		{"400 is an error", 400, true},
		{"404 is an error", 404, true},
		{"500 is an error", 500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, tt.status, `{"data":{"orderId":"o-1"},"message":"ERR_X"}`)
			client := newAPIClient(api.URL, time.Second)

			order, err := client.GetOrder(context.Background(), "o-1")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "o-1", order.OrderID)
				return
			}

			require.Error(t, err)
			var ce *lalamove.ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, lalamove.KindHTTP, ce.Kind)
			assert.Equal(t, tt.status, ce.Status)
			assert.Equal(t, "ERR_X", ce.Message())
		})
	}
}

func TestExecute_ErrorWithUnparseableBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusBadGateway, `<html>Bad Gateway</html>`)
	client := newAPIClient(api.URL, time.Second)

	_, err := client.GetOrder(context.Background(), "o-1")
	require.Error(t, err)

	var ce *lalamove.ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 502, ce.Status)
	assert.Empty(t, ce.Detail)
	assert.JSONEq(t, `{"status":502,"detail":{}}`, err.Error())
}

func TestExecute_SuccessWithUnparseableBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `not json`)
	client := newAPIClient(api.URL, time.Second)

	raw, err := client.Execute(context.Background(), lalamove.Request{Method: lalamove.MethodGet, Path: "/v3/orders/1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	order, err := client.GetOrder(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, lalamove.Order{}, *order)
}

func TestExecute_SuccessWithoutEnvelope(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"orderId":"legacy-1"}`)
	client := newAPIClient(api.URL, time.Second)

	order, err := client.GetOrder(context.Background(), "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", order.OrderID)
}

func TestExecute_NullBodyIsEmptyObject(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `null`)
	client := newAPIClient(api.URL, time.Second)

	raw, err := client.Execute(context.Background(), lalamove.Request{Method: lalamove.MethodGet, Path: "/v3/orders/1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestExecute_ValidationBeforeSend(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := newAPIClient(api.URL, time.Second)
	ctx := context.Background()

	tests := []struct {
		name string
		req  lalamove.Request
	}{
		{"unsupported method", lalamove.Request{Method: "PATCH", Path: "/v3/orders/1"}},
		{"relative path", lalamove.Request{Method: lalamove.MethodGet, Path: "v3/orders/1"}},
		{"get with body", lalamove.Request{Method: lalamove.MethodGet, Path: "/v3/orders/1", Body: map[string]string{"a": "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Execute(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, lalamove.IsValidation(err))
			assert.Equal(t, 400, lalamove.StatusOf(err))
		})
	}

	_, err := client.GetOrder(ctx, "")
	assert.True(t, lalamove.IsValidation(err))
	_, err = client.GetDriver(ctx, "o-1", "")
	assert.True(t, lalamove.IsValidation(err))
	_, err = client.PlaceOrder(ctx, &lalamove.OrderRequest{})
	assert.True(t, lalamove.IsValidation(err))
	err = client.ChangeDriver(ctx, "o-1", "d-1", "BORED")
	assert.True(t, lalamove.IsValidation(err))
	_, err = client.AddPriorityFee(ctx, "o-1", "0")
	assert.True(t, lalamove.IsValidation(err))
	_, err = client.AddPriorityFee(ctx, "o-1", "ten")
	assert.True(t, lalamove.IsValidation(err))

	assert.Equal(t, int32(0), api.calls.Load(), "nothing should reach the server")
}

func TestExecute_MissingCredentials(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		BaseURL: api.URL,
		APIKey:  testKey,
		Market:  lalamove.MarketTaiwan,
	})

	_, err := client.ListCities(context.Background())
	assert.True(t, lalamove.IsValidation(err))
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestExecute_UnencodableBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := newAPIClient(api.URL, time.Second)

	_, err := client.Execute(context.Background(), lalamove.Request{
		Method: lalamove.MethodPost,
		Path:   "/v3/orders",
		Body:   map[string]any{"bad": make(chan int)},
	})
	require.Error(t, err)
	assert.Equal(t, lalamove.KindUnexpected, lalamove.KindOf(err))
	assert.Equal(t, -1, lalamove.StatusOf(err))
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestOperations_TimeoutIs408(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := newAPIClient(srv.URL, 50*time.Millisecond)
	ctx := context.Background()

	calls := map[string]func() error{
		"GetQuotation": func() error {
			_, err := client.GetQuotation(ctx, &lalamove.QuotationRequest{})
			return err
		},
		"PlaceOrder": func() error {
			_, err := client.PlaceOrder(ctx, &lalamove.OrderRequest{QuotationID: "q-1"})
			return err
		},
		"GetOrder": func() error {
			_, err := client.GetOrder(ctx, "o-1")
			return err
		},
		"GetDriver": func() error {
			_, err := client.GetDriver(ctx, "o-1", "d-1")
			return err
		},
		"GetDriverLocation": func() error {
			_, err := client.GetDriverLocation(ctx, "o-1", "d-1")
			return err
		},
		"CancelOrder": func() error {
			return client.CancelOrder(ctx, "o-1")
		},
		"ChangeDriver": func() error {
			return client.ChangeDriver(ctx, "o-1", "d-1", lalamove.ReasonDriverLate)
		},
		"AddPriorityFee": func() error {
			_, err := client.AddPriorityFee(ctx, "o-1", "10")
			return err
		},
		"ListCities": func() error {
			_, err := client.ListCities(ctx)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)

			var ce *lalamove.ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, lalamove.KindTimeout, ce.Kind)
			assert.Equal(t, 408, ce.Status)
			assert.Equal(t, "Connection Timeout", ce.Message())
		})
	}
}

func TestExecute_ContextDeadlineIs408(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := newAPIClient(srv.URL, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetOrder(ctx, "o-1")
	assert.True(t, lalamove.IsTimeout(err))
	assert.Equal(t, 408, lalamove.StatusOf(err))
}

func TestExecute_StalledBodyIs408(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"data":{"orderId":"o-`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := newAPIClient(srv.URL, 100*time.Millisecond)
	order, err := client.PlaceOrder(context.Background(), &lalamove.OrderRequest{QuotationID: "q-1"})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, lalamove.IsTimeout(err))
	assert.Equal(t, 408, lalamove.StatusOf(err))
}

func TestExecute_TruncatedBodyIs408(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"data":{"orderId":"o-`)
	}))
	t.Cleanup(srv.Close)

	client := newAPIClient(srv.URL, time.Second)
	order, err := client.GetOrder(context.Background(), "o-1")
	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, lalamove.IsTimeout(err))
}

func TestExecute_CanceledContextIsUnexpected(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := newAPIClient(api.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetOrder(ctx, "o-1")
	require.Error(t, err)
	assert.Equal(t, lalamove.KindUnexpected, lalamove.KindOf(err))
	assert.Equal(t, -1, lalamove.StatusOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecute_ConnectionRefusedIs408(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := newAPIClient(url, time.Second)
	_, err := client.GetOrder(context.Background(), "o-1")
	assert.True(t, lalamove.IsTimeout(err))
	assert.Equal(t, 408, lalamove.StatusOf(err))
}

func TestExecute_ClosedWithoutResponseIs408(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	t.Cleanup(srv.Close)

	client := newAPIClient(srv.URL, time.Second)
	_, err := client.GetOrder(context.Background(), "o-1")
	assert.True(t, lalamove.IsTimeout(err))
}

func TestExecute_TLSFailureIsUnexpected(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	// the default client does not trust the test certificate
	client := lalamove.NewHTTPAPIClient(lalamove.HTTPAPIClientConfig{
		BaseURL:    srv.URL,
		APIKey:     testKey,
		APISecret:  testSecret,
		Market:     lalamove.MarketTaiwan,
		HTTPClient: &http.Client{},
	})

	_, err := client.GetOrder(context.Background(), "o-1")
	require.Error(t, err)
	assert.Equal(t, lalamove.KindUnexpected, lalamove.KindOf(err))
	assert.Equal(t, -1, lalamove.StatusOf(err))
	assert.JSONEq(t, `{"status":-1,"detail":{"message":"Unexpected Request Error"}}`, err.Error())
}

func TestCancelOrder_DeleteWithoutBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusNoContent, ``)
	client := newAPIClient(api.URL, time.Second)

	require.NoError(t, client.CancelOrder(context.Background(), "o-1"))

	req := api.request()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/v3/orders/o-1", req.Path)
	assert.Empty(t, req.Body)
	assertSigned(t, req)
}

func TestChangeDriver_SendsReasonInDeleteBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusNoContent, ``)
	client := newAPIClient(api.URL, time.Second)

	require.NoError(t, client.ChangeDriver(context.Background(), "o-1", "d-1", lalamove.ReasonDriverAskedChange))

	req := api.request()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/v3/orders/o-1/drivers/d-1", req.Path)
	assert.JSONEq(t, `{"data":{"reason":"DRIVER_ASKED_CHANGE"}}`, req.Body)
	assertSigned(t, req)
}

func TestAddPriorityFee(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":{"orderId":"o-1","priorityFee":"15","status":"ASSIGNING_DRIVER"}}`)
	client := newAPIClient(api.URL, time.Second)

	order, err := client.AddPriorityFee(context.Background(), "o-1", "15")
	require.NoError(t, err)
	assert.Equal(t, "15", order.PriorityFee)

	req := api.request()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v3/orders/o-1/priority-fee", req.Path)
	assert.JSONEq(t, `{"data":{"priorityFee":"15"}}`, req.Body)
	assertSigned(t, req)
}

func TestPlaceOrder_WireShape(t *testing.T) {
	api := newFakeAPI(t, http.StatusCreated, `{"data":{"orderId":"o-9","quotationId":"q-1","status":"ASSIGNING_DRIVER"}}`)
	client := newAPIClient(api.URL, time.Second)

	order, err := client.PlaceOrder(context.Background(), &lalamove.OrderRequest{
		QuotationID: "q-1",
		Sender:      lalamove.Contact{StopID: "1000", Name: "Sender", Phone: "+886911111111"},
		Recipients: []lalamove.Recipient{
			{StopID: "1001", Name: "Recipient", Phone: "+886922222222", Remarks: "floor: 3"},
		},
		IsRecipientSMSEnabled: true,
		IsPODEnabled:          true,
		Metadata:              map[string]string{"restaurantOrderId": "1234"},
	})
	require.NoError(t, err)
	assert.Equal(t, "o-9", order.OrderID)

	req := api.request()
	assert.Equal(t, "/v3/orders", req.Path)
	assert.JSONEq(t, `{"data":{
		"quotationId":"q-1",
		"sender":{"stopId":"1000","name":"Sender","phone":"+886911111111"},
		"recipients":[{"stopId":"1001","name":"Recipient","phone":"+886922222222","remarks":"floor: 3"}],
		"isRecipientSMSEnabled":true,
		"isPODEnabled":true,
		"metadata":{"restaurantOrderId":"1234"}
	}}`, req.Body)
}

func TestGetDriverLocation_ProjectsCoordinates(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":{"driverId":"d-1","name":"Chen","coordinates":{"lat":"25.03","lng":"121.56","updatedAt":"2024-03-01T10:30:00.00Z"}}}`)
	client := newAPIClient(api.URL, time.Second)

	loc, err := client.GetDriverLocation(context.Background(), "o-1", "d-1")
	require.NoError(t, err)
	assert.Equal(t, lalamove.Coordinates{Lat: "25.03", Lng: "121.56"}, loc.Location)
	assert.Equal(t, "2024-03-01T10:30:00.00Z", loc.UpdatedAt)
	assert.Equal(t, "/v3/orders/o-1/drivers/d-1", api.request().Path)
}

func TestListCities(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{"data":[{"locode":"TW TPE","name":"Taipei","services":[{"key":"MOTORCYCLE","description":"機車","specialRequests":[{"name":"LALABAG","description":"保溫袋"}]}]}]}`)
	client := newAPIClient(api.URL, time.Second)

	cities, err := client.ListCities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, lalamove.CityTaipei, cities[0].Locode)
	require.Len(t, cities[0].Services, 1)
	assert.Equal(t, lalamove.ServiceMotorcycle, cities[0].Services[0].Key)
	assert.Equal(t, "/v3/cities", api.request().Path)
}

func TestListCities_EmptyBody(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, ``)
	client := newAPIClient(api.URL, time.Second)

	cities, err := client.ListCities(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, cities)
	assert.Empty(t, cities)
}

func TestOrderPath_Escaped(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := newAPIClient(api.URL, time.Second)

	_, err := client.GetOrder(context.Background(), "a/b")
	require.NoError(t, err)

	req := api.request()
	assert.Equal(t, "/v3/orders/a%2Fb", req.Path)
	assertSigned(t, req)
}

func TestHTTPAPIClient_SetMarket(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := newAPIClient(api.URL, time.Second)
	assert.Equal(t, lalamove.MarketTaiwan, client.Market())

	client.SetMarket(lalamove.MarketSingapore)
	_, err := client.GetOrder(context.Background(), "o-1")
	require.NoError(t, err)

	assert.Equal(t, lalamove.MarketSingapore, client.Market())
	assert.Equal(t, "SG", api.request().Header.Get(lalamove.HeaderMarket))
}
