package lalamove

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Method is the closed set of HTTP verbs the API uses.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// Valid reports whether m is one of the supported verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// allowsBody reports whether a request body may be transmitted with m.
func (m Method) allowsBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// Header names sent with every signed request.
const (
	HeaderAuthorization = "Authorization"
	HeaderMarket        = "Market"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"

	contentTypeJSON = "application/json"
)

// Credentials identify one API account in one market.
// The market is the only field that may change after construction.
type Credentials struct {
	APIKey    string
	APISecret string
	Market    Market
}

// Authenticator stamps outbound requests with a signed token.
// It is safe for concurrent use; SetMarket must not race with in-flight
// calls that expect the previous market.
type Authenticator struct {
	mu    sync.RWMutex
	creds Credentials

	now       func() time.Time
	requestID func() string
}

// NewAuthenticator creates an authenticator for creds.
func NewAuthenticator(creds Credentials) *Authenticator {
	return &Authenticator{
		creds:     creds,
		now:       time.Now,
		requestID: uuid.NewString,
	}
}

// WithClock replaces the timestamp source. Intended for tests.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// WithRequestIDGenerator replaces the correlation id source. Intended for tests.
func (a *Authenticator) WithRequestIDGenerator(gen func() string) *Authenticator {
	a.requestID = gen
	return a
}

// Market returns the market tag currently attached to requests.
func (a *Authenticator) Market() Market {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.creds.Market
}

// SetMarket switches the market tag for subsequent requests.
func (a *Authenticator) SetMarket(m Market) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.creds.Market = m
}

// Headers builds the authenticated header set for one call. body must be the
// exact bytes that will be transmitted (nil or empty for no body). A fresh
// timestamp and correlation id are generated on every invocation.
func (a *Authenticator) Headers(method Method, path string, body []byte) (http.Header, SigningMaterial) {
	a.mu.RLock()
	creds := a.creds
	a.mu.RUnlock()

	material := SigningMaterial{
		Timestamp: a.now().UnixMilli(),
		Method:    method,
		Path:      path,
		Body:      string(body),
	}

	token := AuthToken{
		APIKey:    creds.APIKey,
		Timestamp: material.Timestamp,
		Signature: Sign(creds.APISecret, CanonicalString(material)),
	}

	h := make(http.Header, 5)
	h.Set(HeaderAuthorization, token.String())
	h.Set(HeaderMarket, string(creds.Market))
	h.Set(HeaderRequestID, a.requestID())
	h.Set(HeaderContentType, contentTypeJSON)
	h.Set(HeaderAccept, contentTypeJSON)
	return h, material
}

func (a *Authenticator) validate() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.creds.validate()
}

// validate checks that the credentials can sign anything at all.
func (c Credentials) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("empty api key")
	}
	if c.APISecret == "" {
		return fmt.Errorf("empty api secret")
	}
	if c.Market == "" {
		return fmt.Errorf("empty market")
	}
	return nil
}
