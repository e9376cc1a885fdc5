package lalamove

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// SigningMaterial is the input of one request signature.
// It only lives for the duration of a single call.
type SigningMaterial struct {
	Timestamp int64 // milliseconds since epoch, sampled at send time
	Method    Method
	Path      string
	Body      string // exact transmitted body, "" when none
}

// CanonicalString renders the string the API expects to be signed:
//
//	{timestamp}\r\n{METHOD}\r\n{path}\r\n\r\n{body}
func CanonicalString(m SigningMaterial) string {
	var b strings.Builder
	b.Grow(len(m.Path) + len(m.Body) + 32)
	b.WriteString(strconv.FormatInt(m.Timestamp, 10))
	b.WriteString("\r\n")
	b.WriteString(string(m.Method))
	b.WriteString("\r\n")
	b.WriteString(m.Path)
	b.WriteString("\r\n\r\n")
	b.WriteString(m.Body)
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA256 of canonical under secret.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthToken is the value carried by the Authorization header.
type AuthToken struct {
	APIKey    string
	Timestamp int64
	Signature string
}

// String renders the token as "hmac {key}:{timestamp}:{signature}".
func (t AuthToken) String() string {
	return "hmac " + t.APIKey + ":" + strconv.FormatInt(t.Timestamp, 10) + ":" + t.Signature
}
