package lalamove

import (
	"strings"
	"time"
)

// ScheduleAtLayout is the UTC timestamp layout the API accepts.
const ScheduleAtLayout = "2006-01-02T15:04:05.00Z"

// FormatScheduleAt renders t in UTC using ScheduleAtLayout.
func FormatScheduleAt(t time.Time) string {
	return t.UTC().Format(ScheduleAtLayout)
}

// Remark is one keyed note attached to a stop.
type Remark struct {
	Key   string
	Value string
}

// JoinRemarks flattens remarks into "key: value" lines joined by CRLF,
// keeping slice order.
func JoinRemarks(remarks []Remark) string {
	if len(remarks) == 0 {
		return ""
	}
	lines := make([]string, len(remarks))
	for i, r := range remarks {
		lines[i] = r.Key + ": " + r.Value
	}
	return strings.Join(lines, "\r\n")
}

// FilterSpecialRequests keeps the requests allowed for st in city, in the
// caller's order and without duplicates. Unknown entries are dropped.
func FilterSpecialRequests(m Market, city City, st ServiceType, requested []SpecialRequest) []SpecialRequest {
	allowed := catalog[m].cities[city][st]
	if len(allowed) == 0 || len(requested) == 0 {
		return []SpecialRequest{}
	}

	allow := make(map[SpecialRequest]struct{}, len(allowed))
	for _, r := range allowed {
		allow[r] = struct{}{}
	}

	out := make([]SpecialRequest, 0, len(requested))
	for _, r := range requested {
		if _, ok := allow[r]; !ok {
			continue
		}
		out = append(out, r)
		delete(allow, r)
	}
	return out
}
