package lalamove

import (
	"bytes"
	"encoding/json"
)

var emptyObject = json.RawMessage(`{}`)

// dataEnvelope wraps v3 request bodies as {"data": ...}.
type dataEnvelope struct {
	Data any `json:"data"`
}

// unwrapEnvelope returns the business payload of a successful response:
// the value under "data" when present, the raw object otherwise, and {}
// when the body is empty, null or not JSON.
func unwrapEnvelope(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		return emptyObject
	}

	if bytes.Equal(body, []byte("null")) {
		return emptyObject
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		// valid JSON but not an object, e.g. a bare array
		return json.RawMessage(body)
	}
	if data, ok := envelope["data"]; ok {
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return emptyObject
		}
		return data
	}
	return json.RawMessage(body)
}

// parseErrorDetail extracts a best-effort detail object from an error body.
// Anything that is not a JSON object yields an empty map.
func parseErrorDetail(body []byte) map[string]any {
	detail := map[string]any{}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return detail
	}
	if err := json.Unmarshal(body, &detail); err != nil || detail == nil {
		return map[string]any{}
	}
	return detail
}
