package wire

import (
	json "github.com/goccy/go-json"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

// ErrorBody is the error member of a response.
type ErrorBody struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Response answers a call frame, or reports a rejected request.
// Exactly one of Error and Result is present on the wire.
type Response struct {
	ID     string          `json:"id,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// EncodeResult builds the success response for call id.
// A result that cannot be encoded turns into an error response.
func EncodeResult(id string, result any) []byte {
	raw, err := Encode(result)
	if err != nil {
		return EncodeError(id, err)
	}

	b, err := json.Marshal(Response{ID: id, Result: raw})
	if err != nil {
		return EncodeError(id, err)
	}

	return b
}

// EncodeError builds the failure response for request id.
func EncodeError(id string, err error) []byte {
	body := &ErrorBody{Code: berr.CodeOf(err), Message: err.Error()}

	b, mErr := json.Marshal(Response{ID: id, Error: body})
	if mErr != nil {
		// ErrorBody holds only strings.
		return []byte(`{"error":{"code":"` + berr.ErrCodeSerializationFailed + `","message":"response encoding failed"}}`)
	}

	return b
}

// EncodeOutcome builds the response for a settled call.
func EncodeOutcome(id string, result any, err error) []byte {
	if err != nil {
		return EncodeError(id, err)
	}

	return EncodeResult(id, result)
}
