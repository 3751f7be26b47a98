package wire

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	berr "github.com/next-trace/scg-event-hub/contract/errors"
)

// Encode serializes a published message or call result into its wire representation.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, errors.Join(berr.ErrSerializationFailed, err))
	}

	return b, nil
}
