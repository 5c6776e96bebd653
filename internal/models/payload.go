package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPayload is returned when a payload is not valid JSON.
var ErrInvalidPayload = errors.New("response payload is not valid JSON")

// EncodePayload turns an arbitrary JSON value into the compact string kept in
// storage. Key order is preserved. An absent value encodes to "".
func EncodePayload(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return buf.String(), nil
}

// DecodePayload reverses EncodePayload. The empty string decodes to nil.
func DecodePayload(encoded string) (any, error) {
	if encoded == "" {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return value, nil
}
