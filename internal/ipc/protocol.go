package ipc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
)

// Request is one decoded input line. RequestID is kept raw and echoed
// back byte for byte.
type Request struct {
	RequestID json.RawMessage   `json:"requestId"`
	Method    string            `json:"method"`
	Args      []json.RawMessage `json:"args"`
}

type resultResponse struct {
	RequestID json.RawMessage `json:"requestId"`
	Result    any             `json:"result"`
}

type errorResponse struct {
	RequestID json.RawMessage `json:"requestId"`
	Error     string          `json:"error"`
}

// Args gives typed positional access to request arguments.
type Args []json.RawMessage

func (a Args) present(i int) bool {
	if i >= len(a) {
		return false
	}
	s := strings.TrimSpace(string(a[i]))
	return s != "" && s != "null"
}

// String returns argument i, which must be a non-empty string.
func (a Args) String(i int, name string) (string, error) {
	if !a.present(i) {
		return "", apperr.Protocol("missing argument %d: %s", i, name)
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return "", apperr.Protocol("argument %d (%s) must be a string", i, name)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Protocol("argument %d (%s) must not be empty", i, name)
	}
	return s, nil
}

// OptString returns argument i or def when it is absent or null.
func (a Args) OptString(i int, name, def string) (string, error) {
	if !a.present(i) {
		return def, nil
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return "", apperr.Protocol("argument %d (%s) must be a string", i, name)
	}
	return strings.TrimSpace(s), nil
}

// OptBool accepts JSON booleans and the strings "true"/"false".
func (a Args) OptBool(i int, name string, def bool) (bool, error) {
	if !a.present(i) {
		return def, nil
	}
	var b bool
	if err := json.Unmarshal(a[i], &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no", "":
			return false, nil
		}
	}
	return false, apperr.Protocol("argument %d (%s) must be a boolean", i, name)
}

// Object returns argument i as a JSON object.
func (a Args) Object(i int, name string) (map[string]any, error) {
	if !a.present(i) {
		return nil, apperr.Protocol("missing argument %d: %s", i, name)
	}
	var m map[string]any
	if err := json.Unmarshal(a[i], &m); err != nil {
		return nil, apperr.Protocol("argument %d (%s) must be an object", i, name)
	}
	return m, nil
}

func encodeResult(id json.RawMessage, result any) []byte {
	b, err := json.Marshal(resultResponse{RequestID: id, Result: result})
	if err != nil {
		return encodeError(id, fmt.Errorf("encode result: %w", err))
	}
	return b
}

func encodeError(id json.RawMessage, err error) []byte {
	b, mErr := json.Marshal(errorResponse{RequestID: id, Error: err.Error()})
	if mErr != nil {
		b, _ = json.Marshal(errorResponse{Error: err.Error()})
	}
	return b
}
