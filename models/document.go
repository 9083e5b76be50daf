package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Parcels, riders and payments are documents: a typed core plus whatever
// attributes the client submitted. The extra attributes live in a Details map
// that is flattened to top-level keys on the wire.

func marshalFlat(core any, details map[string]any) ([]byte, error) {
	b, err := json.Marshal(core)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return b, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	for k, v := range details {
		if _, taken := out[k]; !taken {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func unmarshalFlat(data []byte, core any, known map[string]bool) (map[string]any, error) {
	if err := json.Unmarshal(data, core); err != nil {
		return nil, err
	}
	all := map[string]any{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var details map[string]any
	for k, v := range all {
		if known[k] {
			continue
		}
		if details == nil {
			details = map[string]any{}
		}
		details[k] = v
	}
	return details, nil
}

func parseTimeField(key string, v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
}

func stringField(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

// ValidationError is returned when a client-supplied field set cannot be stored
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(err error) error {
	return &ValidationError{Msg: err.Error()}
}
