// Package share turns a simulation state into a URL-safe token and back.
//
// A token is the state's JSON in unpadded base64url. Decode validates the
// payload against the reflected schema and the model's own range checks
// before returning it; on any failure it returns the zero State and an error
// wrapping one of the sentinels below.
package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"onepersonleft.ai/internal/sim/model"
)

// MaxTokenLen bounds the token size Decode will look at.
const MaxTokenLen = 4 << 20

var (
	ErrEmptyToken     = errors.New("share: empty token")
	ErrMalformedToken = errors.New("share: malformed token")
	ErrInvalidPayload = errors.New("share: invalid payload")
	ErrSchemaMismatch = errors.New("share: schema mismatch")
)

// Encode fails only when the state holds a value JSON cannot carry, such as
// NaN or an infinity.
func Encode(s model.State) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("share: encode: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Decode accepts tokens with or without trailing '=' padding.
func Decode(token string) (model.State, error) {
	token = strings.TrimRight(strings.TrimSpace(token), "=")
	if token == "" {
		return model.State{}, ErrEmptyToken
	}
	if len(token) > MaxTokenLen {
		return model.State{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrMalformedToken, len(token), MaxTokenLen)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	doc, err := parseDocument(raw)
	if err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	sch, err := stateSchema()
	if err != nil {
		return model.State{}, fmt.Errorf("share: schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	var s model.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := s.Validate(); err != nil {
		return model.State{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if s.Events == nil {
		s.Events = []model.GameEvent{}
	}
	if s.Company.Agents == nil {
		s.Company.Agents = []model.Agent{}
	}
	return s, nil
}

// parseDocument decodes exactly one JSON value, keeping numbers exact for
// the schema's integer checks.
func parseDocument(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return doc, nil
}
