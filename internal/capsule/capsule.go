// Package capsule converts a clinical Record to and from its embeddable
// wire form: a marker-prefixed, base64-wrapped JSON envelope that can be
// carried inside a document metadata field without escaping issues.
package capsule

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/homevisit/homevisit/internal/domain/visit"
)

// ErrCapsuleFormat reports input that is not a valid capsule: wrong or
// missing envelope marker, undecodable base64 body, or a body that does not
// parse as a Record. Callers treat it as "no usable record found".
var ErrCapsuleFormat = errors.New("capsule: invalid format")

// marker identifies our envelope and carries the format version. Decode
// checks it before touching the body so foreign metadata is rejected
// cheaply and distinguishably from corrupted payloads.
const marker = "HVR1."

// Encode serializes the Record to JSON and wraps it in the capsule
// envelope. The output is plain ASCII regardless of what Unicode the
// Record fields contain.
func Encode(rec *visit.Record) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("capsule: marshal record: %w", err)
	}
	return marker + base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. Every failure wraps ErrCapsuleFormat; a partially
// populated Record is never returned.
func Decode(s string) (*visit.Record, error) {
	if !strings.HasPrefix(s, marker) {
		return nil, fmt.Errorf("%w: missing envelope marker", ErrCapsuleFormat)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(s, marker))
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64: %v", ErrCapsuleFormat, err)
	}

	// A JSON null would leave the record zero-valued without a decode
	// error, so it is rejected up front.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: body is null", ErrCapsuleFormat)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var rec visit.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: body does not parse as a record: %v", ErrCapsuleFormat, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after record", ErrCapsuleFormat)
	}
	rec.Normalize()
	return &rec, nil
}
