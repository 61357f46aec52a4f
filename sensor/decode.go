package sensor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrDecode matches every *DecodeError via errors.Is
var ErrDecode = errors.New("sensor decode")

// DecodeError describes a message that could not be turned into a Reading
type DecodeError struct {
	Field  string // empty when the payload itself is malformed
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("sensor decode")
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(strconv.Quote(e.Field))
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decoder turns JSON sensor messages into Readings for one schema
// Safe for concurrent use
type Decoder struct {
	schema  Schema
	control int
}

// NewDecoder validates the schema and returns a decoder for it
func NewDecoder(s Schema) (*Decoder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Fields = slices.Clone(s.Fields)
	return &Decoder{
		schema:  s,
		control: slices.Index(s.Fields, s.Control),
	}, nil
}

// Schema returns the decoder's schema
func (d *Decoder) Schema() Schema {
	return d.schema.WithControl(d.schema.Control)
}

// Decode parses a JSON object carrying every schema field
// Seq and At are left zero for the caller to stamp
func (d *Decoder) Decode(raw []byte) (Reading, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Reading{}, &DecodeError{Reason: "malformed payload", Err: err}
	}
	if obj == nil {
		return Reading{}, &DecodeError{Reason: "payload is not an object"}
	}

	var r Reading
	for i, field := range d.schema.Fields {
		v, ok := obj[field]
		if !ok || string(bytes.TrimSpace(v)) == "null" {
			return Reading{}, &DecodeError{Field: field, Reason: "missing required field"}
		}
		f, err := parseNumber(v)
		if err != nil {
			return Reading{}, &DecodeError{Field: field, Reason: "not a number", Err: err}
		}
		r.Values[i] = f
	}
	r.Axes = len(d.schema.Fields)
	r.Control = r.Values[d.control]
	return r, nil
}

// parseNumber accepts JSON numbers and numeric strings, rejecting NaN and infinities
func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("unexpected %s", bytesPreview(raw))
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, err
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}

func bytesPreview(raw []byte) string {
	const limit = 32
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
