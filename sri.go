package tfd

import (
	"reflect"
	"slices"
)

// Keyword is a named metadata value attached to a stream.
type Keyword struct {
	ID    string
	Value any
}

// StreamSRI describes an output stream: sample spacing, complexity and
// keywords.
type StreamSRI struct {
	StreamID string
	XDelta   float64 // Seconds between samples
	Complex  bool
	Keywords []Keyword
}

// SampleRate returns 1/XDelta, or 0 when XDelta is unset.
func (s StreamSRI) SampleRate() float64 {
	if s.XDelta == 0 {
		return 0
	}
	return 1 / s.XDelta
}

// Keyword returns the value of keyword id.
func (s StreamSRI) Keyword(id string) (any, bool) {
	return findKeyword(s.Keywords, id)
}

// Float returns keyword id as a float64 when it holds a number.
func (s StreamSRI) Float(id string) (float64, bool) {
	v, ok := findKeyword(s.Keywords, id)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Clone returns a copy that shares no keyword storage with s.
func (s StreamSRI) Clone() StreamSRI {
	s.Keywords = slices.Clone(s.Keywords)
	return s
}

func (s StreamSRI) equal(o StreamSRI) bool {
	return s.StreamID == o.StreamID &&
		s.XDelta == o.XDelta &&
		s.Complex == o.Complex &&
		reflect.DeepEqual(s.Keywords, o.Keywords)
}

func findKeyword(kws []Keyword, id string) (any, bool) {
	for _, kw := range kws {
		if kw.ID == id {
			return kw.Value, true
		}
	}
	return nil, false
}

// setKeyword replaces id in place or appends it, keeping the order of the others.
func setKeyword(kws []Keyword, id string, v any) []Keyword {
	for i := range kws {
		if kws[i].ID == id {
			kws[i].Value = v
			return kws
		}
	}
	return append(kws, Keyword{ID: id, Value: v})
}

func removeKeyword(kws []Keyword, id string) []Keyword {
	return slices.DeleteFunc(kws, func(kw Keyword) bool { return kw.ID == id })
}

// toFloat converts any Go numeric type to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// inputRF picks the input RF from a packet's keywords. CHAN_RF takes
// precedence over COL_RF; both reports whether both were present.
func inputRF(kws []Keyword) (rf float64, found, both bool) {
	colV, hasCol := findKeyword(kws, KeywordColRF)
	chanV, hasChan := findKeyword(kws, KeywordChanRF)

	col, colOK := toFloat(colV)
	ch, chanOK := toFloat(chanV)
	hasCol = hasCol && colOK
	hasChan = hasChan && chanOK

	switch {
	case hasChan:
		return ch, true, hasCol
	case hasCol:
		return col, true, false
	default:
		return 0, false, false
	}
}
