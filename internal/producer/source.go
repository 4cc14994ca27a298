package producer

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind names a source implementation.
type Kind string

const (
	KindRange  Kind = "range"
	KindList   Kind = "list"
	KindRepeat Kind = "repeat"
)

var (
	// ErrUnknownKind is returned when decoding or building an unregistered kind.
	ErrUnknownKind = errors.New("unknown producer kind")

	// ErrInvalidSpec is returned when producer parameters are unusable.
	ErrInvalidSpec = errors.New("invalid producer spec")
)

// Source is the production logic behind a Node.
type Source interface {
	Kind() Kind

	// Next returns the next value, or false when the source is exhausted.
	Next() (int64, bool)

	// State returns every field needed to rebuild the source, including its
	// cursor. Values must be canonical-JSON encodable.
	State() map[string]any
}

// RangeSource yields Start, Start+Step, ... while short of Stop.
type RangeSource struct {
	Start int64 `json:"start"`
	Stop  int64 `json:"stop"`
	Step  int64 `json:"step"`
	Cur   int64 `json:"cur"`
}

// NewRange creates a range source. Step must not be zero.
func NewRange(start, stop, step int64) (*RangeSource, error) {
	if step == 0 {
		return nil, fmt.Errorf("%w: range step must not be zero", ErrInvalidSpec)
	}
	return &RangeSource{Start: start, Stop: stop, Step: step, Cur: start}, nil
}

func (s *RangeSource) Kind() Kind { return KindRange }

func (s *RangeSource) Next() (int64, bool) {
	// Distances are unsigned so a range spanning the whole int64 domain
	// cannot overflow.
	var left, stride uint64
	switch {
	case s.Step > 0 && s.Cur < s.Stop:
		left, stride = uint64(s.Stop-s.Cur), uint64(s.Step)
	case s.Step < 0 && s.Cur > s.Stop:
		left, stride = uint64(s.Cur-s.Stop), uint64(-s.Step)
	default:
		return 0, false
	}
	v := s.Cur
	if stride >= left {
		s.Cur = s.Stop
	} else {
		s.Cur += s.Step
	}
	return v, true
}

func (s *RangeSource) State() map[string]any {
	return map[string]any{"start": s.Start, "stop": s.Stop, "step": s.Step, "cur": s.Cur}
}

// ListSource yields Values in order.
type ListSource struct {
	Values []int64 `json:"values"`
	Pos    int64   `json:"pos"`
}

// NewList creates a list source.
func NewList(values ...int64) *ListSource {
	return &ListSource{Values: append([]int64{}, values...)}
}

func (s *ListSource) Kind() Kind { return KindList }

func (s *ListSource) Next() (int64, bool) {
	if s.Pos >= int64(len(s.Values)) {
		return 0, false
	}
	v := s.Values[s.Pos]
	s.Pos++
	return v, true
}

func (s *ListSource) State() map[string]any {
	return map[string]any{"values": s.Values, "pos": s.Pos}
}

// RepeatSource yields Value Times times.
type RepeatSource struct {
	Value int64 `json:"value"`
	Times int64 `json:"times"`
	Count int64 `json:"count"`
}

// NewRepeat creates a repeat source. Times must not be negative.
func NewRepeat(value, times int64) (*RepeatSource, error) {
	if times < 0 {
		return nil, fmt.Errorf("%w: repeat times must not be negative", ErrInvalidSpec)
	}
	return &RepeatSource{Value: value, Times: times}, nil
}

func (s *RepeatSource) Kind() Kind { return KindRepeat }

func (s *RepeatSource) Next() (int64, bool) {
	if s.Count >= s.Times {
		return 0, false
	}
	s.Count++
	return s.Value, true
}

func (s *RepeatSource) State() map[string]any {
	return map[string]any{"value": s.Value, "times": s.Times, "count": s.Count}
}

// decoders rebuilds sources from persisted state, keyed by kind.
var decoders = map[Kind]func([]byte) (Source, error){
	KindRange: func(b []byte) (Source, error) {
		var s RangeSource
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, err
		}
		if s.Step == 0 {
			return nil, fmt.Errorf("%w: range step must not be zero", ErrInvalidSpec)
		}
		return &s, nil
	},
	KindList: func(b []byte) (Source, error) {
		var s ListSource
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, err
		}
		if s.Pos < 0 || s.Pos > int64(len(s.Values)) {
			return nil, fmt.Errorf("%w: list position %d outside 0..%d", ErrInvalidSpec, s.Pos, len(s.Values))
		}
		return &s, nil
	},
	KindRepeat: func(b []byte) (Source, error) {
		var s RepeatSource
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, err
		}
		if s.Times < 0 || s.Count < 0 {
			return nil, fmt.Errorf("%w: repeat times %d, count %d", ErrInvalidSpec, s.Times, s.Count)
		}
		return &s, nil
	},
}

// DecodeSource rebuilds a source of the given kind from its persisted state.
func DecodeSource(kind Kind, state []byte) (Source, error) {
	dec, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	src, err := dec(state)
	if err != nil {
		return nil, fmt.Errorf("decode %s state: %w", kind, err)
	}
	return src, nil
}
