package producer

import (
	"fmt"
	"strings"
)

// Spec describes a producer to create. It is the shape accepted by the CLI,
// the HTTP API and scenario files.
type Spec struct {
	Label    string  `json:"label" yaml:"label"`
	Priority int64   `json:"priority" yaml:"priority"`
	Kind     Kind    `json:"kind" yaml:"kind"`
	Start    int64   `json:"start,omitempty" yaml:"start,omitempty"`
	Stop     int64   `json:"stop,omitempty" yaml:"stop,omitempty"`
	Step     *int64  `json:"step,omitempty" yaml:"step,omitempty"`
	Values   []int64 `json:"values,omitempty" yaml:"values,omitempty"`
	Value    int64   `json:"value,omitempty" yaml:"value,omitempty"`
	Times    int64   `json:"times,omitempty" yaml:"times,omitempty"`
}

// Build validates s and returns an unlinked node without an id.
//
// A range with no step counts by 1; an explicit zero step is rejected.
// An empty kind means list.
func (s Spec) Build() (*Node, error) {
	label := strings.TrimSpace(s.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidSpec)
	}

	var (
		src Source
		err error
	)
	switch s.Kind {
	case KindList, "":
		src = NewList(s.Values...)
	case KindRange:
		step := int64(1)
		if s.Step != nil {
			step = *s.Step
		}
		src, err = NewRange(s.Start, s.Stop, step)
	case KindRepeat:
		src, err = NewRepeat(s.Value, s.Times)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &Node{
		Label:    label,
		Priority: s.Priority,
		Source:   src,
	}, nil
}
