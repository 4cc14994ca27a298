package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/policy"
	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/store"
	"github.com/roach88/genlist/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with the list's debug
// assertions on. A step that fails is an error; failed assertions are
// reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	pol := policy.Default()
	if scenario.Policy != "" {
		var err error
		if pol, err = policy.Parse(scenario.Name+".policy.cue", []byte(scenario.Policy)); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	p, err := pool.New(st, pol,
		pool.WithClock(testutil.NewDeterministicClock()),
		pool.WithIDs(testutil.NewSequentialIDs("p")),
		pool.WithLogger(slog.New(slog.DiscardHandler)),
		pool.WithDebug(true),
	)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	err = p.Within(ctx, func(ctx context.Context) error {
		for i, step := range scenario.Steps {
			if err := execute(ctx, p, step, result); err != nil {
				return fmt.Errorf("steps[%d] %s: %w", i, step.Op(), err)
			}
		}

		views, err := p.Snapshot(ctx)
		if err != nil {
			return err
		}
		for _, v := range views {
			result.Order = append(result.Order, v.Label)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Trace, err = st.ReadEvents(ctx, store.EventFilter{}); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step. Values produced along the way are appended to
// result.Values.
func execute(ctx context.Context, p *pool.Pool, step Step, result *Result) error {
	switch {
	case step.Add != nil:
		_, err := p.Add(ctx, *step.Add)
		return err

	case step.Next > 0:
		for range step.Next {
			s, err := p.Next(ctx)
			if err != nil {
				return err
			}
			if s.Outcome == genlist.Produced {
				result.Values = append(result.Values, s.Value)
			}
		}
		return nil

	case step.Pull > 0:
		for range step.Pull {
			s, err := p.Pull(ctx)
			if err != nil {
				return err
			}
			if s.Outcome == genlist.Produced {
				result.Values = append(result.Values, s.Value)
			}
		}
		return nil

	case step.Retire != "":
		return p.Retire(ctx, step.Retire)

	case step.Sweep:
		_, err := p.Sweep(ctx)
		return err

	default:
		return fmt.Errorf("empty step")
	}
}
