package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/producer"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Spec producer.Spec
	Kind string
	Step int64
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add --label <label> [flags]",
		Short: "Insert a producer into the list",
		Long: `Insert a producer at its ordered position.

Kinds:
  list    yields --values in order
  range   yields --start up to --stop (exclusive) by --step
  repeat  yields --value --times times

Examples:
  genlist add --label jobs --priority 5 --values 1,2,3
  genlist add --label ticks --kind range --start 0 --stop 10 --step 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Spec.Label, "label", "", "producer label (required)")
	_ = cmd.MarkFlagRequired("label")
	f.Int64Var(&opts.Spec.Priority, "priority", 0, "higher runs first under priority order")
	f.StringVar(&opts.Kind, "kind", string(producer.KindList), "producer kind (list|range|repeat)")
	f.Int64SliceVar(&opts.Spec.Values, "values", nil, "values for a list producer")
	f.Int64Var(&opts.Spec.Start, "start", 0, "first value of a range")
	f.Int64Var(&opts.Spec.Stop, "stop", 0, "end of a range (exclusive)")
	f.Int64Var(&opts.Step, "step", 1, "range increment (non-zero)")
	f.Int64Var(&opts.Spec.Value, "value", 0, "value of a repeat producer")
	f.Int64Var(&opts.Spec.Times, "times", 0, "repeat count")

	return cmd
}

// AddResult is the add command's output.
type AddResult struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

func runAdd(ctx context.Context, opts *AddOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	opts.Spec.Kind = producer.Kind(opts.Kind)
	if opts.Spec.Kind == producer.KindRange {
		opts.Spec.Step = &opts.Step
	}

	if _, err := opts.Spec.Build(); err != nil {
		return fail(out, ExitCommandError, "invalid producer", err)
	}

	var res AddResult
	err := opts.withPool(ctx, nil, func(ctx context.Context, p *pool.Pool) error {
		id, err := p.Add(ctx, opts.Spec)
		if err != nil {
			return err
		}
		n, err := p.Len(ctx)
		if err != nil {
			return err
		}
		res = AddResult{ID: id, Label: opts.Spec.Label, Count: n}
		return nil
	})
	if err != nil {
		return fail(out, ExitCommandError, "add failed", err)
	}

	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "added %s (%s), %d in list\n", res.ID, res.Label, res.Count)
	})
}
