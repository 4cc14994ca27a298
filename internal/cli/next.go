package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/pool"
)

// NextOptions holds flags for the next command.
type NextOptions struct {
	*RootOptions
	Count  int
	Single bool
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NextOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Pull values from the best producer",
		Long: `Pull the next value from the head of the list, evicting exhausted
producers on the way.

With --step, take exactly one step: an exhausted head is evicted and
no value is returned.

Exits 1 when the list runs empty before --count values were produced.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of values to pull")
	cmd.Flags().BoolVar(&opts.Single, "step", false, "take a single step instead of pulling")

	return cmd
}

// NextResult is the next command's output.
type NextResult struct {
	Steps  []pool.Step `json:"steps"`
	Values []int64     `json:"values"`
	Empty  bool        `json:"empty"`
}

func runNext(ctx context.Context, opts *NextOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	if opts.Count < 1 {
		return fail(out, ExitCommandError, "invalid count", fmt.Errorf("--count must be positive, got %d", opts.Count))
	}

	res := NextResult{Steps: []pool.Step{}, Values: []int64{}}
	err := opts.withPool(ctx, nil, func(ctx context.Context, p *pool.Pool) error {
		for range opts.Count {
			var (
				step pool.Step
				err  error
			)
			if opts.Single {
				step, err = p.Next(ctx)
			} else {
				step, err = p.Pull(ctx)
			}
			if err != nil {
				return err
			}
			res.Steps = append(res.Steps, step)
			switch step.Outcome {
			case genlist.Produced:
				res.Values = append(res.Values, step.Value)
			case genlist.Empty:
				res.Empty = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return fail(out, ExitCommandError, "next failed", err)
	}

	if err := out.Success(res, func(w io.Writer) { writeSteps(w, res.Steps) }); err != nil {
		return err
	}
	if res.Empty && len(res.Values) < opts.Count && !opts.Single {
		return NewExitError(ExitFailure, "list is empty")
	}
	return nil
}

func writeSteps(w io.Writer, steps []pool.Step) {
	for _, s := range steps {
		for _, id := range s.Evicted {
			fmt.Fprintf(w, "evicted %s\n", id)
		}
		switch s.Outcome {
		case genlist.Produced:
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.Value, s.Label, s.ProducerID)
		case genlist.Empty:
			fmt.Fprintln(w, "(empty)")
		}
	}
}
