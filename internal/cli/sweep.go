package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/pool"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove producers the policy rejects",
		Long: `Walk the list once and remove every producer matched by the policy's
retire rules, plus every producer flagged with "genlist retire".
Survivors keep their order.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), rootOpts, cmd)
		},
	}
}

// SweepResult is the sweep command's output.
type SweepResult struct {
	Removed   []string `json:"removed"`
	Remaining int      `json:"remaining"`
}

func runSweep(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	res := SweepResult{Removed: []string{}}
	err := opts.withPool(ctx, nil, func(ctx context.Context, p *pool.Pool) error {
		ids, err := p.Sweep(ctx)
		res.Removed = append(res.Removed, ids...)
		if err != nil {
			return err
		}
		res.Remaining, err = p.Len(ctx)
		return err
	})
	if err != nil {
		return fail(out, ExitCommandError, "sweep failed", err)
	}

	return out.Success(res, func(w io.Writer) {
		for _, id := range res.Removed {
			fmt.Fprintf(w, "removed %s\n", id)
		}
		fmt.Fprintf(w, "%d removed, %d remaining\n", len(res.Removed), res.Remaining)
	})
}
