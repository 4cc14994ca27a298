package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/pool"
)

// NewRetireCommand creates the retire command.
func NewRetireCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retire <producer-id>",
		Short: "Flag a producer for removal by the next sweep",
		Long: `Flag a producer as retired. It stays linked and keeps producing until
the next sweep removes it. Retiring a retired producer is a no-op.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetire(cmd.Context(), rootOpts, cmd, args[0])
		},
	}
}

func runRetire(ctx context.Context, opts *RootOptions, cmd *cobra.Command, id string) error {
	out := opts.formatter(cmd)

	err := opts.withPool(ctx, nil, func(ctx context.Context, p *pool.Pool) error {
		return p.Retire(ctx, id)
	})
	if err != nil {
		return fail(out, ExitCommandError, "retire failed", err)
	}

	return out.Success(map[string]string{"id": id}, func(w io.Writer) {
		fmt.Fprintf(w, "retired %s\n", id)
	})
}
