package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/pool"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Show the producers from head to tail",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	var views []pool.NodeView
	err := opts.withPool(ctx, nil, func(ctx context.Context, p *pool.Pool) error {
		var err error
		views, err = p.Snapshot(ctx)
		return err
	})
	if err != nil {
		return fail(out, ExitCommandError, "list failed", err)
	}

	return out.Success(views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "(empty)")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tPRIORITY\tKIND\tEMITTED\tSTATE")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n", v.ID, v.Label, v.Priority, v.Kind, v.Emitted, nodeState(v))
		}
		tw.Flush()
	})
}

func nodeState(v pool.NodeView) string {
	switch {
	case v.Retired:
		return "retired"
	case v.Done:
		return "done"
	default:
		return "live"
	}
}
