package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/store"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the persisted list",
		Long: `Walk the persisted list and verify that it is sorted under the policy,
has no cycle, and that every stored producer is reachable from the head.

Exits 1 when a check fails.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), rootOpts, cmd)
		},
	}
}

// CheckResult is the check command's output.
type CheckResult struct {
	OK        bool  `json:"ok"`
	Producers int   `json:"producers"`
	Seq       int64 `json:"seq"`
}

func runCheck(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	var res CheckResult
	var checkErr error
	err := opts.withPool(ctx, nil, func(ctx context.Context, p *pool.Pool) error {
		checkErr = p.Check(ctx)
		var err error
		res.Producers, err = p.Len(ctx)
		res.Seq = p.Seq()
		return err
	})
	if errors.Is(err, store.ErrMultipleHeads) {
		checkErr, err = err, nil
	}
	if err != nil {
		return fail(out, ExitCommandError, "check failed", err)
	}
	if checkErr != nil {
		if out.JSON() {
			_ = out.Error(errorCode(checkErr), checkErr.Error(), nil)
		}
		return WrapExitError(ExitFailure, "list is inconsistent", checkErr)
	}

	res.OK = true
	return out.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "ok: %d producers, seq %d\n", res.Producers, res.Seq)
	})
}
