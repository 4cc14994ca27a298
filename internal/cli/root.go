// Package cli implements the genlist command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/genlist/internal/config"
	"github.com/roach88/genlist/internal/genlist"
	"github.com/roach88/genlist/internal/policy"
	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/producer"
	"github.com/roach88/genlist/internal/store"
)

// RootOptions holds global flags and the settings resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string
	ConfigPath string
	Database   string
	PolicyPath string
	Debug      bool

	// Resolved in PersistentPreRunE.
	cfg    config.Config
	logger *slog.Logger
}

// ValidFormats are the supported output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the genlist CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "genlist",
		Short: "Durable priority list of value producers",
		Long: `genlist keeps an ordered, persisted list of producers and pulls values
from the best one. Exhausted producers are evicted as they are reached;
producers matching the retirement policy are removed by sweep.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (.yaml, .json or .toml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default genlist.db)")
	cmd.PersistentFlags().StringVar(&opts.PolicyPath, "policy", "", "CUE policy file (default: priority order)")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "check list invariants after every mutation")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewNextCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewRetireCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// resolve validates flags, loads the config file and applies flag
// overrides on top of it.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	valid := false
	for _, f := range ValidFormats {
		if o.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	var cfg config.Config
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	if flags.Changed("policy") {
		cfg.Policy = o.PolicyPath
	}
	if flags.Changed("debug") {
		cfg.Debug = o.Debug
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	o.cfg = cfg.WithDefaults()

	level, err := config.ParseLevel(o.cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

func (o *RootOptions) loadPolicy() (*policy.Policy, error) {
	if o.cfg.Policy == "" {
		return policy.Default(), nil
	}
	return policy.Load(o.cfg.Policy)
}

// withPool opens the store and policy, resumes the persisted list and runs
// fn while the pool loop is live. metrics may be nil.
func (o *RootOptions) withPool(ctx context.Context, metrics *pool.Metrics, fn func(ctx context.Context, p *pool.Pool) error) error {
	st, err := store.Open(o.cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	pol, err := o.loadPolicy()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load policy", err)
	}

	opts := []pool.Option{
		pool.WithLogger(o.log()),
		pool.WithDebug(o.cfg.Debug),
	}
	if metrics != nil {
		opts = append(opts, pool.WithMetrics(metrics))
	}
	p, err := pool.New(st, pol, opts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create pool", err)
	}

	return p.Within(ctx, func(ctx context.Context) error {
		if err := p.Resume(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to resume list", err)
		}
		return fn(ctx, p)
	})
}

// errorCode maps a domain error to its JSON error code.
func errorCode(err error) string {
	var policyErr *policy.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, producer.ErrInvalidSpec), errors.Is(err, producer.ErrUnknownKind),
		errors.As(err, &policyErr):
		return ErrCodeInvalid
	case genlist.IsInvariantError(err), errors.Is(err, store.ErrMultipleHeads), errors.Is(err, pool.ErrOrphaned):
		return ErrCodeInvariant
	default:
		return ErrCodeGeneric
	}
}

// fail reports err on the formatter in JSON mode and returns it with an
// exit code. Text mode leaves printing to main.
func fail(f *OutputFormatter, code int, message string, err error) error {
	if f.JSON() {
		_ = f.Error(errorCode(err), fmt.Sprintf("%s: %v", message, err), nil)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(code, message, err)
}
