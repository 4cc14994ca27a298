package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/genlist/internal/httpapi"
	"github.com/roach88/genlist/internal/pool"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string

	// ready, when set, receives the bound address once the listener is up.
	ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the list over HTTP",
		Long: `Run the pool loop and an HTTP API over it until interrupted.

Endpoints:
  GET  /healthz
  GET  /producers              list head to tail
  POST /producers              add a producer (JSON body)
  POST /producers/{id}/retire  flag a producer
  POST /next                   pull a value (?step=1 for a single step)
  POST /sweep                  remove rejected producers
  GET  /events                 operation log
  GET  /metrics                Prometheus metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "address to listen on (default 127.0.0.1:8080)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	addr := opts.cfg.Listen
	if opts.Listen != "" {
		addr = opts.Listen
	}
	log := opts.log()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	defer lis.Close()

	err = opts.withPool(ctx, pool.NewMetrics(reg), func(ctx context.Context, p *pool.Pool) error {
		srv := &http.Server{
			Handler:           httpapi.NewMux(p, httpapi.Options{Registry: reg, Logger: log}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("http server listening", "addr", lis.Addr().String())
			if opts.ready != nil {
				opts.ready <- lis.Addr().String()
			}
			if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("http server shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		return g.Wait()
	})
	// Interrupted: a clean stop.
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
