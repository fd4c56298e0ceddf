// Command wgetter fetches a list of URLs under three scheduling strategies
// and reports how long each took along with the total body length.
//
//	wgetter https://example.com/ https://example.org/
//	wgetter --pool ants --warm -f urls.yaml
//	wgetter serve --addr :8080
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.com/slon/wgetter/fetch"
	"gitlab.com/slon/wgetter/fixture"
	"gitlab.com/slon/wgetter/harness"
	"gitlab.com/slon/wgetter/metrics"
	"gitlab.com/slon/wgetter/report"
	"gitlab.com/slon/wgetter/strategy"
	"gitlab.com/slon/wgetter/urllist"
	"gitlab.com/slon/wgetter/workpool"
)

type loggerFactory func(verbose bool) (*zap.Logger, error)

type options struct {
	file       string
	pool       string
	workers    int
	warm       bool
	metricsOut string
	xlsx       string
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.file, "file", "f", "", "YAML file with a list of URLs (urls: [...])")
	fs.StringVar(&o.pool, "pool", string(workpool.Pond), fmt.Sprintf("worker pool implementation, one of %v", workpool.Kinds))
	fs.IntVar(&o.workers, "workers", 0, "worker pool size, 0 for one worker per URL")
	fs.BoolVar(&o.warm, "warm", false, "run an untimed pass through the worker pool first")
	fs.StringVar(&o.metricsOut, "metrics-out", "", "write Prometheus metrics to this file")
	fs.StringVar(&o.xlsx, "xlsx", "", "write measurements to this spreadsheet")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, newLogger).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func newRootCmd(out io.Writer, buildLogger loggerFactory) *cobra.Command {
	var (
		opts    options
		verbose bool
	)

	cmd := &cobra.Command{
		Use:          "wgetter [flags] URL...",
		Short:        "Compare sequential, worker pool and cooperative fetching",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return run(cmd.Context(), out, logger, opts, args)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	opts.register(cmd.Flags())

	cmd.AddCommand(newServeCmd(&verbose, buildLogger))
	return cmd
}

func run(ctx context.Context, out io.Writer, logger *zap.Logger, opts options, args []string) error {
	runID, err := uuid.NewV4()
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID.String()))

	kind, err := workpool.ParseKind(opts.pool)
	if err != nil {
		return err
	}

	var inputs []string
	if opts.file != "" {
		fromFile, err := urllist.Load(opts.file)
		if err != nil {
			return err
		}
		inputs = append(inputs, fromFile...)
	}
	inputs = append(inputs, args...)
	urls := urllist.Build(inputs)

	size := opts.workers
	if size <= 0 {
		size = max(len(urls), 1)
	}
	pool, err := workpool.New(kind, size)
	if err != nil {
		return err
	}
	defer pool.StopAndWait()

	logger.Info("starting run",
		zap.Int("urls", len(urls)),
		zap.String("pool", string(kind)),
		zap.Int("workers", size),
	)

	fetcher := fetch.NewHTTP(logger)

	if opts.warm {
		warmUp := strategy.Strategy{Name: "warm-up", Combine: strategy.Pooled(pool)}
		if _, err := warmUp.Run(ctx, urls, fetcher); err != nil {
			logger.Warn("warm-up failed", zap.Error(err))
		}
	}

	clock := clockwork.NewRealClock()
	collector := metrics.New(clock)
	timer := harness.NewTimer(clock, out, logger)

	var (
		errs         error
		measurements []harness.Measurement
	)
	for _, s := range strategy.Standard(pool) {
		f := collector.Instrument(fetcher, s.Name)
		m := timer.Time(s.Name, func() (int, error) {
			return s.Run(ctx, urls, f)
		})

		collector.Observe(m)
		measurements = append(measurements, m)
		if m.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name, m.Err))
		}
	}

	if opts.metricsOut != "" {
		if err := collector.WriteTextfile(opts.metricsOut); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if opts.xlsx != "" {
		errs = multierr.Append(errs, report.WriteXLSX(opts.xlsx, measurements))
	}

	return errs
}

func newServeCmd(verbose *bool, buildLogger loggerFactory) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve deterministic fixture bodies (/bytes/{n}, /empty, /status/{code})",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(*verbose)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			return serve(cmd.Context(), addr, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func serve(ctx context.Context, addr string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           fixture.New(logger).Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		logger.Info("shutting down fixture server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("fixture server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("serving fixtures", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("fixture server: %w", err)
	}
	return nil
}
