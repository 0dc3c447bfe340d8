package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/02loveslollipop/spaarnelanden-watcher/internal/logging"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/cache"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/config"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/db"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/metrics"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/reporter"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/spaarnelanden"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/status"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:          "watcher",
		Short:        "Report the fill level of one Spaarnelanden waste container",
		Long:         "Polls inzameling.spaarnelanden.nl and prints the status of the container named by CONTAINER_NUMBER.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), once)
		},
	}

	flags := cmd.Flags()
	flags.String("container", "", "registration number of the container to watch (overrides CONTAINER_NUMBER)")
	flags.Int("interval", 0, "minutes between polls (overrides UPDATE_INTERVAL)")
	flags.String("status-addr", "", "listen address for the status server, e.g. :9090 (overrides STATUS_ADDR)")
	flags.String("log-level", "", "zerolog level (overrides LOG_LEVEL)")
	flags.BoolVar(&once, "once", false, "run a single poll cycle and exit")

	return cmd
}

// applyFlags overrides cfg with flags that were set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("container") {
		container, err := flags.GetString("container")
		if err != nil {
			return err
		}
		cfg.ContainerNumber = container
	}
	if flags.Changed("interval") {
		minutes, err := flags.GetInt("interval")
		if err != nil {
			return err
		}
		if minutes <= 0 {
			return fmt.Errorf("--interval must be > 0, got %d", minutes)
		}
		cfg.UpdateInterval = time.Duration(minutes) * time.Minute
	}
	if flags.Changed("status-addr") {
		addr, err := flags.GetString("status-addr")
		if err != nil {
			return err
		}
		cfg.StatusAddr = addr
	}
	if flags.Changed("log-level") {
		level, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	return nil
}

func run(ctx context.Context, cfg config.Config, out io.Writer, once bool) error {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ContainerNumber == "" {
		logger.Warn().Msg("CONTAINER_NUMBER is empty; no container will match")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client := spaarnelanden.NewClient(&http.Client{Timeout: cfg.RequestTimeout}, cfg.SourceURL)
	fetcher := cache.New(client, cfg.ContainerNumber, config.FreshnessWindow,
		cache.WithLogger(logging.Component(logger, "cache")),
		cache.WithMetrics(m),
	)

	state := &reporter.State{}
	opts := []reporter.LoopOption{
		reporter.WithState(state),
		reporter.WithLoopLogger(logging.Component(logger, "poll")),
	}
	if once {
		opts = append(opts, reporter.WithMaxCycles(1))
	}

	if cfg.DatabaseURL != "" {
		archive, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer archive.Close()
		opts = append(opts, reporter.WithArchiver(archive))
		logger.Info().Msg("reading archive enabled")
	}

	if cfg.StatusAddr != "" {
		srv := status.New(cfg.StatusAddr, cfg.ContainerNumber, state, reg)
		go serveStatus(ctx, srv, logging.Component(logger, "status"), cfg.StatusAddr)
	}

	logger.Info().
		Str("container", cfg.ContainerNumber).
		Dur("interval", cfg.UpdateInterval).
		Str("source", cfg.SourceURL).
		Msg("watcher started")

	loop := reporter.NewLoop(fetcher, reporter.New(out, cfg.SensorName(), cfg.Language), cfg.UpdateInterval, opts...)
	return loop.Run(ctx)
}

func serveStatus(ctx context.Context, srv *status.Server, logger zerolog.Logger, addr string) {
	logger.Info().Str("addr", addr).Msg("status server listening")
	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("status server stopped")
	}
}
