package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kyma-project/gpu-pricing-collector/env"
	"github.com/kyma-project/gpu-pricing-collector/options"
	"github.com/kyma-project/gpu-pricing-collector/pkg/collector"
	"github.com/kyma-project/gpu-pricing-collector/pkg/config"
	log "github.com/kyma-project/gpu-pricing-collector/pkg/logger"
	gpuotel "github.com/kyma-project/gpu-pricing-collector/pkg/otel"
	"github.com/kyma-project/gpu-pricing-collector/pkg/provider/gcp"
	"github.com/kyma-project/gpu-pricing-collector/pkg/report"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := options.New()

	cmd := &cobra.Command{
		Use:          "gpu-pricing-collector",
		Short:        "Collects GPU instance types and hourly prices of AWS, Azure, GCP, Alibaba and Tencent into one CSV table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Complete(); err != nil {
				return err
			}

			return run(cmd.Context(), opts, afero.NewOsFs(), cmd.OutOrStdout())
		},
	}

	opts.AddFlags(cmd.Flags())

	return cmd
}

func run(ctx context.Context, opts *options.Options, fs afero.Fs, out io.Writer) error {
	runID := uuid.NewString()
	logger := log.NewLogger(opts.LogLevel).With(log.KeyRunID, runID)
	defer func() { _ = logger.Sync() }()

	logger.Infof("Starting application with options: %v", opts.String())

	if opts.Tracing {
		logger.Info("Setting up OTel SDK")

		otelShutdown, err := gpuotel.SetupSDK(ctx, runID)
		if err != nil {
			logger.With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).Fatal("Set up OTel SDK")
		}

		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				logger.Errorf("Failed to shutdown OTel SDK: %v", err)
			}
		}()
	}

	cfg := new(env.Config)
	if err := envconfig.Process("", cfg); err != nil {
		logger.With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).Fatal("Load env config")
	}

	targets, err := config.ResolveTargets(fs, opts.TargetsFile, opts.Targets, options.DefaultTargets)
	if err != nil {
		logger.With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).Fatal("Load targets")
	}

	registry := newRegistry(cfg, fs, logger)
	logger.Debugf("registered providers: %v", registry.Providers())

	if targetsGCP(registry, targets) && cfg.GCPProject == "" {
		logger.With(log.KeyResult, log.ValueFail).With(log.KeyError, gcp.ErrMissingProject.Error()).
			Fatal("GCP is targeted, set GOOGLE_CLOUD_PROJECT")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	table := collector.New(registry, opts.Concurrency, logger).Run(ctx, targets)
	if len(table) == 0 {
		logger.Warn("no data collected")
	}

	report.Sort(table)

	if err := writeTable(fs, opts.Output, table); err != nil {
		logger.With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).Error("Write comparison table")
		return err
	}

	report.Preview(out, table, opts.PreviewRows)
	printSummary(out, fs, opts.Output, len(table), len(targets))

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, prometheus.DefaultGatherer); err != nil {
			logger.With(log.KeyResult, log.ValueFail).With(log.KeyError, err.Error()).Error("Write metrics file")
			return err
		}
	}

	logger.With(log.KeyResult, log.ValueSuccess).With(log.KeyCount, len(table)).Infof("Results saved to %s", opts.Output)

	return nil
}

func writeTable(fs afero.Fs, path string, table collector.Table) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	return report.WriteCSV(f, table)
}

func printSummary(out io.Writer, fs afero.Fs, path string, rows, targets int) {
	size := "unknown size"
	if info, err := fs.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}

	fmt.Fprintf(out, "\nCollected %s GPU instance types from %s targets into %s (%s)\n",
		humanize.Comma(int64(rows)), humanize.Comma(int64(targets)), path, size)
}
