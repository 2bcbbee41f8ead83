package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultOutput      = "gpu_pricing_comparison.csv"
	DefaultConcurrency = 1
	DefaultPreviewRows = 5
	DefaultLogLevel    = zapcore.InfoLevel
)

// DefaultTargets are the provider-region pairs collected when neither --target nor --targets-file is given.
var DefaultTargets = []string{
	"AWS=us-west-2",
	"Azure=westus2",
	"GCP=us-west1",
	"Ali=us-west-1",
	"Tencent=na-siliconvalley",
}

type Options struct {
	Targets     []string
	TargetsFile string
	Output      string
	Concurrency int
	PreviewRows int
	MetricsFile string
	Tracing     bool
	LogLevel    zapcore.Level

	logLevelStr string
}

func New() *Options {
	return &Options{LogLevel: DefaultLogLevel}
}

// AddFlags binds the options to the given flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&o.Targets, "target", "t", nil, "A provider=region pair to collect, e.g. AWS=us-west-2. Can be repeated")
	fs.StringVar(&o.TargetsFile, "targets-file", "", "A YAML or JSON file listing the provider-region pairs to collect")
	fs.StringVarP(&o.Output, "output", "o", DefaultOutput, "The CSV file the comparison table is written to")
	fs.IntVar(&o.Concurrency, "concurrency", DefaultConcurrency, "The number of provider-region pairs collected in parallel")
	fs.IntVar(&o.PreviewRows, "preview", DefaultPreviewRows, "The number of rows printed to stdout after the run, 0 disables the preview")
	fs.StringVar(&o.MetricsFile, "metrics-file", "", "If set, the run metrics are written to this file in the Prometheus text format")
	fs.BoolVar(&o.Tracing, "tracing", false, "Export traces through the OTLP gRPC exporter")
	fs.StringVar(&o.logLevelStr, "log-level", DefaultLogLevel.String(), "The log-level of the application. E.g. fatal, error, info, debug etc")
}

// Complete validates the parsed flags and resolves derived values.
func (o *Options) Complete() error {
	if err := o.LogLevel.Set(o.logLevelStr); err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", o.logLevelStr, err)
	}

	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", o.Concurrency)
	}

	if o.Output == "" {
		return fmt.Errorf("output file must not be empty")
	}

	return nil
}

func (o *Options) String() string {
	return fmt.Sprintf("--target=%s --targets-file=%s --output=%s --concurrency=%d --preview=%d --metrics-file=%s --tracing=%t --log-level=%s",
		strings.Join(o.Targets, ","), o.TargetsFile, o.Output, o.Concurrency, o.PreviewRows, o.MetricsFile, o.Tracing, o.LogLevel)
}
