// package main ...
package main

// import ...
import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"paepcke.de/netagg"
	"paepcke.de/netagg/prefix"
)

// const shortcuts
const (
	_APPNAME = "netagg"
	_EXAMPLE = `  netagg -o /etc/pf.drop -f pf --table drop drop.txt.zst https://example.org/list.txt
  curl -s https://example.org/list.txt | netagg -4 -m 24
  netagg -d 16,32 -t < prefixes.txt`
	_ENVVARS = `env vars:
  NETAGG_OUTFILE        output file, default stdout
  NETAGG_FORMAT         plain or pf
  NETAGG_TABLE          pf table name prefix
  NETAGG_MAX_DEPTH      shortest prefix length aggregation may produce [n|v4,v6]
  NETAGG_MAX_PREFIXLEN  drop input prefixes longer than this [n|v4,v6]
  HTTPS_PROXY, SSL_CERT_[FILE|DIR]`
)

// flags holds the raw command line values
type flags struct {
	maxPrefixLen string
	maxDepth     string
	truncate     bool
	onlyV4       bool
	onlyV6       bool
	output       string
	format       string
	table        string
	parallel     bool
	workers      int
	strict       bool
	metricsFile  string
	configFile   string
	userAgent    string
	keyPin       string
	timeout      time.Duration
	verbose      bool
	quiet        bool
}

// main ..
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd ...
func newRootCmd() *cobra.Command { return newCommand(&flags{}) }

// newCommand binds the command line to f
func newCommand(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   _APPNAME + " [flags] [input ...]",
		Short: "aggregate IPv4 and IPv6 prefix lists into the minimal covering set",
		Long: `netagg reads IP networks (CIDR, address/mask, bare addresses or from-to ranges)
from files, http(s) urls or stdin and prints the minimal set of prefixes
covering exactly the same addresses. Inputs ending in .zst, .gz or .xz are
decompressed, outputs ending in .zst, .gz or .xz are compressed.

` + _ENVVARS,
		Example:       _EXAMPLE,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.maxPrefixLen, "max-prefixlen", "m", prefix.DefaultMaxPrefixLen.String(), "drop input prefixes longer than this [n|v4,v6]")
	fs.StringVarP(&f.maxDepth, "max-depth", "d", "0", "shortest prefix length aggregation may produce [n|v4,v6]")
	fs.BoolVarP(&f.truncate, "truncate", "t", false, "clear host bits instead of rejecting the network")
	fs.BoolVarP(&f.onlyV4, "only-v4", "4", false, "only output IPv4 prefixes")
	fs.BoolVarP(&f.onlyV6, "only-v6", "6", false, "only output IPv6 prefixes")
	fs.StringVarP(&f.output, "output", "o", "", "output file, default stdout")
	fs.StringVarP(&f.format, "format", "f", netagg.FormatPlain, "output format [plain|pf]")
	fs.StringVar(&f.table, "table", _APPNAME, "pf table name prefix")
	fs.BoolVar(&f.parallel, "parallel", false, "reduce large inputs on all cpus")
	fs.IntVar(&f.workers, "workers", 0, "parser and reducer workers, default number of cpus")
	fs.BoolVar(&f.strict, "strict", false, "abort on the first invalid token")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics in prometheus text format to this file")
	fs.StringVar(&f.configFile, "config", "", "yaml config file")
	fs.StringVar(&f.userAgent, "user-agent", "", "http user agent for url inputs")
	fs.StringVar(&f.keyPin, "key-pin", "", "base64 sha256 public key pin of https inputs")
	fs.DurationVar(&f.timeout, "timeout", 0, "http timeout for url inputs")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "report every stage on stderr")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only report errors")
	cmd.MarkFlagsMutuallyExclusive("only-v4", "only-v6")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	return cmd
}

// run builds the config (defaults < file < env < flags) and executes it
func run(cmd *cobra.Command, f *flags, args []string) error {
	log, err := newLogger(f.verbose, f.quiet)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := buildConfig(cmd, f, args)
	if err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return err
	}
	cfg.Logger = log
	cfg.Source.Stdin = cmd.InOrStdin()
	cfg.Stdout = cmd.OutOrStdout()

	var reg *prometheus.Registry
	if f.metricsFile != "" {
		reg = prometheus.NewRegistry()
		cfg.Metrics = netagg.NewMetrics(reg)
	}

	err = netagg.Run(cmd.Context(), cfg)
	if reg != nil {
		if werr := prometheus.WriteToTextfile(f.metricsFile, reg); werr != nil {
			log.Error("unable to write metrics", zap.String("file", f.metricsFile), zap.Error(werr))
			if err == nil {
				err = werr
			}
		}
	}
	if err != nil {
		log.Error("run failed", zap.Error(err))
	}
	return err
}

// buildConfig ...
func buildConfig(cmd *cobra.Command, f *flags, args []string) (netagg.Config, error) {
	cfg := netagg.DefaultConfig()
	if f.configFile != "" {
		if err := netagg.LoadConfigFile(f.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	fs := cmd.Flags()
	if fs.Changed("max-prefixlen") {
		l, err := prefix.ParseLengthPair(f.maxPrefixLen)
		if err != nil {
			return cfg, fmt.Errorf("%w: --max-prefixlen: %w", netagg.ErrConfig, err)
		}
		cfg.MaxPrefixLen = &l
	}
	if fs.Changed("max-depth") {
		d, err := prefix.ParseLengthPair(f.maxDepth)
		if err != nil {
			return cfg, fmt.Errorf("%w: --max-depth: %w", netagg.ErrConfig, err)
		}
		cfg.MaxDepth = d
	}
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("table") {
		cfg.Table = f.table
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	cfg.Truncate = cfg.Truncate || f.truncate
	cfg.OnlyV4 = cfg.OnlyV4 || f.onlyV4
	cfg.OnlyV6 = cfg.OnlyV6 || f.onlyV6
	cfg.Parallel = cfg.Parallel || f.parallel
	cfg.Strict = cfg.Strict || f.strict
	if len(args) > 0 {
		cfg.Inputs = args
	}
	cfg.Source.UserAgent = f.userAgent
	cfg.Source.Timeout = f.timeout
	cfg.Source.KeyPin = f.keyPin
	return cfg, cfg.Validate()
}

// newLogger builds the stderr console logger, warnings only by default
func newLogger(verbose, quiet bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Sampling = nil
	config.DisableStacktrace = true
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	switch {
	case verbose:
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case quiet:
		config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}
	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("[%s] unable to initialize logger: %w", _APPNAME, err)
	}
	return log.Named(_APPNAME), nil
}
