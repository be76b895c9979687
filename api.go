// Package netagg reads IP network tokens from files, urls or stdin, reduces
// them to the minimal covering prefix set and writes the result as a plain
// list or as pf(4) tables.
package netagg

import (
	"context"
	"time"

	"go.uber.org/zap"

	"paepcke.de/netagg/aggregate"
	"paepcke.de/netagg/source"
)

// Run executes one aggregation run as described by cfg.
func Run(ctx context.Context, cfg Config) error {
	// setup
	t0 := time.Now()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := cfg.logger()
	inputs := cfg.Inputs
	if len(inputs) == 0 {
		inputs = []string{source.Stdio}
	}
	log.Info("sources",
		zap.Strings("inputs", inputs),
		zap.Stringer("max depth", cfg.MaxDepth),
		zap.Bool("truncate", cfg.Truncate),
		zap.Bool("parallel", cfg.Parallel))

	// parse
	pfxs, st, err := parseSources(ctx, &cfg, inputs)
	cfg.Metrics.observeParse(st)
	if err != nil {
		return err
	}
	log.Info("parsed",
		zap.Int("tokens", st.tokens),
		zap.Int("invalid", st.bad),
		zap.Int("filtered", st.filtered),
		zap.Int("ipv4", st.v4),
		zap.Int("ipv6", st.v6))

	// aggregate
	result := aggregate.Aggregate(pfxs, aggregate.Options{
		MaxDepth: cfg.MaxDepth,
		Parallel: cfg.Parallel,
		Workers:  cfg.Workers,
	})
	cfg.Metrics.observeResult(result)
	log.Info("aggregated", zap.Int("in", len(pfxs)), zap.Int("out", len(result)))

	// write
	if err := writeResult(&cfg, result); err != nil {
		return err
	}

	// report
	d := time.Since(t0)
	cfg.Metrics.observeDuration(d)
	log.Info("time needed", zap.Duration("elapsed", d))
	return nil
}
