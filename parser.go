package netagg

import (
	"bufio"
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"paepcke.de/netagg/prefix"
	"paepcke.de/netagg/source"
)

// feed is one input line
type feed struct {
	line   string
	source string
	num    int
}

// parsed is what a worker made of one line
type parsed struct {
	pfxs     []prefix.Prefix
	tokens   int
	bad      int
	filtered int
}

// parseStats ...
type parseStats struct {
	tokens   int // tokens seen
	bad      int // tokens rejected
	filtered int // prefixes dropped by the family or length filter
	v4, v6   int // prefixes kept
}

// parseSources reads every input, feeds its lines through the worker pool and
// collects the accepted prefixes. Invalid tokens are logged and skipped, or
// abort the run in strict mode.
func parseSources(ctx context.Context, cfg *Config, inputs []string) ([]prefix.Prefix, parseStats, error) {
	var st parseStats
	log := cfg.logger()
	worker := workers(cfg.Workers)

	// channel setup
	feedChan := make(chan feed, _feedBuffer*worker)
	collectChan := make(chan parsed, _feedBuffer*worker)

	g, gctx := errgroup.WithContext(ctx)

	// feeder
	g.Go(func() error {
		defer close(feedChan)
		for _, name := range inputs {
			if err := scanSource(gctx, cfg, name, feedChan); err != nil {
				return err
			}
		}
		return nil
	})

	// worker
	wg, wctx := errgroup.WithContext(gctx)
	for range worker {
		wg.Go(func() error {
			for l := range feedChan {
				res, err := parseLine(cfg, log, l)
				if err != nil {
					return err
				}
				select {
				case collectChan <- res:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(collectChan)
		return wg.Wait()
	})

	// collect
	var pfxs []prefix.Prefix
	for res := range collectChan {
		st.tokens += res.tokens
		st.bad += res.bad
		st.filtered += res.filtered
		pfxs = append(pfxs, res.pfxs...)
	}
	if err := g.Wait(); err != nil {
		return nil, st, err
	}
	for _, p := range pfxs {
		if p.Family() == prefix.IPv4 {
			st.v4++
		} else {
			st.v6++
		}
	}
	return pfxs, st, nil
}

// scanSource sends the lines of one input into the feed channel
func scanSource(ctx context.Context, cfg *Config, name string, feedChan chan<- feed) error {
	r, err := source.Open(ctx, name, cfg.Source)
	if err != nil {
		return err
	}
	defer r.Close()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), _maxLineSize)
	num := 0
	for scanner.Scan() {
		num++
		select {
		case feedChan <- feed{line: scanner.Text(), source: name, num: num}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.New("[netagg] [scanner] unable to read [" + name + "] [" + err.Error() + "]")
	}
	return nil
}

// parseLine parses and filters every token of a line
func parseLine(cfg *Config, log *zap.Logger, l feed) (parsed, error) {
	var res parsed
	for _, token := range fields(l.line) {
		res.tokens++
		pfxs, err := parseTokenOrRange(token, cfg.Truncate)
		if err != nil {
			if cfg.Strict {
				return res, errors.Join(errors.New("[netagg] [strict] ["+l.source+":"+strconv.Itoa(l.num)+"]"), err)
			}
			res.bad++
			log.Warn("not a valid IP network, ignoring",
				zap.String("token", token),
				zap.String("source", l.source),
				zap.Int("line", l.num),
				zap.Error(err))
			continue
		}
		for _, p := range pfxs {
			if !cfg.keep(p) {
				res.filtered++
				continue
			}
			res.pfxs = append(res.pfxs, p)
		}
	}
	return res, nil
}

func parseTokenOrRange(token string, truncate bool) ([]prefix.Prefix, error) {
	if isRange(token) {
		return prefix.ParseRange(token)
	}
	p, err := prefix.ParseToken(token, prefix.Unspecified, truncate)
	if err != nil {
		return nil, err
	}
	return []prefix.Prefix{p}, nil
}
