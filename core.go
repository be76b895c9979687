package netagg

import (
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"paepcke.de/netagg/prefix"
	"paepcke.de/netagg/source"
)

// output formats
const (
	FormatPlain = "plain" // one prefix per line, ipv4 block first
	FormatPF    = "pf"    // pf(4) table per address family
)

// env var names
const (
	EnvOutfile      = "NETAGG_OUTFILE"
	EnvFormat       = "NETAGG_FORMAT"
	EnvTable        = "NETAGG_TABLE"
	EnvMaxDepth     = "NETAGG_MAX_DEPTH"
	EnvMaxPrefixLen = "NETAGG_MAX_PREFIXLEN"
)

// ErrConfig is wrapped by every configuration error.
var ErrConfig = errors.New("[netagg] [config]")

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config ...
type Config struct {
	Inputs []string `yaml:"inputs"` // files, http(s) urls, "-" for stdin; none means stdin
	Output string   `yaml:"output"` // file name, "-" or empty for stdout
	Format string   `yaml:"format"` // FormatPlain or FormatPF
	Table  string   `yaml:"table"`  // pf table name prefix

	// MaxDepth is the shortest prefix length aggregation may produce.
	MaxDepth prefix.LengthPair `yaml:"max_depth"`

	// MaxPrefixLen drops longer input prefixes before aggregation, nil keeps all.
	MaxPrefixLen *prefix.LengthPair `yaml:"max_prefixlen"`

	Truncate bool `yaml:"truncate"` // clear host bits instead of rejecting the token
	OnlyV4   bool `yaml:"only_v4"`
	OnlyV6   bool `yaml:"only_v6"`
	Parallel bool `yaml:"parallel"`
	Workers  int  `yaml:"workers"` // parser and reducer workers, default runtime.NumCPU()
	Strict   bool `yaml:"strict"`  // abort on the first invalid token

	Logger  *zap.Logger    `yaml:"-"`
	Metrics *Metrics       `yaml:"-"`
	Source  source.Options `yaml:"-"`
	Stdout  io.Writer      `yaml:"-"`
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		Format: FormatPlain,
		Table:  _app,
	}
}

// LoadConfigFile merges the yaml file name into cfg, unknown keys are an error.
func LoadConfigFile(name string, cfg *Config) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Join(ErrConfig, errors.New("unable to read config file ["+name+"] ["+err.Error()+"]"))
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(ErrConfig, errors.New("unable to parse config file ["+name+"] ["+err.Error()+"]"))
	}
	return nil
}

// ApplyEnv overrides cfg with the NETAGG_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutfile); ok {
		c.Output = v
	}
	if v, ok := lookup(EnvFormat); ok {
		c.Format = v
	}
	if v, ok := lookup(EnvTable); ok {
		c.Table = v
	}
	if v, ok := lookup(EnvMaxDepth); ok {
		d, err := prefix.ParseLengthPair(v)
		if err != nil {
			return errors.Join(ErrConfig, errors.New(EnvMaxDepth+" ["+err.Error()+"]"))
		}
		c.MaxDepth = d
	}
	if v, ok := lookup(EnvMaxPrefixLen); ok {
		l, err := prefix.ParseLengthPair(v)
		if err != nil {
			return errors.Join(ErrConfig, errors.New(EnvMaxPrefixLen+" ["+err.Error()+"]"))
		}
		c.MaxPrefixLen = &l
	}
	return nil
}

// Validate ...
func (c *Config) Validate() error {
	var errs []error
	switch c.Format {
	case FormatPlain, FormatPF:
	default:
		errs = append(errs, errors.New("unknown format ["+c.Format+"]"))
	}
	if c.Format == FormatPF && !tableName.MatchString(c.Table) {
		errs = append(errs, errors.New("invalid pf table name ["+c.Table+"]"))
	}
	if c.OnlyV4 && c.OnlyV6 {
		errs = append(errs, errors.New("only_v4 and only_v6 are mutually exclusive"))
	}
	if !validPair(c.MaxDepth) {
		errs = append(errs, errors.New("max_depth out of range ["+c.MaxDepth.String()+"]"))
	}
	if c.MaxPrefixLen != nil && !validPair(*c.MaxPrefixLen) {
		errs = append(errs, errors.New("max_prefixlen out of range ["+c.MaxPrefixLen.String()+"]"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative ["+strconv.Itoa(c.Workers)+"]"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrConfig}, errs...)...)
	}
	return nil
}

func validPair(l prefix.LengthPair) bool {
	return l.V4 >= 0 && l.V4 <= 32 && l.V6 >= 0 && l.V6 <= 128
}

// keep applies the family and length filters to a parsed prefix
func (c *Config) keep(p prefix.Prefix) bool {
	switch {
	case c.OnlyV4 && p.Family() != prefix.IPv4:
		return false
	case c.OnlyV6 && p.Family() != prefix.IPv6:
		return false
	case c.MaxPrefixLen != nil:
		return p.Bits() <= c.MaxPrefixLen.For(p.Family())
	}
	return true
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
