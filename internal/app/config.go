package app

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the host settings shared by the viewer and headless tools.
type Config struct {
	Sim      string            `toml:"sim"`
	Width    int               `toml:"width"`
	Height   int               `toml:"height"`
	Scale    int               `toml:"scale"`
	TPS      int               `toml:"tps"`
	Compiler string            `toml:"compiler"`
	Kernels  string            `toml:"kernels"`
	Async    bool              `toml:"async"`
	Verbose  bool              `toml:"verbose"`
	Params   map[string]string `toml:"params"`

	file string
	sets kvList
}

// Compiler modes.
const (
	CompilerNaga   = "naga"
	CompilerStatic = "static"
)

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Sim:      "lenia",
		Width:    256,
		Height:   256,
		Scale:    3,
		TPS:      60,
		Compiler: CompilerNaga,
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.file, "config", "", "TOML file with settings; explicit flags override it")
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation variant to run")
	fs.IntVar(&c.Width, "width", c.Width, "grid width (multiple of 8)")
	fs.IntVar(&c.Height, "height", c.Height, "grid height (multiple of 8)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.StringVar(&c.Compiler, "compiler", c.Compiler, "kernel compiler: naga or static")
	fs.StringVar(&c.Kernels, "kernels", c.Kernels, "directory to read kernel sources from instead of the embedded set")
	fs.BoolVar(&c.Async, "async", c.Async, "execute frames in the background")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "debug logging")
	fs.Var(&c.sets, "set", "variant parameter in key=value form (repeatable)")
}

// Resolve applies the -config file and -set overrides after fs was parsed.
// Flags set explicitly on the command line take precedence over the file.
func (c *Config) Resolve(fs *flag.FlagSet) error {
	if c.file != "" {
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		flagged := *c
		if err := c.LoadFile(c.file); err != nil {
			return err
		}
		c.keep(&flagged, explicit)
	}
	for _, kv := range c.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("app: -set %q is not key=value", kv)
		}
		if c.Params == nil {
			c.Params = map[string]string{}
		}
		c.Params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return c.Validate()
}

func (c *Config) keep(flagged *Config, explicit map[string]bool) {
	if explicit["sim"] {
		c.Sim = flagged.Sim
	}
	if explicit["width"] {
		c.Width = flagged.Width
	}
	if explicit["height"] {
		c.Height = flagged.Height
	}
	if explicit["scale"] {
		c.Scale = flagged.Scale
	}
	if explicit["tps"] {
		c.TPS = flagged.TPS
	}
	if explicit["compiler"] {
		c.Compiler = flagged.Compiler
	}
	if explicit["kernels"] {
		c.Kernels = flagged.Kernels
	}
	if explicit["async"] {
		c.Async = flagged.Async
	}
	if explicit["v"] {
		c.Verbose = flagged.Verbose
	}
}

// LoadFile merges the settings of a TOML file into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("app: read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("app: parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks host settings. Grid alignment is left to the engine.
func (c *Config) Validate() error {
	if c.Scale <= 0 {
		return fmt.Errorf("app: scale must be positive, got %d", c.Scale)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("app: tps must be positive, got %d", c.TPS)
	}
	switch c.Compiler {
	case CompilerNaga, CompilerStatic:
	default:
		return fmt.Errorf("app: unknown compiler %q", c.Compiler)
	}
	return nil
}

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}
