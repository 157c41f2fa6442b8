package appconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/geo"
	"github.com/erzurum-ulasim/routegeom/internal/pipeline"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/source"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
	"github.com/erzurum-ulasim/routegeom/internal/turnaround"
)

// EnvPrefix starts every environment variable that overrides the file.
const EnvPrefix = "ROUTEGEOM_"

type ServerSection struct {
	Port          int      `yaml:"port" validate:"min=1,max=65535"`
	Env           string   `yaml:"env" validate:"omitempty,oneof=development dev test production prod"`
	ApiKeys       []string `yaml:"apiKeys" validate:"dive,required"`
	ExemptApiKeys []string `yaml:"exemptApiKeys" validate:"dive,required"`
	Verbose       bool     `yaml:"verbose"`
	RateLimit     int      `yaml:"rateLimit" validate:"gte=0"`
}

type InputSection struct {
	Sources         []pipeline.Source `yaml:"sources" validate:"dive"`
	AuthHeaderKey   string            `yaml:"authHeaderKey"`
	AuthHeaderValue string            `yaml:"authHeaderValue"`
	MaxBytes        int64             `yaml:"maxBytes" validate:"gte=0"`
	// Traces are Dart or JSON line files whose lines are split at their
	// turnaround.
	Traces []string `yaml:"traces" validate:"dive,required"`
}

type IndexSection struct {
	Bounds           geo.Bounds        `yaml:"bounds"`
	Grammar          stopindex.Grammar `yaml:"grammar"`
	MergePolicy      string            `yaml:"mergePolicy"`
	ClusterTolerance float64           `yaml:"clusterTolerance" validate:"gte=0"`
}

type BuildSection struct {
	Lines             []pipeline.Line `yaml:"lines" validate:"dive"`
	Membership        bool            `yaml:"membership"`
	SplitMembership   bool            `yaml:"splitMembership"`
	GTFSSequences     bool            `yaml:"gtfsSequences"`
	Naming            routes.Naming   `yaml:"naming"`
	DirectionSuffixes []string        `yaml:"directionSuffixes"`
	Workers           int             `yaml:"workers" validate:"gte=0"`
}

type TurnaroundSection struct {
	turnaround.Config `yaml:",inline"`
	Naming            turnaround.Naming `yaml:"naming"`
}

type Output struct {
	Format string `yaml:"format" validate:"required,oneof=json buslines dart geojson polyline sqlite"`
	Path   string `yaml:"path" validate:"required"`
}

type ExportSection struct {
	Outputs         []Output `yaml:"outputs" validate:"dive"`
	MetricsTextfile string   `yaml:"metricsTextfile"`
	// BusLineSuffixes are stripped from line names in the buslines format.
	BusLineSuffixes []string `yaml:"busLineSuffixes" validate:"dive,required"`
	// GeneratedAtEnv names a variable holding a fixed export timestamp.
	GeneratedAtEnv string `yaml:"generatedAtEnv"`
}

// FileConfig is the YAML run file.
type FileConfig struct {
	Server     ServerSection     `yaml:"server"`
	LogLevel   string            `yaml:"logLevel" validate:"omitempty,oneof=debug info warn warning error"`
	Input      InputSection      `yaml:"input"`
	Index      IndexSection      `yaml:"index"`
	Build      BuildSection      `yaml:"build"`
	Turnaround TurnaroundSection `yaml:"turnaround"`
	Export     ExportSection     `yaml:"export"`
}

// DefaultFileConfig returns the configuration used for keys the file leaves
// out.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Server: ServerSection{
			Port:      4000,
			Env:       "development",
			RateLimit: 100,
		},
		LogLevel: "info",
		Input: InputSection{
			MaxBytes: source.DefaultMaxSize,
		},
		Index: IndexSection{
			Bounds:           geo.DefaultBounds(),
			Grammar:          stopindex.DefaultGrammar(),
			MergePolicy:      string(stopindex.KeepLast),
			ClusterTolerance: stopindex.DefaultClusterTolerance,
		},
		Build: BuildSection{
			Naming:            routes.DefaultNaming(),
			DirectionSuffixes: routes.DefaultDirectionSuffixes,
		},
		Turnaround: TurnaroundSection{
			Config: turnaround.DefaultConfig(),
			Naming: turnaround.DefaultNaming(),
		},
		Export: ExportSection{
			GeneratedAtEnv:  EnvPrefix + "GENERATED_AT",
			BusLineSuffixes: routes.BusLineSuffixes,
		},
	}
}

// LoadFromFile reads the YAML file at path over the defaults, applies
// environment overrides and validates the result.
func LoadFromFile(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults, applies environment
// overrides and validates the result. Unknown keys are rejected; an empty
// document yields the defaults.
func Parse(data []byte) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with ROUTEGEOM_* variables read through
// lookup.
func (c *FileConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid configuration: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("ENV", &c.Server.Env)
	str("LOG_LEVEL", &c.LogLevel)
	str("AUTH_HEADER_KEY", &c.Input.AuthHeaderKey)
	str("AUTH_HEADER_VALUE", &c.Input.AuthHeaderValue)
	str("METRICS_TEXTFILE", &c.Export.MetricsTextfile)
	if v, ok := lookup(EnvPrefix + "API_KEYS"); ok {
		c.Server.ApiKeys = ParseAPIKeys(v)
	}
	if v, ok := lookup(EnvPrefix + "VERBOSE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid configuration: %sVERBOSE: %w", EnvPrefix, err)
		}
		c.Server.Verbose = b
	}
	for name, dst := range map[string]*int{
		"PORT":       &c.Server.Port,
		"RATE_LIMIT": &c.Server.RateLimit,
		"WORKERS":    &c.Build.Workers,
	} {
		if err := integer(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the struct tags and the values the tags cannot express.
func (c *FileConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := stopindex.ParseMergePolicy(c.Index.MergePolicy); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := EnvFlagToEnvironment(c.Server.Env); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Turnaround.Config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ToAppConfig returns the server settings.
func (c *FileConfig) ToAppConfig() Config {
	env, _ := EnvFlagToEnvironment(c.Server.Env)
	return Config{
		Port:          c.Server.Port,
		Env:           env,
		ApiKeys:       c.Server.ApiKeys,
		ExemptApiKeys: c.Server.ExemptApiKeys,
		Verbose:       c.Server.Verbose,
		RateLimit:     c.Server.RateLimit,
	}
}

// Loader returns the input loader.
func (c *FileConfig) Loader() *source.Loader {
	l := source.NewLoader()
	l.AuthHeaderKey = c.Input.AuthHeaderKey
	l.AuthHeaderValue = c.Input.AuthHeaderValue
	if c.Input.MaxBytes > 0 {
		l.MaxSize = c.Input.MaxBytes
	}
	return l
}

// Indexing returns the stop index settings.
func (c *FileConfig) Indexing() pipeline.Indexing {
	policy, _ := stopindex.ParseMergePolicy(c.Index.MergePolicy)
	return pipeline.Indexing{
		Bounds:  c.Index.Bounds,
		Grammar: c.Index.Grammar,
		Policy:  policy,
	}
}

// PipelineOptions returns the line building settings.
func (c *FileConfig) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Workers:           c.Build.Workers,
		Naming:            c.Build.Naming,
		SplitNaming:       c.Turnaround.Naming,
		Turnaround:        c.Turnaround.Config,
		DirectionSuffixes: c.Build.DirectionSuffixes,
		ClusterTolerance:  c.Index.ClusterTolerance,
	}
}

// Plan returns the configured plan. GTFS sequences are taken from loaded
// when enabled.
func (c *FileConfig) Plan(loaded *pipeline.Loaded) pipeline.Plan {
	plan := pipeline.Plan{
		Lines:           c.Build.Lines,
		Membership:      c.Build.Membership,
		SplitMembership: c.Build.SplitMembership,
	}
	if c.Build.GTFSSequences && loaded != nil {
		plan.Sequences = loaded.Sequences
	}
	return plan
}

// Exporters returns one exporter per configured output, in order.
func (c *FileConfig) Exporters() (export.Multi, error) {
	var m export.Multi
	for _, o := range c.Export.Outputs {
		format, err := export.ParseFormat(o.Format)
		if err != nil {
			return nil, err
		}
		e, err := export.New(format, o.Path, export.Options{BusLineSuffixes: c.Export.BusLineSuffixes})
		if err != nil {
			return nil, err
		}
		m = append(m, e)
	}
	return m, nil
}
