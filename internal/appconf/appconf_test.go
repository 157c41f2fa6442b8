package appconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/pipeline"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

const fullConfig = `
server:
  port: 8080
  env: production
  apiKeys: [key1, key2]
  exemptApiKeys: [internal]
  rateLimit: 50
logLevel: debug
input:
  sources:
    - location: data/durak.txt
    - location: https://example.com/all_stops.json
      format: records
  authHeaderKey: Authorization
  authHeaderValue: Bearer token123
  traces: [data/k7.dart]
index:
  bounds: {minLat: 39.5, maxLat: 40.2, minLng: 40.9, maxLng: 41.6}
  mergePolicy: keepFirst
  clusterTolerance: 30
build:
  membership: true
  splitMembership: true
  lines:
    - name: K7Dogru
      stopIds: ["20005", "20006"]
      split: true
  workers: 3
turnaround:
  lookahead: 8
  confirmRun: 2
export:
  outputs:
    - {format: dart, path: out/polylines.dart}
    - {format: sqlite, path: out/routes.db}
  metricsTextfile: out/routegeom.prom
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routegeom.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseAPIKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "Single key", input: "test-key", expected: []string{"test-key"}},
		{name: "Multiple keys", input: "key1,key2,key3", expected: []string{"key1", "key2", "key3"}},
		{name: "Keys with spaces", input: " key1 , key2 , key3 ", expected: []string{"key1", "key2", "key3"}},
		{name: "Empty string", input: "", expected: []string{}},
		{name: "Blank entries", input: "key1,,key2,", expected: []string{"key1", "key2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAPIKeys(tt.input))
		})
	}
}

func TestEnvFlagToEnvironment(t *testing.T) {
	for in, want := range map[string]Environment{
		"":            Development,
		"development": Development,
		"Test":        Test,
		"prod":        Production,
		"production":  Production,
	} {
		got, err := EnvFlagToEnvironment(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := EnvFlagToEnvironment("staging")
	assert.Error(t, err)
	assert.Equal(t, "production", Production.String())
}

func TestLoadFromFile(t *testing.T) {
	t.Run("loads full config file", func(t *testing.T) {
		cfg, err := LoadFromFile(writeConfig(t, fullConfig))
		require.NoError(t, err)

		app := cfg.ToAppConfig()
		assert.Equal(t, 8080, app.Port)
		assert.Equal(t, Production, app.Env)
		assert.Equal(t, []string{"key1", "key2"}, app.ApiKeys)
		assert.Equal(t, []string{"internal"}, app.ExemptApiKeys)
		assert.Equal(t, 50, app.RateLimit)

		indexing := cfg.Indexing()
		assert.Equal(t, stopindex.KeepFirst, indexing.Policy)
		assert.Equal(t, 39.5, indexing.Bounds.MinLat)
		assert.Equal(t, stopindex.DefaultGrammar(), indexing.Grammar)

		opts := cfg.PipelineOptions()
		assert.Equal(t, 3, opts.Workers)
		assert.Equal(t, 8, opts.Turnaround.Lookahead)
		assert.Equal(t, 2.0, opts.Turnaround.ThresholdFactor)
		assert.Equal(t, 2, opts.Turnaround.ConfirmRun)
		assert.Equal(t, "Gidis", opts.SplitNaming.Outbound)
		assert.Equal(t, "Dogru", opts.Naming.Forward)
		assert.Equal(t, 30.0, opts.ClusterTolerance)

		assert.Equal(t, pipeline.FormatText, cfg.Input.Sources[0].ResolvedFormat())
		assert.Equal(t, pipeline.FormatRecords, cfg.Input.Sources[1].ResolvedFormat())
		assert.Equal(t, []string{"data/k7.dart"}, cfg.Input.Traces)

		loader := cfg.Loader()
		assert.Equal(t, "Authorization", loader.AuthHeaderKey)
		assert.Equal(t, "Bearer token123", loader.AuthHeaderValue)

		plan := cfg.Plan(&pipeline.Loaded{Sequences: []stopindex.Sequence{{Route: "K7"}}})
		assert.True(t, plan.Membership)
		assert.True(t, plan.SplitMembership)
		require.Len(t, plan.Lines, 1)
		assert.True(t, plan.Lines[0].Split)
		assert.Empty(t, plan.Sequences)

		exporters, err := cfg.Exporters()
		require.NoError(t, err)
		require.Len(t, exporters, 2)
		assert.IsType(t, &export.DartExporter{}, exporters[0])
		assert.IsType(t, &export.SQLiteExporter{}, exporters[1])
	})

	t.Run("empty file yields defaults", func(t *testing.T) {
		cfg, err := LoadFromFile(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultFileConfig(), cfg)
		assert.Equal(t, Development, cfg.ToAppConfig().Env)
	})

	t.Run("fails on invalid values", func(t *testing.T) {
		for name, content := range map[string]string{
			"port":          "server: {port: 70000}",
			"format":        "export: {outputs: [{format: kml, path: out.kml}]}",
			"lookahead":     "turnaround: {lookahead: 0}",
			"naming":        "build: {naming: {forward: X, reverse: X}}",
			"bounds":        "index: {bounds: {minLat: 42, maxLat: 38, minLng: 39, maxLng: 44}}",
			"merge policy":  "index: {mergePolicy: newest}",
			"empty line":    "build: {lines: [{name: K1, stopIds: []}]}",
			"source format": "input: {sources: [{location: a.txt, format: csv}]}",
		} {
			t.Run(name, func(t *testing.T) {
				cfg, err := LoadFromFile(writeConfig(t, content))
				assert.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), "invalid configuration")
			})
		}
	})

	t.Run("fails on malformed YAML", func(t *testing.T) {
		cfg, err := LoadFromFile(writeConfig(t, "server: [port"))
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to parse YAML config")
	})

	t.Run("fails on unknown keys", func(t *testing.T) {
		_, err := LoadFromFile(writeConfig(t, "server: {prot: 8080}"))
		assert.ErrorContains(t, err, "failed to parse YAML config")
	})

	t.Run("fails on nonexistent file", func(t *testing.T) {
		cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nonexistent.yml"))
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to stat config file")
	})
}

func TestBusLineSuffixes(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "export: {outputs: [{format: buslines, path: out/bus_lines.json}]}"))
	require.NoError(t, err)
	assert.Equal(t, routes.BusLineSuffixes, cfg.Export.BusLineSuffixes)

	exporters, err := cfg.Exporters()
	require.NoError(t, err)
	require.Len(t, exporters, 1)
	assert.Equal(t, routes.BusLineSuffixes, exporters[0].(*export.BusLinesExporter).Suffixes)

	cfg, err = LoadFromFile(writeConfig(t, `
export:
  busLineSuffixes: [Dogru, Ters]
  outputs: [{format: buslines, path: out/bus_lines.json}]
`))
	require.NoError(t, err)
	exporters, err = cfg.Exporters()
	require.NoError(t, err)
	assert.Equal(t, []string{"Dogru", "Ters"}, exporters[0].(*export.BusLinesExporter).Suffixes)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ROUTEGEOM_PORT":       "9090",
		"ROUTEGEOM_API_KEYS":   "a, b",
		"ROUTEGEOM_VERBOSE":    "true",
		"ROUTEGEOM_WORKERS":    "2",
		"ROUTEGEOM_LOG_LEVEL":  "warn",
		"ROUTEGEOM_RATE_LIMIT": "5",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultFileConfig()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"a", "b"}, cfg.Server.ApiKeys)
	assert.True(t, cfg.Server.Verbose)
	assert.Equal(t, 2, cfg.Build.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Server.RateLimit)

	env["ROUTEGEOM_PORT"] = "eighty"
	assert.ErrorContains(t, DefaultFileConfig().ApplyEnv(lookup), "ROUTEGEOM_PORT")

	delete(env, "ROUTEGEOM_PORT")
	env["ROUTEGEOM_VERBOSE"] = "sometimes"
	assert.ErrorContains(t, DefaultFileConfig().ApplyEnv(lookup), "ROUTEGEOM_VERBOSE")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("ROUTEGEOM_PORT", "5050")
	cfg, err := LoadFromFile(writeConfig(t, "server: {port: 8080}"))
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.ToAppConfig().Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROUTEGEOM_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("ROUTEGEOM_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("ROUTEGEOM_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("ROUTEGEOM_TEST_DOTENV"))
}
