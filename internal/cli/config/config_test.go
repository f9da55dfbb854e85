package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/uvcalc/internal/testutil"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("state", "", "state database")
	flags.StringP("output", "o", "", "output format")
	flags.BoolP("verbose", "v", false, "verbose")
	flags.Int("precision", DefaultPrecision, "decimals")
	return flags
}

// TestLoadConfig_Defaults tests loading with no file, env or flags.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := LoadConfig("", newFlags())
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPrecision, cfg.Precision)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultStateFile, mustRel(t, cfg.ProjectRoot, cfg.StatePath))
	assert.Equal(t, DefaultHistoryFile, mustRel(t, cfg.ProjectRoot, cfg.HistoryFile))
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func mustRel(t *testing.T, base, target string) string {
	t.Helper()
	rel, err := filepath.Rel(base, target)
	require.NoError(t, err)
	return filepath.ToSlash(rel)
}

// TestLoadConfig_FileFoundUpward tests that uvcalc.yaml in a parent anchors relative paths.
func TestLoadConfig_FileFoundUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("state_path: data/cal.db\nprecision: 6\n"), 0600))
	sub := filepath.Join(root, "samples", "batch1")
	require.NoError(t, os.MkdirAll(sub, 0750))
	chdir(t, sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Precision)
	assert.Equal(t, "data/cal.db", mustRel(t, cfg.ProjectRoot, cfg.StatePath))
	assert.Equal(t, ConfigFileName, filepath.Base(GetConfigFileUsed()))

	// Resolve symlinks (macOS /var -> /private/var) before comparing roots.
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	assert.Equal(t, wantRoot, gotRoot)
}

// TestLoadConfig_Precedence tests flags > env vars > config file > defaults.
func TestLoadConfig_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		env        map[string]string
		setFlags   map[string]string
		wantOutput string
		wantPrec   int
		wantVerb   bool
	}{
		{
			name:       "file over defaults",
			file:       "output: json\nprecision: 2\n",
			wantOutput: "json",
			wantPrec:   2,
		},
		{
			name:       "env over file",
			file:       "output: json\nprecision: 2\n",
			env:        map[string]string{"UVCALC_OUTPUT": "yaml", "UVCALC_PRECISION": "3", "UVCALC_VERBOSE": "true"},
			wantOutput: "yaml",
			wantPrec:   3,
			wantVerb:   true,
		},
		{
			name:       "flag over env",
			file:       "output: json\n",
			env:        map[string]string{"UVCALC_OUTPUT": "yaml"},
			setFlags:   map[string]string{"output": "markdown", "precision": "5"},
			wantOutput: "markdown",
			wantPrec:   5,
		},
		{
			name:       "unset flag keeps env",
			env:        map[string]string{"UVCALC_OUTPUT": "text"},
			wantOutput: "text",
			wantPrec:   DefaultPrecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			dir := t.TempDir()
			chdir(t, dir)
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.file), 0600))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			flags := newFlags()
			for k, v := range tt.setFlags {
				require.NoError(t, flags.Set(k, v))
			}

			cfg, err := LoadConfig("", flags)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, cfg.OutputFormat)
			assert.Equal(t, tt.wantPrec, cfg.Precision)
			assert.Equal(t, tt.wantVerb, cfg.Verbose)
		})
	}
}

// TestLoadConfig_StateFlagIsRelativeToCWD tests that --state is not re-anchored to the project root.
func TestLoadConfig_StateFlagIsRelativeToCWD(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("precision: 4\n"), 0600))
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0750))
	chdir(t, sub)

	flags := newFlags()
	require.NoError(t, flags.Set("state", "mine.db"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	wd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(wd, "mine.db"), cfg.StatePath)
}

// TestLoadConfig_ExplicitFile tests --config handling.
func TestLoadConfig_ExplicitFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lab.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("state_path: lab.db\n"), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lab.db"), cfg.StatePath)
	assert.Equal(t, cfgPath, GetConfigFileUsed())

	ResetConfig()
	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

// TestLoadConfig_Invalid tests that bad values are rejected.
func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		errSubstr string
	}{
		{"bad output", "output: xml\n", "unknown output format"},
		{"negative precision", "precision: -1\n", "precision must be between"},
		{"huge precision", "precision: 40\n", "precision must be between"},
		{"malformed yaml", "output: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			dir := t.TempDir()
			cfgPath := filepath.Join(dir, ConfigFileName)
			require.NoError(t, os.WriteFile(cfgPath, []byte(tt.file), 0600))

			_, err := LoadConfig(cfgPath, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

// TestConfig_Validate tests the Config.Validate method.
func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.StatePath = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state_path is required")
}

func TestResolvePathRelativeTo(t *testing.T) {
	base := filepath.Join("/", "proj")
	assert.Equal(t, "", resolvePathRelativeTo("", base))
	assert.Equal(t, ":memory:", resolvePathRelativeTo(":memory:", base))
	assert.Equal(t, filepath.Join(base, "a.db"), resolvePathRelativeTo("a.db", base))
	abs := filepath.Join("/", "tmp", "a.db")
	assert.Equal(t, abs, resolvePathRelativeTo(abs, base))
}

func TestContextHelpers(t *testing.T) {
	ResetConfig()
	ctx := context.Background()

	assert.Equal(t, Default(), FromContext(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{StatePath: "x.db", Precision: 2}
	ctx = WithConfig(ctx, cfg)
	assert.Same(t, cfg, FromContext(ctx))

	logger := testutil.NewTestLogger(t)
	ctx = WithLogger(ctx, logger)
	assert.Same(t, logger, GetLogger(ctx))
}
