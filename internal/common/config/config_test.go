package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genURL generates service URLs
func genURL() gopter.Gen {
	return gen.RegexMatch(`^https://[a-z]{1,10}\.[a-z]{2,4}/[a-z]{0,8}$`)
}

// genConfig generates valid Config structs
func genConfig() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("auto", "0", "24", "32"),
		gen.OneConstOf("none", "alpha", "ascii", "length"),
		gen.OneConstOf("json", "simple", "find-links"),
		genURL(),
		gen.IntRange(1, 120),
		gen.IntRange(1, 64),
		gen.OneConstOf(0.0, 0.5, 2.0, 10.0),
		gen.IntRange(0, 1440),
		gen.RegexMatch(`^\./[a-z]{1,8}/$`),
	).Map(func(values []interface{}) *Config {
		return &Config{
			Writer: WriterConfig{
				Indent:  values[0].(string),
				Sorting: values[1].(string),
			},
			Index: IndexConfig{
				Kind:              values[2].(string),
				ServiceURL:        values[3].(string),
				TimeoutSeconds:    values[4].(int),
				Threads:           values[5].(int),
				RequestsPerSecond: values[6].(float64),
				CacheTTLMinutes:   values[7].(int),
			},
			Unused: UnusedConfig{
				Eggs: values[8].(string),
			},
			Policy: DefaultPolicyFile,
		}
	})
}

// TestConfigRoundTrip tests that saving then loading a configuration preserves it
func TestConfigRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Config YAML round-trip preserves data", prop.ForAll(
		func(cfg *Config) bool {
			tmpDir, err := os.MkdirTemp("", "config-test-*")
			if err != nil {
				t.Logf("Failed to create temp dir: %v", err)
				return false
			}
			defer os.RemoveAll(tmpDir)

			configPath := filepath.Join(tmpDir, "config.yaml")

			if err := cfg.SaveTo(configPath); err != nil {
				t.Logf("Failed to save config: %v", err)
				return false
			}

			loaded, err := LoadFrom(configPath)
			if err != nil {
				t.Logf("Failed to load config: %v", err)
				return false
			}

			return reflect.DeepEqual(cfg, loaded)
		},
		genConfig(),
	))

	properties.TestingRun(t)
}

// TestMissingConfigFileReturnsDefault tests that a missing file yields defaults without creating it
func TestMissingConfigFileReturnsDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir", "config.yaml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Expected defaults, got: %+v", cfg)
	}
	if cfg.Writer.Indent != "32" || cfg.Index.ServiceURL != "https://pypi.org/pypi" ||
		cfg.Index.TimeoutSeconds != 10 || cfg.Index.Threads != 10 || cfg.Unused.Eggs != "./eggs/" {
		t.Errorf("Unexpected default values: %+v", cfg)
	}

	if _, err := os.Stat(configPath); !os.IsNotExist(err) {
		t.Error("Loading a missing config must not create it")
	}
}

// TestPartialConfigKeepsDefaults tests that absent settings keep their default
func TestPartialConfigKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "index:\n  threads: 4\nwriter:\n  sorting: alpha\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Index.Threads != 4 {
		t.Errorf("Threads = %d, want 4", cfg.Index.Threads)
	}
	if cfg.Writer.Sorting != "alpha" {
		t.Errorf("Sorting = %q, want alpha", cfg.Writer.Sorting)
	}
	if cfg.Index.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("TimeoutSeconds = %d, want default", cfg.Index.TimeoutSeconds)
	}
	if cfg.Writer.Indent != DefaultIndent {
		t.Errorf("Indent = %q, want default", cfg.Writer.Indent)
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero threads", "index:\n  threads: 0\n"},
		{"negative timeout", "index:\n  timeout_seconds: -1\n"},
		{"negative ttl", "index:\n  cache_ttl_minutes: -5\n"},
		{"negative rate", "index:\n  requests_per_second: -1\n"},
		{"empty url", "index:\n  service_url: \"\"\n"},
		{"malformed yaml", "index: [\n"},
		{"wrong type", "index:\n  threads: many\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := LoadFrom(configPath); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadFrom() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	idx := IndexConfig{TimeoutSeconds: 10, CacheTTLMinutes: 90}
	if idx.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v", idx.Timeout())
	}
	if idx.CacheTTL() != 90*time.Minute {
		t.Errorf("CacheTTL() = %v", idx.CacheTTL())
	}
}

func TestConfigPathsPriority(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	paths, err := ConfigPaths()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(home, "xdg", "bvc", "config.yaml"),
		filepath.Join(home, ".bvc", "config.yaml"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("ConfigPaths() = %v, want %v", paths, want)
	}

	// Only the legacy file exists
	if err := os.MkdirAll(filepath.Dir(want[1]), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want[1], []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	found, err := FindConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if found != want[1] {
		t.Errorf("FindConfigPath() = %q, want legacy path", found)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/cache", "bvc") {
		t.Errorf("CacheDir() = %q", dir)
	}
}
