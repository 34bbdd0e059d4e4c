package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/terraces/pkg/leafset"
	"github.com/matzehuels/terraces/pkg/terrace"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, CacheFile)
	}
	if cfg.Terrace.ParallelThreshold != terrace.DefaultParallelThreshold {
		t.Errorf("ParallelThreshold = %d, want %d", cfg.Terrace.ParallelThreshold, terrace.DefaultParallelThreshold)
	}
}

func TestLoadConfigMissingExplicit(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadConfig() of a missing explicit file should fail")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[terrace]
parallel_threshold = 20
workers = 4
strategy = "unionfind"

[terrace.budget]
max_trees = 1000

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"

[server]
addr = ":9000"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Terrace.ParallelThreshold != 20 || cfg.Terrace.Workers != 4 {
		t.Errorf("Terrace = %+v", cfg.Terrace)
	}
	if cfg.Terrace.Strategy != leafset.StrategyUnionFind {
		t.Errorf("Strategy = %q, want unionfind", cfg.Terrace.Strategy)
	}
	if cfg.Terrace.Budget.MaxTrees != 1000 {
		t.Errorf("MaxTrees = %d, want 1000", cfg.Terrace.Budget.MaxTrees)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[terrace]\nworkers = 2\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Terrace.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Terrace.Workers)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Server.Addr != ":8080" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[terrace\n", "load config"},
		{"unknown key", "[terrace]\nthreads = 2\n", "unknown keys: terrace.threads"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", "invalid cache.backend"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", "redis_addr is required"},
		{"bad ttl", "[cache]\nttl = \"soon\"\n", "load config"},
		{"negative workers", "[terrace]\nworkers = -1\n", "workers must not be negative"},
		{"bad strategy", "[terrace]\nstrategy = \"quantum\"\n", "invalid options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfig() error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestConfigEncodeRoundTrip(t *testing.T) {
	data, err := DefaultConfig().Encode()
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	for _, want := range []string{"[terrace]", "parallel_threshold = 50", `backend = "file"`, `ttl = "168h0m0s"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Encode() output missing %q:\n%s", want, data)
		}
	}

	cfg, err := LoadConfig(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadConfig(encoded defaults) error: %v", err)
	}
	if cfg.Cache.TTL != DefaultConfig().Cache.TTL {
		t.Errorf("round trip TTL = %v, want %v", cfg.Cache.TTL, DefaultConfig().Cache.TTL)
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", configFileName)

	c := New(&strings.Builder{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"config", "init", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}

	// A second init refuses to overwrite.
	root = New(&strings.Builder{}, LogInfo).RootCommand()
	root.SetArgs([]string{"config", "init", "--config", path})
	if err := root.Execute(); err == nil {
		t.Error("second config init error = nil, want already exists")
	}

	var out strings.Builder
	root = New(&strings.Builder{}, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(out.String(), "[cache]") {
		t.Errorf("config show output = %q", out.String())
	}
}
