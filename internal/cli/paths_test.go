package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestXDGDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
		base string // value of env; empty uses the home fallback
		want string
	}{
		{"cache default", "XDG_CACHE_HOME", cacheDir, "", filepath.Join(home, ".cache", appName)},
		{"cache xdg", "XDG_CACHE_HOME", cacheDir, "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
		{"config default", "XDG_CONFIG_HOME", configDir, "", filepath.Join(home, ".config", appName)},
		{"config xdg", "XDG_CONFIG_HOME", configDir, "/tmp/custom-config", filepath.Join("/tmp/custom-config", appName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.base)

			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigPathFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")

	got, err := configPath()
	if err != nil {
		t.Fatalf("configPath() error: %v", err)
	}
	if want := filepath.Join("/tmp/cfg", appName, configFileName); got != want {
		t.Errorf("configPath() = %q, want %q", got, want)
	}
}
