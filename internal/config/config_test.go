package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// unset removes key for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"AFL_MAP_SIZE", "AFL_TIMEOUT", "AFL_DEBUG"} {
		unset(t, k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{MapSize: 65536}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("AFL_MAP_SIZE", "1024")
	t.Setenv("AFL_TIMEOUT", "250ms")
	t.Setenv("AFL_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{MapSize: 1024, Timeout: 250 * time.Millisecond, Debug: true}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric map size", "AFL_MAP_SIZE", "big"},
		{"zero map size", "AFL_MAP_SIZE", "0"},
		{"negative timeout", "AFL_TIMEOUT", "-1s"},
		{"bad duration", "AFL_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"AFL_MAP_SIZE", "AFL_TIMEOUT", "AFL_DEBUG"} {
				unset(t, k)
			}
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}
