package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gpuverify"
	"github.com/gogpu/gpuverify/device"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Profile != "webgpu" {
		t.Errorf("Profile = %q, want webgpu", cfg.Profile)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if len(cfg.Constraints) != 0 {
		t.Errorf("Constraints = %v, want empty", cfg.Constraints)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
profile: cuda
constraints:
  max_shared_memory_per_block: 16384
  max_thread_z: 32
logging:
  level: debug
history:
  enabled: true
  addr: ch.internal:9000
  table: kernel_verdicts
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Profile != "cuda" {
		t.Errorf("Profile = %q, want cuda", cfg.Profile)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.History.Enabled || cfg.History.Addr != "ch.internal:9000" || cfg.History.Table != "kernel_verdicts" {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.History.Database != "gpuverify" {
		t.Errorf("History.Database = %q, want default gpuverify", cfg.History.Database)
	}

	c, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	want := gpuverify.Limits{
		MaxLocalMemoryPerBlock:  512 << 10,
		MaxSharedMemoryPerBlock: 16384,
		MaxThreadPerBlock:       1024,
		MaxThreadX:              1024,
		MaxThreadY:              1024,
		MaxThreadZ:              32,
	}
	if got := gpuverify.ResolveLimits(c); got != want {
		t.Errorf("ResolveLimits(Resolve()) = %+v, want %+v", got, want)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GPUVERIFY_PROFILE", "metal")
	t.Setenv("GPUVERIFY_LOGGING_LEVEL", "error")
	path := writeConfig(t, "profile: cuda\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Profile != "metal" {
		t.Errorf("Profile = %q, want metal from environment", cfg.Profile)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error from environment", cfg.Logging.Level)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of a missing explicit file succeeded")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown profile", "profile: voodoo2\n", "unknown profile"},
		{"unknown key", "constraints:\n  max_registers: 64\n", "unknown key"},
		{"negative limit", "constraints:\n  max_thread_x: -1\n", "must not be negative"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"history without addr", "history:\n  enabled: true\n  addr: \"\"\n", "history.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidateUnknownProfileIsSentinel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profile = "voodoo2"
	if err := cfg.Validate(); !errors.Is(err, device.ErrUnknownProfile) {
		t.Errorf("Validate() error = %v, want ErrUnknownProfile", err)
	}
}

func TestResolveOverridesProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profile = "unbounded"
	cfg.Constraints = gpuverify.Constraints{gpuverify.KeyMaxThreadPerBlock: 64}

	c, err := cfg.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	l := gpuverify.ResolveLimits(c)
	if l.MaxThreadPerBlock != 64 {
		t.Errorf("MaxThreadPerBlock = %d, want 64", l.MaxThreadPerBlock)
	}
	if l.MaxSharedMemoryPerBlock != gpuverify.Unbounded {
		t.Errorf("MaxSharedMemoryPerBlock = %d, want Unbounded", l.MaxSharedMemoryPerBlock)
	}
}
