package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		dir, err := GetConfigDir()
		if err != nil {
			t.Fatalf("GetConfigDir() error = %v", err)
		}
		if want := filepath.Join("/tmp/xdg", "budsctl"); dir != want {
			t.Errorf("GetConfigDir() = %v, want %v", dir, want)
		}
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", path)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("Default().Version = %v, want 1", cfg.Version)
	}
	if !cfg.AutoConnect {
		t.Error("Default().AutoConnect should be true")
	}
	if got := cfg.Backoff.Base(); got != time.Second {
		t.Errorf("Default().Backoff.Base() = %v, want 1s", got)
	}
	if got := cfg.Backoff.Max(); got != 30*time.Second {
		t.Errorf("Default().Backoff.Max() = %v, want 30s", got)
	}
	if cfg.Bridge.Listen != ":8765" || !cfg.Bridge.Advertise {
		t.Errorf("Default().Bridge = %+v, want :8765 advertised", cfg.Bridge)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid address", modify: func(c *Config) { c.DeviceAddress = "aa:bb:cc:dd:ee:ff" }},
		{name: "bad address", modify: func(c *Config) { c.DeviceAddress = "aa:bb:cc" }, wantErr: "device_address"},
		{name: "bad version", modify: func(c *Config) { c.Version = 2 }, wantErr: "unsupported config version"},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "zero base", modify: func(c *Config) { c.Backoff.BaseSeconds = 0 }, wantErr: "base_seconds"},
		{name: "max below base", modify: func(c *Config) { c.Backoff.MaxSeconds = 0 }, wantErr: "below base_seconds"},
		{name: "max too large", modify: func(c *Config) { c.Backoff.MaxSeconds = 7200 }, wantErr: "at most"},
		{name: "bad listen", modify: func(c *Config) { c.Bridge.Listen = "8765" }, wantErr: "bridge.listen"},
		{name: "cert without key", modify: func(c *Config) { c.Bridge.TLSCert = "bridge.pem" }, wantErr: "tls_key"},
		{name: "cert and key", modify: func(c *Config) { c.Bridge.TLSCert, c.Bridge.TLSKey = "bridge.pem", "bridge.key" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %v, want %v", cfg.Path(), path)
	}
	if !cfg.AutoConnect {
		t.Error("missing file should load defaults")
	}
}

func TestLoadFilePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `version: 1
device_name: "HUAWEI FreeBuds 5i"
auto_connect: false
backoff:
  base_seconds: 2
  max_seconds: 60
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.DeviceName != "HUAWEI FreeBuds 5i" {
		t.Errorf("DeviceName = %q, want HUAWEI FreeBuds 5i", cfg.DeviceName)
	}
	if cfg.AutoConnect {
		t.Error("AutoConnect = true, want false")
	}
	if cfg.Backoff.Base() != 2*time.Second || cfg.Backoff.Max() != time.Minute {
		t.Errorf("Backoff = %+v, want 2s..60s", cfg.Backoff)
	}
	if cfg.Bridge == nil || cfg.Bridge.Listen != DefaultBridgeListen {
		t.Errorf("Bridge = %+v, want defaults", cfg.Bridge)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "future version", data: "version: 3\n", wantErr: "unsupported config version"},
		{name: "invalid yaml", data: "version: [1\n", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.DeviceAddress = "AA:BB:CC:DD:EE:FF"
	cfg.CaptureDir = "/tmp/captures"
	cfg.Bridge.Advertise = false
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.DeviceAddress != cfg.DeviceAddress {
		t.Errorf("Loaded DeviceAddress = %v, want %v", loaded.DeviceAddress, cfg.DeviceAddress)
	}
	if loaded.CaptureDir != "/tmp/captures" {
		t.Errorf("Loaded CaptureDir = %v, want /tmp/captures", loaded.CaptureDir)
	}
	if loaded.Bridge.Advertise {
		t.Error("Loaded Bridge.Advertise = true, want false")
	}

	addr, err := loaded.Address()
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if addr.String() != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Address() = %v, want AA:BB:CC:DD:EE:FF", addr)
	}
}
