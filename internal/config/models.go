package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/muurk/budsctl/internal/transport"
)

// CurrentVersion is the only config file version this build understands.
const CurrentVersion = 1

// Defaults
const (
	DefaultBackoffBaseSeconds = 1
	DefaultBackoffMaxSeconds  = 30
	DefaultBridgeListen       = ":8765"

	maxBackoffSeconds = 3600
)

// Config is the whole configuration file.
type Config struct {
	Version int `yaml:"version"`

	// DeviceAddress pins the earbuds to connect to. When empty the first
	// supported paired device is used.
	DeviceAddress string `yaml:"device_address,omitempty"`
	// DeviceName is preferred when picking among paired devices.
	DeviceName string `yaml:"device_name,omitempty"`

	AutoConnect    bool   `yaml:"auto_connect"`
	StartMinimized bool   `yaml:"start_minimized"`
	LogLevel       string `yaml:"log_level,omitempty"`
	// CaptureDir enables JSON-lines packet captures when set.
	CaptureDir string `yaml:"capture_dir,omitempty"`

	Backoff *BackoffConfig `yaml:"backoff,omitempty"`
	Bridge  *BridgeConfig  `yaml:"bridge,omitempty"`

	path string
}

// BackoffConfig bounds the reconnect delays.
type BackoffConfig struct {
	BaseSeconds int `yaml:"base_seconds"`
	MaxSeconds  int `yaml:"max_seconds"`
}

// Base returns the first retry delay.
func (b *BackoffConfig) Base() time.Duration {
	return time.Duration(b.BaseSeconds) * time.Second
}

// Max returns the retry delay cap.
func (b *BackoffConfig) Max() time.Duration {
	return time.Duration(b.MaxSeconds) * time.Second
}

// BridgeConfig configures the websocket bridge started by "budsctl serve".
type BridgeConfig struct {
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"`
	// TLSCert and TLSKey are PEM files. Both or neither must be set.
	TLSCert string `yaml:"tls_cert,omitempty"`
	TLSKey  string `yaml:"tls_key,omitempty"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Version:     CurrentVersion,
		AutoConnect: true,
		Backoff:     defaultBackoff(),
		Bridge:      defaultBridge(),
	}
}

func defaultBackoff() *BackoffConfig {
	return &BackoffConfig{
		BaseSeconds: DefaultBackoffBaseSeconds,
		MaxSeconds:  DefaultBackoffMaxSeconds,
	}
}

func defaultBridge() *BridgeConfig {
	return &BridgeConfig{Listen: DefaultBridgeListen, Advertise: true}
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Address parses DeviceAddress. It returns the zero address when unset.
func (c *Config) Address() (transport.Address, error) {
	if c.DeviceAddress == "" {
		return transport.Address{}, nil
	}
	return transport.ParseAddress(c.DeviceAddress)
}

var validLogLevels = []string{"", "debug", "info", "warn", "warning", "error"}

// Validate checks the configuration for values the daemon cannot use.
func (c *Config) Validate() error {
	var errs []error

	if c.Version != CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion))
	}
	if _, err := c.Address(); err != nil {
		errs = append(errs, fmt.Errorf("device_address: %w", err))
	}

	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}

	if b := c.Backoff; b != nil {
		if b.BaseSeconds < 1 {
			errs = append(errs, fmt.Errorf("backoff.base_seconds must be at least 1, got %d", b.BaseSeconds))
		}
		if b.MaxSeconds < b.BaseSeconds {
			errs = append(errs, fmt.Errorf("backoff.max_seconds (%d) is below base_seconds (%d)", b.MaxSeconds, b.BaseSeconds))
		}
		if b.MaxSeconds > maxBackoffSeconds {
			errs = append(errs, fmt.Errorf("backoff.max_seconds must be at most %d, got %d", maxBackoffSeconds, b.MaxSeconds))
		}
	}

	if br := c.Bridge; br != nil {
		if _, _, err := net.SplitHostPort(br.Listen); err != nil {
			errs = append(errs, fmt.Errorf("bridge.listen: %w", err))
		}
		if (br.TLSCert == "") != (br.TLSKey == "") {
			errs = append(errs, errors.New("bridge.tls_cert and bridge.tls_key must be set together"))
		}
	}

	return errors.Join(errs...)
}
