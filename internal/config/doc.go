// Package config manages the budsctl configuration file.
//
// The file is YAML and follows OS-specific conventions for its location:
//   - Linux: $XDG_CONFIG_HOME/budsctl/config.yaml or $HOME/.config/budsctl/config.yaml
//   - macOS: $HOME/.config/budsctl/config.yaml
//   - Windows: %LOCALAPPDATA%\budsctl\config.yaml
//
// A missing file is not an error; Load returns the defaults.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg.DeviceName = "HUAWEI FreeBuds Pro 3"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global configuration is loaded once with sync.Once. Writes go through
// a temporary file and a rename under a package mutex.
package config
