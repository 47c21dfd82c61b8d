package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/budsctl/internal/device"
)

// CurrentVersion is the preset file format version.
const CurrentVersion = 1

// ErrUnsupported marks a setting the connected device does not expose.
var ErrUnsupported = errors.New("not supported by this device")

// Setting is one stored property and its wanted value.
type Setting struct {
	Category string `yaml:"category"`
	Key      string `yaml:"key"`
	Value    string `yaml:"value"`
}

func (s Setting) String() string {
	return s.Category + "." + s.Key + "=" + s.Value
}

// Preset is a named list of settings.
type Preset struct {
	Version  int       `yaml:"version"`
	Name     string    `yaml:"name,omitempty"`
	Device   string    `yaml:"device,omitempty"`
	Settings []Setting `yaml:"settings"`
}

// FromSnapshot records the current value of every control in snapshot.
func FromSnapshot(name, deviceName string, snapshot map[string]map[string]string) *Preset {
	p := &Preset{Version: CurrentVersion, Name: name, Device: deviceName}
	for _, c := range device.Controls(snapshot) {
		p.Settings = append(p.Settings, Setting{Category: c.Category, Key: c.Key, Value: c.Value})
	}
	return p
}

// Load reads a preset file.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset %s: %w", path, err)
	}
	if p.Version == 0 {
		p.Version = CurrentVersion
	}
	if p.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported preset version %d", p.Version)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &p, nil
}

// Save writes the preset as YAML.
func (p *Preset) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create preset directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset: %w", err)
	}
	return nil
}

// Step is a setting resolved against the device's controls.
type Step struct {
	Setting
	Control device.Control
}

// Previous returns the setting that undoes the step.
func (s Step) Previous() Setting {
	return Setting{Category: s.Category, Key: s.Key, Value: s.Control.Value}
}

// Changed reports whether the step changes the device.
func (s Step) Changed() bool {
	return s.Control.Value != s.Value
}

// Plan resolves every setting against the controls in snapshot. Unknown
// settings and values outside a control's options are returned as errors;
// the remaining steps are still usable.
func (p *Preset) Plan(snapshot map[string]map[string]string) ([]Step, []error) {
	controls := make(map[string]device.Control)
	for _, c := range device.Controls(snapshot) {
		controls[c.Category+"."+c.Key] = c
	}

	var (
		steps []Step
		errs  []error
		seen  = make(map[string]bool)
	)
	for _, s := range p.Settings {
		id := s.Category + "." + s.Key
		if seen[id] {
			errs = append(errs, fmt.Errorf("%s: listed more than once", id))
			continue
		}
		seen[id] = true

		c, ok := controls[id]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", id, ErrUnsupported))
			continue
		}
		if !contains(c.Options, s.Value) {
			errs = append(errs, fmt.Errorf("%s: invalid value %q (want one of %s)", id, s.Value, strings.Join(c.Options, ", ")))
			continue
		}
		steps = append(steps, Step{Setting: s, Control: c})
	}
	return steps, errs
}

// FormatChanges lists what applying steps would change.
func FormatChanges(steps []Step) string {
	var lines []string
	for _, s := range steps {
		if s.Changed() {
			lines = append(lines, fmt.Sprintf("  %s.%s: %s → %s", s.Category, s.Key, s.Control.Value, s.Value))
		}
	}
	if len(lines) == 0 {
		return "  (no changes)"
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
