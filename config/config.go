// Package config loads gorigd's YAML configuration file (spec.md §6): which
// radio to drive, how to reach it, how rigctld should listen, how PTT is
// keyed, and the logging level.
//
// Grounded on the teacher's own init-time YAML load in src/deviceid.go
// (os.Open + io.ReadAll + yaml.Unmarshal into a plain struct); this package
// generalizes that one-shot load into a reusable Load/LoadFile pair instead
// of a package-level init() side effect, since config here is operator data,
// not a release-fixed table.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kd9vec/gorigd/rig"
)

// Config is the root of the YAML schema described in spec.md §6.
type Config struct {
	Rig     RigConfig     `yaml:"rig"`
	Rigctld RigctldConfig `yaml:"rigctld"`
	PTT     PTTConfig     `yaml:"ptt"`
	Logging LoggingConfig `yaml:"logging"`
}

// RigConfig selects the model and the serial device it's reachable on.
type RigConfig struct {
	Model      rig.ModelID `yaml:"model"`
	Device     string      `yaml:"device"`
	Baud       int         `yaml:"baud"`        // 0 = use model default
	CIVAddress byte        `yaml:"civ_address"` // 0 = use model default
}

// RigctldConfig controls the TCP daemon's listen address and advertisement.
type RigctldConfig struct {
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"`
}

// PTTBackendKind selects how PTT is keyed: in-band CAT command, or a GPIO
// line independent of the CAT channel.
type PTTBackendKind string

const (
	PTTBackendCAT  PTTBackendKind = "cat"
	PTTBackendGPIO PTTBackendKind = "gpio"
)

// PTTConfig configures the PTT backend, spec.md §6.
type PTTConfig struct {
	Backend  PTTBackendKind `yaml:"backend"`
	GPIOChip string         `yaml:"gpio_chip"`
	GPIOLine int            `yaml:"gpio_line"`
}

// LoggingConfig controls charmbracelet/log's reporting level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration spec.md §6 lists as the schema's
// baseline: CAT PTT, rigctld's conventional port, no DNS-SD advertisement.
func Default() Config {
	return Config{
		Rigctld: RigctldConfig{Listen: ":4532"},
		PTT:     PTTConfig{Backend: PTTBackendCAT},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load parses YAML data into a Config seeded from Default, so a partial
// file only overrides the fields it sets.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data)
}

// Validate checks the fields Load can't verify on its own (required values,
// cross-field consistency) before a Controller is built from it.
func (c Config) Validate() error {
	if c.Rig.Model == "" {
		return fmt.Errorf("config: rig.model is required")
	}
	if c.Rig.Device == "" {
		return fmt.Errorf("config: rig.device is required")
	}
	if c.PTT.Backend != PTTBackendCAT && c.PTT.Backend != PTTBackendGPIO {
		return fmt.Errorf("config: ptt.backend must be %q or %q, got %q", PTTBackendCAT, PTTBackendGPIO, c.PTT.Backend)
	}
	if c.PTT.Backend == PTTBackendGPIO && c.PTT.GPIOChip == "" {
		return fmt.Errorf("config: ptt.gpio_chip is required when ptt.backend is gpio")
	}
	return nil
}
