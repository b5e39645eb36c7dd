// Package config declaratively describes unit topologies.
//
// A topology file names units (cogs, flows, fan-outs), their queue
// capacities, and their wiring. Flows and fan-outs reference previously
// declared units by name, so a file reads bottom-up like the construction
// code it replaces. Unit options stay schemaless in YAML and are decoded
// into typed structs on demand.
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Kinds of units a topology can declare.
const (
	KindCog    = "cog"
	KindFlow   = "flow"
	KindFanout = "fanout"
)

// Capacity bounds the two queues of a unit. Zero means rendezvous.
type Capacity struct {
	In  int `yaml:"in"`
	Out int `yaml:"out"`
}

// UnitSpec declares one unit of the topology.
type UnitSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Capacity overrides the topology defaults. Omitting the block
	// inherits Defaults; an explicit {in: 0, out: 0} declares rendezvous
	// queues.
	Capacity *Capacity `yaml:"capacity,omitempty"`

	// Stages (flow) and Members (fanout) reference units declared earlier
	// in the file.
	Stages  []string `yaml:"stages,omitempty"`
	Members []string `yaml:"members,omitempty"`

	// Options carries kind-specific settings, decoded with DecodeOptions.
	Options map[string]any `yaml:"options,omitempty"`
}

// Config is a parsed, validated topology description.
type Config struct {
	Defaults Capacity   `yaml:"defaults"`
	Units    []UnitSpec `yaml:"units"`
}

// Load reads and parses a YAML topology file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Unit looks up the unit declared under name.
func (c *Config) Unit(name string) (UnitSpec, bool) {
	for _, u := range c.Units {
		if u.Name == name {
			return u, true
		}
	}
	return UnitSpec{}, false
}

// CapacityFor resolves a unit's effective queue capacities.
func (c *Config) CapacityFor(u UnitSpec) Capacity {
	if u.Capacity != nil {
		return *u.Capacity
	}
	return c.Defaults
}

func (c *Config) validate() error {
	if c.Defaults.In < 0 || c.Defaults.Out < 0 {
		return fmt.Errorf("defaults: capacities must not be negative")
	}

	declared := make(map[string]bool, len(c.Units))
	for _, u := range c.Units {
		if u.Name == "" {
			return fmt.Errorf("unit without a name")
		}
		if declared[u.Name] {
			return fmt.Errorf("unit %q: declared twice", u.Name)
		}

		if u.Capacity != nil && (u.Capacity.In < 0 || u.Capacity.Out < 0) {
			return fmt.Errorf("unit %q: capacities must not be negative", u.Name)
		}

		switch u.Kind {
		case KindCog:
			if len(u.Stages) > 0 || len(u.Members) > 0 {
				return fmt.Errorf("unit %q: a cog has neither stages nor members", u.Name)
			}
		case KindFlow:
			if len(u.Stages) == 0 {
				return fmt.Errorf("unit %q: a flow needs at least one stage", u.Name)
			}
			for _, ref := range u.Stages {
				if !declared[ref] {
					return fmt.Errorf("unit %q: stage %q is not declared above it", u.Name, ref)
				}
			}
		case KindFanout:
			if len(u.Members) == 0 {
				return fmt.Errorf("unit %q: a fanout needs at least one member", u.Name)
			}
			for _, ref := range u.Members {
				if !declared[ref] {
					return fmt.Errorf("unit %q: member %q is not declared above it", u.Name, ref)
				}
			}
		default:
			return fmt.Errorf("unit %q: unknown kind %q", u.Name, u.Kind)
		}

		declared[u.Name] = true
	}

	return nil
}

// DecodeOptions decodes a unit's options map into a typed struct.
func DecodeOptions[T any](u UnitSpec) (T, error) {
	var out T
	if err := mapstructure.Decode(u.Options, &out); err != nil {
		return out, fmt.Errorf("unit %q: failed to decode options: %w", u.Name, err)
	}
	return out, nil
}

// ChatOptions configures a chat-backed cog unit.
type ChatOptions struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
}
