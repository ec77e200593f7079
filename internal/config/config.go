package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/npcbrain/internal/core/ai/archetype"
	"github.com/zeusync/npcbrain/internal/core/observability/log"
	"github.com/zeusync/npcbrain/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the simulation configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Simulation SimulationConfig `yaml:"simulation"`
	Target     TargetConfig     `yaml:"target"`
	Spawns     []SpawnConfig    `yaml:"spawns"`
	Stream     StreamConfig     `yaml:"stream"`
	Archetypes ArchetypesConfig `yaml:"archetypes"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

type SimulationConfig struct {
	TickRate    int     `yaml:"tick_rate"` // Ticks per second
	Ticks       int     `yaml:"ticks"`     // Zero runs until interrupted
	Workers     int     `yaml:"workers"`   // Zero uses GOMAXPROCS
	Gravity     float64 `yaml:"gravity"`
	GroundLevel float64 `yaml:"ground_level"`
}

type TargetConfig struct {
	Position        Position `yaml:"position"`
	Visible         *bool    `yaml:"visible"`
	VisibilityRange float64  `yaml:"visibility_range"`
}

type SpawnConfig struct {
	Archetype string   `yaml:"archetype"`
	Count     int      `yaml:"count"`
	Position  Position `yaml:"position"`
	Spacing   float64  `yaml:"spacing"` // Distance along X between consecutive spawns
}

type StreamConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Addr         string  `yaml:"addr"`
	MaxClients   int     `yaml:"max_clients"`  // Zero means unlimited
	ConnectRate  float64 `yaml:"connect_rate"` // Connections per second per remote IP; zero means unlimited
	ConnectBurst int     `yaml:"connect_burst"`
}

type ArchetypesConfig struct {
	File  string `yaml:"file"`  // Extra archetype definitions merged over the built-in ones
	Watch bool   `yaml:"watch"` // Reload File when it changes
}

// Position is written as a [x, y, z] list.
type Position []float64

func (p Position) Vec() physics.Vec3 {
	if len(p) != 3 {
		return physics.Vec3{}
	}
	return physics.V3(p[0], p[1], p[2])
}

const (
	DefaultTickRate   = 20
	DefaultStreamAddr = ":8080"
	DefaultLogLevel   = "info"
)

// Default returns a configuration that spawns one of each built-in archetype.
func Default() *Config {
	c := &Config{}
	for i, kind := range archetype.EnemyTypes() {
		c.Spawns = append(c.Spawns, SpawnConfig{
			Archetype: kind.String(),
			Count:     1,
			Position:  Position{float64(i) * 10, 0, 20},
		})
	}
	c.Target.Position = Position{0, 0, 0}
	c.ApplyDefaults()
	return c
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML, applies defaults and validates.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Simulation.TickRate == 0 {
		c.Simulation.TickRate = DefaultTickRate
	}
	if c.Simulation.Gravity == 0 {
		c.Simulation.Gravity = physics.DefaultGravity
	}
	if c.Target.Position == nil {
		c.Target.Position = Position{0, 0, 0}
	}
	if c.Target.Visible == nil {
		visible := true
		c.Target.Visible = &visible
	}
	if c.Stream.Addr == "" {
		c.Stream.Addr = DefaultStreamAddr
	}
	if c.Stream.ConnectRate > 0 && c.Stream.ConnectBurst == 0 {
		c.Stream.ConnectBurst = 1
	}
	for i := range c.Spawns {
		if c.Spawns[i].Count == 0 {
			c.Spawns[i].Count = 1
		}
		if c.Spawns[i].Position == nil {
			c.Spawns[i].Position = Position{0, 0, 0}
		}
	}
}

// Validate reports every problem, joined and wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Simulation.TickRate < 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate))
	}
	if c.Simulation.Ticks < 0 {
		errs = append(errs, fmt.Errorf("simulation.ticks must not be negative, got %d", c.Simulation.Ticks))
	}
	if c.Simulation.Workers < 0 {
		errs = append(errs, fmt.Errorf("simulation.workers must not be negative, got %d", c.Simulation.Workers))
	}
	if c.Simulation.Gravity < 0 {
		errs = append(errs, fmt.Errorf("simulation.gravity must not be negative, got %g", c.Simulation.Gravity))
	}
	if len(c.Target.Position) != 3 {
		errs = append(errs, fmt.Errorf("target.position needs 3 coordinates, got %d", len(c.Target.Position)))
	}
	if c.Target.VisibilityRange < 0 {
		errs = append(errs, fmt.Errorf("target.visibility_range must not be negative, got %g", c.Target.VisibilityRange))
	}
	for i, s := range c.Spawns {
		if s.Archetype == "" {
			errs = append(errs, fmt.Errorf("spawns[%d].archetype is required", i))
		}
		if s.Count < 0 {
			errs = append(errs, fmt.Errorf("spawns[%d].count must not be negative, got %d", i, s.Count))
		}
		if len(s.Position) != 3 {
			errs = append(errs, fmt.Errorf("spawns[%d].position needs 3 coordinates, got %d", i, len(s.Position)))
		}
	}
	if c.Stream.Enabled && c.Stream.Addr == "" {
		errs = append(errs, errors.New("stream.addr is required when the stream is enabled"))
	}
	if c.Stream.MaxClients < 0 {
		errs = append(errs, fmt.Errorf("stream.max_clients must not be negative, got %d", c.Stream.MaxClients))
	}
	if c.Stream.ConnectRate < 0 || c.Stream.ConnectBurst < 0 {
		errs = append(errs, errors.New("stream.connect_rate and stream.connect_burst must not be negative"))
	}
	if c.Archetypes.Watch && c.Archetypes.File == "" {
		errs = append(errs, errors.New("archetypes.watch requires archetypes.file"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the parsed log level. Call after Validate.
func (c *Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}

// TargetVisible reports the configured target visibility.
func (c *Config) TargetVisible() bool {
	return c.Target.Visible == nil || *c.Target.Visible
}

// Catalog returns the built-in archetypes merged with archetypes.file, if set.
func (c *Config) Catalog() (*archetype.Catalog, error) {
	catalog, err := archetype.Defaults()
	if err != nil {
		return nil, err
	}
	if c.Archetypes.File == "" {
		return catalog, nil
	}

	extra, err := archetype.LoadFile(c.Archetypes.File)
	if err != nil {
		return nil, fmt.Errorf("config: archetypes: %w", err)
	}
	catalog.Merge(extra)
	return catalog, nil
}

// Positions returns where each of the Count entities is placed.
func (s SpawnConfig) Positions() []physics.Vec3 {
	out := make([]physics.Vec3, 0, s.Count)
	origin := s.Position.Vec()
	for i := range s.Count {
		out = append(out, origin.Add(physics.V3(float64(i)*s.Spacing, 0, 0)))
	}
	return out
}
