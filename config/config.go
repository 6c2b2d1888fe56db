// Package config holds the runtime configuration: server address, narrator
// endpoint, typing pacing, and tour sizing. Values come from an optional
// YAML file overlaid with environment variables; the file can be
// hot-reloaded through the Loader.
package config

import (
	"os"
	"time"

	"github.com/tourline/tourline/playback"
)

// Config is the full runtime configuration.
type Config struct {
	Server   Server   `yaml:"server"`
	Narrator Narrator `yaml:"narrator"`
	Pacing   Pacing   `yaml:"pacing"`
	Tour     Tour     `yaml:"tour"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `yaml:"addr"`
}

// Narrator configures the narration provider. The API key is environment
// only and never read from the config file.
type Narrator struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"`
}

// Pacing configures per-character typing in milliseconds.
type Pacing struct {
	StepBudgetMs int `yaml:"step_budget_ms"`
	EndBufferMs  int `yaml:"end_buffer_ms"`
	MinFloorMs   int `yaml:"min_floor_ms"`
	CharMinMs    int `yaml:"char_min_ms"`
	CharMaxMs    int `yaml:"char_max_ms"`
}

// Playback converts the millisecond fields to playback pacing.
func (p Pacing) Playback() playback.Pacing {
	return playback.Pacing{
		StepBudget: time.Duration(p.StepBudgetMs) * time.Millisecond,
		EndBuffer:  time.Duration(p.EndBufferMs) * time.Millisecond,
		MinFloor:   time.Duration(p.MinFloorMs) * time.Millisecond,
		CharMin:    time.Duration(p.CharMinMs) * time.Millisecond,
		CharMax:    time.Duration(p.CharMaxMs) * time.Millisecond,
	}
}

// Tour configures tour selection.
type Tour struct {
	// Count is the number of stops selected for a tour.
	Count int `yaml:"count"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":8080"},
		Narrator: Narrator{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Pacing: Pacing{
			StepBudgetMs: 1000,
			EndBufferMs:  600,
			MinFloorMs:   120,
			CharMinMs:    4,
			CharMaxMs:    18,
		},
		Tour: Tour{Count: 12},
	}
}

// applyDefaults fills zero-valued fields after a file load.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Narrator.BaseURL == "" {
		c.Narrator.BaseURL = def.Narrator.BaseURL
	}
	if c.Narrator.Model == "" {
		c.Narrator.Model = def.Narrator.Model
	}
	if c.Pacing.StepBudgetMs == 0 {
		c.Pacing.StepBudgetMs = def.Pacing.StepBudgetMs
	}
	if c.Pacing.EndBufferMs == 0 {
		c.Pacing.EndBufferMs = def.Pacing.EndBufferMs
	}
	if c.Pacing.MinFloorMs == 0 {
		c.Pacing.MinFloorMs = def.Pacing.MinFloorMs
	}
	if c.Pacing.CharMinMs == 0 {
		c.Pacing.CharMinMs = def.Pacing.CharMinMs
	}
	if c.Pacing.CharMaxMs == 0 {
		c.Pacing.CharMaxMs = def.Pacing.CharMaxMs
	}
	if c.Tour.Count == 0 {
		c.Tour.Count = def.Tour.Count
	}
}

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("TOURLINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Narrator.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Narrator.Model = v
	}
	c.Narrator.APIKey = os.Getenv("OPENAI_API_KEY")
}
