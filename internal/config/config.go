// Package config loads the demo's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top level configuration file
type Config struct {
	Window   Window   `yaml:"window"`
	Controls Controls `yaml:"controls"`
	Camera   Camera   `yaml:"camera"`
	Network  Network  `yaml:"network"`
	Log      Log      `yaml:"log"`
}

// Window configures the GLFW window
type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

// Controls configures the fly controls
type Controls struct {
	MovementSpeed float32 `yaml:"movement_speed"`
	LookSpeed     float32 `yaml:"look_speed"`
}

// Camera configures the projection and starting pose
type Camera struct {
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
	LookAt   [3]float32 `yaml:"look_at"`
}

// Network configures the optional position publisher
type Network struct {
	Server string `yaml:"server"`
	Name   string `yaml:"name"`
}

// Log configures the zap logger
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Window: Window{
			Width:  1280,
			Height: 720,
			Title:  "Fly Controls",
			VSync:  true,
		},
		Controls: Controls{
			MovementSpeed: 10.0,
			LookSpeed:     1.0,
		},
		Camera: Camera{
			FOV:      45.0,
			Near:     0.1,
			Far:      1000.0,
			Position: [3]float32{0, 5, 20},
			LookAt:   [3]float32{0, 0, 0},
		},
		Network: Network{
			Name: "Player",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads path on top of the defaults. Missing keys keep their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that values are usable
func (c *Config) Validate() error {
	var errs []error

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Controls.MovementSpeed < 0 {
		errs = append(errs, fmt.Errorf("movement_speed must not be negative, got %g", c.Controls.MovementSpeed))
	}
	if c.Controls.LookSpeed < 0 {
		errs = append(errs, fmt.Errorf("look_speed must not be negative, got %g", c.Controls.LookSpeed))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov must be in (0, 180), got %g", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("clip planes must satisfy 0 < near < far, got near=%g far=%g", c.Camera.Near, c.Camera.Far))
	}
	if len(c.Network.Name) > 64 {
		errs = append(errs, fmt.Errorf("network name longer than 64 bytes"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
