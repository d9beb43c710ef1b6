// Package app provides configuration management and the top-level
// application that ties the console to a presentation backend.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AndrewNeo/nessharp/internal/graphics"
	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Title      string `json:"title"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Fullscreen bool   `json:"fullscreen"`
	Scale      int    `json:"scale"` // NES resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend      string  `json:"backend"` // "ebitengine", "headless", "terminal"
	Filter       string  `json:"filter"`  // "nearest", "linear"
	VSync        bool    `json:"vsync"`
	Brightness   float32 `json:"brightness"`
	Contrast     float32 `json:"contrast"`
	Saturation   float32 `json:"saturation"`
	DumpDir      string  `json:"dump_dir"`
	DumpInterval uint64  `json:"dump_interval"`
}

// InputConfig maps keyboard key names to controller button names.
// An empty table selects the built-in layout for that player.
type InputConfig struct {
	Player1Keys map[string]string `json:"player1_keys"`
	Player2Keys map[string]string `json:"player2_keys"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	Region        string `json:"region"` // only "NTSC"
	StrictOpcodes bool   `json:"strict_opcodes"`
	EntryPoint    string `json:"entry_point"` // hex, empty means the reset vector
	MaxFrames     uint64 `json:"max_frames"`  // 0 runs until stopped
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel  string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	CPUTrace  bool   `json:"cpu_trace"`
	TraceFile string `json:"trace_file"`
	StatsView bool   `json:"statsview"`
	TestROM   bool   `json:"test_rom"`

	// Text dumps of published frames
	FrameDumpDir      string `json:"frame_dump_dir"`
	FrameDumpInterval uint64 `json:"frame_dump_interval"`
	FrameDumpLimit    int    `json:"frame_dump_limit"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "nessharp",
			Width:  ppu.ScreenWidth * 2,
			Height: ppu.ScreenHeight * 2,
			Scale:  2,
		},
		Video: VideoConfig{
			Backend:      string(graphics.BackendEbitengine),
			Filter:       "nearest",
			VSync:        true,
			Brightness:   1.0,
			Contrast:     1.0,
			Saturation:   1.0,
			DumpInterval: 60,
		},
		Emulation: EmulationConfig{
			Region: "NTSC",
		},
		Debug: DebugConfig{
			LogLevel:          "INFO",
			TraceFile:         "trace.log",
			FrameDumpInterval: 60,
			FrameDumpLimit:    10,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// validate clamps out-of-range values and rejects the ones that cannot be
// repaired.
func (c *Config) validate() error {
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		c.Window.Width, c.Window.Height = c.WindowResolution()
	}

	if c.Video.Backend == "" {
		c.Video.Backend = string(graphics.BackendEbitengine)
	}
	if _, err := graphics.ParseBackendType(c.Video.Backend); err != nil {
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: err}
	}
	if c.Video.Filter != "nearest" && c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}
	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}
	if c.Video.DumpInterval == 0 {
		c.Video.DumpInterval = 1
	}

	if !strings.EqualFold(c.Emulation.Region, "NTSC") {
		c.Emulation.Region = "NTSC"
	}
	if _, _, err := c.EntryPoint(); err != nil {
		return err
	}
	if _, err := c.KeyMap(); err != nil {
		return &ConfigError{Field: "input", Value: c.Input, Err: err}
	}

	if _, ok := parseLevel(c.Debug.LogLevel); !ok {
		c.Debug.LogLevel = "INFO"
	}
	if c.Debug.FrameDumpInterval == 0 {
		c.Debug.FrameDumpInterval = 1
	}
	if c.Debug.FrameDumpLimit < 0 {
		c.Debug.FrameDumpLimit = 0
	}

	return nil
}

// EntryPoint parses the configured entry point. ok is false when the
// reset vector should be used.
func (c *Config) EntryPoint() (address uint16, ok bool, err error) {
	s := strings.TrimSpace(c.Emulation.EntryPoint)
	if s == "" {
		return 0, false, nil
	}
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false, &ConfigError{Field: "emulation.entry_point", Value: c.Emulation.EntryPoint, Err: err}
	}
	return uint16(v), true, nil
}

// KeyMap builds the keyboard layout from the input section.
func (c *Config) KeyMap() (graphics.KeyMap, error) {
	return graphics.NewKeyMap(c.Input.Player1Keys, c.Input.Player2Keys)
}

// BackendType returns the configured presentation backend.
func (c *Config) BackendType() (graphics.BackendType, error) {
	return graphics.ParseBackendType(c.Video.Backend)
}

// WindowResolution returns the window resolution based on scale
func (c *Config) WindowResolution() (int, int) {
	return ppu.ScreenWidth * c.Window.Scale, ppu.ScreenHeight * c.Window.Scale
}

// GraphicsConfig converts the window and video sections for a backend.
func (c *Config) GraphicsConfig() (graphics.Config, error) {
	keys, err := c.KeyMap()
	if err != nil {
		return graphics.Config{}, err
	}
	return graphics.Config{
		WindowTitle:  c.Window.Title,
		WindowWidth:  c.Window.Width,
		WindowHeight: c.Window.Height,
		Fullscreen:   c.Window.Fullscreen,
		VSync:        c.Video.VSync,
		Filter:       c.Video.Filter,
		Scale:        c.Window.Scale,
		Brightness:   c.Video.Brightness,
		Contrast:     c.Video.Contrast,
		Saturation:   c.Video.Saturation,
		DumpDir:      c.Video.DumpDir,
		DumpInterval: c.Video.DumpInterval,
		Keys:         keys,
	}, nil
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return filepath.Join("config", "nessharp.json")
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
