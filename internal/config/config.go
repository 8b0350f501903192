package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the editor's runtime configuration: where the render service
// lives and how playback starts out. Flags override file values.
type Config struct {
	ServerURL string `yaml:"server_url"`

	FrameRate     float64 `yaml:"frame_rate"`
	Mode          string  `yaml:"mode"` // "speed" or "duration"
	SpeedPxPerSec float64 `yaml:"speed_px_per_sec"`
	DurationSec   float64 `yaml:"duration_sec"`

	UseScrollPreview bool `yaml:"use_scroll_preview"`
	// ChunkHeight 0 selects an automatic, memory-based value.
	ChunkHeight int `yaml:"chunk_height"`

	OutputDir    string `yaml:"output_dir"`
	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		ServerURL:        "http://localhost:8000",
		FrameRate:        24,
		Mode:             "speed",
		SpeedPxPerSec:    100,
		DurationSec:      20,
		UseScrollPreview: true,
		OutputDir:        "output",
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
