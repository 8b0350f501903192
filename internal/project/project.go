package project

import (
	"github.com/ivlev/creditroll/internal/model"
)

// Project is a saved editor document: a named render config plus the
// playback parameters the operator last used.
type Project struct {
	Version  string             `yaml:"version"`
	Name     string             `yaml:"name"`
	Config   model.RenderConfig `yaml:"config"`
	Playback PlaybackSettings   `yaml:"playback"`
}

// PlaybackSettings stores the timing parameters alongside the document so
// a reopened project scrubs and exports identically.
type PlaybackSettings struct {
	FrameRate     float64 `yaml:"frame_rate"`
	Mode          string  `yaml:"mode"` // "speed" or "duration"
	SpeedPxPerSec float64 `yaml:"speed_px_per_sec"`
	DurationSec   float64 `yaml:"duration_sec"`
}

// New returns an empty project with current defaults.
func New(name string) *Project {
	return &Project{
		Version: "1.0",
		Name:    name,
		Config:  model.NewRenderConfig(),
		Playback: PlaybackSettings{
			FrameRate:     24,
			Mode:          "speed",
			SpeedPxPerSec: 100,
			DurationSec:   20,
		},
	}
}
