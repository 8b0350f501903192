// Package editor assembles one editing session: the config store, the
// debounced preview pipelines, the playback scheduler and the render
// service client. The session is the only writer of playback state; the
// overlay and the CLI observe.
package editor

import (
	"context"
	"fmt"

	"github.com/ivlev/creditroll/internal/config"
	"github.com/ivlev/creditroll/internal/model"
	"github.com/ivlev/creditroll/internal/playback"
	"github.com/ivlev/creditroll/internal/preview"
	"github.com/ivlev/creditroll/internal/project"
	"github.com/ivlev/creditroll/internal/renderapi"
	"github.com/ivlev/creditroll/internal/system"
)

type Session struct {
	Config    *config.Config
	Store     *model.Store
	Client    *renderapi.Client
	Scheduler *playback.Scheduler
	Preview   *preview.Manager

	driver *playback.Driver
}

// NewSession wires a session around a loaded project. The store broadcast
// feeds the preview manager; chunk/full results feed the scheduler's
// scrollable extent. Returns an error for degenerate playback settings in
// the project so they never reach the tick loop.
func NewSession(ctx context.Context, cfg *config.Config, proj *project.Project) (*Session, error) {
	store := model.NewStore(proj.Config)
	client := renderapi.NewClient(cfg.ServerURL)

	sched := playback.NewScheduler(nil)
	sched.SetViewportHeight(float64(proj.Config.Height))
	if err := applyPlayback(sched, cfg, proj); err != nil {
		return nil, err
	}

	chunkHeight := cfg.ChunkHeight
	if chunkHeight <= 0 {
		chunkHeight = system.ChunkHeight(proj.Config.Width)
	}

	mgr := preview.NewManager(ctx, client, sched, chunkHeight, nil)
	mgr.SetUseScrollPreview(cfg.UseScrollPreview)
	store.Subscribe(mgr.OnConfigChange)
	store.Subscribe(func(snap model.Snapshot) {
		// Canvas resize moves the viewport; the scrollable extent stays
		// whatever the server last reported.
		sched.SetViewportHeight(float64(snap.Config.Height))
	})

	s := &Session{
		Config:    cfg,
		Store:     store,
		Client:    client,
		Scheduler: sched,
		Preview:   mgr,
	}
	s.driver = playback.NewDriver(sched, 0)

	// Seed the pipelines with the loaded document.
	mgr.OnConfigChange(store.Snapshot())
	return s, nil
}

func applyPlayback(sched *playback.Scheduler, cfg *config.Config, proj *project.Project) error {
	pb := proj.Playback
	rate := pb.FrameRate
	if rate == 0 {
		rate = cfg.FrameRate
	}
	if err := sched.SetFrameRate(rate); err != nil {
		return fmt.Errorf("project playback: %w", err)
	}

	mode := pb.Mode
	if mode == "" {
		mode = cfg.Mode
	}
	switch mode {
	case "duration":
		sched.SetMode(playback.ModeDuration)
	case "speed", "":
		sched.SetMode(playback.ModeSpeed)
	default:
		return fmt.Errorf("project playback: unknown mode %q", mode)
	}

	if pb.SpeedPxPerSec > 0 {
		if err := sched.SetSpeed(pb.SpeedPxPerSec); err != nil {
			return err
		}
	}
	if pb.DurationSec > 0 {
		if err := sched.SetDuration(pb.DurationSec); err != nil {
			return err
		}
	}
	return nil
}

// Play starts the real-time driver.
func (s *Session) Play(ctx context.Context) error {
	return s.driver.Start(ctx)
}

// Pause stops ticking but keeps the position; Play resumes from it.
func (s *Session) Pause() {
	s.driver.Stop()
}

// Positions exposes the driver's latest playback samples.
func (s *Session) Positions() <-chan playback.Position {
	return s.driver.Positions()
}

// Scrub jumps to a pixel offset and requests the matching preview chunk.
func (s *Session) Scrub(offsetPx float64) {
	s.Scheduler.SeekOffset(offsetPx)
	s.Preview.RequestChunk(int(s.Scheduler.ScrollOffset()))
}

// ReturnToTop resets playback and re-requests the top chunk.
func (s *Session) ReturnToTop() {
	s.Scheduler.Reset()
	s.Preview.RequestChunk(0)
}

// Close releases the driver and pending debounced fetches.
func (s *Session) Close() {
	s.driver.Stop()
	s.Preview.Close()
}

// PerformanceReport formats playback and preview statistics.
func (s *Session) PerformanceReport() string {
	st := s.Scheduler.Status()
	report := fmt.Sprintf(
		"--- [PLAYBACK REPORT] ---\n"+
			"Build: %s\n"+
			"Target FPS: %.3f\n"+
			"Measured FPS: %.2f\n"+
			"Frame: %d\n"+
			"Offset: %.1fpx (%.3fpx/frame)\n"+
			"Mode: %s\n",
		s.Config.BuildVersion, st.FrameRate, st.MeasuredFPS, st.FrameIndex, st.ScrollOffsetPx, st.PixelsPerFrame, st.Mode,
	)

	if r, ok := s.Preview.Resolve(); ok {
		report += fmt.Sprintf("Preview: %s (%.1fms, total height %dpx)\n", r.Source, r.RenderTimeMs, r.TotalHeight)
	} else {
		report += "Preview: none yet\n"
	}
	report += "-------------------------\n"
	return report
}
