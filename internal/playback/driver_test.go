package playback

import (
	"context"
	"testing"
	"time"
)

func TestDriverTicksAndStops(t *testing.T) {
	s := NewScheduler(nil)
	s.SetViewportHeight(1080)
	s.SetTotalHeight(5080)

	d := NewDriver(s, 5*time.Millisecond)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var last Position
	deadline := time.After(2 * time.Second)
	for last.FrameIndex < 3 {
		select {
		case last = <-d.Positions():
		case <-deadline:
			t.Fatal("driver produced no advancing positions")
		}
	}

	d.Stop()
	if s.Status().Running {
		t.Error("scheduler still running after driver stop")
	}
	frame := s.FrameIndex()

	// A stopped driver leaves the position alone.
	time.Sleep(50 * time.Millisecond)
	if got := s.FrameIndex(); got != frame {
		t.Errorf("frame moved after stop: %d -> %d", frame, got)
	}
}

func TestDriverRestart(t *testing.T) {
	s := NewScheduler(nil)
	s.SetViewportHeight(1080)
	s.SetTotalHeight(50000)

	d := NewDriver(s, 5*time.Millisecond)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	d.Stop()
	frame := s.FrameIndex()
	if frame == 0 {
		t.Fatal("no frames advanced in 100ms")
	}

	// Resume continues from the retained frame.
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	d.Stop()
	if got := s.FrameIndex(); got <= frame {
		t.Errorf("no progress after resume: %d -> %d", frame, got)
	}
}
