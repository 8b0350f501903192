// Package playback drives the scroll animation. A fixed-timestep
// accumulator converts wall-clock deltas into whole-frame advances, so the
// scroll position for a given elapsed time is identical to what a frame
// sequence exported at the same fps/duration/speed would contain.
package playback

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Mode selects how the effective scroll speed is derived.
type Mode int

const (
	// ModeSpeed uses a fixed px/sec value.
	ModeSpeed Mode = iota
	// ModeDuration derives speed so the whole scrollable extent passes in
	// DurationSec, recomputed as the server reports new total heights.
	ModeDuration
)

func (m Mode) String() string {
	if m == ModeDuration {
		return "duration"
	}
	return "speed"
}

// FrameRates is the selectable target rate set.
var FrameRates = []float64{23.976, 24, 25, 29.97, 30, 50, 59.94, 60}

// ValidFrameRate reports whether r is one of FrameRates.
func ValidFrameRate(r float64) bool {
	for _, fr := range FrameRates {
		if math.Abs(fr-r) < 1e-9 {
			return true
		}
	}
	return false
}

// Status is a read-only copy of the playback state.
type Status struct {
	Running        bool
	FrameRate      float64
	Mode           Mode
	SpeedPxPerSec  float64
	DurationSec    float64
	FrameIndex     uint64
	ScrollOffsetPx float64
	PixelsPerFrame float64
	MeasuredFPS    float64
}

// Scheduler is the playback state machine. All methods are safe for
// concurrent use; the tick driver and readers interleave on the one mutex.
// The clock is injected so tests feed synthetic timestamps.
type Scheduler struct {
	now func() time.Time

	mu       sync.Mutex
	running  bool
	rate     float64
	mode     Mode
	speed    float64 // px/sec, ModeSpeed
	duration float64 // sec, ModeDuration

	frameIndex uint64
	accMs      float64
	offsetPx   float64

	totalHeight    float64 // server-reported scrollable extent
	viewportHeight float64

	anchored bool
	lastTick time.Time

	// measured throughput: rolling 1s window of tick times, readout
	// refreshed no more often than every 500ms to avoid churn.
	window     []time.Time
	measured   float64
	measuredAt time.Time
}

// NewScheduler builds a stopped scheduler. clock may be nil, defaulting to
// time.Now.
func NewScheduler(clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		now:      clock,
		rate:     24,
		mode:     ModeSpeed,
		speed:    100,
		duration: 20,
	}
}

// Start moves Stopped -> Running. The wall-clock anchor and sub-frame
// accumulator are cleared; frame index is kept so playback resumes from
// the current position.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("playback already running")
	}
	s.running = true
	s.anchored = false
	s.accMs = 0
	return nil
}

// Stop moves Running -> Stopped, retaining frame index and offset.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return fmt.Errorf("playback not running")
	}
	s.running = false
	return nil
}

// Reset returns to the top: frame 0, offset 0. Valid in either state.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameIndex = 0
	s.accMs = 0
	s.recompute()
}

// Seek jumps to an absolute frame index without changing the run state.
func (s *Scheduler) Seek(frame uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameIndex = frame
	s.recompute()
}

// SeekOffset derives the nearest frame for a pixel offset via
// floor(px / pixels_per_frame). With no scrollable content the position
// collapses to frame 0.
func (s *Scheduler) SeekOffset(px float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ppf := s.pixelsPerFrame()
	if ppf > 0 && px > 0 {
		s.frameIndex = uint64(math.Floor(px / ppf))
	} else {
		s.frameIndex = 0
	}
	s.recompute()
}

// Tick advances the animation. Call once per display callback while
// running; a stopped scheduler ignores ticks. The first tick after Start
// only records the anchor, so a stale pre-start timestamp never produces a
// huge initial jump.
func (s *Scheduler) Tick() (frame uint64, offsetPx float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.frameIndex, s.offsetPx
	}

	now := s.now()
	s.recordTick(now)

	if !s.anchored {
		s.anchored = true
		s.lastTick = now
		s.recompute()
		return s.frameIndex, s.offsetPx
	}

	delta := float64(now.Sub(s.lastTick)) / float64(time.Millisecond)
	s.lastTick = now
	if delta > 0 {
		s.accMs += delta
	}

	frameDur := 1000 / s.rate
	for s.accMs >= frameDur {
		s.accMs -= frameDur
		s.frameIndex++
	}

	s.recompute()
	return s.frameIndex, s.offsetPx
}

// SetFrameRate switches the target rate, converting the frame index so the
// elapsed time it represents is preserved:
//
//	new_index = floor(old_index / old_rate * new_rate)
//
// Floor, not round, also at fractional rates like 23.976: a sub-frame step
// backward is invisible, a step forward is not.
func (s *Scheduler) SetFrameRate(r float64) error {
	if !ValidFrameRate(r) {
		return fmt.Errorf("unsupported frame rate %v", r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != s.rate {
		s.frameIndex = uint64(math.Floor(float64(s.frameIndex) / s.rate * r))
		s.rate = r
		s.accMs = 0
	}
	s.recompute()
	return nil
}

// SetMode switches between Speed and Duration. The effective speed is
// re-derived from the current total height; the frame index is untouched.
func (s *Scheduler) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.recompute()
}

// SetSpeed sets the ModeSpeed scroll speed in px/sec.
func (s *Scheduler) SetSpeed(pxPerSec float64) error {
	if pxPerSec <= 0 || math.IsNaN(pxPerSec) || math.IsInf(pxPerSec, 0) {
		return fmt.Errorf("speed must be > 0, got %v", pxPerSec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = pxPerSec
	s.recompute()
	return nil
}

// SetDuration sets the ModeDuration total scroll time in seconds.
func (s *Scheduler) SetDuration(sec float64) error {
	if sec <= 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return fmt.Errorf("duration must be > 0, got %v", sec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = sec
	s.recompute()
	return nil
}

// SetTotalHeight installs a new server-reported scrollable extent. The
// value is replaced wholesale; a tick between preview responses simply
// reads the previous snapshot.
func (s *Scheduler) SetTotalHeight(px float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if px < 0 {
		px = 0
	}
	s.totalHeight = px
	s.recompute()
}

// SetViewportHeight sets the visible window height.
func (s *Scheduler) SetViewportHeight(px float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if px < 0 {
		px = 0
	}
	s.viewportHeight = px
	s.recompute()
}

// Status returns a copy of the current state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:        s.running,
		FrameRate:      s.rate,
		Mode:           s.mode,
		SpeedPxPerSec:  s.speed,
		DurationSec:    s.duration,
		FrameIndex:     s.frameIndex,
		ScrollOffsetPx: s.offsetPx,
		PixelsPerFrame: s.pixelsPerFrame(),
		MeasuredFPS:    s.measured,
	}
}

// ScrollOffset returns the current offset in px.
func (s *Scheduler) ScrollOffset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsetPx
}

// FrameIndex returns the current frame counter.
func (s *Scheduler) FrameIndex() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameIndex
}

// MeasuredFPS returns the achieved tick rate over the last second, as
// opposed to the configured target rate.
func (s *Scheduler) MeasuredFPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.measured
}

// pixelsPerFrame derives the per-frame advance from the current mode and
// scrollable extent. Zero when there is nothing to scroll.
func (s *Scheduler) pixelsPerFrame() float64 {
	scroll := s.totalHeight - s.viewportHeight
	if scroll <= 0 {
		return 0
	}
	eff := s.speed
	if s.mode == ModeDuration {
		eff = scroll / s.duration
	}
	return eff / s.rate
}

// recompute rederives the clamped offset. Callers hold the lock.
func (s *Scheduler) recompute() {
	maxScroll := s.totalHeight - s.viewportHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	off := float64(s.frameIndex) * s.pixelsPerFrame()
	if off > maxScroll {
		off = maxScroll
	}
	if off < 0 {
		off = 0
	}
	s.offsetPx = off
}

const (
	fpsWindow  = time.Second
	fpsRefresh = 500 * time.Millisecond
)

func (s *Scheduler) recordTick(now time.Time) {
	s.window = append(s.window, now)
	cutoff := now.Add(-fpsWindow)
	drop := 0
	for drop < len(s.window) && s.window[drop].Before(cutoff) {
		drop++
	}
	if drop > 0 {
		s.window = append(s.window[:0], s.window[drop:]...)
	}

	if s.measuredAt.IsZero() {
		s.measuredAt = now
		return
	}
	if now.Sub(s.measuredAt) < fpsRefresh {
		return
	}
	if span := now.Sub(s.window[0]); span > 0 && len(s.window) > 1 {
		s.measured = float64(len(s.window)-1) / span.Seconds()
	} else {
		s.measured = 0
	}
	s.measuredAt = now
}
