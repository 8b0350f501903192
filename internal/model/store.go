package model

import (
	"math"
	"sync"

	"github.com/google/uuid"
)

// Canvas size limits. Edits outside these bounds are ignored, not clamped.
const (
	MinCanvasWidth  = 0
	MaxCanvasWidth  = 7680
	MinCanvasHeight = 320
	MaxCanvasHeight = 4320
)

// Snapshot is one immutable revision of the config. Revision grows by one
// per applied edit, so consumers can detect change without diffing.
type Snapshot struct {
	Config   RenderConfig
	Revision uint64
}

// Store owns the RenderConfig. Every applied edit replaces the value
// wholesale and broadcasts a fresh snapshot to subscribers. Rejected edits
// (out-of-range canvas, non-finite numbers) produce no snapshot at all.
type Store struct {
	mu       sync.Mutex
	cfg      RenderConfig
	revision uint64
	subs     []func(Snapshot)
}

func NewStore(cfg RenderConfig) *Store {
	return &Store{cfg: cfg.Clone()}
}

// Subscribe registers fn for every future snapshot. fn is called outside
// the store lock, in edit order.
func (st *Store) Subscribe(fn func(Snapshot)) {
	st.mu.Lock()
	st.subs = append(st.subs, fn)
	st.mu.Unlock()
}

// Snapshot returns the current revision.
func (st *Store) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Snapshot{Config: st.cfg.Clone(), Revision: st.revision}
}

// apply commits an accepted edit and broadcasts.
func (st *Store) apply(cfg RenderConfig) {
	st.mu.Lock()
	st.cfg = cfg
	st.revision++
	snap := Snapshot{Config: st.cfg.Clone(), Revision: st.revision}
	subs := make([]func(Snapshot), len(st.subs))
	copy(subs, st.subs)
	st.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// AddSubtitle appends a new subtitle with defaults and returns its id.
func (st *Store) AddSubtitle(text string, x, y int) string {
	st.mu.Lock()
	cfg := st.cfg.Clone()
	st.mu.Unlock()

	id := uuid.NewString()
	cfg.Subtitles = append(cfg.Subtitles, NewSubtitleItem(id, text, x, y))
	st.apply(cfg)
	return id
}

// UpdateSubtitle edits one subtitle through fn. The edit is dropped when
// the id is unknown or fn leaves the item with non-positive font size or
// line height, or non-finite numeric fields.
func (st *Store) UpdateSubtitle(id string, fn func(*SubtitleItem)) bool {
	st.mu.Lock()
	cfg := st.cfg.Clone()
	st.mu.Unlock()

	for i := range cfg.Subtitles {
		if cfg.Subtitles[i].ID != id {
			continue
		}
		item := cfg.Subtitles[i].clone()
		fn(&item)
		item.ID = id // id is not editable
		if !validSubtitle(item) {
			return false
		}
		cfg.Subtitles[i] = item
		st.apply(cfg)
		return true
	}
	return false
}

// MoveSubtitle repositions a subtitle's anchor.
func (st *Store) MoveSubtitle(id string, x, y int) bool {
	return st.UpdateSubtitle(id, func(s *SubtitleItem) {
		s.X = x
		s.Y = y
	})
}

// RemoveSubtitle deletes a subtitle. Order of the remaining items is kept.
func (st *Store) RemoveSubtitle(id string) bool {
	st.mu.Lock()
	cfg := st.cfg.Clone()
	st.mu.Unlock()

	for i := range cfg.Subtitles {
		if cfg.Subtitles[i].ID == id {
			cfg.Subtitles = append(cfg.Subtitles[:i], cfg.Subtitles[i+1:]...)
			st.apply(cfg)
			return true
		}
	}
	return false
}

// Resize changes the canvas. Out-of-range or non-finite input is silently
// ignored; the previous size stays.
func (st *Store) Resize(width, height float64) bool {
	if !finite(width) || !finite(height) {
		return false
	}
	w, h := int(width), int(height)
	if w < MinCanvasWidth || w > MaxCanvasWidth {
		return false
	}
	if h < MinCanvasHeight || h > MaxCanvasHeight {
		return false
	}

	st.mu.Lock()
	cfg := st.cfg.Clone()
	st.mu.Unlock()

	cfg.Width = w
	cfg.Height = h
	st.apply(cfg)
	return true
}

// SetBackground replaces the background color.
func (st *Store) SetBackground(c RGB) {
	st.mu.Lock()
	cfg := st.cfg.Clone()
	st.mu.Unlock()

	cfg.BackgroundColor = c
	st.apply(cfg)
}

// SetPreviewScale sets the fast-preview downscale factor, (0,1].
func (st *Store) SetPreviewScale(scale float64) bool {
	if !finite(scale) || scale <= 0 || scale > 1 {
		return false
	}

	st.mu.Lock()
	cfg := st.cfg.Clone()
	st.mu.Unlock()

	cfg.PreviewScale = scale
	st.apply(cfg)
	return true
}

func validSubtitle(s SubtitleItem) bool {
	if s.FontSize <= 0 {
		return false
	}
	if !finite(s.LineHeight) || s.LineHeight <= 0 {
		return false
	}
	if !finite(s.LetterSpacing) {
		return false
	}
	return true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
