// Package preview tracks the asynchronously fetched preview
// representations and decides which one is authoritative at any instant.
package preview

import (
	"sync"

	"github.com/google/uuid"
)

// Path identifies one fetch pipeline. Staleness is tracked per path:
// responses race only against later requests on their own path.
type Path int

const (
	PathFast Path = iota
	PathChunk
	PathFull
	pathCount
)

func (p Path) String() string {
	switch p {
	case PathFast:
		return "fast"
	case PathChunk:
		return "chunk"
	case PathFull:
		return "full"
	}
	return "unknown"
}

// Result is one committed fetch outcome. TotalHeight is zero for the fast
// path, which renders a single screen and reports no scrollable extent.
type Result struct {
	ImageRef     string
	RenderTimeMs float64
	TotalHeight  int
	YStart       int
	ChunkHeight  int
	Revision     uint64
}

// Resolved is the authoritative display triple.
type Resolved struct {
	ImageRef     string
	RenderTimeMs float64
	TotalHeight  int
	Source       Path
}

// Token tags a request with the issuing path's latest-request identity.
type Token struct {
	path Path
	id   uuid.UUID
}

// State holds the last committed result per path plus the latest issued
// token per path. Results are replaced only by fresh successes, so the
// previous image stays visible while a refresh is in flight.
type State struct {
	mu        sync.Mutex
	latest    [pathCount]uuid.UUID
	results   [pathCount]*Result
	useScroll bool
}

func NewState() *State {
	return &State{}
}

// Issue registers a new in-flight request on a path, superseding any
// earlier one. The returned token must accompany the eventual Commit.
func (st *State) Issue(p Path) Token {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := uuid.New()
	st.latest[p] = id
	return Token{path: p, id: id}
}

// Commit stores a result if its token is still the path's latest issued
// request. Superseded responses are discarded: last writer wins per path,
// checked before any precedence consideration.
func (st *State) Commit(tok Token, r *Result) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.latest[tok.path] != tok.id {
		return false
	}
	st.results[tok.path] = r
	return true
}

// SetUseScrollPreview toggles whether a full long-image result may win.
// Stored results are never discarded by the toggle.
func (st *State) SetUseScrollPreview(use bool) {
	st.mu.Lock()
	st.useScroll = use
	st.mu.Unlock()
}

// UseScrollPreview returns the toggle value.
func (st *State) UseScrollPreview() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.useScroll
}

// Resolve picks the authoritative representation: full long image (when
// enabled and present) over chunk over fast preview. False means nothing
// has arrived yet.
func (st *State) Resolve() (Resolved, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.useScroll {
		if r := st.results[PathFull]; r != nil {
			return resolved(r, PathFull), true
		}
	}
	if r := st.results[PathChunk]; r != nil {
		return resolved(r, PathChunk), true
	}
	if r := st.results[PathFast]; r != nil {
		return resolved(r, PathFast), true
	}
	return Resolved{}, false
}

// Result returns the committed result for one path, if any.
func (st *State) Result(p Path) (*Result, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.results[p] == nil {
		return nil, false
	}
	cp := *st.results[p]
	return &cp, true
}

func resolved(r *Result, p Path) Resolved {
	return Resolved{
		ImageRef:     r.ImageRef,
		RenderTimeMs: r.RenderTimeMs,
		TotalHeight:  r.TotalHeight,
		Source:       p,
	}
}
