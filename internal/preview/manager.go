package preview

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ivlev/creditroll/internal/debounce"
	"github.com/ivlev/creditroll/internal/model"
	"github.com/ivlev/creditroll/internal/playback"
	"github.com/ivlev/creditroll/internal/renderapi"
)

// Debounce periods for the three fetch pipelines.
const (
	FastDebounce  = 300 * time.Millisecond
	FullDebounce  = 500 * time.Millisecond
	ScrubDebounce = 120 * time.Millisecond
)

type chunkRequest struct {
	snap   model.Snapshot
	yStart int
}

// Manager is the glue between the config store, the debounce channels, the
// render client and the selector. Every config change re-issues the fast
// and full fetches through their debouncers; scrub positions go through
// the chunk pipeline. Failed fetches leave the previous result visible.
type Manager struct {
	client *renderapi.Client
	state  *State
	sched  *playback.Scheduler
	ctx    context.Context

	fast  *debounce.Debouncer[model.Snapshot]
	full  *debounce.Debouncer[model.Snapshot]
	scrub *debounce.Debouncer[chunkRequest]

	chunkHeight int

	mu       sync.Mutex
	snap     model.Snapshot
	onUpdate func(Resolved)
}

// NewManager wires the pipelines. sched receives SetTotalHeight as chunk
// and full results arrive; onUpdate (optional) observes every resolution
// change. chunkHeight must be positive.
func NewManager(ctx context.Context, client *renderapi.Client, sched *playback.Scheduler, chunkHeight int, onUpdate func(Resolved)) *Manager {
	m := &Manager{
		client:      client,
		state:       NewState(),
		sched:       sched,
		ctx:         ctx,
		chunkHeight: chunkHeight,
		onUpdate:    onUpdate,
	}
	m.fast = debounce.New(FastDebounce, m.fetchFast)
	m.full = debounce.New(FullDebounce, m.fetchFull)
	m.scrub = debounce.New(ScrubDebounce, m.fetchChunk)
	return m
}

// State exposes the selector for read-only consumers.
func (m *Manager) State() *State {
	return m.state
}

// OnConfigChange feeds a fresh config snapshot into the debounced fetch
// pipelines. Suitable as a model.Store subscriber.
func (m *Manager) OnConfigChange(snap model.Snapshot) {
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()
	m.fast.Set(snap)
	m.full.Set(snap)
}

// RequestChunk asks for the slice at yStart of the current config, through
// the scrub debouncer.
func (m *Manager) RequestChunk(yStart int) {
	if yStart < 0 {
		yStart = 0
	}
	m.mu.Lock()
	snap := m.snap
	m.mu.Unlock()
	m.scrub.Set(chunkRequest{snap: snap, yStart: yStart})
}

// SetUseScrollPreview forwards the quality toggle.
func (m *Manager) SetUseScrollPreview(use bool) {
	m.state.SetUseScrollPreview(use)
	m.notify()
}

// Resolve returns the currently authoritative representation.
func (m *Manager) Resolve() (Resolved, bool) {
	return m.state.Resolve()
}

// Close cancels pending debounced fetches. In-flight HTTP requests finish
// on their own and are discarded by the token check if superseded.
func (m *Manager) Close() {
	m.fast.Stop()
	m.full.Stop()
	m.scrub.Stop()
}

func (m *Manager) fetchFast(snap model.Snapshot) {
	tok := m.state.Issue(PathFast)

	cfg := snap.Config
	cfg.Preview = true
	res, err := m.client.Preview(m.ctx, cfg)
	if err != nil {
		log.Printf("[!] fast preview fetch: %v", err)
		return
	}
	if !m.state.Commit(tok, &Result{
		ImageRef:     res.PreviewURL,
		RenderTimeMs: res.RenderTimeMs,
		Revision:     snap.Revision,
	}) {
		return
	}
	m.notify()
}

func (m *Manager) fetchFull(snap model.Snapshot) {
	tok := m.state.Issue(PathFull)

	res, err := m.client.ScrollFull(m.ctx, snap.Config)
	if err != nil {
		log.Printf("[!] full scroll preview fetch: %v", err)
		return
	}
	if !m.state.Commit(tok, &Result{
		ImageRef:     res.PreviewURL,
		RenderTimeMs: res.RenderTimeMs,
		TotalHeight:  res.TotalHeight,
		Revision:     snap.Revision,
	}) {
		return
	}
	m.sched.SetTotalHeight(float64(res.TotalHeight))
	m.notify()
}

func (m *Manager) fetchChunk(req chunkRequest) {
	tok := m.state.Issue(PathChunk)

	res, err := m.client.ScrollChunk(m.ctx, req.snap.Config, req.yStart, m.chunkHeight)
	if err != nil {
		log.Printf("[!] scroll chunk fetch: %v", err)
		return
	}
	if !m.state.Commit(tok, &Result{
		ImageRef:     res.PreviewURL,
		RenderTimeMs: res.RenderTimeMs,
		TotalHeight:  res.TotalHeight,
		YStart:       res.YStart,
		ChunkHeight:  res.ChunkHeight,
		Revision:     req.snap.Revision,
	}) {
		return
	}
	m.sched.SetTotalHeight(float64(res.TotalHeight))
	m.notify()
}

func (m *Manager) notify() {
	m.mu.Lock()
	fn := m.onUpdate
	m.mu.Unlock()
	if fn == nil {
		return
	}
	if r, ok := m.state.Resolve(); ok {
		fn(r)
	}
}
