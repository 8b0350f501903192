package editor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/creditroll/internal/config"
	"github.com/ivlev/creditroll/internal/preview"
	"github.com/ivlev/creditroll/internal/project"
	"github.com/ivlev/creditroll/internal/renderapi"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/preview":
			json.NewEncoder(w).Encode(renderapi.PreviewResult{PreviewURL: "fast", RenderTimeMs: 8})
		case "/api/preview/scroll-full":
			json.NewEncoder(w).Encode(renderapi.ScrollFullResult{PreviewURL: "full", RenderTimeMs: 120, TotalHeight: 5080})
		case "/api/preview/scroll-chunk":
			var req struct {
				YStart      int `json:"y_start"`
				ChunkHeight int `json:"chunk_height"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(renderapi.ScrollChunkResult{
				PreviewURL: "chunk", RenderTimeMs: 40, TotalHeight: 5080,
				YStart: req.YStart, ChunkHeight: req.ChunkHeight,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func newTestSession(t *testing.T, srvURL string) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.ServerURL = srvURL
	cfg.ChunkHeight = 1024

	proj := project.New("test")
	proj.Config.Width = 1920
	proj.Config.Height = 1080
	proj.Playback.Mode = "duration"
	proj.Playback.DurationSec = 20

	s, err := NewSession(context.Background(), cfg, proj)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSessionSeedsPreviewAndExtent(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	s := newTestSession(t, srv.URL)

	waitFor(t, 3*time.Second, func() bool {
		r, ok := s.Preview.Resolve()
		return ok && r.Source == preview.PathFull
	})

	// Duration over a 5080px canvas in a 1080px viewport: 200px/s at 24fps.
	st := s.Scheduler.Status()
	if st.PixelsPerFrame < 8.3 || st.PixelsPerFrame > 8.4 {
		t.Errorf("scheduler did not pick up the extent: ppf=%v", st.PixelsPerFrame)
	}
}

func TestSessionScrub(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	waitFor(t, 3*time.Second, func() bool {
		_, ok := s.Preview.Resolve()
		return ok
	})

	s.Scrub(1000)
	waitFor(t, 2*time.Second, func() bool {
		r, ok := s.Preview.State().Result(preview.PathChunk)
		return ok && r.YStart > 0
	})

	// SeekOffset floored to a frame boundary; the chunk was asked at the
	// quantized offset, not the raw one.
	r, _ := s.Preview.State().Result(preview.PathChunk)
	if r.YStart != int(s.Scheduler.ScrollOffset()) {
		t.Errorf("chunk y_start %d != scheduler offset %v", r.YStart, s.Scheduler.ScrollOffset())
	}
}

func TestSessionRejectsDegenerateProject(t *testing.T) {
	cfg := config.Default()
	proj := project.New("bad")
	proj.Playback.FrameRate = 13 // not in the selectable set

	if _, err := NewSession(context.Background(), cfg, proj); err == nil {
		t.Fatal("degenerate frame rate accepted")
	}

	proj = project.New("bad2")
	proj.Playback.Mode = "warp"
	if _, err := NewSession(context.Background(), cfg, proj); err == nil {
		t.Fatal("unknown mode accepted")
	}
}

func TestPerformanceReport(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	s := newTestSession(t, srv.URL)
	rep := s.PerformanceReport()
	for _, want := range []string{"PLAYBACK REPORT", "Target FPS: 24.000", "Mode: duration"} {
		if !strings.Contains(rep, want) {
			t.Errorf("report missing %q:\n%s", want, rep)
		}
	}
}
