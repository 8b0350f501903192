package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ivlev/creditroll/internal/model"
)

func testConfig() model.RenderConfig {
	cfg := model.NewRenderConfig()
	cfg.Subtitles = []model.SubtitleItem{
		model.NewSubtitleItem("s1", "Directed by\nSomebody", 100, 2200),
	}
	return cfg
}

func TestScrollChunkRequestShape(t *testing.T) {
	var got scrollChunkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/preview/scroll-chunk" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ScrollChunkResult{
			PreviewURL:   "data:image/png;base64,",
			RenderTimeMs: 41.5,
			TotalHeight:  5080,
			YStart:       got.YStart,
			ChunkHeight:  got.ChunkHeight,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.ScrollChunk(context.Background(), testConfig(), 1024, 2048)
	if err != nil {
		t.Fatalf("ScrollChunk: %v", err)
	}

	if got.YStart != 1024 || got.ChunkHeight != 2048 {
		t.Errorf("request carried y_start=%d chunk_height=%d", got.YStart, got.ChunkHeight)
	}
	if got.Config.Width != 3840 || len(got.Config.Subtitles) != 1 {
		t.Errorf("request config not embedded: %+v", got.Config)
	}
	if res.TotalHeight != 5080 {
		t.Errorf("Expected total height 5080, got %d", res.TotalHeight)
	}
	if res.RenderTimeMs != 41.5 {
		t.Errorf("Expected render time 41.5, got %v", res.RenderTimeMs)
	}
}

func TestScrollChunkRejectsBadArgs(t *testing.T) {
	c := NewClient("http://unused")
	if _, err := c.ScrollChunk(context.Background(), testConfig(), -1, 100); err == nil {
		t.Error("negative y_start accepted")
	}
	if _, err := c.ScrollChunk(context.Background(), testConfig(), 0, 0); err == nil {
		t.Error("zero chunk_height accepted")
	}
}

func TestFailureSurfacesStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.ScrollFull(context.Background(), testConfig())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	want := "request failed: 500 Internal Server Error"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestSequenceMetaFromHeaders(t *testing.T) {
	payload := []byte("not-really-a-zip")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sequenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.FPS != 24 {
			t.Errorf("Expected fps 24, got %v", req.FPS)
		}
		if req.DurationSec == nil || *req.DurationSec != 20 {
			t.Errorf("Expected duration_sec 20, got %v", req.DurationSec)
		}
		if req.ScrollSpeed != nil {
			t.Errorf("scroll_speed must be omitted in duration mode, got %v", *req.ScrollSpeed)
		}
		w.Header().Set("X-Render-Time-Ms", "1234.5")
		w.Header().Set("X-Total-Height", "5080")
		w.Header().Set("X-Frame-Count", "480")
		w.Header().Set("X-Fps", "24")
		w.Header().Set("X-Total-Frames", "480")
		w.Write(payload)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	data, meta, err := c.RenderTIFFSequenceFPS(context.Background(), testConfig(), 24, 20, 0)
	if err != nil {
		t.Fatalf("RenderTIFFSequenceFPS: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("archive bytes not passed through")
	}
	if meta.TotalHeight != 5080 || meta.FrameCount != 480 || meta.TotalFrames != 480 {
		t.Errorf("meta mismatch: %+v", meta)
	}
	if meta.RenderTimeMs != 1234.5 || meta.FPS != 24 {
		t.Errorf("meta mismatch: %+v", meta)
	}
}

func TestSequenceFPSRequiresExactlyOneMode(t *testing.T) {
	c := NewClient("http://unused")
	if _, _, err := c.RenderTIFFSequenceFPS(context.Background(), testConfig(), 24, 0, 0); err == nil {
		t.Error("neither duration nor speed accepted")
	}
	if _, _, err := c.RenderTIFFSequenceFPS(context.Background(), testConfig(), 24, 20, 200); err == nil {
		t.Error("both duration and speed accepted")
	}
	if _, _, err := c.RenderTIFFSequenceFPS(context.Background(), testConfig(), 0, 20, 0); err == nil {
		t.Error("zero fps accepted")
	}
}

func TestDecodeDataURL(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeDataURL(EncodeDataURL(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeDataURL: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("Expected 4x2, got %dx%d", b.Dx(), b.Dy())
	}

	if _, err := DecodeDataURL("data:image/jpeg;base64,xxxx"); err == nil {
		t.Error("non-PNG data URL accepted")
	}
	if _, err := DecodeDataURL(pngDataURLPrefix + "!!!"); err == nil {
		t.Error("invalid base64 accepted")
	}
}
