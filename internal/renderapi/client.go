// Package renderapi is the HTTP client for the remote credits render
// service. The service owns all pixel production and text layout; this
// client only moves JSON and image bytes.
package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ivlev/creditroll/internal/model"
)

// HTTPDoer lets tests substitute the transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one render service instance. No timeout is imposed here:
// full-resolution scroll renders are legitimately slow, and callers cancel
// through the context instead.
type Client struct {
	BaseURL    string
	HTTPClient HTTPDoer
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
	}
}

// PreviewResult is the fast, optionally downscaled single-screen preview.
type PreviewResult struct {
	PreviewURL   string  `json:"preview_url"`
	RenderTimeMs float64 `json:"render_time_ms"`
}

// ScrollChunkResult is one y-slice of the long canvas. TotalHeight is the
// server-computed scrollable extent; it is not derivable client-side.
type ScrollChunkResult struct {
	PreviewURL   string  `json:"preview_url"`
	RenderTimeMs float64 `json:"render_time_ms"`
	TotalHeight  int     `json:"total_height"`
	YStart       int     `json:"y_start"`
	ChunkHeight  int     `json:"chunk_height"`
}

// ScrollFullResult is the complete long canvas in one image.
type ScrollFullResult struct {
	PreviewURL   string  `json:"preview_url"`
	RenderTimeMs float64 `json:"render_time_ms"`
	TotalHeight  int     `json:"total_height"`
}

// SequenceMeta describes a frame-sequence archive, parsed from the
// service's response headers.
type SequenceMeta struct {
	RenderTimeMs float64
	TotalHeight  int
	FrameCount   int
	FPS          float64
	TotalFrames  int
}

type scrollChunkRequest struct {
	Config      model.RenderConfig `json:"config"`
	YStart      int                `json:"y_start"`
	ChunkHeight int                `json:"chunk_height"`
}

type sequenceRequest struct {
	Config      model.RenderConfig `json:"config"`
	FPS         float64            `json:"fps"`
	DurationSec *float64           `json:"duration_sec,omitempty"`
	ScrollSpeed *float64           `json:"scroll_speed,omitempty"`
}

// Preview requests the fast single-screen preview.
func (c *Client) Preview(ctx context.Context, cfg model.RenderConfig) (*PreviewResult, error) {
	var out PreviewResult
	if err := c.postJSON(ctx, "/api/preview", cfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScrollChunk requests one y-slice of the full-resolution long canvas.
func (c *Client) ScrollChunk(ctx context.Context, cfg model.RenderConfig, yStart, chunkHeight int) (*ScrollChunkResult, error) {
	if yStart < 0 {
		return nil, fmt.Errorf("y_start must be >= 0, got %d", yStart)
	}
	if chunkHeight <= 0 {
		return nil, fmt.Errorf("chunk_height must be > 0, got %d", chunkHeight)
	}
	var out ScrollChunkResult
	req := scrollChunkRequest{Config: cfg, YStart: yStart, ChunkHeight: chunkHeight}
	if err := c.postJSON(ctx, "/api/preview/scroll-chunk", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScrollFull requests the entire long canvas as one image.
func (c *Client) ScrollFull(ctx context.Context, cfg model.RenderConfig) (*ScrollFullResult, error) {
	var out ScrollFullResult
	if err := c.postJSON(ctx, "/api/preview/scroll-full", cfg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenderDPX renders the final single-frame DPX.
func (c *Client) RenderDPX(ctx context.Context, cfg model.RenderConfig) ([]byte, float64, error) {
	return c.postBinary(ctx, "/api/render/dpx", cfg)
}

// RenderTIFF renders the final single-frame TIFF.
func (c *Client) RenderTIFF(ctx context.Context, cfg model.RenderConfig) ([]byte, float64, error) {
	return c.postBinary(ctx, "/api/render/tiff", cfg)
}

// RenderTIFFSequence slices the long canvas by frame height and returns a
// zip of TIFF frames.
func (c *Client) RenderTIFFSequence(ctx context.Context, cfg model.RenderConfig) ([]byte, *SequenceMeta, error) {
	return c.postSequence(ctx, "/api/render/tiff-seq", cfg)
}

// RenderTIFFSequenceFPS renders one TIFF per quantized frame at the given
// fps. Exactly one of durationSec/scrollSpeed must be positive; the other
// must be zero.
func (c *Client) RenderTIFFSequenceFPS(ctx context.Context, cfg model.RenderConfig, fps, durationSec, scrollSpeed float64) ([]byte, *SequenceMeta, error) {
	if fps <= 0 {
		return nil, nil, fmt.Errorf("fps must be > 0, got %v", fps)
	}
	if (durationSec > 0) == (scrollSpeed > 0) {
		return nil, nil, fmt.Errorf("exactly one of duration_sec/scroll_speed expected")
	}
	req := sequenceRequest{Config: cfg, FPS: fps}
	if durationSec > 0 {
		req.DurationSec = &durationSec
	}
	if scrollSpeed > 0 {
		req.ScrollSpeed = &scrollSpeed
	}
	return c.postSequence(ctx, "/api/render/tiff-seq-fps", req)
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postBinary(ctx context.Context, path string, body any) ([]byte, float64, error) {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("request failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s response: %w", path, err)
	}
	return data, headerFloat(resp, "X-Render-Time-Ms"), nil
}

func (c *Client) postSequence(ctx context.Context, path string, body any) ([]byte, *SequenceMeta, error) {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("request failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	meta := &SequenceMeta{
		RenderTimeMs: headerFloat(resp, "X-Render-Time-Ms"),
		TotalHeight:  headerInt(resp, "X-Total-Height"),
		FrameCount:   headerInt(resp, "X-Frame-Count"),
		FPS:          headerFloat(resp, "X-Fps"),
		TotalFrames:  headerInt(resp, "X-Total-Frames"),
	}
	return data, meta, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.HTTPClient.Do(req)
}

func headerFloat(resp *http.Response, key string) float64 {
	v, _ := strconv.ParseFloat(resp.Header.Get(key), 64)
	return v
}

func headerInt(resp *http.Response, key string) int {
	v, _ := strconv.Atoi(resp.Header.Get(key))
	return v
}
