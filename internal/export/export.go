// Package export drives the final render paths: single-frame DPX/TIFF and
// the frame-sequence archives, unpacked to disk for conform tools.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/creditroll/internal/model"
	"github.com/ivlev/creditroll/internal/renderapi"
)

// Writing extracted frames is I/O bound; a small pool is enough and keeps
// slow disks from being swamped.
const extractWorkers = 4

// SequenceSpec selects the frame quantization for a sequence export.
// Exactly one of DurationSec/SpeedPxPerSec must be positive.
type SequenceSpec struct {
	FPS           float64
	DurationSec   float64
	SpeedPxPerSec float64
}

// SequenceReport summarizes a finished sequence export.
type SequenceReport struct {
	OutDir         string
	Frames         int
	ExpectedFrames int
	TotalHeight    int
	RenderTimeMs   float64
}

// ExpectedFrames mirrors the service's quantization so a downloaded
// archive can be verified: duration mode uses ceil(fps*duration); speed
// mode derives pixels-per-frame and covers the scrollable extent. The
// same math the playback scheduler animates against.
func ExpectedFrames(spec SequenceSpec, totalHeight, viewportHeight int) int {
	scrollPixels := totalHeight - viewportHeight
	if scrollPixels < 0 {
		scrollPixels = 0
	}

	switch {
	case spec.DurationSec > 0:
		return maxInt(1, int(math.Ceil(spec.FPS*spec.DurationSec)))
	case spec.SpeedPxPerSec > 0:
		ppf := spec.SpeedPxPerSec / spec.FPS
		if ppf <= 0 {
			return 1
		}
		return maxInt(1, int(math.Ceil(float64(scrollPixels)/ppf)))
	default:
		return 1
	}
}

// DPX renders the final DPX frame to outPath.
func DPX(ctx context.Context, c *renderapi.Client, cfg model.RenderConfig, outPath string) (float64, error) {
	data, renderMs, err := c.RenderDPX(ctx, cfg)
	if err != nil {
		return 0, err
	}
	return renderMs, os.WriteFile(outPath, data, 0644)
}

// TIFF renders the final TIFF frame to outPath.
func TIFF(ctx context.Context, c *renderapi.Client, cfg model.RenderConfig, outPath string) (float64, error) {
	data, renderMs, err := c.RenderTIFF(ctx, cfg)
	if err != nil {
		return 0, err
	}
	return renderMs, os.WriteFile(outPath, data, 0644)
}

// Sequence requests the fps-quantized TIFF sequence and unpacks it into
// outDir. The archive's frame count is checked against the local
// quantization math; a mismatch is reported, not fatal.
func Sequence(ctx context.Context, c *renderapi.Client, cfg model.RenderConfig, spec SequenceSpec, outDir string) (*SequenceReport, error) {
	data, meta, err := c.RenderTIFFSequenceFPS(ctx, cfg, spec.FPS, spec.DurationSec, spec.SpeedPxPerSec)
	if err != nil {
		return nil, err
	}

	frames, err := unpack(ctx, data, outDir)
	if err != nil {
		return nil, err
	}

	return &SequenceReport{
		OutDir:         outDir,
		Frames:         frames,
		ExpectedFrames: ExpectedFrames(spec, meta.TotalHeight, cfg.Height),
		TotalHeight:    meta.TotalHeight,
		RenderTimeMs:   meta.RenderTimeMs,
	}, nil
}

// SequenceByHeight requests the plain frame-height slicing (no fps
// quantization) and unpacks it into outDir.
func SequenceByHeight(ctx context.Context, c *renderapi.Client, cfg model.RenderConfig, outDir string) (*SequenceReport, error) {
	data, meta, err := c.RenderTIFFSequence(ctx, cfg)
	if err != nil {
		return nil, err
	}

	frames, err := unpack(ctx, data, outDir)
	if err != nil {
		return nil, err
	}

	return &SequenceReport{
		OutDir:       outDir,
		Frames:       frames,
		TotalHeight:  meta.TotalHeight,
		RenderTimeMs: meta.RenderTimeMs,
	}, nil
}

// unpack extracts every file of the zip archive into outDir, flattening
// paths to their base names.
func unpack(ctx context.Context, archive []byte, outDir string) (int, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return 0, fmt.Errorf("open sequence archive: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	count := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		count++
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open %s in archive: %w", f.Name, err)
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Name, err)
			}
			return os.WriteFile(filepath.Join(outDir, filepath.Base(f.Name)), data, 0644)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return count, nil
}

// DefaultOutputPath builds a timestamped path under dir, matching the
// editor's output naming.
func DefaultOutputPath(dir, name, ext string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", name, timestamp, ext))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
