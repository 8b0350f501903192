package system

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// Chunk height bounds in canvas rows. The ceiling keeps a single decoded
// RGBA chunk well under typical GPU texture limits; the floor keeps scrub
// requests from degenerating into dozens of tiny fetches.
const (
	minChunkHeight     = 512
	maxChunkHeight     = 4096
	defaultChunkHeight = 2048

	// Share of available memory one decoded chunk may occupy.
	memoryShare = 8
)

// ChunkHeight picks a scroll-preview chunk height for the given canvas
// width based on available memory: a chunk decodes to width*height*4 bytes
// of RGBA. Falls back to a safe default when the probe fails.
func ChunkHeight(canvasWidth int) int {
	if canvasWidth <= 0 {
		return defaultChunkHeight
	}

	vm, err := mem.VirtualMemory()
	if err != nil || vm.Available == 0 {
		return defaultChunkHeight
	}

	budget := vm.Available / memoryShare
	rows := int(budget / uint64(canvasWidth*4))
	if rows < minChunkHeight {
		return minChunkHeight
	}
	if rows > maxChunkHeight {
		return maxChunkHeight
	}
	return rows
}
