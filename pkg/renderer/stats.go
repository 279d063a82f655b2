package renderer

import (
	"image/color"
	"time"

	"github.com/df07/go-pathtracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	MinSamples     int           // Minimum samples taken per pixel
	MaxSamplesUsed int           // Maximum samples actually used by any pixel
	Elapsed        time.Duration // Wall time of the render
}

// PixelStats accumulates the samples of a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3 // Sum of all sample colors
	SampleCount int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Divide(float32(ps.SampleCount))
}

// RGBA returns the quantized 8-bit color of this pixel
func (ps *PixelStats) RGBA() color.RGBA {
	if ps.SampleCount == 0 {
		return color.RGBA{A: 255}
	}
	return QuantizeColor(ps.ColorAccum, ps.SampleCount)
}

// computeStats summarizes the sample counts of every pixel in the frame
func computeStats(pixels []PixelStats) RenderStats {
	stats := RenderStats{TotalPixels: len(pixels)}
	if len(pixels) == 0 {
		return stats
	}

	stats.MinSamples = pixels[0].SampleCount
	for i := range pixels {
		count := pixels[i].SampleCount
		stats.TotalSamples += count
		stats.MinSamples = min(stats.MinSamples, count)
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, count)
	}
	stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	return stats
}
