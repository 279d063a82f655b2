package renderer

import (
	"image/color"

	"github.com/chewxy/math32"

	"github.com/df07/go-pathtracer/pkg/core"
)

// MaxChannelValue is the largest linear value before quantization, so that
// scaling by 256 never reaches 256
const MaxChannelValue = 0.999

// QuantizeChannel maps a linear channel value to 8 bits: floor(clamp(v, 0, 0.999) * 256).
// No gamma correction is applied.
func QuantizeChannel(value float32) uint8 {
	// NaN fails both comparisons; treat it as black
	if !(value > 0) {
		return 0
	}
	value = math32.Min(value, MaxChannelValue)
	return uint8(math32.Floor(value * 256))
}

// QuantizeColor averages an accumulated color over samples and quantizes each channel
func QuantizeColor(sum core.Vec3, samples int) color.RGBA {
	avg := sum.Divide(float32(samples))
	return color.RGBA{
		R: QuantizeChannel(avg.X),
		G: QuantizeChannel(avg.Y),
		B: QuantizeChannel(avg.Z),
		A: 255,
	}
}
