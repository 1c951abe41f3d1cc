package mandelbrot

import "math"

// Color is a packed 0xRRGGBB value. Bits past 24 are dropped when encoding.
type Color uint32

const (
	BaseColor Color = 0x3333FF
	FullRange Color = 0xFFFFFF

	// points that never escape
	SaturatedColor = BaseColor + FullRange
)

// IterationToColor maps an escape count linearly onto the gradient: BaseColor + round(FullRange * iters / max)
func IterationToColor(iters int, max int) Color {
	if max <= 0 {
		return BaseColor
	}
	return BaseColor + Color(math.Round(float64(FullRange)*float64(iters)/float64(max)))
}
