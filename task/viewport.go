package task

import (
	"fmt"
	"math"
)

// Viewport is the rectangle of the complex plane mapped onto the pixel grid of one frame
type Viewport struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// NewViewport
// Computes the window for a frame of the zoom. The horizontal scale shrinks by zoomFactor every frame and the
// vertical scale follows the image aspect ratio so pixels stay square.
func NewViewport(centerX float64, centerY float64, xscale float64, zoomFactor float64, frame int, width int, height int) Viewport {
	frameXScale := xscale / math.Pow(zoomFactor, float64(frame))
	frameYScale := frameXScale * float64(height) / float64(width)

	return Viewport{
		XMin: centerX - frameXScale/2.0,
		XMax: centerX + frameXScale/2.0,
		YMin: centerY - frameYScale/2.0,
		YMax: centerY + frameYScale/2.0,
	}
}

func (v Viewport) XScale() float64 {
	return v.XMax - v.XMin
}

func (v Viewport) YScale() float64 {
	return v.YMax - v.YMin
}

// Valid reports whether every bound is finite and ordered. A zoom past float64 precision collapses the window onto
// its center, which is still a frame that can be rendered.
func (v Viewport) Valid() bool {
	for _, f := range []float64{v.XMin, v.XMax, v.YMin, v.YMax} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return v.XMin <= v.XMax && v.YMin <= v.YMax
}

func (v Viewport) String() string {
	output := "{Viewport "
	output += fmt.Sprintf("XMin: %f ", v.XMin)
	output += fmt.Sprintf("XMax: %f ", v.XMax)
	output += fmt.Sprintf("YMin: %f ", v.YMin)
	output += fmt.Sprintf("YMax: %f}", v.YMax)
	return output
}
