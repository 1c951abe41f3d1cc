package mandelbrot

import (
	"fmt"
	"math"

	"MandelbrotMovie/encoder"
	"MandelbrotMovie/misc"
	"MandelbrotMovie/task"

	"github.com/BrugadaSyndrome/bslogger"
)

const (
	MinThreads = 1
	MaxThreads = 20

	DefaultFrameCount = 50
)

type Settings struct {
	logger bslogger.Logger

	CenterX       float64
	CenterY       float64
	Format        string
	FrameCount    int
	Height        int
	JpegQuality   int
	MaxIterations int
	OutputPrefix  string
	Scale         float64
	ThreadCount   int
	Verbose       bool
	Width         int
	ZoomFactor    float64
}

func DefaultSettings() Settings {
	return Settings{
		CenterX:       0,
		CenterY:       0,
		Format:        "jpg",
		FrameCount:    DefaultFrameCount,
		Height:        480,
		JpegQuality:   90,
		MaxIterations: 1000,
		OutputPrefix:  "mandel",
		Scale:         4,
		ThreadCount:   1,
		Width:         720,
		ZoomFactor:    1.02,
	}
}

// Verify clamps every value into its valid range
func (s *Settings) Verify() error {
	s.logger = misc.NewLogger("MandelbrotSettings", s.Verbose, nil)
	defaults := DefaultSettings()

	if s.ThreadCount < MinThreads {
		s.logger.Debugf("Raising thread count %d to %d", s.ThreadCount, MinThreads)
		s.ThreadCount = MinThreads
	}
	if s.ThreadCount > MaxThreads {
		s.logger.Debugf("Lowering thread count %d to %d", s.ThreadCount, MaxThreads)
		s.ThreadCount = MaxThreads
	}
	if !encoder.Supported(s.Format) {
		s.logger.Warningf("Unknown image format %q, using %s", s.Format, defaults.Format)
		s.Format = defaults.Format
	}
	if s.FrameCount < 1 {
		s.FrameCount = defaults.FrameCount
	}
	if s.Height < 1 {
		s.Height = defaults.Height
	}
	if s.JpegQuality < 1 || s.JpegQuality > 100 {
		s.JpegQuality = defaults.JpegQuality
	}
	if s.MaxIterations < 1 {
		s.MaxIterations = defaults.MaxIterations
	}
	if s.OutputPrefix == "" {
		s.OutputPrefix = defaults.OutputPrefix
	}
	if s.Scale <= 0 {
		s.Scale = defaults.Scale
	}
	if s.Width < 1 {
		s.Width = defaults.Width
	}
	if s.ZoomFactor <= 0 || math.IsNaN(s.ZoomFactor) || math.IsInf(s.ZoomFactor, 0) {
		s.ZoomFactor = defaults.ZoomFactor
	}
	if math.IsNaN(s.CenterX) || math.IsInf(s.CenterX, 0) || math.IsNaN(s.CenterY) || math.IsInf(s.CenterY, 0) {
		s.logger.Warningf("Center (%f, %f) is not finite, using (%f, %f)", s.CenterX, s.CenterY, defaults.CenterX, defaults.CenterY)
		s.CenterX, s.CenterY = defaults.CenterX, defaults.CenterY
	}

	// The first and last frames bound the others
	if !s.viewport(0).Valid() {
		s.logger.Warningf("Scale %f overflows the first frame, using %f", s.Scale, defaults.Scale)
		s.Scale = defaults.Scale
	}
	if !s.viewport(s.FrameCount - 1).Valid() {
		s.logger.Warningf("Zoom factor %f overflows frame %d, using %f", s.ZoomFactor, s.FrameCount-1, defaults.ZoomFactor)
		s.ZoomFactor = defaults.ZoomFactor
	}

	return nil
}

func (s *Settings) viewport(frame int) task.Viewport {
	return task.NewViewport(s.CenterX, s.CenterY, s.Scale, s.ZoomFactor, frame, s.Width, s.Height)
}

func (s *Settings) String() string {
	output := "\nMandelbrot settings\n"
	output += fmt.Sprintf("Center: (%f, %f)\n", s.CenterX, s.CenterY)
	output += fmt.Sprintf("Scale: %f\n", s.Scale)
	output += fmt.Sprintf("Size: %dx%d\n", s.Width, s.Height)
	output += fmt.Sprintf("Max Iterations: %d\n", s.MaxIterations)
	output += fmt.Sprintf("Zoom Factor: %f\n", s.ZoomFactor)
	output += fmt.Sprintf("Frames: %d\n", s.FrameCount)
	output += fmt.Sprintf("Threads: %d\n", s.ThreadCount)
	output += fmt.Sprintf("Output: %s###.%s\n", s.OutputPrefix, s.Format)
	return output
}

func (s *Settings) Encoder() (encoder.Encoder, error) {
	return encoder.New(s.Format, encoder.WithJpegQuality(s.JpegQuality))
}
