package task

import "fmt"

// FrameJob is a self-contained unit of render work for one frame. No two jobs share mutable state.
type FrameJob struct {
	FrameIndex    int
	Height        int
	MaxIterations int
	OutputPath    string
	ThreadCount   int
	Viewport      Viewport
	Width         int
}

func (j *FrameJob) String() string {
	output := "{FrameJob "
	output += fmt.Sprintf("Frame: %d ", j.FrameIndex)
	output += fmt.Sprintf("Size: %dx%d ", j.Width, j.Height)
	output += fmt.Sprintf("MaxIterations: %d ", j.MaxIterations)
	output += fmt.Sprintf("Threads: %d ", j.ThreadCount)
	output += fmt.Sprintf("Output: %s ", j.OutputPath)
	output += fmt.Sprintf("Viewport: %s}", j.Viewport.String())
	return output
}

// OutputPath names a frame file as {prefix}{frame zero-padded to 3 digits}.{ext}
func OutputPath(prefix string, frame int, ext string) string {
	return fmt.Sprintf("%s%03d.%s", prefix, frame, ext)
}
