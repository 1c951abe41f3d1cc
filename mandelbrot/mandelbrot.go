package mandelbrot

import (
	"errors"
	"fmt"
	"time"

	"MandelbrotMovie/encoder"
	"MandelbrotMovie/misc"
	"MandelbrotMovie/raster"
	"MandelbrotMovie/task"

	"github.com/BrugadaSyndrome/bslogger"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidJob = errors.New("invalid frame job")

type Mandelbrot struct {
	logger   bslogger.Logger
	settings Settings
}

func NewMandelbrot(settings Settings) Mandelbrot {
	return Mandelbrot{
		logger:   misc.NewLogger("Mandelbrot", settings.Verbose, nil),
		settings: settings,
	}
}

func (m *Mandelbrot) FrameJob(frame int, extension string) task.FrameJob {
	s := m.settings
	return task.FrameJob{
		FrameIndex:    frame,
		Height:        s.Height,
		MaxIterations: s.MaxIterations,
		OutputPath:    task.OutputPath(s.OutputPrefix, frame, extension),
		ThreadCount:   s.ThreadCount,
		Viewport:      task.NewViewport(s.CenterX, s.CenterY, s.Scale, s.ZoomFactor, frame, s.Width, s.Height),
		Width:         s.Width,
	}
}

// Render
// One goroutine per row range, joined before returning. A failed range releases the buffer.
func (m *Mandelbrot) Render(job task.FrameJob) (*raster.Buffer, error) {
	if err := checkJob(job); err != nil {
		return nil, err
	}

	buffer := raster.Allocate(job.Width, job.Height)
	rows, err := buffer.Split(task.Partition(job.Height, job.ThreadCount))
	if err != nil {
		buffer.Release()
		return nil, err
	}

	var group errgroup.Group
	for _, r := range rows {
		r := r
		group.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("rendering rows %s of frame %d: %v", r.Range.String(), job.FrameIndex, p)
				}
			}()
			renderRows(r, job)
			return nil
		})
	}

	if err = group.Wait(); err != nil {
		buffer.Release()
		return nil, err
	}
	return buffer, nil
}

func (m *Mandelbrot) RenderToFile(job task.FrameJob, enc encoder.Encoder) error {
	startTime := time.Now()

	buffer, err := m.Render(job)
	if err != nil {
		return err
	}
	defer buffer.Release()
	m.logger.Debugf("Rendered frame %d in %s", job.FrameIndex, time.Since(startTime))

	if err = enc.Encode(buffer, job.OutputPath); err != nil {
		return fmt.Errorf("saving frame %d: %w", job.FrameIndex, err)
	}
	return nil
}

func renderRows(rows raster.Rows, job task.FrameJob) {
	v := job.Viewport
	width, height := float64(job.Width), float64(job.Height)

	for j := rows.Range.Start; j < rows.Range.End; j++ {
		y := v.YMin + float64(j)*(v.YMax-v.YMin)/height
		for i := 0; i < job.Width; i++ {
			x := v.XMin + float64(i)*(v.XMax-v.XMin)/width
			iterations := IterationsAtPoint(x, y, job.MaxIterations)
			rows.Set(i, j, uint32(IterationToColor(iterations, job.MaxIterations)))
		}
	}
}

func checkJob(job task.FrameJob) error {
	switch {
	case job.Width < 1 || job.Height < 1:
		return fmt.Errorf("%w: frame %d is %dx%d", ErrInvalidJob, job.FrameIndex, job.Width, job.Height)
	case job.ThreadCount < MinThreads || job.ThreadCount > MaxThreads:
		return fmt.Errorf("%w: frame %d asks for %d threads", ErrInvalidJob, job.FrameIndex, job.ThreadCount)
	case job.MaxIterations < 1:
		return fmt.Errorf("%w: frame %d has max iterations %d", ErrInvalidJob, job.FrameIndex, job.MaxIterations)
	case !job.Viewport.Valid():
		return fmt.Errorf("%w: frame %d has viewport %s", ErrInvalidJob, job.FrameIndex, job.Viewport.String())
	}
	return nil
}
