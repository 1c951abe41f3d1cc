package worker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"MandelbrotMovie/encoder"
	"MandelbrotMovie/mandelbrot"
	"MandelbrotMovie/misc"
	"MandelbrotMovie/task"

	"github.com/BrugadaSyndrome/bslogger"
)

var ErrStartAborted = errors.New("coordinator aborted the run before it started")

type Worker struct {
	encoder         encoder.Encoder
	framesCompleted int
	logger          bslogger.Logger
	mandelbrot      mandelbrot.Mandelbrot
	settings        Settings
}

func NewWorker(settings Settings) (*Worker, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}
	enc, err := settings.MandelbrotSettings.Encoder()
	if err != nil {
		return nil, err
	}

	worker := &Worker{
		encoder:    enc,
		logger:     misc.NewLogger(fmt.Sprintf("Worker %d", settings.Ordinal), settings.MandelbrotSettings.Verbose, nil),
		mandelbrot: mandelbrot.NewMandelbrot(settings.MandelbrotSettings),
		settings:   settings,
	}
	worker.logger.Debug(settings.String())
	return worker, nil
}

// Jobs lists the frames this worker owns in the order it renders them
func (w *Worker) Jobs() []task.FrameJob {
	frames := task.Stripe(w.settings.Ordinal, w.settings.ProcessCount, w.settings.MandelbrotSettings.FrameCount)
	jobs := make([]task.FrameJob, len(frames))
	for i, frame := range frames {
		jobs[i] = w.mandelbrot.FrameJob(frame, w.encoder.Extension())
	}
	return jobs
}

// Run renders the stripe in order and stops at the first failure
func (w *Worker) Run() error {
	w.logger.Info("Processing frames")
	startTime := time.Now()
	s := w.settings.MandelbrotSettings

	for _, job := range w.Jobs() {
		w.logger.Infof("Child %d PID=%d → %s", w.settings.Ordinal, os.Getpid(), job.OutputPath)
		w.logger.Infof("mandel: x=%f y=%f xscale=%f yscale=%f max=%d threads=%d outfile=%s",
			s.CenterX, s.CenterY, job.Viewport.XScale(), job.Viewport.YScale(), job.MaxIterations, job.ThreadCount, job.OutputPath)

		if err := w.mandelbrot.RenderToFile(job, w.encoder); err != nil {
			w.logger.Errorf("Frame %d failed: %s", job.FrameIndex, err)
			return err
		}
		w.framesCompleted++
	}

	w.logger.Info("Done processing frames")
	w.logger.Debugf("Processed %d frames in %s", w.framesCompleted, time.Since(startTime))
	return nil
}

func (w *Worker) FramesCompleted() int {
	return w.framesCompleted
}

// WaitForStart blocks until the coordinator writes a byte. A gate closed without one aborts the worker.
func WaitForStart(start io.Reader) error {
	gate := make([]byte, 1)
	if _, err := io.ReadFull(start, gate); err != nil {
		return ErrStartAborted
	}
	return nil
}

// RunFromEnvironment is the body of a worker process
func RunFromEnvironment(start io.Reader) error {
	settings, err := NewSettingsFromEnvironment()
	if err != nil {
		return err
	}
	worker, err := NewWorker(settings)
	if err != nil {
		return err
	}
	if err = WaitForStart(start); err != nil {
		return err
	}
	return worker.Run()
}
