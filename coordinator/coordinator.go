package coordinator

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/rpc"
	"MandelbrotMovie/worker"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RunStats summarises a finished run
type RunStats struct {
	ExitCodes []int
	Frames    int
	Processes int
	RunID     string
	Threads   int
	WallClock time.Duration
}

func (rs *RunStats) Seconds() float64 {
	return rs.WallClock.Seconds()
}

func (rs *RunStats) String() string {
	return fmt.Sprintf("Total runtime: %.3f sec with %d processes and %d threads", rs.Seconds(), rs.Processes, rs.Threads)
}

// CommandFactory builds the unstarted command for one worker process. environment is the NAME=value entry carrying
// the worker's settings and must end up in the command's environment.
type CommandFactory func(ordinal int, environment string) (*exec.Cmd, error)

// SelfCommand re-executes the running binary as a worker. Output goes straight to this process's stdout and stderr
// so worker lines show up as soon as they are written.
func SelfCommand(ordinal int, environment string) (*exec.Cmd, error) {
	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable for worker %d: %w", ordinal, err)
	}
	cmd := exec.Command(executable)
	cmd.Env = append(os.Environ(), environment)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

type child struct {
	cmd     *exec.Cmd
	gate    io.WriteCloser
	ordinal int
}

// Coordinator forks the worker processes of a run and waits for all of them
type Coordinator struct {
	exited     int
	failed     int
	logFile    *os.File
	logger     bslogger.Logger
	mutex      sync.Mutex
	newCommand CommandFactory
	runID      string
	settings   Settings
	startTime  time.Time
	started    int
	status     *rpc.TcpServer
}

func NewCoordinator(settings Settings) *Coordinator {
	coordinator := &Coordinator{
		logger:     misc.NewLogger("Coordinator", settings.MandelbrotSettings.Verbose, nil),
		newCommand: SelfCommand,
		runID:      uuid.NewString(),
	}
	misc.CheckError(settings.Verify(), coordinator.logger, misc.Fatal)
	coordinator.settings = settings

	// Mirror the log to a file when asked so the run can be reviewed later
	if settings.LogFile != "" {
		logFile, err := os.Create(settings.LogFile)
		misc.CheckError(err, coordinator.logger, misc.Warning)
		if err == nil {
			coordinator.logFile = logFile
			coordinator.logger = misc.NewLogger("Coordinator", settings.MandelbrotSettings.Verbose, logFile)
		}
	}

	return coordinator
}

// SetCommandFactory replaces how worker processes are created
func (c *Coordinator) SetCommandFactory(factory CommandFactory) {
	c.newCommand = factory
}

func (c *Coordinator) RunID() string {
	return c.runID
}

// Execute
// Starts one worker process per stripe and blocks until every one of them has exited. Workers wait at a start gate
// on their stdin; the gates only open once every process has been created, so a failure to create any of them aborts
// the run before a single frame is rendered. The wall clock covers the first start to the last reap.
func (c *Coordinator) Execute() (RunStats, error) {
	processCount := c.settings.ProcessCount
	stats := RunStats{
		Frames:    c.settings.MandelbrotSettings.FrameCount,
		Processes: processCount,
		RunID:     c.runID,
		Threads:   c.settings.MandelbrotSettings.ThreadCount,
	}

	if c.settings.StatusAddress != "" {
		misc.CheckError(c.StartStatusServer(c.settings.StatusAddress), c.logger, misc.Warning)
		defer c.StopStatusServer()
	}

	c.logger.Infof("Starting run %s with %d processes", c.runID, processCount)
	startTime := time.Now()
	c.mutex.Lock()
	c.startTime = startTime
	c.mutex.Unlock()

	children := make([]child, 0, processCount)
	var startErr error
	for ordinal := 0; ordinal < processCount; ordinal++ {
		ch, err := c.startWorker(ordinal, processCount)
		if err != nil {
			startErr = fmt.Errorf("starting worker %d: %w", ordinal, err)
			c.logger.Errorf("%s, aborting the run", startErr)
			break
		}
		children = append(children, ch)
	}

	// Open every gate, or close them all unopened when a worker could not be started
	for _, ch := range children {
		if startErr == nil {
			if _, err := ch.gate.Write([]byte{'\n'}); err != nil {
				c.logger.Warningf("Opening the start gate of worker %d: %s", ch.ordinal, err)
			}
		}
		misc.CheckError(ch.gate.Close(), c.logger, misc.Warning)
	}

	stats.ExitCodes = make([]int, len(children))
	var group errgroup.Group
	for i, ch := range children {
		i, ch := i, ch
		group.Go(func() error {
			err := ch.cmd.Wait()
			stats.ExitCodes[i] = -1
			if ch.cmd.ProcessState != nil {
				stats.ExitCodes[i] = ch.cmd.ProcessState.ExitCode()
			}
			c.recordExit(err)
			if err != nil {
				c.logger.Warningf("Worker %d exited with %s", ch.ordinal, err)
				return fmt.Errorf("worker %d: %w", ch.ordinal, err)
			}
			c.logger.Debugf("Worker %d finished", ch.ordinal)
			return nil
		})
	}
	waitErr := group.Wait()

	stats.WallClock = time.Since(startTime)
	c.logger.Debugf("Reaped %d workers in %s", len(children), stats.WallClock)

	if startErr != nil {
		return stats, startErr
	}
	return stats, waitErr
}

func (c *Coordinator) startWorker(ordinal int, processCount int) (child, error) {
	settings := worker.Settings{
		MandelbrotSettings: c.settings.MandelbrotSettings,
		Ordinal:            ordinal,
		ProcessCount:       processCount,
	}
	environment, err := settings.Environment()
	if err != nil {
		return child{}, err
	}

	cmd, err := c.newCommand(ordinal, environment)
	if err != nil {
		return child{}, err
	}
	gate, err := cmd.StdinPipe()
	if err != nil {
		return child{}, err
	}
	if err = cmd.Start(); err != nil {
		gate.Close()
		return child{}, err
	}

	c.mutex.Lock()
	c.started++
	c.mutex.Unlock()
	c.logger.Debugf("Started worker %d PID=%d", ordinal, cmd.Process.Pid)

	return child{cmd: cmd, gate: gate, ordinal: ordinal}, nil
}

func (c *Coordinator) recordExit(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.exited++
	if err != nil {
		c.failed++
	}
}

// Status reports how far the run has come
func (c *Coordinator) Status() RunStatus {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	status := RunStatus{
		Exited:    c.exited,
		Failed:    c.failed,
		Processes: c.settings.ProcessCount,
		RunID:     c.runID,
		Started:   c.started,
	}
	if !c.startTime.IsZero() {
		status.Elapsed = time.Since(c.startTime)
	}
	return status
}

// StartStatusServer serves the Status rpc service at address
func (c *Coordinator) StartStatusServer(address string) error {
	c.status = rpc.NewTcpServer(&Status{coordinator: c}, address, "StatusServer")
	if err := c.status.Run(); err != nil {
		c.status = nil
		return err
	}
	c.logger.Infof("Serving run status at %s", c.status.Address())
	return nil
}

// StatusAddress is where the status server listens, empty when it is not running
func (c *Coordinator) StatusAddress() string {
	if c.status == nil {
		return ""
	}
	return c.status.Address()
}

func (c *Coordinator) StopStatusServer() {
	if c.status == nil {
		return
	}
	misc.CheckError(c.status.Stop(), c.logger, misc.Warning)
	c.status = nil
}

// Close releases the log file
func (c *Coordinator) Close() error {
	c.StopStatusServer()
	if c.logFile == nil {
		return nil
	}
	err := c.logFile.Close()
	c.logFile = nil
	return err
}
