package coordinator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"MandelbrotMovie/encoder"
	"MandelbrotMovie/mandelbrot"
	"MandelbrotMovie/worker"
)

// TestMain lets the test binary double as a worker process, which is what SelfCommand starts
func TestMain(m *testing.M) {
	if _, ok := os.LookupEnv(worker.SettingsEnvironment); ok {
		if err := worker.RunFromEnvironment(os.Stdin); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func testSettings(t *testing.T, processCount int) Settings {
	s := DefaultSettings()
	s.ProcessCount = processCount
	s.MandelbrotSettings.CenterX = -0.5
	s.MandelbrotSettings.Width = 16
	s.MandelbrotSettings.Height = 12
	s.MandelbrotSettings.MaxIterations = 64
	s.MandelbrotSettings.FrameCount = 5
	s.MandelbrotSettings.ThreadCount = 2
	s.MandelbrotSettings.Format = "zst"
	s.MandelbrotSettings.OutputPrefix = filepath.Join(t.TempDir(), "mandel")
	return s
}

func framePath(s Settings, frame int) string {
	return fmt.Sprintf("%s%03d.zst", s.MandelbrotSettings.OutputPrefix, frame)
}

func TestExecuteRendersEveryFrame(t *testing.T) {
	settings := testSettings(t, 2)
	c := NewCoordinator(settings)
	defer c.Close()

	stats, err := c.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stats.Processes != 2 || stats.Threads != 2 || stats.Frames != 5 {
		t.Errorf("unexpected stats %s", stats.String())
	}
	if len(stats.ExitCodes) != 2 || stats.ExitCodes[0] != 0 || stats.ExitCodes[1] != 0 {
		t.Errorf("ExitCodes = %v, want [0 0]", stats.ExitCodes)
	}
	if stats.WallClock <= 0 || stats.Seconds() <= 0 {
		t.Errorf("WallClock = %s, want a positive duration", stats.WallClock)
	}
	if stats.RunID != c.RunID() || stats.RunID == "" {
		t.Errorf("RunID = %q, want %q", stats.RunID, c.RunID())
	}

	for frame := 0; frame < 5; frame++ {
		buffer, err := encoder.ReadRawFile(framePath(settings, frame))
		if err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
		if buffer.Width != 16 || buffer.Height != 12 {
			t.Errorf("frame %d is %dx%d, want 16x12", frame, buffer.Width, buffer.Height)
		}
	}
	if _, err = os.Stat(framePath(settings, 5)); err == nil {
		t.Error("frame 5 is past the frame count but was written")
	}

	status := c.Status()
	if status.Started != 2 || status.Exited != 2 || status.Failed != 0 {
		t.Errorf("status after the run = %s", status.String())
	}
}

func TestExecuteMatchesSingleProcess(t *testing.T) {
	single := testSettings(t, 1)
	striped := testSettings(t, 3)

	for _, s := range []Settings{single, striped} {
		c := NewCoordinator(s)
		if _, err := c.Execute(); err != nil {
			t.Fatalf("Execute with %d processes: %v", s.ProcessCount, err)
		}
		c.Close()
	}

	for frame := 0; frame < 5; frame++ {
		a, err := encoder.ReadRawFile(framePath(single, frame))
		if err != nil {
			t.Fatalf("ReadRawFile: %v", err)
		}
		b, err := encoder.ReadRawFile(framePath(striped, frame))
		if err != nil {
			t.Fatalf("ReadRawFile: %v", err)
		}
		for i := range a.Pix {
			if a.Pix[i] != b.Pix[i] {
				t.Fatalf("frame %d pixel %d differs between 1 and 3 processes", frame, i)
			}
		}
	}
}

func TestExecuteStartFailureAbortsBeforeRendering(t *testing.T) {
	settings := testSettings(t, 3)
	c := NewCoordinator(settings)
	defer c.Close()

	c.SetCommandFactory(func(ordinal int, environment string) (*exec.Cmd, error) {
		if ordinal == 2 {
			return exec.Command(filepath.Join(t.TempDir(), "no-such-binary")), nil
		}
		return SelfCommand(ordinal, environment)
	})

	stats, err := c.Execute()
	if err == nil {
		t.Fatal("expected Execute to fail when a worker cannot start")
	}
	if !strings.Contains(err.Error(), "worker 2") {
		t.Errorf("error %q should name worker 2", err)
	}
	if len(stats.ExitCodes) != 2 {
		t.Fatalf("ExitCodes = %v, want the two started workers", stats.ExitCodes)
	}
	for i, code := range stats.ExitCodes {
		if code == 0 {
			t.Errorf("worker %d exited cleanly, it should have been aborted", i)
		}
	}
	for frame := 0; frame < 5; frame++ {
		if _, err := os.Stat(framePath(settings, frame)); err == nil {
			t.Errorf("frame %d was rendered although the run was aborted", frame)
		}
	}
}

func TestExecuteReportsFailingWorker(t *testing.T) {
	settings := testSettings(t, 2)
	settings.MandelbrotSettings.OutputPrefix = filepath.Join(t.TempDir(), "missing", "mandel")
	c := NewCoordinator(settings)
	defer c.Close()

	stats, err := c.Execute()
	if err == nil {
		t.Fatal("expected Execute to report the failing workers")
	}
	if len(stats.ExitCodes) != 2 {
		t.Fatalf("ExitCodes = %v, want both workers reaped", stats.ExitCodes)
	}
	if status := c.Status(); status.Exited != 2 || status.Failed != 2 {
		t.Errorf("status = %s, want 2 exited and 2 failed", status.String())
	}
}

func TestStatusService(t *testing.T) {
	c := NewCoordinator(testSettings(t, 2))
	defer c.Close()

	if c.StatusAddress() != "" {
		t.Errorf("StatusAddress() = %q before the server started", c.StatusAddress())
	}
	if err := c.StartStatusServer("127.0.0.1:0"); err != nil {
		t.Fatalf("StartStatusServer: %v", err)
	}

	status, err := QueryStatus(c.StatusAddress())
	if err != nil {
		t.Fatalf("QueryStatus: %v", err)
	}
	if status.RunID != c.RunID() || status.Processes != 2 || status.Started != 0 {
		t.Errorf("status = %s", status.String())
	}

	c.StopStatusServer()
	if c.StatusAddress() != "" {
		t.Error("StatusAddress() should be empty after stopping")
	}
}

func TestLogFile(t *testing.T) {
	settings := testSettings(t, 1)
	settings.LogFile = filepath.Join(t.TempDir(), "coordinator.log")
	c := NewCoordinator(settings)
	if _, err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents, err := os.ReadFile(settings.LogFile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(contents), c.RunID()) {
		t.Errorf("log file does not mention run %s:\n%s", c.RunID(), contents)
	}
}

func TestVerifyClampsProcesses(t *testing.T) {
	tests := []struct {
		given, want int
	}{
		{-1, 1},
		{0, 1},
		{3, 3},
		{5, 5},
		{9, 5},
	}
	for _, tc := range tests {
		s := testSettings(t, tc.given)
		if err := s.Verify(); err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if s.ProcessCount != tc.want {
			t.Errorf("ProcessCount %d verified to %d, want %d", tc.given, s.ProcessCount, tc.want)
		}
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	contents := `{"ProcessCount": 4, "MandelbrotSettings": {"CenterX": -0.75, "ThreadCount": 30, "Width": 100}}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := DefaultSettings()
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	want := mandelbrot.DefaultSettings()
	if s.ProcessCount != 4 || s.MandelbrotSettings.CenterX != -0.75 || s.MandelbrotSettings.Width != 100 {
		t.Errorf("file values not applied: %s", s.String())
	}
	if s.MandelbrotSettings.ThreadCount != mandelbrot.MaxThreads {
		t.Errorf("ThreadCount = %d, want clamped to %d", s.MandelbrotSettings.ThreadCount, mandelbrot.MaxThreads)
	}
	if s.MandelbrotSettings.Height != want.Height || s.MandelbrotSettings.ZoomFactor != want.ZoomFactor {
		t.Errorf("values missing from the file lost their defaults: %s", s.String())
	}
}

func TestLoadRejectsBadJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := DefaultSettings()
	if err := s.Load(path); err == nil {
		t.Error("expected a parse error")
	}
}
