package coordinator

import (
	"encoding/json"
	"fmt"

	"MandelbrotMovie/mandelbrot"
	"MandelbrotMovie/misc"

	"github.com/BrugadaSyndrome/bslogger"
)

type Settings struct {
	logger bslogger.Logger

	LogFile            string
	MandelbrotSettings mandelbrot.Settings
	ProcessCount       int
	StatusAddress      string
}

func DefaultSettings() Settings {
	return Settings{
		MandelbrotSettings: mandelbrot.DefaultSettings(),
		ProcessCount:       1,
	}
}

// NewSettings loads settingsFile over the defaults. Any problem reading it is fatal.
func NewSettings(settingsFile string) Settings {
	s := DefaultSettings()
	s.logger = misc.NewLogger("CoordinatorSettings", false, nil)
	misc.CheckError(s.Load(settingsFile), s.logger, misc.Fatal)
	misc.CheckError(s.Verify(), s.logger, misc.Fatal)
	s.logger.Debug(s.String())
	return s
}

// Load overlays the values found in a json settings file. Fields missing from the file keep their current value.
func (s *Settings) Load(settingsFile string) error {
	fileBytes, err := misc.ReadFile(settingsFile)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(fileBytes, s); err != nil {
		return fmt.Errorf("parsing %s: %w", settingsFile, err)
	}
	return nil
}

func (s *Settings) String() string {
	output := "\nCoordinator settings\n"
	output += fmt.Sprintf("Processes: %d\n", s.ProcessCount)
	if s.StatusAddress != "" {
		output += fmt.Sprintf("Status Address: %s\n", s.StatusAddress)
	}
	if s.LogFile != "" {
		output += fmt.Sprintf("Log File: %s\n", s.LogFile)
	}
	output += s.MandelbrotSettings.String()
	return output
}

// Verify clamps the process count into [1, FrameCount]; extra processes would have no frames to render
func (s *Settings) Verify() error {
	s.logger = misc.NewLogger("CoordinatorSettings", s.MandelbrotSettings.Verbose, nil)
	misc.CheckError(s.MandelbrotSettings.Verify(), s.logger, misc.Fatal)

	if s.ProcessCount < 1 {
		s.logger.Debugf("Raising process count %d to 1", s.ProcessCount)
		s.ProcessCount = 1
	}
	if s.ProcessCount > s.MandelbrotSettings.FrameCount {
		s.logger.Debugf("Lowering process count %d to %d", s.ProcessCount, s.MandelbrotSettings.FrameCount)
		s.ProcessCount = s.MandelbrotSettings.FrameCount
	}
	return nil
}
