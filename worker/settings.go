package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"MandelbrotMovie/mandelbrot"
)

// SettingsEnvironment names the variable a worker process receives its settings in
const SettingsEnvironment = "MANDELBROT_MOVIE_WORKER"

var ErrNotAWorker = errors.New(SettingsEnvironment + " is not set")

type Settings struct {
	MandelbrotSettings mandelbrot.Settings
	Ordinal            int
	ProcessCount       int
}

func NewSettingsFromEnvironment() (Settings, error) {
	var s Settings
	payload, ok := os.LookupEnv(SettingsEnvironment)
	if !ok || payload == "" {
		return s, ErrNotAWorker
	}
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return s, fmt.Errorf("decoding %s: %w", SettingsEnvironment, err)
	}
	return s, s.Verify()
}

// Environment encodes the settings as the NAME=value entry for a worker process
func (s *Settings) Environment() (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return SettingsEnvironment + "=" + string(payload), nil
}

func (s *Settings) String() string {
	output := "\nWorker settings\n"
	output += fmt.Sprintf("Ordinal: %d of %d\n", s.Ordinal, s.ProcessCount)
	output += s.MandelbrotSettings.String()
	return output
}

func (s *Settings) Verify() error {
	if s.ProcessCount < 1 {
		s.ProcessCount = 1
	}
	if s.Ordinal < 0 || s.Ordinal >= s.ProcessCount {
		return fmt.Errorf("worker ordinal %d is outside [0, %d)", s.Ordinal, s.ProcessCount)
	}
	return s.MandelbrotSettings.Verify()
}
