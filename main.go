package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"MandelbrotMovie/coordinator"
	"MandelbrotMovie/encoder"
	"MandelbrotMovie/misc"
	"MandelbrotMovie/worker"
)

func main() {
	// The coordinator starts worker processes from this same binary and hands them their settings in the environment
	if _, ok := os.LookupEnv(worker.SettingsEnvironment); ok {
		startWorker()
		return
	}

	settings, statusAddress := parseArguments(os.Args[1:])
	if statusAddress != "" {
		queryStatus(statusAddress)
		return
	}
	startCoordinator(settings)
}

// parseArguments
// Flags win over the settings file: the file is loaded into the settings and the flags are parsed a second time so
// only the ones given explicitly overwrite what the file said.
func parseArguments(arguments []string) (coordinator.Settings, string) {
	settings := coordinator.DefaultSettings()
	ms := &settings.MandelbrotSettings
	var settingsFile, statusAddress string

	flags := flag.NewFlagSet("mandel", flag.ExitOnError)
	flags.Float64Var(&ms.CenterX, "x", ms.CenterX, "X center")
	flags.Float64Var(&ms.CenterY, "y", ms.CenterY, "Y center")
	flags.Float64Var(&ms.Scale, "s", ms.Scale, "X scale of the first frame")
	flags.IntVar(&ms.Width, "W", ms.Width, "Width in pixels")
	flags.IntVar(&ms.Height, "H", ms.Height, "Height in pixels")
	flags.IntVar(&ms.MaxIterations, "m", ms.MaxIterations, "Max iterations")
	flags.StringVar(&ms.OutputPrefix, "o", ms.OutputPrefix, "Output filename prefix")
	flags.IntVar(&settings.ProcessCount, "c", settings.ProcessCount, "Number of worker processes")
	flags.IntVar(&ms.ThreadCount, "t", ms.ThreadCount, "Number of threads per frame (1-20)")
	flags.Float64Var(&ms.ZoomFactor, "z", ms.ZoomFactor, "Zoom factor per frame")
	flags.IntVar(&ms.FrameCount, "frames", ms.FrameCount, "Number of frames in the animation")
	flags.StringVar(&ms.Format, "format", ms.Format, "Image format: "+strings.Join(encoder.Formats(), ", "))
	flags.IntVar(&ms.JpegQuality, "quality", ms.JpegQuality, "Jpeg quality (1-100)")
	flags.BoolVar(&ms.Verbose, "verbose", ms.Verbose, "Log debug output")
	flags.StringVar(&settings.LogFile, "logFile", settings.LogFile, "Also write the coordinator log to this file")
	flags.StringVar(&settings.StatusAddress, "statusAddress", settings.StatusAddress, "Serve run status over rpc at this address")
	flags.StringVar(&settingsFile, "settings", "", "Json settings file, flags given explicitly override it")
	flags.StringVar(&statusAddress, "queryStatus", "", "Print the status of the run served at this address and exit")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Use: mandel [options]\n")
		flags.PrintDefaults()
	}

	misc.CheckError(flags.Parse(arguments), misc.NewLogger("Arguments", false, nil), misc.Fatal)
	if settingsFile != "" {
		misc.CheckError(settings.Load(settingsFile), misc.NewLogger("Arguments", false, nil), misc.Fatal)
		misc.CheckError(flags.Parse(arguments), misc.NewLogger("Arguments", false, nil), misc.Fatal)
	}
	return settings, statusAddress
}

func startCoordinator(settings coordinator.Settings) {
	c := coordinator.NewCoordinator(settings)
	logger := misc.NewLogger("Main", settings.MandelbrotSettings.Verbose, nil)

	stats, err := c.Execute()
	logger.Info(stats.String())
	misc.CheckError(c.Close(), logger, misc.Warning)
	misc.CheckError(err, logger, misc.Fatal)
}

func startWorker() {
	logger := misc.NewLogger(fmt.Sprintf("Worker PID=%d", os.Getpid()), false, nil)
	misc.CheckError(worker.RunFromEnvironment(os.Stdin), logger, misc.Fatal)
}

func queryStatus(address string) {
	logger := misc.NewLogger("Status", false, nil)
	status, err := coordinator.QueryStatus(address)
	misc.CheckError(err, logger, misc.Fatal)
	logger.Info(status.String())
}
