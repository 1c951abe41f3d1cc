package coordinator

import (
	"fmt"
	"time"

	"MandelbrotMovie/misc"
	"MandelbrotMovie/rpc"
)

// RunStatus is a snapshot of a run for observers of the coordinator
type RunStatus struct {
	Elapsed   time.Duration
	Exited    int
	Failed    int
	Processes int
	RunID     string
	Started   int
}

func (rs *RunStatus) String() string {
	output := "{RunStatus "
	output += fmt.Sprintf("RunID: %s ", rs.RunID)
	output += fmt.Sprintf("Processes: %d ", rs.Processes)
	output += fmt.Sprintf("Started: %d ", rs.Started)
	output += fmt.Sprintf("Exited: %d ", rs.Exited)
	output += fmt.Sprintf("Failed: %d ", rs.Failed)
	output += fmt.Sprintf("Elapsed: %s}", rs.Elapsed)
	return output
}

// Status is the rpc service the coordinator exposes. Only observers call it, workers never do.
type Status struct {
	coordinator *Coordinator
}

func (s *Status) RollCall(nothing misc.Nothing, present *bool) error {
	*present = true
	return nil
}

func (s *Status) Report(nothing misc.Nothing, status *RunStatus) error {
	*status = s.coordinator.Status()
	return nil
}

// QueryStatus asks the coordinator at address for its current status
func QueryStatus(address string) (RunStatus, error) {
	var status RunStatus

	client := rpc.NewTcpClient(address, "StatusClient")
	if err := client.Connect(); err != nil {
		return status, err
	}
	defer client.Disconnect()

	var present bool
	if err := client.Call("Status.RollCall", misc.Nothing{}, &present); err != nil {
		return status, err
	}
	if err := client.Call("Status.Report", misc.Nothing{}, &status); err != nil {
		return status, err
	}
	return status, nil
}
