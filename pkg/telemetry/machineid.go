package telemetry

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine.
// It falls back to the hostname when no machine ID is available.
func MachineID() string {
	id, err := machineid.ID()
	if err == nil {
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}

// ProtectedMachineID returns an app specific hash of the machine ID, safe to
// publish.
func ProtectedMachineID(appID string) string {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return MachineID()
	}
	return id
}
