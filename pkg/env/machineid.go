package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const machineIDLen = 12

// MachineID retrieves a stable ID identifying the machine. The raw
// machine ID is hashed with the app name so it isn't exposed to brokers.
// Falls back to the hostname.
func MachineID() string {
	id, err := machineid.ProtectedID("rcx")
	if err == nil {
		if len(id) > machineIDLen {
			id = id[:machineIDLen]
		}
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "rcx"
}
