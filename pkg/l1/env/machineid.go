// Package env provides the host identity for controllers.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the machine ID, so the raw ID is never published.
const AppID = "robko"

// MachineID retrieves the unique ID identifying the machine.
// The hostname is used when the machine ID is not available.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id
	}
	glog.Warningf("machine ID not available: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}
