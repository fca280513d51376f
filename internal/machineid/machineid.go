// Package machineid derives a short host fingerprint used as advisory
// metadata on issued licenses. Nothing enforces it at verification time,
// it only tells an operator where a license was installed.
package machineid

import (
	"fmt"
	"net"
	"os"
	"runtime"

	"github.com/cespare/xxhash/v2"
)

// ID fingerprints the current host from its name, architecture and first
// hardware network address, rendered as 16 hex characters. Hosts where
// none of those are available report "unknown".
func ID() string {
	host, _ := os.Hostname()
	mac := firstHardwareAddr()
	if host == "" && mac == "" {
		return "unknown"
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%v-%v-%v", host, runtime.GOARCH, mac)))
}

func firstHardwareAddr() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String()
	}
	return ""
}
