package transport

import (
	"path/filepath"
	"sort"
)

// candidate device node patterns for USB serial adapters and boards
var portPatterns = []string{
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
	"/dev/cu.usbserial*",
	"/dev/cu.usbmodem*",
	"/dev/cu.SLAB_USBtoUART*",
	"/dev/cu.wchusbserial*",
}

// ListSerialPorts returns the device nodes that look like serial adapters.
func ListSerialPorts() []string {
	return listPorts(portPatterns)
}

func listPorts(patterns []string) []string {
	seen := make(map[string]bool)
	var ports []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ports = append(ports, m)
			}
		}
	}
	sort.Strings(ports)
	return ports
}
