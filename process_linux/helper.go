//go:build linux

package process_linux

import (
	"fmt"

	"heapedit/process"
	"heapedit/process/memory_map"
)

// Memory channel backends
const (
	BackendMemFile = "mem" // /proc/[pid]/mem
	BackendVM      = "vm"  // process_vm_readv / process_vm_writev
)

// NewOpener returns the accessor opener for the named backend
func NewOpener(backend string) (process.AccessorOpener, error) {
	switch backend {
	case BackendMemFile, "":
		return OpenMemFile, nil
	case BackendVM:
		return OpenVM, nil
	default:
		return nil, fmt.Errorf("unknown memory backend '%s' (expected %s or %s)", backend, BackendMemFile, BackendVM)
	}
}

// NewHeapLocator returns a heap locator reading /proc/[pid]/maps
func NewHeapLocator() process.HeapLocator {
	return memory_map.NewLinuxMemoryMap()
}
