//go:build linux

package memory_map

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"heapedit/process"
)

// LinuxMemoryMap reads memory maps from procfs
type LinuxMemoryMap struct {
	// Root is the procfs mount point, "/proc" unless overridden
	Root string
}

// NewLinuxMemoryMap creates a new LinuxMemoryMap instance
func NewLinuxMemoryMap() *LinuxMemoryMap {
	return &LinuxMemoryMap{Root: "/proc"}
}

func (l *LinuxMemoryMap) mapsPath(pid int) string {
	root := l.Root
	if root == "" {
		root = "/proc"
	}
	return filepath.Join(root, strconv.Itoa(pid), "maps")
}

// ReadMemoryMap reads and parses the memory map for a process from /proc/[pid]/maps
func (l *LinuxMemoryMap) ReadMemoryMap(pid int) ([]MemoryMapItem, error) {
	file, err := os.Open(l.mapsPath(pid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: pid %d", process.ErrProcessNotFound, pid)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %v", process.ErrPermissionDenied, err)
		}
		return nil, err
	}
	defer file.Close()

	return ParseMemoryMap(file)
}

// LocateHeap returns the bounds of the [heap] segment of pid
func (l *LinuxMemoryMap) LocateHeap(pid process.ProcessID) (process.MemoryRegion, error) {
	mm, err := l.ReadMemoryMap(int(pid))
	if err != nil {
		return process.MemoryRegion{}, fmt.Errorf("failed to read memory map: %w", err)
	}
	return FindHeap(mm)
}
