package process

import (
	"fmt"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// MemoryRegion is a contiguous [Start, End) range of a process address space
type MemoryRegion struct {
	Start ProcessMemoryAddress
	End   ProcessMemoryAddress
	Label string // pathname or pseudo label such as "[heap]"
}

// NewMemoryRegion validates start < end
func NewMemoryRegion(start, end ProcessMemoryAddress, label string) (MemoryRegion, error) {
	if start >= end {
		return MemoryRegion{}, fmt.Errorf("invalid region %s-%s: start must be below end", start.ToString(), end.ToString())
	}
	return MemoryRegion{Start: start, End: end, Label: label}, nil
}

// Size returns the number of bytes covered by the region
func (r MemoryRegion) Size() ProcessMemorySize {
	return ProcessMemorySize(r.End - r.Start)
}

// Contains reports whether [addr, addr+size) lies entirely inside the region
func (r MemoryRegion) Contains(addr ProcessMemoryAddress, size ProcessMemorySize) bool {
	return addr >= r.Start && addr+ProcessMemoryAddress(size) <= r.End
}

func (r MemoryRegion) String() string {
	return fmt.Sprintf("%x-%x %s", uint64(r.Start), uint64(r.End), r.Label)
}
