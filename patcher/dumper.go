package patcher

import (
	"heapedit/process"
)

// Dumper reads the full heap of a process without modifying it
type Dumper struct {
	heap process.HeapLocator
	open process.AccessorOpener
}

func NewDumper(heap process.HeapLocator, open process.AccessorOpener) *Dumper {
	return &Dumper{heap: heap, open: open}
}

// Dump locates the heap of pid and reads it through a read-only channel
func (d *Dumper) Dump(pid process.ProcessID) (process.MemoryRegion, []byte, error) {
	region, err := d.heap.LocateHeap(pid)
	if err != nil {
		return process.MemoryRegion{}, nil, err
	}

	mem, err := d.open(pid, false)
	if err != nil {
		return region, nil, err
	}
	defer mem.Close()

	data, err := mem.ReadRegion(region)
	if err != nil {
		return region, nil, err
	}
	return region, data, nil
}
