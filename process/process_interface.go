package process

// MemoryAccessor is a byte-addressable channel onto the address space of one process.
// An accessor is opened for a single operation and must be closed on every exit path.
type MemoryAccessor interface {
	// ReadRegion reads exactly region.Size() bytes starting at region.Start
	ReadRegion(region MemoryRegion) ([]byte, error)

	// WriteMemory writes data verbatim at addr, without any length adjustment
	WriteMemory(addr ProcessMemoryAddress, data []byte) error

	// Close releases the underlying channel
	Close() error
}

// AccessorOpener opens a MemoryAccessor for the given process.
// writable is false for read-only operations such as heap dumps.
type AccessorOpener func(pid ProcessID, writable bool) (MemoryAccessor, error)

// HeapLocator resolves the heap segment of a process
type HeapLocator interface {
	LocateHeap(pid ProcessID) (MemoryRegion, error)
}
