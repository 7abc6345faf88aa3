package process_blob

import (
	"fmt"
	"sync"

	"heapedit/process"
)

// Blob is a process.MemoryAccessor over a captured copy of a memory region.
// Writes land in the captured bytes, never in a live process.
type Blob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
	closed      bool
	mu          sync.Mutex
}

var _ process.MemoryAccessor = (*Blob)(nil)

// NewProcessBlob wraps data, which starts at baseAddress in the captured process.
// The slice is shared, not copied.
func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *Blob {
	return &Blob{
		baseaddress: baseAddress,
		data:        data,
	}
}

func (p *Blob) inBounds(addr process.ProcessMemoryAddress, size int) bool {
	captured := process.MemoryRegion{
		Start: p.baseaddress,
		End:   p.baseaddress + process.ProcessMemoryAddress(len(p.data)),
	}
	return captured.Contains(addr, process.ProcessMemorySize(size))
}

func (p *Blob) ReadRegion(region process.MemoryRegion) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, process.ErrProcessNotOpen
	}
	if !p.inBounds(region.Start, int(region.Size())) {
		return nil, fmt.Errorf("%w: %s outside captured region", process.ErrIO, region.String())
	}

	offset := region.Start - p.baseaddress
	out := make([]byte, region.Size())
	copy(out, p.data[offset:])
	return out, nil
}

func (p *Blob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return process.ErrProcessNotOpen
	}
	if !p.inBounds(addr, len(data)) {
		return fmt.Errorf("%w: write of %d bytes at %s outside captured region", process.ErrIO, len(data), addr.ToString())
	}

	copy(p.data[addr-p.baseaddress:], data)
	return nil
}

func (p *Blob) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
