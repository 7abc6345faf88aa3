package patcher

import (
	"fmt"

	"heapedit/process"
)

type write struct {
	addr process.ProcessMemoryAddress
	data []byte
}

// fakeMemory backs a process address space with a byte slice starting at base
// and records every read and write.
type fakeMemory struct {
	base     process.ProcessMemoryAddress
	heap     []byte
	writes   []write
	reads    int
	opens    int
	closes   int
	writable []bool

	readErr  error
	closeErr error
	writeErr func(n int) error // n is the index of the write being attempted
	onRead   func(f *fakeMemory)
}

func (f *fakeMemory) open(pid process.ProcessID, writable bool) (process.MemoryAccessor, error) {
	f.opens++
	f.writable = append(f.writable, writable)
	return f, nil
}

func (f *fakeMemory) ReadRegion(region process.MemoryRegion) ([]byte, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.onRead != nil {
		f.onRead(f)
	}
	if region.Start < f.base || int(region.End-f.base) > len(f.heap) {
		return nil, fmt.Errorf("%w: read outside heap", process.ErrIO)
	}
	out := make([]byte, region.Size())
	copy(out, f.heap[region.Start-f.base:region.End-f.base])
	return out, nil
}

func (f *fakeMemory) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if f.writeErr != nil {
		if err := f.writeErr(len(f.writes)); err != nil {
			return err
		}
	}
	if addr < f.base || int(addr-f.base)+len(data) > len(f.heap) {
		return fmt.Errorf("%w: write outside heap", process.ErrIO)
	}
	f.writes = append(f.writes, write{addr: addr, data: append([]byte(nil), data...)})
	copy(f.heap[addr-f.base:], data)
	return nil
}

func (f *fakeMemory) Close() error {
	f.closes++
	return f.closeErr
}

func (f *fakeMemory) written() int {
	n := 0
	for _, w := range f.writes {
		n += len(w.data)
	}
	return n
}

type fakeHeap struct {
	region process.MemoryRegion
	err    error
	calls  int
}

func (h *fakeHeap) LocateHeap(pid process.ProcessID) (process.MemoryRegion, error) {
	h.calls++
	return h.region, h.err
}

type fakeFinder struct {
	procs []process.ProcessInfo
	calls int
}

func (f *fakeFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	f.calls++
	for i := range f.procs {
		if f.procs[i].PID == pid {
			return &f.procs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: pid %d", process.ErrProcessNotFound, pid)
}

func (f *fakeFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	f.calls++
	var out []process.ProcessInfo
	for _, p := range f.procs {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeFinder) OneByName(name string) (*process.ProcessInfo, error) {
	matches, _ := f.FindProcessByName(name)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: '%s'", process.ErrProcessNotFound, name)
	}
	return &matches[0], nil
}

type harness struct {
	finder *fakeFinder
	heap   *fakeHeap
	mem    *fakeMemory
}

const heapBase = process.ProcessMemoryAddress(0x56000000)

func newHarness(heap []byte) *harness {
	return &harness{
		finder: &fakeFinder{procs: []process.ProcessInfo{{PID: 4242, Name: "target"}}},
		heap: &fakeHeap{region: process.MemoryRegion{
			Start: heapBase,
			End:   heapBase + process.ProcessMemoryAddress(len(heap)),
			Label: "[heap]",
		}},
		mem: &fakeMemory{base: heapBase, heap: heap},
	}
}

func (h *harness) patcher(opts Options) *Patcher {
	return New(h.finder, h.heap, h.mem.open, opts)
}
