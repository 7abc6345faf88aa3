// Package patcher finds a byte pattern in the heap of a live process and
// overwrites the first occurrence in place.
//
// The heap is captured once and scanned; the write happens afterwards
// without any lock on the target. A target that mutates its heap between
// the two steps can invalidate the match (see Options.Verify).
package patcher

import (
	"bytes"
	"errors"
	"fmt"

	"heapedit/process"
	"heapedit/search"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Options tune a Patcher
type Options struct {
	// Verify re-reads the matched bytes right before writing and aborts
	// with ErrPatternChanged if they no longer equal the search pattern.
	Verify bool
}

// Patcher runs name -> pid -> heap -> read -> scan -> write
type Patcher struct {
	finder process.ProcessFinder
	dumper *Dumper
	opts   Options
	log    *logger.Logger
}

// New creates a Patcher
func New(finder process.ProcessFinder, heap process.HeapLocator, open process.AccessorOpener, opts Options) *Patcher {
	return &Patcher{
		finder: finder,
		dumper: NewDumper(heap, open),
		opts:   opts,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "patcher")),
	}
}

// Patch resolves the process by name and patches the first match in its heap.
// A missing pattern is not an error: the outcome has StatusPatternNotFound.
func (p *Patcher) Patch(name string, req PatchRequest) (PatchOutcome, error) {
	if outcome, err := p.reject(req); err != nil {
		return outcome, err
	}

	info, err := p.finder.OneByName(name)
	if err != nil {
		return p.fail(PatchOutcome{}, err)
	}
	return p.patch(*info, req)
}

// PatchPID is Patch for a known PID
func (p *Patcher) PatchPID(pid process.ProcessID, req PatchRequest) (PatchOutcome, error) {
	if outcome, err := p.reject(req); err != nil {
		return outcome, err
	}

	info, err := p.finder.FindProcessByPID(pid)
	if err != nil {
		return p.fail(PatchOutcome{}, err)
	}
	return p.patch(*info, req)
}

// reject validates req before any lookup or I/O
func (p *Patcher) reject(req PatchRequest) (PatchOutcome, error) {
	err := req.Validate()
	if err == nil {
		return PatchOutcome{}, nil
	}
	p.log.Infoln("Request rejected:", err)
	return PatchOutcome{
		Status: StatusRejected,
		State:  StateLengthViolation,
		Reason: err.Error(),
	}, err
}

func (p *Patcher) fail(outcome PatchOutcome, err error) (PatchOutcome, error) {
	outcome.Status = StatusFailed
	outcome.State = stateFor(err)
	p.log.Infoln("Terminal state", outcome.State, "-", err)
	return outcome, err
}

func (p *Patcher) patch(info process.ProcessInfo, req PatchRequest) (outcome PatchOutcome, err error) {
	outcome = PatchOutcome{Process: info, State: StateProcessResolved}
	p.log.Infoln("Resolved", info.String())

	region, err := p.dumper.heap.LocateHeap(info.PID)
	if err != nil {
		return p.fail(outcome, err)
	}
	outcome.Heap = region
	outcome.State = StateHeapResolved
	p.log.Infoln("Heap", region.String(), "size", region.Size().ToString())

	mem, err := p.dumper.open(info.PID, true)
	if err != nil {
		return p.fail(outcome, err)
	}
	defer func() {
		if cerr := mem.Close(); cerr != nil && err == nil {
			outcome, err = p.fail(outcome, fmt.Errorf("%w: close: %v", process.ErrIO, cerr))
		}
	}()

	data, err := mem.ReadRegion(region)
	if err != nil {
		return p.fail(outcome, err)
	}

	offset, err := search.Find(data, req.Search)
	outcome.State = StateScanned
	if errors.Is(err, search.ErrNotFound) {
		outcome.Status = StatusPatternNotFound
		outcome.State = StateNotFoundPattern
		p.log.Warn("Pattern not found in heap of ", info.String())
		return outcome, nil
	}
	if err != nil {
		return p.fail(outcome, err)
	}

	addr := region.Start + process.ProcessMemoryAddress(offset)
	p.log.Debugln("Match at offset", offset, "address", addr.ToString())

	if p.opts.Verify {
		if err := p.verify(mem, addr, req.Search); err != nil {
			return p.fail(outcome, err)
		}
	}

	if err := mem.WriteMemory(addr, req.Replace); err != nil {
		return p.fail(outcome, err)
	}
	outcome.Written = len(req.Replace)

	// keep the heap layout: overwrite the rest of the match with zeros
	if pad := req.Padding(); pad > 0 {
		if err := mem.WriteMemory(addr+process.ProcessMemoryAddress(len(req.Replace)), make([]byte, pad)); err != nil {
			return p.fail(outcome, err)
		}
		outcome.Written += pad
	}

	outcome.Status = StatusPatched
	outcome.State = StatePatched
	outcome.Address = addr
	p.log.Infoln("Patched", outcome.Written, "bytes at", addr.ToString())
	return outcome, nil
}

func (p *Patcher) verify(mem process.MemoryAccessor, addr process.ProcessMemoryAddress, want []byte) error {
	current, err := mem.ReadRegion(process.MemoryRegion{
		Start: addr,
		End:   addr + process.ProcessMemoryAddress(len(want)),
	})
	if err != nil {
		return err
	}
	if !bytes.Equal(current, want) {
		return fmt.Errorf("%w at %s", ErrPatternChanged, addr.ToString())
	}
	return nil
}

// Dump resolves the process by name and returns its heap bytes
func (p *Patcher) Dump(name string) (process.ProcessInfo, process.MemoryRegion, []byte, error) {
	info, err := p.finder.OneByName(name)
	if err != nil {
		return process.ProcessInfo{}, process.MemoryRegion{}, nil, err
	}
	region, data, err := p.dumper.Dump(info.PID)
	return *info, region, data, err
}

// DumpPID is Dump for a known PID
func (p *Patcher) DumpPID(pid process.ProcessID) (process.ProcessInfo, process.MemoryRegion, []byte, error) {
	info, err := p.finder.FindProcessByPID(pid)
	if err != nil {
		return process.ProcessInfo{}, process.MemoryRegion{}, nil, err
	}
	region, data, err := p.dumper.Dump(info.PID)
	return *info, region, data, err
}
