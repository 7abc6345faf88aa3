package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"heapedit/process"
)

const (
	metadataFile = "metadata.json"
	heapFile     = "heap.bin"
)

// Snapshot is a heap captured from one process. It stands in for the live
// process: it finds that process, locates its heap and opens Blobs over the
// captured bytes, so a patch can be replayed offline.
type Snapshot struct {
	Process process.ProcessInfo
	Heap    process.MemoryRegion
	Data    []byte
}

var _ process.ProcessFinder = (*Snapshot)(nil)
var _ process.HeapLocator = (*Snapshot)(nil)

// NewSnapshot copies data so later patches do not alias the caller's buffer
func NewSnapshot(info process.ProcessInfo, heap process.MemoryRegion, data []byte) *Snapshot {
	return &Snapshot{
		Process: info,
		Heap:    heap,
		Data:    append([]byte(nil), data...),
	}
}

type metadata struct {
	PID   process.ProcessID            `json:"pid"`
	Name  string                       `json:"name"`
	Start process.ProcessMemoryAddress `json:"start"`
	End   process.ProcessMemoryAddress `json:"end"`
	Label string                       `json:"label"`
}

// Save writes metadata.json and heap.bin into dirname
func (s *Snapshot) Save(dirname string) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(metadata{
		PID:   s.Process.PID,
		Name:  s.Process.Name,
		Start: s.Heap.Start,
		End:   s.Heap.End,
		Label: s.Heap.Label,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dirname, metadataFile), metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, heapFile), s.Data, 0644); err != nil {
		return fmt.Errorf("failed to write heap file: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save
func Load(dirname string) (*Snapshot, error) {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var m metadata
	if err := json.Unmarshal(metadataBytes, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	heap, err := process.NewMemoryRegion(m.Start, m.End, m.Label)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dirname, heapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read heap: %w", err)
	}
	if uint64(len(data)) != uint64(heap.Size()) {
		return nil, fmt.Errorf("heap file holds %d bytes, region %s needs %s", len(data), heap.String(), heap.Size().ToString())
	}

	return &Snapshot{
		Process: process.ProcessInfo{PID: m.PID, Name: m.Name},
		Heap:    heap,
		Data:    data,
	}, nil
}

func (s *Snapshot) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	if pid != s.Process.PID {
		return nil, fmt.Errorf("%w: pid %d is not in the snapshot", process.ErrProcessNotFound, pid)
	}
	info := s.Process
	return &info, nil
}

func (s *Snapshot) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	if name != s.Process.Name {
		return nil, nil
	}
	return []process.ProcessInfo{s.Process}, nil
}

func (s *Snapshot) OneByName(name string) (*process.ProcessInfo, error) {
	if name != s.Process.Name {
		return nil, fmt.Errorf("%w: '%s' is not in the snapshot", process.ErrProcessNotFound, name)
	}
	info := s.Process
	return &info, nil
}

func (s *Snapshot) LocateHeap(pid process.ProcessID) (process.MemoryRegion, error) {
	if pid != s.Process.PID {
		return process.MemoryRegion{}, fmt.Errorf("%w: pid %d", process.ErrHeapNotFound, pid)
	}
	return s.Heap, nil
}

// Open is a process.AccessorOpener over the captured heap
func (s *Snapshot) Open(pid process.ProcessID, writable bool) (process.MemoryAccessor, error) {
	if pid != s.Process.PID {
		return nil, fmt.Errorf("%w: pid %d", process.ErrProcessNotFound, pid)
	}
	return NewProcessBlob(s.Heap.Start, s.Data), nil
}
