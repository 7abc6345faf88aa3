package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"heapedit/process"
)

// HeapLabel is the pseudo path the kernel gives the heap segment
const HeapLabel = "[heap]"

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Offset  uint64 // Offset into the mapped file
	Device  string // major:minor
	Inode   uint64
	Path    string // Pathname or pseudo label, empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

// End returns the first address past the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

// Region converts the item to a process.MemoryRegion labelled with its path
func (mmItem MemoryMapItem) Region() (process.MemoryRegion, error) {
	return process.NewMemoryRegion(
		process.ProcessMemoryAddress(mmItem.Address),
		process.ProcessMemoryAddress(mmItem.End()),
		mmItem.Path,
	)
}

// ParseMemoryMap parses a maps listing, one region per line:
//
//	<hexStart>-<hexEnd> <perms> <offset> <dev> <inode> [<pathname>]
//
// Lines that do not match this shape are skipped.
func ParseMemoryMap(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		item, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return memoryMap, nil
}

func parseLine(line string) (MemoryMapItem, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return MemoryMapItem{}, false
	}

	// Parse address range (e.g., "00400000-0040b000")
	addrRange := strings.Split(fields[0], "-")
	if len(addrRange) != 2 {
		return MemoryMapItem{}, false
	}

	startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil || endAddr < startAddr {
		return MemoryMapItem{}, false
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	return MemoryMapItem{
		Address: startAddr,
		Size:    uint(endAddr - startAddr),
		Perms:   fields[1],
		Offset:  offset,
		Device:  fields[3],
		Inode:   inode,
		// pathnames may contain spaces
		Path: strings.Join(fields[5:], " "),
	}, true
}

// FindHeap returns the first region labelled [heap]
func FindHeap(memoryMap []MemoryMapItem) (process.MemoryRegion, error) {
	for _, item := range memoryMap {
		if item.Path != HeapLabel {
			continue
		}
		region, err := item.Region()
		if err != nil {
			return process.MemoryRegion{}, fmt.Errorf("%w: %v", process.ErrHeapNotFound, err)
		}
		return region, nil
	}
	return process.MemoryRegion{}, process.ErrHeapNotFound
}
