// Package process provides the types and interfaces shared by the heap
// locator, the memory accessors and the patcher.
package process

import "errors"

// The types and interfaces live in separate files:
// - types.go: ProcessID, ProcessInfo
// - memory_types.go: ProcessMemoryAddress, ProcessMemorySize, MemoryRegion
// - process_interface.go: MemoryAccessor
// - process_finder.go: ProcessFinder

var (
	// ErrProcessNotFound is returned when no live process matches the requested name or PID.
	ErrProcessNotFound = errors.New("process not found")

	// ErrHeapNotFound is returned when the memory map of a process has no [heap] region.
	ErrHeapNotFound = errors.New("heap memory not found for the process")

	// ErrLengthViolation is returned when a replacement is longer than the pattern it replaces.
	// It is always raised before the target process is touched.
	ErrLengthViolation = errors.New("replacement cannot be longer than the search pattern")

	// ErrPermissionDenied is returned when the memory channel refuses access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIO covers every other channel failure, including a target that exited mid-operation.
	ErrIO = errors.New("memory i/o failure")

	// ErrProcessNotOpen is returned when an accessor is used after Close.
	ErrProcessNotOpen = errors.New("process not open")
)
