package patcher

import (
	"errors"
	"fmt"

	"heapedit/process"
)

// ErrEmptySearch is returned for a zero-length search pattern
var ErrEmptySearch = errors.New("search pattern must not be empty")

// ErrPatternChanged is returned by the verify step when the matched bytes
// were modified by the target between the scan and the write.
var ErrPatternChanged = errors.New("pattern changed before write")

// PatchRequest describes one in-place replacement
type PatchRequest struct {
	Search  []byte
	Replace []byte
}

// NewPatchRequest builds a request from UTF-8 strings
func NewPatchRequest(search, replace string) PatchRequest {
	return PatchRequest{Search: []byte(search), Replace: []byte(replace)}
}

// Validate rejects an empty search and a replacement longer than the search.
// It never touches the target process.
func (r PatchRequest) Validate() error {
	if len(r.Search) == 0 {
		return ErrEmptySearch
	}
	if len(r.Replace) > len(r.Search) {
		return fmt.Errorf("%w: replace is %d bytes, search is %d bytes", process.ErrLengthViolation, len(r.Replace), len(r.Search))
	}
	return nil
}

// Padding is the number of zero bytes written after the replacement
func (r PatchRequest) Padding() int {
	return len(r.Search) - len(r.Replace)
}

// OutcomeStatus summarizes how a patch ended. The zero value is StatusFailed.
type OutcomeStatus int

const (
	StatusFailed OutcomeStatus = iota
	StatusPatched
	StatusPatternNotFound
	StatusRejected
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusFailed:
		return "Failed"
	case StatusPatched:
		return "Patched"
	case StatusPatternNotFound:
		return "PatternNotFound"
	case StatusRejected:
		return "Rejected"
	}
	return fmt.Sprintf("OutcomeStatus(%d)", int(s))
}

// PatchOutcome reports what a patch did
type PatchOutcome struct {
	Status  OutcomeStatus
	State   State
	Process process.ProcessInfo
	Heap    process.MemoryRegion
	Address process.ProcessMemoryAddress // absolute address of the match, when patched
	Written int                          // total bytes overwritten, always len(Search) when patched
	Reason  string                       // set when rejected
}
