package patcher

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"testing/quick"

	"heapedit/process"
)

func TestPatchShorterReplacement(t *testing.T) {
	heap := []byte("....secret123....secret123..")
	h := newHarness(heap)

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("secret123", "public12"))
	if err != nil {
		t.Fatal(err)
	}

	if outcome.Status != StatusPatched || outcome.State != StatePatched {
		t.Errorf("got status %v state %v", outcome.Status, outcome.State)
	}
	if outcome.Address != heapBase+4 {
		t.Errorf("got address %s, expected %s", outcome.Address.ToString(), (heapBase + 4).ToString())
	}
	if outcome.Written != 9 {
		t.Errorf("got %d bytes written, expected 9", outcome.Written)
	}

	expected := []write{
		{addr: heapBase + 4, data: []byte("public12")},
		{addr: heapBase + 12, data: []byte{0}},
	}
	if !reflect.DeepEqual(h.mem.writes, expected) {
		t.Errorf("got writes: %v\nexpected writes: %v", h.mem.writes, expected)
	}

	// only the first occurrence is patched
	if !bytes.Equal(h.mem.heap, []byte("....public12\x00....secret123..")) {
		t.Errorf("got heap %q", h.mem.heap)
	}
	if h.mem.opens != 1 || h.mem.closes != 1 {
		t.Errorf("got %d opens and %d closes", h.mem.opens, h.mem.closes)
	}
	if !h.mem.writable[0] {
		t.Error("patch opened a read-only channel")
	}
}

func TestPatchEqualLength(t *testing.T) {
	h := newHarness([]byte("xxhelloxx"))

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("hello", "world"))
	if err != nil {
		t.Fatal(err)
	}
	if len(h.mem.writes) != 1 {
		t.Errorf("got %d writes, expected no padding write", len(h.mem.writes))
	}
	if outcome.Written != 5 || string(h.mem.heap) != "xxworldxx" {
		t.Errorf("got written %d heap %q", outcome.Written, h.mem.heap)
	}
}

func TestPatchEmptyReplacement(t *testing.T) {
	h := newHarness([]byte("xxhelloxx"))

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("hello", ""))
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Written != 5 || !bytes.Equal(h.mem.heap, []byte("xx\x00\x00\x00\x00\x00xx")) {
		t.Errorf("got written %d heap %q", outcome.Written, h.mem.heap)
	}
}

func TestPatchLengthViolation(t *testing.T) {
	h := newHarness([]byte("abc"))

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("abc", "abcdef"))
	if !errors.Is(err, process.ErrLengthViolation) {
		t.Fatalf("got error %v, expected ErrLengthViolation", err)
	}
	if outcome.Status != StatusRejected || outcome.State != StateLengthViolation || outcome.Reason == "" {
		t.Errorf("got outcome %+v", outcome)
	}
	if h.finder.calls != 0 || h.heap.calls != 0 || h.mem.opens != 0 || len(h.mem.writes) != 0 {
		t.Errorf("I/O before rejection: finder %d heap %d opens %d writes %d",
			h.finder.calls, h.heap.calls, h.mem.opens, len(h.mem.writes))
	}
}

func TestPatchEmptySearch(t *testing.T) {
	h := newHarness([]byte("abc"))

	outcome, err := h.patcher(Options{}).PatchPID(4242, NewPatchRequest("", ""))
	if !errors.Is(err, ErrEmptySearch) {
		t.Fatalf("got error %v, expected ErrEmptySearch", err)
	}
	if outcome.Status != StatusRejected || h.finder.calls != 0 {
		t.Errorf("got outcome %+v, finder calls %d", outcome, h.finder.calls)
	}
}

func TestPatchPatternNotFound(t *testing.T) {
	heap := []byte("nothing to see here")
	before := append([]byte(nil), heap...)
	h := newHarness(heap)

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("secret", "x"))
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != StatusPatternNotFound || outcome.State != StateNotFoundPattern {
		t.Errorf("got status %v state %v", outcome.Status, outcome.State)
	}
	if len(h.mem.writes) != 0 || !bytes.Equal(h.mem.heap, before) {
		t.Errorf("memory modified: writes %v", h.mem.writes)
	}
	if h.mem.closes != 1 {
		t.Errorf("channel not closed, closes = %d", h.mem.closes)
	}
}

func TestPatchProcessNotFound(t *testing.T) {
	h := newHarness([]byte("secret"))

	outcome, err := h.patcher(Options{}).Patch("nope", NewPatchRequest("secret", "x"))
	if !errors.Is(err, process.ErrProcessNotFound) {
		t.Fatalf("got error %v, expected ErrProcessNotFound", err)
	}
	if outcome.State != StateProcessNotFound {
		t.Errorf("got state %v", outcome.State)
	}
	if h.heap.calls != 0 || h.mem.opens != 0 {
		t.Errorf("I/O after failed lookup: heap %d opens %d", h.heap.calls, h.mem.opens)
	}
}

func TestPatchPIDProcessNotFound(t *testing.T) {
	h := newHarness([]byte("secret"))

	_, err := h.patcher(Options{}).PatchPID(1, NewPatchRequest("secret", "x"))
	if !errors.Is(err, process.ErrProcessNotFound) {
		t.Fatalf("got error %v, expected ErrProcessNotFound", err)
	}
}

func TestPatchHeapNotFound(t *testing.T) {
	h := newHarness([]byte("secret"))
	h.heap.err = process.ErrHeapNotFound

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("secret", "x"))
	if !errors.Is(err, process.ErrHeapNotFound) {
		t.Fatalf("got error %v, expected ErrHeapNotFound", err)
	}
	if outcome.State != StateHeapNotFound || h.mem.opens != 0 {
		t.Errorf("got state %v opens %d", outcome.State, h.mem.opens)
	}
}

func TestPatchReadFailure(t *testing.T) {
	h := newHarness([]byte("secret"))
	h.mem.readErr = process.ErrPermissionDenied

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("secret", "x"))
	if !errors.Is(err, process.ErrPermissionDenied) {
		t.Fatalf("got error %v, expected ErrPermissionDenied", err)
	}
	if outcome.State != StateIOFailure || h.mem.closes != 1 {
		t.Errorf("got state %v closes %d", outcome.State, h.mem.closes)
	}
}

func TestPatchPaddingWriteFailureIsNotRolledBack(t *testing.T) {
	h := newHarness([]byte("..secret123.."))
	h.mem.writeErr = func(n int) error {
		if n == 1 {
			return process.ErrIO
		}
		return nil
	}

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("secret123", "public12"))
	if !errors.Is(err, process.ErrIO) {
		t.Fatalf("got error %v, expected ErrIO", err)
	}
	if outcome.State != StateIOFailure || outcome.Written != 8 {
		t.Errorf("got state %v written %d", outcome.State, outcome.Written)
	}
	if string(h.mem.heap) != "..public123.." || h.mem.closes != 1 {
		t.Errorf("got heap %q closes %d", h.mem.heap, h.mem.closes)
	}
}

func TestPatchVerifyDetectsChange(t *testing.T) {
	h := newHarness([]byte("..secret123.."))
	h.mem.onRead = func(f *fakeMemory) {
		// the target rewrites its string after the heap was captured
		if f.reads == 2 {
			copy(f.heap[2:], "SECRET")
		}
	}

	outcome, err := h.patcher(Options{Verify: true}).Patch("target", NewPatchRequest("secret123", "public12"))
	if !errors.Is(err, ErrPatternChanged) {
		t.Fatalf("got error %v, expected ErrPatternChanged", err)
	}
	if len(h.mem.writes) != 0 || outcome.State != StateIOFailure {
		t.Errorf("got writes %v state %v", h.mem.writes, outcome.State)
	}
}

func TestPatchVerifyUnchanged(t *testing.T) {
	h := newHarness([]byte("..secret123.."))

	outcome, err := h.patcher(Options{Verify: true}).Patch("target", NewPatchRequest("secret123", "public12"))
	if err != nil {
		t.Fatal(err)
	}
	if h.mem.reads != 2 || outcome.Status != StatusPatched {
		t.Errorf("got reads %d status %v", h.mem.reads, outcome.Status)
	}
}

// every successful patch overwrites exactly len(search) bytes: replace, then zeros
func TestPatchWritesExactlySearchLength(t *testing.T) {
	property := func(prefix, search, replace, suffix []byte) bool {
		if len(search) == 0 {
			search = []byte{0x5a}
		}
		if len(replace) > len(search) {
			replace = replace[:len(search)]
		}
		heap := append(append(append([]byte(nil), prefix...), search...), suffix...)
		h := newHarness(heap)

		outcome, err := h.patcher(Options{}).Patch("target", PatchRequest{Search: search, Replace: replace})
		if err != nil || outcome.Status != StatusPatched {
			return false
		}
		if h.mem.written() != len(search) || outcome.Written != len(search) {
			return false
		}

		start := int(outcome.Address - heapBase)
		got := h.mem.heap[start : start+len(search)]
		if !bytes.Equal(got[:len(replace)], replace) {
			return false
		}
		for _, b := range got[len(replace):] {
			if b != 0 {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestPatchLongerReplacementNeverWrites(t *testing.T) {
	property := func(search, extra []byte) bool {
		if len(search) == 0 {
			search = []byte{0x5a}
		}
		replace := append(append([]byte(nil), search...), append(extra, 0x01)...)
		h := newHarness(append([]byte(nil), search...))

		_, err := h.patcher(Options{}).Patch("target", PatchRequest{Search: search, Replace: replace})
		return errors.Is(err, process.ErrLengthViolation) && len(h.mem.writes) == 0 && h.mem.opens == 0
	}
	if err := quick.Check(property, nil); err != nil {
		t.Error(err)
	}
}

func TestDump(t *testing.T) {
	heap := []byte("heap bytes")
	h := newHarness(heap)

	info, region, data, err := h.patcher(Options{}).Dump("target")
	if err != nil {
		t.Fatal(err)
	}
	if info.PID != 4242 || region.Start != heapBase {
		t.Errorf("got info %v region %v", info, region)
	}
	if !bytes.Equal(data, heap) {
		t.Errorf("got data %q", data)
	}
	if len(h.mem.writes) != 0 || h.mem.writable[0] || h.mem.closes != 1 {
		t.Errorf("dump wrote %v, writable %v, closes %d", h.mem.writes, h.mem.writable, h.mem.closes)
	}
}

func TestDumpErrors(t *testing.T) {
	h := newHarness([]byte("x"))
	if _, _, _, err := h.patcher(Options{}).Dump("nope"); !errors.Is(err, process.ErrProcessNotFound) {
		t.Errorf("got error %v, expected ErrProcessNotFound", err)
	}

	h.heap.err = process.ErrHeapNotFound
	if _, _, _, err := h.patcher(Options{}).DumpPID(4242); !errors.Is(err, process.ErrHeapNotFound) {
		t.Errorf("got error %v, expected ErrHeapNotFound", err)
	}
	if h.mem.opens != 0 {
		t.Errorf("channel opened without a heap")
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateStart, StateProcessResolved, StateHeapResolved, StateScanned} {
		if s.Terminal() {
			t.Errorf("%v reported terminal", s)
		}
	}
	for _, s := range []State{StatePatched, StateNotFoundPattern, StateProcessNotFound, StateHeapNotFound, StateLengthViolation, StateIOFailure} {
		if !s.Terminal() {
			t.Errorf("%v reported non-terminal", s)
		}
	}
}

func TestFailedOutcomeStatus(t *testing.T) {
	h := newHarness([]byte("secret"))
	h.heap.err = process.ErrHeapNotFound

	outcome, _ := h.patcher(Options{}).Patch("target", NewPatchRequest("secret", "x"))
	if outcome.Status != StatusFailed || outcome.Status.String() != "Failed" {
		t.Errorf("got status %v", outcome.Status)
	}
}

func TestPatchCloseFailure(t *testing.T) {
	h := newHarness([]byte("..secret123.."))
	h.mem.closeErr = errors.New("bad file descriptor")

	outcome, err := h.patcher(Options{}).Patch("target", NewPatchRequest("secret123", "public12"))
	if !errors.Is(err, process.ErrIO) {
		t.Fatalf("got error %v, expected ErrIO", err)
	}
	if outcome.Status != StatusFailed || outcome.State != StateIOFailure {
		t.Errorf("got status %v state %v", outcome.Status, outcome.State)
	}
	// the bytes already reached the target
	if string(h.mem.heap) != "..public12\x00.." || outcome.Written != 9 {
		t.Errorf("got heap %q written %d", h.mem.heap, outcome.Written)
	}
}
