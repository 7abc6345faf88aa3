//go:build linux

package process_linux

import (
	"fmt"
	"sync"

	"heapedit/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"
)

// VMAccessor implements process.MemoryAccessor with process_vm_readv and process_vm_writev.
// It needs no file descriptor, so Close only invalidates the accessor.
type VMAccessor struct {
	pid      process.ProcessID
	open     bool
	writable bool
	log      *logger.Logger
	mu       sync.Mutex
}

// OpenVM returns a VMAccessor for pid. The process must exist at open time.
func OpenVM(pid process.ProcessID, writable bool) (process.MemoryAccessor, error) {
	if !procExists(DefaultProcRoot, int(pid)) {
		return nil, fmt.Errorf("%w: pid %d", process.ErrProcessNotFound, pid)
	}

	a := &VMAccessor{
		pid:      pid,
		open:     true,
		writable: writable,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("vm-%d", pid))),
	}
	a.log.Debugln("Opened process_vm channel, writable:", writable)
	return a, nil
}

// ReadRegion reads region.Size() bytes, continuing after partial transfers
func (a *VMAccessor) ReadRegion(region process.MemoryRegion) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.open {
		return nil, process.ErrProcessNotOpen
	}

	buf := make([]byte, region.Size())
	done := 0
	for done < len(buf) {
		n, err := process_vm_readv(a.pid, buf[done:], region.Start+process.ProcessMemoryAddress(done))
		if err != nil {
			return nil, classifyErr("process_vm_readv "+region.Start.ToString(), err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: partial read: %d of %d bytes", process.ErrIO, done, len(buf))
		}
		done += n
	}

	a.log.Debugln("Read", region.Size().ToString(), "from", region.Start.ToString())
	return buf, nil
}

// WriteMemory writes data at addr; a short transfer is an error
func (a *VMAccessor) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.open {
		return process.ErrProcessNotOpen
	}
	if !a.writable {
		return fmt.Errorf("%w: pid %d opened read-only", process.ErrPermissionDenied, a.pid)
	}
	if len(data) == 0 {
		return nil
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(a.pid, dataCopy, addr)
	if err != nil {
		return classifyErr("process_vm_writev "+addr.ToString(), err)
	}
	if written != len(data) {
		return fmt.Errorf("%w: only wrote %d of %d bytes at %s", process.ErrIO, written, len(data), addr.ToString())
	}

	a.log.Debugln("Wrote", len(data), "bytes at", addr.ToString())
	return nil
}

// Close invalidates the accessor
func (a *VMAccessor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = false
	return nil
}

func process_vm_readv(pid process.ProcessID, localBuf []byte, remoteAddr process.ProcessMemoryAddress) (int, error) {
	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	return unix.ProcessVMReadv(int(pid), localIov, remoteIov, 0)
}

func process_vm_writev(pid process.ProcessID, localBuf []byte, remoteAddr process.ProcessMemoryAddress) (int, error) {
	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	return unix.ProcessVMWritev(int(pid), localIov, remoteIov, 0)
}
