//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"heapedit/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/unix"
)

// DefaultProcRoot is where procfs is mounted
const DefaultProcRoot = "/proc"

// LinuxProcess implements process.MemoryAccessor over /proc/[pid]/mem
type LinuxProcess struct {
	pid  process.ProcessID
	file *os.File
	log  *logger.Logger
	mu   sync.Mutex
}

// OpenMemFile opens /proc/[pid]/mem for the given process
func OpenMemFile(pid process.ProcessID, writable bool) (process.MemoryAccessor, error) {
	p, err := OpenMemFileAt(DefaultProcRoot, pid, writable)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// OpenMemFileAt opens <root>/[pid]/mem
func OpenMemFileAt(root string, pid process.ProcessID, writable bool) (*LinuxProcess, error) {
	memPath := filepath.Join(root, strconv.Itoa(int(pid)), "mem")

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	f, err := os.OpenFile(memPath, flag, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: pid %d", process.ErrProcessNotFound, pid)
		}
		return nil, classifyErr("open "+memPath, err)
	}

	p := &LinuxProcess{
		pid:  pid,
		file: f,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("mem-%d", pid))),
	}
	p.log.Debugln("Opened", memPath, "writable:", writable)

	return p, nil
}

// ReadRegion reads the whole region in one positioned read
func (p *LinuxProcess) ReadRegion(region process.MemoryRegion) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil, process.ErrProcessNotOpen
	}

	buf := make([]byte, region.Size())
	r := io.NewSectionReader(p.file, int64(region.Start), int64(region.Size()))
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: short read at %s: %d of %d bytes", process.ErrIO, region.Start.ToString(), n, len(buf))
		}
		return nil, classifyErr("read "+region.Start.ToString(), err)
	}

	p.log.Debugln("Read", region.Size().ToString(), "from", region.Start.ToString())
	return buf, nil
}

// WriteMemory writes data verbatim at addr
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return process.ErrProcessNotOpen
	}
	if len(data) == 0 {
		return nil
	}

	written, err := p.file.WriteAt(data, int64(addr))
	if err != nil {
		return classifyErr("write "+addr.ToString(), err)
	}
	if written != len(data) {
		return fmt.Errorf("%w: only wrote %d of %d bytes at %s", process.ErrIO, written, len(data), addr.ToString())
	}

	p.log.Debugln("Wrote", len(data), "bytes at", addr.ToString())
	return nil
}

// Close releases /proc/[pid]/mem; closing twice is a no-op
func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	p.log.Debugln("Closed memory channel")
	return err
}

// classifyErr maps channel failures onto the process error taxonomy
func classifyErr(op string, err error) error {
	if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) || os.IsPermission(err) {
		return fmt.Errorf("%w: %s: %v", process.ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", process.ErrIO, op, err)
}
