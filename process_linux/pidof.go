//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	ps "github.com/mitchellh/go-ps"
)

// commProcess is a ps.Process whose name was read from <root>/<pid>/comm
type commProcess struct {
	pid  int
	name string
}

func (p commProcess) Pid() int           { return p.pid }
func (p commProcess) PPid() int          { return 0 } // not read
func (p commProcess) Executable() string { return p.name }

// ListComm returns a ProcessLister that walks <root>/<pid> and reads each comm file.
// Unlike /proc/<pid>/stat, comm holds the short name verbatim, so names
// containing ')' or spaces are listed too.
func ListComm(root string) ProcessLister {
	return func() ([]ps.Process, error) {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", root, err)
		}

		var out []ps.Process
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			pid, err := strconv.Atoi(e.Name())
			if err != nil || pid <= 0 {
				continue // not a PID dir
			}

			// the process may exit while we walk
			comm, err := os.ReadFile(filepath.Join(root, e.Name(), "comm"))
			if err != nil {
				continue
			}
			out = append(out, commProcess{pid: pid, name: strings.TrimSuffix(string(comm), "\n")})
		}
		return out, nil
	}
}

// procExists reports whether <root>/<pid> is still present
func procExists(root string, pid int) bool {
	// Fast path: stat /proc/<pid>
	_, err := os.Stat(filepath.Join(root, strconv.Itoa(pid)))
	if err == nil {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	// For transient errors (permission, EIO): fall back to kill 0
	return syscall.Kill(pid, 0) == nil
}
