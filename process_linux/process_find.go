//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sort"

	"heapedit/process"

	ps "github.com/mitchellh/go-ps"
)

// ProcessLister enumerates live processes. ListComm(DefaultProcRoot) is the default.
type ProcessLister func() ([]ps.Process, error)

// LinuxProcessFinder implements the process.ProcessFinder interface
type LinuxProcessFinder struct {
	List    ProcessLister
	Find    func(pid int) (ps.Process, error)
	SelfPID int
}

// NewProcessFinder creates a LinuxProcessFinder that lists /proc/<pid>/comm
// and looks single PIDs up with go-ps
func NewProcessFinder() *LinuxProcessFinder {
	return &LinuxProcessFinder{
		List:    ListComm(DefaultProcRoot),
		Find:    ps.FindProcess,
		SelfPID: os.Getpid(),
	}
}

// FindProcessByPID finds a process by its PID
func (f *LinuxProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	p, err := f.Find(int(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to look up pid %d: %w", pid, err)
	}
	// go-ps returns a nil process and nil error when the pid does not exist
	if p == nil {
		return nil, fmt.Errorf("%w: pid %d", process.ErrProcessNotFound, pid)
	}
	return &process.ProcessInfo{PID: process.ProcessID(p.Pid()), Name: p.Executable()}, nil
}

// FindProcessByName returns every live process whose short executable name equals name.
// The match is case-sensitive, like pidof. Results keep enumeration order.
func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", process.ErrProcessNotFound)
	}

	procs, err := f.List()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	var results []process.ProcessInfo
	for _, p := range procs {
		if p == nil || p.Pid() == f.SelfPID {
			continue
		}
		if p.Executable() == name {
			results = append(results, process.ProcessInfo{PID: process.ProcessID(p.Pid()), Name: p.Executable()})
		}
	}

	return results, nil
}

// OneByName returns the match with the lowest PID, or ErrProcessNotFound if none
func (f *LinuxProcessFinder) OneByName(name string) (*process.ProcessInfo, error) {
	matches, err := f.FindProcessByName(name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: '%s'", process.ErrProcessNotFound, name)
	}

	// enumeration order is whatever readdir returns, pick the lowest PID for determinism
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].PID < matches[j].PID
	})
	return &matches[0], nil
}
