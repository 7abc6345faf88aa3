package process

import "fmt"

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo identifies a live process by PID and short executable name
type ProcessInfo struct {
	PID  ProcessID // Process ID
	Name string    // Executable name from /proc/[pid]/comm
}

func (pi ProcessInfo) String() string {
	return fmt.Sprintf("%s (pid %d)", pi.Name, pi.PID)
}
