package process

// ProcessFinder defines operations for discovering processes
type ProcessFinder interface {
	// FindProcessByPID finds a process by its PID
	FindProcessByPID(pid ProcessID) (*ProcessInfo, error)

	// FindProcessByName finds processes by their short executable name (exact match)
	FindProcessByName(name string) ([]ProcessInfo, error)

	// OneByName returns a single process for name, or ErrProcessNotFound
	OneByName(name string) (*ProcessInfo, error)
}
