package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another controller process owns the output.
var ErrAlreadyRunning = errors.New("another alarm controller is already running")

// processLister returns the processes of the host.
type processLister func() ([]ps.Process, error)

// listProcesses is the production process lister.
func listProcesses() ([]ps.Process, error) {
	return ps.Processes()
}

// currentExecutable returns the executable name of this process.
func currentExecutable() string {
	executable, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}

	return filepath.Base(executable)
}

// currentPID returns the process ID of this process.
func currentPID() int {
	return os.Getpid()
}

// ensureSingleInstance fails when another process runs the same executable,
// since two controllers would fight over the same output.
func ensureSingleInstance(list processLister, executable string, pid int) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == pid {
			continue
		}

		if !sameExecutable(process.Executable(), executable) {
			continue
		}

		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
	}

	return nil
}

// commLength is the length Linux truncates process names to.
const commLength = 15

// sameExecutable compares a process table name against executable.
func sameExecutable(name, executable string) bool {
	if name == executable {
		return true
	}

	return len(name) == commLength && strings.HasPrefix(executable, name)
}
