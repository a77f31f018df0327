package discovery

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const commandTimeout = 10 * time.Second

// System is the OS surface the techniques touch.
type System struct {
	DetailedPorts func() ([]*enumerator.PortDetails, error)
	SerialPorts   func() ([]string, error)
	// PowerShell runs a script and returns its standard output.
	PowerShell func(ctx context.Context, script string) ([]byte, error)
	// SerialComm returns the SERIALCOMM registry values, name to port.
	SerialComm func() (map[string]string, error)
	Glob       func(pattern string) ([]string, error)
	// CanOpen reports whether the device path can be opened for writing.
	CanOpen func(path string) bool
}

// DefaultSystem wires System to the real operating system.
func DefaultSystem() System {
	return System{
		DetailedPorts: enumerator.GetDetailedPortsList,
		SerialPorts:   serial.GetPortsList,
		PowerShell:    runPowerShell,
		SerialComm:    readSerialComm,
		Glob:          filepath.Glob,
		CanOpen:       canOpen,
	}
}

func runPowerShell(ctx context.Context, script string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func canOpen(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
