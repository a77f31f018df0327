package discovery

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

var (
	linuxDeviceGlobs = []string{
		"/dev/usb/lp*",
		"/dev/ttyUSB*",
		"/dev/ttyACM*",
		"/dev/lp*",
	}
	darwinDeviceGlobs = []string{
		"/dev/cu.usbserial*",
		"/dev/cu.usbmodem*",
		"/dev/tty.usbserial*",
	}
)

// LinuxDiscoverer asks the serial enumerator first and falls back to
// scanning well-known device nodes.
type LinuxDiscoverer struct {
	cascade
}

func NewLinuxDiscoverer(sys System, logger *slog.Logger) *LinuxDiscoverer {
	techniques := []Technique{
		{Name: "enumerator", Run: enumeratorTechnique(sys)},
		{Name: "device-glob", Run: globTechnique(sys, linuxDeviceGlobs)},
	}
	return &LinuxDiscoverer{cascade: newCascade("linux", techniques, nil, logger)}
}

type DarwinDiscoverer struct {
	cascade
}

func NewDarwinDiscoverer(sys System, logger *slog.Logger) *DarwinDiscoverer {
	techniques := []Technique{
		{Name: "enumerator", Run: enumeratorTechnique(sys)},
		{Name: "device-glob", Run: globTechnique(sys, darwinDeviceGlobs)},
	}
	return &DarwinDiscoverer{cascade: newCascade("darwin", techniques, nil, logger)}
}

func enumeratorTechnique(sys System) func(context.Context) ([]model.PortDescriptor, error) {
	return func(ctx context.Context) ([]model.PortDescriptor, error) {
		if sys.DetailedPorts == nil {
			return nil, errUnavailable
		}
		details, err := sys.DetailedPorts()
		if err != nil {
			return nil, err
		}

		ports := make([]model.PortDescriptor, 0, len(details))
		for _, d := range details {
			if d == nil || d.Name == "" {
				continue
			}
			p := model.PortDescriptor{Port: d.Name, DisplayName: d.Product}
			if d.IsUSB {
				p.VendorID = strings.ToUpper(d.VID)
				p.ProductID = strings.ToUpper(d.PID)
				if p.DisplayName == "" {
					p.DisplayName = "USB Serial Device (" + d.Name + ")"
				}
			}
			ports = append(ports, p)
		}
		return ports, nil
	}
}

func serialListTechnique(sys System) func(context.Context) ([]model.PortDescriptor, error) {
	return func(ctx context.Context) ([]model.PortDescriptor, error) {
		if sys.SerialPorts == nil {
			return nil, errUnavailable
		}
		names, err := sys.SerialPorts()
		if err != nil {
			return nil, err
		}
		ports := make([]model.PortDescriptor, 0, len(names))
		for _, name := range names {
			ports = append(ports, model.PortDescriptor{Port: name})
		}
		return ports, nil
	}
}

func globTechnique(sys System, patterns []string) func(context.Context) ([]model.PortDescriptor, error) {
	return func(ctx context.Context) ([]model.PortDescriptor, error) {
		if sys.Glob == nil {
			return nil, errUnavailable
		}
		var ports []model.PortDescriptor
		for _, pattern := range patterns {
			matches, err := sys.Glob(pattern)
			if err != nil {
				return ports, err
			}
			sort.Strings(matches)
			for _, path := range matches {
				ports = append(ports, model.PortDescriptor{
					Port:        path,
					DisplayName: describeNode(path),
				})
			}
		}
		return ports, nil
	}
}

func describeNode(path string) string {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(path, "/dev/usb/lp"):
		return "USB Printer (" + base + ")"
	case strings.HasPrefix(base, "lp"):
		return "Parallel Printer (" + base + ")"
	case strings.HasPrefix(base, "ttyACM"), strings.Contains(base, "usbmodem"):
		return "USB Modem Device (" + base + ")"
	default:
		return "USB Serial Device (" + base + ")"
	}
}
