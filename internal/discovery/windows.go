package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

// probeRange is the COM port range tried by brute-force probing.
const probeRange = 20

const (
	pnpDeviceScript = `Get-PnpDevice -Class Ports -PresentOnly | Select-Object FriendlyName, Manufacturer, InstanceId | ConvertTo-Json`
	pnpEntityScript = `Get-CimInstance Win32_PnPEntity | Where-Object { $_.Name -match '\(COM\d+\)' } | Select-Object Name, Manufacturer, PNPDeviceID | ConvertTo-Json`
	printersScript  = `Get-Printer | Select-Object Name, PortName, DriverName | ConvertTo-Json`
)

// WindowsDiscoverer has the longest cascade: native enumeration, device
// manager, registry, CIM, installed printers, brute-force probing and a
// final plain port listing.
type WindowsDiscoverer struct {
	cascade
}

func NewWindowsDiscoverer(sys System, logger *slog.Logger) *WindowsDiscoverer {
	techniques := []Technique{
		{Name: "enumerator", Run: enumeratorTechnique(sys)},
		{Name: "pnp-device", Run: powerShellTechnique(sys, pnpDeviceScript, parsePnPDevices)},
		{Name: "registry", Run: registryTechnique(sys)},
		{Name: "cim-pnp-entity", Run: powerShellTechnique(sys, pnpEntityScript, parsePnPDevices)},
		{Name: "installed-printers", Run: powerShellTechnique(sys, printersScript, parseInstalledPrinters)},
		{Name: "probe", Run: probeTechnique(sys)},
		{Name: "serial-list", Run: serialListTechnique(sys)},
	}
	return &WindowsDiscoverer{cascade: newCascade("windows", techniques, windowsKey, logger)}
}

func powerShellTechnique(sys System, script string, parse func([]byte) ([]model.PortDescriptor, error)) func(context.Context) ([]model.PortDescriptor, error) {
	return func(ctx context.Context) ([]model.PortDescriptor, error) {
		if sys.PowerShell == nil {
			return nil, errUnavailable
		}
		out, err := sys.PowerShell(ctx, script)
		if err != nil {
			return nil, err
		}
		return parse(out)
	}
}

func registryTechnique(sys System) func(context.Context) ([]model.PortDescriptor, error) {
	return func(ctx context.Context) ([]model.PortDescriptor, error) {
		if sys.SerialComm == nil {
			return nil, errUnavailable
		}
		values, err := sys.SerialComm()
		if err != nil {
			return nil, err
		}

		// \Device\Serial0 -> COM1; sort by device name for a stable order
		devices := make([]string, 0, len(values))
		for device := range values {
			devices = append(devices, device)
		}
		sort.Strings(devices)

		ports := make([]model.PortDescriptor, 0, len(values))
		for _, device := range devices {
			ports = append(ports, model.PortDescriptor{
				Port:        values[device],
				DisplayName: fmt.Sprintf("%s (%s)", values[device], device),
			})
		}
		return ports, nil
	}
}

func probeTechnique(sys System) func(context.Context) ([]model.PortDescriptor, error) {
	return func(ctx context.Context) ([]model.PortDescriptor, error) {
		if sys.CanOpen == nil {
			return nil, errUnavailable
		}
		var ports []model.PortDescriptor
		for i := 1; i <= probeRange; i++ {
			if err := ctx.Err(); err != nil {
				return ports, err
			}
			name := fmt.Sprintf("COM%d", i)
			if sys.CanOpen(`\\.\` + name) {
				ports = append(ports, model.PortDescriptor{
					Port:        name,
					DisplayName: "Serial/USB Printer on " + name,
				})
			}
		}
		return ports, nil
	}
}

var errUnavailable = errors.New("technique not available on this system")
