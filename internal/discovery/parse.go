package discovery

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

var (
	comPattern      = regexp.MustCompile(`\((COM\d+)\)`)
	vidPidPattern   = regexp.MustCompile(`(?i)VID_([0-9A-F]{4}).*PID_([0-9A-F]{4})`)
	printerPortName = regexp.MustCompile(`(?i)^(COM\d+|USB\d+|LPT\d+):?$`)
)

// decodeJSONList decodes ConvertTo-Json output, which is a bare object
// when exactly one item matched and an array otherwise.
func decodeJSONList[T any](out []byte) ([]T, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, nil
	}

	if out[0] == '[' {
		var items []T
		if err := json.Unmarshal(out, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var single T
	if err := json.Unmarshal(out, &single); err != nil {
		return nil, err
	}
	return []T{single}, nil
}

// pnpEntry covers both Get-PnpDevice and Win32_PnPEntity rows.
type pnpEntry struct {
	FriendlyName string
	Name         string
	Manufacturer string
	InstanceID   string `json:"InstanceId"`
	PNPDeviceID  string
}

func parsePnPDevices(out []byte) ([]model.PortDescriptor, error) {
	entries, err := decodeJSONList[pnpEntry](out)
	if err != nil {
		return nil, err
	}

	var ports []model.PortDescriptor
	for _, e := range entries {
		name := e.FriendlyName
		if name == "" {
			name = e.Name
		}
		m := comPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		id := e.InstanceID
		if id == "" {
			id = e.PNPDeviceID
		}
		vid, pid := vendorProduct(id)

		ports = append(ports, model.PortDescriptor{
			Port:         m[1],
			DisplayName:  name,
			Manufacturer: e.Manufacturer,
			VendorID:     vid,
			ProductID:    pid,
		})
	}
	return ports, nil
}

type installedPrinter struct {
	Name       string
	PortName   string
	DriverName string
}

func parseInstalledPrinters(out []byte) ([]model.PortDescriptor, error) {
	printers, err := decodeJSONList[installedPrinter](out)
	if err != nil {
		return nil, err
	}

	var ports []model.PortDescriptor
	for _, p := range printers {
		portName := strings.TrimSpace(p.PortName)
		if !printerPortName.MatchString(portName) {
			continue
		}
		display := p.Name
		if p.DriverName != "" && p.DriverName != p.Name {
			display += " (" + p.DriverName + ")"
		}
		ports = append(ports, model.PortDescriptor{
			Port:        strings.ToUpper(strings.TrimSuffix(portName, ":")),
			DisplayName: display,
		})
	}
	return ports, nil
}

// vendorProduct extracts USB ids from a PnP instance id such as
// USB\VID_0416&PID_5011\6&2B4C1F&0&1.
func vendorProduct(instanceID string) (string, string) {
	m := vidPidPattern.FindStringSubmatch(instanceID)
	if m == nil {
		return "", ""
	}
	return strings.ToUpper(m[1]), strings.ToUpper(m[2])
}
