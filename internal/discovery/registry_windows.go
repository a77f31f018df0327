//go:build windows

package discovery

import (
	"golang.org/x/sys/windows/registry"
)

const serialCommKey = `HARDWARE\DEVICEMAP\SERIALCOMM`

func readSerialComm() (map[string]string, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, serialCommKey, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(names))
	for _, name := range names {
		port, _, err := k.GetStringValue(name)
		if err != nil {
			continue
		}
		values[name] = port
	}
	return values, nil
}
