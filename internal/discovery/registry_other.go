//go:build !windows

package discovery

import "errors"

func readSerialComm() (map[string]string, error) {
	return nil, errors.New("device registry is only available on windows")
}
