package utils

import (
	"runtime"
)

// SystemInfo holds information about the current system
type SystemInfo struct {
	OS           string
	Architecture string
}

// DetectSystem returns information about the current operating system and architecture
func DetectSystem() SystemInfo {
	return SystemInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

func (s SystemInfo) String() string {
	return s.OS + "/" + s.Architecture
}
