package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig matches every ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid printer configuration")

// ConfigError reports a missing or contradictory address/path for a printer.
// It is raised before any I/O is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("printer configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
