// Package discovery enumerates candidate printer ports on the local machine.
//
// Each operating system gets its own Discoverer built from an ordered list
// of techniques. Techniques run in order until one of them reports at
// least one port; a failing technique is logged and skipped. Port
// identifiers are de-duplicated across the whole run.
package discovery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/metrics"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
	"github.com/Riboost-Studio/pos-device-bridge/internal/utils"
)

// Discoverer lists the serial/USB ports a printer may be attached to.
type Discoverer interface {
	Name() string
	Discover(ctx context.Context) ([]model.PortDescriptor, error)
}

// Technique is one way of finding ports. Run may return duplicates and
// may fail; the cascade handles both.
type Technique struct {
	Name string
	Run  func(ctx context.Context) ([]model.PortDescriptor, error)
}

// New returns the Discoverer for the running operating system.
func New(logger *slog.Logger) Discoverer {
	return ForOS(utils.DetectSystem().OS, DefaultSystem(), logger)
}

// ForOS returns the Discoverer for goos using sys for all OS access.
func ForOS(goos string, sys System, logger *slog.Logger) Discoverer {
	switch goos {
	case "windows":
		return NewWindowsDiscoverer(sys, logger)
	case "darwin":
		return NewDarwinDiscoverer(sys, logger)
	default:
		return NewLinuxDiscoverer(sys, logger)
	}
}

type cascade struct {
	name       string
	techniques []Technique
	key        func(port string) string
	logger     *slog.Logger
}

func newCascade(name string, techniques []Technique, key func(string) string, logger *slog.Logger) cascade {
	if key == nil {
		key = strings.TrimSpace
	}
	return cascade{
		name:       name,
		techniques: techniques,
		key:        key,
		logger:     logging.OrDiscard(logger).With("component", "discovery", "os", name),
	}
}

func (c *cascade) Name() string { return c.name }

// Discover runs the techniques in order and returns the ports of the
// first technique that found any. It only fails when ctx is done.
func (c *cascade) Discover(ctx context.Context) ([]model.PortDescriptor, error) {
	seen := make(map[string]struct{})
	var result []model.PortDescriptor

	for _, t := range c.techniques {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		ports, err := t.Run(ctx)
		if err != nil {
			c.logger.Warn("discovery technique failed", "technique", t.Name, "error", err)
			continue
		}

		added := 0
		for _, p := range ports {
			k := c.key(p.Port)
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if p.Source == "" {
				p.Source = t.Name
			}
			if p.Transport == "" {
				p.Transport = model.TransportSerial
			}
			if p.DisplayName == "" {
				p.DisplayName = p.Port
			}
			result = append(result, p)
			added++
		}

		c.logger.Debug("discovery technique finished", "technique", t.Name, "ports", added)
		if added > 0 {
			metrics.DiscoveredPorts.WithLabelValues(t.Name).Add(float64(added))
			break
		}
	}

	c.logger.Info("discovery finished", "ports", len(result))
	return result, nil
}

// windowsKey folds `\\.\COM3`, `com3` and `COM3:` to one identifier.
func windowsKey(port string) string {
	port = strings.TrimSpace(port)
	port = strings.TrimPrefix(port, `\\.\`)
	port = strings.TrimSuffix(port, ":")
	return strings.ToUpper(port)
}
