// Package transport routes encoded print jobs to network or serial/USB
// printers and performs connection tests and status queries.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/metrics"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultStatusTimeout  = 5 * time.Second
	DefaultWriteTimeout   = 30 * time.Second
)

// Options bound every blocking operation of the router.
type Options struct {
	ConnectTimeout time.Duration
	StatusTimeout  time.Duration
	WriteTimeout   time.Duration
	// OpenSerial opens a serial/USB device; nil uses the OS implementation.
	OpenSerial SerialOpener
}

// Router selects the transport for a printer configuration and moves bytes
// over it. It does not queue: callers serialize jobs per physical printer.
type Router struct {
	opts   Options
	logger *slog.Logger
}

func NewRouter(opts Options, logger *slog.Logger) *Router {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.OpenSerial == nil {
		opts.OpenSerial = OpenDevice
	}
	return &Router{opts: opts, logger: logging.OrDiscard(logger).With("component", "transport")}
}

// Resolve picks the transport for cfg. An explicit kind wins; otherwise a
// device path is preferred over a network address, since a locally attached
// device is the safer default.
func Resolve(cfg model.PrinterConfig) (model.TransportKind, error) {
	host := strings.TrimSpace(cfg.Host)
	path := strings.TrimSpace(cfg.DevicePath)

	switch cfg.Transport {
	case model.TransportNetwork:
		if host == "" {
			return "", &model.ConfigError{Field: "host", Reason: "network printer requires a host"}
		}
		return model.TransportNetwork, nil
	case model.TransportSerial:
		if path == "" {
			return "", &model.ConfigError{Field: "devicePath", Reason: "serial printer requires a device path"}
		}
		return model.TransportSerial, nil
	case "":
		if path != "" {
			return model.TransportSerial, nil
		}
		if host != "" {
			return model.TransportNetwork, nil
		}
		return "", &model.ConfigError{Field: "host/devicePath", Reason: "printer has neither host nor device path"}
	default:
		return "", &model.ConfigError{Field: "transport", Reason: fmt.Sprintf("unknown transport %q", cfg.Transport)}
	}
}

// Dispatch writes data to the printer described by cfg. Bytes are written
// in order and the call returns only after the OS write completed.
func (r *Router) Dispatch(ctx context.Context, cfg model.PrinterConfig, data []byte) error {
	kind, err := Resolve(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	r.logger.Info("sending print job",
		"printer", cfg.Label(),
		"transport", kind,
		"bytes", len(data),
	)

	switch kind {
	case model.TransportNetwork:
		err = r.sendNetwork(ctx, cfg, data)
	default:
		err = r.sendSerial(ctx, cfg, data)
	}

	metrics.PrintJobs.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	metrics.PrintDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		r.logger.Warn("print job failed", "printer", cfg.Label(), "error", err)
		return err
	}
	return nil
}

// TestConnection opens the transport and closes it without writing.
func (r *Router) TestConnection(ctx context.Context, cfg model.PrinterConfig) error {
	kind, err := Resolve(cfg)
	if err != nil {
		return err
	}

	if kind == model.TransportNetwork {
		return r.probeNetwork(ctx, cfg)
	}
	return r.probeSerial(ctx, cfg)
}

// QueryStatus sends DLE EOT 1 and decodes the reply. Only configuration
// errors are returned; an unreachable or silent printer yields an error or
// timeout report.
func (r *Router) QueryStatus(ctx context.Context, cfg model.PrinterConfig) (model.PrinterStatusReport, error) {
	kind, err := Resolve(cfg)
	if err != nil {
		return model.PrinterStatusReport{}, err
	}

	var report model.PrinterStatusReport
	if kind == model.TransportNetwork {
		report = r.statusNetwork(ctx, cfg)
	} else {
		report = r.statusSerial(ctx, cfg)
	}

	metrics.StatusQueries.WithLabelValues(string(report.Status)).Inc()
	r.logger.Debug("status query", "printer", cfg.Label(), "status", report.Status, "raw", report.Raw)
	return report, nil
}
