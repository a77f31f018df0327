package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/Riboost-Studio/pos-device-bridge/internal/escpos"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const DefaultBaudRate = 9600

// Port is the part of a serial device the router needs. go.bug.st/serial
// ports satisfy it, and so do raw printer device nodes.
type Port interface {
	io.ReadWriteCloser
	Drain() error
	SetReadTimeout(t time.Duration) error
}

// SerialOpener opens the device at path with the given baud rate.
type SerialOpener func(path string, baud int) (Port, error)

// OpenDevice opens path as a serial port, or as a plain character device
// for printer-class nodes such as /dev/usb/lp0 which reject termios calls.
func OpenDevice(path string, baud int) (Port, error) {
	if IsRawDevice(path) {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		return &rawDevice{f: f}, nil
	}

	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(path, mode)
}

// IsRawDevice reports whether path names a printer-class device node
// rather than a tty.
func IsRawDevice(path string) bool {
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(strings.ToUpper(path), "COM") {
		return false
	}
	return strings.HasPrefix(filepath.Base(path), "lp")
}

func (r *Router) open(ctx context.Context, cfg model.PrinterConfig) (Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("open", cfg.DevicePath, err)
	}
	port, err := r.opts.OpenSerial(cfg.DevicePath, cfg.BaudRate)
	if err != nil {
		return nil, wrap("open", cfg.DevicePath, err)
	}
	return port, nil
}

func (r *Router) sendSerial(ctx context.Context, cfg model.PrinterConfig, data []byte) error {
	port, err := r.open(ctx, cfg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		if _, err := port.Write(data); err != nil {
			done <- err
			return
		}
		done <- port.Drain()
	}()

	timer := time.NewTimer(r.opts.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		closeErr := port.Close()
		if err != nil {
			return wrap("write", cfg.DevicePath, err)
		}
		return wrap("close", cfg.DevicePath, closeErr)
	case <-timer.C:
		// closing unblocks the pending write
		port.Close()
		return wrap("write", cfg.DevicePath, fmt.Errorf("%w after %s", ErrTimeout, r.opts.WriteTimeout))
	case <-ctx.Done():
		port.Close()
		return wrap("write", cfg.DevicePath, ctx.Err())
	}
}

func (r *Router) probeSerial(ctx context.Context, cfg model.PrinterConfig) error {
	port, err := r.open(ctx, cfg)
	if err != nil {
		return err
	}
	return wrap("close", cfg.DevicePath, port.Close())
}

func (r *Router) statusSerial(ctx context.Context, cfg model.PrinterConfig) model.PrinterStatusReport {
	port, err := r.open(ctx, cfg)
	if err != nil {
		return escpos.ErrorReport("Cannot open printer: " + err.Error())
	}
	defer port.Close()

	if err := port.SetReadTimeout(r.opts.StatusTimeout); err != nil {
		return escpos.ErrorReport("Cannot query printer: " + err.Error())
	}
	if _, err := port.Write(escpos.StatusQuery); err != nil {
		return escpos.ErrorReport("Cannot query printer: " + err.Error())
	}
	if err := port.Drain(); err != nil {
		return escpos.ErrorReport("Cannot query printer: " + err.Error())
	}

	// A serial read returns 0 bytes and no error when the timeout expires.
	reply := make([]byte, 1)
	n, err := port.Read(reply)
	if err != nil && !isTimeout(err) && err != io.EOF {
		return escpos.ErrorReport("Cannot read printer status: " + err.Error())
	}
	return escpos.DecodeReply(reply[:n])
}

// rawDevice adapts a printer character device to Port. Writes on these
// nodes block until the kernel driver accepted the data, so Drain only
// flushes the file.
type rawDevice struct {
	f           *os.File
	readTimeout time.Duration
}

func (d *rawDevice) Write(p []byte) (int, error) { return d.f.Write(p) }

func (d *rawDevice) Close() error { return d.f.Close() }

func (d *rawDevice) Drain() error {
	// fsync is not supported by every character device driver.
	_ = d.f.Sync()
	return nil
}

func (d *rawDevice) SetReadTimeout(t time.Duration) error {
	d.readTimeout = t
	return nil
}

// Read gives up after the read timeout; the pending read is abandoned and
// ends when the device is closed.
func (d *rawDevice) Read(p []byte) (int, error) {
	if d.readTimeout <= 0 {
		return d.f.Read(p)
	}

	type result struct {
		n   int
		err error
	}
	buf := make([]byte, len(p))
	ch := make(chan result, 1)
	go func() {
		n, err := d.f.Read(buf)
		ch <- result{n, err}
	}()

	select {
	case res := <-ch:
		copy(p, buf[:res.n])
		return res.n, res.err
	case <-time.After(d.readTimeout):
		return 0, ErrTimeout
	}
}
