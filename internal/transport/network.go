package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/Riboost-Studio/pos-device-bridge/internal/escpos"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

func (r *Router) dial(ctx context.Context, cfg model.PrinterConfig) (net.Conn, error) {
	addr := cfg.Address()
	dialer := net.Dialer{Timeout: r.opts.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, wrap("connect", addr, err)
	}
	return conn, nil
}

func (r *Router) sendNetwork(ctx context.Context, cfg model.PrinterConfig, data []byte) error {
	conn, err := r.dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(r.opts.WriteTimeout)); err != nil {
		return wrap("write", cfg.Address(), err)
	}
	if _, err := conn.Write(data); err != nil {
		return wrap("write", cfg.Address(), err)
	}
	if err := conn.Close(); err != nil {
		return wrap("close", cfg.Address(), err)
	}
	return nil
}

func (r *Router) probeNetwork(ctx context.Context, cfg model.PrinterConfig) error {
	conn, err := r.dial(ctx, cfg)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (r *Router) statusNetwork(ctx context.Context, cfg model.PrinterConfig) model.PrinterStatusReport {
	ctx, cancel := context.WithTimeout(ctx, r.opts.StatusTimeout)
	defer cancel()

	conn, err := r.dial(ctx, cfg)
	if err != nil {
		if isTimeout(err) {
			return escpos.TimeoutReport()
		}
		return escpos.ErrorReport("Cannot connect to printer: " + err.Error())
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(r.opts.StatusTimeout)); err != nil {
		return escpos.ErrorReport("Cannot query printer: " + err.Error())
	}
	if _, err := conn.Write(escpos.StatusQuery); err != nil {
		return escpos.ErrorReport("Cannot query printer: " + err.Error())
	}

	reply := make([]byte, 1)
	n, err := io.ReadFull(conn, reply)
	if err != nil && !isTimeout(err) && !errors.Is(err, io.EOF) {
		return escpos.ErrorReport("Cannot read printer status: " + err.Error())
	}
	return escpos.DecodeReply(reply[:n])
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
