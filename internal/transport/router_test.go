package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riboost-Studio/pos-device-bridge/internal/escpos"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

type fakePort struct {
	mu      sync.Mutex
	written bytes.Buffer
	reply   []byte
	closed  bool
	drained bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(b, p.reply)
	p.reply = p.reply[n:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drained = true
	return nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

type recordingOpener struct {
	port  *fakePort
	err   error
	calls []string
}

func (o *recordingOpener) open(path string, baud int) (Port, error) {
	o.calls = append(o.calls, path)
	if o.err != nil {
		return nil, o.err
	}
	return o.port, nil
}

func newTestRouter(opener *recordingOpener) *Router {
	opts := Options{
		ConnectTimeout: time.Second,
		StatusTimeout:  200 * time.Millisecond,
		WriteTimeout:   time.Second,
	}
	if opener != nil {
		opts.OpenSerial = opener.open
	}
	return NewRouter(opts, nil)
}

func hostPort(t *testing.T, addr net.Addr) (string, int) {
	t.Helper()
	tcp, ok := addr.(*net.TCPAddr)
	require.True(t, ok)
	return tcp.IP.String(), tcp.Port
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		cfg     model.PrinterConfig
		want    model.TransportKind
		wantErr bool
	}{
		{"host only", model.PrinterConfig{Host: "10.0.0.5"}, model.TransportNetwork, false},
		{"path only", model.PrinterConfig{DevicePath: "/dev/usb/lp0"}, model.TransportSerial, false},
		{"path preferred over host", model.PrinterConfig{Host: "10.0.0.5", DevicePath: "COM3"}, model.TransportSerial, false},
		{"explicit network wins", model.PrinterConfig{Transport: model.TransportNetwork, Host: "10.0.0.5", DevicePath: "COM3"}, model.TransportNetwork, false},
		{"explicit network without host", model.PrinterConfig{Transport: model.TransportNetwork, DevicePath: "COM3"}, "", true},
		{"explicit serial without path", model.PrinterConfig{Transport: model.TransportSerial, Host: "10.0.0.5"}, "", true},
		{"nothing set", model.PrinterConfig{}, "", true},
		{"unknown kind", model.PrinterConfig{Transport: "bluetooth", Host: "x"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatchNetworkDeliversAllBytes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	host, port := hostPort(t, ln.Addr())
	payload := bytes.Repeat([]byte{0x41}, 50)

	err = newTestRouter(nil).Dispatch(context.Background(), model.PrinterConfig{Host: host, Port: port}, payload)
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("listener received nothing")
	}
}

func TestDispatchNetworkRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := hostPort(t, ln.Addr())
	require.NoError(t, ln.Close())

	err = newTestRouter(nil).Dispatch(context.Background(), model.PrinterConfig{Host: host, Port: port}, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "connect", terr.Op)
}

func TestDispatchConfigErrorPerformsNoIO(t *testing.T) {
	opener := &recordingOpener{port: &fakePort{}}
	router := newTestRouter(opener)

	err := router.Dispatch(context.Background(), model.PrinterConfig{Transport: model.TransportSerial}, []byte("x"))
	require.Error(t, err)

	var cerr *model.ConfigError
	assert.True(t, errors.As(err, &cerr))
	assert.Empty(t, opener.calls)
}

func TestDispatchSerialWritesAndDrains(t *testing.T) {
	port := &fakePort{}
	opener := &recordingOpener{port: port}

	err := newTestRouter(opener).Dispatch(context.Background(), model.PrinterConfig{DevicePath: "COM3"}, []byte{0x1B, 0x40, 0x0A})
	require.NoError(t, err)

	assert.Equal(t, []string{"COM3"}, opener.calls)
	assert.Equal(t, []byte{0x1B, 0x40, 0x0A}, port.written.Bytes())
	assert.True(t, port.drained)
	assert.True(t, port.closed)
}

func TestDispatchSerialOpenFailure(t *testing.T) {
	opener := &recordingOpener{err: errors.New("no such file or directory")}

	err := newTestRouter(opener).Dispatch(context.Background(), model.PrinterConfig{DevicePath: "/dev/ttyUSB9"}, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "/dev/ttyUSB9")
}

func TestTestConnectionWritesNothing(t *testing.T) {
	port := &fakePort{}
	opener := &recordingOpener{port: port}

	require.NoError(t, newTestRouter(opener).TestConnection(context.Background(), model.PrinterConfig{DevicePath: "COM3"}))
	assert.Zero(t, port.written.Len())
	assert.True(t, port.closed)
}

func TestQueryStatusNetwork(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	query := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		query <- buf
		conn.Write([]byte{0x08})
	}()

	host, port := hostPort(t, ln.Addr())
	report, err := newTestRouter(nil).QueryStatus(context.Background(), model.PrinterConfig{Host: host, Port: port})
	require.NoError(t, err)

	assert.Equal(t, escpos.StatusQuery, <-query)
	assert.Equal(t, model.StatusOffline, report.Status)
	assert.True(t, report.Offline)
}

func TestQueryStatusNetworkTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	release := make(chan struct{})
	defer close(release)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	}()

	host, port := hostPort(t, ln.Addr())
	report, err := newTestRouter(nil).QueryStatus(context.Background(), model.PrinterConfig{Host: host, Port: port})
	require.NoError(t, err)
	assert.Equal(t, model.StatusTimeout, report.Status)
}

func TestQueryStatusSerial(t *testing.T) {
	port := &fakePort{reply: []byte{0x60}}
	report, err := newTestRouter(&recordingOpener{port: port}).QueryStatus(context.Background(), model.PrinterConfig{DevicePath: "COM3"})
	require.NoError(t, err)

	assert.Equal(t, escpos.StatusQuery, port.written.Bytes())
	assert.Equal(t, model.StatusPaperOut, report.Status)
}

func TestQueryStatusSerialSilent(t *testing.T) {
	report, err := newTestRouter(&recordingOpener{port: &fakePort{}}).QueryStatus(context.Background(), model.PrinterConfig{DevicePath: "COM3"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusTimeout, report.Status)
}

func TestIsRawDevice(t *testing.T) {
	assert.True(t, IsRawDevice("/dev/usb/lp0"))
	assert.True(t, IsRawDevice("/dev/lp1"))
	assert.False(t, IsRawDevice("/dev/ttyUSB0"))
	assert.False(t, IsRawDevice("COM3"))
	assert.False(t, IsRawDevice(`\\.\COM12`))
}
