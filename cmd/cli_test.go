package main

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsAppVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, appVersion+"\n", stdout)
}

func TestPrintersAddListDefaultDelete(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "printers", "add", "--name", "Front", "--host", "10.0.0.5")
	require.NoError(t, err)
	frontID := addedID(t, stdout)

	stdout, _, err = executeCLI(t, home, "printers", "add", "--name", "Kitchen", "--device", "/dev/usb/lp0", "--default")
	require.NoError(t, err)
	kitchenID := addedID(t, stdout)

	stdout, _, err = executeCLI(t, home, "printers", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Front")
	assert.Contains(t, stdout, "10.0.0.5:9100")
	assert.Contains(t, stdout, "/dev/usb/lp0")

	stdout, _, err = executeCLI(t, home, "printers", "default", frontID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "default printer is now "+frontID)

	data, err := os.ReadFile(filepath.Join(home, "data", "printers.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), `"isDefault": true`))

	stdout, _, err = executeCLI(t, home, "printers", "delete", kitchenID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted printer "+kitchenID)

	_, _, err = executeCLI(t, home, "printers", "delete", kitchenID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPrintersAddRequiresTarget(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "printers", "add", "--name", "Nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--host or --device")
}

func TestPrintKitchenSendsToNetworkPrinter(t *testing.T) {
	home := t.TempDir()
	received, port := captureListener(t)

	jobFile := filepath.Join(home, "job.json")
	require.NoError(t, os.WriteFile(jobFile, []byte(`{
		"orderNumber": "A-17",
		"orderType": "takeaway",
		"timestamp": "2026-03-01T12:30:00Z",
		"items": [{"name": "Falafel wrap", "quantity": 2}]
	}`), 0o644))

	stdout, _, err := executeCLI(t, home, "print", "kitchen", "--file", jobFile, "--host", "127.0.0.1", "--port", port)
	require.NoError(t, err)
	assert.Contains(t, stdout, "printed")

	data := <-received
	assert.NotEmpty(t, data)
	assert.Contains(t, string(data), "A-17")
	assert.Contains(t, string(data), "Falafel wrap")
}

func TestPrintWithoutPrinterOrDefaultFails(t *testing.T) {
	home := t.TempDir()
	jobFile := filepath.Join(home, "job.json")
	require.NoError(t, os.WriteFile(jobFile, []byte(`{"orderNumber": "1", "items": []}`), 0o644))

	_, _, err := executeCLI(t, home, "print", "receipt", "--file", jobFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default printer")
}

func TestPrintRequiresFileFlag(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "print", "receipt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "file" not set`)
}

func TestStatusReportsReadyPrinter(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		query := make([]byte, 3)
		if _, err := io.ReadFull(conn, query); err != nil {
			return
		}
		conn.Write([]byte{0x00})
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, t.TempDir(), "status", "--host", "127.0.0.1", "--port", port, "--name", "Bar")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Bar: ready")
}

func TestConfigInitRefusesOverwriteWithoutForce(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "posbridge.toml")

	stdout, _, err := executeCLI(t, home, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[receipt]")

	_, _, err = executeCLI(t, home, "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCLI(t, home, "--config", path, "config", "init", "--force")
	require.NoError(t, err)
}

func TestImagesDownloadAndClear(t *testing.T) {
	home := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG fake"))
	}))
	t.Cleanup(srv.Close)

	itemsFile := filepath.Join(home, "items.json")
	require.NoError(t, os.WriteFile(itemsFile, []byte(`[
		{"id": "42", "url": "`+srv.URL+`/burger.png", "type": "product"},
		{"id": "43", "url": "`+srv.URL+`/missing.png", "type": "product"}
	]`), 0o644))

	stdout, _, err := executeCLI(t, home, "images", "download", "--file", itemsFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "product_42.png")
	assert.Contains(t, stdout, "1 of 2 images available")
	assert.FileExists(t, filepath.Join(home, "data", "images", "product_42.png"))

	_, _, err = executeCLI(t, home, "images", "clear")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(home, "data", "images"))
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("POSBRIDGE_DATA_DIR", filepath.Join(home, "data"))
	t.Setenv("POSBRIDGE_LOG_LEVEL", "error")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func addedID(t *testing.T, stdout string) string {
	t.Helper()
	fields := strings.Fields(stdout)
	require.GreaterOrEqual(t, len(fields), 3, "unexpected output %q", stdout)
	return fields[2]
}

// captureListener accepts one connection and delivers everything written
// to it once the client closes.
func captureListener(t *testing.T) (<-chan []byte, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	return received, strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
}
