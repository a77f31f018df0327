package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

func TestDecodeStatusScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    byte
		status model.PrinterStatus
	}{
		{name: "idle", raw: 0x00, status: model.StatusReady},
		{name: "fixed bits only", raw: 0x12, status: model.StatusReady},
		{name: "drawer open", raw: 0x04, status: model.StatusReady},
		{name: "offline", raw: 0x08, status: model.StatusOffline},
		{name: "paper out", raw: 0x60, status: model.StatusPaperOut},
		{name: "error bit alone", raw: 0x40, status: model.StatusError},
		{name: "offline beats paper", raw: 0x68, status: model.StatusOffline},
		{name: "offline beats error", raw: 0x48, status: model.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, DecodeStatus(tt.raw).Status)
		})
	}
}

func TestDecodeStatusOfflineMessage(t *testing.T) {
	t.Parallel()

	r := DecodeStatus(0b00001000)
	assert.Equal(t, model.StatusOffline, r.Status)
	assert.Equal(t, "Printer is offline", r.Message)
	assert.True(t, r.Offline)
	assert.False(t, r.PaperOut)
	assert.Equal(t, byte(0x08), r.Raw)
}

func TestDecodeStatusProperties(t *testing.T) {
	t.Parallel()

	for i := 0; i < 256; i++ {
		raw := byte(i)
		first := DecodeStatus(raw)
		assert.Equal(t, first, DecodeStatus(raw), "not deterministic for %#x", raw)

		if raw&0x08 != 0 {
			assert.Equal(t, model.StatusOffline, first.Status, "%#x", raw)
			continue
		}
		if raw&0x60 == 0x60 {
			assert.Equal(t, model.StatusPaperOut, first.Status, "%#x", raw)
		}
		assert.Equal(t, raw&0x04 != 0, first.DrawerOpen)
	}
}

func TestDecodeReplyEmptyIsTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.StatusTimeout, DecodeReply(nil).Status)
	assert.Equal(t, model.StatusPaperOut, DecodeReply([]byte{0x60, 0x00}).Status)
}
