// Package escpos renders order records into the ESC/POS byte protocol
// understood by thermal receipt printers and decodes their status replies.
package escpos

// ================= ESC/POS COMMANDS =================

const (
	esc = 0x1B
	gs  = 0x1D
	dle = 0x10
	eot = 0x04
	lf  = 0x0A
)

var (
	cmdInit        = []byte{esc, 0x40}
	cmdAlignLeft   = []byte{esc, 0x61, 0x00}
	cmdAlignCenter = []byte{esc, 0x61, 0x01}
	cmdAlignRight  = []byte{esc, 0x61, 0x02}
	cmdBoldOn      = []byte{esc, 0x45, 0x01}
	cmdBoldOff     = []byte{esc, 0x45, 0x00}
	cmdDoubleOn    = []byte{gs, 0x21, 0x11}
	cmdDoubleOff   = []byte{gs, 0x21, 0x00}
	cmdCut         = []byte{gs, 0x56, 0x41, 0x00}
)

// StatusQuery is DLE EOT 1, "transmit printer status".
var StatusQuery = []byte{dle, eot, 0x01}

// Init returns the initialize command that starts every job.
func Init() []byte { return clone(cmdInit) }

// Cut returns the full-cut command that ends every job.
func Cut() []byte { return clone(cmdCut) }

// Bold returns the emphasis on/off command.
func Bold(on bool) []byte {
	if on {
		return clone(cmdBoldOn)
	}
	return clone(cmdBoldOff)
}

// DoubleSize returns the double height+width on/off command.
func DoubleSize(on bool) []byte {
	if on {
		return clone(cmdDoubleOn)
	}
	return clone(cmdDoubleOff)
}

type Alignment byte

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Align returns the justification command for a.
func Align(a Alignment) []byte {
	switch a {
	case AlignCenter:
		return clone(cmdAlignCenter)
	case AlignRight:
		return clone(cmdAlignRight)
	default:
		return clone(cmdAlignLeft)
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
