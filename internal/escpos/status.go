package escpos

import "github.com/Riboost-Studio/pos-device-bridge/internal/model"

// Real-time status reply bits (DLE EOT 1).
const (
	bitDrawer  = 0x04
	bitOffline = 0x08
	maskPaper  = 0x60
	bitError   = 0x40
)

// DecodeStatus maps a status reply byte to a report. Priority when several
// conditions hold: offline, paper out, error, ready.
func DecodeStatus(raw byte) model.PrinterStatusReport {
	r := model.PrinterStatusReport{
		Raw:        raw,
		Offline:    raw&bitOffline != 0,
		PaperOut:   raw&maskPaper == maskPaper,
		DrawerOpen: raw&bitDrawer != 0,
	}
	r.Error = raw&bitError != 0 && !r.PaperOut

	switch {
	case r.Offline:
		r.Status = model.StatusOffline
		r.Message = "Printer is offline"
	case r.PaperOut:
		r.Status = model.StatusPaperOut
		r.Message = "Paper is out or near end"
	case r.Error:
		r.Status = model.StatusError
		r.Message = "Printer reported an error"
	default:
		r.Status = model.StatusReady
		r.Message = "Printer is ready"
		if r.DrawerOpen {
			r.Message = "Printer is ready (cash drawer open)"
		}
	}
	return r
}

// DecodeReply decodes the first byte of a status reply. An empty reply is
// reported as a timeout rather than an error.
func DecodeReply(reply []byte) model.PrinterStatusReport {
	if len(reply) == 0 {
		return TimeoutReport()
	}
	return DecodeStatus(reply[0])
}

// TimeoutReport is the report for a printer that never answered.
func TimeoutReport() model.PrinterStatusReport {
	return model.PrinterStatusReport{
		Status:  model.StatusTimeout,
		Message: "Printer did not respond",
	}
}

// ErrorReport is the report for a status query that failed before a reply.
func ErrorReport(msg string) model.PrinterStatusReport {
	return model.PrinterStatusReport{
		Error:   true,
		Status:  model.StatusError,
		Message: msg,
	}
}
