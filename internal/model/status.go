package model

type PrinterStatus string

const (
	StatusReady    PrinterStatus = "ready"
	StatusOffline  PrinterStatus = "offline"
	StatusPaperOut PrinterStatus = "paper_out"
	StatusError    PrinterStatus = "error"
	StatusTimeout  PrinterStatus = "timeout"
)

// PrinterStatusReport is derived from one real-time status reply byte.
type PrinterStatusReport struct {
	Raw        byte          `json:"raw"`
	Offline    bool          `json:"offline"`
	PaperOut   bool          `json:"paperOut"`
	DrawerOpen bool          `json:"drawerOpen"`
	Error      bool          `json:"error"`
	Status     PrinterStatus `json:"status"`
	Message    string        `json:"message"`
}

// PrintResult is what the order layer receives for a print request.
type PrintResult struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Printer string               `json:"printer,omitempty"`
	Bytes   int                  `json:"bytes"`
	Status  *PrinterStatusReport `json:"status,omitempty"`
}
