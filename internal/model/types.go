package model

import (
	"fmt"
	"strings"
	"time"
)

// --- Printer Configuration ---

type TransportKind string

const (
	TransportNetwork TransportKind = "network"
	TransportSerial  TransportKind = "serial"
)

type ConnectionStatus string

const (
	ConnectionUnknown      ConnectionStatus = "unknown"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// DefaultNetworkPort is the raw (JetDirect) printing port used by thermal printers.
const DefaultNetworkPort = 9100

type PrinterConfig struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Transport  TransportKind    `json:"transport,omitempty"`
	Host       string           `json:"host,omitempty"`
	Port       int              `json:"port,omitempty"`
	DevicePath string           `json:"devicePath,omitempty"`
	BaudRate   int              `json:"baudRate,omitempty"`
	Model      string           `json:"model,omitempty"`
	IsDefault  bool             `json:"isDefault"`
	Status     ConnectionStatus `json:"status,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Address returns host:port for network printers, applying the default port.
func (p PrinterConfig) Address() string {
	port := p.Port
	if port == 0 {
		port = DefaultNetworkPort
	}
	return fmt.Sprintf("%s:%d", p.Host, port)
}

// Label is the name used in logs: the display name, or the target when unnamed.
func (p PrinterConfig) Label() string {
	if p.Name != "" {
		return p.Name
	}
	if p.DevicePath != "" {
		return p.DevicePath
	}
	return p.Host
}

// Validate enforces the stored-record invariant: exactly one of host or
// device path is populated and it matches the transport kind.
func (p PrinterConfig) Validate() error {
	host := strings.TrimSpace(p.Host)
	path := strings.TrimSpace(p.DevicePath)

	if host != "" && path != "" {
		return &ConfigError{Field: "host/devicePath", Reason: "only one of host or device path may be set"}
	}

	switch p.Transport {
	case TransportNetwork:
		if host == "" {
			return &ConfigError{Field: "host", Reason: "network printer requires a host"}
		}
	case TransportSerial:
		if path == "" {
			return &ConfigError{Field: "devicePath", Reason: "serial printer requires a device path"}
		}
	case "":
		if host == "" && path == "" {
			return &ConfigError{Field: "host/devicePath", Reason: "printer has neither host nor device path"}
		}
	default:
		return &ConfigError{Field: "transport", Reason: fmt.Sprintf("unknown transport %q", p.Transport)}
	}

	if p.Port < 0 || p.Port > 65535 {
		return &ConfigError{Field: "port", Reason: fmt.Sprintf("port %d out of range", p.Port)}
	}
	return nil
}

// --- Discovery ---

// PortDescriptor is a transport-agnostic description of a candidate printer port.
type PortDescriptor struct {
	Port         string        `json:"port"`
	DisplayName  string        `json:"displayName"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	Transport    TransportKind `json:"transport"`
	VendorID     string        `json:"vendorId,omitempty"`
	ProductID    string        `json:"productId,omitempty"`
	Source       string        `json:"source,omitempty"`
}
