package model

import "encoding/json"

type MessageType string

const (
	MessageTypeRegister     MessageType = "register"
	MessageTypeRegistered   MessageType = "registered"
	MessageTypeUnregister   MessageType = "unregister"
	MessageTypePing         MessageType = "ping"
	MessageTypePong         MessageType = "pong"
	MessageTypePrintReceipt MessageType = "print_receipt"
	MessageTypePrintKitchen MessageType = "print_kitchen"
	MessageTypePrinted      MessageType = "printed"
	MessageTypePrintFailed  MessageType = "print_failed"
)

// --- WebSocket Messages ---

type WSMessage struct {
	Type      MessageType     `json:"type"`
	AgentKey  string          `json:"agent_key,omitempty"`
	JobID     string          `json:"job_id,omitempty"`
	PrinterID string          `json:"printer_id,omitempty"`
	Job       json.RawMessage `json:"job,omitempty"` // decoded per message type
	Error     string          `json:"error,omitempty"`
}
