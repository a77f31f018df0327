package model

import "time"

// --- Order Structures (as sent by the order layer) ---

type OrderType string

const (
	OrderWalkIn   OrderType = "walkin"
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
)

// Label is the human form printed on tickets.
func (t OrderType) Label() string {
	switch t {
	case OrderWalkIn:
		return "Walk-in"
	case OrderTakeaway:
		return "Takeaway"
	case OrderDelivery:
		return "Delivery"
	default:
		return "Walk-in"
	}
}

type LineItem struct {
	Name        string       `json:"name"`
	Quantity    int          `json:"quantity"`
	UnitPrice   float64      `json:"unitPrice,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	BundleItems []BundleItem `json:"bundleItems,omitempty"`
}

// LineTotal is quantity times unit price; a zero quantity counts as one.
func (i LineItem) LineTotal() float64 {
	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}
	return float64(qty) * i.UnitPrice
}

// BundleItem is a sub-item included with a deal or combo line.
type BundleItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Flavor   string `json:"flavor,omitempty"`
}

type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount,omitempty"`
	DeliveryFee   float64 `json:"deliveryFee,omitempty"`
	Tax           float64 `json:"tax,omitempty"`
	Total         float64 `json:"total"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	AmountPaid    float64 `json:"amountPaid,omitempty"`
	Change        float64 `json:"change,omitempty"`
}

type ReceiptJob struct {
	OrderNumber     string         `json:"orderNumber"`
	OrderType       OrderType      `json:"orderType"`
	Timestamp       time.Time      `json:"timestamp"`
	CustomerName    string         `json:"customerName,omitempty"`
	CustomerPhone   string         `json:"customerPhone,omitempty"`
	CustomerAddress string         `json:"customerAddress,omitempty"`
	Items           []LineItem     `json:"items"`
	Totals          Totals         `json:"totals"`
	Notes           string         `json:"notes,omitempty"`
	Printer         *PrinterConfig `json:"printer,omitempty"`
}

type KitchenTokenJob struct {
	OrderNumber   string         `json:"orderNumber"`
	OrderType     OrderType      `json:"orderType"`
	Timestamp     time.Time      `json:"timestamp"`
	CustomerName  string         `json:"customerName,omitempty"`
	CustomerPhone string         `json:"customerPhone,omitempty"`
	Items         []LineItem     `json:"items"`
	Notes         string         `json:"notes,omitempty"`
	Printer       *PrinterConfig `json:"printer,omitempty"`
}
