package escpos

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const timeLayout = "02/01/2006 15:04"

// Options carries the branding and layout settings shared by every ticket.
type Options struct {
	Width     int
	StoreName string
	Address   string
	Phone     string
	Footer    string
	Currency  string
	Logo      image.Image
	PaymentQR image.Image
}

func (o Options) money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-%s%.2f", o.Currency, -v)
	}
	return fmt.Sprintf("%s%.2f", o.Currency, v)
}

// EncodeReceipt renders a customer receipt. It never fails: missing fields
// print as placeholders.
func EncodeReceipt(job model.ReceiptJob, opts Options) []byte {
	d := newDocument(opts.Width)

	// Header
	d.image(opts.Logo)
	title := opts.StoreName
	if title == "" {
		title = "RECEIPT"
	}
	d.banner(title)
	if opts.Address != "" {
		d.center(opts.Address)
	}
	if opts.Phone != "" {
		d.center(opts.Phone)
	}
	d.separator("=")

	// Order metadata
	d.justifyBold("Order #", placeholder(job.OrderNumber))
	d.justify("Date", formatTime(job.Timestamp))
	d.justify("Type", job.OrderType.Label())
	d.customer(job.CustomerName, job.CustomerPhone, job.CustomerAddress)
	d.separator("-")

	// Items
	d.justify("Item", "Amount")
	d.separator("-")
	for _, item := range job.Items {
		d.justify(fmt.Sprintf("%dx %s", quantity(item.Quantity), itemName(item.Name)), opts.money(item.LineTotal()))
		d.bundle(item.BundleItems)
		d.itemNotes(item.Notes)
	}
	d.separator("-")

	// Totals
	t := job.Totals
	d.justify("Subtotal", opts.money(t.Subtotal))
	if t.Discount != 0 {
		d.justify("Discount", opts.money(-abs(t.Discount)))
	}
	if t.DeliveryFee != 0 {
		d.justify("Delivery fee", opts.money(t.DeliveryFee))
	}
	if t.Tax != 0 {
		d.justify("Tax", opts.money(t.Tax))
	}
	d.justifyBold("TOTAL", opts.money(t.Total))
	if t.PaymentMethod != "" {
		d.justify("Payment", t.PaymentMethod)
	}
	if t.AmountPaid != 0 {
		d.justify("Paid", opts.money(t.AmountPaid))
		d.justify("Change", opts.money(t.Change))
	}

	d.specialNotes(job.Notes)
	d.orderBanner(job.OrderType)

	if opts.PaymentQR != nil {
		d.separator("-")
		d.image(opts.PaymentQR)
		d.center("Scan to pay")
	}

	// Footer
	d.separator("=")
	footer := opts.Footer
	if footer == "" {
		footer = "Thank you for your order!"
	}
	d.center(footer)
	return d.finish()
}

func (d *document) image(img image.Image) {
	data := Raster(img, MaxRasterWidth)
	if data == nil {
		return
	}
	d.raw(cmdAlignCenter)
	d.raw(data)
	d.buf.WriteByte(lf)
	d.raw(cmdAlignLeft)
}

func (d *document) customer(name, phone, address string) {
	if name != "" {
		d.justify("Customer", name)
	}
	if phone != "" {
		d.justify("Phone", phone)
	}
	if address != "" {
		d.wrapped("", "Address: "+address)
	}
}

func (d *document) bundle(items []model.BundleItem) {
	for _, b := range items {
		text := fmt.Sprintf("   %dx %s", quantity(b.Quantity), itemName(b.Name))
		if b.Flavor != "" {
			text += " (" + b.Flavor + ")"
		}
		d.left(text)
	}
}

func (d *document) itemNotes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return
	}
	d.raw(cmdBoldOn)
	d.wrapped("   * ", notes)
	d.raw(cmdBoldOff)
}

func (d *document) specialNotes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return
	}
	d.separator("-")
	d.raw(cmdBoldOn)
	d.line("SPECIAL NOTES:")
	d.raw(cmdBoldOff)
	d.wrapped("", notes)
}

func (d *document) orderBanner(t model.OrderType) {
	switch t {
	case model.OrderDelivery:
		d.feed(1)
		d.banner("DELIVERY")
	case model.OrderTakeaway:
		d.feed(1)
		d.banner("TAKEAWAY")
	}
}

func placeholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func itemName(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Item"
	}
	return s
}

func quantity(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	return t.Format(timeLayout)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
