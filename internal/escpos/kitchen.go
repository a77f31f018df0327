package escpos

import (
	"fmt"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

// EncodeKitchenToken renders the kitchen copy of an order: no prices, item
// rows in bold so they read from a distance.
func EncodeKitchenToken(job model.KitchenTokenJob, opts Options) []byte {
	d := newDocument(opts.Width)

	d.banner("KITCHEN TOKEN")
	d.separator("=")

	d.justifyBold("Token #", placeholder(job.OrderNumber))
	d.justify("Time", formatTime(job.Timestamp))
	d.justify("Type", job.OrderType.Label())
	d.customer(job.CustomerName, job.CustomerPhone, "")
	d.separator("-")

	for _, item := range job.Items {
		d.justifyBold(itemName(item.Name), fmt.Sprintf("x%d", quantity(item.Quantity)))
		d.bundle(item.BundleItems)
		d.itemNotes(item.Notes)
	}

	d.specialNotes(job.Notes)
	d.orderBanner(job.OrderType)

	d.separator("-")
	d.center(fmt.Sprintf("%d item(s)", countItems(job.Items)))
	return d.finish()
}

func countItems(items []model.LineItem) int {
	n := 0
	for _, it := range items {
		n += quantity(it.Quantity)
	}
	return n
}
