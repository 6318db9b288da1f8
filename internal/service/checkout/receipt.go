package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"hezora/internal/domain"
	"hezora/internal/notify"
)

// BuildReceipt renders the plain-text receipt for an order.
func BuildReceipt(order domain.Order, total decimal.Decimal, currency, from string) notify.Receipt {
	lines := []string{
		"Thank you for your purchase!",
		fmt.Sprintf("Order ID: %d", order.ID),
		"Items:",
	}
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("- %s x %d — %s %s", item.Title, item.Quantity, currency, item.LineTotal().StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Total: %s %s", currency, total.StringFixed(2)))

	return notify.Receipt{
		OrderID: order.ID,
		From:    from,
		To:      order.Contact.Email,
		Subject: fmt.Sprintf("Thank you for your order! Order %d", order.ID),
		Body:    strings.Join(lines, "\n"),
	}
}
