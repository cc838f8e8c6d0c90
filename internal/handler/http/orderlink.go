package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/trusttec/cart-service/internal/domain"
)

// OrderLinkBuilder turns an order summary into a WhatsApp deep link the
// storefront opens for checkout.
type OrderLinkBuilder struct {
	number   string
	currency string
}

func NewOrderLinkBuilder(number, currency string) *OrderLinkBuilder {
	return &OrderLinkBuilder{number: number, currency: currency}
}

// Build renders the order message and wraps it in a wa.me link. The second
// return value is false when the summary has no lines.
func (b *OrderLinkBuilder) Build(summary domain.OrderSummary) (string, bool) {
	if len(summary.Lines) == 0 {
		return "", false
	}

	var msg strings.Builder
	msg.WriteString("Bonjour Trusttec,\n\nJe souhaite commander les articles suivants :\n")
	for _, line := range summary.Lines {
		fmt.Fprintf(&msg, "\n- %s\n  (Quantité : %d) = %s %s",
			line.Name, line.Quantity, formatPrice(line.LineTotal), b.currency)
	}
	fmt.Fprintf(&msg, "\n\n--------------------\n*Total de la commande : %s %s*",
		formatPrice(summary.TotalPrice), b.currency)
	msg.WriteString("\n--------------------\n\nMerci de me confirmer la disponibilité et les modalités (paiement/livraison/retrait).")

	return "https://wa.me/" + b.number + "?text=" + url.QueryEscape(msg.String()), true
}

// formatPrice drops the decimal part for whole amounts, which is the common
// case for XAF prices.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
