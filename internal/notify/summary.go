package notify

import (
	"fmt"
	"net/url"
	"strings"

	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/money"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
)

// Summary renders the human-readable order text sent to the merchant.
func Summary(o *domain.Order) string {
	var b strings.Builder

	b.WriteString("New Order\n")
	fmt.Fprintf(&b, "Order: %s\n", o.ID)
	fmt.Fprintf(&b, "Name: %s\n", o.Address.FullName)
	fmt.Fprintf(&b, "Phone: %s\n", o.Contact.Phone)
	fmt.Fprintf(&b, "Email: %s\n", o.Contact.Email)
	fmt.Fprintf(&b, "Address: %s\n", formatAddress(o.Address))
	fmt.Fprintf(&b, "Payment: %s\n\n", paymentLabel(o))

	b.WriteString("Order Items\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "• %s x%d - %s\n", l.Name, l.Quantity, money.Format(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s", money.Format(o.TotalAmount))
	return b.String()
}

func formatAddress(a checkout.Address) string {
	parts := []string{a.AddressLine}
	if a.Landmark != "" {
		parts = append(parts, "near "+a.Landmark)
	}
	parts = append(parts, a.City)
	return strings.Join(parts, ", ") + " - " + a.Pincode
}

func paymentLabel(o *domain.Order) string {
	switch o.PaymentMode {
	case domain.PaymentModeCashOnDelivery:
		return "Cash on delivery"
	case domain.PaymentModeOnlinePaid:
		return "Paid online (ref " + o.PaymentRef + ")"
	default:
		return "Awaiting online payment"
	}
}

// WhatsAppLink builds a wa.me deep link that opens a chat with text prefilled.
func WhatsAppLink(number, text string) string {
	return "https://wa.me/" + digits(number) + "?text=" + escape(text)
}

// MailtoLink builds a mailto URL with subject and body prefilled.
func MailtoLink(address, subject, body string) string {
	return "mailto:" + address + "?subject=" + escape(subject) + "&body=" + escape(body)
}

// escape percent-encodes for a query value; spaces become %20 because mail
// and chat clients do not decode '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
