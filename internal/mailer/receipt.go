package mailer

import (
	"fmt"
	"strings"

	"github.com/mmeshcher/munchify-system/internal/model"
)

// ReceiptSubject — тема письма-подтверждения заказа.
const ReceiptSubject = "Your Order Confirmation"

// BuildReceipt собирает текст письма-подтверждения заказа.
func BuildReceipt(firstName string, items []model.OrderItem, total float64) string {
	if firstName == "" {
		firstName = "Customer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", firstName)
	b.WriteString("Thanks for placing your order with Munchify!\n\n")

	for _, item := range items {
		fmt.Fprintf(&b, "- %d x %s - $%.2f\n", item.Quantity, item.Name, item.Price)
	}

	fmt.Fprintf(&b, "\nTotal: $%.2f\n\n", total)
	b.WriteString("You'll pay on delivery. We'll reach out if there's anything else needed.\n\n")
	b.WriteString("Cheers,\nThe Munchify Team\n")

	return b.String()
}
