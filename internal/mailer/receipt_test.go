package mailer

import (
	"strings"
	"testing"

	"github.com/mmeshcher/munchify-system/internal/model"
)

func TestBuildReceipt(t *testing.T) {
	items := []model.OrderItem{
		{Name: "Greek Salad", Quantity: 2, Price: 12},
		{Name: "Cheese Pasta", Quantity: 1, Price: 18},
	}

	body := BuildReceipt("Alice", items, 42)

	for _, want := range []string{
		"Hi Alice,",
		"- 2 x Greek Salad - $12.00",
		"- 1 x Cheese Pasta - $18.00",
		"Total: $42.00",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("receipt body %q does not contain %q", body, want)
		}
	}
}

func TestBuildReceipt_DefaultName(t *testing.T) {
	body := BuildReceipt("", nil, 0)
	if !strings.HasPrefix(body, "Hi Customer,") {
		t.Fatalf("receipt body %q does not address the default customer", body)
	}
}
