package payments

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var receiptPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount for printed receipts, with
// thousands separators and two decimal places.
func FormatAmount(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return receiptPrinter.Sprintf("%.2f", f)
}
