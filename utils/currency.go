// utils/currency.go
package utils

import (
	"fmt"

	"golang.org/x/text/currency"
)

// FormatAmount renders a monetary amount with its currency symbol, e.g.
// "$142.50". Unknown codes fall back to USD.
func FormatAmount(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	return fmt.Sprintf("%v", currency.NarrowSymbol(unit.Amount(amount)))
}
