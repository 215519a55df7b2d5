package billing

import (
	"errors"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidCurrency = errors.New("invalid ISO 4217 currency code")

// NormalizeCurrency upper-cases code and checks it is a known ISO 4217 code.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrInvalidCurrency
	}
	return unit.String(), nil
}

// FormatAmount renders amount with the currency symbol, e.g. "$ 3,850.00".
// Unknown codes fall back to the plain number.
func FormatAmount(code string, amount float64) string {
	p := message.NewPrinter(language.English)

	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return p.Sprintf("%.2f", amount)
	}
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
