// README: Currency display symbols. The code is a display label only, no conversion.
package types

var currencySymbols = map[string]string{
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
	"UAH": "₴",
	"KZT": "₸",
	"KGS": "с",
	"AED": "د.إ",
}

// CurrencySymbol returns the display symbol for an ISO currency code,
// falling back to the code itself for unknown currencies.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code
}
