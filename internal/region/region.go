// Package region maps a billing region to its language, currency and
// price multiplier.
package region

import (
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code identifies a billing region
type Code string

// Supported regions
const (
	BR Code = "BR"
	US Code = "US"
	DE Code = "DE"
	FR Code = "FR"
	ES Code = "ES"
	IT Code = "IT"
)

// Default is the region used when none is chosen or the code is unknown
const Default = BR

// AnnualDiscount is the fraction taken off twelve monthly payments
const AnnualDiscount = 0.10

// Config describes how prices are displayed in one region
type Config struct {
	Code            Code    `json:"code"`
	Name            string  `json:"name"`
	Language        string  `json:"language"`
	Locale          string  `json:"locale"`
	Currency        string  `json:"currency"`
	CurrencySymbol  string  `json:"currency_symbol"`
	PriceMultiplier float64 `json:"price_multiplier"`
}

var order = []Code{BR, US, DE, FR, ES, IT}

var regions = map[Code]Config{
	BR: {Code: BR, Name: "Brasil", Language: "pt", Locale: "pt-BR", Currency: "BRL", CurrencySymbol: "R$", PriceMultiplier: 24.90},
	US: {Code: US, Name: "USA", Language: "en", Locale: "en-US", Currency: "USD", CurrencySymbol: "$", PriceMultiplier: 9.99},
	DE: {Code: DE, Name: "Deutschland", Language: "de", Locale: "de-DE", Currency: "EUR", CurrencySymbol: "€", PriceMultiplier: 9.99},
	FR: {Code: FR, Name: "France", Language: "fr", Locale: "fr-FR", Currency: "EUR", CurrencySymbol: "€", PriceMultiplier: 9.99},
	ES: {Code: ES, Name: "España", Language: "es", Locale: "es-ES", Currency: "EUR", CurrencySymbol: "€", PriceMultiplier: 9.99},
	IT: {Code: IT, Name: "Italia", Language: "it", Locale: "it-IT", Currency: "EUR", CurrencySymbol: "€", PriceMultiplier: 9.99},
}

// Resolve returns the region for code. Unknown codes resolve to the default
// region and report false.
func Resolve(code string) (Config, bool) {
	cfg, ok := regions[Code(strings.ToUpper(strings.TrimSpace(code)))]
	if !ok {
		return regions[Default], false
	}
	return cfg, true
}

// All lists every region in display order
func All() []Config {
	out := make([]Config, 0, len(order))
	for _, c := range order {
		out = append(out, regions[c])
	}
	return out
}

// Price converts a base plan price into this region's currency. Annual
// prices are twelve months less the annual discount.
func (c Config) Price(base float64, annual bool) float64 {
	monthly := base * c.PriceMultiplier
	if !annual {
		return round2(monthly)
	}
	return round2(monthly * 12 * (1 - AnnualDiscount))
}

// FormatPrice renders amount in the region's currency and locale
func (c Config) FormatPrice(amount float64) string {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return c.CurrencySymbol + " " + message.NewPrinter(language.English).Sprintf("%.2f", amount)
	}
	tag := language.Make(c.Locale)
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(round2(amount))))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
