package web

import (
	"html/template"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const dateLayout = "2/1/2006"

// NotUpdated is shown in place of a missing date.
const NotUpdated = "Not updated yet"

// Funcs returns the template helpers. Amounts are rendered in currency, an
// ISO 4217 code.
func Funcs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string { return FormatMoney(d, currency) },
		"date":  FormatDate,
	}
}

// FormatMoney renders d in the given currency with its symbol and grouping.
// Amounts are rounded to the currency's minor unit. Unknown codes fall back
// to a plain two-decimal rendering followed by the code.
func FormatMoney(d decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return d.StringFixed(2) + " " + code
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatDate renders a date as day/month/year. It accepts a time.Time, a
// *time.Time, or a string in RFC 3339 or YYYY-MM-DD form. Zero and empty
// values read as NotUpdated; unparseable strings are returned unchanged.
func FormatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return NotUpdated
		}
		return t.Format(dateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return NotUpdated
		}
		return t.Format(dateLayout)
	case string:
		if t == "" {
			return NotUpdated
		}
		for _, layout := range []string{time.RFC3339, time.DateOnly, "2006-01"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				if layout == "2006-01" {
					return parsed.Format("1/2006")
				}
				return parsed.Format(dateLayout)
			}
		}
		return t
	default:
		return NotUpdated
	}
}
