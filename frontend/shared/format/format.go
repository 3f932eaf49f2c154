package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Currency renders a value as "R$ 10,50". Nil renders as "R$ -".
func Currency(v *float64) string {
	if v == nil {
		return "R$ -"
	}
	return "R$ " + decimalComma(*v, 2)
}

// CurrencyValue is Currency for values that are always present.
func CurrencyValue(v float64) string {
	return Currency(&v)
}

// Volume renders cubic meters as "12,5 m³".
func Volume(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(decimalComma(v, 2), "0"), ",") + " m³"
}

// Number renders v with two decimals and a decimal comma. Nil is "-".
func Number(v *float64) string {
	if v == nil {
		return "-"
	}
	return decimalComma(*v, 2)
}

func decimalComma(v float64, places int32) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(places), ".", ",", 1)
}

// MonthYear renders t as "Julho-2025".
func MonthYear(t time.Time) string {
	return monthNames[t.Month()-1] + "-" + t.Format("2006")
}

// YearMonth extracts "YYYY-MM" from a date string such as "2025-07-01".
func YearMonth(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 7 {
		return ""
	}
	if _, err := time.Parse("2006-01", date[:7]); err != nil {
		return ""
	}
	return date[:7]
}

// ParseYearMonth validates a "YYYY-MM" value.
func ParseYearMonth(raw string) (time.Time, bool) {
	t, err := time.Parse("2006-01", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DisplayDate renders "2025-07-01..." as "01/07/2025"; other input is returned as is.
func DisplayDate(raw string) string {
	if len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}
