package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nestegg-finance/backend/internal/forecast"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMoney formats an amount with two decimal places and grouped
// thousands, e.g. "1,250.50".
//
// Only the integer part goes through the printer, the cents are taken from
// the decimal as they are.
func FormatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	cents := fixed[strings.IndexByte(fixed, '.'):]

	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}

	return sign + printer.Sprintf("%d", d.Abs().Round(2).IntPart()) + cents
}

// FormatPercent formats a percentage, e.g. "12.5%".
func FormatPercent(d decimal.Decimal) string {
	return d.String() + "%"
}

// FormatDate formats the date part of t, or "-" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return t.Format(time.DateOnly)
}

// FormatHealth renders the score colored by how healthy it is.
func FormatHealth(score int) string {
	color := ColorGreen
	switch {
	case score < 50:
		color = ColorRed
	case score < 80:
		color = ColorOrange
	}

	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%d", score))
}

// FormatRecommendationType renders the type of a recommendation as a label.
func FormatRecommendationType(t forecast.RecommendationType) string {
	color := ColorBlue
	switch t {
	case forecast.Alert:
		color = ColorRed
	case forecast.Warning:
		color = ColorOrange
	case forecast.Success:
		color = ColorGreen
	}

	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(string(t))
}
