package charts

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/AngelCh415/wbdash/internal/models"
)

// FormatSummary renders the KPI cards: money with the locale's grouping and
// up to three fraction digits, CTR and ROAS with exactly two decimals.
// An unparseable locale falls back to Russian.
func FormatSummary(s models.Summary, locale string) models.FormattedSummary {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	p := message.NewPrinter(tag)
	money := func(v float64) string {
		return p.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
	}
	return models.FormattedSummary{
		Spend:   money(s.Spend),
		Revenue: money(s.Revenue),
		CTR:     strconv.FormatFloat(s.CTR, 'f', 2, 64),
		ROAS:    strconv.FormatFloat(s.ROAS, 'f', 2, 64),
	}
}
