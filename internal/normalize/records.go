package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AngelCh415/wbdash/internal/models"
)

// MinRows is the smallest acceptable table: a header row plus one data row.
const MinRows = 2

var ErrValidation = errors.New("table validation failed")

type ValidationError struct {
	Missing []string
	Rows    int
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing columns: " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("not enough rows: got %d, want at least %d", e.Rows, MinRows)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MissingColumns returns the required labels absent from cols, in canonical order.
func MissingColumns(cols []string) []string {
	have := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		have[c] = struct{}{}
	}
	var missing []string
	for _, c := range models.RequiredColumns {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Validate checks that t carries every required column and at least one data row.
func Validate(t models.RawTable) error {
	if missing := MissingColumns(t.Cols); len(missing) > 0 {
		return &ValidationError{Missing: missing, Rows: len(t.Rows)}
	}
	if len(t.Rows) < MinRows {
		return &ValidationError{Rows: len(t.Rows)}
	}
	return nil
}

// Records turns every row after the header row into a typed record.
func Records(t models.RawTable) ([]models.Record, error) {
	if missing := MissingColumns(t.Cols); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing, Rows: len(t.Rows)}
	}
	if len(t.Rows) < 2 {
		return []models.Record{}, nil
	}

	// con etiquetas repetidas gana la última, igual que el tablero original
	idx := make(map[string]int, len(t.Cols))
	for i, c := range t.Cols {
		idx[c] = i
	}

	out := make([]models.Record, 0, len(t.Rows)-1)
	for _, row := range t.Rows[1:] {
		cell := func(label string) any {
			i := idx[label]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, models.Record{
			CampaignID:     Text(cell(models.ColCampaignID)),
			TrafficSource:  Text(cell(models.ColTrafficSource)),
			ProductID:      Text(cell(models.ColProductID)),
			ProductName:    Text(cell(models.ColProductName)),
			Date:           Day(cell(models.ColDate)),
			Impressions:    Number(cell(models.ColImpressions)),
			Clicks:         Number(cell(models.ColClicks)),
			CTR:            Number(cell(models.ColCTR)),
			Spend:          Number(cell(models.ColSpend)),
			CartAdds:       Number(cell(models.ColCartAdds)),
			OrderedQty:     Number(cell(models.ColOrderedQty)),
			OrderedRevenue: Number(cell(models.ColOrderedRevenue)),
		})
	}
	return out, nil
}
