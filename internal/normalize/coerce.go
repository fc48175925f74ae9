package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDayRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
	gvizDateRe = regexp.MustCompile(`^Date\((\d{4}),\s*(\d{1,2}),\s*(\d{1,2})`)
)

// layouts tried for date cells that are neither ISO nor GViz literals.
var dayLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006/01/02",
	"02.01.2006",
	"02.01.2006 15:04:05",
	"Jan 2, 2006",
}

// Number coerces a cell to a float. The first decimal comma is read as a
// decimal point; anything that does not parse to a finite number is 0.
func Number(v any) float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		s := strings.TrimSpace(strings.Replace(x, ",", ".", 1))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Day reduces a date-like cell to YYYY-MM-DD, or "" when it cannot be read.
func Day(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return dayFromText(x)
	case float64:
		if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return time.UnixMilli(int64(x)).UTC().Format(time.DateOnly)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.DateOnly)
	default:
		return ""
	}
}

func dayFromText(s string) string {
	if s == "" {
		return ""
	}
	if m := isoDayRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	// GViz manda las fechas como Date(2024,0,5) con mes base 0
	if m := gvizDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return time.Date(y, time.Month(mo+1), d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.DateOnly)
		}
	}
	return ""
}

// Text renders a cell the way it is shown in selectors and compared in filters.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
