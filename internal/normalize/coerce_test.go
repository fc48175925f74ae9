package normalize

import "testing"

func TestNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"1,5", 1.5},
		{"abc", 0},
		{"", 0},
		{"3.25", 3.25},
		{" 42 ", 42},
		{"Infinity", 0},
		{"NaN", 0},
		{float64(7), 7},
		{nil, 0},
		{true, 0},
	}
	for _, c := range cases {
		if got := Number(c.in); got != c.want {
			t.Errorf("Number(%#v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDay(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"2024-01-05T10:00:00Z", "2024-01-05"},
		{"2024-01-05", "2024-01-05"},
		{"", ""},
		{"not a date", ""},
		{nil, ""},
		{"Date(2024,0,5)", "2024-01-05"},
		{"Date(2024,11,31,23,59,0)", "2024-12-31"},
		{"05.01.2024", "2024-01-05"},
		{"2024/01/05", "2024-01-05"},
		{float64(1704412800000), "2024-01-05"},
		{float64(0), ""},
	}
	for _, c := range cases {
		if got := Day(c.in); got != c.want {
			t.Errorf("Day(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestText(t *testing.T) {
	if got := Text(float64(123456789)); got != "123456789" {
		t.Fatalf("got %q", got)
	}
	if got := Text(1.5); got != "1.5" {
		t.Fatalf("got %q", got)
	}
	if got := Text(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}
