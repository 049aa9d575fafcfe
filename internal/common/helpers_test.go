package common

import (
	"testing"
	"time"
)

func TestPluralizeStars(t *testing.T) {
	cases := map[int64]string{
		0:   "звёзд",
		1:   "звезда",
		2:   "звезды",
		4:   "звезды",
		5:   "звёзд",
		11:  "звёзд",
		12:  "звёзд",
		21:  "звезда",
		22:  "звезды",
		111: "звёзд",
		-3:  "звезды",
	}
	for n, want := range cases {
		if got := PluralizeStars(n); got != want {
			t.Errorf("PluralizeStars(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatStarsAmount(t *testing.T) {
	if got := FormatStarsAmount(100); got != "+100 звёзд" {
		t.Fatalf("got %q", got)
	}
	if got := FormatStarsAmount(-1); got != "-1 звезда" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatStars(t *testing.T) {
	cases := []struct {
		n    int64
		lang string
		want string
	}{
		{5, "ru", "5 звёзд"},
		{22, "ru", "22 звезды"},
		{1, "en", "1 star"},
		{0, "en", "0 stars"},
	}
	for _, c := range cases {
		if got := FormatStars(c.n, c.lang); got != c.want {
			t.Errorf("FormatStars(%d, %q) = %q, want %q", c.n, c.lang, got, c.want)
		}
	}
}

func TestFormatShortDate(t *testing.T) {
	d := time.Date(2025, time.March, 5, 13, 0, 0, 0, time.UTC)
	if got := FormatShortDate(d, "ru"); got != "05 мар. 2025" {
		t.Fatalf("ru: got %q", got)
	}
	if got := FormatShortDate(d, "en"); got != "05 Mar 2025" {
		t.Fatalf("en: got %q", got)
	}
	if got := FormatShortDate(d, "de"); got != "05 мар. 2025" {
		t.Fatalf("fallback: got %q", got)
	}
}

func TestStartOfDayAndMonth(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	d := time.Date(2025, time.July, 17, 23, 59, 1, 5, loc)
	if got := StartOfDay(d); !got.Equal(time.Date(2025, time.July, 17, 0, 0, 0, 0, loc)) {
		t.Fatalf("StartOfDay = %v", got)
	}
	if got := StartOfMonth(d); !got.Equal(time.Date(2025, time.July, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("StartOfMonth = %v", got)
	}
	if got := ISODate(d); got != "2025-07-17" {
		t.Fatalf("ISODate = %q", got)
	}
}
