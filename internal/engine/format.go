package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatBRL renders v as Brazilian reais, e.g. 8418.75 -> "R$ 8.418,75".
// Values are rounded half away from zero to the cent.
func FormatBRL(v float64) string {
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if v < 0 && cents > 0 {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents%100)
}

// FormatDate renders an ISO date as DD/MM/YYYY. Unparseable input is
// returned unchanged.
func FormatDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// FormatCompetency renders YYYY-MM as MM/YYYY.
func FormatCompetency(comp string) string {
	t, err := time.Parse("2006-01", comp)
	if err != nil {
		return comp
	}
	return t.Format("01/2006")
}

// roundCents rounds to two decimals.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
