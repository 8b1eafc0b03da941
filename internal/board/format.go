package board

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatMoney formats a dollar amount as $X,XXX.XX with a leading sign for
// negative values.
func FormatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int(v)
	cents := int(math.Round((v - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("%s$%s.%02d", sign, FormatInt(whole), cents)
}

// FormatCompact formats a dollar value with B/M/K suffixes.
func FormatCompact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatPrice formats a price value as X.XX, or "-" for zero/max.
func FormatPrice(p float64) string {
	if p == math.MaxFloat64 || p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatSignedPct formats a percentage with an explicit sign. Values at or
// above 100% drop the decimal to keep width compact.
func FormatSignedPct(pct float64) string {
	sign := "+"
	if pct < 0 {
		sign = "-"
		pct = -pct
	}
	if pct >= 100 {
		return fmt.Sprintf("%s%.0f%%", sign, pct)
	}
	return fmt.Sprintf("%s%.1f%%", sign, pct)
}

// FormatDuration formats a tool-call duration: milliseconds under one
// second, otherwise seconds with one decimal.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
