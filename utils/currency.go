package utils

import (
	"strconv"
	"strings"
)

// FormatVND renders an amount with dot thousand separators: 90000 -> "90.000 VNĐ"
func FormatVND(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	out := b.String() + " VNĐ"
	if negative {
		return "-" + out
	}
	return out
}
