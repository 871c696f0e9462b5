package frontend

import (
	"strconv"
)

// ToOrdinal renders a positive integer as an English ordinal ("1st", "12th")
func ToOrdinal(n int) string {
	suffix := "th"

	switch n % 10 {
	case 1:
		if n%100 != 11 {
			suffix = "st"
		}
	case 2:
		if n%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if n%100 != 13 {
			suffix = "rd"
		}
	}

	return strconv.Itoa(n) + suffix
}
