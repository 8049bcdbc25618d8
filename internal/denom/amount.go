package denom

import "strings"

// ToHumanAmount converts an integer string in base units to a decimal
// string. Pure digit slicing: on-chain amounts routinely exceed the 15-16
// significant digits a float64 can hold, so no floating point is involved
// at any step.
func ToHumanAmount(amount string, decimals int) string {
	neg := strings.HasPrefix(amount, "-")
	digits := strings.TrimPrefix(amount, "-")
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}

	var out string
	if decimals <= 0 {
		out = digits
	} else {
		// Pad so there is always at least one digit left of the point.
		if len(digits) < decimals+1 {
			digits = strings.Repeat("0", decimals+1-len(digits)) + digits
		}
		cut := len(digits) - decimals
		intPart := digits[:cut]
		fracPart := strings.TrimRight(digits[cut:], "0")
		if fracPart == "" {
			out = intPart
		} else {
			out = intPart + "." + fracPart
		}
	}

	if neg {
		return "-" + out
	}
	return out
}
