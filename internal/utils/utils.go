// Package utils contains small helpers shared by the other packages.
package utils

import "fmt"

// ShortenString cuts s after l runes and marks the cut with "...". An l of 0
// means no limit.
func ShortenString(s string, l int) string {
	r := []rune(s)
	if len(r) > l && l != 0 {
		return fmt.Sprintf("%s...", string(r[:l]))
	}
	return s
}
