package util

import "strconv"

// ParseIntDefault returns s parsed as an int, or def when s is empty or
// not a number.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
