package api

import "strings"

// Commaify groups the digits of an integer string by thousands. Values
// containing a decimal point, and values of three characters or fewer, are
// returned unchanged.
func Commaify(value string) string {
	if strings.Contains(value, ".") || len(value) <= 3 {
		return value
	}
	var sb strings.Builder
	first := len(value) % 3
	if first == 0 {
		first = 3
	}
	sb.WriteString(value[:first])
	for i := first; i < len(value); i += 3 {
		sb.WriteByte(',')
		sb.WriteString(value[i : i+3])
	}
	return sb.String()
}
