package command

import (
	"math"
	"strconv"
)

// formatFloatField renders a float64 command field: a bare JSON number
// using the shortest round-trip representation, or one of the string
// tokens "NaN"/"Infinity"/"-Infinity" when the value has no JSON
// numeric literal (spec.md §4.9, resolving §9's formatting open
// question the same way internal/value.formatFloat does).
func formatFloatField(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
