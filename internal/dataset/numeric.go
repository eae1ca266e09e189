package dataset

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a cell to a finite float. Plain numbers parse as-is;
// otherwise thousands and decimal separators are detected, so "70,516.88",
// "1.000,5" and "12%" are accepted.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return finite(f)
	}
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	raw = strings.ReplaceAll(raw, " ", "")

	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	var dec, thou string
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec, thou = ",", "."
		} else {
			dec, thou = ".", ","
		}
	case cpos >= 0:
		// a single comma followed by anything but a 3-digit group is a decimal comma
		if strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3 {
			dec = ","
		} else {
			thou = ","
		}
	default:
		dec = "."
	}
	if thou != "" {
		raw = strings.ReplaceAll(raw, thou, "")
	}
	if dec == "," {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// ParseFlag reads a binary target cell: numbers as-is, and yes/no or
// true/false spellings as 1 and 0.
func ParseFlag(s string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t":
		return 1, true
	case "no", "n", "false", "f":
		return 0, true
	}
	return ParseNumber(s)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
