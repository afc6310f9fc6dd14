package eventlog

import (
	"math"
	"strconv"
	"strings"
)

// maxFloatSeconds is 2^63 milliseconds expressed in seconds.
const maxFloatSeconds = (1 << 63) / 1000.0

// secondsToMillis converts decimal seconds to whole milliseconds, truncating
// any sub-millisecond digits. Plain decimals are converted digit by digit so
// values like 61.999 yield exactly 61999; exponent forms go through float
// parsing. Negative, non-finite, and unparseable values are rejected.
func secondsToMillis(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, false
	}

	if whole, frac, ok := splitDecimal(s); ok {
		var secs int64
		if whole != "" {
			v, err := strconv.ParseInt(whole, 10, 64)
			if err != nil {
				return 0, false
			}
			secs = v
		}
		frac = (frac + "000")[:3]
		ms, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
		if secs > (math.MaxInt64-ms)/1000 {
			return 0, false
		}
		return secs*1000 + ms, true
	}

	// float64(math.MaxInt64) rounds up to 2^63, so the bound must be strict.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= maxFloatSeconds {
		return 0, false
	}
	return int64(v * 1000), true
}

// splitDecimal splits digits[.digits]; ok is false for anything else.
func splitDecimal(s string) (whole, frac string, ok bool) {
	whole, frac, _ = strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return "", "", false
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", "", false
			}
		}
	}
	return whole, frac, true
}
