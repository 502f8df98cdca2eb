package tutor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"
)

const zeroDuration = "0 minutes"

// FormatMinutes renders a duration in minutes as "H hours M minutes" (or "M minutes" under an hour).
// Anything that is not a non-negative whole number of minutes renders as "0 minutes".
func FormatMinutes(value interface{}) string {
	n, ok := toMinutes(value)
	if !ok || n < 0 {
		return zeroDuration
	}
	if h := n / 60; h > 0 {
		return fmt.Sprintf("%d hours %d minutes", h, n%60)
	}
	return fmt.Sprintf("%d minutes", n)
}

func toMinutes(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), v <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	case float32:
		return floatMinutes(float64(v))
	case float64:
		return floatMinutes(v)
	case null.Int:
		return int64(v.Int), v.Valid
	case *null.Int:
		if v == nil {
			return 0, false
		}
		return int64(v.Int), v.Valid
	case string:
		return parseMinutes(v)
	case fmt.Stringer:
		return parseMinutes(v.String())
	}
	return 0, false
}

func floatMinutes(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func parseMinutes(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}
