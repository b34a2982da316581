package sqliteconn

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// createKey joins parts into a deterministic cache key separated by ':'.
// Common id types are formatted without going through fmt.
func createKey(parts ...any) string {
	var value strings.Builder
	for i, item := range parts {
		if i > 0 {
			value.WriteByte(':')
		}
		switch v := item.(type) {
		case int:
			value.WriteString(strconv.Itoa(v))
		case int64:
			value.WriteString(strconv.FormatInt(v, 10))
		case int32:
			value.WriteString(strconv.FormatInt(int64(v), 10))
		case uint64:
			value.WriteString(strconv.FormatUint(v, 10))
		case string:
			value.WriteString(v)
		case []byte:
			value.WriteString(strconv.Quote(string(v)))
		case time.Time:
			value.WriteString(v.UTC().Format(time.RFC3339Nano))
		case float64:
			value.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		case fmt.Stringer:
			value.WriteString(v.String())
		default:
			fmt.Fprintf(&value, "%v", v)
		}
	}
	return value.String()
}
