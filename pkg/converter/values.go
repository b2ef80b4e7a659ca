// pkg/converter/values.go
package converter

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the text layout used when rendering time values.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	// ErrNullValue is returned when a NULL value is asked for a typed conversion
	ErrNullValue = errors.New("null value")
	// ErrConversion wraps every failed typed conversion
	ErrConversion = errors.New("conversion failed")
)

// IsNull checks if a value should be treated as NULL
func IsNull(value interface{}) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case *string:
		return v == nil
	case *time.Time:
		return v == nil
	case driver.Valuer:
		val, err := v.Value()
		return err == nil && val == nil
	case float64:
		return math.IsNaN(v)
	}

	return false
}

// FormatValue renders a scanned database value in its natural textual form.
// NULL renders as the empty string. The same rendering is used for CSV
// output and as the canonical input to hashing.
func FormatValue(value interface{}) string {
	if IsNull(value) {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case *string:
		return *v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return formatTime(v)
	case *time.Time:
		return formatTime(*v)
	case driver.Valuer:
		val, err := v.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return FormatValue(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatTime drops the time part for midnight values so DATE columns
// render as dates
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.999999")
	}
	return t.Format(TimestampLayout)
}

// ToTime attempts to convert a value to time.Time. Text values are parsed
// with layout only.
func ToTime(value interface{}, layout string) (time.Time, error) {
	if IsNull(value) {
		return time.Time{}, ErrNullValue
	}

	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		return *v, nil
	case string:
		return parseTimeText(v, layout)
	case []byte:
		return parseTimeText(string(v), layout)
	case *string:
		return parseTimeText(*v, layout)
	default:
		return time.Time{}, fmt.Errorf("%w: cannot convert %T to time", ErrConversion, value)
	}
}

func parseTimeText(s, layout string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, ErrNullValue
	}

	t, err := time.Parse(layout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse time from '%s': %w", ErrConversion, cleaned, err)
	}
	return t, nil
}
