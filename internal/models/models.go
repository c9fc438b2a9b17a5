package models

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the wire format of timestamps: local time without a zone.
const DateTimeLayout = "2006-01-02T15:04:05"

// Timestamp marshals as DateTimeLayout in the server's local zone. Inputs with
// an explicit offset (RFC 3339) are accepted too.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Local().Format(DateTimeLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp accepts DateTimeLayout (optionally with fractional seconds or
// without seconds) and RFC 3339.
func ParseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts, nil
	}
	for _, layout := range []string{DateTimeLayout, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04"} {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, expected %s", raw, DateTimeLayout)
}

// FormatTimestamp renders t the way error messages and responses show it.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(DateTimeLayout)
}
