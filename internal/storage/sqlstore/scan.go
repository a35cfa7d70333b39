package sqlstore

import (
	"fmt"
	"time"
)

var textTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// scanTime accepts the timestamp column as a native time or as text, since
// drivers differ in whether they decode DATETIME columns.
type scanTime struct {
	t *time.Time
}

// Scan implements sql.Scanner.
func (s scanTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.t = v
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case nil:
		return fmt.Errorf("timestamp is NULL")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (s scanTime) parse(text string) error {
	for _, layout := range textTimeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			*s.t = parsed
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", text)
}
