package model

import (
	"fmt"
	"time"
)

// TimeLayout is the wire format for every timestamp the server emits:
// UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Timestamp wraps time.Time to pin the JSON representation to TimeLayout.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to the wire precision.
func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Millisecond)}
}

// NewTimestamp normalizes t to UTC wire precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// ParseTimestamp parses the wire format.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{t.UTC()}, nil
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimeLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", s)
	}
	parsed, err := ParseTimestamp(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
