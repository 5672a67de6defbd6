package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"rendezvous/errors"
)

// TimestampLayout is the wire format of chat timestamps: a local date-time
// without zone, fractional seconds only when present.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a point in time carried by chat frames (dataEnviament,
// originalTimestamp, timestamp). Zone-less values are read in server local time.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the local layout, RFC 3339 and epoch milliseconds.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if data[0] != '"' {
		millis, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", errors.ErrInvalidTime, data)
		}
		t.Time = time.UnixMilli(millis)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func ParseTimestamp(raw string) (Timestamp, error) {
	if raw == "" {
		return Timestamp{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return Timestamp{Time: parsed}, nil
	}
	parsed, err := time.ParseInLocation(TimestampLayout, raw, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q", errors.ErrInvalidTime, raw)
	}
	return Timestamp{Time: parsed}, nil
}
