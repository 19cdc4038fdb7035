package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02" // calendar date, no zone
	clockLayout = "15:04"      // time of day
)

// Date is a calendar date with no time-of-day component. It marshals to the
// "YYYY-MM-DD" form used on the wire and in persisted task payloads.
type Date struct {
	time.Time
}

// ParseDate builds a Date from its "YYYY-MM-DD" text form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: bad date %q (want YYYY-MM-DD)", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Clock is an optional time of day ("HH:MM", 24-hour).
type Clock struct {
	time.Time
}

// ParseClock builds a Clock from its "HH:MM" text form.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: bad time %q (want HH:MM)", ErrValidation, s)
	}
	return Clock{Time: t}, nil
}

func (c Clock) String() string {
	if c.IsZero() {
		return ""
	}
	return c.Format(clockLayout)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + c.Format(clockLayout) + `"`), nil
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" {
		c.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	c.Time = t
	return nil
}
