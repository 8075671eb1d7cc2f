package models

import (
	"regexp"
	"strings"
	"time"
)

// Record is one booking row mirrored from the remote site. Confirmed orders
// and pending reservations share this shape; they live in separate stores.
type Record struct {
	ExternalID  int64  `db:"external_id" json:"external_id"`
	Venue       string `db:"venue" json:"venue"`
	HolderName  string `db:"holder_name" json:"holder_name"`
	HolderPhone string `db:"holder_phone" json:"holder_phone"`
	Date        string `db:"date" json:"date"` // YYYY-MM-DD
	TimeSlot    string `db:"time_slot" json:"time_slot"`
}

// DateLayout is the calendar date format used throughout the mirror.
const DateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^\d{11}$`)

// Slots splits the composite time value of a confirmed order into individual
// slots. Pending reservations carry a single hour value and yield one slot.
func (r Record) Slots() []string {
	parts := strings.Split(r.TimeSlot, ";")
	slots := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			slots = append(slots, s)
		}
	}
	return slots
}

// ParseDate parses the record's calendar date.
func (r Record) ParseDate() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// ValidPhone reports whether a user-supplied phone number is acceptable:
// exactly 11 digits. Empty is allowed; the booking service fills a
// placeholder.
func ValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phonePattern.MatchString(phone)
}
