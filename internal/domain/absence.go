package domain

import "time"

// SessionKey identifies one class meeting.
type SessionKey struct {
	CourseCode string
	Date       time.Time
	TimeSlot   string
}

// DateString renders the session date in ISO form.
func (k SessionKey) DateString() string {
	return k.Date.Format("2006-01-02")
}

type Absence struct {
	ID         string
	CourseCode string
	Date       time.Time
	TimeSlot   string
	RollNo     string
}
