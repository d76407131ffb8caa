package models

import "time"

// WaitlistStatus represents the lifecycle of a waitlist entry. pending is the
// only non-terminal status; transitions are one-way.
type WaitlistStatus string

// Possible waitlist statuses.
const (
	WaitlistStatusPending  WaitlistStatus = "pending"
	WaitlistStatusAccepted WaitlistStatus = "accepted"
	WaitlistStatusRejected WaitlistStatus = "rejected"
	WaitlistStatusExpired  WaitlistStatus = "expired"
)

// Terminal reports whether no further transition is permitted.
func (s WaitlistStatus) Terminal() bool {
	switch s {
	case WaitlistStatusAccepted, WaitlistStatusRejected, WaitlistStatusExpired:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is a supported value.
func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistStatusPending, WaitlistStatusAccepted, WaitlistStatusRejected, WaitlistStatusExpired:
		return true
	default:
		return false
	}
}

// WaitlistEntry represents a request to join a class occurrence when a spot
// opens. At most one pending entry exists per (class, date, enrollment).
type WaitlistEntry struct {
	ID           string         `db:"id" json:"id"`
	ClassID      string         `db:"class_id" json:"class_id"`
	ClassDate    time.Time      `db:"class_date" json:"class_date"`
	EnrollmentID string         `db:"enrollment_id" json:"enrollment_id"`
	Status       WaitlistStatus `db:"status" json:"status"`
	RequestedAt  time.Time      `db:"requested_at" json:"requested_at"`
	AcceptedBy   *string        `db:"accepted_by" json:"accepted_by,omitempty"`
	AcceptedAt   *time.Time     `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedBy   *string        `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedAt   *time.Time     `db:"rejected_at" json:"rejected_at,omitempty"`
	Notes        *string        `db:"notes" json:"notes,omitempty"`
}

// WaitlistEntryDetail enriches an entry with student and class display info.
// Class columns are nullable: the join is fail-open so an entry whose class
// row is missing is still surfaced.
type WaitlistEntryDetail struct {
	WaitlistEntry
	StudentName     string  `db:"student_name" json:"student_name"`
	StudentEmail    string  `db:"student_email" json:"student_email"`
	StudentPhone    *string `db:"student_phone" json:"student_phone,omitempty"`
	ClassName       *string `db:"class_name" json:"class_name,omitempty"`
	ClubName        *string `db:"club_name" json:"club_name,omitempty"`
	StartTime       *string `db:"class_start_time" json:"class_start_time,omitempty"`
	DurationMinutes *int    `db:"class_duration_minutes" json:"class_duration_minutes,omitempty"`
}

// HasClassInfo reports whether the joined class columns were present.
func (d *WaitlistEntryDetail) HasClassInfo() bool {
	return d.ClassName != nil && d.StartTime != nil && d.DurationMinutes != nil
}

// OccurrenceStart resolves the start of the entry's occurrence from the
// joined class columns. ok is false when class info is missing.
func (d *WaitlistEntryDetail) OccurrenceStart() (time.Time, bool) {
	if !d.HasClassInfo() {
		return time.Time{}, false
	}
	cls := ProgrammedClass{StartTime: *d.StartTime, DurationMinutes: *d.DurationMinutes}
	start, err := cls.OccurrenceStart(d.ClassDate)
	if err != nil {
		return time.Time{}, false
	}
	return start, true
}

// OccurrenceEnd resolves the end of the entry's occurrence.
func (d *WaitlistEntryDetail) OccurrenceEnd() (time.Time, bool) {
	start, ok := d.OccurrenceStart()
	if !ok {
		return time.Time{}, false
	}
	return start.Add(time.Duration(*d.DurationMinutes) * time.Minute), true
}
