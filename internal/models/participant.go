package models

import "time"

// ParticipantStatus represents membership state within a class.
type ParticipantStatus string

// Possible participant statuses.
const (
	ParticipantStatusActive  ParticipantStatus = "active"
	ParticipantStatusRemoved ParticipantStatus = "removed"
)

// ClassParticipant represents a student's membership in a class. Substitutes
// are participants admitted through the waitlist for a single occurrence.
type ClassParticipant struct {
	ID                         string            `db:"id" json:"id"`
	ClassID                    string            `db:"class_id" json:"class_id"`
	EnrollmentID               string            `db:"enrollment_id" json:"enrollment_id"`
	Status                     ParticipantStatus `db:"status" json:"status"`
	IsSubstitute               bool              `db:"is_substitute" json:"is_substitute"`
	JoinedFromWaitlistAt       *time.Time        `db:"joined_from_waitlist_at" json:"joined_from_waitlist_at,omitempty"`
	AttendanceConfirmedForDate *time.Time        `db:"attendance_confirmed_for_date" json:"attendance_confirmed_for_date,omitempty"`
	AbsenceConfirmedForDate    *time.Time        `db:"absence_confirmed_for_date" json:"absence_confirmed_for_date,omitempty"`
	CreatedAt                  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time         `db:"updated_at" json:"updated_at"`
}

// CountsTowardCapacity reports whether the participant occupies a spot on the
// given occurrence date. A confirmed absence frees the spot for that date only.
func (p *ClassParticipant) CountsTowardCapacity(date time.Time) bool {
	if p.Status != ParticipantStatusActive {
		return false
	}
	if p.AbsenceConfirmedForDate != nil && sameDay(*p.AbsenceConfirmedForDate, date) {
		return false
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
