package models

import "time"

// EnrollmentStatus represents the lifecycle of a student enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusInactive EnrollmentStatus = "inactive"
)

// StudentEnrollment captures a student's membership within a club. Waitlist
// actions require an active enrollment in the class's club.
type StudentEnrollment struct {
	ID        string           `db:"id" json:"id"`
	ClubID    string           `db:"club_id" json:"club_id"`
	UserID    *string          `db:"user_id" json:"user_id,omitempty"`
	Email     string           `db:"email" json:"email"`
	FullName  string           `db:"full_name" json:"full_name"`
	Phone     *string          `db:"phone" json:"phone,omitempty"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}
