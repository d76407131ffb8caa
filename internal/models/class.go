package models

import (
	"fmt"
	"time"
)

// ProgrammedClass represents a recurring scheduled class. A single calendar
// instance of it (class + date) is an occurrence.
type ProgrammedClass struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	ClubID          string    `db:"club_id" json:"club_id"`
	ClubName        string    `db:"club_name" json:"club_name"`
	Level           string    `db:"level" json:"level"`
	StartTime       string    `db:"start_time" json:"start_time"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	DaysOfWeek      string    `db:"days_of_week" json:"days_of_week"`
	MaxParticipants int       `db:"max_participants" json:"max_participants"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OccurrenceStart resolves the wall-clock start of the class on a given date.
// StartTime is stored as HH:MM.
func (c *ProgrammedClass) OccurrenceStart(date time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", c.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse class start time %q: %w", c.StartTime, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// OccurrenceEnd resolves the wall-clock end of the class on a given date.
func (c *ProgrammedClass) OccurrenceEnd(date time.Time) (time.Time, error) {
	start, err := c.OccurrenceStart(date)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(c.DurationMinutes) * time.Minute), nil
}

// ClassOccurrence is the read model for a single (class, date) instance
// including live availability.
type ClassOccurrence struct {
	ProgrammedClass
	Date               time.Time `json:"date"`
	ActiveParticipants int       `json:"active_participants"`
	AvailableSpots     int       `json:"available_spots"`
}
