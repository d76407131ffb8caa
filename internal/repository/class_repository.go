package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AureRaso/padel-club-api/internal/models"
)

const classColumns = `id, name, club_id, club_name, level, start_time, duration_minutes, days_of_week, max_participants, is_active, created_at, updated_at`

// ClassRepository handles reads over programmed classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a programmed class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ProgrammedClass, error) {
	query := fmt.Sprintf(`SELECT %s FROM programmed_classes WHERE id = $1`, classColumns)
	var cls models.ProgrammedClass
	if err := r.db.GetContext(ctx, &cls, query, id); err != nil {
		return nil, err
	}
	return &cls, nil
}

// Occurrence returns the class with live availability for the given date.
func (r *ClassRepository) Occurrence(ctx context.Context, classID string, date time.Time) (*models.ClassOccurrence, error) {
	cls, err := r.FindByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	count, err := r.CountActiveParticipants(ctx, classID, date)
	if err != nil {
		return nil, err
	}
	available := cls.MaxParticipants - count
	if available < 0 {
		available = 0
	}
	return &models.ClassOccurrence{
		ProgrammedClass:    *cls,
		Date:               date,
		ActiveParticipants: count,
		AvailableSpots:     available,
	}, nil
}

// CountActiveParticipants counts participants occupying a spot on the given
// date. Participants with a confirmed absence for that date do not count.
func (r *ClassRepository) CountActiveParticipants(ctx context.Context, classID string, date time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM class_participants
        WHERE class_id = $1 AND status = $2
        AND (absence_confirmed_for_date IS NULL OR absence_confirmed_for_date <> $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, models.ParticipantStatusActive, date); err != nil {
		return 0, fmt.Errorf("count class participants: %w", err)
	}
	return count, nil
}
