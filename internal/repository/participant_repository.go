package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AureRaso/padel-club-api/internal/models"
)

const participantColumns = `id, class_id, enrollment_id, status, is_substitute, joined_from_waitlist_at, attendance_confirmed_for_date, absence_confirmed_for_date, created_at, updated_at`

// ParticipantRepository handles persistence of class participants.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs the repository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// FindByID returns a participant by its ID.
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*models.ClassParticipant, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_participants WHERE id = $1`, participantColumns)
	var participant models.ClassParticipant
	if err := r.db.GetContext(ctx, &participant, query, id); err != nil {
		return nil, err
	}
	return &participant, nil
}

// ExistsActive checks whether an enrollment is already an active participant
// of the class.
func (r *ParticipantRepository) ExistsActive(ctx context.Context, classID, enrollmentID string) (bool, error) {
	const query = `SELECT 1 FROM class_participants WHERE class_id = $1 AND enrollment_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, classID, enrollmentID, models.ParticipantStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active participant: %w", err)
	}
	return true, nil
}

// ConfirmAttendance records that the participant will attend the occurrence
// on the given date.
func (r *ParticipantRepository) ConfirmAttendance(ctx context.Context, id string, date time.Time) error {
	const query = `UPDATE class_participants
        SET attendance_confirmed_for_date = $2, absence_confirmed_for_date = NULL, updated_at = $3
        WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, date, time.Now().UTC(), models.ParticipantStatusActive)
	if err != nil {
		return fmt.Errorf("confirm attendance: %w", err)
	}
	return requireOneRow(res, "confirm attendance")
}

// ConfirmAbsence records that the participant will miss the occurrence on the
// given date, freeing their spot for that date.
func (r *ParticipantRepository) ConfirmAbsence(ctx context.Context, id string, date time.Time) error {
	const query = `UPDATE class_participants
        SET absence_confirmed_for_date = $2, updated_at = $3
        WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, date, time.Now().UTC(), models.ParticipantStatusActive)
	if err != nil {
		return fmt.Errorf("confirm absence: %w", err)
	}
	return requireOneRow(res, "confirm absence")
}

func requireOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
