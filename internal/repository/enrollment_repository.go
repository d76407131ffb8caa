package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/AureRaso/padel-club-api/internal/models"
)

const enrollmentColumns = `id, club_id, user_id, email, full_name, phone, status, created_at, updated_at`

// EnrollmentRepository handles reads over student enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.StudentEnrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.StudentEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindActiveByEmailAndClub returns the caller's active enrollment scoped to a
// club, or nil when none exists.
func (r *EnrollmentRepository) FindActiveByEmailAndClub(ctx context.Context, email, clubID string) (*models.StudentEnrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_enrollments
        WHERE lower(email) = lower($1) AND club_id = $2 AND status = $3 LIMIT 1`, enrollmentColumns)
	var enrollment models.StudentEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, email, clubID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find enrollment by email and club: %w", err)
	}
	return &enrollment, nil
}

// ListByEmail returns all of a user's enrollments across clubs, any status.
func (r *EnrollmentRepository) ListByEmail(ctx context.Context, email string) ([]models.StudentEnrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_enrollments WHERE lower(email) = lower($1)`, enrollmentColumns)
	var enrollments []models.StudentEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, email); err != nil {
		return nil, fmt.Errorf("list enrollments by email: %w", err)
	}
	return enrollments, nil
}

// ListByIDs returns enrollments matching the given IDs.
func (r *EnrollmentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.StudentEnrollment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM student_enrollments WHERE id IN (%s)`,
		enrollmentColumns, strings.Join(placeholders, ","))
	var enrollments []models.StudentEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments by ids: %w", err)
	}
	return enrollments, nil
}
