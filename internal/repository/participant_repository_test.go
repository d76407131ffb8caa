package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AureRaso/padel-club-api/internal/models"
)

func newParticipantRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestParticipantRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newParticipantRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM class_participants`).
		WithArgs("class-1", "enr-1", models.ParticipantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActive(context.Background(), "class-1", "enr-1")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryExistsActiveNoRows(t *testing.T) {
	db, mock, cleanup := newParticipantRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM class_participants`).
		WithArgs("class-1", "enr-1", models.ParticipantStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsActive(context.Background(), "class-1", "enr-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestParticipantRepositoryConfirmAbsence(t *testing.T) {
	db, mock, cleanup := newParticipantRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	date := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE class_participants\s+SET absence_confirmed_for_date`).
		WithArgs("part-1", date, sqlmock.AnyArg(), models.ParticipantStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ConfirmAbsence(context.Background(), "part-1", date))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantRepositoryConfirmAttendanceMissing(t *testing.T) {
	db, mock, cleanup := newParticipantRepoMock(t)
	defer cleanup()
	repo := NewParticipantRepository(db)

	date := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE class_participants\s+SET attendance_confirmed_for_date`).
		WithArgs("part-404", date, sqlmock.AnyArg(), models.ParticipantStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConfirmAttendance(context.Background(), "part-404", date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
