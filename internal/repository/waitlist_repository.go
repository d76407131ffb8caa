package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AureRaso/padel-club-api/internal/models"
	appErrors "github.com/AureRaso/padel-club-api/pkg/errors"
)

const waitlistColumns = `id, class_id, class_date, enrollment_id, status, requested_at, accepted_by, accepted_at, rejected_by, rejected_at, notes`

const waitlistDetailQuery = `SELECT w.id, w.class_id, w.class_date, w.enrollment_id, w.status, w.requested_at,
        w.accepted_by, w.accepted_at, w.rejected_by, w.rejected_at, w.notes,
        s.full_name AS student_name, s.email AS student_email, s.phone AS student_phone,
        c.name AS class_name, c.club_name AS club_name, c.start_time AS class_start_time, c.duration_minutes AS class_duration_minutes
        FROM class_waitlist w
        JOIN student_enrollments s ON s.id = w.enrollment_id
        LEFT JOIN programmed_classes c ON c.id = w.class_id`

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (class_id, class_date, enrollment_id) WHERE status = 'pending'.
const uniqueViolation = "23505"

// WaitlistRepository handles persistence of waitlist entries, including the
// transactional accept and reject workflows.
type WaitlistRepository struct {
	db *sqlx.DB
}

// NewWaitlistRepository constructs the repository.
func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Insert creates a pending entry. A concurrent duplicate for the same
// (class, date, enrollment) key surfaces as ErrDuplicateEntry so the caller
// can treat it as a safe no-op.
func (r *WaitlistRepository) Insert(ctx context.Context, classID string, classDate time.Time, enrollmentID string) (*models.WaitlistEntry, error) {
	entry := &models.WaitlistEntry{
		ID:           uuid.NewString(),
		ClassID:      classID,
		ClassDate:    classDate,
		EnrollmentID: enrollmentID,
		Status:       models.WaitlistStatusPending,
		RequestedAt:  time.Now().UTC(),
	}
	const query = `INSERT INTO class_waitlist (id, class_id, class_date, enrollment_id, status, requested_at)
        VALUES (:id, :class_id, :class_date, :enrollment_id, :status, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, appErrors.Wrap(err, appErrors.ErrDuplicateEntry.Code, appErrors.ErrDuplicateEntry.Status, appErrors.ErrDuplicateEntry.Message)
		}
		return nil, fmt.Errorf("insert waitlist entry: %w", err)
	}
	return entry, nil
}

// FindByID returns an entry by its ID.
func (r *WaitlistRepository) FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_waitlist WHERE id = $1`, waitlistColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByClassAndDate returns entries for an occurrence ordered by request
// time ascending, so the waitlist is served first come first served.
func (r *WaitlistRepository) ListByClassAndDate(ctx context.Context, classID string, classDate time.Time, status models.WaitlistStatus) ([]models.WaitlistEntryDetail, error) {
	query := waitlistDetailQuery + ` WHERE w.class_id = $1 AND w.class_date = $2`
	args := []interface{}{classID, classDate}
	if status != "" {
		query += ` AND w.status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY w.requested_at ASC`
	var entries []models.WaitlistEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list waitlist by class and date: %w", err)
	}
	return entries, nil
}

// ListByEnrollments returns entries belonging to any of the given
// enrollments, joined with class display info. The class join is fail-open.
func (r *WaitlistRepository) ListByEnrollments(ctx context.Context, enrollmentIDs []string) ([]models.WaitlistEntryDetail, error) {
	if len(enrollmentIDs) == 0 {
		return nil, nil
	}
	query := waitlistDetailQuery + ` WHERE w.enrollment_id = ANY($1) ORDER BY w.requested_at DESC`
	var entries []models.WaitlistEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, pq.Array(enrollmentIDs)); err != nil {
		return nil, fmt.Errorf("list waitlist by enrollments: %w", err)
	}
	return entries, nil
}

// HasOpenEntry returns the caller's pending or accepted entry for the
// occurrence, or nil when there is none.
func (r *WaitlistRepository) HasOpenEntry(ctx context.Context, classID string, classDate time.Time, enrollmentID string) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_waitlist
        WHERE class_id = $1 AND class_date = $2 AND enrollment_id = $3 AND status IN ($4, $5)
        ORDER BY requested_at DESC LIMIT 1`, waitlistColumns)
	var entry models.WaitlistEntry
	err := r.db.GetContext(ctx, &entry, query, classID, classDate, enrollmentID,
		models.WaitlistStatusPending, models.WaitlistStatusAccepted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find open waitlist entry: %w", err)
	}
	return &entry, nil
}

// UpdateStatus performs a terminal transition. Entries that already reached
// a terminal status are never resurrected; such calls fail with
// ErrTerminalEntry.
func (r *WaitlistRepository) UpdateStatus(ctx context.Context, id string, status models.WaitlistStatus, actorID string, ts time.Time) error {
	if !status.Terminal() {
		return appErrors.Clone(appErrors.ErrValidation, "waitlist status transition must be terminal")
	}
	var query string
	switch status {
	case models.WaitlistStatusAccepted:
		query = `UPDATE class_waitlist SET status = $2, accepted_by = $3, accepted_at = $4 WHERE id = $1 AND status = $5`
	case models.WaitlistStatusRejected:
		query = `UPDATE class_waitlist SET status = $2, rejected_by = $3, rejected_at = $4 WHERE id = $1 AND status = $5`
	default:
		query = `UPDATE class_waitlist SET status = $2, rejected_by = $3, rejected_at = $4 WHERE id = $1 AND status = $5`
	}
	res, err := r.db.ExecContext(ctx, query, id, status, actorID, ts, models.WaitlistStatusPending)
	if err != nil {
		return fmt.Errorf("update waitlist status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update waitlist status rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrTerminalEntry, "")
	}
	return nil
}

// AcceptParams identifies the entry to accept and the acting admin.
type AcceptParams struct {
	WaitlistID string
	ClassID    string
	ClassDate  time.Time
	AcceptedBy string
}

// AcceptResult reports the outcome of an accepted entry.
type AcceptResult struct {
	Entry       models.WaitlistEntry
	Participant models.ClassParticipant
	Expired     []models.WaitlistEntryDetail
	Class       models.ProgrammedClass
	Student     models.StudentEnrollment
}

// AcceptEntry runs the capacity-guarded accept workflow in a single
// transaction. The class row is locked first so concurrent accepts for the
// same class serialize and the capacity recount stays authoritative. Any
// failure rolls the whole workflow back.
func (r *WaitlistRepository) AcceptEntry(ctx context.Context, params AcceptParams) (*AcceptResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin accept waitlist entry: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := fmt.Sprintf(`SELECT %s FROM programmed_classes WHERE id = $1 FOR UPDATE`, classColumns)
	var cls models.ProgrammedClass
	if err := tx.GetContext(ctx, &cls, query, params.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, fmt.Errorf("lock class row: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM class_participants
        WHERE class_id = $1 AND status = $2
        AND (absence_confirmed_for_date IS NULL OR absence_confirmed_for_date <> $3)`
	var count int
	if err := tx.GetContext(ctx, &count, countQuery, params.ClassID, models.ParticipantStatusActive, params.ClassDate); err != nil {
		return nil, fmt.Errorf("recount class participants: %w", err)
	}
	if count >= cls.MaxParticipants {
		return nil, appErrors.Clone(appErrors.ErrClassFull, "")
	}

	query = fmt.Sprintf(`SELECT %s FROM class_waitlist WHERE id = $1 FOR UPDATE`, waitlistColumns)
	var entry models.WaitlistEntry
	if err := tx.GetContext(ctx, &entry, query, params.WaitlistID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "waitlist entry not found")
		}
		return nil, fmt.Errorf("lock waitlist entry: %w", err)
	}
	if entry.ClassID != params.ClassID || !entry.ClassDate.Equal(params.ClassDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "waitlist entry does not match class occurrence")
	}
	if entry.Status != models.WaitlistStatusPending {
		return nil, appErrors.Clone(appErrors.ErrTerminalEntry, "")
	}

	query = fmt.Sprintf(`SELECT %s FROM student_enrollments WHERE id = $1`, enrollmentColumns)
	var student models.StudentEnrollment
	if err := tx.GetContext(ctx, &student, query, entry.EnrollmentID); err != nil {
		return nil, fmt.Errorf("load waitlist enrollment: %w", err)
	}

	now := time.Now().UTC()
	participant := models.ClassParticipant{
		ID:                         uuid.NewString(),
		ClassID:                    params.ClassID,
		EnrollmentID:               entry.EnrollmentID,
		Status:                     models.ParticipantStatusActive,
		IsSubstitute:               true,
		JoinedFromWaitlistAt:       &now,
		AttendanceConfirmedForDate: &params.ClassDate,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	const insertParticipant = `INSERT INTO class_participants
        (id, class_id, enrollment_id, status, is_substitute, joined_from_waitlist_at, attendance_confirmed_for_date, created_at, updated_at)
        VALUES (:id, :class_id, :enrollment_id, :status, :is_substitute, :joined_from_waitlist_at, :attendance_confirmed_for_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertParticipant, participant); err != nil {
		return nil, fmt.Errorf("create class participant: %w", err)
	}

	const acceptQuery = `UPDATE class_waitlist SET status = $2, accepted_by = $3, accepted_at = $4 WHERE id = $1 AND status = $5`
	res, err := tx.ExecContext(ctx, acceptQuery, params.WaitlistID, models.WaitlistStatusAccepted, params.AcceptedBy, now, models.WaitlistStatusPending)
	if err != nil {
		return nil, fmt.Errorf("accept waitlist entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("accept waitlist entry rows affected: %w", err)
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrTerminalEntry, "")
	}
	entry.Status = models.WaitlistStatusAccepted
	entry.AcceptedBy = &params.AcceptedBy
	entry.AcceptedAt = &now

	// The expiring entries are read before mutation so their recipient info
	// survives for notifications.
	query = waitlistDetailQuery + ` WHERE w.class_id = $1 AND w.class_date = $2 AND w.status = $3 AND w.id <> $4 ORDER BY w.requested_at ASC`
	var expired []models.WaitlistEntryDetail
	if err := tx.SelectContext(ctx, &expired, query, params.ClassID, params.ClassDate, models.WaitlistStatusPending, params.WaitlistID); err != nil {
		return nil, fmt.Errorf("list sibling waitlist entries: %w", err)
	}

	if len(expired) > 0 {
		const expireQuery = `UPDATE class_waitlist SET status = $1
            WHERE class_id = $2 AND class_date = $3 AND status = $4 AND id <> $5`
		if _, err := tx.ExecContext(ctx, expireQuery, models.WaitlistStatusExpired, params.ClassID, params.ClassDate, models.WaitlistStatusPending, params.WaitlistID); err != nil {
			return nil, fmt.Errorf("expire sibling waitlist entries: %w", err)
		}
		for i := range expired {
			expired[i].Status = models.WaitlistStatusExpired
		}
	}

	classCtx := classContextFor(&cls, params.ClassDate)
	if err := insertNotificationEvent(ctx, tx, models.NotificationWaitlistAccepted, &entry, student.Email, student.FullName, student.Phone, classCtx); err != nil {
		return nil, err
	}
	for i := range expired {
		if err := insertNotificationEvent(ctx, tx, models.NotificationWaitlistExpired, &expired[i].WaitlistEntry, expired[i].StudentEmail, expired[i].StudentName, expired[i].StudentPhone, classCtx); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept waitlist entry: %w", err)
	}
	commit = true

	return &AcceptResult{
		Entry:       entry,
		Participant: participant,
		Expired:     expired,
		Class:       cls,
		Student:     student,
	}, nil
}

// RejectParams identifies the entry to reject and the acting admin.
type RejectParams struct {
	WaitlistID string
	RejectedBy string
	Notes      *string
}

// RejectEntry transitions a pending entry to rejected and records the outbox
// event in the same transaction. Siblings are untouched.
func (r *WaitlistRepository) RejectEntry(ctx context.Context, params RejectParams) (*models.WaitlistEntryDetail, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reject waitlist entry: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := waitlistDetailQuery + ` WHERE w.id = $1 FOR UPDATE OF w`
	var detail models.WaitlistEntryDetail
	if err := tx.GetContext(ctx, &detail, query, params.WaitlistID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "waitlist entry not found")
		}
		return nil, fmt.Errorf("lock waitlist entry: %w", err)
	}
	if detail.Status != models.WaitlistStatusPending {
		return nil, appErrors.Clone(appErrors.ErrTerminalEntry, "")
	}

	now := time.Now().UTC()
	const rejectQuery = `UPDATE class_waitlist SET status = $2, rejected_by = $3, rejected_at = $4, notes = COALESCE($5, notes) WHERE id = $1 AND status = $6`
	res, err := tx.ExecContext(ctx, rejectQuery, params.WaitlistID, models.WaitlistStatusRejected, params.RejectedBy, now, params.Notes, models.WaitlistStatusPending)
	if err != nil {
		return nil, fmt.Errorf("reject waitlist entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reject waitlist entry rows affected: %w", err)
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrTerminalEntry, "")
	}
	detail.Status = models.WaitlistStatusRejected
	detail.RejectedBy = &params.RejectedBy
	detail.RejectedAt = &now

	classCtx := models.ClassContext{ClassDate: detail.ClassDate.Format("2006-01-02")}
	if detail.ClassName != nil {
		classCtx.ClassName = *detail.ClassName
	}
	if detail.ClubName != nil {
		classCtx.ClubName = *detail.ClubName
	}
	if detail.StartTime != nil {
		classCtx.ClassTime = *detail.StartTime
	}
	if err := insertNotificationEvent(ctx, tx, models.NotificationWaitlistRejected, &detail.WaitlistEntry, detail.StudentEmail, detail.StudentName, detail.StudentPhone, classCtx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reject waitlist entry: %w", err)
	}
	commit = true

	return &detail, nil
}

func classContextFor(cls *models.ProgrammedClass, date time.Time) models.ClassContext {
	return models.ClassContext{
		ClassName: cls.Name,
		ClassDate: date.Format("2006-01-02"),
		ClassTime: cls.StartTime,
		ClubName:  cls.ClubName,
	}
}

func insertNotificationEvent(ctx context.Context, tx *sqlx.Tx, kind models.NotificationKind, entry *models.WaitlistEntry, email, name string, phone *string, classCtx models.ClassContext) error {
	payload, err := json.Marshal(classCtx)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	event := models.NotificationEvent{
		ID:             uuid.NewString(),
		Kind:           kind,
		WaitlistID:     entry.ID,
		ClassID:        entry.ClassID,
		ClassDate:      entry.ClassDate,
		RecipientEmail: email,
		RecipientName:  name,
		RecipientPhone: phone,
		Payload:        payload,
		Status:         models.NotificationStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	const query = `INSERT INTO notification_events
        (id, kind, waitlist_id, class_id, class_date, recipient_email, recipient_name, recipient_phone, payload, status, attempts, created_at)
        VALUES (:id, :kind, :waitlist_id, :class_id, :class_date, :recipient_email, :recipient_name, :recipient_phone, :payload, :status, :attempts, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert notification event: %w", err)
	}
	return nil
}
