package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/db"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/dberrors"
	"github.com/admissions/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var applicationColumns = []string{
	"id", "student_id", "course_id", "status", "personal_statement", "additional_info",
	"date_of_birth", "nationality", "passport_number", "address", "city", "country", "postal_code",
	"previous_education", "gpa", "english_proficiency", "reference_contact",
	"priority", "notes", "admin_comments", "assigned_to", "created_at", "updated_at", "submitted_at",
}

// ApplicationRepository handles 'applications' and 'application_status_history'.
// Every state change is conditional on the status the caller observed.
type ApplicationRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(conn db.DBTX) *ApplicationRepository {
	return &ApplicationRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanApplication(row pgx.Row, extra ...interface{}) (*models.Application, error) {
	var a models.Application
	dest := []interface{}{
		&a.ID, &a.StudentID, &a.CourseID, &a.Status, &a.PersonalStatement, &a.AdditionalInfo,
		&a.DateOfBirth, &a.Nationality, &a.PassportNumber, &a.Address, &a.City, &a.Country, &a.PostalCode,
		&a.PreviousEducation, &a.GPA, &a.EnglishProficiency, &a.ReferenceContact,
		&a.Priority, &a.Notes, &a.AdminComments, &a.AssignedTo, &a.CreatedAt, &a.UpdatedAt, &a.SubmittedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func returningApplication() string {
	return "RETURNING " + strings.Join(applicationColumns, ", ")
}

// CreateDraft inserts a DRAFT for (student, course). When one already exists for the pair
// the stored application is returned with created=false.
func (r *ApplicationRepository) CreateDraft(ctx context.Context, app *models.Application) (*models.Application, bool, error) {
	now := time.Now()
	sql, args, err := r.sb.Insert("applications").
		Columns("student_id", "course_id", "status", "date_of_birth", "nationality", "passport_number",
			"address", "city", "country", "postal_code", "previous_education", "gpa",
			"english_proficiency", "reference_contact", "priority", "created_at", "updated_at").
		Values(app.StudentID, app.CourseID, models.StatusDraft, app.DateOfBirth, app.Nationality, app.PassportNumber,
			app.Address, app.City, app.Country, app.PostalCode, app.PreviousEducation, app.GPA,
			app.EnglishProficiency, app.ReferenceContact, models.PriorityNormal, now, now).
		Suffix("ON CONFLICT (student_id, course_id) DO NOTHING " + returningApplication()).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build create application query: %w", err)
	}

	created, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	switch {
	case err == nil:
		return created, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := r.GetByStudentAndCourse(ctx, app.StudentID, app.CourseID)
		return existing, false, err
	case dberrors.IsForeignKeyViolation(err):
		return nil, false, apperrors.ErrCourseNotFound
	default:
		logger.Error().Err(err).Int64("studentID", app.StudentID).Int64("courseID", app.CourseID).Msg("Error creating application")
		return nil, false, fmt.Errorf("error creating application: %w", err)
	}
}

func (r *ApplicationRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Application, error) {
	sql, args, err := r.sb.Select(applicationColumns...).From("applications").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}
	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("error retrieving application: %w", err)
	}
	return app, nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByStudentAndCourse retrieves the single application of a student for a course
func (r *ApplicationRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Application, error) {
	return r.getOne(ctx, squirrel.Eq{"student_id": studentID, "course_id": courseID})
}

// UpdateDraft applies patch only while the application is still DRAFT
func (r *ApplicationRepository) UpdateDraft(ctx context.Context, id int64, patch models.ApplicationPatch) (*models.Application, error) {
	cols := patch.Columns()
	cols["updated_at"] = time.Now()

	sql, args, err := r.sb.Update("applications").
		SetMap(cols).
		Where(squirrel.Eq{"id": id, "status": models.StatusDraft}).
		Suffix(returningApplication()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update draft query: %w", err)
	}

	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidStateError("application is no longer a draft")
		}
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error updating draft")
		return nil, fmt.Errorf("error updating application: %w", err)
	}
	return app, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, change *models.StatusChange) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO application_status_history
			(application_id, from_status, to_status, changed_by, changed_by_role, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		change.ApplicationID, change.FromStatus, change.ToStatus, change.ChangedBy, change.ChangedByRole, change.Notes, change.CreatedAt,
	).Scan(&change.ID)
	if err != nil {
		return fmt.Errorf("error recording status change: %w", err)
	}
	return nil
}

// MarkSubmitted moves a DRAFT to SUBMITTED and records the change in one transaction.
// submitted_at keeps its first value. A concurrent submit finds no DRAFT row and fails with InvalidState.
func (r *ApplicationRepository) MarkSubmitted(ctx context.Context, change *models.StatusChange) (*models.Application, error) {
	var app *models.Application
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		app, err = scanApplication(tx.QueryRow(ctx, `
			UPDATE applications
			SET status = $2, submitted_at = COALESCE(submitted_at, $3), updated_at = $3
			WHERE id = $1 AND status = $4
			`+returningApplication(),
			change.ApplicationID, models.StatusSubmitted, change.CreatedAt, models.StatusDraft,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewInvalidStateError("application has already been submitted")
			}
			return fmt.Errorf("error submitting application: %w", err)
		}
		return insertHistory(ctx, tx, change)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ApplyTransition performs a staff status change conditional on change.FromStatus,
// appending commentLine to admin_comments and recording history in the same transaction.
func (r *ApplicationRepository) ApplyTransition(ctx context.Context, change *models.StatusChange, commentLine string) (*models.Application, error) {
	var app *models.Application
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		app, err = scanApplication(tx.QueryRow(ctx, `
			UPDATE applications
			SET status = $2,
			    admin_comments = CASE
			        WHEN $3::text = '' THEN admin_comments
			        WHEN admin_comments = '' THEN $3::text
			        ELSE admin_comments || E'\n' || $3::text
			    END,
			    updated_at = $4
			WHERE id = $1 AND status = $5
			`+returningApplication(),
			change.ApplicationID, change.ToStatus, commentLine, change.CreatedAt, change.FromStatus,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewInvalidStateError("application status changed concurrently; reload and retry")
			}
			return fmt.Errorf("error updating application status: %w", err)
		}
		return insertHistory(ctx, tx, change)
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Assign sets reviewer and priority on a submitted application
func (r *ApplicationRepository) Assign(ctx context.Context, id int64, assignedTo *int64, priority models.Priority) (*models.Application, error) {
	q := r.sb.Update("applications").
		Set("assigned_to", assignedTo).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": models.StatusDraft})
	if priority != "" {
		q = q.Set("priority", priority)
	}

	sql, args, err := q.Suffix(returningApplication()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build assign query: %w", err)
	}

	app, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidStateError("draft applications cannot be assigned")
		}
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error assigning application: %w", err)
	}
	return app, nil
}

// List returns a page of applications matching filter, newest first, and the total match count
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error) {
	q := r.sb.Select(applicationColumns...).Column("COUNT(*) OVER()").From("applications")
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.CourseID != 0 {
		q = q.Where(squirrel.Eq{"course_id": filter.CourseID})
	}
	if filter.AssignedTo != 0 {
		q = q.Where(squirrel.Eq{"assigned_to": filter.AssignedTo})
	}
	if filter.StudentID != 0 {
		q = q.Where(squirrel.Eq{"student_id": filter.StudentID})
	}
	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list applications query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	var (
		apps  []*models.Application
		total int64
	)
	for rows.Next() {
		app, err := scanApplication(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, total, rows.Err()
}

// CountByStatus returns the number of applications in each status; absent statuses count zero
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("error counting applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ApplicationStatus]int64, len(models.AllApplicationStatuses))
	for _, s := range models.AllApplicationStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status models.ApplicationStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("error scanning status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListHistory returns the recorded status changes of an application, oldest first
func (r *ApplicationRepository) ListHistory(ctx context.Context, applicationID int64) ([]*models.StatusChange, error) {
	sql, args, err := r.sb.Select("id", "application_id", "from_status", "to_status", "changed_by", "changed_by_role", "notes", "created_at").
		From("application_status_history").
		Where(squirrel.Eq{"application_id": applicationID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing history: %w", err)
	}
	defer rows.Close()

	var history []*models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		if err := rows.Scan(&c.ID, &c.ApplicationID, &c.FromStatus, &c.ToStatus, &c.ChangedBy, &c.ChangedByRole, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning history: %w", err)
		}
		history = append(history, &c)
	}
	return history, rows.Err()
}
