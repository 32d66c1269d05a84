package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/db"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// CourseFilter narrows the course catalogue
type CourseFilter struct {
	SchoolID   int64
	Level      string
	Search     string
	ActiveOnly bool
}

// CatalogRepository serves schools, courses and form fields
type CatalogRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(conn db.DBTX) *CatalogRepository {
	return &CatalogRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListSchools returns schools ordered by name
func (r *CatalogRepository) ListSchools(ctx context.Context, activeOnly bool) ([]*models.School, error) {
	q := r.sb.Select("id", "name", "description", "website", "is_active", "created_at").From("schools").OrderBy("name")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list schools query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing schools: %w", err)
	}
	defer rows.Close()

	var schools []*models.School
	for rows.Next() {
		var s models.School
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Website, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning school: %w", err)
		}
		schools = append(schools, &s)
	}
	return schools, rows.Err()
}

// GetSchoolByID retrieves a school by ID
func (r *CatalogRepository) GetSchoolByID(ctx context.Context, id int64) (*models.School, error) {
	var s models.School
	err := r.db.QueryRow(ctx,
		`SELECT id, name, description, website, is_active, created_at FROM schools WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Description, &s.Website, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSchoolNotFound
		}
		return nil, fmt.Errorf("error retrieving school: %w", err)
	}
	return &s, nil
}

// UpsertSchool inserts or refreshes a school keyed by name
func (r *CatalogRepository) UpsertSchool(ctx context.Context, s *models.School) error {
	sql, args, err := r.sb.Insert("schools").
		Columns("name", "description", "website", "is_active").
		Values(s.Name, s.Description, s.Website, s.IsActive).
		Suffix("ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, website = EXCLUDED.website RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert school query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		logger.Error().Err(err).Str("school", s.Name).Msg("Error upserting school")
		return fmt.Errorf("error saving school: %w", err)
	}
	return nil
}

func (r *CatalogRepository) courseQuery() squirrel.SelectBuilder {
	return r.sb.Select(
		"c.id", "c.school_id", "c.name", "c.level", "c.duration", "c.tuition_fee", "c.currency",
		"c.description", "c.requirements", "c.start_date", "c.is_active AND s.is_active", "s.name",
	).From("courses c").Join("schools s ON s.id = c.school_id")
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	err := row.Scan(
		&c.ID, &c.SchoolID, &c.Name, &c.Level, &c.Duration, &c.TuitionFee, &c.Currency,
		&c.Description, &c.Requirements, &c.StartDate, &c.IsActive, &c.SchoolName,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCourses returns courses matching filter ordered by school and name
func (r *CatalogRepository) ListCourses(ctx context.Context, filter CourseFilter) ([]*models.Course, error) {
	q := r.courseQuery().OrderBy("s.name", "c.name")
	if filter.SchoolID != 0 {
		q = q.Where(squirrel.Eq{"c.school_id": filter.SchoolID})
	}
	if filter.Level != "" {
		q = q.Where(squirrel.ILike{"c.level": filter.Level})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(squirrel.ILike{"c.name": "%" + s + "%"})
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"c.is_active": true, "s.is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// GetCourseByID retrieves a course. IsActive is false when either course or school is inactive.
func (r *CatalogRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.courseQuery().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}
	c, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return c, nil
}

// UpsertCourse inserts or refreshes a course keyed by school and name
func (r *CatalogRepository) UpsertCourse(ctx context.Context, c *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns("school_id", "name", "level", "duration", "tuition_fee", "currency", "description", "requirements", "start_date", "is_active").
		Values(c.SchoolID, c.Name, c.Level, c.Duration, c.TuitionFee, c.Currency, c.Description, c.Requirements, c.StartDate, c.IsActive).
		Suffix(`ON CONFLICT (school_id, name) DO UPDATE SET
			level = EXCLUDED.level, duration = EXCLUDED.duration, tuition_fee = EXCLUDED.tuition_fee,
			currency = EXCLUDED.currency, description = EXCLUDED.description, requirements = EXCLUDED.requirements,
			start_date = EXCLUDED.start_date
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert course query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		logger.Error().Err(err).Str("course", c.Name).Msg("Error upserting course")
		return fmt.Errorf("error saving course: %w", err)
	}
	return nil
}

// ListFormFields returns the active dynamic form fields in display order
func (r *CatalogRepository) ListFormFields(ctx context.Context) ([]*models.FormField, error) {
	sql, args, err := r.sb.Select("id", "label", "field_type", "placeholder", "required", "options", "sort_order", "is_active").
		From("form_fields").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("sort_order", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list form fields query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing form fields: %w", err)
	}
	defer rows.Close()

	var fields []*models.FormField
	for rows.Next() {
		var f models.FormField
		if err := rows.Scan(&f.ID, &f.Label, &f.FieldType, &f.Placeholder, &f.Required, &f.Options, &f.Order, &f.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning form field: %w", err)
		}
		fields = append(fields, &f)
	}
	return fields, rows.Err()
}

// UpsertFormField inserts or refreshes a form field keyed by label
func (r *CatalogRepository) UpsertFormField(ctx context.Context, f *models.FormField) error {
	if f.Options == nil {
		f.Options = []string{}
	}
	sql, args, err := r.sb.Insert("form_fields").
		Columns("label", "field_type", "placeholder", "required", "options", "sort_order", "is_active").
		Values(f.Label, f.FieldType, f.Placeholder, f.Required, f.Options, f.Order, f.IsActive).
		Suffix(`ON CONFLICT (label) DO UPDATE SET
			field_type = EXCLUDED.field_type, placeholder = EXCLUDED.placeholder, required = EXCLUDED.required,
			options = EXCLUDED.options, sort_order = EXCLUDED.sort_order
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert form field query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&f.ID); err != nil {
		return fmt.Errorf("error saving form field: %w", err)
	}
	return nil
}
