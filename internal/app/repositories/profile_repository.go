package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/db"
	"github.com/admissions/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var profileColumns = []string{
	"user_id", "date_of_birth", "nationality", "passport_number", "address", "city", "country",
	"postal_code", "previous_education", "gpa", "english_proficiency", "reference_contact", "updated_at",
}

// ProfileRepository handles the 'student_profiles' table
type ProfileRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(conn db.DBTX) *ProfileRepository {
	return &ProfileRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByUserID returns the profile of userID, or an empty profile when none was saved yet
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	sql, args, err := r.sb.Select(profileColumns...).From("student_profiles").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}

	var p models.StudentProfile
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&p.UserID, &p.DateOfBirth, &p.Nationality, &p.PassportNumber, &p.Address, &p.City, &p.Country,
		&p.PostalCode, &p.PreviousEducation, &p.GPA, &p.EnglishProficiency, &p.ReferenceContact, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.StudentProfile{UserID: userID}, nil
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error retrieving student profile")
		return nil, fmt.Errorf("error retrieving profile: %w", err)
	}
	return &p, nil
}

// Upsert writes the whole profile
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.StudentProfile) error {
	p.UpdatedAt = time.Now()
	sql, args, err := r.sb.Insert("student_profiles").
		Columns(profileColumns...).
		Values(p.UserID, p.DateOfBirth, p.Nationality, p.PassportNumber, p.Address, p.City, p.Country,
			p.PostalCode, p.PreviousEducation, p.GPA, p.EnglishProficiency, p.ReferenceContact, p.UpdatedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			date_of_birth = EXCLUDED.date_of_birth,
			nationality = EXCLUDED.nationality,
			passport_number = EXCLUDED.passport_number,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			postal_code = EXCLUDED.postal_code,
			previous_education = EXCLUDED.previous_education,
			gpa = EXCLUDED.gpa,
			english_proficiency = EXCLUDED.english_proficiency,
			reference_contact = EXCLUDED.reference_contact,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert profile query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", p.UserID).Msg("Error saving student profile")
		return fmt.Errorf("error saving profile: %w", err)
	}
	return nil
}
