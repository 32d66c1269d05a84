// Package seed loads the reference catalogue and staff accounts on startup
package seed

import (
	"context"
	"errors"
	"time"

	appModels "github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// CatalogWriter is the part of the catalog repository used for seeding
type CatalogWriter interface {
	UpsertSchool(ctx context.Context, s *appModels.School) error
	UpsertCourse(ctx context.Context, c *appModels.Course) error
	UpsertFormField(ctx context.Context, f *appModels.FormField) error
}

// UserWriter is the part of the user repository used for seeding
type UserWriter interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *appModels.User) (int64, error)
}

// StaffAccount is a staff user created when missing. An empty password skips it.
type StaffAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      appModels.RoleType
}

type schoolSeed struct {
	school  appModels.School
	courses []appModels.Course
}

func defaultCatalog(now time.Time) []schoolSeed {
	autumn := time.Date(now.Year()+1, time.September, 15, 0, 0, 0, 0, time.UTC)
	return []schoolSeed{
		{
			school: appModels.School{
				Name:        "School of Engineering",
				Description: "Computing, electrical and mechanical engineering programmes.",
				Website:     "https://engineering.example.edu",
				IsActive:    true,
			},
			courses: []appModels.Course{
				{Name: "Computer Science BSc", Level: "Undergraduate", Duration: "3 years", TuitionFee: 9250, Currency: "GBP",
					Description: "Algorithms, systems and software engineering.", Requirements: "A-levels AAA including Mathematics", StartDate: &autumn, IsActive: true},
				{Name: "Data Engineering MSc", Level: "Postgraduate", Duration: "1 year", TuitionFee: 14500, Currency: "GBP",
					Description: "Distributed data systems and pipelines.", Requirements: "2:1 honours degree in a numerate subject", StartDate: &autumn, IsActive: true},
			},
		},
		{
			school: appModels.School{
				Name:        "Business School",
				Description: "Management, finance and economics.",
				Website:     "https://business.example.edu",
				IsActive:    true,
			},
			courses: []appModels.Course{
				{Name: "Economics BSc", Level: "Undergraduate", Duration: "3 years", TuitionFee: 9250, Currency: "GBP",
					Description: "Micro and macroeconomics with econometrics.", Requirements: "A-levels AAB including Mathematics", StartDate: &autumn, IsActive: true},
				{Name: "MBA", Level: "Postgraduate", Duration: "1 year", TuitionFee: 32000, Currency: "GBP",
					Description: "Full-time general management programme.", Requirements: "Three years of professional experience", StartDate: &autumn, IsActive: true},
			},
		},
	}
}

func defaultFormFields() []appModels.FormField {
	return []appModels.FormField{
		{Label: "Personal statement", FieldType: "textarea", Placeholder: "Why this course?", Required: true, Order: 1, IsActive: true},
		{Label: "English proficiency", FieldType: "select", Required: true, Order: 2, IsActive: true,
			Options: []string{"Native", "IELTS", "TOEFL", "Cambridge C1/C2", "Other"}},
		{Label: "Reference contact", FieldType: "text", Placeholder: "Name and email of a referee", Order: 3, IsActive: true},
	}
}

// CreateDefaultData upserts the schools, courses and form fields and creates missing staff accounts.
// It keeps going after individual failures and returns them joined.
func CreateDefaultData(ctx context.Context, catalog CatalogWriter, users UserWriter, staff []StaffAccount, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (schools, courses, form fields, staff)...")
	var finalErr error

	for _, entry := range defaultCatalog(time.Now()) {
		school := entry.school
		if err := catalog.UpsertSchool(ctx, &school); err != nil {
			lgr.Error().Err(err).Str("school", school.Name).Msg("Error seeding school")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		for _, course := range entry.courses {
			course.SchoolID = school.ID
			if err := catalog.UpsertCourse(ctx, &course); err != nil {
				lgr.Error().Err(err).Str("course", course.Name).Msg("Error seeding course")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	for _, field := range defaultFormFields() {
		if err := catalog.UpsertFormField(ctx, &field); err != nil {
			lgr.Error().Err(err).Str("label", field.Label).Msg("Error seeding form field")
			finalErr = errors.Join(finalErr, err)
		}
	}

	for _, account := range staff {
		if err := createStaff(ctx, users, account, lgr); err != nil {
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}

func createStaff(ctx context.Context, users UserWriter, account StaffAccount, lgr zerolog.Logger) error {
	if account.Email == "" || account.Password == "" {
		lgr.Warn().Str("role", string(account.Role)).Msg("No seed credentials configured, skipping staff account")
		return nil
	}

	exists, err := users.EmailExists(ctx, account.Email)
	if err != nil {
		lgr.Error().Err(err).Str("email", account.Email).Msg("Error checking if staff user exists")
		return err
	}
	if exists {
		lgr.Info().Str("email", account.Email).Msg("Staff user already exists, skipping creation")
		return nil
	}

	hashed, err := auth.HashPassword(account.Password)
	if err != nil {
		return err
	}

	id, err := users.CreateUser(ctx, &appModels.User{
		Email:     account.Email,
		Password:  hashed,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		RoleType:  account.Role,
		IsActive:  true,
	})
	if err != nil {
		lgr.Error().Err(err).Str("email", account.Email).Msg("Error creating staff user")
		return err
	}
	lgr.Info().Int64("userID", id).Str("role", string(account.Role)).Msg("Default staff user created")
	return nil
}
