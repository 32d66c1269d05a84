package services

import (
	"context"
	"time"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/repositories"
)

// UserStore is the persistence used for accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	UpdateContact(ctx context.Context, userID int64, firstName, lastName, phone string) error
}

// TokenStore holds refresh tokens
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	ConsumeToken(ctx context.Context, token string) (int64, error)
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// ProfileStore holds student profiles
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error)
	Upsert(ctx context.Context, p *models.StudentProfile) error
}

// CatalogStore exposes schools, courses and form fields
type CatalogStore interface {
	ListSchools(ctx context.Context, activeOnly bool) ([]*models.School, error)
	GetSchoolByID(ctx context.Context, id int64) (*models.School, error)
	ListCourses(ctx context.Context, filter repositories.CourseFilter) ([]*models.Course, error)
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	ListFormFields(ctx context.Context) ([]*models.FormField, error)
}

// ApplicationStore persists applications. Status-changing methods are conditional
// on the current status and record history atomically.
type ApplicationStore interface {
	CreateDraft(ctx context.Context, app *models.Application) (*models.Application, bool, error)
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	UpdateDraft(ctx context.Context, id int64, patch models.ApplicationPatch) (*models.Application, error)
	MarkSubmitted(ctx context.Context, change *models.StatusChange) (*models.Application, error)
	ApplyTransition(ctx context.Context, change *models.StatusChange, commentLine string) (*models.Application, error)
	Assign(ctx context.Context, id int64, assignedTo *int64, priority models.Priority) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]*models.Application, int64, error)
	CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int64, error)
	ListHistory(ctx context.Context, applicationID int64) ([]*models.StatusChange, error)
}

// DocumentStore persists document metadata. Writes only succeed while the application is a draft.
type DocumentStore interface {
	CreateForDraft(ctx context.Context, doc *models.Document) error
	ListByApplication(ctx context.Context, applicationID int64) ([]*models.Document, error)
	GetByID(ctx context.Context, applicationID, documentID int64) (*models.Document, error)
	DeleteForDraft(ctx context.Context, applicationID, documentID int64) (string, error)
}

var (
	_ UserStore        = (*repositories.UserRepository)(nil)
	_ TokenStore       = (*repositories.TokenRepository)(nil)
	_ ProfileStore     = (*repositories.ProfileRepository)(nil)
	_ CatalogStore     = (*repositories.CatalogRepository)(nil)
	_ ApplicationStore = (*repositories.ApplicationRepository)(nil)
	_ DocumentStore    = (*repositories.DocumentRepository)(nil)
)
