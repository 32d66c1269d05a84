package auth

import (
	"fmt"

	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/pkg/apperrors"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID int64
	Role   models.RoleType
}

// IsStaff reports whether the actor reviews applications
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// String is used in log fields
func (a Actor) String() string {
	return fmt.Sprintf("%s#%d", a.Role, a.UserID)
}

// Authorizer decides what an actor may do with an application.
// Every method returns nil when allowed and a typed apperrors error otherwise.
type Authorizer interface {
	CanView(actor Actor, app *models.Application) error
	CanEdit(actor Actor, app *models.Application) error
	CanReview(actor Actor) error
	CanTransition(actor Actor, app *models.Application, target models.ApplicationStatus) error
}

type roleAuthorizer struct{}

// NewAuthorizer returns the role and ownership based Authorizer
func NewAuthorizer() Authorizer {
	return roleAuthorizer{}
}

// CanView allows the owning student and any staff member
func (roleAuthorizer) CanView(actor Actor, app *models.Application) error {
	if actor.IsStaff() || isOwner(actor, app) {
		return nil
	}
	return apperrors.NewForbiddenError("you cannot view this application")
}

// CanEdit allows only the owning student, and only while the application is a draft
func (roleAuthorizer) CanEdit(actor Actor, app *models.Application) error {
	if !isOwner(actor, app) {
		return apperrors.NewForbiddenError("only the applicant can modify this application")
	}
	if !app.IsEditable() {
		return apperrors.NewInvalidStateError(fmt.Sprintf("application is %s; only DRAFT applications can be modified", app.Status))
	}
	return nil
}

// CanReview allows admins and counsellors
func (roleAuthorizer) CanReview(actor Actor) error {
	if !actor.IsStaff() {
		return apperrors.NewForbiddenError("staff role required")
	}
	return nil
}

// CanTransition checks the role first, then the review graph
func (a roleAuthorizer) CanTransition(actor Actor, app *models.Application, target models.ApplicationStatus) error {
	if err := a.CanReview(actor); err != nil {
		return err
	}
	if !app.Status.CanReviewTransitionTo(target) {
		return apperrors.NewInvalidTransitionError(string(app.Status), string(target))
	}
	return nil
}

func isOwner(actor Actor, app *models.Application) bool {
	return actor.Role == models.RoleStudent && app != nil && app.StudentID == actor.UserID
}
