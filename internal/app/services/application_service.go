package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admissions/portal/internal/app/auth"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/email"
	"github.com/admissions/portal/internal/pkg/helpers"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// ApplicationService owns the application lifecycle: draft, submit and staff transitions
type ApplicationService interface {
	CreateDraft(ctx context.Context, actor auth.Actor, courseID int64) (*models.Application, bool, error)
	UpdateDraft(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateApplicationRequest) (*models.Application, error)
	Submit(ctx context.Context, actor auth.Actor, id int64) (*models.Application, error)
	TransitionStatus(ctx context.Context, actor auth.Actor, id int64, target models.ApplicationStatus, notes string) (*models.Application, error)
	Get(ctx context.Context, actor auth.Actor, id int64) (*models.Application, error)
	ListMine(ctx context.Context, actor auth.Actor) ([]*models.Application, error)
	ComputeProfileCompletionScore(ctx context.Context, studentID int64) (int, error)
}

type applicationServiceImpl struct {
	appRepo     ApplicationStore
	catalogRepo CatalogStore
	profileRepo ProfileStore
	userRepo    UserStore
	scorer      ProfileScorer
	authz       auth.Authorizer
	notifier    email.Notifier
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      zerolog.Logger
}

// ApplicationServiceDeps groups the collaborators of ApplicationService
type ApplicationServiceDeps struct {
	Applications ApplicationStore
	Catalog      CatalogStore
	Profiles     ProfileStore
	Users        UserStore
	Scorer       ProfileScorer
	Authorizer   auth.Authorizer
	Notifier     email.Notifier
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(deps ApplicationServiceDeps) ApplicationService {
	authz := deps.Authorizer
	if authz == nil {
		authz = auth.NewAuthorizer()
	}
	return &applicationServiceImpl{
		appRepo:     deps.Applications,
		catalogRepo: deps.Catalog,
		profileRepo: deps.Profiles,
		userRepo:    deps.Users,
		scorer:      deps.Scorer,
		authz:       authz,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		now:         time.Now,
		logger:      deps.Logger,
	}
}

// CreateDraft starts a DRAFT for the student and course, or returns the existing draft.
// created is false when the draft already existed.
func (s *applicationServiceImpl) CreateDraft(ctx context.Context, actor auth.Actor, courseID int64) (*models.Application, bool, error) {
	if actor.Role != models.RoleStudent {
		return nil, false, apperrors.NewForbiddenError("only students can create applications")
	}

	course, err := s.catalogRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, false, err
	}
	if !course.IsActive {
		return nil, false, apperrors.NewBadRequestError("course is not open for applications")
	}

	draft := &models.Application{StudentID: actor.UserID, CourseID: courseID}
	profile, err := s.profileRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("error loading profile for prefill: %w", err)
	}
	draft.PrefillFromProfile(profile)

	app, created, err := s.appRepo.CreateDraft(ctx, draft)
	if err != nil {
		return nil, false, err
	}
	if !created && app.Status != models.StatusDraft {
		return nil, false, apperrors.NewInvalidStateError(fmt.Sprintf("an application for this course already exists with status %s", app.Status))
	}

	if created {
		s.logger.Info().Int64("applicationID", app.ID).Int64("studentID", actor.UserID).Int64("courseID", courseID).Msg("Draft created")
	}
	return app, created, nil
}

func (s *applicationServiceImpl) load(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// UpdateDraft merges the set fields into a DRAFT owned by actor
func (s *applicationServiceImpl) UpdateDraft(ctx context.Context, actor auth.Actor, id int64, req *dto.UpdateApplicationRequest) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanEdit(actor, app); err != nil {
		return nil, err
	}

	patch, err := patchFromRequest(req)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return app, nil
	}

	return s.appRepo.UpdateDraft(ctx, id, patch)
}

func patchFromRequest(req *dto.UpdateApplicationRequest) (models.ApplicationPatch, error) {
	patch := models.ApplicationPatch{
		PersonalStatement:  req.PersonalStatement,
		AdditionalInfo:     req.AdditionalInfo,
		Nationality:        req.Nationality,
		PassportNumber:     req.PassportNumber,
		Address:            req.Address,
		City:               req.City,
		Country:            req.Country,
		PostalCode:         req.PostalCode,
		PreviousEducation:  req.PreviousEducation,
		GPA:                req.GPA,
		EnglishProficiency: req.EnglishProficiency,
		ReferenceContact:   req.ReferenceContact,
	}
	if req.DateOfBirth != nil {
		dob, err := helpers.ParseDate(*req.DateOfBirth)
		if err != nil {
			return patch, apperrors.NewBadRequestError(err.Error())
		}
		patch.DateOfBirth = dob
	}
	return patch, nil
}

// Submit moves a DRAFT to SUBMITTED once the owner's profile clears the threshold
func (s *applicationServiceImpl) Submit(ctx context.Context, actor auth.Actor, id int64) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanEdit(actor, app); err != nil {
		return nil, err
	}

	completion, err := s.scorer.ComputeProfileCompletion(ctx, app.StudentID)
	if err != nil {
		return nil, err
	}
	if !completion.CanSubmit() {
		s.metrics.ObserveSubmissionRejected(apperrors.ReasonProfileIncomplete)
		s.logger.Info().
			Int64("applicationID", id).
			Int("score", completion.Score).
			Int("threshold", completion.Threshold).
			Msg("Submission blocked by incomplete profile")
		return nil, apperrors.NewProfileIncompleteError(completion.Score, completion.Threshold, completion.MissingFields)
	}

	submitted, err := s.appRepo.MarkSubmitted(ctx, &models.StatusChange{
		ApplicationID: id,
		FromStatus:    models.StatusDraft,
		ToStatus:      models.StatusSubmitted,
		ChangedBy:     actor.UserID,
		ChangedByRole: actor.Role,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(models.StatusDraft), string(models.StatusSubmitted))
	s.logger.Info().Int64("applicationID", id).Str("actor", actor.String()).Msg("Application submitted")
	s.notify(ctx, submitted, models.StatusDraft, "", true)
	return submitted, nil
}

// TransitionStatus applies a staff decision and appends notes to the review comments
func (s *applicationServiceImpl) TransitionStatus(ctx context.Context, actor auth.Actor, id int64, target models.ApplicationStatus, notes string) (*models.Application, error) {
	if err := s.authz.CanReview(actor); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanTransition(actor, app, target); err != nil {
		return nil, err
	}

	now := s.now()
	var comment string
	if notes != "" {
		comment = models.FormatAdminComment(now, actor.Role, actor.UserID, notes)
	}

	from := app.Status
	updated, err := s.appRepo.ApplyTransition(ctx, &models.StatusChange{
		ApplicationID: id,
		FromStatus:    from,
		ToStatus:      target,
		ChangedBy:     actor.UserID,
		ChangedByRole: actor.Role,
		Notes:         notes,
		CreatedAt:     now,
	}, comment)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(string(from), string(target))
	s.logger.Info().
		Int64("applicationID", id).
		Str("actor", actor.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Msg("Application status changed")
	s.notify(ctx, updated, from, notes, false)
	return updated, nil
}

// Get returns the application if actor may view it
func (s *applicationServiceImpl) Get(ctx context.Context, actor auth.Actor, id int64) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanView(actor, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMine returns a student's own applications, or the applications assigned to a staff member
func (s *applicationServiceImpl) ListMine(ctx context.Context, actor auth.Actor) ([]*models.Application, error) {
	filter := models.ApplicationFilter{StudentID: actor.UserID}
	if actor.IsStaff() {
		filter = models.ApplicationFilter{AssignedTo: actor.UserID}
	}
	apps, _, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	return apps, nil
}

// ComputeProfileCompletionScore returns the 0..100 score of the student's profile
func (s *applicationServiceImpl) ComputeProfileCompletionScore(ctx context.Context, studentID int64) (int, error) {
	completion, err := s.scorer.ComputeProfileCompletion(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return completion.Score, nil
}

// notify is best effort; the committed transition stands whatever happens here
func (s *applicationServiceImpl) notify(ctx context.Context, app *models.Application, from models.ApplicationStatus, notes string, receipt bool) {
	if s.notifier == nil {
		return
	}
	student, err := s.userRepo.GetUserByID(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("applicationID", app.ID).Msg("Skipping notification, applicant not found")
		return
	}
	msg := email.StatusMessage{
		ToEmail:       student.Email,
		ToName:        student.FullName(),
		ApplicationID: app.ID,
		FromStatus:    string(from),
		ToStatus:      string(app.Status),
		Notes:         notes,
	}
	if course, err := s.catalogRepo.GetCourseByID(ctx, app.CourseID); err == nil {
		msg.CourseName = course.Name
	} else if !errors.Is(err, apperrors.ErrCourseNotFound) {
		s.logger.Warn().Err(err).Int64("courseID", app.CourseID).Msg("Failed to load course for notification")
	}

	if receipt {
		err = s.notifier.SendSubmissionReceipt(msg)
	} else {
		err = s.notifier.SendStatusChange(msg)
	}
	if err != nil {
		s.logger.Error().Err(err).Int64("applicationID", app.ID).Msg("Failed to send notification")
	}
}
