package services

import (
	"context"

	"github.com/admissions/portal/internal/app/auth"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

const recentApplicationsLimit = 5

// ReviewService is the staff side of the lifecycle
type ReviewService interface {
	Transition(ctx context.Context, actor auth.Actor, id int64, req *dto.TransitionStatusRequest) (*models.Application, error)
	List(ctx context.Context, actor auth.Actor, filter *dto.ApplicationFilterRequest) (*dto.ApplicationListResponse, error)
	Stats(ctx context.Context, actor auth.Actor) (*dto.ApplicationStatsResponse, error)
	History(ctx context.Context, actor auth.Actor, id int64) ([]*models.StatusChange, error)
	Assign(ctx context.Context, actor auth.Actor, id int64, req *dto.AssignApplicationRequest) (*models.Application, error)
}

type reviewServiceImpl struct {
	applications ApplicationService
	appRepo      ApplicationStore
	userRepo     UserStore
	authz        auth.Authorizer
	logger       zerolog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(applications ApplicationService, appRepo ApplicationStore, userRepo UserStore, logger zerolog.Logger) ReviewService {
	return &reviewServiceImpl{
		applications: applications,
		appRepo:      appRepo,
		userRepo:     userRepo,
		authz:        auth.NewAuthorizer(),
		logger:       logger,
	}
}

// Transition parses the requested status and hands it to the lifecycle
func (s *reviewServiceImpl) Transition(ctx context.Context, actor auth.Actor, id int64, req *dto.TransitionStatusRequest) (*models.Application, error) {
	if err := s.authz.CanReview(actor); err != nil {
		return nil, err
	}
	target, err := models.ParseApplicationStatus(req.Status)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}
	return s.applications.TransitionStatus(ctx, actor, id, target, req.Notes)
}

// List returns a filtered page of applications
func (s *reviewServiceImpl) List(ctx context.Context, actor auth.Actor, req *dto.ApplicationFilterRequest) (*dto.ApplicationListResponse, error) {
	if err := s.authz.CanReview(actor); err != nil {
		return nil, err
	}

	filter := models.ApplicationFilter{CourseID: req.CourseID, AssignedTo: req.AssignedTo}
	if req.Status != "" {
		status, err := models.ParseApplicationStatus(req.Status)
		if err != nil {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		filter.Status = status
	}
	page, size := helpers.NormalizePage(req.Page, req.Size)
	filter.Offset, filter.Limit = helpers.CalculateOffsetLimit(page, size)

	apps, total, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ApplicationListResponse{
		Applications: dto.NewApplicationResponses(apps, actor.Role),
		Pagination:   helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// Stats counts applications per status and returns the latest ones
func (s *reviewServiceImpl) Stats(ctx context.Context, actor auth.Actor) (*dto.ApplicationStatsResponse, error) {
	if err := s.authz.CanReview(actor); err != nil {
		return nil, err
	}

	counts, err := s.appRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	recent, _, err := s.appRepo.List(ctx, models.ApplicationFilter{Limit: recentApplicationsLimit})
	if err != nil {
		return nil, err
	}
	return &dto.ApplicationStatsResponse{
		Total:              total,
		ByStatus:           counts,
		RecentApplications: dto.NewApplicationResponses(recent, actor.Role),
	}, nil
}

// History returns the status changes of an application
func (s *reviewServiceImpl) History(ctx context.Context, actor auth.Actor, id int64) ([]*models.StatusChange, error) {
	if err := s.authz.CanReview(actor); err != nil {
		return nil, err
	}
	if _, err := s.appRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.appRepo.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*models.StatusChange{}
	}
	return history, nil
}

// Assign sets the reviewer and priority of a submitted application
func (s *reviewServiceImpl) Assign(ctx context.Context, actor auth.Actor, id int64, req *dto.AssignApplicationRequest) (*models.Application, error) {
	if err := s.authz.CanReview(actor); err != nil {
		return nil, err
	}
	priority := models.Priority(req.Priority)
	if priority != "" && !priority.IsValid() {
		return nil, apperrors.NewBadRequestError("priority must be LOW, NORMAL or HIGH")
	}
	if _, err := s.appRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if req.AssignedTo != nil {
		assignee, err := s.userRepo.GetUserByID(ctx, *req.AssignedTo)
		if err != nil {
			return nil, err
		}
		if !assignee.RoleType.IsStaff() {
			return nil, apperrors.NewBadRequestError("applications can only be assigned to staff")
		}
	}

	app, err := s.appRepo.Assign(ctx, id, req.AssignedTo, priority)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("applicationID", id).Str("actor", actor.String()).Msg("Application assignment updated")
	return app, nil
}
