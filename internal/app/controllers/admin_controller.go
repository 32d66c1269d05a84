package controllers

import (
	"net/http"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/app/services"
	"github.com/admissions/portal/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminController is the staff review API
type AdminController struct {
	reviewService services.ReviewService
	logger        zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(reviewService services.ReviewService, logger zerolog.Logger) *AdminController {
	return &AdminController{reviewService: reviewService, logger: logger}
}

// UpdateStatus godoc
// @Summary Change application status
// @Description Moves a submitted application through review. Notes are appended to the reviewer comments.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.TransitionStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/applications/{id}/status [put]
func (c *AdminController) UpdateStatus(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.TransitionStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.reviewService.Transition(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("applicationID", id).Str("status", req.Status).Msg("Status change refused")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app, actor.Role)))
}

// Assign godoc
// @Summary Assign reviewer and priority
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.AssignApplicationRequest true "Assignment"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Router /admin/applications/{id}/assignment [put]
func (c *AdminController) Assign(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.AssignApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.reviewService.Assign(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app, actor.Role)))
}

// List godoc
// @Summary List applications
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param courseId query int false "Course filter"
// @Param assignedTo query int false "Reviewer filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse}
// @Router /admin/applications [get]
func (c *AdminController) List(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}

	var filter dto.ApplicationFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	page, err := c.reviewService.List(ctx.Request.Context(), actor, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(page))
}

// History godoc
// @Summary Status history of an application
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=[]models.StatusChange}
// @Router /admin/applications/{id}/history [get]
func (c *AdminController) History(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	history, err := c.reviewService.History(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(history))
}

// Stats godoc
// @Summary Dashboard counts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationStatsResponse}
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}

	stats, err := c.reviewService.Stats(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}
