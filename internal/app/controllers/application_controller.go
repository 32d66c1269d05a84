package controllers

import (
	"net/http"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/app/services"
	"github.com/admissions/portal/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ApplicationController exposes the student side of the application lifecycle
type ApplicationController struct {
	applicationService services.ApplicationService
	logger             zerolog.Logger
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService services.ApplicationService, logger zerolog.Logger) *ApplicationController {
	return &ApplicationController{applicationService: applicationService, logger: logger}
}

// Create godoc
// @Summary Start an application
// @Description Returns the existing draft for the course when there is one. With submit=true the draft is submitted in the same call.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateApplicationRequest true "Course to apply for"
// @Success 201 {object} dto.APIResponse{data=dto.ApplicationResponse} "Draft created"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse} "Existing draft returned"
// @Failure 400 {object} dto.ProfileIncompleteResponse "Profile incomplete"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /applications [post]
func (c *ApplicationController) Create(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, created, err := c.applicationService.CreateDraft(ctx.Request.Context(), actor, req.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if req.Submit {
		submitted, err := c.applicationService.Submit(ctx.Request.Context(), actor, app.ID)
		if err != nil {
			c.logger.Info().Err(err).Int64("applicationID", app.ID).Msg("Draft created but submission refused")
			middleware.HandleAPIError(ctx, err)
			return
		}
		app = submitted
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.NewSuccessResponse(dto.NewApplicationResponse(app, actor.Role)))
}

// List godoc
// @Summary List own applications
// @Description Students see their applications; staff see those assigned to them.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ApplicationResponse}
// @Router /applications [get]
func (c *ApplicationController) List(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}

	apps, err := c.applicationService.ListMine(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponses(apps, actor.Role)))
}

// Get godoc
// @Summary Get an application
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /applications/{id} [get]
func (c *ApplicationController) Get(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Get(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app, actor.Role)))
}

// Update godoc
// @Summary Update a draft
// @Description Partial update of a DRAFT application owned by the caller.
// @Tags applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param request body dto.UpdateApplicationRequest true "Draft fields"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ErrorResponse "Not a draft"
// @Failure 403 {object} dto.ErrorResponse
// @Router /applications/{id} [patch]
func (c *ApplicationController) Update(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.UpdateDraft(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app, actor.Role)))
}

// Submit godoc
// @Summary Submit a draft
// @Description Requires the profile completion score to reach the configured threshold.
// @Tags applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationResponse}
// @Failure 400 {object} dto.ProfileIncompleteResponse "Profile incomplete or not a draft"
// @Failure 403 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /applications/{id}/submit [post]
func (c *ApplicationController) Submit(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	app, err := c.applicationService.Submit(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewApplicationResponse(app, actor.Role)))
}
