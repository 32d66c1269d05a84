package controllers

import (
	"net/http"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/app/services"
	"github.com/admissions/portal/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CatalogController serves the public school and course catalogue
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

// ListSchools godoc
// @Summary List schools
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.School}
// @Router /schools [get]
func (c *CatalogController) ListSchools(ctx *gin.Context) {
	schools, err := c.catalogService.ListSchools(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(schools))
}

// GetSchool godoc
// @Summary Get a school with its active courses
// @Tags catalog
// @Produce json
// @Param id path int true "School ID"
// @Success 200 {object} dto.APIResponse{data=dto.SchoolDetailResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /schools/{id} [get]
func (c *CatalogController) GetSchool(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	school, err := c.catalogService.GetSchool(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(school))
}

// ListCourses godoc
// @Summary List active courses
// @Tags catalog
// @Produce json
// @Param schoolId query int false "School ID"
// @Param level query string false "Course level"
// @Param q query string false "Name search"
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Router /courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	var filter dto.CourseFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	courses, err := c.catalogService.ListCourses(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// GetCourse godoc
// @Summary Get a course
// @Tags catalog
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 404 {object} dto.ErrorResponse
// @Router /courses/{id} [get]
func (c *CatalogController) GetCourse(ctx *gin.Context) {
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	course, err := c.catalogService.GetCourse(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(course))
}

// ListFormFields godoc
// @Summary Application form field definitions
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.FormField}
// @Router /form-fields [get]
func (c *CatalogController) ListFormFields(ctx *gin.Context) {
	fields, err := c.catalogService.ListFormFields(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(fields))
}
