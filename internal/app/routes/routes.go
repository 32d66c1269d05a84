package routes

import (
	"net/http"

	"github.com/admissions/portal/internal/app/controllers"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/middleware"
	"github.com/admissions/portal/internal/pkg/filestorage"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Router groups everything SetupRouter wires onto the engine
type Router struct {
	Auth         *controllers.AuthController
	Catalog      *controllers.CatalogController
	Profile      *controllers.ProfileController
	Applications *controllers.ApplicationController
	Documents    *controllers.DocumentController
	Admin        *controllers.AdminController
	Files        *controllers.FileController

	AuthMiddleware *middleware.AuthMiddleware
	Limiter        middleware.Limiter
	SubmitLimit    middleware.RateLimitRule
	UploadLimit    middleware.RateLimitRule
	LoginLimit     middleware.RateLimitRule
	Metrics        *metrics.Metrics
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, r *Router) {
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", middleware.RateLimit(r.Limiter, r.LoginLimit, r.Metrics), r.Auth.Register)
		auth.POST("/login", middleware.RateLimit(r.Limiter, r.LoginLimit, r.Metrics), r.Auth.Login)
		auth.POST("/refresh", r.Auth.RefreshToken)
	}

	v1.GET("/schools", r.Catalog.ListSchools)
	v1.GET("/schools/:id", r.Catalog.GetSchool)
	v1.GET("/courses", r.Catalog.ListCourses)
	v1.GET("/courses/:id", r.Catalog.GetCourse)
	v1.GET("/form-fields", r.Catalog.ListFormFields)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(r.AuthMiddleware.JWTAuth())

	authenticated.GET("/auth/me", r.Auth.Me)
	authenticated.POST("/auth/logout", r.Auth.Logout)

	profile := authenticated.Group("/profile")
	profile.Use(r.AuthMiddleware.RolesRequired(models.RoleStudent))
	{
		profile.GET("", r.Profile.GetProfile)
		profile.PUT("", r.Profile.UpdateProfile)
		profile.GET("/completion", r.Profile.GetCompletion)
	}

	// Ownership and draft state are enforced by the services
	applications := authenticated.Group("/applications")
	{
		applications.POST("", r.AuthMiddleware.RolesRequired(models.RoleStudent), r.Applications.Create)
		applications.GET("", r.Applications.List)
		applications.GET("/:id", r.Applications.Get)
		applications.PATCH("/:id", r.Applications.Update)
		applications.POST("/:id/submit", middleware.RateLimit(r.Limiter, r.SubmitLimit, r.Metrics), r.Applications.Submit)

		applications.POST("/:id/documents", middleware.RateLimit(r.Limiter, r.UploadLimit, r.Metrics), r.Documents.Upload)
		applications.GET("/:id/documents", r.Documents.List)
		applications.GET("/:id/documents/:docId/download", r.Documents.Download)
		applications.DELETE("/:id/documents/:docId", r.Documents.Delete)
	}

	admin := authenticated.Group("/admin")
	admin.Use(r.AuthMiddleware.RolesRequired(models.RoleAdmin, models.RoleCounsellor))
	{
		admin.GET("/applications", r.Admin.List)
		admin.GET("/applications/:id/history", r.Admin.History)
		admin.PUT("/applications/:id/status", r.Admin.UpdateStatus)
		admin.PUT("/applications/:id/assignment", r.Admin.Assign)
		admin.GET("/stats", r.Admin.Stats)
	}

	// Signed links are built as <base_url>/files/<key>
	router.GET(filestorage.DownloadRoute+"*key", r.Files.Download)

	router.GET("/health", healthHandler)
	v1.GET("/health", healthHandler)

	if r.Metrics != nil {
		router.GET("/metrics", gin.WrapH(r.Metrics.Handler()))
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
}
