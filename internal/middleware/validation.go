package middleware

import (
	"net/http"
	"strconv"

	appauth "github.com/admissions/portal/internal/app/auth"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/gin-gonic/gin"
)

// ParseIDParam reads a positive int64 path parameter, writing a 400 when it is malformed.
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid "+name).
			WithField(name).
			WithDetails(name + " must be a positive integer")
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// BindJSON binds and validates the body into obj, writing a 400 on failure
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BindingError(c, err)
		return false
	}
	return true
}

// BindQuery binds and validates query parameters into obj, writing a 400 on failure
func BindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		BindingError(c, err)
		return false
	}
	return true
}

// RequireActor returns the caller set by JWTAuth or writes a 401
func RequireActor(c *gin.Context) (appauth.Actor, bool) {
	actor, ok := ActorFromContext(c)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return appauth.Actor{}, false
	}
	return actor, true
}
