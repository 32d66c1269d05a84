package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/filestorage"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order; more specific sentinels come before the generic ones they may wrap.
var errorMappings = []errorMapping{
	{apperrors.ErrApplicationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Application not found"},
	{apperrors.ErrDocumentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Document not found"},
	{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Course not found"},
	{apperrors.ErrSchoolNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "School not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	{apperrors.ErrInvalidState, http.StatusBadRequest, dto.ErrorCodeInvalidState, "Operation not allowed in current application status"},
	{apperrors.ErrInvalidTransition, http.StatusBadRequest, dto.ErrorCodeInvalidTransition, "Invalid status transition"},
	{apperrors.ErrUnsupportedFileType, http.StatusBadRequest, dto.ErrorCodeUnsupportedFileType, "Unsupported file type"},
	{apperrors.ErrFileTooLarge, http.StatusRequestEntityTooLarge, dto.ErrorCodeFileTooLarge, "File too large"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "Bad request"},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account is disabled"},
	{filestorage.ErrInvalidSignature, http.StatusForbidden, dto.ErrorCodeLinkInvalid, "Invalid download link"},
	{filestorage.ErrLinkExpired, http.StatusForbidden, dto.ErrorCodeLinkInvalid, "Download link expired"},
	{filestorage.ErrInvalidKey, http.StatusForbidden, dto.ErrorCodeLinkInvalid, "Invalid download link"},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},

	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	{apperrors.ErrRateLimited, http.StatusTooManyRequests, dto.ErrorCodeRateLimited, "Too many requests"},
}

// HandleAPIError writes the response for err. It is the only place that maps
// domain errors to HTTP status codes.
func HandleAPIError(c *gin.Context, err error) {
	var incomplete *apperrors.ProfileIncompleteError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusBadRequest, newProfileIncompleteResponse(incomplete))
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if custom := apperrors.Message(err); custom != "" {
			message = custom
		}
		detail := dto.NewErrorDetail(m.code, message)
		var ce *apperrors.CustomError
		if errors.As(err, &ce) && len(ce.Details) > 0 {
			detail = detail.WithDetails(ce.Details)
		}
		c.JSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithSeverity(dto.ErrorSeverityCritical),
	))
}

func newProfileIncompleteResponse(e *apperrors.ProfileIncompleteError) dto.ProfileIncompleteResponse {
	missing := e.MissingFields
	if missing == nil {
		missing = []string{}
	}
	return dto.ProfileIncompleteResponse{
		Success:                   false,
		Error:                     dto.NewErrorDetail(dto.ErrorCodeProfileIncomplete, e.Error()),
		RequiresProfileCompletion: true,
		BlockingReasons:           []string{e.Reason()},
		ProfileCompletion: dto.ProfileCompletionResponse{
			Score:         e.Score,
			Threshold:     e.Threshold,
			CanSubmit:     false,
			MissingFields: missing,
		},
		Timestamp: time.Now(),
	}
}

// BindingError writes a 400 for a request that failed gin binding
func BindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}
