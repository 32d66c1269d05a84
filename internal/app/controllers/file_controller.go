package controllers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/middleware"
	"github.com/admissions/portal/internal/pkg/filestorage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FileController serves signed document downloads
type FileController struct {
	storage filestorage.FileStorage
	logger  zerolog.Logger
}

// NewFileController creates a new FileController
func NewFileController(storage filestorage.FileStorage, logger zerolog.Logger) *FileController {
	return &FileController{storage: storage, logger: logger}
}

// Download godoc
// @Summary Download a document through a signed link
// @Tags documents
// @Produce octet-stream
// @Param key path string true "Storage key"
// @Param expires query int true "Unix expiry"
// @Param signature query string true "HMAC signature"
// @Success 200 {file} file
// @Failure 403 {object} dto.ErrorResponse "Invalid or expired link"
// @Router /files/{key} [get]
func (c *FileController) Download(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("key"), "/")

	expires, err := strconv.ParseInt(ctx.Query("expires"), 10, 64)
	if err != nil {
		middleware.HandleAPIError(ctx, filestorage.ErrInvalidSignature)
		return
	}

	if err := c.storage.Verify(key, expires, ctx.Query("signature")); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Rejected download link")
		middleware.HandleAPIError(ctx, err)
		return
	}

	fullPath, err := c.storage.FullPath(key)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "File not found"),
			))
			return
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.FileAttachment(fullPath, path.Base(key))
}
