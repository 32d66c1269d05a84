package controllers

import (
	"net/http"

	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/app/services"
	"github.com/admissions/portal/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DocumentController handles files attached to applications
type DocumentController struct {
	documentService services.DocumentService
	logger          zerolog.Logger
}

// NewDocumentController creates a new DocumentController
func NewDocumentController(documentService services.DocumentService, logger zerolog.Logger) *DocumentController {
	return &DocumentController{documentService: documentService, logger: logger}
}

// Upload godoc
// @Summary Attach a document to a draft
// @Description Accepts PDF, JPEG, PNG, DOC and DOCX up to the configured size.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param file formData file true "Document"
// @Success 201 {object} dto.APIResponse{data=dto.DocumentResponse}
// @Failure 400 {object} dto.ErrorResponse "Not a draft or unsupported type"
// @Failure 413 {object} dto.ErrorResponse "File too large"
// @Router /applications/{id}/documents [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, "Invalid or missing file").WithField("file"),
		))
		return
	}

	doc, err := c.documentService.Attach(ctx.Request.Context(), actor, id, file)
	if err != nil {
		c.logger.Warn().Err(err).Int64("applicationID", id).Str("fileName", file.Filename).Msg("Document upload refused")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewDocumentResponse(doc)))
}

// List godoc
// @Summary List documents of an application
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.DocumentResponse}
// @Router /applications/{id}/documents [get]
func (c *DocumentController) List(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	docs, err := c.documentService.List(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.NewDocumentResponse(d))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(out))
}

// Download godoc
// @Summary Signed download link
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param docId path int true "Document ID"
// @Success 200 {object} dto.APIResponse{data=dto.DownloadLinkResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /applications/{id}/documents/{docId}/download [get]
func (c *DocumentController) Download(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}
	docID, ok := middleware.ParseIDParam(ctx, "docId")
	if !ok {
		return
	}

	link, err := c.documentService.DownloadURL(ctx.Request.Context(), actor, id, docID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(link))
}

// Delete godoc
// @Summary Remove a document from a draft
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param docId path int true "Document ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Not a draft"
// @Router /applications/{id}/documents/{docId} [delete]
func (c *DocumentController) Delete(ctx *gin.Context) {
	actor, ok := middleware.RequireActor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}
	docID, ok := middleware.ParseIDParam(ctx, "docId")
	if !ok {
		return
	}

	if err := c.documentService.Delete(ctx.Request.Context(), actor, id, docID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Document deleted"}))
}
