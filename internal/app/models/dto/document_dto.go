package dto

import (
	"time"

	"github.com/admissions/portal/internal/app/models"
)

// DocumentResponse describes an uploaded file without exposing its storage key
type DocumentResponse struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"applicationId"`
	FileName      string    `json:"fileName" example:"transcript.pdf"`
	FileType      string    `json:"fileType" example:"application/pdf"`
	FileSize      int64     `json:"fileSize" example:"1048576"`
	UploadedBy    int64     `json:"uploadedBy"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// NewDocumentResponse maps a document model
func NewDocumentResponse(d *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		FileName:      d.FileName,
		FileType:      d.FileType,
		FileSize:      d.FileSize,
		UploadedBy:    d.UploadedBy,
		UploadedAt:    d.UploadedAt,
	}
}

// DownloadLinkResponse is a time-limited signed link
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
