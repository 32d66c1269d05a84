package models

import "time"

// Document is an uploaded file attached to exactly one application
type Document struct {
	ID            int64     `json:"id" db:"id"`
	ApplicationID int64     `json:"applicationId" db:"application_id"`
	FileName      string    `json:"fileName" db:"file_name"`
	FileType      string    `json:"fileType" db:"file_type"` // MIME type
	FileSize      int64     `json:"fileSize" db:"file_size"`
	FileURL       string    `json:"-" db:"file_url"`        // storage key, never exposed directly
	UploadedBy    int64     `json:"uploadedBy" db:"uploaded_by"`
	UploadedAt    time.Time `json:"uploadedAt" db:"uploaded_at"`
}
