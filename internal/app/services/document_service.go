package services

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/admissions/portal/internal/app/auth"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/app/models/dto"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/filestorage"
	"github.com/admissions/portal/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// allowedDocumentTypes maps accepted MIME types to their file extensions
var allowedDocumentTypes = map[string][]string{
	"application/pdf":    {".pdf"},
	"image/jpeg":         {".jpg", ".jpeg"},
	"image/png":          {".png"},
	"application/msword": {".doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
}

// DocumentService attaches files to draft applications and hands out download links
type DocumentService interface {
	Attach(ctx context.Context, actor auth.Actor, applicationID int64, file *multipart.FileHeader) (*models.Document, error)
	List(ctx context.Context, actor auth.Actor, applicationID int64) ([]*models.Document, error)
	DownloadURL(ctx context.Context, actor auth.Actor, applicationID, documentID int64) (*dto.DownloadLinkResponse, error)
	Delete(ctx context.Context, actor auth.Actor, applicationID, documentID int64) error
}

type documentServiceImpl struct {
	appRepo  ApplicationStore
	docRepo  DocumentStore
	storage  filestorage.FileStorage
	authz    auth.Authorizer
	maxBytes int64
	urlTTL   time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// DocumentServiceConfig carries the upload limits and link lifetime
type DocumentServiceConfig struct {
	MaxUploadBytes int64
	URLTTL         time.Duration
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	appRepo ApplicationStore,
	docRepo DocumentStore,
	storage filestorage.FileStorage,
	cfg DocumentServiceConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) DocumentService {
	return &documentServiceImpl{
		appRepo:  appRepo,
		docRepo:  docRepo,
		storage:  storage,
		authz:    auth.NewAuthorizer(),
		maxBytes: cfg.MaxUploadBytes,
		urlTTL:   cfg.URLTTL,
		metrics:  m,
		logger:   logger,
	}
}

// DetectDocumentType returns the accepted MIME type of file, preferring the declared
// Content-Type and falling back to the extension
func DetectDocumentType(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))

	declared := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	if _, ok := allowedDocumentTypes[declared]; ok {
		return declared, nil
	}

	for mimeType, exts := range allowedDocumentTypes {
		for _, e := range exts {
			if e == ext {
				return mimeType, nil
			}
		}
	}
	return "", apperrors.NewCustomError(apperrors.ErrUnsupportedFileType,
		fmt.Sprintf("file type %q is not allowed; use PDF, JPEG, PNG, DOC or DOCX", ext))
}

// Attach stores file and records it against a DRAFT owned by actor.
// The stored blob is removed again when the application left DRAFT meanwhile.
func (s *documentServiceImpl) Attach(ctx context.Context, actor auth.Actor, applicationID int64, file *multipart.FileHeader) (*models.Document, error) {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanEdit(actor, app); err != nil {
		return nil, err
	}

	if file.Size > s.maxBytes {
		return nil, apperrors.NewCustomError(apperrors.ErrFileTooLarge,
			fmt.Sprintf("file exceeds the %d MB limit", s.maxBytes>>20))
	}
	mimeType, err := DetectDocumentType(file)
	if err != nil {
		return nil, err
	}

	key, err := s.storage.Save(file, fmt.Sprintf("applications/%d", applicationID))
	if err != nil {
		return nil, fmt.Errorf("error storing document: %w", err)
	}

	doc := &models.Document{
		ApplicationID: applicationID,
		FileName:      filepath.Base(file.Filename),
		FileType:      mimeType,
		FileSize:      file.Size,
		FileURL:       key,
		UploadedBy:    actor.UserID,
	}
	if err := s.docRepo.CreateForDraft(ctx, doc); err != nil {
		if delErr := s.storage.Delete(key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned document")
		}
		return nil, err
	}

	s.metrics.ObserveDocumentUploaded()
	s.logger.Info().
		Int64("applicationID", applicationID).
		Int64("documentID", doc.ID).
		Str("fileType", mimeType).
		Int64("size", file.Size).
		Msg("Document attached")
	return doc, nil
}

func (s *documentServiceImpl) viewable(ctx context.Context, actor auth.Actor, applicationID int64) error {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	return s.authz.CanView(actor, app)
}

// List returns the documents of an application
func (s *documentServiceImpl) List(ctx context.Context, actor auth.Actor, applicationID int64) ([]*models.Document, error) {
	if err := s.viewable(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	docs, err := s.docRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	return docs, nil
}

// DownloadURL returns a signed, expiring link to a document of the application
func (s *documentServiceImpl) DownloadURL(ctx context.Context, actor auth.Actor, applicationID, documentID int64) (*dto.DownloadLinkResponse, error) {
	if err := s.viewable(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	doc, err := s.docRepo.GetByID(ctx, applicationID, documentID)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.storage.SignedURL(doc.FileURL, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing download url: %w", err)
	}
	return &dto.DownloadLinkResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// Delete removes a document from a DRAFT owned by actor
func (s *documentServiceImpl) Delete(ctx context.Context, actor auth.Actor, applicationID, documentID int64) error {
	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := s.authz.CanEdit(actor, app); err != nil {
		return err
	}
	if _, err := s.docRepo.GetByID(ctx, applicationID, documentID); err != nil {
		return err
	}

	key, err := s.docRepo.DeleteForDraft(ctx, applicationID, documentID)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to remove document file")
	}
	return nil
}
