package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/admissions/portal/internal/app/models"
	"github.com/admissions/portal/internal/db"
	"github.com/admissions/portal/internal/pkg/apperrors"
	"github.com/admissions/portal/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
)

var documentColumns = []string{
	"id", "application_id", "file_name", "file_type", "file_size", "file_url", "uploaded_by", "uploaded_at",
}

// insertDocumentForDraft only inserts when the parent application is still DRAFT.
// FOR SHARE holds the application row until commit: a concurrent submit waits for the
// upload, and an upload that waited on a submit re-checks the status and inserts nothing.
const insertDocumentForDraft = `
INSERT INTO documents (application_id, file_name, file_type, file_size, file_url, uploaded_by)
SELECT a.id, $2::varchar, $3::varchar, $4::bigint, $5::varchar, $6::bigint
FROM applications a
WHERE a.id = $1 AND a.status = 'DRAFT'
FOR SHARE OF a
RETURNING id, uploaded_at`

// deleteDocumentForDraft locks the DRAFT application row the same way before deleting
const deleteDocumentForDraft = `
WITH draft AS (
	SELECT id FROM applications
	WHERE id = $2 AND status = 'DRAFT'
	FOR SHARE
)
DELETE FROM documents d
USING draft
WHERE d.id = $1 AND d.application_id = draft.id
RETURNING d.file_url`

// DocumentRepository handles the 'documents' table
type DocumentRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(conn db.DBTX) *DocumentRepository {
	return &DocumentRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateForDraft records doc if its application is a DRAFT, otherwise returns InvalidState
func (r *DocumentRepository) CreateForDraft(ctx context.Context, doc *models.Document) error {
	err := r.db.QueryRow(ctx, insertDocumentForDraft,
		doc.ApplicationID, doc.FileName, doc.FileType, doc.FileSize, doc.FileURL, doc.UploadedBy,
	).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidStateError("documents can only be added to draft applications")
		}
		logger.Error().Err(err).Int64("applicationID", doc.ApplicationID).Msg("Error inserting document")
		return fmt.Errorf("error creating document: %w", err)
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	if err := row.Scan(&d.ID, &d.ApplicationID, &d.FileName, &d.FileType, &d.FileSize, &d.FileURL, &d.UploadedBy, &d.UploadedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByApplication returns documents of an application in upload order
func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*models.Document, error) {
	sql, args, err := r.sb.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"application_id": applicationID}).
		OrderBy("uploaded_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list documents query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetByID retrieves a document that belongs to applicationID
func (r *DocumentRepository) GetByID(ctx context.Context, applicationID, documentID int64) (*models.Document, error) {
	sql, args, err := r.sb.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": documentID, "application_id": applicationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get document query: %w", err)
	}

	d, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("error retrieving document: %w", err)
	}
	return d, nil
}

// DeleteForDraft removes a document while its application is DRAFT and returns its storage key
func (r *DocumentRepository) DeleteForDraft(ctx context.Context, applicationID, documentID int64) (string, error) {
	var key string
	err := r.db.QueryRow(ctx, deleteDocumentForDraft, documentID, applicationID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewInvalidStateError("documents can only be removed from draft applications")
		}
		return "", fmt.Errorf("error deleting document: %w", err)
	}
	return key, nil
}
