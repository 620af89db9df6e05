package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/pkg/attachment"
	"go.uber.org/zap"
)

// ErrNoFile is returned when a document has no attached file.
var ErrNoFile = errors.New("document has no file")

// DocumentAttachment manages the file of a document.
type DocumentAttachment interface {
	StoreFile(ctx context.Context, doc *entities.Document, file attachment.File, persist bool) (string, error)
	DeleteFile(ctx context.Context, doc *entities.Document, persist bool) error
	FileContents(ctx context.Context, doc *entities.Document) ([]byte, error)
	AccessURL(ctx context.Context, doc *entities.Document) (string, error)
	FileExists(doc *entities.Document) bool
	StoragePath(doc *entities.Document) string
}

// DocumentUseCase handles documents and their attached file
type DocumentUseCase struct {
	docs   repository.DocumentRepository
	files  DocumentAttachment
	logger *zap.Logger
}

// NewDocumentUseCase creates a new document use case
func NewDocumentUseCase(docs repository.DocumentRepository, files DocumentAttachment, logger *zap.Logger) *DocumentUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentUseCase{
		docs:   docs,
		files:  files,
		logger: logger,
	}
}

// Create stores a new document without a file
func (uc *DocumentUseCase) Create(ctx context.Context, title string) (*entities.DocumentView, error) {
	doc := &entities.Document{Title: title}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return uc.view(ctx, doc), nil
}

// Get returns a document with its file path and URL
func (uc *DocumentUseCase) Get(ctx context.Context, id int64) (*entities.DocumentView, error) {
	doc, err := uc.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, doc), nil
}

// List returns a page of documents
func (uc *DocumentUseCase) List(ctx context.Context, limit, offset int) ([]*entities.DocumentView, error) {
	docs, err := uc.docs.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]*entities.DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, uc.view(ctx, doc))
	}
	return views, nil
}

// AttachFile replaces the file of document id with file and saves the document
func (uc *DocumentUseCase) AttachFile(ctx context.Context, id int64, file attachment.File) (*entities.DocumentView, error) {
	doc, err := uc.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := uc.files.StoreFile(ctx, doc, file, true)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("file attached", zap.Int64("document_id", id), zap.String("path", path))
	return uc.view(ctx, doc), nil
}

// DownloadFile returns the stored file name and contents of document id
func (uc *DocumentUseCase) DownloadFile(ctx context.Context, id int64) (string, []byte, error) {
	doc, err := uc.docs.Find(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if !uc.files.FileExists(doc) {
		return "", nil, ErrNoFile
	}

	data, err := uc.files.FileContents(ctx, doc)
	if err != nil {
		return "", nil, err
	}
	return doc.FileName, data, nil
}

// DetachFile deletes the file of document id and saves the document.
// Detaching a document without a file succeeds.
func (uc *DocumentUseCase) DetachFile(ctx context.Context, id int64) (*entities.DocumentView, error) {
	doc, err := uc.docs.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.files.DeleteFile(ctx, doc, true); err != nil {
		return nil, err
	}

	uc.logger.Info("file detached", zap.Int64("document_id", id))
	return uc.view(ctx, doc), nil
}

// Delete removes document id. Its file is removed by the repository's
// before-delete hook.
func (uc *DocumentUseCase) Delete(ctx context.Context, id int64) error {
	doc, err := uc.docs.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.docs.Delete(ctx, doc); err != nil {
		return err
	}

	uc.logger.Info("document deleted", zap.Int64("document_id", id))
	return nil
}

func (uc *DocumentUseCase) view(ctx context.Context, doc *entities.Document) *entities.DocumentView {
	v := &entities.DocumentView{Document: doc}
	if !uc.files.FileExists(doc) {
		return v
	}

	v.HasFile = true
	v.Path = uc.files.StoragePath(doc)
	url, err := uc.files.AccessURL(ctx, doc)
	if err != nil {
		uc.logger.Warn("failed to build file url", zap.Int64("document_id", doc.ID), zap.Error(err))
	}
	v.URL = url
	return v
}
