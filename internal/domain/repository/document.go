package repository

import (
	"context"
	"errors"

	"github.com/zots0127/onefile/internal/domain/entities"
)

// ErrRecordNotFound is returned when no row matches the requested id.
var ErrRecordNotFound = errors.New("record not found")

// DocumentRepository persists documents. Save satisfies attachment.Saver.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entities.Document) error
	Save(ctx context.Context, doc *entities.Document) error
	Find(ctx context.Context, id int64) (*entities.Document, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Document, error)
	// Delete runs the registered before-delete hooks and removes the row.
	// A failing hook aborts the delete.
	Delete(ctx context.Context, doc *entities.Document) error
}
