package repository

import (
	"database/sql"
	"time"

	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/pkg/attachment"
	"go.uber.org/zap"
)

// DocumentRepository stores documents in the documents table.
type DocumentRepository struct {
	*RecordRepository[*entities.Document]
}

var (
	_ repository.DocumentRepository        = (*DocumentRepository)(nil)
	_ attachment.Saver[*entities.Document] = (*DocumentRepository)(nil)
)

// DocumentSchema maps documents to the documents table with the file name
// stored in fileColumn.
func DocumentSchema(fileColumn string) Schema[*entities.Document] {
	return Schema[*entities.Document]{
		Table: entities.DocumentCollection,
		New:   func() *entities.Document { return &entities.Document{} },
		ID:    func(d *entities.Document) int64 { return d.ID },
		SetID: func(d *entities.Document, id int64) { d.ID = id },
		File:  entities.DocumentFileField(fileColumn),
		Timestamps: func(d *entities.Document) (*time.Time, *time.Time) {
			return &d.CreatedAt, &d.UpdatedAt
		},
		Columns: []Column[*entities.Document]{
			{
				Name:  "title",
				Type:  "TEXT NOT NULL DEFAULT ''",
				Value: func(d *entities.Document) any { return d.Title },
				Dest:  func(d *entities.Document) any { return &d.Title },
			},
		},
	}
}

// NewDocumentRepository creates a document repository
func NewDocumentRepository(db *sql.DB, fileColumn string, logger *zap.Logger) (*DocumentRepository, error) {
	records, err := NewRecordRepository(db, DocumentSchema(fileColumn), logger)
	if err != nil {
		return nil, err
	}
	return &DocumentRepository{RecordRepository: records}, nil
}
