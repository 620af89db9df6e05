package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zots0127/onefile/internal/domain/entities"
	domain "github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/internal/infrastructure/repository"
	"github.com/zots0127/onefile/pkg/attachment"
	"github.com/zots0127/onefile/pkg/storage"
	"github.com/zots0127/onefile/pkg/storage/storagetest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := repository.OpenSQLite(context.Background(), repository.SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newDocuments(t *testing.T, db *sql.DB) *repository.DocumentRepository {
	t.Helper()
	docs, err := repository.NewDocumentRepository(db, "file_name", nil)
	require.NoError(t, err)
	require.NoError(t, docs.Migrate(context.Background()))
	return docs
}

type hookFunc[R any] func(ctx context.Context, record R) error

func (f hookFunc[R]) BeforeDelete(ctx context.Context, record R) error { return f(ctx, record) }

func TestRecordRepository_CreateFind(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	docs := newDocuments(t, db)
	require.NoError(t, docs.Migrate(ctx), "migrate is idempotent")

	doc := &entities.Document{Title: "Contract"}
	require.NoError(t, docs.Create(ctx, doc))
	assert.Equal(t, int64(1), doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())

	found, err := docs.Find(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contract", found.Title)
	assert.Empty(t, found.FileName)
	assert.WithinDuration(t, doc.CreatedAt, found.CreatedAt, time.Second)

	var isNull bool
	require.NoError(t, db.QueryRow(`SELECT file_name IS NULL FROM documents WHERE id = ?`, doc.ID).Scan(&isNull))
	assert.True(t, isNull, "no file is stored as NULL")
}

func TestRecordRepository_Save(t *testing.T) {
	ctx := context.Background()
	docs := newDocuments(t, openTestDB(t))

	doc := &entities.Document{Title: "Invoice"}
	require.NoError(t, docs.Create(ctx, doc))

	doc.FileName = "invoice.pdf"
	doc.Title = "Invoice 2"
	require.NoError(t, docs.Save(ctx, doc))

	found, err := docs.Find(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", found.FileName)
	assert.Equal(t, "Invoice 2", found.Title)

	err = docs.Save(ctx, &entities.Document{ID: 99})
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRecordRepository_FindMissing(t *testing.T) {
	docs := newDocuments(t, openTestDB(t))

	_, err := docs.Find(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRecordRepository_List(t *testing.T) {
	ctx := context.Background()
	docs := newDocuments(t, openTestDB(t))
	for i := 1; i <= 5; i++ {
		require.NoError(t, docs.Create(ctx, &entities.Document{Title: "doc " + strconv.Itoa(i)}))
	}

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected []int64
	}{
		{name: "all", limit: 0, expected: []int64{1, 2, 3, 4, 5}},
		{name: "first page", limit: 2, expected: []int64{1, 2}},
		{name: "second page", limit: 2, offset: 2, expected: []int64{3, 4}},
		{name: "past the end", limit: 2, offset: 10, expected: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := docs.List(ctx, tt.limit, tt.offset)
			require.NoError(t, err)
			ids := make([]int64, 0, len(list))
			for _, d := range list {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestRecordRepository_DeleteRunsHooks(t *testing.T) {
	ctx := context.Background()
	docs := newDocuments(t, openTestDB(t))

	var calls []string
	docs.Use(
		hookFunc[*entities.Document](func(ctx context.Context, d *entities.Document) error {
			calls = append(calls, "first")
			return nil
		}),
		hookFunc[*entities.Document](func(ctx context.Context, d *entities.Document) error {
			calls = append(calls, "second")
			return nil
		}),
	)

	doc := &entities.Document{Title: "x"}
	require.NoError(t, docs.Create(ctx, doc))
	require.NoError(t, docs.Delete(ctx, doc))

	assert.Equal(t, []string{"first", "second"}, calls)
	_, err := docs.Find(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	assert.ErrorIs(t, docs.Delete(ctx, doc), domain.ErrRecordNotFound)
}

func TestRecordRepository_HookErrorKeepsRow(t *testing.T) {
	ctx := context.Background()
	docs := newDocuments(t, openTestDB(t))
	hookErr := errors.New("disk offline")
	docs.Use(hookFunc[*entities.Document](func(context.Context, *entities.Document) error { return hookErr }))

	doc := &entities.Document{Title: "x"}
	require.NoError(t, docs.Create(ctx, doc))

	assert.ErrorIs(t, docs.Delete(ctx, doc), hookErr)
	_, err := docs.Find(ctx, doc.ID)
	assert.NoError(t, err)
}

func TestNewRecordRepository_InvalidSchema(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		name   string
		modify func(*repository.Schema[*entities.Document])
	}{
		{name: "table", modify: func(s *repository.Schema[*entities.Document]) { s.Table = "documents; DROP TABLE x" }},
		{name: "file column", modify: func(s *repository.Schema[*entities.Document]) { s.File.Name = "file name" }},
		{name: "accessor", modify: func(s *repository.Schema[*entities.Document]) { s.SetID = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := repository.DocumentSchema("file_name")
			tt.modify(&schema)
			_, err := repository.NewRecordRepository(db, schema, nil)
			assert.Error(t, err)
		})
	}
}

func TestDocumentRepository_WithAttachment(t *testing.T) {
	ctx := context.Background()
	docs := newDocuments(t, openTestDB(t))
	disks := storage.NewManager("local")
	disk := storagetest.Fake(disks, "local")

	att, err := attachment.New[*entities.Document](disks, docs, attachment.Config[*entities.Document]{
		Field: entities.DocumentFileField("file_name"),
	})
	require.NoError(t, err)
	docs.Use(att)

	doc := &entities.Document{Title: "Report"}
	require.NoError(t, docs.Create(ctx, doc))

	path, err := att.StoreFile(ctx, doc, attachment.NewMemoryFile("test.pdf", []byte("pdf")), true)
	require.NoError(t, err)
	assert.Equal(t, "/documents/1/test.pdf", path)

	reloaded, err := docs.Find(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "test.pdf", reloaded.FileName)

	_, err = att.StoreFile(ctx, reloaded, attachment.NewMemoryFile("draft.pdf", []byte("draft")), false)
	require.NoError(t, err)
	again, err := docs.Find(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "test.pdf", again.FileName, "not persisted")
	storagetest.AssertExists(t, disk, "/documents/1/draft.pdf")

	require.NoError(t, docs.Delete(ctx, reloaded))
	assert.Empty(t, disk.Keys("/documents/1/"))
}

type customDocument struct {
	ID              int64
	CustomFileField string
}

func (d *customDocument) RecordID() string       { return strconv.FormatInt(d.ID, 10) }
func (d *customDocument) CollectionName() string { return "custom_documents" }

func TestRecordRepository_CustomFileColumn(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	field := attachment.Field[*customDocument]{
		Name: "custom_file_field",
		Get:  func(d *customDocument) string { return d.CustomFileField },
		Set:  func(d *customDocument, name string) { d.CustomFileField = name },
	}
	records, err := repository.NewRecordRepository(db, repository.Schema[*customDocument]{
		Table: "custom_documents",
		New:   func() *customDocument { return &customDocument{} },
		ID:    func(d *customDocument) int64 { return d.ID },
		SetID: func(d *customDocument, id int64) { d.ID = id },
		File:  field,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, records.Migrate(ctx))

	disks := storage.NewManager("local")
	disk := storagetest.Fake(disks, "local")
	att, err := attachment.New[*customDocument](disks, records, attachment.Config[*customDocument]{Field: field})
	require.NoError(t, err)

	doc := &customDocument{}
	require.NoError(t, records.Create(ctx, doc))
	path, err := att.StoreFile(ctx, doc, attachment.NewMemoryFile("test.pdf", []byte("x")), true)
	require.NoError(t, err)

	assert.Equal(t, "/custom_documents/1/test.pdf", path)
	storagetest.AssertExists(t, disk, path)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT custom_file_field FROM custom_documents WHERE id = ?`, doc.ID).Scan(&stored))
	assert.Equal(t, "test.pdf", stored)
}
