package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/pkg/attachment"
)

// MockDocumentAttachment is a mock implementation of DocumentAttachment
type MockDocumentAttachment struct {
	mock.Mock
}

func (m *MockDocumentAttachment) StoreFile(ctx context.Context, doc *entities.Document, file attachment.File, persist bool) (string, error) {
	args := m.Called(ctx, doc, file, persist)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentAttachment) DeleteFile(ctx context.Context, doc *entities.Document, persist bool) error {
	args := m.Called(ctx, doc, persist)
	return args.Error(0)
}

func (m *MockDocumentAttachment) FileContents(ctx context.Context, doc *entities.Document) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocumentAttachment) AccessURL(ctx context.Context, doc *entities.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentAttachment) FileExists(doc *entities.Document) bool {
	args := m.Called(doc)
	return args.Bool(0)
}

func (m *MockDocumentAttachment) StoragePath(doc *entities.Document) string {
	args := m.Called(doc)
	return args.String(0)
}
