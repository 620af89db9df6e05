package handler_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zots0127/onefile/internal/adapter/handler"
	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/internal/usecase"
	"github.com/zots0127/onefile/internal/usecase/mocks"
	"github.com/zots0127/onefile/pkg/attachment"
	"github.com/zots0127/onefile/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newDocumentRouter() (*gin.Engine, *mocks.MockDocumentRepository, *mocks.MockDocumentAttachment) {
	docs := new(mocks.MockDocumentRepository)
	files := new(mocks.MockDocumentAttachment)
	router := gin.New()
	handler.NewDocumentHandler(usecase.NewDocumentUseCase(docs, files, nil), nil).RegisterRoutes(router)
	return router, docs, files
}

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDocumentHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: repository.ErrRecordNotFound, status: http.StatusNotFound},
		{name: "wrapped not found", err: errors.Join(errors.New("find"), repository.ErrRecordNotFound), status: http.StatusNotFound},
		{name: "storage failure", err: &attachment.Error{Op: "delete", Kind: attachment.ErrStorageDelete}, status: http.StatusInternalServerError},
		{name: "database failure", err: errors.New("database is locked"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, docs, _ := newDocumentRouter()
			docs.On("Find", mock.Anything, int64(3)).Return(nil, tt.err)

			w := serve(router, http.MethodGet, "/api/documents/3", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestDocumentHandler_Create(t *testing.T) {
	router, docs, files := newDocumentRouter()
	docs.On("Create", mock.Anything, mock.MatchedBy(func(d *entities.Document) bool {
		return d.Title == "Contract"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Document).ID = 1
	}).Return(nil)
	files.On("FileExists", mock.Anything).Return(false)

	w := serve(router, http.MethodPost, "/api/documents", []byte(`{"title":"Contract"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":1`)
	assert.Contains(t, w.Body.String(), `"has_file":false`)
	docs.AssertExpectations(t)
}

func TestDocumentHandler_Download(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		disposition string
	}{
		{name: "known extension", fileName: "photo.png", contentType: "image/png", disposition: "attachment; filename=photo.png"},
		{name: "unknown extension", fileName: "data.zzz", contentType: "application/octet-stream", disposition: "attachment; filename=data.zzz"},
		{name: "name with spaces", fileName: "my file.bin", contentType: "application/octet-stream", disposition: `attachment; filename="my file.bin"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, docs, files := newDocumentRouter()
			doc := &entities.Document{ID: 2, FileName: tt.fileName}
			docs.On("Find", mock.Anything, int64(2)).Return(doc, nil)
			files.On("FileExists", doc).Return(true)
			files.On("FileContents", mock.Anything, doc).Return([]byte("payload"), nil)

			w := serve(router, http.MethodGet, "/api/documents/2/file", nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "payload", w.Body.String())
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, tt.disposition, w.Header().Get("Content-Disposition"))
		})
	}
}

func TestDocumentHandler_DownloadReadFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "blob missing from disk",
			err:    &attachment.Error{Op: "read", Kind: attachment.ErrStorageRead, Err: storage.ErrNotFound},
			status: http.StatusNotFound,
		},
		{
			name:   "disk failure",
			err:    &attachment.Error{Op: "read", Kind: attachment.ErrStorageRead, Err: errors.New("connection reset")},
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, docs, files := newDocumentRouter()
			doc := &entities.Document{ID: 2, FileName: "a.pdf"}
			docs.On("Find", mock.Anything, int64(2)).Return(doc, nil)
			files.On("FileExists", doc).Return(true)
			files.On("FileContents", mock.Anything, doc).Return(nil, tt.err)

			w := serve(router, http.MethodGet, "/api/documents/2/file", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestDocumentHandler_DetachStorageFailure(t *testing.T) {
	router, docs, files := newDocumentRouter()
	doc := &entities.Document{ID: 2, FileName: "a.pdf"}
	docs.On("Find", mock.Anything, int64(2)).Return(doc, nil)
	files.On("DeleteFile", mock.Anything, doc, true).Return(&attachment.Error{Op: "delete", Kind: attachment.ErrStorageDelete})

	w := serve(router, http.MethodDelete, "/api/documents/2/file", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "storage delete failed")
}
