package attachment

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// File is the input of StoreFile.
type File interface {
	// Name returns the name the file is stored under.
	Name() string
	// Open returns the content of the file.
	Open() (io.ReadCloser, error)
}

// ClientNamer is implemented by uploaded files. The client supplied name
// takes precedence over Name.
type ClientNamer interface {
	ClientOriginalName() string
}

// UploadedFile is a file received in a multipart request.
type UploadedFile struct {
	header *multipart.FileHeader
}

// NewUploadedFile wraps a multipart file header.
func NewUploadedFile(header *multipart.FileHeader) *UploadedFile {
	return &UploadedFile{header: header}
}

func (f *UploadedFile) Name() string { return f.header.Filename }

// ClientOriginalName returns the file name sent by the client.
func (f *UploadedFile) ClientOriginalName() string { return f.header.Filename }

// Size returns the size reported in the multipart header.
func (f *UploadedFile) Size() int64 { return f.header.Size }

func (f *UploadedFile) Open() (io.ReadCloser, error) { return f.header.Open() }

// LocalFile is a file read from the local filesystem.
type LocalFile struct {
	path string
}

// NewLocalFile wraps the file at path. The file is opened on StoreFile.
func NewLocalFile(path string) *LocalFile {
	return &LocalFile{path: path}
}

func (f *LocalFile) Name() string { return filepath.Base(f.path) }

func (f *LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// MemoryFile is a file held in memory.
type MemoryFile struct {
	name string
	data []byte
}

// NewMemoryFile creates a file with the given name and content.
func NewMemoryFile(name string, data []byte) *MemoryFile {
	return &MemoryFile{name: name, data: data}
}

func (f *MemoryFile) Name() string { return f.name }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// fileName picks the name to store file under, reduced to its last element.
func fileName(file File) (string, error) {
	raw := file.Name()
	if c, ok := file.(ClientNamer); ok {
		raw = c.ClientOriginalName()
	}
	name := path.Base(strings.ReplaceAll(raw, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, raw)
	}
	return name, nil
}
