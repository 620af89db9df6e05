// Package storage provides named storage disks used to keep attached files.
//
// A Disk is addressed by slash separated paths. A leading slash is allowed and
// ignored, so "/documents/7/test.pdf" and "documents/7/test.pdf" name the
// same object.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when the requested object does not exist on a disk.
	ErrNotFound = errors.New("storage: object not found")
	// ErrUnknownDisk is returned when a disk name is not registered.
	ErrUnknownDisk = errors.New("storage: unknown disk")
	// ErrUnknownDriver is returned when a disk config names an unsupported driver.
	ErrUnknownDriver = errors.New("storage: unknown driver")
	// ErrInvalidPath is returned for paths that escape the disk root.
	ErrInvalidPath = errors.New("storage: invalid path")
	// ErrURLUnsupported is returned by disks that are not configured to build URLs.
	ErrURLUnsupported = errors.New("storage: url generation not supported")
)

// Disk defines the operations a storage backend must provide
type Disk interface {
	// Put writes the reader content to dir/name and returns the written path.
	Put(ctx context.Context, dir, name string, r io.Reader) (string, error)

	// Get opens the object stored at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// DeleteDirectory removes every object under dir.
	// Deleting a directory that does not exist succeeds.
	DeleteDirectory(ctx context.Context, dir string) error
}

// URLGenerator is implemented by disks able to produce public URLs.
type URLGenerator interface {
	URL(ctx context.Context, path string) (string, error)
}

// Pinger is implemented by disks that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CleanKey normalizes p into a slash separated key without leading slash.
func CleanKey(p string) (string, error) {
	if strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	cleaned := path.Clean("/" + p)
	return strings.TrimPrefix(cleaned, "/"), nil
}

// JoinKey joins a directory and a file name into a disk key.
func JoinKey(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return "", ErrInvalidPath
	}
	key, err := CleanKey(dir)
	if err != nil {
		return "", err
	}
	if key == "" {
		return name, nil
	}
	return key + "/" + name, nil
}

// DirPrefix turns dir into a key prefix ending with a slash.
// An empty result means the whole disk.
func DirPrefix(dir string) (string, error) {
	key, err := CleanKey(dir)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", nil
	}
	return key + "/", nil
}
