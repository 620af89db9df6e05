package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk stores objects as files below a root directory
type LocalDisk struct {
	root    string
	baseURL string
}

// NewLocalDisk creates a local disk rooted at root, creating the directory if needed.
func NewLocalDisk(root, baseURL string) (*LocalDisk, error) {
	if root == "" {
		return nil, errors.New("storage: local disk root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create disk root: %w", err)
	}
	return &LocalDisk{root: root, baseURL: baseURL}, nil
}

// Root returns the directory the disk writes to.
func (d *LocalDisk) Root() string {
	return d.root
}

// BaseURL returns the configured public base URL.
func (d *LocalDisk) BaseURL() string {
	return d.baseURL
}

func (d *LocalDisk) fullPath(key string) string {
	return filepath.Join(d.root, filepath.FromSlash(key))
}

// Put writes the content to a temporary file and renames it into place.
func (d *LocalDisk) Put(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := JoinKey(dir, name)
	if err != nil {
		return "", err
	}

	target := d.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := io.Copy(tempFile, r); err != nil {
		tempFile.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return key, nil
}

// Get opens the file stored under path.
func (d *LocalDisk) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := CleanKey(path)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	file, err := os.Open(d.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	return file, nil
}

// Exists reports whether a regular file is stored under path.
func (d *LocalDisk) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := CleanKey(path)
	if err != nil {
		return false, err
	}
	if key == "" {
		return false, nil
	}
	info, err := os.Stat(d.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DeleteDirectory removes the directory and everything below it.
func (d *LocalDisk) DeleteDirectory(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix, err := DirPrefix(dir)
	if err != nil {
		return err
	}
	if prefix == "" {
		return fmt.Errorf("%w: refusing to delete disk root", ErrInvalidPath)
	}
	return os.RemoveAll(d.fullPath(strings.TrimSuffix(prefix, "/")))
}

// URL joins the base URL with the escaped path.
func (d *LocalDisk) URL(ctx context.Context, path string) (string, error) {
	return publicURL(d.baseURL, path)
}

// Ping checks that the root is still a directory.
func (d *LocalDisk) Ping(ctx context.Context) error {
	info, err := os.Stat(d.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", d.root)
	}
	return nil
}

func publicURL(baseURL, path string) (string, error) {
	if baseURL == "" {
		return "", ErrURLUnsupported
	}
	key, err := CleanKey(path)
	if err != nil {
		return "", err
	}
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(segments, "/"), nil
}
