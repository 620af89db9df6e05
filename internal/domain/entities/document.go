package entities

import (
	"strconv"
	"time"

	"github.com/zots0127/onefile/pkg/attachment"
)

// Document is a record carrying at most one attached file.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentCollection is the collection, and table, documents are stored in.
var DocumentCollection = attachment.DefaultCollectionName(Document{})

func (d *Document) RecordID() string { return strconv.FormatInt(d.ID, 10) }

func (d *Document) CollectionName() string { return DocumentCollection }

// DocumentFileField maps the file name of a document to column.
func DocumentFileField(column string) attachment.Field[*Document] {
	return attachment.Field[*Document]{
		Name: column,
		Get:  func(d *Document) string { return d.FileName },
		Set:  func(d *Document, name string) { d.FileName = name },
	}
}

// DocumentView is a document as returned by the API.
type DocumentView struct {
	*Document
	HasFile bool   `json:"has_file"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
}
