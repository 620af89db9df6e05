package attachment_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/zots0127/onefile/pkg/attachment"
)

type document struct {
	ID       int64
	fileName string
}

func (d *document) RecordID() string        { return strconv.FormatInt(d.ID, 10) }
func (d *document) CollectionName() string  { return attachment.DefaultCollectionName(d) }
func (d *document) FileName() string        { return d.fileName }
func (d *document) SetFileName(name string) { d.fileName = name }

type customDocument struct {
	ID              int64
	CustomFileField string
}

func (d *customDocument) RecordID() string       { return strconv.FormatInt(d.ID, 10) }
func (d *customDocument) CollectionName() string { return "custom_documents" }

var customField = attachment.Field[*customDocument]{
	Name: "custom_file_field",
	Get:  func(d *customDocument) string { return d.CustomFileField },
	Set:  func(d *customDocument, name string) { d.CustomFileField = name },
}

// memorySaver keeps the last saved file name per record id, standing in for
// the database row.
type memorySaver[R attachment.Record] struct {
	mu    sync.Mutex
	get   func(R) string
	rows  map[string]string
	saves int
	err   error
}

func newMemorySaver[R attachment.Record](get func(R) string) *memorySaver[R] {
	return &memorySaver[R]{get: get, rows: make(map[string]string)}
}

func (s *memorySaver[R]) Save(ctx context.Context, record R) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.err != nil {
		return s.err
	}
	s.rows[record.RecordID()] = s.get(record)
	return nil
}

func (s *memorySaver[R]) persisted(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}

func (s *memorySaver[R]) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func documentSaver() *memorySaver[*document] {
	return newMemorySaver(func(d *document) string { return d.fileName })
}

type recordingObserver struct {
	mu      sync.Mutex
	stores  []error
	deletes []error
	reads   []error
	bytes   int64
}

func (o *recordingObserver) RecordStore(disk string, d time.Duration, size int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stores = append(o.stores, err)
	o.bytes += size
}

func (o *recordingObserver) RecordDelete(disk string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deletes = append(o.deletes, err)
}

func (o *recordingObserver) RecordRead(disk string, d time.Duration, size int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reads = append(o.reads, err)
}

var errBackend = errors.New("backend unavailable")

// keyedDocument has a free-form string id and collection.
type keyedDocument struct {
	key        string
	collection string
	fileName   string
}

func (d *keyedDocument) RecordID() string        { return d.key }
func (d *keyedDocument) CollectionName() string  { return d.collection }
func (d *keyedDocument) FileName() string        { return d.fileName }
func (d *keyedDocument) SetFileName(name string) { d.fileName = name }
