package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zots0127/onefile/internal/domain/repository"
	"github.com/zots0127/onefile/pkg/attachment"
	"go.uber.org/zap"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column maps an extra record field to a table column.
type Column[R any] struct {
	Name string
	// Type is the sqlite column type, TEXT when empty.
	Type string
	// Value returns the value written for the record.
	Value func(R) any
	// Dest returns the scan destination inside the record.
	Dest func(R) any
}

// Schema describes how records of type R map to a table. Every table has an
// integer id, the nullable file name column and two timestamps.
type Schema[R attachment.Record] struct {
	Table string
	New   func() R
	ID    func(R) int64
	SetID func(R, int64)
	// File is the file name field. Its Name is the column name.
	File attachment.Field[R]
	// Timestamps returns the created and updated fields of a record. Optional.
	Timestamps func(R) (created, updated *time.Time)
	Columns    []Column[R]
}

func (s Schema[R]) validate() error {
	if !identifierPattern.MatchString(s.Table) {
		return fmt.Errorf("invalid table name %q", s.Table)
	}
	if !identifierPattern.MatchString(s.File.Name) {
		return fmt.Errorf("invalid file column %q", s.File.Name)
	}
	if s.New == nil || s.ID == nil || s.SetID == nil || s.File.Get == nil || s.File.Set == nil {
		return fmt.Errorf("schema for %s is missing accessors", s.Table)
	}
	for _, c := range s.Columns {
		if !identifierPattern.MatchString(c.Name) || c.Value == nil || c.Dest == nil {
			return fmt.Errorf("invalid column %q", c.Name)
		}
	}
	return nil
}

// RecordRepository stores records of type R in one sqlite table. It
// implements attachment.Saver.
type RecordRepository[R attachment.Record] struct {
	db     *sql.DB
	schema Schema[R]
	logger *zap.Logger

	mu    sync.RWMutex
	hooks []attachment.BeforeDeleter[R]

	columns string
}

// NewRecordRepository creates a repository for schema.
func NewRecordRepository[R attachment.Record](db *sql.DB, schema Schema[R], logger *zap.Logger) (*RecordRepository[R], error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if err := schema.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	names := []string{"id", quote(schema.File.Name), "created_at", "updated_at"}
	for _, c := range schema.Columns {
		names = append(names, quote(c.Name))
	}

	return &RecordRepository[R]{
		db:      db,
		schema:  schema,
		logger:  logger.With(zap.String("table", schema.Table)),
		columns: strings.Join(names, ", "),
	}, nil
}

// Use registers hooks run by Delete before the row is removed, in order.
func (r *RecordRepository[R]) Use(hooks ...attachment.BeforeDeleter[R]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hooks...)
}

// Table returns the table name
func (r *RecordRepository[R]) Table() string {
	return r.schema.Table
}

// Migrate creates the table if it does not exist.
func (r *RecordRepository[R]) Migrate(ctx context.Context) error {
	defs := []string{
		"id INTEGER PRIMARY KEY AUTOINCREMENT",
		quote(r.schema.File.Name) + " TEXT NULL",
		"created_at DATETIME NOT NULL",
		"updated_at DATETIME NOT NULL",
	}
	for _, c := range r.schema.Columns {
		typ := c.Type
		if typ == "" {
			typ = "TEXT"
		}
		defs = append(defs, quote(c.Name)+" "+typ)
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(r.schema.Table), strings.Join(defs, ",\n\t"))
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", r.schema.Table, err)
	}
	return nil
}

// Create inserts record and sets its id.
func (r *RecordRepository[R]) Create(ctx context.Context, record R) error {
	now := time.Now().UTC()
	r.touch(record, now, true)

	names := []string{quote(r.schema.File.Name), "created_at", "updated_at"}
	args := []any{nullable(r.schema.File.Get(record)), now, now}
	for _, c := range r.schema.Columns {
		names = append(names, quote(c.Name))
		args = append(args, c.Value(record))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(r.schema.Table), strings.Join(names, ", "), placeholders(len(names)))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.schema.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read id: %w", err)
	}
	r.schema.SetID(record, id)

	r.logger.Debug("record created", zap.Int64("id", id))
	return nil
}

// Save writes every column of an existing record.
func (r *RecordRepository[R]) Save(ctx context.Context, record R) error {
	now := time.Now().UTC()

	sets := []string{quote(r.schema.File.Name) + " = ?", "updated_at = ?"}
	args := []any{nullable(r.schema.File.Get(record)), now}
	for _, c := range r.schema.Columns {
		sets = append(sets, quote(c.Name)+" = ?")
		args = append(args, c.Value(record))
	}
	args = append(args, r.schema.ID(record))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", quote(r.schema.Table), strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", r.schema.Table, r.schema.ID(record), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %d: %w", r.schema.Table, r.schema.ID(record), repository.ErrRecordNotFound)
	}
	r.touch(record, now, false)
	return nil
}

// Find loads the record with id.
func (r *RecordRepository[R]) Find(ctx context.Context, id int64) (R, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", r.columns, quote(r.schema.Table))
	record, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		var zero R
		return zero, fmt.Errorf("%s %d: %w", r.schema.Table, id, repository.ErrRecordNotFound)
	}
	return record, err
}

// List returns records ordered by id. A limit of zero or less returns all
// records from offset on.
func (r *RecordRepository[R]) List(ctx context.Context, limit, offset int) ([]R, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT ? OFFSET ?", r.columns, quote(r.schema.Table))
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.schema.Table, err)
	}
	defer rows.Close()

	records := make([]R, 0)
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Delete runs the before-delete hooks and removes the row. When a hook fails
// the row is kept and the hook error is returned.
func (r *RecordRepository[R]) Delete(ctx context.Context, record R) error {
	r.mu.RLock()
	hooks := append([]attachment.BeforeDeleter[R]{}, r.hooks...)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook.BeforeDelete(ctx, record); err != nil {
			return fmt.Errorf("before delete %s %d: %w", r.schema.Table, r.schema.ID(record), err)
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", quote(r.schema.Table))
	res, err := r.db.ExecContext(ctx, query, r.schema.ID(record))
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", r.schema.Table, r.schema.ID(record), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %d: %w", r.schema.Table, r.schema.ID(record), repository.ErrRecordNotFound)
	}

	r.logger.Debug("record deleted", zap.Int64("id", r.schema.ID(record)))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RecordRepository[R]) scan(row scanner) (R, error) {
	record := r.schema.New()
	var (
		id      int64
		file    sql.NullString
		created time.Time
		updated time.Time
	)
	dest := []any{&id, &file, &created, &updated}
	for _, c := range r.schema.Columns {
		dest = append(dest, c.Dest(record))
	}

	if err := row.Scan(dest...); err != nil {
		var zero R
		if errors.Is(err, sql.ErrNoRows) {
			return zero, err
		}
		return zero, fmt.Errorf("failed to scan %s: %w", r.schema.Table, err)
	}

	r.schema.SetID(record, id)
	r.schema.File.Set(record, file.String)
	if r.schema.Timestamps != nil {
		c, u := r.schema.Timestamps(record)
		*c, *u = created, updated
	}
	return record, nil
}

func (r *RecordRepository[R]) touch(record R, now time.Time, created bool) {
	if r.schema.Timestamps == nil {
		return
	}
	c, u := r.schema.Timestamps(record)
	if created {
		*c = now
	}
	*u = now
}

// nullable stores the empty file name as NULL.
func nullable(name string) sql.NullString {
	return sql.NullString{String: name, Valid: name != ""}
}

func quote(identifier string) string {
	return `"` + identifier + `"`
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
