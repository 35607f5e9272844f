package main

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrRecordNotFound         = errors.New("record not found")
	ErrRecordExists           = errors.New("record already exists")
	ErrConcurrentModification = errors.New("concurrent modification")
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id            TEXT PRIMARY KEY,
		attributes    TEXT NOT NULL DEFAULT '{}',
		etag          TEXT NOT NULL,
		last_modified DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_employees_last_modified ON employees(last_modified);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// EmployeeRepository persists employee records with optimistic-concurrency
// updates: every write rotates the etag, and Replace only succeeds when the
// stored etag still matches the one the caller read.
type EmployeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, e Employee) (Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	e.ETag = uuid.NewString()
	e.LastModified = time.Now().UTC()

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return Employee{}, fmt.Errorf("encoding attributes for %s: %w", e.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO employees (id, attributes, etag, last_modified) VALUES (?, ?, ?, ?)`,
		e.ID, string(attrs), e.ETag, e.LastModified,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return Employee{}, fmt.Errorf("employee %s: %w", e.ID, ErrRecordExists)
		}
		return Employee{}, fmt.Errorf("creating employee %s: %w", e.ID, err)
	}

	log.Printf("employee created id=%s", e.ID)
	return e, nil
}

func (r *EmployeeRepository) Get(ctx context.Context, id string) (Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, attributes, etag, last_modified FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, fmt.Errorf("employee %s: %w", id, ErrRecordNotFound)
	}
	return e, err
}

// GetByName looks an employee up by the Name attribute, the fallback path
// when a query names a person instead of an ID.
func (r *EmployeeRepository) GetByName(ctx context.Context, name string) (Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, attributes, etag, last_modified FROM employees
		 WHERE lower(json_extract(attributes, '$.Name')) = lower(?) LIMIT 1`, name)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, fmt.Errorf("employee named %q: %w", name, ErrRecordNotFound)
	}
	return e, err
}

// Replace writes e back conditionally on e.ETag matching the stored value.
// Zero rows with the record still present means another writer got there
// first; that is reported, never retried here, so lost updates stay visible
// to the caller.
func (r *EmployeeRepository) Replace(ctx context.Context, e Employee) (Employee, error) {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return Employee{}, fmt.Errorf("encoding attributes for %s: %w", e.ID, err)
	}

	newETag := uuid.NewString()
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE employees SET attributes = ?, etag = ?, last_modified = ? WHERE id = ? AND etag = ?`,
		string(attrs), newETag, now, e.ID, e.ETag,
	)
	if err != nil {
		return Employee{}, fmt.Errorf("updating employee %s: %w", e.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Employee{}, fmt.Errorf("updating employee %s: %w", e.ID, err)
	}
	if affected == 0 {
		var count int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM employees WHERE id = ?`, e.ID).Scan(&count); err != nil {
			return Employee{}, fmt.Errorf("updating employee %s: %w", e.ID, err)
		}
		if count > 0 {
			return Employee{}, fmt.Errorf("employee %s: %w", e.ID, ErrConcurrentModification)
		}
		return Employee{}, fmt.Errorf("employee %s: %w", e.ID, ErrRecordNotFound)
	}

	e.ETag = newETag
	e.LastModified = now
	log.Printf("employee updated id=%s etag=%s", e.ID, newETag)
	return e, nil
}

// Update is a read-modify-write: the current record is read for its etag,
// the supplied fields are merged shallowly (top-level keys only, values
// replaced wholesale), and the write goes through Replace.
func (r *EmployeeRepository) Update(ctx context.Context, id string, partial map[string]any) (Employee, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	for k, v := range partial {
		e.Attributes[k] = v
	}
	return r.Replace(ctx, e)
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting employee %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting employee %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("employee %s: %w", id, ErrRecordNotFound)
	}
	log.Printf("employee deleted id=%s", id)
	return nil
}

var attributeNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Query returns records matching the equality filter, newest modification
// first, with an opaque continuation token for the next page. Filter keys
// come from LLM output, so anything that is not a plain attribute name is
// rejected rather than interpolated.
func (r *EmployeeRepository) Query(ctx context.Context, filter map[string]string, limit int, token string) ([]Employee, string, error) {
	if limit < 1 {
		limit = 100
	}
	offset, err := decodeContinuationToken(token)
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, attributes, etag, last_modified FROM employees`
	var args []any
	where := ""
	for key, value := range filter {
		if !attributeNameRegex.MatchString(key) {
			return nil, "", fmt.Errorf("invalid filter field %q", key)
		}
		if where == "" {
			where = ` WHERE `
		} else {
			where += ` AND `
		}
		where += fmt.Sprintf(`lower(json_extract(attributes, '$.%s')) = lower(?)`, key)
		args = append(args, value)
	}
	query += where + ` ORDER BY last_modified DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("querying employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(out) == limit {
		next = encodeContinuationToken(offset + limit)
	}
	return out, next, nil
}

func (r *EmployeeRepository) Random(ctx context.Context, n int) ([]Employee, error) {
	if n < 1 {
		n = 5
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, attributes, etag, last_modified FROM employees ORDER BY RANDOM() LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying random employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (Employee, error) {
	var e Employee
	var attrs string
	if err := row.Scan(&e.ID, &attrs, &e.ETag, &e.LastModified); err != nil {
		return Employee{}, err
	}
	if err := json.Unmarshal([]byte(attrs), &e.Attributes); err != nil {
		return Employee{}, fmt.Errorf("decoding attributes for %s: %w", e.ID, err)
	}
	return e, nil
}

func encodeContinuationToken(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeContinuationToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid continuation token: %w", err)
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid continuation token %q", token)
	}
	return offset, nil
}
