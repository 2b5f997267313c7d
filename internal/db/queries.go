package db

import (
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/ldspec/internal/errors"
)

// Document is a fetched upstream body.
type Document struct {
	ID          string
	URI         string
	ContentType string
	Body        []byte
	FetchedAt   int64
}

// NewID returns a fresh ULID string.
func NewID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// PutDocument stores d, replacing any earlier body for the same URI.
// ID and FetchedAt are filled in when empty.
func PutDocument(db *sql.DB, d *Document) error {
	if d.FetchedAt == 0 {
		d.FetchedAt = time.Now().Unix()
	}
	if d.ID == "" {
		d.ID = NewID(time.Unix(d.FetchedAt, 0))
	}

	query := `
		INSERT INTO documents (id, uri, content_type, body, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET
			id = excluded.id,
			content_type = excluded.content_type,
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`
	if _, err := db.Exec(query, d.ID, d.URI, toNullString(d.ContentType), d.Body, d.FetchedAt); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetDocument returns the stored body for uri. Rows older than maxAge are
// deleted and reported as not found. A non-positive maxAge disables expiry.
func GetDocument(db *sql.DB, uri string, maxAge time.Duration) (*Document, error) {
	row := db.QueryRow(`
		SELECT id, uri, content_type, body, fetched_at
		FROM documents
		WHERE uri = ?
	`, uri)

	var d Document
	var contentType sql.NullString
	err := row.Scan(&d.ID, &d.URI, &contentType, &d.Body, &d.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document not stored: "+uri, nil)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	d.ContentType = contentType.String

	if maxAge > 0 && time.Since(time.Unix(d.FetchedAt, 0)) > maxAge {
		if _, err := db.Exec("DELETE FROM documents WHERE uri = ?", uri); err != nil {
			return nil, errors.NewInternal(err)
		}
		return nil, errors.NewNotFound("document expired: "+uri, nil)
	}
	return &d, nil
}

// DeleteDocument removes the stored body for uri. Deleting a URI that is
// not stored is not an error.
func DeleteDocument(db *sql.DB, uri string) error {
	if _, err := db.Exec("DELETE FROM documents WHERE uri = ?", uri); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ClearDocuments removes every stored body and returns how many were removed.
func ClearDocuments(db *sql.DB) (int64, error) {
	result, err := db.Exec("DELETE FROM documents")
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// PurgeExpired removes bodies fetched more than maxAge ago.
func PurgeExpired(db *sql.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	result, err := db.Exec("DELETE FROM documents WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// CountDocuments returns the number of stored bodies.
func CountDocuments(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
