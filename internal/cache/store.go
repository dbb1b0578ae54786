// Package cache persists completed translations in a SQLite database so
// repeated runs over the same document skip already-translated text.
package cache

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"paper-translator/internal/doc"
	"paper-translator/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	fingerprint TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	translation TEXT NOT NULL,
	service     TEXT NOT NULL,
	model       TEXT NOT NULL,
	lang_in     TEXT NOT NULL,
	lang_out    TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_translations_langs ON translations(lang_in, lang_out);
`

// Entry is one cached translation.
type Entry struct {
	Fingerprint string
	Source      string
	Translation string
	Service     string
	Model       string
	LangIn      string
	LangOut     string
	CreatedAt   time.Time
}

// Store wraps the translation cache database. A nil Store is valid and acts
// as a disabled cache: lookups miss and writes are dropped.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, doc.NewError(doc.ErrCacheFailed, "failed to create cache directory", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, doc.NewError(doc.ErrCacheFailed, "failed to open cache database", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, doc.NewError(doc.ErrCacheFailed, "failed to initialize cache schema", err)
	}

	logger.Debug("translation cache opened", logger.String("path", path))
	return &Store{db: db, path: path}, nil
}

// OpenMemory opens an in-memory cache, used in tests and for --no-cache runs
// that still want request deduplication within a single document.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, doc.NewError(doc.ErrCacheFailed, "failed to open in-memory cache", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, doc.NewError(doc.ErrCacheFailed, "failed to initialize cache schema", err)
	}
	return &Store{db: db, path: ":memory:"}, nil
}

// Get returns the cached translation for fingerprint, if any.
func (s *Store) Get(fingerprint string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, nil
	}
	var translation string
	err := s.db.QueryRow(
		"SELECT translation FROM translations WHERE fingerprint = ?",
		fingerprint).Scan(&translation)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, doc.NewError(doc.ErrCacheFailed, "cache lookup failed", err)
	}
	return translation, true, nil
}

// Put stores a translation. An existing entry for the same fingerprint wins:
// concurrent workers producing the same key keep the first written value.
func (s *Store) Put(e Entry) error {
	if s == nil || s.db == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO translations
		(fingerprint, source, translation, service, model, lang_in, lang_out, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Fingerprint, e.Source, e.Translation, e.Service, e.Model,
		e.LangIn, e.LangOut, e.CreatedAt)
	if err != nil {
		return doc.NewError(doc.ErrCacheFailed, "cache write failed", err)
	}
	return nil
}

// PutReplace stores a translation, overwriting any existing entry. Used when
// the caller explicitly requested fresh translations.
func (s *Store) PutReplace(e Entry) error {
	if s == nil || s.db == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO translations
		(fingerprint, source, translation, service, model, lang_in, lang_out, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Fingerprint, e.Source, e.Translation, e.Service, e.Model,
		e.LangIn, e.LangOut, e.CreatedAt)
	if err != nil {
		return doc.NewError(doc.ErrCacheFailed, "cache write failed", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len() (int, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM translations").Scan(&n); err != nil {
		return 0, doc.NewError(doc.ErrCacheFailed, "cache count failed", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
