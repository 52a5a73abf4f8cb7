// Package store handles SQLite persistence of analysis runs.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/eivanovue/cryptography/internal/model"
	"github.com/eivanovue/cryptography/internal/vigenere"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrNotFound is returned when no run matches an id.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned when an id prefix matches several runs.
	ErrAmbiguous = errors.New("run id prefix is ambiguous")
)

// timeLayout keeps a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Digest returns the hex BLAKE3 digest used to recognise repeated ciphertexts.
func Digest(ciphertext string) string {
	sum := blake3.Sum256([]byte(ciphertext))
	return hex.EncodeToString(sum[:])
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			key_len INTEGER NOT NULL,
			key TEXT NOT NULL,
			status TEXT NOT NULL,
			letters INTEGER NOT NULL,
			digest TEXT NOT NULL,
			ciphertext TEXT NOT NULL,
			plaintext TEXT NOT NULL,
			table_path TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_cosets (
			run_id INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			size INTEGER NOT NULL,
			shift INTEGER NOT NULL,
			fit REAL NOT NULL,
			ioc REAL NOT NULL,
			degenerate INTEGER NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a run and its cosets. Empty ID, CreatedAt and Digest
// fields are filled in; Status must name a vigenere.Status. It returns the public run id.
func (s *Store) InsertRun(ctx context.Context, run model.Run, cosets []model.CosetStats) (id string, err error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.Digest == "" {
		run.Digest = Digest(run.Ciphertext)
	}
	if _, err := vigenere.ParseStatus(run.Status); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, key_len, key, status, letters, digest, ciphertext, plaintext, table_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.KeyLen,
		run.Key,
		run.Status,
		run.Letters,
		run.Digest,
		run.Ciphertext,
		run.Plaintext,
		run.TablePath,
	)
	if err != nil {
		return "", err
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	if len(cosets) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO run_cosets (run_id, idx, size, shift, fit, ioc, degenerate)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, c := range cosets {
			if _, err = stmt.ExecContext(ctx, rowID, c.Index, c.Size, c.Shift, c.Fit, c.IoC, c.Degenerate); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// ListRuns returns runs newest first, filtered by cfg.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.KeyLen > 0 {
		clauses = append(clauses, "r.key_len = ?")
		args = append(args, cfg.KeyLen)
	}
	query := fmt.Sprintf(`SELECT r.run_id, r.created_at, r.key_len, r.key, r.status, r.letters,
		COALESCE(SUM(c.degenerate), 0) AS degenerate
		FROM runs r
		LEFT JOIN run_cosets c ON c.run_id = r.id
		WHERE %s
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	return s.querySummaries(ctx, query, args...)
}

// FindByDigest returns earlier runs over the same ciphertext, newest first.
func (s *Store) FindByDigest(ctx context.Context, digest string) ([]model.RunSummary, error) {
	return s.querySummaries(ctx, `SELECT r.run_id, r.created_at, r.key_len, r.key, r.status, r.letters,
		COALESCE(SUM(c.degenerate), 0) AS degenerate
		FROM runs r
		LEFT JOIN run_cosets c ON c.run_id = r.id
		WHERE r.digest = ?
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC`, digest)
}

func (s *Store) querySummaries(ctx context.Context, query string, args ...any) ([]model.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RunSummary
	for rows.Next() {
		var sum model.RunSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &createdAt, &sum.KeyLen, &sum.Key, &sum.Status, &sum.Letters, &sum.Degenerate); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		sum.CreatedAt = parsed
		result = append(result, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRun loads a run by full id or unique id prefix together with its cosets.
func (s *Store) GetRun(ctx context.Context, idPrefix string) (model.Run, []model.CosetStats, error) {
	idPrefix = strings.TrimSpace(idPrefix)
	if idPrefix == "" {
		return model.Run{}, nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, created_at, key_len, key, status, letters, digest, ciphertext, plaintext, table_path
		 FROM runs WHERE substr(run_id, 1, length(?)) = ? LIMIT 2`, idPrefix, idPrefix)
	if err != nil {
		return model.Run{}, nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var (
		run     model.Run
		rowID   int64
		matches int
	)
	for rows.Next() {
		matches++
		var createdAt string
		if err := rows.Scan(&rowID, &run.ID, &createdAt, &run.KeyLen, &run.Key, &run.Status, &run.Letters,
			&run.Digest, &run.Ciphertext, &run.Plaintext, &run.TablePath); err != nil {
			return model.Run{}, nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return model.Run{}, nil, err
		}
		run.CreatedAt = parsed
	}
	if err := rows.Err(); err != nil {
		return model.Run{}, nil, err
	}
	switch {
	case matches == 0:
		return model.Run{}, nil, ErrNotFound
	case matches > 1:
		return model.Run{}, nil, ErrAmbiguous
	}

	cosets, err := s.listCosets(ctx, rowID)
	if err != nil {
		return model.Run{}, nil, err
	}
	return run, cosets, nil
}

func (s *Store) listCosets(ctx context.Context, rowID int64) ([]model.CosetStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, size, shift, fit, ioc, degenerate FROM run_cosets WHERE run_id = ? ORDER BY idx ASC`, rowID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CosetStats
	for rows.Next() {
		var c model.CosetStats
		if err := rows.Scan(&c.Index, &c.Size, &c.Shift, &c.Fit, &c.IoC, &c.Degenerate); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
