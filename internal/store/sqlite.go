package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"claimcheck/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS claims (
	id              TEXT PRIMARY KEY,
	text            TEXT NOT NULL,
	media           TEXT NOT NULL DEFAULT '[]',
	original_source TEXT NOT NULL DEFAULT '{}',
	status          TEXT NOT NULL DEFAULT 'pending',
	confidence      REAL NOT NULL DEFAULT 0,
	priority        INTEGER NOT NULL DEFAULT 0,
	evidence        TEXT NOT NULL DEFAULT '[]',
	explanations    TEXT NOT NULL DEFAULT '{}',
	extracted       TEXT NOT NULL DEFAULT '{}',
	diagnostics     TEXT,
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL,
	verified_at     TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);
CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at);
`

// SQLiteStore is the sqlite-backed claim store
type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

// OpenSQLite creates or opens the claim database at the given path
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{conn: conn, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// Create inserts a new pending claim
func (s *SQLiteStore) Create(ctx context.Context, claim *model.Claim) error {
	now := s.now().UTC()
	claim.CreatedAt = now
	claim.UpdatedAt = now
	if claim.Status == "" {
		claim.Status = model.StatusPending
	}

	media, err := json.Marshal(claim.Media)
	if err != nil {
		return fmt.Errorf("marshal media: %w", err)
	}
	source, err := json.Marshal(claim.OriginalSource)
	if err != nil {
		return fmt.Errorf("marshal original source: %w", err)
	}
	extracted, err := json.Marshal(claim.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO claims (id, text, media, original_source, status, extracted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		claim.ID, claim.Text, string(media), string(source), string(claim.Status), string(extracted), now, now)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// Get reads one claim by id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Claim, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, text, media, original_source, status, confidence, priority,
		       evidence, explanations, extracted, created_at, updated_at, verified_at
		FROM claims WHERE id = ?`, id)
	return scanClaim(row)
}

// List returns the most recently created claims, newest first
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.Claim, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, text, media, original_source, status, confidence, priority,
		       evidence, explanations, extracted, created_at, updated_at, verified_at
		FROM claims ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []model.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

// SetStatus updates just the lifecycle status
func (s *SQLiteStore) SetStatus(ctx context.Context, id string, status model.Status) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE claims SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res)
}

// Complete writes the terminal result in one update
func (s *SQLiteStore) Complete(ctx context.Context, id string, result Result) error {
	evidence, err := json.Marshal(result.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}
	explanations, err := json.Marshal(result.Explanations)
	if err != nil {
		return fmt.Errorf("marshal explanations: %w", err)
	}

	// Merge recency into the existing extracted passthrough
	claim, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	claim.Extracted.Recency = result.Recency
	extracted, err := json.Marshal(claim.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted: %w", err)
	}

	now := s.now().UTC()
	res, err := s.conn.ExecContext(ctx, `
		UPDATE claims
		SET status = ?, confidence = ?, priority = ?, evidence = ?,
		    explanations = ?, extracted = ?, diagnostics = ?, updated_at = ?, verified_at = ?
		WHERE id = ?`,
		string(result.Status), result.Confidence, result.Priority, string(evidence),
		string(explanations), string(extracted), nullableJSON(result.Diagnostics), now, now, id)
	if err != nil {
		return fmt.Errorf("complete claim: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var (
		claim        model.Claim
		media        string
		source       string
		status       string
		evidence     string
		explanations string
		extracted    string
		verifiedAt   sql.NullTime
	)

	err := row.Scan(&claim.ID, &claim.Text, &media, &source, &status,
		&claim.Confidence, &claim.Priority, &evidence, &explanations,
		&extracted, &claim.CreatedAt, &claim.UpdatedAt, &verifiedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan claim: %w", err)
	}

	claim.Status = model.Status(status)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		claim.VerifiedAt = &t
	}

	if err := json.Unmarshal([]byte(media), &claim.Media); err != nil {
		return nil, fmt.Errorf("unmarshal media: %w", err)
	}
	if err := json.Unmarshal([]byte(source), &claim.OriginalSource); err != nil {
		return nil, fmt.Errorf("unmarshal original source: %w", err)
	}
	if err := json.Unmarshal([]byte(evidence), &claim.Evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(explanations), &claim.Explanations); err != nil {
		return nil, fmt.Errorf("unmarshal explanations: %w", err)
	}
	if err := json.Unmarshal([]byte(extracted), &claim.Extracted); err != nil {
		return nil, fmt.Errorf("unmarshal extracted: %w", err)
	}

	return &claim, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
