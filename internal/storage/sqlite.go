package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"umlpdf/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			content JSON,
			content_hash TEXT,
			updated_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS elements (
			model TEXT REFERENCES models(name) ON DELETE CASCADE,
			id TEXT,
			kind TEXT,
			name TEXT,
			qualified TEXT,
			PRIMARY KEY (model, id)
		);`,
		`CREATE TABLE IF NOT EXISTS images (
			model TEXT,
			name TEXT,
			data BLOB,
			PRIMARY KEY (model, name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_name ON elements(model, name);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_qualified ON elements(model, qualified);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveModel stores doc and replaces the element index of the model with a
// fresh snapshot. Elements from a previous save that no longer exist are
// removed.
func (s *SQLiteStore) SaveModel(ctx context.Context, doc *model.Document) error {
	if doc == nil || doc.Name == "" {
		return fmt.Errorf("model document must have a name")
	}
	m, _, err := model.Build(doc, model.LoadOptions{})
	if err != nil {
		return fmt.Errorf("failed to build model %s: %w", doc.Name, err)
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode model %s: %w", doc.Name, err)
	}
	sum := sha256.Sum256(content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO models (name, content, content_hash, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			content=excluded.content,
			content_hash=excluded.content_hash,
			updated_at=excluded.updated_at
	`, doc.Name, content, hex.EncodeToString(sum[:]), time.Now().Unix()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE model = ?`, doc.Name); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO elements (model, id, kind, name, qualified) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(model, id) DO UPDATE SET
			kind=excluded.kind,
			name=excluded.name,
			qualified=excluded.qualified
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range m.Elements() {
		b := e.Base()
		if _, err := stmt.ExecContext(ctx, doc.Name, string(b.ID), string(e.Kind()), b.Name, model.QualifiedName(e)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadModel(ctx context.Context, name string) (*model.Document, error) {
	var content []byte
	row := s.db.QueryRowContext(ctx, "SELECT content FROM models WHERE name = ?", name)
	if err := row.Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("model %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query model %q: %w", name, err)
	}
	return model.DecodeDocument(content, model.FormatJSON)
}

func (s *SQLiteStore) ListModels(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.name, m.content_hash, m.updated_at,
			(SELECT COUNT(*) FROM elements e WHERE e.model = m.name AND e.kind != ?),
			(SELECT COUNT(*) FROM elements e WHERE e.model = m.name AND e.kind = ?)
		FROM models m ORDER BY m.name
	`, string(model.KindDiagram), string(model.KindDiagram))
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var out []ModelInfo
	for rows.Next() {
		var info ModelInfo
		var updated int64
		if err := rows.Scan(&info.Name, &info.ContentHash, &updated, &info.Elements, &info.Diagrams); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		info.UpdatedAt = time.Unix(updated, 0)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindElements(ctx context.Context, modelName, name string) ([]ElementRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, name, qualified FROM elements
		WHERE model = ? AND (name = ? OR qualified = ?)
		ORDER BY qualified
	`, modelName, name, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ElementRow
	for rows.Next() {
		var r ElementRow
		if err := rows.Scan(&r.ID, &r.Kind, &r.Name, &r.Qualified); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteModel(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM elements WHERE model = ?",
		"DELETE FROM images WHERE model = ?",
		"DELETE FROM models WHERE name = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- ImageStore Implementation ---

func (s *SQLiteStore) SaveImage(ctx context.Context, modelName, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images (model, name, data) VALUES (?, ?, ?)
		ON CONFLICT(model, name) DO UPDATE SET data=excluded.data
	`, modelName, name, data)
	return err
}

func (s *SQLiteStore) LoadImage(ctx context.Context, modelName, name string) ([]byte, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx, "SELECT data FROM images WHERE model = ? AND name = ?", modelName, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("image %q of model %q: %w", name, modelName, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}
