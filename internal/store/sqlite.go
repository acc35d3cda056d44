package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	collection   TEXT NOT NULL,
	key          TEXT NOT NULL,
	body         TEXT NOT NULL,
	message_date TEXT NOT NULL,
	PRIMARY KEY (collection, key)
);

CREATE INDEX IF NOT EXISTS idx_documents_message_date ON documents(collection, message_date);
`

func sqliteFieldExpr(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s')", field)
}

// Migrate creates the documents table and the expression indexes used by
// FindBy lookups.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	for _, ix := range indexedFields {
		stmt := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_%s ON documents(collection, %s)",
			strings.ToLower(string(ix.Collection)), strings.ToLower(ix.Field), sqliteFieldExpr(ix.Field),
		)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "sqlite: create index on %s.%s", ix.Collection, ix.Field)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) UpsertDocuments(ctx context.Context, c Collection, docs []model.Document) (UpsertResult, error) {
	if err := checkCollection(c); err != nil {
		return UpsertResult{}, err
	}
	batch, res := prepareBatch(c, docs, s.now())
	if len(batch) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, kd := range batch {
		body, err := json.Marshal(kd.body)
		if err != nil {
			return res, eris.Wrapf(err, "sqlite: marshal %s/%s", c, kd.key)
		}
		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM documents WHERE collection = ? AND key = ?`, string(c), kd.key,
		).Scan(&exists)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return res, eris.Wrapf(err, "sqlite: lookup %s/%s", c, kd.key)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (collection, key, body, message_date) VALUES (?, ?, ?, ?)
			 ON CONFLICT (collection, key) DO UPDATE SET body = excluded.body, message_date = excluded.message_date`,
			string(c), kd.key, string(body), kd.body.String(IngestedField),
		)
		if err != nil {
			return res, eris.Wrapf(err, "sqlite: upsert %s/%s", c, kd.key)
		}
		if exists == 1 {
			res.Updated++
		} else {
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{Attempted: res.Attempted, Skipped: res.Skipped}, eris.Wrap(err, "sqlite: commit upsert")
	}
	return res, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, c Collection, key string) (model.Document, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND key = ?`, string(c), key,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s/%s", c, key)
	}
	return decodeBody([]byte(body))
}

func (s *SQLiteStore) ExistingKeys(ctx context.Context, c Collection, keys []string) (map[string]bool, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	if len(keys) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, string(c))
	for _, k := range keys {
		args = append(args, k)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM documents WHERE collection = ? AND key IN (`+placeholders(len(keys))+`)`, args...,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: existing keys %s", c)
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan key")
		}
		out[k] = true
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate keys")
}

func (s *SQLiteStore) FindBy(ctx context.Context, c Collection, field string, values []string, since time.Time) ([]model.Document, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	if err := checkField(field); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(values)+2)
	args = append(args, string(c), FormatTime(since))
	for _, v := range values {
		args = append(args, v)
	}
	q := fmt.Sprintf(
		`SELECT body FROM documents WHERE collection = ? AND message_date >= ? AND %s IN (%s) ORDER BY message_date, key`,
		sqliteFieldExpr(field), placeholders(len(values)),
	)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find %s by %s", c, field)
	}
	return scanBodies(rows)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, c Collection, opts ListOptions) ([]model.Document, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY message_date DESC, key LIMIT ? OFFSET ?`,
		string(c), limit, opts.Offset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", c)
	}
	return scanBodies(rows)
}

func (s *SQLiteStore) Count(ctx context.Context, c Collection) (int, error) {
	if err := checkCollection(c); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, string(c)).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count %s", c)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanBodies(rows *sql.Rows) ([]model.Document, error) {
	defer rows.Close() //nolint:errcheck
	var out []model.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		d, err := decodeBody([]byte(body))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

func decodeBody(body []byte) (model.Document, error) {
	var d model.Document
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, eris.Wrap(err, "store: decode document")
	}
	return d, nil
}
