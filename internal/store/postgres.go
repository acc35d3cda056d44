package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store on a JSONB documents table using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const documentsTable = "documents"

var documentColumns = []string{"collection", "key", "body", "message_date"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	collection   TEXT NOT NULL,
	key          TEXT NOT NULL,
	body         JSONB NOT NULL,
	message_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
);

CREATE INDEX IF NOT EXISTS idx_documents_message_date ON documents(collection, message_date);
`

func postgresFieldExpr(field string) string {
	return fmt.Sprintf("(body->>'%s')", field)
}

func postgresIndexSQL(c Collection, field string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_%s ON documents(collection, %s)",
		strings.ToLower(string(c)), strings.ToLower(field), postgresFieldExpr(field),
	)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the documents table and the expression indexes used by
// FindBy lookups.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	for _, ix := range indexedFields {
		if _, err := s.pool.Exec(ctx, postgresIndexSQL(ix.Collection, ix.Field)); err != nil {
			return eris.Wrapf(err, "postgres: create index on %s.%s", ix.Collection, ix.Field)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertDocuments(ctx context.Context, c Collection, docs []model.Document) (UpsertResult, error) {
	if err := checkCollection(c); err != nil {
		return UpsertResult{}, err
	}
	now := s.now().UTC()
	batch, res := prepareBatch(c, docs, now)
	if len(batch) == 0 {
		return res, nil
	}

	rows := make([][]any, 0, len(batch))
	for _, kd := range batch {
		body, err := json.Marshal(kd.body)
		if err != nil {
			return res, eris.Wrapf(err, "postgres: marshal %s/%s", c, kd.key)
		}
		rows = append(rows, []any{string(c), kd.key, string(body), now})
	}

	counts, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        documentsTable,
		Columns:      documentColumns,
		ConflictKeys: []string{"collection", "key"},
	}, rows)
	if err != nil {
		return res, eris.Wrapf(err, "postgres: upsert %s", c)
	}
	res.Inserted = int(counts.Inserted)
	res.Updated = int(counts.Updated)
	return res, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, c Collection, key string) (model.Document, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND key = $2`, string(c), key,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s/%s", c, key)
	}
	return decodeBody(body)
}

func (s *PostgresStore) ExistingKeys(ctx context.Context, c Collection, keys []string) (map[string]bool, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM documents WHERE collection = $1 AND key = ANY($2)`, string(c), keys,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: existing keys %s", c)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		out[k] = true
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate keys")
}

func (s *PostgresStore) FindBy(ctx context.Context, c Collection, field string, values []string, since time.Time) ([]model.Document, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	if err := checkField(field); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(
		`SELECT body FROM documents WHERE collection = $1 AND message_date >= $2 AND %s = ANY($3) ORDER BY message_date, key`,
		postgresFieldExpr(field),
	)
	rows, err := s.pool.Query(ctx, q, string(c), since.UTC(), values)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find %s by %s", c, field)
	}
	return scanPgBodies(rows)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, c Collection, opts ListOptions) ([]model.Document, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	var limit any
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM documents WHERE collection = $1 ORDER BY message_date DESC, key LIMIT $2 OFFSET $3`,
		string(c), limit, opts.Offset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", c)
	}
	return scanPgBodies(rows)
}

func (s *PostgresStore) Count(ctx context.Context, c Collection) (int, error) {
	if err := checkCollection(c); err != nil {
		return 0, err
	}
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE collection = $1`, string(c)).Scan(&n)
	return n, eris.Wrapf(err, "postgres: count %s", c)
}

func scanPgBodies(rows pgx.Rows) ([]model.Document, error) {
	defer rows.Close()
	var out []model.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		d, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate documents")
}
