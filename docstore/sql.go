package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DocumentsTable holds one row per document.
const DocumentsTable = "documents"

// lockTimeout bounds how long GET_LOCK waits, in seconds.
const lockTimeout = 10

// SQLBackend stores documents as rows in a MySQL table.
type SQLBackend struct {
	db *sql.DB
}

// OpenSQL connects to MySQL using a go-sql-driver DSN and creates the
// documents table if needed.
func OpenSQL(ctx context.Context, dsn string) (*SQLBackend, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	backend := NewSQLBackend(db)
	if err := backend.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return backend, nil
}

// NewSQLBackend wraps an open database handle.
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Migrate creates the documents table.
func (b *SQLBackend) Migrate(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+DocumentsTable+` (
    doc_key VARCHAR(191) PRIMARY KEY,
    body LONGTEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// Load selects the document body.
func (b *SQLBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx, `SELECT body FROM `+DocumentsTable+` WHERE doc_key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return body, nil
}

// Save upserts the document body.
func (b *SQLBackend) Save(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO `+DocumentsTable+` (doc_key, body) VALUES (?, ?) ON DUPLICATE KEY UPDATE body = VALUES(body)`,
		key, data)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Lock takes a MySQL named lock on a dedicated connection.
func (b *SQLBackend) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	name := lockName(key)
	var acquired sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, lockTimeout).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("get lock: %w", err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		conn.Close()
		return nil, fmt.Errorf("get lock %s: timed out", name)
	}

	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, name)
		conn.Close()
	}, nil
}

func lockName(key string) string {
	return "taskplanner." + key
}
