package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"detkit/internal/dataset"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverCGo    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

type SQLiteContainer struct {
	db       *sql.DB
	readOnly bool
}

func checkDriver(driver string) error {
	switch driver {
	case DriverCGo, DriverPureGo:
		return nil
	}
	return fmt.Errorf("%w: %q (supported: %s, %s)", ErrUnknownDriver, driver, DriverCGo, DriverPureGo)
}

// CreateContainer truncates any existing file at path and opens a fresh
// writable container.
func CreateContainer(ctx context.Context, path, driver string) (*SQLiteContainer, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to truncate container: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	c := &SQLiteContainer{db: db}
	if err := c.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return c, nil
}

// OpenContainer opens an existing container read-only.
func OpenContainer(ctx context.Context, path, driver string) (*SQLiteContainer, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}

	db, err := sql.Open(driver, readOnlyDSN(path))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteContainer{db: db, readOnly: true}, nil
}

func readOnlyDSN(path string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(path))
	return "file:" + escaped + "?mode=ro"
}

func (c *SQLiteContainer) Close() error {
	return c.db.Close()
}

func (c *SQLiteContainer) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			name TEXT PRIMARY KEY,
			dtype TEXT NOT NULL,
			shape JSON NOT NULL,
			data BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := c.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// --- ArrayStore Implementation ---

func (c *SQLiteContainer) Put(ctx context.Context, arr *dataset.Array) error {
	if c.readOnly {
		return ErrReadOnly
	}
	if err := arr.Validate(); err != nil {
		return err
	}
	shape, err := json.Marshal(arr.Shape)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO datasets (name, dtype, shape, data) VALUES (?, ?, ?, ?)`,
		arr.Name, string(arr.DType), string(shape), arr.Data)
	if err != nil {
		return fmt.Errorf("failed to store dataset %q: %w", arr.Name, err)
	}
	return nil
}

func (c *SQLiteContainer) Get(ctx context.Context, name string) (*dataset.Array, error) {
	row := c.db.QueryRowContext(ctx, "SELECT dtype, shape, data FROM datasets WHERE name = ?", name)

	var dtype, shape string
	var data []byte
	if err := row.Scan(&dtype, &shape, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, name)
		}
		return nil, fmt.Errorf("failed to load dataset %q: %w", name, err)
	}

	arr := &dataset.Array{Name: name, DType: dataset.DType(dtype), Data: data}
	if err := json.Unmarshal([]byte(shape), &arr.Shape); err != nil {
		return nil, fmt.Errorf("dataset %q: bad shape %q: %w", name, shape, err)
	}
	return arr, nil
}

func (c *SQLiteContainer) Names(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT name FROM datasets ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// --- MetaStore Implementation ---

func (c *SQLiteContainer) SetMeta(ctx context.Context, key, value string) error {
	if c.readOnly {
		return ErrReadOnly
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, key, value)
	return err
}

func (c *SQLiteContainer) Meta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, true, nil
}
