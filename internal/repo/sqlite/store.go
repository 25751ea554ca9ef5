// Package sqlite implements repo.Store on an SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sqlite_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/repo/list"
	"github.com/mkrupp/homecase-lists/internal/repo/user"
)

// StoreConfig holds configuration for the SQLite store.
type StoreConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/listsvc.db"`

	// BusyTimeout is how long a connection waits on a locked database
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// Store implements repo.Store using SQLite as the storage backend.
// Users and lists live in two tables; a list row holds the owner's whole
// item sequence as a JSON array.
type Store struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ repo.Store = (*Store)(nil)

// StoreFactory creates a factory function that returns a new Store.
// The factory function implements the repo.StoreFactory type.
func StoreFactory(cfg StoreConfig) repo.StoreFactory {
	return func(ctx context.Context) (repo.Store, error) {
		return NewStore(ctx, cfg)
	}
}

// NewStore opens the database at cfg.DatabasePath, creating parent directories
// and the schema as needed.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	log := logging.GetLogger("repo.sqlite.store").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.DatabasePath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(ctx, db); err != nil {
		db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.DebugContext(ctx, "store opened")

	return &Store{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         BLOB    PRIMARY KEY,
			name       TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS lists (
			owner_id BLOB PRIMARY KEY REFERENCES users (id),
			items    TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// View implements repo.Store.View.
func (s *Store) View(ctx context.Context, fn func(tx repo.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck

	return fn(&tx{sqlTx: sqlTx})
}

// Update implements repo.Store.Update.
func (s *Store) Update(ctx context.Context, fn func(tx repo.Tx) error) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(&tx{sqlTx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.log.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}

		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapError(err))
	}

	return nil
}

// Close implements repo.Store.Close by closing the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// mapError joins domain errors onto driver errors that carry domain meaning.
// A foreign key violation means a list would outlive or precede its user.
func mapError(err error) error {
	var liteErr *sqlite_.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return errors.Join(domain.ErrInconsistentState, err)
	}

	return err
}

type tx struct {
	sqlTx *sql.Tx
}

func (t *tx) Users() user.Repository { return userRepo{t.sqlTx} }
func (t *tx) Lists() list.Repository { return listRepo{t.sqlTx} }

type userRepo struct{ sqlTx *sql.Tx }

func (r userRepo) Get(ctx context.Context, id domain.ID) (*domain.User, bool, error) {
	var (
		u   domain.User
		raw []byte
	)

	err := r.sqlTx.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM users WHERE id = ?",
		id[:],
	).Scan(&raw, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	if u.ID, err = domain.IDFromBytes(raw); err != nil {
		return nil, false, fmt.Errorf("scan user id: %w", err)
	}

	return &u, true, nil
}

func (r userRepo) Insert(ctx context.Context, u domain.User) error {
	if _, err := r.sqlTx.ExecContext(ctx,
		`INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, created_at = excluded.created_at`,
		u.ID[:],
		u.Name,
		u.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}

	return nil
}

func (r userRepo) Remove(ctx context.Context, id domain.ID) error {
	if _, err := r.sqlTx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id[:]); err != nil {
		return fmt.Errorf("delete user: %w", mapError(err))
	}

	return nil
}

type listRepo struct{ sqlTx *sql.Tx }

func (r listRepo) Get(ctx context.Context, ownerID domain.ID) ([]domain.ListItem, bool, error) {
	var encoded []byte

	err := r.sqlTx.QueryRowContext(ctx,
		"SELECT items FROM lists WHERE owner_id = ?",
		ownerID[:],
	).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query list: %w", err)
	}

	items := []domain.ListItem{}
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, false, fmt.Errorf("decode list: %w", err)
	}

	return items, true, nil
}

func (r listRepo) CreateEmpty(ctx context.Context, ownerID domain.ID) error {
	return r.Replace(ctx, ownerID, nil)
}

func (r listRepo) Append(ctx context.Context, ownerID domain.ID, item domain.ListItem) error {
	items, ok, err := r.Get(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("append item: %w", err)
	}

	if !ok {
		return fmt.Errorf("append item: %w: owner %s", domain.ErrInconsistentState, ownerID)
	}

	return r.Replace(ctx, ownerID, append(items, item))
}

func (r listRepo) Replace(ctx context.Context, ownerID domain.ID, items []domain.ListItem) error {
	if items == nil {
		items = []domain.ListItem{}
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}

	if _, err := r.sqlTx.ExecContext(ctx,
		`INSERT INTO lists (owner_id, items) VALUES (?, ?)
		 ON CONFLICT (owner_id) DO UPDATE SET items = excluded.items`,
		ownerID[:],
		string(encoded),
	); err != nil {
		return fmt.Errorf("replace list: %w", mapError(err))
	}

	return nil
}

func (r listRepo) Remove(ctx context.Context, ownerID domain.ID) error {
	if _, err := r.sqlTx.ExecContext(ctx, "DELETE FROM lists WHERE owner_id = ?", ownerID[:]); err != nil {
		return fmt.Errorf("delete list: %w", mapError(err))
	}

	return nil
}
