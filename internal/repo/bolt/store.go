// Package bolt implements repo.Store on a BoltDB file. Users and lists are kept
// in two buckets keyed by the raw id bytes, values are JSON documents.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mkrupp/homecase-lists/internal/domain"
	"github.com/mkrupp/homecase-lists/internal/infra/logging"
	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/repo/list"
	"github.com/mkrupp/homecase-lists/internal/repo/user"
)

//nolint:gochecknoglobals
var (
	usersBucket = []byte("users")
	listsBucket = []byte("lists")
)

// StoreConfig holds configuration for the BoltDB store.
type StoreConfig struct {
	// DatabasePath is the filesystem path to the BoltDB file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/listsvc.bolt"`

	// OpenTimeout bounds the wait for the file lock held by another process
	OpenTimeout time.Duration `env:"OPEN_TIMEOUT" default:"1s"`
}

// Store implements repo.Store using BoltDB.
type Store struct {
	db  *bolt.DB
	log logging.Logger
}

var _ repo.Store = (*Store)(nil)

// StoreFactory creates a factory function that returns a new Store.
func StoreFactory(cfg StoreConfig) repo.StoreFactory {
	return func(ctx context.Context) (repo.Store, error) {
		return NewStore(ctx, cfg)
	}
}

// NewStore opens (or creates) the BoltDB file and makes sure both buckets exist.
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	log := logging.GetLogger("repo.bolt.store").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := bolt.Open(cfg.DatabasePath, 0o600, &bolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Update(func(btx *bolt.Tx) error {
		for _, name := range [][]byte{usersBucket, listsBucket} {
			if _, err := btx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}

		return nil
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	log.DebugContext(ctx, "store opened")

	return &Store{db: db, log: log}, nil
}

// View implements repo.Store.View.
func (s *Store) View(ctx context.Context, fn func(tx repo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("view: %w", err)
	}

	//nolint:wrapcheck
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&tx{btx: btx})
	})
}

// Update implements repo.Store.Update. Bolt allows a single writer at a time,
// so Update calls are serialized by the database itself.
func (s *Store) Update(ctx context.Context, fn func(tx repo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	//nolint:wrapcheck
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&tx{btx: btx})
	})
}

// Close implements repo.Store.Close and releases the file lock.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

type tx struct {
	btx *bolt.Tx
}

func (t *tx) Users() user.Repository { return userRepo{t.btx.Bucket(usersBucket)} }
func (t *tx) Lists() list.Repository { return listRepo{t.btx.Bucket(listsBucket)} }

type userRepo struct{ bucket *bolt.Bucket }

func (r userRepo) Get(_ context.Context, id domain.ID) (*domain.User, bool, error) {
	value := r.bucket.Get(id[:])
	if value == nil {
		return nil, false, nil
	}

	var u domain.User
	if err := json.Unmarshal(value, &u); err != nil {
		return nil, false, fmt.Errorf("decode user: %w", err)
	}

	return &u, true, nil
}

func (r userRepo) Insert(_ context.Context, u domain.User) error {
	value, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if err := r.bucket.Put(u.ID.Bytes(), value); err != nil {
		return fmt.Errorf("put user: %w", err)
	}

	return nil
}

func (r userRepo) Remove(_ context.Context, id domain.ID) error {
	if err := r.bucket.Delete(id[:]); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

type listRepo struct{ bucket *bolt.Bucket }

func (r listRepo) Get(_ context.Context, ownerID domain.ID) ([]domain.ListItem, bool, error) {
	value := r.bucket.Get(ownerID[:])
	if value == nil {
		return nil, false, nil
	}

	items := []domain.ListItem{}
	if err := json.Unmarshal(value, &items); err != nil {
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

func (r listRepo) Replace(_ context.Context, ownerID domain.ID, items []domain.ListItem) error {
	if items == nil {
		items = []domain.ListItem{}
	}

	value, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}

	if err := r.bucket.Put(ownerID.Bytes(), value); err != nil {
		return fmt.Errorf("put list: %w", err)
	}

	return nil
}

func (r listRepo) Remove(_ context.Context, ownerID domain.ID) error {
	if err := r.bucket.Delete(ownerID[:]); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	return nil
}
