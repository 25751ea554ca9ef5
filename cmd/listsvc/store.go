package main

import (
	"fmt"

	"github.com/mkrupp/homecase-lists/internal/repo"
	"github.com/mkrupp/homecase-lists/internal/repo/bolt"
	"github.com/mkrupp/homecase-lists/internal/repo/memory"
	"github.com/mkrupp/homecase-lists/internal/repo/sqlite"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite" or "bolt"
	Backend string `env:"BACKEND" default:"sqlite"`

	SQLite sqlite.StoreConfig `envPrefix:"SQLITE_"`
	Bolt   bolt.StoreConfig   `envPrefix:"BOLT_"`
}

func newStoreFactory(cfg StoreConfig) (repo.StoreFactory, error) {
	switch cfg.Backend {
	case "memory":
		return memory.StoreFactory(), nil
	case "sqlite":
		return sqlite.StoreFactory(cfg.SQLite), nil
	case "bolt":
		return bolt.StoreFactory(cfg.Bolt), nil
	default:
		return nil, fmt.Errorf("%w: %q", repo.ErrUnknownBackend, cfg.Backend)
	}
}
