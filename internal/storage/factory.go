// Package storage selects and constructs the portfolio storage backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/optifolio/internal/common"
	"github.com/bobmcallan/optifolio/internal/interfaces"
	"github.com/bobmcallan/optifolio/internal/storage/sqlite"
	"github.com/bobmcallan/optifolio/internal/storage/surrealdb"
)

// NewStorageManager creates the StorageManager for the configured backend.
// Supported backends: "sqlite" (default), "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = common.BackendSQLite
	}

	switch backend {
	case common.BackendSQLite:
		return sqlite.NewManager(logger, config.Storage.SQLite.Path)

	case common.BackendSurrealDB:
		return surrealdb.NewManager(logger, config.Storage.SurrealDB)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, surrealdb)", backend)
	}
}
