package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/GregoryFarmer/orthant/errors"
	"github.com/GregoryFarmer/orthant/internal"
	"github.com/dgraph-io/badger/v4"
)

// Database owns the process's single connection to the backing document
// store. The connection is established lazily on first use and memoized
// for the life of the process; a failed attempt is retried on the next
// use. Callers never close the handle themselves — the owning command
// defers Close at shutdown.
type Database struct {
	mu         sync.Mutex
	path       string
	name       string
	production bool
	log        *slog.Logger
	db         *badger.DB
}

func NewDatabase(path, name string, production bool, log *slog.Logger) *Database {
	return &Database{path: path, name: name, production: production, log: log}
}

// Handle returns the live database handle, opening it on first use.
// Concurrent first callers serialize on the mutex, so exactly one open is
// attempted at a time and everyone waiting observes its outcome.
func (d *Database) Handle() (*badger.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}

	start := time.Now()
	db, err := badger.Open(badger.DefaultOptions(d.path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		d.log.Error(
			internal.ErrorTag("Database Error")+fmt.Sprintf("Database '%s' failed to connect", d.name),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnectionUnavailable, err)
	}
	d.db = db
	d.log.Info(internal.LoadedTag("Database Loaded") + fmt.Sprintf(
		"Database '%s' has been connected to! (%s)",
		d.name, time.Since(start).Round(time.Millisecond),
	))
	return d.db, nil
}

// Connected reports whether a live handle exists without triggering a
// connection attempt.
func (d *Database) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db != nil
}

func (d *Database) Name() string { return d.name }

func (d *Database) Production() bool { return d.production }

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
