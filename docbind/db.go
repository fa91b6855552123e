package docbind

import (
	"errors"
	"sync"

	"github.com/arthur-debert/docbind/types"
	"go.uber.org/zap"
)

// DB ties collections to a backing store.
type DB struct {
	store  types.Store
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for debug events. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// Open wraps store in a DB.
func Open(store types.Store, opts ...Option) *DB {
	db := &DB{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.logger = db.logger.Named("docbind")
	return db
}

// Store returns the backing store.
func (db *DB) Store() types.Store {
	return db.store
}

// Logger returns the DB's logger.
func (db *DB) Logger() *zap.Logger {
	return db.logger
}

// Close closes the backing store. Later calls return the first result.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		db.closeErr = db.store.Close()
	})
	return db.closeErr
}

var (
	defaultMu sync.Mutex
	defaultDB *DB
)

// Init sets up the process-wide DB used by collections created with a nil
// DB. Only the first call has an effect; later calls return the existing DB
// until Shutdown.
func Init(store types.Store, opts ...Option) (*DB, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDB != nil {
		return defaultDB, nil
	}
	if store == nil {
		return nil, errors.New("docbind: Init requires a store")
	}
	defaultDB = Open(store, opts...)
	defaultDB.logger.Debug("initialized default db")
	return defaultDB, nil
}

// Default returns the process-wide DB.
func Default() (*DB, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDB == nil {
		return nil, ErrNotInitialized
	}
	return defaultDB, nil
}

// Shutdown closes the process-wide DB and clears it so Init can run again.
func Shutdown() error {
	defaultMu.Lock()
	db := defaultDB
	defaultDB = nil
	defaultMu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

// resolve returns db, or the process-wide DB when db is nil.
func resolve(db *DB) (*DB, error) {
	if db != nil {
		return db, nil
	}
	return Default()
}
