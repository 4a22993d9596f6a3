// Package store implements the capture store: durable CRUD for capture
// records, a parallel thumbnail table, a separate blob table, and retention
// enforcement. A Store is constructed explicitly and passed to every surface
// that needs it; there is no package-level singleton.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/glancehq/glance/internal/capture"
	"github.com/glancehq/glance/internal/db"
	"github.com/glancehq/glance/internal/errors"
)

// Options configures a Store.
type Options struct {
	// RetentionPolicy overrides the default 50 entries / 14 days policy.
	RetentionPolicy *capture.RetentionPolicy

	// Connection pool limits; zero leaves sql.DB defaults.
	MaxOpenConns int
	MaxIdleConns int

	// Logger for blob failures and retention sweeps. Defaults to the
	// standard logrus logger.
	Logger *logrus.Logger

	// Now is the clock used for timestamps; tests inject a fixed clock.
	Now func() time.Time
}

// Store provides access to capture history. All methods are safe to call
// from multiple goroutines, but concurrent upserts to the same id are
// last-write-wins: there is no cross-call locking or compare-and-swap.
type Store struct {
	db     *sql.DB
	policy capture.RetentionPolicy
	log    *logrus.Logger
	now    func() time.Time
}

// Open opens (or creates) the capture store under baseDir and immediately
// runs a retention sweep. A failure to open the underlying database is
// returned as STORAGE_UNAVAILABLE; callers should degrade to no-history
// mode rather than abort.
func Open(ctx context.Context, baseDir string, opts Options) (*Store, error) {
	database, err := db.Init(baseDir)
	if err != nil {
		return nil, errors.NewStorageUnavailable(err)
	}
	db.ConfigurePool(database, opts.MaxOpenConns, opts.MaxIdleConns)

	s := newStore(database, opts)
	if _, err := s.EnforceRetention(ctx, nil); err != nil {
		s.log.WithError(err).Warn("initial retention sweep failed")
	}
	return s, nil
}

// OpenDB wraps an already-initialized database. Used by tests and by
// surfaces that share one connection pool.
func OpenDB(database *sql.DB, opts Options) *Store {
	return newStore(database, opts)
}

func newStore(database *sql.DB, opts Options) *Store {
	policy := capture.DefaultRetentionPolicy()
	if opts.RetentionPolicy != nil {
		policy = *opts.RetentionPolicy
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: database, policy: policy, log: log, now: now}
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// nowMillis returns the current time in milliseconds since epoch, the
// timestamp unit used throughout the capture schema.
func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// newID generates a ULID for a new capture record.
func newID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id.String(), nil
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
