package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConfiguration means required connection parameters are absent. It is
// fatal: retrying cannot help until the environment is fixed.
var ErrConfiguration = errors.New("store: missing connection string")

// Manager lazily opens and memoizes a single connection pool for the process.
// Concurrent first callers share one connect attempt instead of racing to
// open N pools; every later call returns the memoized result immediately.
type Manager struct {
	dsn     string
	timeout time.Duration
	connect func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// NewManager creates a Manager. No connection is opened until the first Get.
func NewManager(dsn string, timeout time.Duration) *Manager {
	return &Manager{dsn: dsn, timeout: timeout, connect: connectPgx}
}

// Get returns the shared pool, opening it on first use. A failed first
// attempt is memoized too: the process is expected to be restarted rather
// than limp along re-dialing on every request.
func (m *Manager) Get(ctx context.Context) (*pgxpool.Pool, error) {
	m.once.Do(func() {
		if m.dsn == "" {
			m.err = ErrConfiguration
			return
		}
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		m.pool, m.err = m.connect(cctx, m.dsn)
	})
	return m.pool, m.err
}

// Close releases the pool if one was opened.
func (m *Manager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}

func connectPgx(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}
