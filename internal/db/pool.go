package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"campanile/auth-session/internal/config"
)

// Realm names one of the two logical databases the client talks to.
type Realm string

const (
	// RealmAuth is the credential store.
	RealmAuth Realm = "auth"
	// RealmERP is the application store.
	RealmERP Realm = "erp"
)

// State is the lifecycle position of one realm's pool.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateUnavailable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

var (
	// ErrUnavailable means the realm never started (incomplete settings)
	// or has been closed. Callers surface it as a persistence failure.
	ErrUnavailable = errors.New("database realm is not available")
	// ErrUnknownRealm flags a realm name outside the fixed set.
	ErrUnknownRealm = errors.New("unknown database realm")
)

// Manager owns one connection pool per realm. Construct it once at
// process start and pass it to everything that needs a database; there is
// no package-level instance.
type Manager struct {
	cfg config.Config
	log *slog.Logger

	mu          sync.Mutex
	initialized atomic.Bool
	handles     map[Realm]*Handle
}

func NewManager(cfg config.Config, log *slog.Logger) *Manager {
	return &Manager{cfg: cfg, log: log, handles: map[Realm]*Handle{}}
}

// Init opens both realm pools. Idempotent and safe under concurrent
// first-callers: the fast path is a single atomic load, losers of the
// lock race observe the flag set and return without opening anything.
// A realm with incomplete settings stays unavailable; Init never aborts
// the process over configuration.
func (m *Manager) Init(ctx context.Context) {
	if m.initialized.Load() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized.Load() {
		return
	}
	m.handles[RealmAuth] = m.open(ctx, RealmAuth, m.cfg.Auth)
	m.handles[RealmERP] = m.open(ctx, RealmERP, m.cfg.ERP)
	m.initialized.Store(true)
}

func (m *Manager) open(ctx context.Context, realm Realm, pc config.PoolConfig) *Handle {
	h := &Handle{
		realm: realm,
		cfg:   pc,
		log:   m.log.With(slog.String("realm", string(realm))),
	}
	if !pc.Complete() {
		h.state.Store(int32(StateUnavailable))
		h.log.Warn("database realm not configured, pool unavailable")
		return h
	}

	poolCfg, err := pgxpool.ParseConfig(pc.URL)
	if err != nil {
		h.state.Store(int32(StateUnavailable))
		h.log.Warn("invalid database url, pool unavailable", slog.String("error", err.Error()))
		return h
	}
	poolCfg.ConnConfig.User = pc.Username
	poolCfg.ConnConfig.Password = pc.Password
	poolCfg.ConnConfig.ConnectTimeout = pc.ConnTimeout.Std()
	poolCfg.MaxConns = pc.MaxPool
	poolCfg.MinConns = pc.MinIdle
	poolCfg.MaxConnLifetime = pc.MaxLifetime.Std()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		h.state.Store(int32(StateUnavailable))
		h.log.Warn("pool creation failed, realm unavailable", slog.String("error", err.Error()))
		return h
	}

	h.pool = pool
	h.state.Store(int32(StateReady))
	h.log.Info("database pool ready",
		slog.Int("max_conns", int(pc.MaxPool)),
		slog.Int("min_idle", int(pc.MinIdle)))
	return h
}

// Pool returns the handle for realm, initializing the manager on first
// use. The handle may be unavailable; callers find out on Acquire.
func (m *Manager) Pool(ctx context.Context, realm Realm) (*Handle, error) {
	if !m.initialized.Load() {
		m.Init(ctx)
	}
	m.mu.Lock()
	h, ok := m.handles[realm]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRealm, realm)
	}
	return h, nil
}

// Close releases both pools. Idempotent: safe before any Init, and safe
// to call repeatedly. The initialized flag is cleared, so a later Pool
// call re-initializes from the same configuration.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.handles {
		h.close()
	}
	m.handles = map[Realm]*Handle{}
	m.initialized.Store(false)
}

// Handle wraps one realm's pool together with its lifecycle state.
type Handle struct {
	realm Realm
	cfg   config.PoolConfig
	log   *slog.Logger
	state atomic.Int32
	pool  *pgxpool.Pool
}

func (h *Handle) Realm() Realm { return h.realm }

func (h *Handle) State() State { return State(h.state.Load()) }

// OpContext bounds a single database operation with the realm's query
// timeout so a stalled backend cannot hang a caller indefinitely.
func (h *Handle) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.cfg.QueryTimeout.Std())
}

// Acquire checks a connection out of the pool. The returned lease logs a
// warning if held past the realm's leak detection threshold.
func (h *Handle) Acquire(ctx context.Context) (*Lease, error) {
	if s := h.State(); s != StateReady {
		return nil, fmt.Errorf("%w: realm %q is %s", ErrUnavailable, h.realm, s)
	}
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire %s connection: %w", h.realm, err)
	}

	lease := &Lease{conn: conn}
	if threshold := h.cfg.LeakThreshold.Std(); threshold > 0 {
		acquired := time.Now()
		lease.leakTimer = time.AfterFunc(threshold, func() {
			h.log.Warn("connection held past leak detection threshold",
				slog.Duration("threshold", threshold),
				slog.Time("acquired_at", acquired))
		})
	}
	return lease, nil
}

func (h *Handle) close() {
	if h.pool != nil {
		h.pool.Close()
		h.pool = nil
	}
	h.state.Store(int32(StateClosed))
}

// Lease is a checked-out connection with leak tracking.
type Lease struct {
	conn      *pgxpool.Conn
	leakTimer *time.Timer
	released  atomic.Bool
}

// Conn exposes the underlying pooled connection for queries.
func (l *Lease) Conn() *pgxpool.Conn { return l.conn }

// Release returns the connection to the pool and disarms the leak
// watchdog. Safe to call more than once.
func (l *Lease) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	if l.leakTimer != nil {
		l.leakTimer.Stop()
	}
	l.conn.Release()
}
