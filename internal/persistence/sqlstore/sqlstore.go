// Package sqlstore implements store.Opener over database/sql through sqlx.
// Two drivers are supported: "sqlite" (modernc, a single pooled connection
// so sessions serialize) and "pgx" (PostgreSQL via pgx stdlib).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"teahouse.bot/internal/teahouse/store"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

func Open(driver, dsn string, logger zerolog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: empty dsn")
	}
	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, err
			}
		}
		db, err = sqlx.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if err := initPragmas(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	case DriverPostgres:
		db, err = sqlx.Connect(driver, dsn)
		if err != nil {
			logger.Error().Err(err).Msg("connection problem")
			return nil, err
		}
	default:
		return nil, fmt.Errorf("sqlstore: unknown driver %q", driver)
	}

	s := &Store{db: db, log: logger}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database. When every connection is pinned by an open
// session the pool is evidently alive, and pinging would only queue
// behind those sessions.
func (s *Store) Ping(ctx context.Context) error {
	if st := s.db.Stats(); st.MaxOpenConnections > 0 && st.InUse >= st.MaxOpenConnections {
		return nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Open pins one pooled connection for the session.
func (s *Store) Open(ctx context.Context, userID string) (store.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("sqlstore: empty user id")
	}
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return &Session{st: s, userID: userID, conn: conn, q: conn}, nil
}

type querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

type Session struct {
	st     *Store
	userID string
	conn   *sqlx.Conn
	tx     *sqlx.Tx
	q      querier
}

func (ss *Session) UserID() string { return ss.userID }

func (ss *Session) Tasks() store.TaskStore   { return taskTable{ss} }
func (ss *Session) Wallet() store.Wallet     { return wallet{ss} }
func (ss *Session) Backpack() store.Backpack { return backpack{ss} }
func (ss *Session) Shop() store.Shop         { return shop{ss} }
func (ss *Session) Users() store.Users       { return users{ss} }

func (ss *Session) Close() error {
	if ss.tx != nil || ss.conn == nil {
		return nil
	}
	err := ss.conn.Close()
	ss.conn = nil
	return err
}

func (ss *Session) Atomic(ctx context.Context, fn func(store.Session) error) error {
	if ss.tx != nil {
		return fn(ss)
	}
	if ss.conn == nil {
		return fmt.Errorf("sqlstore: session closed")
	}
	tx, err := ss.conn.BeginTxx(ctx, nil)
	if err != nil {
		return wrap("begin", err)
	}
	inner := &Session{st: ss.st, userID: ss.userID, tx: tx, q: tx}
	if err := fn(inner); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			ss.st.log.Warn().Err(rbErr).Str("user_id", ss.userID).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap("commit", err)
	}
	return nil
}

func (ss *Session) get(ctx context.Context, dest any, q string, args ...any) error {
	return sqlx.GetContext(ctx, ss.q, dest, ss.st.db.Rebind(q), args...)
}

func (ss *Session) sel(ctx context.Context, dest any, q string, args ...any) error {
	return sqlx.SelectContext(ctx, ss.q, dest, ss.st.db.Rebind(q), args...)
}

// exec returns the number of affected rows.
func (ss *Session) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := ss.q.ExecContext(ctx, ss.st.db.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// wrap marks I/O failures transient; store sentinels pass through.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrTransient):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, store.ErrTransient, err)
}
