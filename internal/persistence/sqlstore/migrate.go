package sqlstore

import (
	"fmt"
	"strings"
)

func (s *Store) Migrate() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.db.DriverName() == DriverPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			sign_in_count INTEGER NOT NULL DEFAULT 0,
			last_sign_in TEXT NOT NULL DEFAULT '',
			last_reward BIGINT NOT NULL DEFAULT 0,
			total_rewards BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id {{serial}},
			user_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			target INTEGER NOT NULL,
			reward BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			category TEXT NOT NULL,
			UNIQUE (user_id, task_id)
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id {{serial}},
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			count INTEGER NOT NULL,
			tea_type TEXT NOT NULL,
			unit_price BIGINT NOT NULL,
			UNIQUE (user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS teas (
			id {{serial}},
			name TEXT NOT NULL,
			stock INTEGER NOT NULL CHECK (stock >= 0),
			tea_type TEXT NOT NULL,
			price BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(strings.ReplaceAll(q, "{{serial}}", serial)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.log.Debug().Str("driver", s.db.DriverName()).Msg("migrations finished")
	return nil
}
