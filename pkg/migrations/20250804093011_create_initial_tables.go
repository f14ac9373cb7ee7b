package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// Tables are deliberately not linked by foreign keys: each one mirrors
		// an independent top-level collection owned by the account, and
		// users.Delete removes them together in one transaction.
		_, err := db.Exec(`
			CREATE TABLE users (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_login_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_updated TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				email TEXT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				display_name_lower TEXT NOT NULL DEFAULT '',
				migrated_at TIMESTAMPTZ,
				legacy_bookshelf TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_users_display_name_lower ON users (display_name_lower)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE user_profiles (
				user_id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_updated TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				photo_url TEXT NOT NULL DEFAULT '',
				bio TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				favorite_genres TEXT NOT NULL DEFAULT '[]',
				reading_goal INTEGER NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE shelf_books (
				user_id TEXT NOT NULL,
				id TEXT NOT NULL,
				title TEXT NOT NULL,
				authors TEXT NOT NULL DEFAULT '[]',
				publisher TEXT NOT NULL DEFAULT '',
				published_date TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				page_count INTEGER NOT NULL DEFAULT 0,
				categories TEXT NOT NULL DEFAULT '[]',
				language TEXT NOT NULL DEFAULT '',
				thumbnail TEXT NOT NULL DEFAULT '',
				preview_link TEXT NOT NULL DEFAULT '',
				info_link TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				rating INTEGER NOT NULL DEFAULT 0,
				review TEXT NOT NULL DEFAULT '',
				year_of_ownership TEXT NOT NULL DEFAULT '',
				added_at TIMESTAMPTZ NOT NULL,
				last_updated TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (user_id, id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Listing is always newest-first per account.
		_, err = db.Exec(`CREATE INDEX ix_shelf_books_user_added ON shelf_books (user_id, added_at DESC)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_shelf_books_user_status ON shelf_books (user_id, status)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE shelf_stats (
				user_id TEXT PRIMARY KEY,
				total_books INTEGER NOT NULL DEFAULT 0,
				want_to_read INTEGER NOT NULL DEFAULT 0,
				currently_reading INTEGER NOT NULL DEFAULT 0,
				completed INTEGER NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE book_notes (
				user_id TEXT NOT NULL,
				book_id TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				plain_text TEXT NOT NULL DEFAULT '',
				character_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL,
				last_modified TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (user_id, book_id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE migration_runs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				status TEXT NOT NULL,
				books_migrated INTEGER NOT NULL DEFAULT 0,
				error TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_migration_runs_user_id ON migration_runs (user_id)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS migration_runs")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS book_notes")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS shelf_stats")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS shelf_books")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS user_profiles")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS users")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
