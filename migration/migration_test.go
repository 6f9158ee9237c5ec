package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cvaize/ralaver-sub001/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *config.Config, Conn) error { return nil }

func openSqlite(t *testing.T) *sql.Conn {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func showTables(t *testing.T, conn Conn) []string {
	t.Helper()

	rows, err := conn.QueryContext(
		context.Background(),
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name",
	)
	require.NoError(t, err)
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())

	return tables
}

func usersUnit() *Scripts {
	return NewScripts(
		"users",
		[]string{
			"CREATE TABLE users (id INTEGER PRIMARY KEY, email VARCHAR(255) NOT NULL UNIQUE, locale VARCHAR(6) NULL)",
			"INSERT INTO users (id, email) VALUES (1, 'admin@admin.example')",
		},
		[]string{"DROP TABLE users"},
	)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("it will keep units in registration order", func(t *testing.T) {
		r, err := Build(New("users", noop, noop), New("roles", noop, noop), New("files", noop, noop))
		require.NoError(t, err)
		assert.Equal(t, []string{"users", "roles", "files"}, r.Names())
		assert.Equal(t, 3, r.Len())

		units := r.Units()
		require.Len(t, units, 3)
		assert.Equal(t, "roles", units[1].Name())
	})

	t.Run("it will fail on duplicate names", func(t *testing.T) {
		r, err := Build(New("users", noop, noop), New("roles", noop, noop), New("users", noop, noop))
		require.Error(t, err)
		assert.Nil(t, r)
		assert.True(t, errors.Is(err, ErrDuplicateMigration))
		assert.Contains(t, err.Error(), "[users]")
	})

	t.Run("it will fail on a missing operation", func(t *testing.T) {
		_, err := Build(New("users", noop, nil))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteMigration))

		_, err = Build(New("users", nil, noop))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteMigration))
	})

	t.Run("it will fail on scripts without rollback", func(t *testing.T) {
		_, err := Build(NewScripts("users", []string{"CREATE TABLE users (id INT)"}, nil))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteMigration))
	})

	t.Run("it will fail on a nil unit or an empty name", func(t *testing.T) {
		_, err := Build(New("users", noop, noop), nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteMigration))

		_, err = Build(New("", noop, noop))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompleteMigration))
	})

	t.Run("it will fail on a nil pointer unit instead of panicking", func(t *testing.T) {
		var scripts *Scripts
		var fn *funcUnit

		assert.NotPanics(t, func() {
			_, err := Build(New("users", noop, noop), scripts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIncompleteMigration))
			assert.Contains(t, err.Error(), "unit #1 is nil")

			_, err = Build(fn)
			assert.True(t, errors.Is(err, ErrIncompleteMigration))
		})
	})

	t.Run("must build panics on a malformed set", func(t *testing.T) {
		assert.Panics(t, func() {
			MustBuild(New("users", noop, noop), New("users", noop, noop))
		})
		assert.NotPanics(t, func() {
			MustBuild(New("users", noop, noop))
		})
	})

	t.Run("empty registry is valid", func(t *testing.T) {
		r, err := Build()
		require.NoError(t, err)
		assert.Equal(t, 0, r.Len())
		assert.Empty(t, r.Names())
	})
}

func TestLookup(t *testing.T) {
	t.Parallel()

	r := MustBuild(New("users", noop, noop), NewScripts("roles", []string{"CREATE"}, []string{"DROP"}))

	t.Run("every registered name has both operations", func(t *testing.T) {
		for _, name := range r.Names() {
			u, ok := r.Lookup(name)
			require.True(t, ok)
			require.NotNil(t, u)
			assert.Equal(t, name, u.Name())
		}
	})

	t.Run("it will not find unknown or partially matching names", func(t *testing.T) {
		for _, name := range []string{"nonexistent", "user", "users ", "USERS", "", "roles_permissions"} {
			u, ok := r.Lookup(name)
			assert.False(t, ok, name)
			assert.Nil(t, u, name)
		}
	})

	t.Run("lookups are safe from many goroutines", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := r.Lookup("users")
				assert.True(t, ok)
			}()
		}
		wg.Wait()
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	ctx := context.Background()

	t.Run("it will select the operation by direction", func(t *testing.T) {
		var calls []string
		up := func(context.Context, *config.Config, Conn) error { calls = append(calls, "up"); return nil }
		down := func(context.Context, *config.Config, Conn) error { calls = append(calls, "down"); return nil }

		r := MustBuild(New("users", up, down))
		require.NoError(t, r.Apply(ctx, "users", Up, cfg, nil))
		require.NoError(t, r.Apply(ctx, "users", Down, cfg, nil))
		assert.Equal(t, []string{"up", "down"}, calls)
	})

	t.Run("it will pass config through to the operation", func(t *testing.T) {
		var locale string
		up := func(_ context.Context, c *config.Config, _ Conn) error { locale = c.App.Locale; return nil }

		r := MustBuild(New("users", up, noop))
		require.NoError(t, r.Apply(ctx, "users", Up, cfg, nil))
		assert.Equal(t, config.DefaultLocale, locale)
	})

	t.Run("it will return unknown migration error", func(t *testing.T) {
		r := MustBuild(New("users", noop, noop))

		err := r.Apply(ctx, "nonexistent", Up, cfg, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownMigration))
		assert.Equal(t, "[nonexistent]: unknown migration", err.Error())

		var execErr *ExecutionError
		assert.False(t, errors.As(err, &execErr))
	})

	t.Run("it will reject an invalid direction", func(t *testing.T) {
		r := MustBuild(New("users", noop, noop))
		err := r.Apply(ctx, "users", Direction("sideways"), cfg, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDirection))
	})

	t.Run("it will wrap operation failure with name and direction", func(t *testing.T) {
		cause := errors.New("connection reset")
		down := func(context.Context, *config.Config, Conn) error { return cause }

		r := MustBuild(New("users", noop, down))
		err := r.Apply(ctx, "users", Down, cfg, nil)
		require.Error(t, err)

		var execErr *ExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, "users", execErr.Name)
		assert.Equal(t, Down, execErr.Direction)
		assert.Equal(t, cause, execErr.Err)
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, cause, errors.Cause(err))
		assert.Equal(t, "migration [users] down failed: connection reset", err.Error())
	})
}

func TestApplyAgainstSqlite(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	ctx := context.Background()

	t.Run("up then down restores an empty schema", func(t *testing.T) {
		conn := openSqlite(t)
		r := MustBuild(usersUnit())

		require.Empty(t, showTables(t, conn))

		require.NoError(t, r.Apply(ctx, "users", Up, cfg, conn))
		assert.Equal(t, []string{"users"}, showTables(t, conn))

		var email string
		require.NoError(t, conn.QueryRowContext(ctx, "SELECT email FROM users WHERE id = 1").Scan(&email))
		assert.Equal(t, "admin@admin.example", email)

		require.NoError(t, r.Apply(ctx, "users", Down, cfg, conn))
		assert.Empty(t, showTables(t, conn))
	})

	t.Run("second up fails with execution error", func(t *testing.T) {
		conn := openSqlite(t)
		r := MustBuild(usersUnit())

		require.NoError(t, r.Apply(ctx, "users", Up, cfg, conn))

		err := r.Apply(ctx, "users", Up, cfg, conn)
		require.Error(t, err)

		var execErr *ExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, Up, execErr.Direction)
		assert.Contains(t, err.Error(), "already exists")

		// the first application is untouched
		assert.Equal(t, []string{"users"}, showTables(t, conn))
	})

	t.Run("down before up fails with execution error", func(t *testing.T) {
		conn := openSqlite(t)
		r := MustBuild(usersUnit())

		err := r.Apply(ctx, "users", Down, cfg, conn)
		require.Error(t, err)

		var execErr *ExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, "users", execErr.Name)
		assert.Equal(t, Down, execErr.Direction)
		assert.Contains(t, err.Error(), "no such table")
		assert.Empty(t, showTables(t, conn))
	})
}

func TestScripts(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name            string
		migrate         []string
		migrateScripts  string
		rollback        []string
		rollbackScripts string
	}{
		{
			name:            "single scripts with no trailing semicolon",
			migrate:         []string{"CREATE foo"},
			migrateScripts:  "CREATE foo;",
			rollback:        []string{"DROP foo"},
			rollbackScripts: "DROP foo;",
		},
		{
			name:            "two scripts with one with trailing semicolon",
			migrate:         []string{"CREATE TABLE foo;", "INSERT INTO foo (name) VALUES (?)"},
			migrateScripts:  "CREATE TABLE foo;\nINSERT INTO foo (name) VALUES (?);",
			rollback:        []string{"\nDROP TABLE foo\n"},
			rollbackScripts: "DROP TABLE foo;",
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := NewScripts("foo", tc.migrate, tc.rollback)

			assert.Equal(t, tc.migrateScripts, s.MigrateScripts())
			assert.Equal(t, tc.rollbackScripts, s.RollbackScripts())
		})
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	d, err := ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	d, err = ParseDirection(" DOWN ")
	require.NoError(t, err)
	assert.Equal(t, Down, d)

	_, err = ParseDirection("refresh")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDirection))
}
