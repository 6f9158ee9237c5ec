package migrations

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/migration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	createRegexp = regexp.MustCompile("(?s)^CREATE TABLE `(\\w+)`")
	dropRegexp   = regexp.MustCompile("^DROP TABLE `(\\w+)`")
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, mock
}

func tablesOf(scripts []string, re *regexp.Regexp) []string {
	var tables []string
	for _, s := range scripts {
		if m := re.FindStringSubmatch(s); m != nil {
			tables = append(tables, m[1])
		}
	}
	return tables
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := Registry()
	assert.Equal(t, []string{"users", "roles", "roles_permissions", "users_roles", "files"}, r.Names())

	for _, name := range r.Names() {
		u, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, u.Name())
	}

	_, ok := r.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("up creates the table and seeds the super admin with the configured locale", func(t *testing.T) {
		db, mock := newMock(t)
		cfg := config.Default()
		cfg.App.Locale = "ru"

		mock.ExpectExec(createUsersTable).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(insertSuperAdmin).
			WithArgs(AdminEmail, "ru").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, Users().Up(ctx, cfg, db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("up stops on the first failing statement", func(t *testing.T) {
		db, mock := newMock(t)

		mock.ExpectExec(createUsersTable).
			WillReturnError(errors.New("Error 1050: Table 'users' already exists"))

		err := Users().Up(ctx, config.Default(), db)
		require.Error(t, err)
		assert.Equal(t, "could not create users table: Error 1050: Table 'users' already exists", err.Error())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("down drops the table", func(t *testing.T) {
		db, mock := newMock(t)

		mock.ExpectExec(dropUsersTable).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, Users().Down(ctx, config.Default(), db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("down before up surfaces the driver error through the registry", func(t *testing.T) {
		db, mock := newMock(t)
		cause := errors.New("Error 1051: Unknown table 'ralaver.users'")

		mock.ExpectExec(dropUsersTable).WillReturnError(cause)

		err := Registry().Apply(ctx, "users", migration.Down, config.Default(), db)
		require.Error(t, err)

		var execErr *migration.ExecutionError
		require.True(t, errors.As(err, &execErr))
		assert.Equal(t, "users", execErr.Name)
		assert.Equal(t, migration.Down, execErr.Direction)
		assert.True(t, errors.Is(err, cause))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScriptedUnits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := config.Default()

	for _, u := range All() {
		s, ok := u.(*migration.Scripts)
		if !ok {
			continue
		}

		t.Run(s.Name()+" executes migrate scripts in order", func(t *testing.T) {
			db, mock := newMock(t)
			for _, script := range s.Migrate {
				mock.ExpectExec(script).WillReturnResult(sqlmock.NewResult(0, 0))
			}

			require.NoError(t, s.Up(ctx, cfg, db))
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(s.Name()+" executes rollback scripts in order", func(t *testing.T) {
			db, mock := newMock(t)
			for _, script := range s.Rollback {
				mock.ExpectExec(script).WillReturnResult(sqlmock.NewResult(0, 0))
			}

			require.NoError(t, s.Down(ctx, cfg, db))
			assert.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run(s.Name()+" rollback drops every table migrate creates", func(t *testing.T) {
			created := tablesOf(s.Migrate, createRegexp)
			dropped := tablesOf(s.Rollback, dropRegexp)

			require.NotEmpty(t, created)
			assert.ElementsMatch(t, created, dropped)
		})
	}

	t.Run("files creates both storage tables with their indexes", func(t *testing.T) {
		s := Files().(*migration.Scripts)
		assert.Equal(t, []string{"users_files", "files"}, tablesOf(s.Migrate, createRegexp))
		assert.Contains(t, s.Migrate, "ALTER TABLE `files` ADD INDEX `is_deleted_idx` (`is_deleted`);")
		assert.Contains(t, s.Migrate, "ALTER TABLE `users_files` ADD INDEX `is_public_idx` (`is_public`);")
		assert.Len(t, s.Migrate, 16)
	})

	t.Run("admin role is granted every permission", func(t *testing.T) {
		assert.Equal(t,
			"INSERT INTO `roles_permissions` (`role_id`, `permission_code`) VALUES "+
				"(1, 'users_index'), (1, 'users_create'), (1, 'users_update'), (1, 'users_delete'), "+
				"(1, 'roles_index'), (1, 'roles_create'), (1, 'roles_update'), (1, 'roles_delete');",
			insertAdminPermissions(),
		)
	})

	t.Run("a failing script stops the unit and names the statement", func(t *testing.T) {
		db, mock := newMock(t)
		s := Roles().(*migration.Scripts)

		mock.ExpectExec(s.Migrate[0]).WillReturnError(errors.New("Error 1050: Table 'roles' already exists"))

		err := s.Up(ctx, cfg, db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not execute script [CREATE TABLE `roles`")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
