package migrations

import (
	"context"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/migration"
	"github.com/pkg/errors"
)

const (
	AdminEmail = "admin@admin.example"

	createUsersTable = "CREATE TABLE `users` (\n" +
		"   `id` BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,\n" +
		"   `email` VARCHAR(255) NOT NULL UNIQUE,\n" +
		"   `password` VARCHAR(255) CHARACTER SET ascii COLLATE ascii_bin NULL DEFAULT NULL,\n" +
		"   `locale` VARCHAR(6) CHARACTER SET ascii COLLATE ascii_bin NULL DEFAULT NULL,\n" +
		"   `surname` VARCHAR(255) NULL DEFAULT NULL,\n" +
		"   `name` VARCHAR(255) NULL DEFAULT NULL,\n" +
		"   `patronymic` VARCHAR(255) NULL DEFAULT NULL,\n" +
		"   `is_super_admin` BOOLEAN NOT NULL DEFAULT FALSE,\n" +
		"   `roles_ids` JSON NULL DEFAULT NULL\n" +
		");"

	insertSuperAdmin = "INSERT INTO `users` (`id`, `email`, `locale`, `is_super_admin`, `roles_ids`) VALUES (1, ?, ?, true, '[1]');"

	dropUsersTable = "DROP TABLE `users`;"
)

// Users creates the users table and seeds the super admin, whose locale
// is taken from the application config
func Users() migration.Unit {
	return migration.New("users", usersUp, usersDown)
}

func usersUp(ctx context.Context, cfg *config.Config, conn migration.Conn) error {
	if _, err := conn.ExecContext(ctx, createUsersTable); err != nil {
		return errors.Wrap(err, "could not create users table")
	}

	if _, err := conn.ExecContext(ctx, insertSuperAdmin, AdminEmail, cfg.App.Locale); err != nil {
		return errors.Wrap(err, "could not seed super admin")
	}

	return nil
}

func usersDown(ctx context.Context, _ *config.Config, conn migration.Conn) error {
	if _, err := conn.ExecContext(ctx, dropUsersTable); err != nil {
		return errors.Wrap(err, "could not drop users table")
	}

	return nil
}
