package migrations

import "github.com/cvaize/ralaver-sub001/migration"

// AdminPermissions are granted to the admin role on creation
var AdminPermissions = []string{
	"users_index", "users_create", "users_update", "users_delete",
	"roles_index", "roles_create", "roles_update", "roles_delete",
}

func RolesPermissions() migration.Unit {
	return migration.NewScripts(
		"roles_permissions",
		[]string{
			"CREATE TABLE `roles_permissions` (\n" +
				"   `role_id` INT UNSIGNED NOT NULL,\n" +
				"   `permission_code` VARCHAR(255) NOT NULL\n" +
				");",
			"ALTER TABLE `roles_permissions` ADD UNIQUE `role_id_permission_code` (`role_id`, `permission_code`);",
			"ALTER TABLE `roles_permissions` ADD CONSTRAINT `roles_permissions_role_id_ref` FOREIGN KEY (`role_id`) " +
				"REFERENCES `roles`(`id`) ON DELETE CASCADE ON UPDATE CASCADE;",
			insertAdminPermissions(),
		},
		[]string{"DROP TABLE `roles_permissions`;"},
	)
}

func insertAdminPermissions() string {
	q := "INSERT INTO `roles_permissions` (`role_id`, `permission_code`) VALUES "
	for i, code := range AdminPermissions {
		if i > 0 {
			q += ", "
		}
		q += "(1, '" + code + "')"
	}
	return q + ";"
}
