package migrations

import "github.com/cvaize/ralaver-sub001/migration"

func UsersRoles() migration.Unit {
	return migration.NewScripts(
		"users_roles",
		[]string{
			"CREATE TABLE `users_roles` (\n" +
				"   `user_id` BIGINT UNSIGNED NOT NULL,\n" +
				"   `role_id` INT UNSIGNED NOT NULL\n" +
				");",
			"ALTER TABLE `users_roles` ADD UNIQUE `user_id_role_id` (`user_id`, `role_id`);",
			"ALTER TABLE `users_roles` ADD CONSTRAINT `users_roles_user_id_ref` FOREIGN KEY (`user_id`) " +
				"REFERENCES `users`(`id`) ON DELETE CASCADE ON UPDATE CASCADE;",
			"ALTER TABLE `users_roles` ADD CONSTRAINT `users_roles_role_id_ref` FOREIGN KEY (`role_id`) " +
				"REFERENCES `roles`(`id`) ON DELETE CASCADE ON UPDATE CASCADE;",
			"INSERT INTO `users_roles` (`user_id`, `role_id`) VALUES (1, 1);",
		},
		[]string{"DROP TABLE `users_roles`;"},
	)
}
