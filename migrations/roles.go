package migrations

import "github.com/cvaize/ralaver-sub001/migration"

func Roles() migration.Unit {
	return migration.NewScripts(
		"roles",
		[]string{
			"CREATE TABLE `roles` (\n" +
				"   `id` INT UNSIGNED PRIMARY KEY AUTO_INCREMENT,\n" +
				"   `code` VARCHAR(255) NOT NULL UNIQUE,\n" +
				"   `name` VARCHAR(255) NOT NULL UNIQUE,\n" +
				"   `description` VARCHAR(255) NULL DEFAULT NULL\n" +
				");",
			"INSERT INTO `roles` (`id`, `code`, `name`) VALUES (1, 'admin', 'Admin');",
		},
		[]string{"DROP TABLE `roles`;"},
	)
}
