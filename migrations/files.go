package migrations

import "github.com/cvaize/ralaver-sub001/migration"

// Files creates the storage tables: files holds one row per stored blob,
// users_files binds uploads to their owners
func Files() migration.Unit {
	migrate := []string{
		"CREATE TABLE `users_files` (\n" +
			"   `id` BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,\n" +
			"   `file_id` BIGINT UNSIGNED NOT NULL COMMENT 'Relation to the files table.',\n" +
			"   `path` VARCHAR(2048) CHARACTER SET ascii COLLATE ascii_bin NOT NULL COMMENT 'The path or url where you can get the file.',\n" +
			"   `mime` VARCHAR(255) CHARACTER SET ascii COLLATE ascii_bin NULL DEFAULT NULL COMMENT 'The file type received during the upload.',\n" +
			"   `upload_filename` VARCHAR(255) NULL DEFAULT NULL COMMENT 'The filename received during the upload.',\n" +
			"   `filename` VARCHAR(255) CHARACTER SET ascii COLLATE ascii_bin NOT NULL COMMENT 'The file name.',\n" +
			"   `user_id` BIGINT UNSIGNED NOT NULL COMMENT 'The user who uploaded the file.',\n" +
			"   `created_at` DATETIME NULL DEFAULT NULL COMMENT 'The datetime of the file creation.',\n" +
			"   `updated_at` DATETIME NULL DEFAULT NULL COMMENT 'The datetime of the last file update.',\n" +
			"   `deleted_at` DATETIME NULL DEFAULT NULL COMMENT 'The datetime when the file was deleted.',\n" +
			"   `is_deleted` BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Label: whether the file has been deleted.',\n" +
			"   `is_public` BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Label: public file or not.'\n" +
			") COMMENT 'Files belonging to users.';",
		"ALTER TABLE `users_files` ADD UNIQUE `file_user_udx` (`user_id`, `file_id`);",
	}
	migrate = append(migrate, addIndexes("users_files", [][2]string{
		{"user_idx", "user_id"},
		{"file_idx", "file_id"},
		{"path_idx", "path"},
		{"filename_idx", "filename"},
		{"upload_filename_idx", "upload_filename"},
		{"is_public_idx", "is_public"},
	})...)

	migrate = append(migrate,
		"CREATE TABLE `files` (\n"+
			"   `id` BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,\n"+
			"   `filename` VARCHAR(2048) CHARACTER SET ascii COLLATE ascii_bin NOT NULL COMMENT 'The file name is made up of the hash, size, and extensions obtained when uploading the file, by mask: [hash]-[size].[extensions].',\n"+
			"   `path` VARCHAR(2048) CHARACTER SET ascii COLLATE ascii_bin NOT NULL COMMENT 'The path where the file is saved on disk.',\n"+
			"   `mime` VARCHAR(255) CHARACTER SET ascii COLLATE ascii_bin NULL DEFAULT NULL COMMENT 'The file type.',\n"+
			"   `hash` VARCHAR(64) CHARACTER SET ascii COLLATE ascii_bin NULL DEFAULT NULL COMMENT 'Hash of the sha256 file.',\n"+
			"   `size` BIGINT UNSIGNED NULL DEFAULT NULL COMMENT 'The file size in bytes.',\n"+
			"   `creator_user_id` BIGINT UNSIGNED NULL DEFAULT NULL COMMENT 'The first user to upload the file.',\n"+
			"   `created_at` DATETIME NULL DEFAULT NULL COMMENT 'The datetime of the file creation.',\n"+
			"   `updated_at` DATETIME NULL DEFAULT NULL COMMENT 'The datetime of the last file update.',\n"+
			"   `delete_at` DATETIME NULL DEFAULT NULL COMMENT 'After this time, the file must be deleted.',\n"+
			"   `deleted_at` DATETIME NULL DEFAULT NULL COMMENT 'The datetime when the file was deleted.',\n"+
			"   `is_delete` BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Label: whether the file needs to be deleted.',\n"+
			"   `is_deleted` BOOLEAN NOT NULL DEFAULT FALSE COMMENT 'Label: whether the file has been deleted.',\n"+
			"   `disk` VARCHAR(255) CHARACTER SET ascii COLLATE ascii_bin NOT NULL COMMENT 'The disk where the file is stored.'\n"+
			") COMMENT 'The file table.';",
		"ALTER TABLE `files` ADD UNIQUE `disk_path_udx` (`disk`, `path`);",
	)
	migrate = append(migrate, addIndexes("files", [][2]string{
		{"creator_user_idx", "creator_user_id"},
		{"disk_idx", "disk"},
		{"path_idx", "path"},
		{"filename_idx", "filename"},
		{"is_delete_idx", "is_delete"},
		{"is_deleted_idx", "is_deleted"},
	})...)

	return migration.NewScripts(
		"files",
		migrate,
		[]string{"DROP TABLE `users_files`;", "DROP TABLE `files`;"},
	)
}

func addIndexes(table string, indexes [][2]string) []string {
	scripts := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		scripts = append(scripts, "ALTER TABLE `"+table+"` ADD INDEX `"+idx[0]+"` (`"+idx[1]+"`);")
	}
	return scripts
}
