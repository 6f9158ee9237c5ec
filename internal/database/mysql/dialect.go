package mysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/cvaize/ralaver-sub001/internal/database"
)

const DefaultCharset = "utf8mb4"

type Dialect struct {
	migrationsTable, charset string
}

var _ database.Dialect = (*Dialect)(nil)

func NewDialect(migrationsTable, charset string) *Dialect {
	if charset == "" {
		charset = DefaultCharset
	}

	return &Dialect{migrationsTable: quote(migrationsTable), charset: charset}
}

func (d Dialect) InitQuery() string {
	const createSQL = "CREATE TABLE IF NOT EXISTS %s (" +
		"`id` BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
		"`name` VARCHAR(255) NOT NULL UNIQUE, " +
		"`migrated_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP" +
		") ENGINE=InnoDB DEFAULT CHARSET=%s"

	return fmt.Sprintf(createSQL, d.migrationsTable, d.charset)
}

func (d Dialect) InsertQuery(name string, migratedAt time.Time) (string, []interface{}) {
	const insertSQL = "INSERT INTO %s (`name`, `migrated_at`) VALUES (?, ?)"
	return fmt.Sprintf(insertSQL, d.migrationsTable), []interface{}{name, migratedAt}
}

func (d Dialect) RemoveQuery(name string) (string, []interface{}) {
	const removeSQL = "DELETE FROM %s WHERE `name` = ?"
	return fmt.Sprintf(removeSQL, d.migrationsTable), []interface{}{name}
}

func (d Dialect) ReadQuery() string {
	const readSQL = "SELECT `id`, `name`, `migrated_at` FROM %s ORDER BY `id` ASC"
	return fmt.Sprintf(readSQL, d.migrationsTable)
}

func (d Dialect) DropQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.migrationsTable)
}

func (d Dialect) ShowTablesQuery() string {
	return "SHOW TABLES"
}

func quote(table string) string {
	return "`" + strings.ReplaceAll(table, "`", "``") + "`"
}
