package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/cvaize/ralaver-sub001/internal/database"
)

type Dialect struct {
	migrationsTable string
}

var _ database.Dialect = (*Dialect)(nil)

func NewDialect(migrationsTable string) *Dialect {
	return &Dialect{migrationsTable: quote(migrationsTable)}
}

func (d Dialect) InitQuery() string {
	const createSQL = `CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(255) NOT NULL UNIQUE,
		migrated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	return fmt.Sprintf(createSQL, d.migrationsTable)
}

func (d Dialect) InsertQuery(name string, migratedAt time.Time) (string, []interface{}) {
	const insertSQL = "INSERT INTO %s (name, migrated_at) VALUES (?, ?)"
	return fmt.Sprintf(insertSQL, d.migrationsTable), []interface{}{name, migratedAt}
}

func (d Dialect) RemoveQuery(name string) (string, []interface{}) {
	const removeSQL = "DELETE FROM %s WHERE name = ?"
	return fmt.Sprintf(removeSQL, d.migrationsTable), []interface{}{name}
}

func (d Dialect) ReadQuery() string {
	return fmt.Sprintf("SELECT id, name, migrated_at FROM %s ORDER BY id ASC", d.migrationsTable)
}

func (d Dialect) DropQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.migrationsTable)
}

// sqlite_sequence shows up once an AUTOINCREMENT table exists
func (d Dialect) ShowTablesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}

func quote(table string) string {
	return `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
}
