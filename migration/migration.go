package migration

import (
	"bytes"
	"context"
	"database/sql"
	"strings"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/pkg/errors"
)

type (
	// Conn is the database session a migration operation runs against.
	// *sql.Conn, *sql.Tx, *sql.DB and their sqlx counterparts satisfy it.
	Conn interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	// Func is a single schema operation
	Func func(ctx context.Context, cfg *config.Config, conn Conn) error

	// Unit is a named pair of operations, Down must revert what Up applies
	Unit interface {
		Name() string
		Up(ctx context.Context, cfg *config.Config, conn Conn) error
		Down(ctx context.Context, cfg *config.Config, conn Conn) error
	}

	validator interface {
		validate() error
	}
)

type funcUnit struct {
	name string
	up   Func
	down Func
}

var _ Unit = (*funcUnit)(nil)

// New creates a unit from a pair of functions. A nil function is
// reported by Build.
func New(name string, up, down Func) Unit {
	return &funcUnit{name: name, up: up, down: down}
}

func (u *funcUnit) Name() string {
	return u.name
}

func (u *funcUnit) Up(ctx context.Context, cfg *config.Config, conn Conn) error {
	return u.up(ctx, cfg, conn)
}

func (u *funcUnit) Down(ctx context.Context, cfg *config.Config, conn Conn) error {
	return u.down(ctx, cfg, conn)
}

func (u *funcUnit) validate() error {
	if u.up == nil || u.down == nil {
		return errors.Wrapf(ErrIncompleteMigration, "[%s] is missing an up or down function", u.name)
	}

	return nil
}

// Scripts is a unit made of plain SQL statements executed one by one
// in the given order
type Scripts struct {
	Key      string
	Migrate  []string
	Rollback []string
}

var _ Unit = (*Scripts)(nil)

// NewScripts creates a unit that executes migrate scripts on Up and
// rollback scripts on Down
func NewScripts(name string, migrate, rollback []string) *Scripts {
	return &Scripts{Key: name, Migrate: migrate, Rollback: rollback}
}

func (s *Scripts) Name() string {
	return s.Key
}

func (s *Scripts) Up(ctx context.Context, _ *config.Config, conn Conn) error {
	return execScripts(ctx, conn, s.Migrate)
}

func (s *Scripts) Down(ctx context.Context, _ *config.Config, conn Conn) error {
	return execScripts(ctx, conn, s.Rollback)
}

// MigrateScripts joins the migrate statements, each terminated with a semicolon
func (s *Scripts) MigrateScripts() string {
	return joinScripts(s.Migrate)
}

// RollbackScripts joins the rollback statements, each terminated with a semicolon
func (s *Scripts) RollbackScripts() string {
	return joinScripts(s.Rollback)
}

func (s *Scripts) validate() error {
	if len(s.Migrate) == 0 || len(s.Rollback) == 0 {
		return errors.Wrapf(ErrIncompleteMigration, "[%s] must have both migrate and rollback scripts", s.Key)
	}

	return nil
}

func execScripts(ctx context.Context, conn Conn, scripts []string) error {
	for _, script := range scripts {
		if _, err := conn.ExecContext(ctx, script); err != nil {
			return errors.Wrapf(err, "could not execute script [%s]", strings.TrimSpace(script))
		}
	}

	return nil
}

func joinScripts(scripts []string) string {
	var buf bytes.Buffer

	for i := range scripts {
		script := strings.TrimSpace(scripts[i])
		buf.WriteString(script)

		if !strings.HasSuffix(script, ";") {
			buf.WriteString(";")
		}

		if i < len(scripts)-1 {
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
