// Package ralaver runs the compiled-in schema units against a database
// and keeps track of the applied ones in a bookkeeping table.
package ralaver

import (
	"context"
	"database/sql"
	"time"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/database"
	"github.com/cvaize/ralaver-sub001/internal/logger"
	"github.com/cvaize/ralaver-sub001/migration"
	"github.com/pkg/errors"
)

var (
	ErrGatewayNotInitialized  = errors.New("database gateway has not been initialized")
	ErrRegistryNotInitialized = errors.New("migration registry has not been initialized")
	ErrNothingToMigrate       = errors.Wrap(database.ErrNoChangesRequired, "nothing to migrate")
	ErrNothingToRollback      = errors.Wrap(database.ErrNoChangesRequired, "nothing to rollback")
)

type CloserFunc func() error

// Status describes a single unit. Registered is false for records whose
// unit is no longer compiled in.
type Status struct {
	Name       string
	Applied    bool
	Registered bool
	MigratedAt time.Time
}

type Migrator struct {
	lg        logger.Logger
	gateway   *database.Gateway
	registry  *migration.Registry
	cfg       *config.Config
	closerFns []CloserFunc
}

// NewMigrator creates a migrator configured by option callbacks. A
// gateway (UseMySQL or UseSqlite) and a registry are required.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.gateway == nil {
		return nil, nil, ErrGatewayNotInitialized
	}

	if m.registry == nil {
		if err := m.close(); err != nil {
			return nil, nil, errors.Wrap(ErrRegistryNotInitialized, err.Error())
		}

		return nil, nil, ErrRegistryNotInitialized
	}

	if m.cfg == nil {
		m.cfg = config.Default()
	}

	m.gateway.SetLogger(m.lg)

	return m, m.close, nil
}

func (m *Migrator) Registry() *migration.Registry {
	return m.registry
}

// Migrate applies the pending units in registration order, recording each
// one right after its up operation succeeds
func (m *Migrator) Migrate(ctx context.Context, cfs ...ActionConfigurator) ([]string, error) {
	act := newAction(cfs)

	if err := m.checkNames(act.names); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	p := database.Plan{Steps: act.steps, Names: act.names}

	var migrated []string
	f := func(conn *sql.Conn, records []database.Record) error {
		scheduled := database.ScheduleForMigration(m.registry.Names(), records, p)
		if len(scheduled) == 0 {
			return ErrNothingToMigrate
		}

		for _, name := range scheduled {
			if err := m.up(ctx, conn, name); err != nil {
				return err
			}

			migrated = append(migrated, name)
		}

		return nil
	}

	if err := m.gateway.Run(ctx, database.OperationMigrate, f); err != nil {
		if !errors.Is(err, database.ErrNoChangesRequired) {
			m.lg.Error(err)
		}

		return migrated, err
	}

	return migrated, nil
}

// Rollback reverts applied units newest first. Only the last applied unit
// is reverted unless WithSteps, WithAll or WithNames say otherwise.
func (m *Migrator) Rollback(ctx context.Context, cfs ...ActionConfigurator) ([]string, error) {
	act := newAction(cfs)

	if err := m.checkNames(act.names); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	p := database.Plan{Steps: act.rollbackSteps(), Names: act.names}

	var rolledBack []string
	f := func(conn *sql.Conn, records []database.Record) error {
		scheduled := database.ScheduleForRollback(records, p)
		if len(scheduled) == 0 {
			return ErrNothingToRollback
		}

		if err := m.checkRecords(scheduled); err != nil {
			return err
		}

		for i := range scheduled {
			if err := m.down(ctx, conn, scheduled[i].Name); err != nil {
				return err
			}

			rolledBack = append(rolledBack, scheduled[i].Name)
		}

		return nil
	}

	if err := m.gateway.Run(ctx, database.OperationRollback, f); err != nil {
		if !errors.Is(err, database.ErrNoChangesRequired) {
			m.lg.Error(err)
		}

		return rolledBack, err
	}

	return rolledBack, nil
}

// Refresh reverts the applied units newest first and then migrates them
// again oldest first. Without WithSteps every applied unit is refreshed.
func (m *Migrator) Refresh(ctx context.Context, cfs ...ActionConfigurator) ([]string, []string, error) {
	act := newAction(cfs)

	if err := m.checkNames(act.names); err != nil {
		m.lg.Error(err)
		return nil, nil, err
	}

	p := database.Plan{Steps: act.steps, Names: act.names}

	var rolledBack, migrated []string
	f := func(conn *sql.Conn, records []database.Record) error {
		scheduled := database.ScheduleForRollback(records, p)
		if len(scheduled) == 0 {
			return ErrNothingToRollback
		}

		if err := m.checkRecords(scheduled); err != nil {
			return err
		}

		for i := range scheduled {
			if err := m.down(ctx, conn, scheduled[i].Name); err != nil {
				return err
			}

			rolledBack = append(rolledBack, scheduled[i].Name)
		}

		for i := len(scheduled) - 1; i >= 0; i-- {
			if err := m.up(ctx, conn, scheduled[i].Name); err != nil {
				return err
			}

			migrated = append(migrated, scheduled[i].Name)
		}

		return nil
	}

	if err := m.gateway.Run(ctx, database.OperationRefresh, f); err != nil {
		if !errors.Is(err, database.ErrNoChangesRequired) {
			m.lg.Error(err)
		}

		return rolledBack, migrated, err
	}

	return rolledBack, migrated, nil
}

// Apply runs one operation of the named unit regardless of what has been
// recorded and updates the bookkeeping table on success. Applying a unit
// twice in the same direction fails with *migration.ExecutionError.
func (m *Migrator) Apply(ctx context.Context, name string, d migration.Direction) error {
	if !d.Valid() {
		return errors.Wrapf(migration.ErrInvalidDirection, "[%s]", d)
	}

	f := func(conn *sql.Conn, _ []database.Record) error {
		if d == migration.Up {
			return m.up(ctx, conn, name)
		}

		return m.down(ctx, conn, name)
	}

	if err := m.gateway.Run(ctx, database.OperationApply, f); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}

// Status lists the registered units in registration order followed by the
// recorded names that are not registered anymore
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	var result []Status

	f := func(_ *sql.Conn, records []database.Record) error {
		recorded := make(map[string]database.Record, len(records))
		for i := range records {
			recorded[records[i].Name] = records[i]
		}

		for _, name := range m.registry.Names() {
			r, ok := recorded[name]
			result = append(result, Status{
				Name:       name,
				Applied:    ok,
				Registered: true,
				MigratedAt: r.MigratedAt,
			})
		}

		for i := range records {
			if _, ok := m.registry.Lookup(records[i].Name); ok {
				continue
			}

			result = append(result, Status{
				Name:       records[i].Name,
				Applied:    true,
				MigratedAt: records[i].MigratedAt,
			})
		}

		return nil
	}

	if err := m.gateway.Run(ctx, database.OperationStatus, f); err != nil {
		m.lg.Error(err)
		return nil, err
	}

	return result, nil
}

func (m *Migrator) up(ctx context.Context, conn *sql.Conn, name string) error {
	m.lg.Infof("up migrating - %s", name)

	if err := m.registry.Apply(ctx, name, migration.Up, m.cfg, m.logged(conn)); err != nil {
		return err
	}

	if err := m.gateway.Insert(ctx, conn, name); err != nil {
		return err
	}

	m.lg.Successf("migrated: %s", name)

	return nil
}

func (m *Migrator) down(ctx context.Context, conn *sql.Conn, name string) error {
	m.lg.Infof("down migrating - %s", name)

	if err := m.registry.Apply(ctx, name, migration.Down, m.cfg, m.logged(conn)); err != nil {
		return err
	}

	if err := m.gateway.Remove(ctx, conn, name); err != nil {
		return err
	}

	m.lg.Successf("rolled back: %s", name)

	return nil
}

func (m *Migrator) logged(conn *sql.Conn) migration.Conn {
	return &loggedConn{conn: conn, lg: m.lg}
}

// loggedConn passes every statement a unit runs through Logger.SQL
type loggedConn struct {
	conn *sql.Conn
	lg   logger.Logger
}

var _ migration.Conn = (*loggedConn)(nil)

func (c *loggedConn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.lg.SQL(query, args...)
	return c.conn.ExecContext(ctx, query, args...)
}

func (c *loggedConn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	c.lg.SQL(query, args...)
	return c.conn.QueryContext(ctx, query, args...)
}

func (c *loggedConn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	c.lg.SQL(query, args...)
	return c.conn.QueryRowContext(ctx, query, args...)
}

func (m *Migrator) checkNames(names []string) error {
	for _, name := range names {
		if _, ok := m.registry.Lookup(name); !ok {
			return errors.Wrapf(migration.ErrUnknownMigration, "[%s]", name)
		}
	}

	return nil
}

// nothing is reverted when one of the scheduled records has no unit
func (m *Migrator) checkRecords(records []database.Record) error {
	for i := range records {
		if _, ok := m.registry.Lookup(records[i].Name); !ok {
			return errors.Wrapf(
				migration.ErrUnknownMigration,
				"[%s] is recorded as applied but not registered",
				records[i].Name,
			)
		}
	}

	return nil
}

func (m *Migrator) close() error {
	if m.gateway == nil {
		return ErrGatewayNotInitialized
	}

	var result error
	for i := len(m.closerFns) - 1; i >= 0; i-- {
		if err := m.closerFns[i](); err != nil {
			m.lg.Error(err)
			if result == nil {
				result = err
			}
		}
	}

	return result
}
