package cli

import (
	ralaver "github.com/cvaize/ralaver-sub001"
	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/database"
	"github.com/cvaize/ralaver-sub001/internal/logger"
	"github.com/cvaize/ralaver-sub001/migration"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	migratorFactory    func(db *sqlx.DB, cfg *config.Config) ralaver.OptionFunc
	migratorFactoryMap map[string]migratorFactory
)

var factories = migratorFactoryMap{
	database.MySQLDriver:  createMySQLGateway,
	database.SqliteDriver: createSqliteGateway,
}

func createMySQLGateway(db *sqlx.DB, cfg *config.Config) ralaver.OptionFunc {
	return ralaver.UseMySQL(db.DB, ralaver.WithMySQLConfig(cfg))
}

func createSqliteGateway(db *sqlx.DB, cfg *config.Config) ralaver.OptionFunc {
	return ralaver.UseSqlite(db.DB, ralaver.WithSqliteConfig(cfg))
}

func createMigrator(
	cfg *config.Config,
	registry *migration.Registry,
	p logger.Printer,
) (*ralaver.Migrator, CloserFunc, error) {
	db, driver, err := database.Open(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}

	factory, ok := factories[driver]
	if !ok {
		_ = db.Close()
		return nil, nil, errors.Errorf("could not find factory for driver [%s]", driver)
	}

	opts := []ralaver.OptionFunc{
		factory(db, cfg),
		ralaver.UseRegistry(registry),
		ralaver.UseConfig(cfg),
	}

	if cfg.Log.Color {
		opts = append(opts, ralaver.UseColorLogger(p, cfg.Log.SQL, cfg.Log.Debug))
	} else {
		opts = append(opts, ralaver.UseLogger(p, cfg.Log.SQL, cfg.Log.Debug))
	}

	m, closeMigrator, err := ralaver.NewMigrator(opts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closer := func() error {
		migratorErr := closeMigrator()
		if err := db.Close(); err != nil {
			return errors.Wrap(err, "could not close database pool")
		}

		return migratorErr
	}

	return m, closer, nil
}
