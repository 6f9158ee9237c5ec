package cli

import (
	"context"
	"io"
	"os"
	"strings"

	ralaver "github.com/cvaize/ralaver-sub001"
	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/logger"
	"github.com/cvaize/ralaver-sub001/migration"
	"github.com/pkg/errors"
)

var ErrConfigAlreadyExists = errors.New("config file already exists")

type (
	CloserFunc func() error

	ActionConfig struct {
		Steps int
		All   bool
		Names []string
	}

	// UnitInfo carries the joined scripts of a scripted unit; both are
	// empty for units written as functions
	UnitInfo struct {
		Name     string
		Migrate  string
		Rollback string
	}

	App struct {
		migrator *ralaver.Migrator
	}
)

// New opens the database named in cfg and wires the migrator with the
// given registry. Output goes to p.
func New(cfg *config.Config, registry *migration.Registry, p logger.Printer) (*App, CloserFunc, error) {
	m, closer, err := createMigrator(cfg, registry, p)
	if err != nil {
		return nil, nil, err
	}

	return &App{migrator: m}, closer, nil
}

func (app *App) Migrate(ctx context.Context, cfg ActionConfig) ([]string, error) {
	return app.migrator.Migrate(ctx, ralaver.CreateConfigurators(cfg.Steps, false, cfg.Names)...)
}

func (app *App) Rollback(ctx context.Context, cfg ActionConfig) ([]string, error) {
	return app.migrator.Rollback(ctx, ralaver.CreateConfigurators(cfg.Steps, cfg.All, cfg.Names)...)
}

func (app *App) Refresh(ctx context.Context, cfg ActionConfig) ([]string, []string, error) {
	return app.migrator.Refresh(ctx, ralaver.CreateConfigurators(cfg.Steps, false, cfg.Names)...)
}

// Apply runs one operation of a unit, direction is "up" or "down"
func (app *App) Apply(ctx context.Context, name, direction string) error {
	d, err := migration.ParseDirection(direction)
	if err != nil {
		return err
	}

	return app.migrator.Apply(ctx, name, d)
}

func (app *App) Status(ctx context.Context) ([]ralaver.Status, error) {
	return app.migrator.Status(ctx)
}

// InitCfg writes a config file stub, an existing file is left untouched
// Units describes the registered units in migration order
func Units(registry *migration.Registry) []UnitInfo {
	units := registry.Units()
	result := make([]UnitInfo, 0, len(units))

	for _, u := range units {
		info := UnitInfo{Name: u.Name()}
		if s, ok := u.(*migration.Scripts); ok {
			info.Migrate = s.MigrateScripts()
			info.Rollback = s.RollbackScripts()
		}

		result = append(result, info)
	}

	return result
}

func InitCfg(path string) error {
	if config.FileExists(path) {
		return errors.Wrapf(ErrConfigAlreadyExists, "[%s]", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	defer f.Close()

	if _, err := io.Copy(f, strings.NewReader(configFileStub)); err != nil {
		return errors.Wrap(err, "could not write config file")
	}

	return nil
}

const configFileStub = `version: "1"
app:
  locale: en
  fallback_locale: en
database:
  url: "%%MYSQL_URL%%"
  connect_attempts: 100
  connect_timeout: 60s
migrations:
  table: __migrations
  lock_key: ralaver_migrations
  lock_for: 3
  no_lock: false
log:
  sql: false
  debug: false
  color: true
`
