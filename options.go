package ralaver

import (
	"github.com/cvaize/ralaver-sub001/config"
	"github.com/cvaize/ralaver-sub001/internal/logger"
	"github.com/cvaize/ralaver-sub001/migration"
	"github.com/pkg/errors"
)

type OptionFunc func(*Migrator) error

func UseRegistry(r *migration.Registry) OptionFunc {
	return func(m *Migrator) error {
		if r == nil {
			return ErrRegistryNotInitialized
		}

		m.registry = r
		return nil
	}
}

// UseConfig sets the snapshot passed to every unit operation
func UseConfig(cfg *config.Config) OptionFunc {
	return func(m *Migrator) error {
		if cfg == nil {
			return errors.New("config must not be nil")
		}

		m.cfg = cfg
		return nil
	}
}

func UseColorLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColorLogger(p, printSQL, printDebug)
		return nil
	}
}

func UseLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewBWLogger(p, printSQL, printDebug)
		return nil
	}
}
