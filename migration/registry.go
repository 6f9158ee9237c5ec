package migration

import (
	"context"
	"reflect"

	"github.com/cvaize/ralaver-sub001/config"
	"github.com/pkg/errors"
)

// Registry is an immutable catalog of migration units keyed by name.
// It is safe for concurrent lookups once built.
type Registry struct {
	units map[string]Unit
	order []string
}

// Build assembles a registry from the given units. It fails when a unit
// is nil, has an empty name, lacks one of its operations or shares its
// name with another unit.
func Build(units ...Unit) (*Registry, error) {
	r := &Registry{
		units: make(map[string]Unit, len(units)),
		order: make([]string, 0, len(units)),
	}

	for i, u := range units {
		if isNil(u) {
			return nil, errors.Wrapf(ErrIncompleteMigration, "unit #%d is nil", i)
		}

		name := u.Name()
		if name == "" {
			return nil, errors.Wrapf(ErrIncompleteMigration, "unit #%d has no name", i)
		}

		if v, ok := u.(validator); ok {
			if err := v.validate(); err != nil {
				return nil, err
			}
		}

		if _, exists := r.units[name]; exists {
			return nil, errors.Wrapf(ErrDuplicateMigration, "[%s]", name)
		}

		r.units[name] = u
		r.order = append(r.order, name)
	}

	return r, nil
}

// MustBuild is like Build but panics on a malformed set of units
func MustBuild(units ...Unit) *Registry {
	r, err := Build(units...)
	if err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the unit registered under exactly this name
func (r *Registry) Lookup(name string) (Unit, bool) {
	u, ok := r.units[name]
	return u, ok
}

// Apply runs the operation of the named unit that matches the direction
func (r *Registry) Apply(
	ctx context.Context,
	name string,
	d Direction,
	cfg *config.Config,
	conn Conn,
) error {
	u, ok := r.Lookup(name)
	if !ok {
		return errors.Wrapf(ErrUnknownMigration, "[%s]", name)
	}

	var err error
	switch d {
	case Up:
		err = u.Up(ctx, cfg, conn)
	case Down:
		err = u.Down(ctx, cfg, conn)
	default:
		return errors.Wrapf(ErrInvalidDirection, "[%s]", d)
	}

	if err != nil {
		return &ExecutionError{Name: name, Direction: d, Err: err}
	}

	return nil
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Units returns the registered units in registration order
func (r *Registry) Units() []Unit {
	units := make([]Unit, 0, len(r.order))
	for _, name := range r.order {
		units = append(units, r.units[name])
	}
	return units
}

func (r *Registry) Len() int {
	return len(r.order)
}

// isNil also catches a nil pointer stored in the interface
func isNil(u Unit) bool {
	if u == nil {
		return true
	}

	v := reflect.ValueOf(u)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}

	return false
}
