// Package migrations holds the schema units compiled into the application.
package migrations

import (
	"github.com/cvaize/ralaver-sub001/migration"
)

// All returns the compiled-in units. Order matters: pending units are
// migrated in slice order, so a unit must come after the ones it references.
func All() []migration.Unit {
	return []migration.Unit{
		Users(),
		Roles(),
		RolesPermissions(),
		UsersRoles(),
		Files(),
	}
}

// Registry builds the registry of the compiled-in units
func Registry() *migration.Registry {
	return migration.MustBuild(All()...)
}
