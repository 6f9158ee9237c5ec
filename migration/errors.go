package migration

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnknownMigration    = errors.New("unknown migration")
	ErrDuplicateMigration  = errors.New("duplicate migration name")
	ErrIncompleteMigration = errors.New("incomplete migration")
	ErrInvalidDirection    = errors.New("invalid migration direction")
)

// ExecutionError is returned when the up or down operation of a
// registered unit fails. Err is the unchanged cause.
type ExecutionError struct {
	Name      string
	Direction Direction
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration [%s] %s failed: %s", e.Name, e.Direction, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Cause makes the error compatible with errors.Cause
func (e *ExecutionError) Cause() error {
	return e.Err
}
