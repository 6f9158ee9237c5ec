package migration

import (
	"strings"

	"github.com/pkg/errors"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) String() string {
	return string(d)
}

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// ParseDirection accepts "up" or "down" in any case
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", errors.Wrapf(ErrInvalidDirection, "[%s], allowed: up, down", s)
	}

	return d, nil
}
