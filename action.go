package ralaver

type ActionConfigurator func(a *Action)

type Action struct {
	steps int
	all   bool
	names []string
}

func newAction(cfs []ActionConfigurator) *Action {
	a := new(Action)
	for _, f := range cfs {
		f(a)
	}

	return a
}

// WithSteps limits the number of units an operation touches
func WithSteps(steps int) ActionConfigurator {
	return func(a *Action) {
		if steps < 0 {
			steps = 0
		}

		a.steps = steps
	}
}

// WithAll lifts the one step default of Rollback
func WithAll() ActionConfigurator {
	return func(a *Action) {
		a.all = true
		a.steps = 0
	}
}

// WithNames restricts an operation to the named units
func WithNames(names ...string) ActionConfigurator {
	return func(a *Action) {
		a.names = names
	}
}

func (a *Action) rollbackSteps() int {
	if a.steps == 0 && !a.all && len(a.names) == 0 {
		return 1
	}

	return a.steps
}

// CreateConfigurators turns command line flags into configurators
func CreateConfigurators(steps int, all bool, names []string) []ActionConfigurator {
	var configurators []ActionConfigurator
	if steps > 0 {
		configurators = append(configurators, WithSteps(steps))
	}

	if all {
		configurators = append(configurators, WithAll())
	}

	if len(names) > 0 {
		configurators = append(configurators, WithNames(names...))
	}

	return configurators
}
