package database

// ScheduleForMigration picks the names not recorded yet, keeping the
// registration order of names
func ScheduleForMigration(names []string, records []Record, p Plan) []string {
	var scheduled []string

	for _, name := range names {
		if InRecords(name, records) {
			continue
		}

		if len(p.Names) > 0 && !inNames(name, p.Names) {
			continue
		}

		if p.Steps != 0 && len(scheduled) >= p.Steps {
			break
		}

		scheduled = append(scheduled, name)
	}

	return scheduled
}

// ScheduleForRollback picks recorded units newest first. Records must be
// sorted by ID ascending, the way Gateway.ReadRecords returns them.
func ScheduleForRollback(records []Record, p Plan) []Record {
	var scheduled []Record

	for i := len(records) - 1; i >= 0; i-- {
		if len(p.Names) > 0 && !inNames(records[i].Name, p.Names) {
			continue
		}

		if p.Steps != 0 && len(scheduled) >= p.Steps {
			break
		}

		scheduled = append(scheduled, records[i])
	}

	return scheduled
}
