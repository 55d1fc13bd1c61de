/*
schedule.go - Schedule group validation and override precedence

PURPOSE:
  Resolves the effective shift definition for an employee on a date: the
  base ScheduleGroup merged field-by-field with the active ScheduleOverride
  covering that date, if any. Also enforces the invariants a group must
  satisfy at creation/update time.

INVARIANTS:
  - entry_morning < lunch_exit < lunch_return < exit_afternoon
  - daily_load x 5 + (saturday_active ? saturday_load : 0) == 2640
    (the 44-hour work week)
  - When saturday_active, saturday_entry < saturday_exit

OVERRIDE PRECEDENCE:
  Any non-nil override field replaces the group field; nil fields fall back
  to the group. At most one override is active per employee/date - the
  service layer deactivates overlapping predecessors on creation.

SEE ALSO:
  - types.go: ScheduleGroup, ScheduleOverride, ShiftDefinition
  - reconcile.go: Consumer of the resolved ShiftDefinition
*/
package engine

// ValidateGroup checks the shift ordering and weekly load invariants.
// Returns a *ValidationError naming the offending field.
func ValidateGroup(g ScheduleGroup) error {
	times := []struct {
		field string
		value MinuteOfDay
	}{
		{"entry_morning", g.EntryMorning},
		{"lunch_exit", g.LunchExit},
		{"lunch_return", g.LunchReturn},
		{"exit_afternoon", g.ExitAfternoon},
	}
	for _, t := range times {
		if !t.value.Valid() {
			return &ValidationError{Field: t.field, Message: "not a valid time of day"}
		}
	}
	if g.EntryMorning >= g.LunchExit {
		return &ValidationError{Field: "lunch_exit", Message: "must be after entry_morning"}
	}
	if g.LunchExit >= g.LunchReturn {
		return &ValidationError{Field: "lunch_return", Message: "must be after lunch_exit"}
	}
	if g.LunchReturn >= g.ExitAfternoon {
		return &ValidationError{Field: "exit_afternoon", Message: "must be after lunch_return"}
	}

	if g.DailyLoadMinutes <= 0 {
		return &ValidationError{Field: "daily_load_minutes", Message: "must be positive"}
	}
	if g.ToleranceMinutes < 0 {
		return &ValidationError{Field: "tolerance_minutes", Message: "must not be negative"}
	}

	weekly := g.DailyLoadMinutes * 5
	if g.SaturdayActive {
		if !g.SaturdayEntry.Valid() || !g.SaturdayExit.Valid() {
			return &ValidationError{Field: "saturday_entry", Message: "not a valid time of day"}
		}
		if g.SaturdayEntry >= g.SaturdayExit {
			return &ValidationError{Field: "saturday_exit", Message: "must be after saturday_entry"}
		}
		if g.SaturdayLoadMinutes <= 0 {
			return &ValidationError{Field: "saturday_load_minutes", Message: "must be positive when saturday is active"}
		}
		weekly += g.SaturdayLoadMinutes
	}
	if weekly != WeeklyLoadMinutes {
		return &ValidationError{
			Field:   "daily_load_minutes",
			Message: "weekly load must total 2640 minutes (44 hours)",
		}
	}
	return nil
}

// TimeFieldsChanged reports whether any time-affecting field differs between
// two group revisions. Used to decide whether an update bumps the version.
func TimeFieldsChanged(a, b ScheduleGroup) bool {
	return a.EntryMorning != b.EntryMorning ||
		a.LunchExit != b.LunchExit ||
		a.LunchReturn != b.LunchReturn ||
		a.ExitAfternoon != b.ExitAfternoon ||
		a.DailyLoadMinutes != b.DailyLoadMinutes ||
		a.ToleranceMinutes != b.ToleranceMinutes ||
		a.SaturdayActive != b.SaturdayActive ||
		a.SaturdayEntry != b.SaturdayEntry ||
		a.SaturdayExit != b.SaturdayExit ||
		a.SaturdayLoadMinutes != b.SaturdayLoadMinutes ||
		a.SundayIsOff != b.SundayIsOff
}

// ResolveShift merges a group with an optional active override into the flat
// shift definition for one date. Pure: no lookups, no side effects.
func ResolveShift(group ScheduleGroup, override *ScheduleOverride) ShiftDefinition {
	def := ShiftDefinition{
		GroupID:      group.ID,
		GroupVersion: group.Version,

		EntryMorning:  group.EntryMorning,
		LunchExit:     group.LunchExit,
		LunchReturn:   group.LunchReturn,
		ExitAfternoon: group.ExitAfternoon,

		DailyLoadMinutes: group.DailyLoadMinutes,
		ToleranceMinutes: group.ToleranceMinutes,

		SaturdayActive:      group.SaturdayActive,
		SaturdayEntry:       group.SaturdayEntry,
		SaturdayExit:        group.SaturdayExit,
		SaturdayLoadMinutes: group.SaturdayLoadMinutes,

		SundayIsOff: group.SundayIsOff,
	}
	if override == nil {
		return def
	}

	def.OverrideID = override.ID
	if override.EntryMorning != nil {
		def.EntryMorning = *override.EntryMorning
	}
	if override.LunchExit != nil {
		def.LunchExit = *override.LunchExit
	}
	if override.LunchReturn != nil {
		def.LunchReturn = *override.LunchReturn
	}
	if override.ExitAfternoon != nil {
		def.ExitAfternoon = *override.ExitAfternoon
	}
	if override.DailyLoadMinutes != nil {
		def.DailyLoadMinutes = *override.DailyLoadMinutes
	}
	if override.ToleranceMinutes != nil {
		def.ToleranceMinutes = *override.ToleranceMinutes
	}
	if override.SaturdayActive != nil {
		def.SaturdayActive = *override.SaturdayActive
	}
	if override.SaturdayEntry != nil {
		def.SaturdayEntry = *override.SaturdayEntry
	}
	if override.SaturdayExit != nil {
		def.SaturdayExit = *override.SaturdayExit
	}
	if override.SaturdayLoadMinutes != nil {
		def.SaturdayLoadMinutes = *override.SaturdayLoadMinutes
	}
	if override.SundayIsOff != nil {
		def.SundayIsOff = *override.SundayIsOff
	}
	return def
}

// OverridesIntersect reports whether two override date ranges share any day.
// Open-ended ranges extend to infinity.
func OverridesIntersect(a, b ScheduleOverride) bool {
	return rangesIntersect(a.DateStart, a.DateEnd, b.DateStart, b.DateEnd)
}

func rangesIntersect(aStart Date, aEnd *Date, bStart Date, bEnd *Date) bool {
	if aEnd != nil && aEnd.Before(bStart) {
		return false
	}
	if bEnd != nil && bEnd.Before(aStart) {
		return false
	}
	return true
}
