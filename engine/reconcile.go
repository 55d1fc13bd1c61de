/*
reconcile.go - Per-day attendance reconciliation

PURPOSE:
  Combines the resolved shift, the day's punches, and any active
  justifications into a single DayRecord: completeness, worked minutes,
  balance minutes with tolerance, and classification. This is the one
  computation behind the live dashboard, administrative editing, and bulk
  period reports - they must never diverge, so they all call this.

ALGORITHM (per date):
  1. Derive the weekday class from the date.
  2. A full-scope active justification supersedes punches: the day is
     "justified", worked and balance are zero. Raw punches remain on the
     record for display but are not balanced.
  3. Sunday with sunday_is_off (and no justification) is "day_off".
     Inactive Saturdays likewise.
  4. Otherwise worked minutes are summed per segment (morning: lunch_exit -
     entry; afternoon: exit - lunch_return; Saturday: exit - entry), with
     the rounding policy applied first. A half-day justification abates its
     segment: not required, not counted, its expected minutes removed.
  5. Missing slots never error: the day is "incomplete" and observed
     minutes are compared against the full expected load, which naturally
     produces a shortage. Partial data is partial attendance, not excused.
  6. |raw delta| <= tolerance zeroes the balance and sets within_tolerance.
  7. A negative segment (exit before entry) flags the day "anomalous" and
     forces balance to zero - surfaced, never silently clamped.

PURITY:
  ReconcileDay reads nothing but its input. Calling it twice over unchanged
  rows yields bit-identical DayRecords, so results may be cached freely.

SEE ALSO:
  - sequence.go: Gates what punches can exist in the first place
  - aggregate.go: Folds DayRecords into period totals
*/
package engine

// ReconcileInput carries everything ReconcileDay needs. The caller (the
// attendance service) is responsible for fetching rows; the engine only
// computes.
type ReconcileInput struct {
	EmployeeID     EmployeeID
	Date           Date
	Shift          ShiftDefinition
	Punches        []PunchRecord
	Justifications []Justification
	Rounding       RoundingPolicy
}

// ReconcileDay produces the reconciled record for one employee-day.
func ReconcileDay(in ReconcileInput) DayRecord {
	rec := DayRecord{
		Date:  in.Date,
		Class: in.Date.Class(),
		Shift: in.Shift,
	}
	fillSlots(&rec, in.Punches)
	countEdits(&rec, in.Punches)

	// A matching justification is always reported as the day's indicator.
	// Only a full-scope one supersedes the whole day.
	if m := MatchJustification(in.Justifications, in.Date, ScopeFull); m != nil {
		rec.Justification = m
		if m.Scope == ScopeFull {
			rec.Status = DayJustified
			return rec
		}
	}

	switch rec.Class {
	case ClassSunday:
		reconcileSunday(&rec, in)
	case ClassSaturday:
		reconcileSaturday(&rec, in)
	default:
		reconcileWeekday(&rec, in)
	}
	return rec
}

func reconcileSunday(rec *DayRecord, in ReconcileInput) {
	if in.Shift.SundayIsOff {
		rec.Status = DayOff
		return
	}
	// Sunday work is not part of the weekly load: zero expected minutes,
	// anything observed counts toward the balance. Punches here can only
	// come from administrative insertion.
	morning := segmentMinutes(rec, in.Rounding, PunchMorningEntry, PunchLunchExit)
	afternoon := segmentMinutes(rec, in.Rounding, PunchLunchReturn, PunchAfternoonExit)
	rec.WorkedMinutes = morning + afternoon
	rec.Status = DayComplete
	finishBalance(rec, in.Shift.ToleranceMinutes)
}

func reconcileSaturday(rec *DayRecord, in ReconcileInput) {
	if !in.Shift.SaturdayActive {
		rec.Status = DayOff
		return
	}

	// The Saturday half-day is a single segment; a morning-scope
	// justification abates it entirely.
	if j := MatchJustification(in.Justifications, in.Date, ScopeMorning); j != nil && j.Scope == ScopeMorning {
		rec.Justification = j
		rec.Status = DayJustified
		return
	}

	rec.ExpectedMinutes = in.Shift.SaturdayLoadMinutes
	rec.WorkedMinutes = segmentMinutes(rec, in.Rounding, PunchMorningEntry, PunchAfternoonExit)

	if rec.Entry != nil && rec.Exit != nil {
		rec.Status = DayComplete
	} else {
		rec.Status = DayIncomplete
	}
	finishBalance(rec, in.Shift.ToleranceMinutes)
}

func reconcileWeekday(rec *DayRecord, in ReconcileInput) {
	morningJust := MatchJustification(in.Justifications, in.Date, ScopeMorning)
	if morningJust != nil && morningJust.Scope != ScopeMorning {
		morningJust = nil
	}
	afternoonJust := MatchJustification(in.Justifications, in.Date, ScopeAfternoon)
	if afternoonJust != nil && afternoonJust.Scope != ScopeAfternoon {
		afternoonJust = nil
	}

	// Each half is an independent requirement: a justified half is neither
	// required nor counted, and its share of the expected load is removed.
	expected := in.Shift.DailyLoadMinutes
	worked := 0
	complete := true

	if morningJust != nil {
		rec.Justification = morningJust
		expected -= int(in.Shift.LunchExit - in.Shift.EntryMorning)
	} else {
		worked += segmentMinutes(rec, in.Rounding, PunchMorningEntry, PunchLunchExit)
		if rec.Entry == nil || rec.LunchExit == nil {
			complete = false
		}
	}

	if afternoonJust != nil {
		if rec.Justification == nil {
			rec.Justification = afternoonJust
		}
		expected -= int(in.Shift.ExitAfternoon - in.Shift.LunchReturn)
	} else {
		worked += segmentMinutes(rec, in.Rounding, PunchLunchReturn, PunchAfternoonExit)
		if rec.LunchReturn == nil || rec.Exit == nil {
			complete = false
		}
	}

	if expected < 0 {
		expected = 0
	}

	// Both halves justified behaves like a full-scope justification.
	if morningJust != nil && afternoonJust != nil {
		rec.Status = DayJustified
		return
	}

	rec.ExpectedMinutes = expected
	rec.WorkedMinutes = worked
	if complete {
		rec.Status = DayComplete
	} else {
		rec.Status = DayIncomplete
	}
	finishBalance(rec, in.Shift.ToleranceMinutes)
}

// segmentMinutes computes one rounded work segment from the record's slots.
// Both punches must be present; a negative duration marks the record
// anomalous and contributes nothing.
func segmentMinutes(rec *DayRecord, rounding RoundingPolicy, startType, endType PunchType) int {
	start := rec.slot(startType)
	end := rec.slot(endType)
	if start == nil || end == nil {
		return 0
	}
	from := rounding.Apply(*start, startType)
	to := rounding.Apply(*end, endType)
	if to < from {
		rec.Anomalous = true
		return 0
	}
	return int(to - from)
}

// finishBalance applies the raw delta and tolerance band. Anomalous days
// keep a zero balance regardless of the delta.
func finishBalance(rec *DayRecord, tolerance int) {
	rec.RawDelta = rec.WorkedMinutes - rec.ExpectedMinutes
	if rec.Anomalous {
		rec.BalanceMinutes = 0
		return
	}
	if abs(rec.RawDelta) <= tolerance {
		rec.BalanceMinutes = 0
		rec.WithinTolerance = true
		return
	}
	rec.BalanceMinutes = rec.RawDelta
}

func fillSlots(rec *DayRecord, punches []PunchRecord) {
	for i := range punches {
		p := punches[i]
		at := p.At
		switch p.Type {
		case PunchMorningEntry:
			rec.Entry = &at
		case PunchLunchExit:
			rec.LunchExit = &at
		case PunchLunchReturn:
			rec.LunchReturn = &at
		case PunchAfternoonExit:
			rec.Exit = &at
		}
	}
}

func countEdits(rec *DayRecord, punches []PunchRecord) {
	for _, p := range punches {
		if p.Edited {
			rec.EditedPunches++
			rec.EditedDeltaMinutes += p.DeltaMinutes
		}
	}
}

func (r *DayRecord) slot(t PunchType) *MinuteOfDay {
	switch t {
	case PunchMorningEntry:
		return r.Entry
	case PunchLunchExit:
		return r.LunchExit
	case PunchLunchReturn:
		return r.LunchReturn
	case PunchAfternoonExit:
		return r.Exit
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
