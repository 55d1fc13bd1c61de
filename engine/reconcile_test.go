package engine_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/warp/attendance-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// standardShift: 08:00-12:00 / 13:00-17:00, 480 min/day, tolerance 10,
// Saturday half-day 08:00-12:00 (240 min). 480*5 + 240 = 2640.
func standardShift() engine.ShiftDefinition {
	return engine.ShiftDefinition{
		GroupID:      "grp-std",
		GroupVersion: 1,

		EntryMorning:  engine.NewMinuteOfDay(8, 0),
		LunchExit:     engine.NewMinuteOfDay(12, 0),
		LunchReturn:   engine.NewMinuteOfDay(13, 0),
		ExitAfternoon: engine.NewMinuteOfDay(17, 0),

		DailyLoadMinutes: 480,
		ToleranceMinutes: 10,

		SaturdayActive:      true,
		SaturdayEntry:       engine.NewMinuteOfDay(8, 0),
		SaturdayExit:        engine.NewMinuteOfDay(12, 0),
		SaturdayLoadMinutes: 240,

		SundayIsOff: true,
	}
}

func monday() engine.Date   { return engine.NewDate(2025, time.March, 10) }
func saturday() engine.Date { return engine.NewDate(2025, time.March, 15) }
func sunday() engine.Date   { return engine.NewDate(2025, time.March, 16) }

func punch(date engine.Date, t engine.PunchType, hour, minute int) engine.PunchRecord {
	return engine.PunchRecord{
		ID:         string(t) + "@" + date.String(),
		EmployeeID: "emp-1",
		Date:       date,
		Type:       t,
		At:         engine.NewMinuteOfDay(hour, minute),
	}
}

func fullDay(date engine.Date, entry, lunchExit, lunchReturn, exit engine.MinuteOfDay) []engine.PunchRecord {
	return []engine.PunchRecord{
		{EmployeeID: "emp-1", Date: date, Type: engine.PunchMorningEntry, At: entry},
		{EmployeeID: "emp-1", Date: date, Type: engine.PunchLunchExit, At: lunchExit},
		{EmployeeID: "emp-1", Date: date, Type: engine.PunchLunchReturn, At: lunchReturn},
		{EmployeeID: "emp-1", Date: date, Type: engine.PunchAfternoonExit, At: exit},
	}
}

func hm(hour, minute int) engine.MinuteOfDay { return engine.NewMinuteOfDay(hour, minute) }

func vacation(start engine.Date, end *engine.Date, scope engine.JustificationScope) engine.Justification {
	return engine.Justification{
		ID:         "just-1",
		EmployeeID: "emp-1",
		Type:       engine.JustificationVacation,
		DateStart:  start,
		DateEnd:    end,
		Scope:      scope,
		Status:     engine.StatusActive,
	}
}

// =============================================================================
// WEEKDAY RECONCILIATION
// =============================================================================

func TestReconcileDay_ExactShift_BalanceZero(t *testing.T) {
	// GIVEN: Punches exactly matching the shift times
	// THEN: Complete, worked == expected, balance zero

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    fullDay(monday(), hm(8, 0), hm(12, 0), hm(13, 0), hm(17, 0)),
	})

	if rec.Status != engine.DayComplete {
		t.Fatalf("expected complete, got %s", rec.Status)
	}
	if rec.WorkedMinutes != 480 {
		t.Errorf("expected 480 worked minutes, got %d", rec.WorkedMinutes)
	}
	if rec.BalanceMinutes != 0 || rec.RawDelta != 0 {
		t.Errorf("expected zero balance, got balance=%d delta=%d", rec.BalanceMinutes, rec.RawDelta)
	}
}

func TestReconcileDay_WithinTolerance_BalanceZeroed(t *testing.T) {
	// Exit at 17:08: +8 raw minutes, inside the 10-minute band.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    fullDay(monday(), hm(8, 0), hm(12, 0), hm(13, 0), hm(17, 8)),
	})

	if rec.RawDelta != 8 {
		t.Errorf("expected raw delta 8, got %d", rec.RawDelta)
	}
	if rec.BalanceMinutes != 0 {
		t.Errorf("expected balance zeroed by tolerance, got %d", rec.BalanceMinutes)
	}
	if !rec.WithinTolerance {
		t.Error("expected within_tolerance flag")
	}
}

func TestReconcileDay_OutsideTolerance_FullDeltaCounts(t *testing.T) {
	// Exit at 17:20: +20 minutes, outside tolerance. The full delta counts,
	// not delta minus tolerance.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    fullDay(monday(), hm(8, 0), hm(12, 0), hm(13, 0), hm(17, 20)),
	})

	if rec.BalanceMinutes != 20 {
		t.Errorf("expected +20 balance, got %d", rec.BalanceMinutes)
	}
	if rec.WithinTolerance {
		t.Error("did not expect within_tolerance flag")
	}
}

func TestReconcileDay_ShortDay_NegativeBalance(t *testing.T) {
	// Leaves an hour early: -60.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    fullDay(monday(), hm(8, 0), hm(12, 0), hm(13, 0), hm(16, 0)),
	})

	if rec.BalanceMinutes != -60 {
		t.Errorf("expected -60 balance, got %d", rec.BalanceMinutes)
	}
	if rec.Status != engine.DayComplete {
		t.Errorf("a short day with all four punches is still complete, got %s", rec.Status)
	}
}

func TestReconcileDay_MissingPunches_IncompleteWithShortage(t *testing.T) {
	// GIVEN: Only the morning entry exists
	// THEN: Incomplete; zero observed minutes against the full expected load

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    []engine.PunchRecord{punch(monday(), engine.PunchMorningEntry, 8, 0)},
	})

	if rec.Status != engine.DayIncomplete {
		t.Fatalf("expected incomplete, got %s", rec.Status)
	}
	if rec.WorkedMinutes != 0 {
		t.Errorf("a lone entry observes no complete segment, got %d worked", rec.WorkedMinutes)
	}
	if rec.BalanceMinutes != -480 {
		t.Errorf("expected -480 balance, got %d", rec.BalanceMinutes)
	}
}

func TestReconcileDay_MorningOnly_CountsMorningSegment(t *testing.T) {
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches: []engine.PunchRecord{
			punch(monday(), engine.PunchMorningEntry, 8, 0),
			punch(monday(), engine.PunchLunchExit, 12, 0),
		},
	})

	if rec.Status != engine.DayIncomplete {
		t.Fatalf("expected incomplete, got %s", rec.Status)
	}
	if rec.WorkedMinutes != 240 {
		t.Errorf("expected 240 observed minutes, got %d", rec.WorkedMinutes)
	}
	if rec.BalanceMinutes != -240 {
		t.Errorf("expected -240 balance, got %d", rec.BalanceMinutes)
	}
}

func TestReconcileDay_NonMonotonicPunches_Anomalous(t *testing.T) {
	// Lunch exit before entry: flagged, balance forced to zero, never clamped
	// into a fake positive/negative value.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    fullDay(monday(), hm(12, 0), hm(8, 0), hm(13, 0), hm(17, 0)),
	})

	if !rec.Anomalous {
		t.Fatal("expected anomalous flag")
	}
	if rec.BalanceMinutes != 0 {
		t.Errorf("anomalous day must carry zero balance, got %d", rec.BalanceMinutes)
	}
}

// =============================================================================
// JUSTIFICATIONS
// =============================================================================

func TestReconcileDay_FullJustification_SupersedesPunches(t *testing.T) {
	// Punches exist, but an active full-scope vacation covers the day.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID:     "emp-1",
		Date:           monday(),
		Shift:          standardShift(),
		Punches:        fullDay(monday(), hm(8, 0), hm(12, 0), hm(13, 0), hm(17, 0)),
		Justifications: []engine.Justification{vacation(monday(), nil, engine.ScopeFull)},
	})

	if rec.Status != engine.DayJustified {
		t.Fatalf("expected justified, got %s", rec.Status)
	}
	if rec.WorkedMinutes != 0 || rec.BalanceMinutes != 0 {
		t.Errorf("justified day must not balance punches, got worked=%d balance=%d",
			rec.WorkedMinutes, rec.BalanceMinutes)
	}
	if rec.Entry == nil || rec.Exit == nil {
		t.Error("raw punches must still surface on a justified day")
	}
	if rec.Justification == nil {
		t.Error("expected the justification on the record")
	}
}

func TestReconcileDay_CancelledJustification_Ignored(t *testing.T) {
	j := vacation(monday(), nil, engine.ScopeFull)
	j.Status = engine.StatusCancelled

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID:     "emp-1",
		Date:           monday(),
		Shift:          standardShift(),
		Justifications: []engine.Justification{j},
	})

	if rec.Status != engine.DayIncomplete {
		t.Errorf("cancelled justification must not excuse the day, got %s", rec.Status)
	}
}

func TestReconcileDay_MorningJustified_AfternoonStillRequired(t *testing.T) {
	// GIVEN: Morning-scope medical justification, afternoon worked in full
	// THEN: Complete; only the afternoon is expected and counted

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches: []engine.PunchRecord{
			punch(monday(), engine.PunchLunchReturn, 13, 0),
			punch(monday(), engine.PunchAfternoonExit, 17, 0),
		},
		Justifications: []engine.Justification{vacation(monday(), nil, engine.ScopeMorning)},
	})

	if rec.Status != engine.DayComplete {
		t.Fatalf("expected complete, got %s", rec.Status)
	}
	if rec.ExpectedMinutes != 240 {
		t.Errorf("expected abated load of 240, got %d", rec.ExpectedMinutes)
	}
	if rec.WorkedMinutes != 240 {
		t.Errorf("expected 240 worked, got %d", rec.WorkedMinutes)
	}
	if rec.BalanceMinutes != 0 {
		t.Errorf("expected zero balance, got %d", rec.BalanceMinutes)
	}
}

func TestReconcileDay_MorningJustified_AfternoonMissing_Shortage(t *testing.T) {
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID:     "emp-1",
		Date:           monday(),
		Shift:          standardShift(),
		Justifications: []engine.Justification{vacation(monday(), nil, engine.ScopeMorning)},
	})

	if rec.Status != engine.DayIncomplete {
		t.Fatalf("expected incomplete, got %s", rec.Status)
	}
	if rec.BalanceMinutes != -240 {
		t.Errorf("only the unjustified half is owed, got %d", rec.BalanceMinutes)
	}
}

func TestReconcileDay_BothHalvesJustified_DayJustified(t *testing.T) {
	morning := vacation(monday(), nil, engine.ScopeMorning)
	afternoon := vacation(monday(), nil, engine.ScopeAfternoon)
	afternoon.ID = "just-2"

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID:     "emp-1",
		Date:           monday(),
		Shift:          standardShift(),
		Justifications: []engine.Justification{morning, afternoon},
	})

	if rec.Status != engine.DayJustified {
		t.Errorf("two complementary half-day justifications cover the day, got %s", rec.Status)
	}
	if rec.BalanceMinutes != 0 {
		t.Errorf("expected zero balance, got %d", rec.BalanceMinutes)
	}
}

// =============================================================================
// SATURDAY AND SUNDAY
// =============================================================================

func TestReconcileDay_SaturdayHalfDay(t *testing.T) {
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       saturday(),
		Shift:      standardShift(),
		Punches: []engine.PunchRecord{
			punch(saturday(), engine.PunchMorningEntry, 8, 0),
			punch(saturday(), engine.PunchAfternoonExit, 12, 0),
		},
	})

	if rec.Status != engine.DayComplete {
		t.Fatalf("expected complete, got %s", rec.Status)
	}
	if rec.WorkedMinutes != 240 || rec.ExpectedMinutes != 240 {
		t.Errorf("expected 240/240, got %d/%d", rec.WorkedMinutes, rec.ExpectedMinutes)
	}
	if rec.BalanceMinutes != 0 {
		t.Errorf("expected zero balance, got %d", rec.BalanceMinutes)
	}
}

func TestReconcileDay_SaturdayInactive_DayOff(t *testing.T) {
	shift := standardShift()
	shift.SaturdayActive = false

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       saturday(),
		Shift:      shift,
	})

	if rec.Status != engine.DayOff {
		t.Errorf("inactive saturday is a day off, got %s", rec.Status)
	}
}

func TestReconcileDay_SaturdayMorningJustification_CoversHalfDay(t *testing.T) {
	// The Saturday half-day is a single morning segment; a morning-scope
	// justification excuses it entirely.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID:     "emp-1",
		Date:           saturday(),
		Shift:          standardShift(),
		Justifications: []engine.Justification{vacation(saturday(), nil, engine.ScopeMorning)},
	})

	if rec.Status != engine.DayJustified {
		t.Errorf("expected justified, got %s", rec.Status)
	}
}

func TestReconcileDay_SundayOff(t *testing.T) {
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       sunday(),
		Shift:      standardShift(),
	})

	if rec.Status != engine.DayOff {
		t.Errorf("expected day_off, got %s", rec.Status)
	}
	if rec.ExpectedMinutes != 0 || rec.BalanceMinutes != 0 {
		t.Errorf("day off expects and owes nothing, got expected=%d balance=%d",
			rec.ExpectedMinutes, rec.BalanceMinutes)
	}
}

func TestReconcileDay_SundayWorkable_ObservedCountsPositive(t *testing.T) {
	// sunday_is_off=false: Sunday carries no expected load, but
	// administratively inserted punches count toward the balance.
	shift := standardShift()
	shift.SundayIsOff = false

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       sunday(),
		Shift:      shift,
		Punches: []engine.PunchRecord{
			punch(sunday(), engine.PunchMorningEntry, 8, 0),
			punch(sunday(), engine.PunchLunchExit, 12, 0),
		},
	})

	if rec.ExpectedMinutes != 0 {
		t.Errorf("sunday carries no expected load, got %d", rec.ExpectedMinutes)
	}
	if rec.BalanceMinutes != 240 {
		t.Errorf("expected +240 balance, got %d", rec.BalanceMinutes)
	}
}

// =============================================================================
// ROUNDING AND EDITS
// =============================================================================

func TestReconcileDay_FavorEmployeeRounding(t *testing.T) {
	// 08:07 entry rounds down to 08:00, 16:53 exit rounds up to 17:00:
	// rounding can only increase worked time.
	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    fullDay(monday(), hm(8, 7), hm(12, 0), hm(13, 0), hm(16, 53)),
		Rounding:   engine.RoundingPolicy{Mode: engine.RoundFavorEmployee, IncrementMinutes: 15},
	})

	if rec.WorkedMinutes != 480 {
		t.Errorf("expected 480 worked after rounding, got %d", rec.WorkedMinutes)
	}
	if rec.BalanceMinutes != 0 {
		t.Errorf("expected zero balance, got %d", rec.BalanceMinutes)
	}
}

func TestReconcileDay_EditedPunches_Counted(t *testing.T) {
	punches := fullDay(monday(), hm(8, 0), hm(12, 0), hm(13, 0), hm(17, 0))
	punches[3].Edited = true
	punches[3].DeltaMinutes = 30

	rec := engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID: "emp-1",
		Date:       monday(),
		Shift:      standardShift(),
		Punches:    punches,
	})

	if rec.EditedPunches != 1 {
		t.Errorf("expected 1 edited punch, got %d", rec.EditedPunches)
	}
	if rec.EditedDeltaMinutes != 30 {
		t.Errorf("expected edited delta 30, got %d", rec.EditedDeltaMinutes)
	}
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestReconcileDay_Deterministic(t *testing.T) {
	in := engine.ReconcileInput{
		EmployeeID:     "emp-1",
		Date:           monday(),
		Shift:          standardShift(),
		Punches:        fullDay(monday(), hm(8, 2), hm(12, 1), hm(13, 4), hm(17, 9)),
		Justifications: []engine.Justification{vacation(monday().AddDays(5), nil, engine.ScopeFull)},
	}

	first := engine.ReconcileDay(in)
	second := engine.ReconcileDay(in)
	if !reflect.DeepEqual(first, second) {
		t.Error("reconciling unchanged inputs must yield identical records")
	}
}
