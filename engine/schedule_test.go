package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/attendance-engine/engine"
)

func validGroup() engine.ScheduleGroup {
	return engine.ScheduleGroup{
		ID:   "grp-std",
		Name: "Standard",

		EntryMorning:  hm(8, 0),
		LunchExit:     hm(12, 0),
		LunchReturn:   hm(13, 0),
		ExitAfternoon: hm(17, 0),

		DailyLoadMinutes: 480,
		ToleranceMinutes: 10,

		SaturdayActive:      true,
		SaturdayEntry:       hm(8, 0),
		SaturdayExit:        hm(12, 0),
		SaturdayLoadMinutes: 240,

		SundayIsOff: true,
		Version:     1,
	}
}

// =============================================================================
// GROUP VALIDATION
// =============================================================================

func TestValidateGroup_Accepts44HourWeek(t *testing.T) {
	if err := engine.ValidateGroup(validGroup()); err != nil {
		t.Fatalf("480*5 + 240 = 2640 must be accepted: %v", err)
	}
}

func TestValidateGroup_AcceptsNoSaturday(t *testing.T) {
	g := validGroup()
	g.SaturdayActive = false
	g.SaturdayLoadMinutes = 0
	g.DailyLoadMinutes = 528 // 528*5 = 2640

	if err := engine.ValidateGroup(g); err != nil {
		t.Fatalf("528*5 = 2640 must be accepted: %v", err)
	}
}

func TestValidateGroup_RejectsWrongWeeklyLoad(t *testing.T) {
	g := validGroup()
	g.DailyLoadMinutes = 500 // 500*5 + 240 = 2740

	err := engine.ValidateGroup(g)
	if !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateGroup_RejectsDisorderedTimes(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*engine.ScheduleGroup)
	}{
		{"entry after lunch_exit", func(g *engine.ScheduleGroup) { g.EntryMorning = hm(13, 0) }},
		{"lunch_return before lunch_exit", func(g *engine.ScheduleGroup) { g.LunchReturn = hm(11, 0) }},
		{"exit before lunch_return", func(g *engine.ScheduleGroup) { g.ExitAfternoon = hm(12, 30) }},
		{"saturday exit before entry", func(g *engine.ScheduleGroup) { g.SaturdayExit = hm(7, 0) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := validGroup()
			tc.mutate(&g)
			if err := engine.ValidateGroup(g); !errors.Is(err, engine.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestValidateGroup_RejectsNegativeTolerance(t *testing.T) {
	g := validGroup()
	g.ToleranceMinutes = -1
	if err := engine.ValidateGroup(g); !errors.Is(err, engine.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestTimeFieldsChanged(t *testing.T) {
	a := validGroup()
	b := a
	b.Name = "Renamed"
	if engine.TimeFieldsChanged(a, b) {
		t.Error("renaming is not a time-affecting change")
	}
	b.LunchReturn = hm(14, 0)
	if !engine.TimeFieldsChanged(a, b) {
		t.Error("changing a shift time must be detected")
	}
}

// =============================================================================
// SHIFT RESOLUTION
// =============================================================================

func TestResolveShift_NoOverride(t *testing.T) {
	def := engine.ResolveShift(validGroup(), nil)
	if def.EntryMorning != hm(8, 0) || def.DailyLoadMinutes != 480 {
		t.Errorf("group fields must pass through unchanged: %+v", def)
	}
	if def.OverrideID != "" {
		t.Error("no override applied, override_id must be empty")
	}
	if def.GroupVersion != 1 {
		t.Errorf("expected group version 1, got %d", def.GroupVersion)
	}
}

func TestResolveShift_FieldByFieldFallback(t *testing.T) {
	// GIVEN: An override setting only the afternoon exit and tolerance
	// THEN: Those two fields come from the override, everything else from
	//       the group

	exit := hm(16, 0)
	tol := 5
	override := &engine.ScheduleOverride{
		ID:               "ovr-1",
		EmployeeID:       "emp-1",
		DateStart:        engine.NewDate(2025, time.March, 1),
		ExitAfternoon:    &exit,
		ToleranceMinutes: &tol,
		Active:           true,
	}

	def := engine.ResolveShift(validGroup(), override)
	if def.ExitAfternoon != hm(16, 0) {
		t.Errorf("expected overridden exit 16:00, got %s", def.ExitAfternoon)
	}
	if def.ToleranceMinutes != 5 {
		t.Errorf("expected overridden tolerance 5, got %d", def.ToleranceMinutes)
	}
	if def.EntryMorning != hm(8, 0) || def.DailyLoadMinutes != 480 {
		t.Error("unset override fields must fall back to the group")
	}
	if def.OverrideID != "ovr-1" {
		t.Errorf("expected override_id ovr-1, got %q", def.OverrideID)
	}
}

func TestOverrideCovers(t *testing.T) {
	end := engine.NewDate(2025, time.March, 20)
	o := engine.ScheduleOverride{
		DateStart: engine.NewDate(2025, time.March, 10),
		DateEnd:   &end,
	}

	if o.Covers(engine.NewDate(2025, time.March, 9)) {
		t.Error("day before start must not be covered")
	}
	if !o.Covers(engine.NewDate(2025, time.March, 10)) || !o.Covers(end) {
		t.Error("range is inclusive on both ends")
	}
	if o.Covers(engine.NewDate(2025, time.March, 21)) {
		t.Error("day after end must not be covered")
	}

	o.DateEnd = nil
	if !o.Covers(engine.NewDate(2030, time.January, 1)) {
		t.Error("open-ended override covers any later date")
	}
}

func TestOverridesIntersect(t *testing.T) {
	d := func(day int) engine.Date { return engine.NewDate(2025, time.March, day) }
	end10 := d(10)
	end20 := d(20)

	a := engine.ScheduleOverride{DateStart: d(1), DateEnd: &end10}
	b := engine.ScheduleOverride{DateStart: d(10), DateEnd: &end20}
	if !engine.OverridesIntersect(a, b) {
		t.Error("ranges sharing a boundary day intersect")
	}

	c := engine.ScheduleOverride{DateStart: d(11), DateEnd: &end20}
	if engine.OverridesIntersect(a, c) {
		t.Error("disjoint ranges must not intersect")
	}

	open := engine.ScheduleOverride{DateStart: d(5)}
	if !engine.OverridesIntersect(open, c) {
		t.Error("an open-ended range intersects everything after its start")
	}
}
