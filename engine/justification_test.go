package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/attendance-engine/engine"
)

func TestScopeMatches(t *testing.T) {
	cases := []struct {
		have, want engine.JustificationScope
		expect     bool
	}{
		{engine.ScopeFull, engine.ScopeFull, true},
		{engine.ScopeFull, engine.ScopeMorning, true},
		{engine.ScopeMorning, engine.ScopeFull, true},
		{engine.ScopeMorning, engine.ScopeMorning, true},
		{engine.ScopeMorning, engine.ScopeAfternoon, false},
		{engine.ScopeAfternoon, engine.ScopeMorning, false},
	}
	for _, tc := range cases {
		if got := engine.ScopeMatches(tc.have, tc.want); got != tc.expect {
			t.Errorf("ScopeMatches(%s, %s) = %v, want %v", tc.have, tc.want, got, tc.expect)
		}
	}
}

func TestMatchJustification_PrefersFullScope(t *testing.T) {
	// Defensive tie-break: a full-scope justification wins over a half-day
	// one even when both cover the date.
	morning := vacation(monday(), nil, engine.ScopeMorning)
	full := vacation(monday().AddDays(-2), nil, engine.ScopeFull)
	full.ID = "just-full"

	m := engine.MatchJustification([]engine.Justification{morning, full}, monday(), engine.ScopeFull)
	if m == nil || m.ID != "just-full" {
		t.Fatalf("expected the full-scope match, got %+v", m)
	}
}

func TestMatchJustification_EarliestStartWins(t *testing.T) {
	older := vacation(monday().AddDays(-5), nil, engine.ScopeFull)
	older.ID = "just-old"
	newer := vacation(monday().AddDays(-1), nil, engine.ScopeFull)
	newer.ID = "just-new"

	m := engine.MatchJustification([]engine.Justification{newer, older}, monday(), engine.ScopeFull)
	if m == nil || m.ID != "just-old" {
		t.Fatalf("expected the earlier-starting match, got %+v", m)
	}
}

func TestMatchJustification_NoMatchOutsideRange(t *testing.T) {
	end := monday().AddDays(2)
	j := vacation(monday(), &end, engine.ScopeFull)

	if m := engine.MatchJustification([]engine.Justification{j}, monday().AddDays(3), engine.ScopeFull); m != nil {
		t.Errorf("date past range must not match, got %+v", m)
	}
	if m := engine.MatchJustification([]engine.Justification{j}, monday().AddDays(-1), engine.ScopeFull); m != nil {
		t.Errorf("date before range must not match, got %+v", m)
	}
}

func TestMatchJustification_HalfScopeQuery(t *testing.T) {
	morning := vacation(monday(), nil, engine.ScopeMorning)

	if m := engine.MatchJustification([]engine.Justification{morning}, monday(), engine.ScopeMorning); m == nil {
		t.Error("morning justification must match a morning query")
	}
	if m := engine.MatchJustification([]engine.Justification{morning}, monday(), engine.ScopeAfternoon); m != nil {
		t.Error("morning justification must not match an afternoon query")
	}
}

func TestJustificationsConflict(t *testing.T) {
	end := monday().AddDays(5)
	a := vacation(monday(), &end, engine.ScopeFull)

	overlapping := vacation(monday().AddDays(3), nil, engine.ScopeMorning)
	overlapping.ID = "just-2"
	if !engine.JustificationsConflict(a, overlapping) {
		t.Error("intersecting ranges with overlapping scopes conflict")
	}

	disjointScopes := vacation(monday(), &end, engine.ScopeAfternoon)
	disjointScopes.ID = "just-3"
	morningOnly := vacation(monday(), &end, engine.ScopeMorning)
	morningOnly.ID = "just-4"
	if engine.JustificationsConflict(disjointScopes, morningOnly) {
		t.Error("morning and afternoon never conflict")
	}

	cancelled := vacation(monday(), &end, engine.ScopeFull)
	cancelled.ID = "just-5"
	cancelled.Status = engine.StatusCancelled
	if engine.JustificationsConflict(a, cancelled) {
		t.Error("cancelled justifications never conflict")
	}

	otherEmployee := vacation(monday(), &end, engine.ScopeFull)
	otherEmployee.ID = "just-6"
	otherEmployee.EmployeeID = "emp-2"
	if engine.JustificationsConflict(a, otherEmployee) {
		t.Error("different employees never conflict")
	}
}

func TestValidateJustification(t *testing.T) {
	good := vacation(monday(), nil, engine.ScopeFull)
	if err := engine.ValidateJustification(good); err != nil {
		t.Fatalf("valid justification rejected: %v", err)
	}

	bad := good
	bad.Type = "sabbatical"
	if err := engine.ValidateJustification(bad); !errors.Is(err, engine.ErrValidation) {
		t.Error("unknown type must be rejected")
	}

	bad = good
	bad.Scope = "evening"
	if err := engine.ValidateJustification(bad); !errors.Is(err, engine.ErrValidation) {
		t.Error("unknown scope must be rejected")
	}

	bad = good
	end := engine.NewDate(2025, time.March, 1)
	bad.DateEnd = &end
	if err := engine.ValidateJustification(bad); !errors.Is(err, engine.ErrValidation) {
		t.Error("inverted range must be rejected")
	}
}
