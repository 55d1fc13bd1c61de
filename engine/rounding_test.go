package engine_test

import (
	"testing"

	"github.com/warp/attendance-engine/engine"
)

func TestRounding_None(t *testing.T) {
	p := engine.DefaultRounding
	if got := p.Apply(hm(8, 7), engine.PunchMorningEntry); got != hm(8, 7) {
		t.Errorf("no rounding must leave times untouched, got %s", got)
	}
}

func TestRounding_Nearest(t *testing.T) {
	p := engine.RoundingPolicy{Mode: engine.RoundNearest, IncrementMinutes: 15}
	cases := []struct {
		in, want engine.MinuteOfDay
	}{
		{hm(8, 7), hm(8, 0)},
		{hm(8, 8), hm(8, 15)},
		{hm(8, 15), hm(8, 15)},
		{hm(8, 22), hm(8, 15)},
		{hm(8, 23), hm(8, 30)},
	}
	for _, tc := range cases {
		if got := p.Apply(tc.in, engine.PunchMorningEntry); got != tc.want {
			t.Errorf("Apply(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestRounding_FavorEmployee(t *testing.T) {
	// Segment openers round down, closers round up: rounding can only
	// increase worked time.
	p := engine.RoundingPolicy{Mode: engine.RoundFavorEmployee, IncrementMinutes: 10}

	if got := p.Apply(hm(8, 9), engine.PunchMorningEntry); got != hm(8, 0) {
		t.Errorf("opener must round down, got %s", got)
	}
	if got := p.Apply(hm(13, 1), engine.PunchLunchReturn); got != hm(13, 0) {
		t.Errorf("lunch_return is an opener, got %s", got)
	}
	if got := p.Apply(hm(11, 51), engine.PunchLunchExit); got != hm(12, 0) {
		t.Errorf("closer must round up, got %s", got)
	}
	if got := p.Apply(hm(17, 2), engine.PunchAfternoonExit); got != hm(17, 10) {
		t.Errorf("closer must round up, got %s", got)
	}
	if got := p.Apply(hm(17, 0), engine.PunchAfternoonExit); got != hm(17, 0) {
		t.Errorf("exact increment stays put, got %s", got)
	}
}

func TestRounding_IncrementOfOneIsIdentity(t *testing.T) {
	p := engine.RoundingPolicy{Mode: engine.RoundNearest, IncrementMinutes: 1}
	if got := p.Apply(hm(8, 7), engine.PunchMorningEntry); got != hm(8, 7) {
		t.Errorf("increment 1 must be identity, got %s", got)
	}
}
