/*
justification.go - Scope matching and conflict detection for justifications

PURPOSE:
  Resolves which active justification, if any, covers a slice of an
  employee's day, and detects the overlaps that creation must reject.

SCOPE COMPATIBILITY:
  - A full-scope justification matches every query.
  - A morning/afternoon justification matches the same scope, and also a
    full query (callers asking "anything on this day?" get the most
    specific match; complete-day semantics require checking both halves).

TIE-BREAK:
  Multiple matches should not happen under the overlap invariant, but the
  resolver is defensive: prefer full scope, then earliest date_start.

SEE ALSO:
  - types.go: Justification, JustificationScope
  - reconcile.go: Uses Match for full and per-half queries
*/
package engine

// ScopeMatches reports whether a justification with scope have satisfies a
// query for scope want.
func ScopeMatches(have, want JustificationScope) bool {
	if have == ScopeFull || want == ScopeFull {
		return true
	}
	return have == want
}

// ScopesOverlap reports whether two justification scopes cover a common
// slice of the day. Full overlaps everything; morning/afternoon overlap
// themselves and full.
func ScopesOverlap(a, b JustificationScope) bool {
	if a == ScopeFull || b == ScopeFull {
		return true
	}
	return a == b
}

// MatchJustification returns the highest-priority active justification
// covering the date with a compatible scope, or nil.
func MatchJustification(candidates []Justification, date Date, scope JustificationScope) *Justification {
	var best *Justification
	for i := range candidates {
		j := &candidates[i]
		if j.Status != StatusActive || !j.Covers(date) || !ScopeMatches(j.Scope, scope) {
			continue
		}
		if best == nil || betterMatch(j, best) {
			best = j
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// betterMatch implements the defensive tie-break: full scope wins, then
// earliest date_start.
func betterMatch(candidate, current *Justification) bool {
	if candidate.Scope == ScopeFull && current.Scope != ScopeFull {
		return true
	}
	if candidate.Scope != ScopeFull && current.Scope == ScopeFull {
		return false
	}
	return candidate.DateStart.Before(current.DateStart)
}

// JustificationsConflict reports whether two justifications violate the
// overlap invariant: same employee, both active, intersecting date ranges,
// overlapping scopes.
func JustificationsConflict(a, b Justification) bool {
	if a.EmployeeID != b.EmployeeID {
		return false
	}
	if a.Status != StatusActive || b.Status != StatusActive {
		return false
	}
	if !ScopesOverlap(a.Scope, b.Scope) {
		return false
	}
	return rangesIntersect(a.DateStart, a.DateEnd, b.DateStart, b.DateEnd)
}

// ValidateJustification checks a justification before creation.
func ValidateJustification(j Justification) error {
	if j.EmployeeID == "" {
		return &ValidationError{Field: "employee_id", Message: "required"}
	}
	if !j.Type.Valid() {
		return &ValidationError{Field: "type", Message: "unknown justification type"}
	}
	if !j.Scope.Valid() {
		return &ValidationError{Field: "scope", Message: "unknown scope"}
	}
	if j.DateStart.IsZero() {
		return &ValidationError{Field: "date_start", Message: "required"}
	}
	if j.DateEnd != nil && j.DateEnd.Before(j.DateStart) {
		return &ValidationError{Field: "date_end", Message: "must not be before date_start"}
	}
	return nil
}
