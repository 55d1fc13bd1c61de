package engine

// =============================================================================
// ROUNDING POLICY - Applied to punch times before balance calculation
// =============================================================================

// RoundingMode selects how punch times are snapped to the increment.
type RoundingMode string

const (
	// RoundNone leaves punch times untouched (the default).
	RoundNone RoundingMode = "none"

	// RoundNearest snaps to the nearest increment, half away from zero.
	RoundNearest RoundingMode = "nearest"

	// RoundFavorEmployee rounds work-start punches down and work-end
	// punches up, so rounding can only increase worked time.
	RoundFavorEmployee RoundingMode = "favor_employee"
)

// RoundingPolicy is a policy parameter, not a hardcoded constant: the rule
// the source data carries is unspecified, so deployments choose one and the
// engine applies it uniformly across all call sites.
type RoundingPolicy struct {
	Mode             RoundingMode
	IncrementMinutes int
}

// DefaultRounding performs no rounding.
var DefaultRounding = RoundingPolicy{Mode: RoundNone}

// worksStart reports whether a punch type opens a work segment. Segment
// openers favor the employee when rounded down; closers when rounded up.
func worksStart(t PunchType) bool {
	return t == PunchMorningEntry || t == PunchLunchReturn
}

// Apply rounds one punch time according to the policy.
func (p RoundingPolicy) Apply(t MinuteOfDay, punchType PunchType) MinuteOfDay {
	if p.Mode == RoundNone || p.IncrementMinutes <= 1 {
		return t
	}
	inc := MinuteOfDay(p.IncrementMinutes)
	rem := t % inc

	switch p.Mode {
	case RoundNearest:
		if rem*2 >= inc {
			return t - rem + inc
		}
		return t - rem
	case RoundFavorEmployee:
		if rem == 0 {
			return t
		}
		if worksStart(punchType) {
			return t - rem
		}
		return t - rem + inc
	}
	return t
}
