/*
sequence.go - Punch order state machine

PURPOSE:
  Gates punch submission. A day advances through a fixed sequence of punch
  types depending on its weekday class; a submitted punch is accepted only
  if it is the next expected type and its slot is free. Out-of-order or
  duplicate submissions are rejected, not queued or auto-corrected.

STATES:
  Weekday:  none -> has_entry -> has_lunch_exit -> has_lunch_return -> complete
  Saturday: none -> has_entry -> complete           (only if saturday_active)
  Sunday:   blocked                                  (no punches, ever)

  An inactive Saturday behaves like Sunday: blocked.

ADMINISTRATIVE EDITS:
  Edits bypass the forward-only machine (they rewrite an existing slot's
  time) but still preserve type-slot uniqueness and carry a mandatory
  reason code + free-text note. That path lives in the attendance service;
  this file only covers submission.

SEE ALSO:
  - types.go: PunchType, WeekdayClass
  - errors.go: SequenceViolationError
*/
package engine

// RequiredSlots returns the punch types a day of the given class expects,
// in submission order. Nil means the day accepts no punches.
func RequiredSlots(class WeekdayClass, saturdayActive bool) []PunchType {
	switch class {
	case ClassWeekday:
		return []PunchType{PunchMorningEntry, PunchLunchExit, PunchLunchReturn, PunchAfternoonExit}
	case ClassSaturday:
		if !saturdayActive {
			return nil
		}
		// Half day: entry and exit only.
		return []PunchType{PunchMorningEntry, PunchAfternoonExit}
	case ClassSunday:
		return nil
	}
	return nil
}

// NextExpected returns the next punch type the day accepts. ok is false when
// the sequence is complete or the day accepts no punches at all.
func NextExpected(class WeekdayClass, saturdayActive bool, existing []PunchRecord) (PunchType, bool) {
	slots := RequiredSlots(class, saturdayActive)
	for _, slot := range slots {
		if !slotOccupied(existing, slot) {
			return slot, true
		}
	}
	return "", false
}

// ValidatePunch applies the state machine to a submitted punch. It returns
// nil on accept and a *SequenceViolationError on reject.
func ValidatePunch(employeeID EmployeeID, date Date, class WeekdayClass, saturdayActive bool, existing []PunchRecord, submitted PunchType) error {
	if !submitted.Valid() {
		return &ValidationError{Field: "type", Message: "unknown punch type"}
	}

	slots := RequiredSlots(class, saturdayActive)
	if len(slots) == 0 {
		reason := "no punches accepted on sunday"
		if class == ClassSaturday {
			reason = "saturday is not active for this schedule"
		}
		return &SequenceViolationError{
			EmployeeID: employeeID, Date: date, Got: submitted, Reason: reason,
		}
	}

	if slotOccupied(existing, submitted) {
		next, _ := NextExpected(class, saturdayActive, existing)
		return &SequenceViolationError{
			EmployeeID: employeeID, Date: date, Got: submitted, Expected: next,
			Reason: "slot already recorded",
		}
	}

	next, ok := NextExpected(class, saturdayActive, existing)
	if !ok {
		return &SequenceViolationError{
			EmployeeID: employeeID, Date: date, Got: submitted,
			Reason: "day is already complete",
		}
	}
	if next != submitted {
		return &SequenceViolationError{
			EmployeeID: employeeID, Date: date, Got: submitted, Expected: next,
			Reason: "punch out of order",
		}
	}
	return nil
}

func slotOccupied(existing []PunchRecord, t PunchType) bool {
	for _, p := range existing {
		if p.Type == t {
			return true
		}
	}
	return false
}
