/*
Package engine provides the core attendance reconciliation engine.

PURPOSE:
  This package contains the pure computation behind attendance tracking:
  validating the order of daily time punches, resolving which work schedule
  applies to an employee on a date, resolving approved absences that
  supersede raw punches, and computing worked-minutes and balance-minutes
  with tolerance semantics for single days and multi-day periods.

KEY CONCEPTS IN THIS FILE (types.go):
  - PunchType / PunchRecord: The four fixed daily attendance events
  - ScheduleGroup / ScheduleOverride / ShiftDefinition: Shift templates
  - Justification: Approved absence superseding punch-based balance
  - DayRecord / PeriodSummary: Derived reconciliation output

DESIGN PRINCIPLES:
  1. Purity: Every function is deterministic in its inputs. The engine never
     reads the clock, a session, or any ambient state.
  2. Closed enumerations: Punch types, justification types, scopes, and
     reason codes are tagged constants matched exhaustively, never loose
     strings.
  3. Single implementation: Dashboard, administrative editing, and bulk
     reports all call the same computation, so balances can never diverge
     between call sites.

SEE ALSO:
  - schedule.go: Override precedence and shift resolution
  - justification.go: Scope matching and conflict detection
  - sequence.go: Punch order state machine
  - reconcile.go: Per-day worked/balance computation
  - aggregate.go: Period totals
*/
package engine

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type GroupID string

// =============================================================================
// WEEKDAY CLASS
// =============================================================================

// WeekdayClass governs which punch sequence and expected load apply.
type WeekdayClass string

const (
	ClassWeekday  WeekdayClass = "weekday"
	ClassSaturday WeekdayClass = "saturday"
	ClassSunday   WeekdayClass = "sunday"
)

// =============================================================================
// PUNCH - Single timestamped attendance event
// =============================================================================

type PunchType string

const (
	PunchMorningEntry  PunchType = "morning_entry"
	PunchLunchExit     PunchType = "lunch_exit"
	PunchLunchReturn   PunchType = "lunch_return"
	PunchAfternoonExit PunchType = "afternoon_exit"
)

// PunchTypes lists all punch types in daily order.
var PunchTypes = []PunchType{
	PunchMorningEntry, PunchLunchExit, PunchLunchReturn, PunchAfternoonExit,
}

func (t PunchType) Valid() bool {
	switch t {
	case PunchMorningEntry, PunchLunchExit, PunchLunchReturn, PunchAfternoonExit:
		return true
	}
	return false
}

// ReasonCode classifies an administrative punch edit or insertion.
type ReasonCode string

const (
	ReasonForgottenPunch   ReasonCode = "forgotten_punch"
	ReasonOperatorError    ReasonCode = "operator_error"
	ReasonTechnicalFailure ReasonCode = "technical_failure"
	ReasonAdministrative   ReasonCode = "administrative_justification"
	ReasonOther            ReasonCode = "other"
)

func (c ReasonCode) Valid() bool {
	switch c {
	case ReasonForgottenPunch, ReasonOperatorError, ReasonTechnicalFailure,
		ReasonAdministrative, ReasonOther:
		return true
	}
	return false
}

// GeoPoint is an optional punch geolocation. The engine records it but never
// interprets it (geofencing is out of scope).
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// PunchRecord is one attendance event. At most one record exists per
// (employee, date, type). Records are mutated only through the audited
// administrative edit path, never silently overwritten.
type PunchRecord struct {
	ID         string
	EmployeeID EmployeeID
	Date       Date
	Type       PunchType
	At         MinuteOfDay
	Location   *GeoPoint

	// Edit metadata, set only by the administrative edit path.
	Edited       bool
	EditedBy     string
	EditedAt     time.Time
	ReasonCode   ReasonCode
	DeltaMinutes int
	Note         string
}

// =============================================================================
// SCHEDULE - Shift templates and temporal overrides
// =============================================================================

// WeeklyLoadMinutes is the mandated 44-hour work week.
const WeeklyLoadMinutes = 2640

// ScheduleGroup is the named, versioned shift template assigned to employees.
// Version increments whenever a time-affecting field changes, so historical
// days remain attributable to the schedule that was in force.
type ScheduleGroup struct {
	ID   GroupID
	Name string

	EntryMorning  MinuteOfDay
	LunchExit     MinuteOfDay
	LunchReturn   MinuteOfDay
	ExitAfternoon MinuteOfDay

	DailyLoadMinutes int
	ToleranceMinutes int

	SaturdayActive      bool
	SaturdayEntry       MinuteOfDay
	SaturdayExit        MinuteOfDay
	SaturdayLoadMinutes int

	SundayIsOff bool

	Version int
}

// ScheduleOverride is a temporary, date-ranged replacement of an employee's
// schedule fields. Nil fields inherit from the employee's ScheduleGroup.
// At most one override is active for a given employee/date; creating a new
// overlapping override deactivates the predecessors it intersects.
type ScheduleOverride struct {
	ID         string
	EmployeeID EmployeeID
	DateStart  Date
	DateEnd    *Date // nil = open-ended

	EntryMorning  *MinuteOfDay
	LunchExit     *MinuteOfDay
	LunchReturn   *MinuteOfDay
	ExitAfternoon *MinuteOfDay

	DailyLoadMinutes *int
	ToleranceMinutes *int

	SaturdayActive      *bool
	SaturdayEntry       *MinuteOfDay
	SaturdayExit        *MinuteOfDay
	SaturdayLoadMinutes *int

	SundayIsOff *bool

	Reason string
	Active bool
}

// Covers returns true if the override's date range contains the date.
func (o ScheduleOverride) Covers(d Date) bool {
	if d.Before(o.DateStart) {
		return false
	}
	return o.DateEnd == nil || d.BeforeOrEqual(*o.DateEnd)
}

// ShiftDefinition is the flat, resolved schedule for one employee on one
// date: group fields with any active override applied field-by-field.
type ShiftDefinition struct {
	GroupID      GroupID
	GroupVersion int
	OverrideID   string // empty when no override applied

	EntryMorning  MinuteOfDay
	LunchExit     MinuteOfDay
	LunchReturn   MinuteOfDay
	ExitAfternoon MinuteOfDay

	DailyLoadMinutes int
	ToleranceMinutes int

	SaturdayActive      bool
	SaturdayEntry       MinuteOfDay
	SaturdayExit        MinuteOfDay
	SaturdayLoadMinutes int

	SundayIsOff bool
}

// =============================================================================
// EMPLOYEE - Read-only view owned by the personnel collaborator
// =============================================================================

type Employee struct {
	ID      EmployeeID
	Name    string
	GroupID GroupID
	Active  bool
}

// =============================================================================
// JUSTIFICATION - Approved absence superseding punches
// =============================================================================

type JustificationType string

const (
	JustificationVacation    JustificationType = "vacation"
	JustificationMedical     JustificationType = "medical_certificate"
	JustificationPartial     JustificationType = "partial_absence"
	JustificationUnpaidLeave JustificationType = "unpaid_leave"
	JustificationPaidLeave   JustificationType = "paid_leave"
	JustificationDayOff      JustificationType = "authorized_day_off"
)

func (t JustificationType) Valid() bool {
	switch t {
	case JustificationVacation, JustificationMedical, JustificationPartial,
		JustificationUnpaidLeave, JustificationPaidLeave, JustificationDayOff:
		return true
	}
	return false
}

// JustificationScope is which slice of the day a justification covers.
// Full overlaps everything; morning/afternoon overlap themselves and full.
type JustificationScope string

const (
	ScopeFull      JustificationScope = "full"
	ScopeMorning   JustificationScope = "morning"
	ScopeAfternoon JustificationScope = "afternoon"
)

func (s JustificationScope) Valid() bool {
	switch s {
	case ScopeFull, ScopeMorning, ScopeAfternoon:
		return true
	}
	return false
}

type JustificationStatus string

const (
	StatusActive    JustificationStatus = "active"
	StatusCancelled JustificationStatus = "cancelled" // terminal, explicit reason
	StatusExpired   JustificationStatus = "expired"   // automatic, date_end passed
)

// Justification is an approved absence/leave record. Active justifications
// for one employee may never overlap in both date range and scope.
type Justification struct {
	ID         string
	EmployeeID EmployeeID
	Type       JustificationType
	DateStart  Date
	DateEnd    *Date // nil = open-ended
	Scope      JustificationScope
	Status     JustificationStatus

	BlocksPunch   bool
	AbatesAbsence bool
	Reason        string

	CreatedAt    time.Time
	CancelReason string
}

// Covers returns true if the justification's date range contains the date.
func (j Justification) Covers(d Date) bool {
	if d.Before(j.DateStart) {
		return false
	}
	return j.DateEnd == nil || d.BeforeOrEqual(*j.DateEnd)
}

// =============================================================================
// DAY RECORD - Derived per-day reconciliation result
// =============================================================================

type DayStatus string

const (
	DayComplete   DayStatus = "complete"
	DayIncomplete DayStatus = "incomplete"
	DayJustified  DayStatus = "justified"
	DayOff        DayStatus = "day_off"
)

// DayRecord is the reconciled view of one employee-day. It is derived, not
// persisted as source of truth: recomputing it over unchanged rows yields an
// identical record.
type DayRecord struct {
	Date  Date
	Class WeekdayClass
	Shift ShiftDefinition

	// Punch slots; nil = missing. Raw punch data is surfaced even on
	// justified days, it just does not enter the balance.
	Entry       *MinuteOfDay
	LunchExit   *MinuteOfDay
	LunchReturn *MinuteOfDay
	Exit        *MinuteOfDay

	Justification *Justification

	WorkedMinutes   int
	ExpectedMinutes int
	RawDelta        int
	BalanceMinutes  int

	Status          DayStatus
	WithinTolerance bool
	Anomalous       bool

	EditedPunches      int
	EditedDeltaMinutes int
}

// =============================================================================
// PERIOD SUMMARY - Derived multi-day totals
// =============================================================================

type PeriodSummary struct {
	Period Period

	TotalWorkedMinutes   int
	TotalExtraMinutes    int
	TotalShortageMinutes int
	NetBalanceMinutes    int

	CompleteDays   int
	IncompleteDays int
	JustifiedDays  int
	DayOffDays     int

	EditedPunches      int
	EditedDeltaMinutes int
}
