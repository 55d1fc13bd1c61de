/*
Package attendance is the single service boundary over the engine.

PURPOSE:
  Wires the pure engine computations to persistence. Every consumer - the
  live dashboard, the administrative editor, the bulk report generator -
  goes through this service, so balance logic exists exactly once and can
  never diverge between call sites.

OPERATIONS:
  Reads (pure, freely concurrent and cacheable):
    ResolveSchedule, ResolveJustification, ReconcileDay, ReconcilePeriod

  Writes (short, synchronous, serialized per employee-day by the store's
  unique constraint):
    SubmitPunch, InsertPunchAdmin, EditPunch
    CreateScheduleGroup, UpdateScheduleGroup
    CreateOverride (deactivates overlapping predecessors, last-write-wins)
    CreateJustification (overlap -> ConflictError), CancelJustification,
    ExpireJustifications, DeleteJustification

AMBIENT STATE:
  None. Identity and as-of dates are explicit parameters on every call;
  the only clock in the package is the injectable `now` used for audit
  timestamps, never for balance computation.

SEE ALSO:
  - engine: The pure computations this service invokes
  - store.go: The persistence interfaces this service consumes
*/
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/warp/attendance-engine/engine"
)

// Service combines the engine with persistence. All methods are safe for
// concurrent use as long as the underlying stores are.
type Service struct {
	Employees      EmployeeStore
	Schedules      ScheduleStore
	Punches        PunchStore
	Justifications JustificationStore
	Audit          AuditLog

	Rounding engine.RoundingPolicy

	// now is injectable for tests. It stamps audit records only; balance
	// computation never reads it.
	now func() time.Time
}

func NewService(employees EmployeeStore, schedules ScheduleStore, punches PunchStore, justifications JustificationStore, audit AuditLog, rounding engine.RoundingPolicy) *Service {
	return &Service{
		Employees:      employees,
		Schedules:      schedules,
		Punches:        punches,
		Justifications: justifications,
		Audit:          audit,
		Rounding:       rounding,
		now:            time.Now,
	}
}

// WithClock replaces the audit timestamp source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// =============================================================================
// RESOLVERS
// =============================================================================

// ResolveSchedule returns the effective shift definition for the employee
// on the date: the group revision in force merged with any active override.
func (s *Service) ResolveSchedule(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) (engine.ShiftDefinition, error) {
	emp, err := s.requireEmployee(ctx, employeeID)
	if err != nil {
		return engine.ShiftDefinition{}, err
	}

	group, err := s.Schedules.GroupVersionAt(ctx, emp.GroupID, date)
	if err != nil {
		return engine.ShiftDefinition{}, err
	}
	if group == nil {
		return engine.ShiftDefinition{}, fmt.Errorf("schedule group %s: %w", emp.GroupID, engine.ErrNotFound)
	}

	override, err := s.Schedules.ActiveOverride(ctx, employeeID, date)
	if err != nil {
		return engine.ShiftDefinition{}, err
	}
	return engine.ResolveShift(*group, override), nil
}

// ResolveJustification returns the highest-priority active justification
// covering the date for the requested scope, or nil.
func (s *Service) ResolveJustification(ctx context.Context, employeeID engine.EmployeeID, date engine.Date, scope engine.JustificationScope) (*engine.Justification, error) {
	if !scope.Valid() {
		return nil, &engine.ValidationError{Field: "scope", Message: "unknown scope"}
	}
	if _, err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	candidates, err := s.Justifications.ActiveCovering(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	return engine.MatchJustification(candidates, date, scope), nil
}

func (s *Service) requireEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	emp, err := s.Employees.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, &engine.EmployeeUnavailableError{EmployeeID: id}
	}
	if !emp.Active {
		return nil, &engine.EmployeeUnavailableError{EmployeeID: id, Inactive: true}
	}
	return emp, nil
}

// =============================================================================
// PUNCH SUBMISSION
// =============================================================================

// SubmitPunch validates the punch against the day's state machine and
// persists it. The sequence check is a pre-check for a friendly rejection;
// the store's unique constraint remains the authoritative guard under
// concurrency.
func (s *Service) SubmitPunch(ctx context.Context, employeeID engine.EmployeeID, date engine.Date, t engine.PunchType, at engine.MinuteOfDay, loc *engine.GeoPoint) (engine.PunchRecord, error) {
	if !at.Valid() {
		return engine.PunchRecord{}, &engine.ValidationError{Field: "at", Message: "not a valid time of day"}
	}

	shift, err := s.ResolveSchedule(ctx, employeeID, date)
	if err != nil {
		return engine.PunchRecord{}, err
	}

	// A blocking justification refuses punches for its slice of the day.
	candidates, err := s.Justifications.ActiveCovering(ctx, employeeID, date)
	if err != nil {
		return engine.PunchRecord{}, err
	}
	if j := engine.MatchJustification(candidates, date, scopeForPunch(t)); j != nil && j.BlocksPunch {
		return engine.PunchRecord{}, &engine.SequenceViolationError{
			EmployeeID: employeeID, Date: date, Got: t,
			Reason: fmt.Sprintf("day is covered by %s justification", j.Type),
		}
	}

	existing, err := s.Punches.PunchesForDay(ctx, employeeID, date)
	if err != nil {
		return engine.PunchRecord{}, err
	}
	if err := engine.ValidatePunch(employeeID, date, date.Class(), shift.SaturdayActive, existing, t); err != nil {
		return engine.PunchRecord{}, err
	}

	rec := engine.PunchRecord{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
		Type:       t,
		At:         at,
		Location:   loc,
	}
	if err := s.Punches.InsertPunch(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			// Lost a race with a concurrent submission for the same slot.
			next, _ := engine.NextExpected(date.Class(), shift.SaturdayActive, append(existing, rec))
			return engine.PunchRecord{}, &engine.SequenceViolationError{
				EmployeeID: employeeID, Date: date, Got: t, Expected: next,
				Reason: "slot already recorded",
			}
		}
		return engine.PunchRecord{}, err
	}
	return rec, nil
}

// scopeForPunch maps a punch type onto the half-day it belongs to, for
// blocking-justification checks.
func scopeForPunch(t engine.PunchType) engine.JustificationScope {
	switch t {
	case engine.PunchMorningEntry, engine.PunchLunchExit:
		return engine.ScopeMorning
	default:
		return engine.ScopeAfternoon
	}
}

// InsertPunchAdmin places a punch directly into a slot, bypassing the
// forward-only state machine. Slot uniqueness still holds and the action
// is audited with a mandatory reason code and note.
func (s *Service) InsertPunchAdmin(ctx context.Context, actorID string, employeeID engine.EmployeeID, date engine.Date, t engine.PunchType, at engine.MinuteOfDay, code engine.ReasonCode, note string) (engine.PunchRecord, error) {
	if err := validateEditMetadata(t, at, code, note); err != nil {
		return engine.PunchRecord{}, err
	}
	if _, err := s.requireEmployee(ctx, employeeID); err != nil {
		return engine.PunchRecord{}, err
	}

	rec := engine.PunchRecord{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       date,
		Type:       t,
		At:         at,
		Edited:     true,
		EditedBy:   actorID,
		EditedAt:   s.now(),
		ReasonCode: code,
		Note:       note,
	}
	if err := s.Punches.InsertPunch(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return engine.PunchRecord{}, &engine.ConflictError{
				Kind: "punch", EmployeeID: employeeID,
				Conflicting: []string{string(t)},
			}
		}
		return engine.PunchRecord{}, err
	}

	s.audit(ctx, actorID, AuditPunchInserted, employeeID, map[string]string{
		"date": date.String(), "type": string(t), "at": at.String(),
		"reason_code": string(code), "note": note,
	})
	return rec, nil
}

// EditPunch rewrites an existing slot's time through the audited path. The
// original time is preserved in the delta and the audit entry; the record
// is never silently overwritten.
func (s *Service) EditPunch(ctx context.Context, actorID string, employeeID engine.EmployeeID, date engine.Date, t engine.PunchType, newAt engine.MinuteOfDay, code engine.ReasonCode, note string) (engine.PunchRecord, error) {
	if err := validateEditMetadata(t, newAt, code, note); err != nil {
		return engine.PunchRecord{}, err
	}
	if _, err := s.requireEmployee(ctx, employeeID); err != nil {
		return engine.PunchRecord{}, err
	}

	rec, err := s.Punches.GetPunch(ctx, employeeID, date, t)
	if err != nil {
		return engine.PunchRecord{}, err
	}
	if rec == nil {
		return engine.PunchRecord{}, fmt.Errorf("punch %s on %s: %w", t, date, engine.ErrNotFound)
	}

	previous := rec.At
	rec.At = newAt
	rec.Edited = true
	rec.EditedBy = actorID
	rec.EditedAt = s.now()
	rec.ReasonCode = code
	rec.DeltaMinutes += int(newAt - previous)
	rec.Note = note

	if err := s.Punches.UpdatePunch(ctx, *rec); err != nil {
		return engine.PunchRecord{}, err
	}

	s.audit(ctx, actorID, AuditPunchEdited, employeeID, map[string]string{
		"date": date.String(), "type": string(t),
		"from": previous.String(), "to": newAt.String(),
		"delta_minutes": strconv.Itoa(int(newAt - previous)),
		"reason_code":   string(code), "note": note,
	})
	return *rec, nil
}

func validateEditMetadata(t engine.PunchType, at engine.MinuteOfDay, code engine.ReasonCode, note string) error {
	if !t.Valid() {
		return &engine.ValidationError{Field: "type", Message: "unknown punch type"}
	}
	if !at.Valid() {
		return &engine.ValidationError{Field: "at", Message: "not a valid time of day"}
	}
	if !code.Valid() {
		return &engine.ValidationError{Field: "reason_code", Message: "unknown reason code"}
	}
	if note == "" {
		return &engine.ValidationError{Field: "note", Message: "a justification note is mandatory"}
	}
	return nil
}

// =============================================================================
// SCHEDULE GROUPS AND OVERRIDES
// =============================================================================

// CreateScheduleGroup validates and persists a new group at version 1.
func (s *Service) CreateScheduleGroup(ctx context.Context, g engine.ScheduleGroup) (engine.ScheduleGroup, error) {
	if err := engine.ValidateGroup(g); err != nil {
		return engine.ScheduleGroup{}, err
	}
	if g.ID == "" {
		g.ID = engine.GroupID(uuid.NewString())
	}
	g.Version = 1
	if err := s.Schedules.SaveGroup(ctx, g, false); err != nil {
		return engine.ScheduleGroup{}, err
	}
	return g, nil
}

// UpdateScheduleGroup validates and persists changes to a group. A change
// to any time-affecting field archives the previous revision and bumps the
// version, so historical reconciliation stays attributable.
func (s *Service) UpdateScheduleGroup(ctx context.Context, actorID string, g engine.ScheduleGroup) (engine.ScheduleGroup, error) {
	if err := engine.ValidateGroup(g); err != nil {
		return engine.ScheduleGroup{}, err
	}
	current, err := s.Schedules.GetGroup(ctx, g.ID)
	if err != nil {
		return engine.ScheduleGroup{}, err
	}
	if current == nil {
		return engine.ScheduleGroup{}, fmt.Errorf("schedule group %s: %w", g.ID, engine.ErrNotFound)
	}

	bump := engine.TimeFieldsChanged(*current, g)
	g.Version = current.Version
	if bump {
		g.Version = current.Version + 1
	}
	if err := s.Schedules.SaveGroup(ctx, g, bump); err != nil {
		return engine.ScheduleGroup{}, err
	}

	s.audit(ctx, actorID, AuditGroupChanged, "", map[string]string{
		"group_id": string(g.ID), "version": strconv.Itoa(g.Version),
	})
	return g, nil
}

// CreateOverride persists a new override and deactivates any active
// predecessors whose range intersects it: last-write-wins, never silent
// coexistence.
func (s *Service) CreateOverride(ctx context.Context, actorID string, o engine.ScheduleOverride) (engine.ScheduleOverride, error) {
	if o.EmployeeID == "" {
		return engine.ScheduleOverride{}, &engine.ValidationError{Field: "employee_id", Message: "required"}
	}
	if o.DateStart.IsZero() {
		return engine.ScheduleOverride{}, &engine.ValidationError{Field: "date_start", Message: "required"}
	}
	if o.DateEnd != nil && o.DateEnd.Before(o.DateStart) {
		return engine.ScheduleOverride{}, &engine.ValidationError{Field: "date_end", Message: "must not be before date_start"}
	}
	if _, err := s.requireEmployee(ctx, o.EmployeeID); err != nil {
		return engine.ScheduleOverride{}, err
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	overlapping, err := s.Schedules.ActiveOverridesIntersecting(ctx, o.EmployeeID, o.DateStart, o.DateEnd)
	if err != nil {
		return engine.ScheduleOverride{}, err
	}
	for _, prev := range overlapping {
		if err := s.Schedules.DeactivateOverride(ctx, prev.ID); err != nil {
			return engine.ScheduleOverride{}, err
		}
		s.audit(ctx, actorID, AuditOverrideDeactivated, o.EmployeeID, map[string]string{
			"override_id": prev.ID, "superseded_by": o.ID,
		})
	}

	o.Active = true
	if err := s.Schedules.SaveOverride(ctx, o); err != nil {
		return engine.ScheduleOverride{}, err
	}

	s.audit(ctx, actorID, AuditOverrideCreated, o.EmployeeID, map[string]string{
		"override_id": o.ID, "date_start": o.DateStart.String(), "reason": o.Reason,
	})
	return o, nil
}

// =============================================================================
// JUSTIFICATION LIFECYCLE
// =============================================================================

// CreateJustification persists a new active justification. Overlap with an
// existing active one (intersecting range, overlapping scope) is a
// ConflictError carrying the conflicting IDs; the administrator resolves
// it manually.
func (s *Service) CreateJustification(ctx context.Context, actorID string, j engine.Justification) (engine.Justification, error) {
	if err := engine.ValidateJustification(j); err != nil {
		return engine.Justification{}, err
	}
	if _, err := s.requireEmployee(ctx, j.EmployeeID); err != nil {
		return engine.Justification{}, err
	}

	j.Status = engine.StatusActive
	existing, err := s.Justifications.ActiveIntersecting(ctx, j.EmployeeID, j.DateStart, j.DateEnd)
	if err != nil {
		return engine.Justification{}, err
	}
	var conflicting []string
	for _, other := range existing {
		if engine.JustificationsConflict(j, other) {
			conflicting = append(conflicting, other.ID)
		}
	}
	if len(conflicting) > 0 {
		return engine.Justification{}, &engine.ConflictError{
			Kind: "justification", EmployeeID: j.EmployeeID, Conflicting: conflicting,
		}
	}

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	j.CreatedAt = s.now()
	if err := s.Justifications.SaveJustification(ctx, j); err != nil {
		return engine.Justification{}, err
	}

	s.audit(ctx, actorID, AuditJustificationCreated, j.EmployeeID, map[string]string{
		"justification_id": j.ID, "type": string(j.Type), "scope": string(j.Scope),
	})
	return j, nil
}

// CancelJustification moves an active justification to the terminal
// cancelled state with an explicit reason.
func (s *Service) CancelJustification(ctx context.Context, actorID, id, reason string) error {
	if reason == "" {
		return &engine.ValidationError{Field: "reason", Message: "a cancellation reason is mandatory"}
	}
	j, err := s.Justifications.GetJustification(ctx, id)
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("justification %s: %w", id, engine.ErrNotFound)
	}
	if j.Status != engine.StatusActive {
		return &engine.ValidationError{Field: "status", Message: "only active justifications can be cancelled"}
	}

	j.Status = engine.StatusCancelled
	j.CancelReason = reason
	if err := s.Justifications.SaveJustification(ctx, *j); err != nil {
		return err
	}

	s.audit(ctx, actorID, AuditJustificationCancelled, j.EmployeeID, map[string]string{
		"justification_id": id, "reason": reason,
	})
	return nil
}

// ExpireJustifications marks active justifications whose end date has
// passed as expired. Intended to run from a periodic job.
func (s *Service) ExpireJustifications(ctx context.Context, asOf engine.Date) (int, error) {
	return s.Justifications.ExpireEnded(ctx, asOf)
}

// DeleteJustification removes a record, allowed only once it is cancelled
// or expired.
func (s *Service) DeleteJustification(ctx context.Context, actorID, id string) error {
	j, err := s.Justifications.GetJustification(ctx, id)
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("justification %s: %w", id, engine.ErrNotFound)
	}
	if j.Status == engine.StatusActive {
		return &engine.ValidationError{Field: "status", Message: "active justifications cannot be deleted; cancel first"}
	}
	if err := s.Justifications.DeleteJustification(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actorID, AuditJustificationDeleted, j.EmployeeID, map[string]string{
		"justification_id": id,
	})
	return nil
}

// =============================================================================
// RECONCILIATION - Read-only, side-effect-free
// =============================================================================

// ReconcileDay computes the DayRecord for one employee-day. Pure function
// of the rows at query time; safe to run concurrently and to cache.
func (s *Service) ReconcileDay(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) (engine.DayRecord, error) {
	shift, err := s.ResolveSchedule(ctx, employeeID, date)
	if err != nil {
		return engine.DayRecord{}, err
	}
	punches, err := s.Punches.PunchesForDay(ctx, employeeID, date)
	if err != nil {
		return engine.DayRecord{}, err
	}
	justifications, err := s.Justifications.ActiveCovering(ctx, employeeID, date)
	if err != nil {
		return engine.DayRecord{}, err
	}
	return engine.ReconcileDay(engine.ReconcileInput{
		EmployeeID:     employeeID,
		Date:           date,
		Shift:          shift,
		Punches:        punches,
		Justifications: justifications,
		Rounding:       s.Rounding,
	}), nil
}

// ReconcilePeriod reconciles every day in the period, in order, and folds
// the records into a summary.
func (s *Service) ReconcilePeriod(ctx context.Context, employeeID engine.EmployeeID, period engine.Period) ([]engine.DayRecord, engine.PeriodSummary, error) {
	if err := period.Validate(); err != nil {
		return nil, engine.PeriodSummary{}, err
	}

	days := period.Days()
	records := make([]engine.DayRecord, 0, len(days))
	for _, day := range days {
		rec, err := s.ReconcileDay(ctx, employeeID, day)
		if err != nil {
			return nil, engine.PeriodSummary{}, err
		}
		records = append(records, rec)
	}
	return records, engine.AggregatePeriod(period, records), nil
}

// =============================================================================
// AUDIT
// =============================================================================

// audit appends an entry, tolerating a nil sink. Audit persistence is a
// collaborator concern; failures are not allowed to fail the operation.
func (s *Service) audit(ctx context.Context, actorID string, action AuditAction, employeeID engine.EmployeeID, payload map[string]string) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Append(ctx, AuditEntry{
		ID:         uuid.NewString(),
		At:         s.now(),
		ActorID:    actorID,
		Action:     action,
		EmployeeID: employeeID,
		Payload:    payload,
	})
}
