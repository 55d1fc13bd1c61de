/*
store.go - Persistence interfaces consumed by the attendance service

PURPOSE:
  Defines the interface between the attendance service and the database.
  Different implementations can use SQLite or in-memory storage; the
  service layer and the engine never see SQL.

KEY INTERFACES:
  EmployeeStore:      Read-only employee lookups (owned by the personnel
                      collaborator; this system only reads it)
  ScheduleStore:      Schedule groups (versioned) and temporal overrides
  PunchStore:         Punch records, guarded by the unique
                      (employee, date, type) constraint
  JustificationStore: Absence/leave records with lifecycle status
  AuditLog:           Append-only sink for administrative actions

UNIQUENESS GUARD:
  InsertPunch must fail with ErrDuplicateSlot when the (employee, date,
  type) slot is occupied. The store constraint is the authoritative guard;
  the sequence validator in front of it only produces friendlier
  rejections.

VERSIONING:
  SaveGroup archives the previous revision whenever a time-affecting field
  changes, so GroupVersionAt can attribute historical days to the schedule
  that was in force.

IMPLEMENTATIONS:
  - store/sqlite: Production store
  - store/memory: In-memory store for testing/dev

SEE ALSO:
  - service.go: The only consumer of these interfaces
*/
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/warp/attendance-engine/engine"
)

// ErrDuplicateSlot is returned by InsertPunch when the (employee, date,
// type) slot is already occupied. Implementations back it with a unique
// constraint.
var ErrDuplicateSlot = errors.New("punch slot already occupied")

// =============================================================================
// STORE INTERFACES
// =============================================================================

// EmployeeStore provides read access to employee records.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error)
	ListEmployees(ctx context.Context) ([]engine.Employee, error)
}

// ScheduleStore persists schedule groups, their version history, and
// per-employee overrides.
type ScheduleStore interface {
	GetGroup(ctx context.Context, id engine.GroupID) (*engine.ScheduleGroup, error)
	ListGroups(ctx context.Context) ([]engine.ScheduleGroup, error)

	// SaveGroup inserts or updates a group. When bumpVersion is true the
	// previous revision is archived before the update.
	SaveGroup(ctx context.Context, g engine.ScheduleGroup, bumpVersion bool) error

	// GroupVersionAt returns the group revision in force on the date.
	// Falls back to the current revision when no archived one covers it.
	GroupVersionAt(ctx context.Context, id engine.GroupID, date engine.Date) (*engine.ScheduleGroup, error)

	// ActiveOverride returns the single active override covering the date,
	// or nil.
	ActiveOverride(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) (*engine.ScheduleOverride, error)

	// ActiveOverridesIntersecting returns active overrides whose range
	// intersects the given one.
	ActiveOverridesIntersecting(ctx context.Context, employeeID engine.EmployeeID, start engine.Date, end *engine.Date) ([]engine.ScheduleOverride, error)

	SaveOverride(ctx context.Context, o engine.ScheduleOverride) error
	DeactivateOverride(ctx context.Context, id string) error
}

// PunchStore persists punch records.
type PunchStore interface {
	// InsertPunch adds a record. Returns ErrDuplicateSlot if the
	// (employee, date, type) slot is occupied.
	InsertPunch(ctx context.Context, rec engine.PunchRecord) error

	// UpdatePunch rewrites an existing record (administrative edit path).
	UpdatePunch(ctx context.Context, rec engine.PunchRecord) error

	GetPunch(ctx context.Context, employeeID engine.EmployeeID, date engine.Date, t engine.PunchType) (*engine.PunchRecord, error)
	PunchesForDay(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) ([]engine.PunchRecord, error)
	PunchesInRange(ctx context.Context, employeeID engine.EmployeeID, period engine.Period) ([]engine.PunchRecord, error)
}

// JustificationStore persists justification records.
type JustificationStore interface {
	SaveJustification(ctx context.Context, j engine.Justification) error
	GetJustification(ctx context.Context, id string) (*engine.Justification, error)
	DeleteJustification(ctx context.Context, id string) error

	// ActiveCovering returns active justifications whose date range
	// contains the date.
	ActiveCovering(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) ([]engine.Justification, error)

	// ActiveIntersecting returns active justifications whose date range
	// intersects [start, end] (end nil = open-ended).
	ActiveIntersecting(ctx context.Context, employeeID engine.EmployeeID, start engine.Date, end *engine.Date) ([]engine.Justification, error)

	// ExpireEnded marks active justifications whose date_end has passed as
	// expired. Returns how many were expired.
	ExpireEnded(ctx context.Context, asOf engine.Date) (int, error)
}

// =============================================================================
// AUDIT LOG - Append-only, separate from business tables
// =============================================================================

type AuditAction string

const (
	AuditPunchInserted          AuditAction = "punch_inserted"
	AuditPunchEdited            AuditAction = "punch_edited"
	AuditOverrideCreated        AuditAction = "override_created"
	AuditOverrideDeactivated    AuditAction = "override_deactivated"
	AuditJustificationCreated   AuditAction = "justification_created"
	AuditJustificationCancelled AuditAction = "justification_cancelled"
	AuditJustificationDeleted   AuditAction = "justification_deleted"
	AuditGroupChanged           AuditAction = "schedule_group_changed"
)

// AuditEntry records who did what when.
type AuditEntry struct {
	ID         string
	At         time.Time
	ActorID    string
	Action     AuditAction
	EmployeeID engine.EmployeeID
	Payload    map[string]string
}

// AuditLog stores audit entries. Append-only: no update, no delete.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	ListByEmployee(ctx context.Context, employeeID engine.EmployeeID) ([]AuditEntry, error)
}
