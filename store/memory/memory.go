// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
)

// =============================================================================
// MEMORY STORE - Implements every attendance store interface
// =============================================================================

type Store struct {
	mu sync.RWMutex

	employees map[engine.EmployeeID]engine.Employee

	groups        map[engine.GroupID]engine.ScheduleGroup
	groupArchive  map[engine.GroupID][]archivedGroup
	overrides     map[string]engine.ScheduleOverride
	punches       map[punchKey]engine.PunchRecord
	justification map[string]engine.Justification
	auditEntries  []attendance.AuditEntry
}

type punchKey struct {
	EmployeeID engine.EmployeeID
	Date       string
	Type       engine.PunchType
}

// archivedGroup is a superseded group revision and the day it stopped
// applying (the day the replacing revision was saved).
type archivedGroup struct {
	Group      engine.ScheduleGroup
	ArchivedAt engine.Date
}

func New() *Store {
	return &Store{
		employees:     make(map[engine.EmployeeID]engine.Employee),
		groups:        make(map[engine.GroupID]engine.ScheduleGroup),
		groupArchive:  make(map[engine.GroupID][]archivedGroup),
		overrides:     make(map[string]engine.ScheduleOverride),
		punches:       make(map[punchKey]engine.PunchRecord),
		justification: make(map[string]engine.Justification),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// PutEmployee seeds an employee record. The engine treats employees as
// read-only; this is the test/dev seeding hook.
func (s *Store) PutEmployee(e engine.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

func (s *Store) GetEmployee(_ context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	out := e
	return &out, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// SCHEDULE GROUPS AND OVERRIDES
// =============================================================================

func (s *Store) GetGroup(_ context.Context, id engine.GroupID) (*engine.ScheduleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	out := g
	return &out, nil
}

func (s *Store) ListGroups(_ context.Context) ([]engine.ScheduleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engine.ScheduleGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveGroup(_ context.Context, g engine.ScheduleGroup, bumpVersion bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.groups[g.ID]; ok && bumpVersion {
		s.groupArchive[g.ID] = append(s.groupArchive[g.ID], archivedGroup{
			Group:      prev,
			ArchivedAt: engine.DateOf(time.Now()),
		})
	}
	s.groups[g.ID] = g
	return nil
}

func (s *Store) GroupVersionAt(_ context.Context, id engine.GroupID, date engine.Date) (*engine.ScheduleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Oldest archived revision whose archive date is after the requested
	// date was the one in force then.
	for _, arch := range s.groupArchive[id] {
		if date.Before(arch.ArchivedAt) {
			out := arch.Group
			return &out, nil
		}
	}
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	out := g
	return &out, nil
}

func (s *Store) ActiveOverride(_ context.Context, employeeID engine.EmployeeID, date engine.Date) (*engine.ScheduleOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.overrides {
		if o.EmployeeID == employeeID && o.Active && o.Covers(date) {
			out := o
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ActiveOverridesIntersecting(_ context.Context, employeeID engine.EmployeeID, start engine.Date, end *engine.Date) ([]engine.ScheduleOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	probe := engine.ScheduleOverride{DateStart: start, DateEnd: end}
	var out []engine.ScheduleOverride
	for _, o := range s.overrides {
		if o.EmployeeID == employeeID && o.Active && engine.OverridesIntersect(o, probe) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveOverride(_ context.Context, o engine.ScheduleOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[o.ID] = o
	return nil
}

func (s *Store) DeactivateOverride(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overrides[id]
	if !ok {
		return engine.ErrNotFound
	}
	o.Active = false
	s.overrides[id] = o
	return nil
}

// =============================================================================
// PUNCHES
// =============================================================================

func (s *Store) InsertPunch(_ context.Context, rec engine.PunchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := punchKey{rec.EmployeeID, rec.Date.String(), rec.Type}
	if _, exists := s.punches[k]; exists {
		return attendance.ErrDuplicateSlot
	}
	s.punches[k] = rec
	return nil
}

func (s *Store) UpdatePunch(_ context.Context, rec engine.PunchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := punchKey{rec.EmployeeID, rec.Date.String(), rec.Type}
	if _, exists := s.punches[k]; !exists {
		return engine.ErrNotFound
	}
	s.punches[k] = rec
	return nil
}

func (s *Store) GetPunch(_ context.Context, employeeID engine.EmployeeID, date engine.Date, t engine.PunchType) (*engine.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.punches[punchKey{employeeID, date.String(), t}]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *Store) PunchesForDay(_ context.Context, employeeID engine.EmployeeID, date engine.Date) ([]engine.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []engine.PunchRecord
	for _, rec := range s.punches {
		if rec.EmployeeID == employeeID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	sortPunches(out)
	return out, nil
}

func (s *Store) PunchesInRange(_ context.Context, employeeID engine.EmployeeID, period engine.Period) ([]engine.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []engine.PunchRecord
	for _, rec := range s.punches {
		if rec.EmployeeID == employeeID && period.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sortPunches(out)
	return out, nil
}

func sortPunches(recs []engine.PunchRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.Before(recs[j].Date)
		}
		return recs[i].At < recs[j].At
	})
}

// =============================================================================
// JUSTIFICATIONS
// =============================================================================

func (s *Store) SaveJustification(_ context.Context, j engine.Justification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.justification[j.ID] = j
	return nil
}

func (s *Store) GetJustification(_ context.Context, id string) (*engine.Justification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.justification[id]
	if !ok {
		return nil, nil
	}
	out := j
	return &out, nil
}

func (s *Store) DeleteJustification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.justification[id]; !ok {
		return engine.ErrNotFound
	}
	delete(s.justification, id)
	return nil
}

func (s *Store) ActiveCovering(_ context.Context, employeeID engine.EmployeeID, date engine.Date) ([]engine.Justification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []engine.Justification
	for _, j := range s.justification {
		if j.EmployeeID == employeeID && j.Status == engine.StatusActive && j.Covers(date) {
			out = append(out, j)
		}
	}
	sortJustifications(out)
	return out, nil
}

func (s *Store) ActiveIntersecting(_ context.Context, employeeID engine.EmployeeID, start engine.Date, end *engine.Date) ([]engine.Justification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	probe := engine.Justification{
		EmployeeID: employeeID, Status: engine.StatusActive,
		Scope: engine.ScopeFull, DateStart: start, DateEnd: end,
	}
	var out []engine.Justification
	for _, j := range s.justification {
		if j.EmployeeID != employeeID || j.Status != engine.StatusActive {
			continue
		}
		// Probe with full scope so every range intersection is returned;
		// the caller applies scope-overlap rules itself.
		if engine.JustificationsConflict(probe, j) {
			out = append(out, j)
		}
	}
	sortJustifications(out)
	return out, nil
}

func (s *Store) ExpireEnded(_ context.Context, asOf engine.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for id, j := range s.justification {
		if j.Status == engine.StatusActive && j.DateEnd != nil && j.DateEnd.Before(asOf) {
			j.Status = engine.StatusExpired
			s.justification[id] = j
			expired++
		}
	}
	return expired, nil
}

func sortJustifications(js []engine.Justification) {
	sort.Slice(js, func(i, j int) bool { return js[i].ID < js[j].ID })
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) Append(_ context.Context, entry attendance.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditEntries = append(s.auditEntries, entry)
	return nil
}

func (s *Store) ListByEmployee(_ context.Context, employeeID engine.EmployeeID) ([]attendance.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.AuditEntry
	for _, e := range s.auditEntries {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}
