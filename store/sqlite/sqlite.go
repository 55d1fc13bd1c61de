/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every attendance persistence interface (EmployeeStore,
  ScheduleStore, PunchStore, JustificationStore, AuditLog) over SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

UNIQUENESS GUARD:
  idx_unique_punch_slot on (employee_id, date, punch_type) is the
  authoritative guard of the one-punch-per-slot invariant. Concurrent
  submissions for the same employee-day serialize on it; the sequence
  validator in front only produces friendlier rejections.

VERSIONING:
  schedule_group_versions archives superseded group revisions with the
  date they stopped applying, so historical reconciliation can attribute
  each day to the schedule in force at the time.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time, better crash
  recovery. Reconciliation is read-only and runs freely alongside punch
  writes.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  svc := attendance.NewService(store, store, store, store, store, rounding)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool with versioned migrations.

SEE ALSO:
  - attendance/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
)

// Store implements all attendance storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		group_id TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS schedule_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		entry_morning INTEGER NOT NULL,
		lunch_exit INTEGER NOT NULL,
		lunch_return INTEGER NOT NULL,
		exit_afternoon INTEGER NOT NULL,
		daily_load_minutes INTEGER NOT NULL,
		tolerance_minutes INTEGER NOT NULL,
		saturday_active INTEGER NOT NULL DEFAULT 0,
		saturday_entry INTEGER NOT NULL DEFAULT 0,
		saturday_exit INTEGER NOT NULL DEFAULT 0,
		saturday_load_minutes INTEGER NOT NULL DEFAULT 0,
		sunday_is_off INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1
	);

	-- Superseded revisions, with the date they stopped applying.
	CREATE TABLE IF NOT EXISTS schedule_group_versions (
		group_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		archived_at TEXT NOT NULL,
		entry_morning INTEGER NOT NULL,
		lunch_exit INTEGER NOT NULL,
		lunch_return INTEGER NOT NULL,
		exit_afternoon INTEGER NOT NULL,
		daily_load_minutes INTEGER NOT NULL,
		tolerance_minutes INTEGER NOT NULL,
		saturday_active INTEGER NOT NULL,
		saturday_entry INTEGER NOT NULL,
		saturday_exit INTEGER NOT NULL,
		saturday_load_minutes INTEGER NOT NULL,
		sunday_is_off INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (group_id, version)
	);

	CREATE TABLE IF NOT EXISTS schedule_overrides (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date_start TEXT NOT NULL,
		date_end TEXT,
		entry_morning INTEGER,
		lunch_exit INTEGER,
		lunch_return INTEGER,
		exit_afternoon INTEGER,
		daily_load_minutes INTEGER,
		tolerance_minutes INTEGER,
		saturday_active INTEGER,
		saturday_entry INTEGER,
		saturday_exit INTEGER,
		saturday_load_minutes INTEGER,
		sunday_is_off INTEGER,
		reason TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_employee_active
		ON schedule_overrides(employee_id, active, date_start);

	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		punch_type TEXT NOT NULL,
		at_minute INTEGER NOT NULL,
		latitude REAL,
		longitude REAL,
		edited INTEGER NOT NULL DEFAULT 0,
		edited_by TEXT NOT NULL DEFAULT '',
		edited_at TEXT,
		reason_code TEXT NOT NULL DEFAULT '',
		delta_minutes INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT ''
	);

	-- CRITICAL: one punch per (employee, date, type). This constraint is
	-- the authoritative guard under concurrent submission.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_punch_slot
		ON punches(employee_id, date, punch_type);

	CREATE INDEX IF NOT EXISTS idx_punches_employee_date
		ON punches(employee_id, date);

	CREATE TABLE IF NOT EXISTS justifications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		just_type TEXT NOT NULL,
		date_start TEXT NOT NULL,
		date_end TEXT,
		scope TEXT NOT NULL,
		status TEXT NOT NULL,
		blocks_punch INTEGER NOT NULL DEFAULT 0,
		abates_absence INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		cancel_reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_justifications_employee_status
		ON justifications(employee_id, status, date_start);

	-- Append-only audit trail of administrative actions.
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		employee_id TEXT NOT NULL DEFAULT '',
		payload_json TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_audit_employee
		ON audit_log(employee_id, at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// isUniqueViolation detects the punch slot constraint firing.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullableDate(d *engine.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanNullableDate(s sql.NullString) (*engine.Date, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := engine.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or replaces an employee row. Employee records are
// owned by the personnel collaborator; this exists for seeding and sync.
func (s *Store) SaveEmployee(ctx context.Context, e engine.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, group_id, active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, group_id=excluded.group_id, active=excluded.active`,
		string(e.ID), e.Name, string(e.GroupID), boolInt(e.Active))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, group_id, active FROM employees WHERE id = ?`, string(id))
	var e engine.Employee
	var active int
	err := row.Scan(&e.ID, &e.Name, &e.GroupID, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Active = active != 0
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]engine.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, group_id, active FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Employee
	for rows.Next() {
		var e engine.Employee
		var active int
		if err := rows.Scan(&e.ID, &e.Name, &e.GroupID, &active); err != nil {
			return nil, err
		}
		e.Active = active != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// SCHEDULE GROUPS
// =============================================================================

const groupColumns = `id, name, entry_morning, lunch_exit, lunch_return, exit_afternoon,
	daily_load_minutes, tolerance_minutes, saturday_active, saturday_entry,
	saturday_exit, saturday_load_minutes, sunday_is_off, version`

func scanGroup(scanner interface{ Scan(...any) error }) (engine.ScheduleGroup, error) {
	var g engine.ScheduleGroup
	var satActive, sunOff int
	err := scanner.Scan(&g.ID, &g.Name, &g.EntryMorning, &g.LunchExit, &g.LunchReturn,
		&g.ExitAfternoon, &g.DailyLoadMinutes, &g.ToleranceMinutes, &satActive,
		&g.SaturdayEntry, &g.SaturdayExit, &g.SaturdayLoadMinutes, &sunOff, &g.Version)
	if err != nil {
		return engine.ScheduleGroup{}, err
	}
	g.SaturdayActive = satActive != 0
	g.SundayIsOff = sunOff != 0
	return g, nil
}

func (s *Store) GetGroup(ctx context.Context, id engine.GroupID) (*engine.ScheduleGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM schedule_groups WHERE id = ?`, string(id))
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]engine.ScheduleGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM schedule_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ScheduleGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) SaveGroup(ctx context.Context, g engine.ScheduleGroup, bumpVersion bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if bumpVersion {
		// Archive the revision being replaced, stamped with today as the
		// day it stopped applying.
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO schedule_group_versions
				(group_id, version, archived_at, entry_morning, lunch_exit, lunch_return,
				 exit_afternoon, daily_load_minutes, tolerance_minutes, saturday_active,
				 saturday_entry, saturday_exit, saturday_load_minutes, sunday_is_off, name)
			SELECT id, version, ?, entry_morning, lunch_exit, lunch_return,
				 exit_afternoon, daily_load_minutes, tolerance_minutes, saturday_active,
				 saturday_entry, saturday_exit, saturday_load_minutes, sunday_is_off, name
			FROM schedule_groups WHERE id = ?`,
			engine.DateOf(time.Now()).String(), string(g.ID))
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedule_groups (`+groupColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			entry_morning=excluded.entry_morning,
			lunch_exit=excluded.lunch_exit,
			lunch_return=excluded.lunch_return,
			exit_afternoon=excluded.exit_afternoon,
			daily_load_minutes=excluded.daily_load_minutes,
			tolerance_minutes=excluded.tolerance_minutes,
			saturday_active=excluded.saturday_active,
			saturday_entry=excluded.saturday_entry,
			saturday_exit=excluded.saturday_exit,
			saturday_load_minutes=excluded.saturday_load_minutes,
			sunday_is_off=excluded.sunday_is_off,
			version=excluded.version`,
		string(g.ID), g.Name, int(g.EntryMorning), int(g.LunchExit), int(g.LunchReturn),
		int(g.ExitAfternoon), g.DailyLoadMinutes, g.ToleranceMinutes,
		boolInt(g.SaturdayActive), int(g.SaturdayEntry), int(g.SaturdayExit),
		g.SaturdayLoadMinutes, boolInt(g.SundayIsOff), g.Version)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GroupVersionAt(ctx context.Context, id engine.GroupID, date engine.Date) (*engine.ScheduleGroup, error) {
	// The oldest archived revision whose cutover is after the date was in
	// force on that date.
	row := s.db.QueryRowContext(ctx, `
		SELECT group_id, name, entry_morning, lunch_exit, lunch_return, exit_afternoon,
			daily_load_minutes, tolerance_minutes, saturday_active, saturday_entry,
			saturday_exit, saturday_load_minutes, sunday_is_off, version
		FROM schedule_group_versions
		WHERE group_id = ? AND archived_at > ?
		ORDER BY version ASC LIMIT 1`,
		string(id), date.String())
	g, err := scanGroup(row)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return s.GetGroup(ctx, id)
}

// =============================================================================
// SCHEDULE OVERRIDES
// =============================================================================

const overrideColumns = `id, employee_id, date_start, date_end, entry_morning, lunch_exit,
	lunch_return, exit_afternoon, daily_load_minutes, tolerance_minutes,
	saturday_active, saturday_entry, saturday_exit, saturday_load_minutes,
	sunday_is_off, reason, active`

func scanOverride(scanner interface{ Scan(...any) error }) (engine.ScheduleOverride, error) {
	var o engine.ScheduleOverride
	var dateStart string
	var dateEnd sql.NullString
	var entry, lunchOut, lunchIn, exit, daily, tol, satEntry, satExit, satLoad sql.NullInt64
	var satActive, sunOff sql.NullInt64
	var active int

	err := scanner.Scan(&o.ID, &o.EmployeeID, &dateStart, &dateEnd, &entry, &lunchOut,
		&lunchIn, &exit, &daily, &tol, &satActive, &satEntry, &satExit, &satLoad,
		&sunOff, &o.Reason, &active)
	if err != nil {
		return engine.ScheduleOverride{}, err
	}

	o.DateStart, err = engine.ParseDate(dateStart)
	if err != nil {
		return engine.ScheduleOverride{}, err
	}
	o.DateEnd, err = scanNullableDate(dateEnd)
	if err != nil {
		return engine.ScheduleOverride{}, err
	}

	o.EntryMorning = nullMinute(entry)
	o.LunchExit = nullMinute(lunchOut)
	o.LunchReturn = nullMinute(lunchIn)
	o.ExitAfternoon = nullMinute(exit)
	o.DailyLoadMinutes = nullInt(daily)
	o.ToleranceMinutes = nullInt(tol)
	o.SaturdayActive = nullBool(satActive)
	o.SaturdayEntry = nullMinute(satEntry)
	o.SaturdayExit = nullMinute(satExit)
	o.SaturdayLoadMinutes = nullInt(satLoad)
	o.SundayIsOff = nullBool(sunOff)
	o.Active = active != 0
	return o, nil
}

func (s *Store) SaveOverride(ctx context.Context, o engine.ScheduleOverride) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_overrides (`+overrideColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date_start=excluded.date_start, date_end=excluded.date_end,
			entry_morning=excluded.entry_morning, lunch_exit=excluded.lunch_exit,
			lunch_return=excluded.lunch_return, exit_afternoon=excluded.exit_afternoon,
			daily_load_minutes=excluded.daily_load_minutes,
			tolerance_minutes=excluded.tolerance_minutes,
			saturday_active=excluded.saturday_active,
			saturday_entry=excluded.saturday_entry,
			saturday_exit=excluded.saturday_exit,
			saturday_load_minutes=excluded.saturday_load_minutes,
			sunday_is_off=excluded.sunday_is_off,
			reason=excluded.reason, active=excluded.active`,
		o.ID, string(o.EmployeeID), o.DateStart.String(), nullableDate(o.DateEnd),
		minutePtr(o.EntryMorning), minutePtr(o.LunchExit), minutePtr(o.LunchReturn),
		minutePtr(o.ExitAfternoon), intPtr(o.DailyLoadMinutes), intPtr(o.ToleranceMinutes),
		boolPtr(o.SaturdayActive), minutePtr(o.SaturdayEntry), minutePtr(o.SaturdayExit),
		intPtr(o.SaturdayLoadMinutes), boolPtr(o.SundayIsOff), o.Reason, boolInt(o.Active))
	return err
}

func (s *Store) ActiveOverride(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) (*engine.ScheduleOverride, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+overrideColumns+` FROM schedule_overrides
		WHERE employee_id = ? AND active = 1
			AND date_start <= ? AND (date_end IS NULL OR date_end >= ?)
		ORDER BY date_start DESC LIMIT 1`,
		string(employeeID), date.String(), date.String())
	o, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ActiveOverridesIntersecting(ctx context.Context, employeeID engine.EmployeeID, start engine.Date, end *engine.Date) ([]engine.ScheduleOverride, error) {
	query := `SELECT ` + overrideColumns + ` FROM schedule_overrides
		WHERE employee_id = ? AND active = 1
			AND (date_end IS NULL OR date_end >= ?)`
	args := []any{string(employeeID), start.String()}
	if end != nil {
		query += ` AND date_start <= ?`
		args = append(args, end.String())
	}
	query += ` ORDER BY date_start`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ScheduleOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) DeactivateOverride(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedule_overrides SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// =============================================================================
// PUNCHES
// =============================================================================

const punchColumns = `id, employee_id, date, punch_type, at_minute, latitude, longitude,
	edited, edited_by, edited_at, reason_code, delta_minutes, note`

func scanPunch(scanner interface{ Scan(...any) error }) (engine.PunchRecord, error) {
	var p engine.PunchRecord
	var date string
	var lat, lng sql.NullFloat64
	var edited int
	var editedAt sql.NullString

	err := scanner.Scan(&p.ID, &p.EmployeeID, &date, &p.Type, &p.At, &lat, &lng,
		&edited, &p.EditedBy, &editedAt, &p.ReasonCode, &p.DeltaMinutes, &p.Note)
	if err != nil {
		return engine.PunchRecord{}, err
	}

	p.Date, err = engine.ParseDate(date)
	if err != nil {
		return engine.PunchRecord{}, err
	}
	if lat.Valid && lng.Valid {
		p.Location = &engine.GeoPoint{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	p.Edited = edited != 0
	if editedAt.Valid {
		t, err := time.Parse(time.RFC3339, editedAt.String)
		if err != nil {
			return engine.PunchRecord{}, err
		}
		p.EditedAt = t
	}
	return p, nil
}

func (s *Store) InsertPunch(ctx context.Context, rec engine.PunchRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punches (`+punchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		punchArgs(rec)...)
	if err != nil && isUniqueViolation(err) {
		return attendance.ErrDuplicateSlot
	}
	return err
}

func (s *Store) UpdatePunch(ctx context.Context, rec engine.PunchRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE punches SET at_minute = ?, latitude = ?, longitude = ?, edited = ?,
			edited_by = ?, edited_at = ?, reason_code = ?, delta_minutes = ?, note = ?
		WHERE employee_id = ? AND date = ? AND punch_type = ?`,
		int(rec.At), geoLat(rec.Location), geoLng(rec.Location), boolInt(rec.Edited),
		rec.EditedBy, editedAt(rec), string(rec.ReasonCode), rec.DeltaMinutes, rec.Note,
		string(rec.EmployeeID), rec.Date.String(), string(rec.Type))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func punchArgs(rec engine.PunchRecord) []any {
	return []any{
		rec.ID, string(rec.EmployeeID), rec.Date.String(), string(rec.Type), int(rec.At),
		geoLat(rec.Location), geoLng(rec.Location), boolInt(rec.Edited), rec.EditedBy,
		editedAt(rec), string(rec.ReasonCode), rec.DeltaMinutes, rec.Note,
	}
}

func (s *Store) GetPunch(ctx context.Context, employeeID engine.EmployeeID, date engine.Date, t engine.PunchType) (*engine.PunchRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+punchColumns+` FROM punches
		WHERE employee_id = ? AND date = ? AND punch_type = ?`,
		string(employeeID), date.String(), string(t))
	p, err := scanPunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) PunchesForDay(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) ([]engine.PunchRecord, error) {
	return s.queryPunches(ctx, `
		SELECT `+punchColumns+` FROM punches
		WHERE employee_id = ? AND date = ? ORDER BY at_minute`,
		string(employeeID), date.String())
}

func (s *Store) PunchesInRange(ctx context.Context, employeeID engine.EmployeeID, period engine.Period) ([]engine.PunchRecord, error) {
	return s.queryPunches(ctx, `
		SELECT `+punchColumns+` FROM punches
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date, at_minute`,
		string(employeeID), period.Start.String(), period.End.String())
}

func (s *Store) queryPunches(ctx context.Context, query string, args ...any) ([]engine.PunchRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.PunchRecord
	for rows.Next() {
		p, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// JUSTIFICATIONS
// =============================================================================

const justificationColumns = `id, employee_id, just_type, date_start, date_end, scope,
	status, blocks_punch, abates_absence, reason, created_at, cancel_reason`

func scanJustification(scanner interface{ Scan(...any) error }) (engine.Justification, error) {
	var j engine.Justification
	var dateStart, createdAt string
	var dateEnd sql.NullString
	var blocks, abates int

	err := scanner.Scan(&j.ID, &j.EmployeeID, &j.Type, &dateStart, &dateEnd, &j.Scope,
		&j.Status, &blocks, &abates, &j.Reason, &createdAt, &j.CancelReason)
	if err != nil {
		return engine.Justification{}, err
	}

	j.DateStart, err = engine.ParseDate(dateStart)
	if err != nil {
		return engine.Justification{}, err
	}
	j.DateEnd, err = scanNullableDate(dateEnd)
	if err != nil {
		return engine.Justification{}, err
	}
	j.BlocksPunch = blocks != 0
	j.AbatesAbsence = abates != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		j.CreatedAt = t
	}
	return j, nil
}

func (s *Store) SaveJustification(ctx context.Context, j engine.Justification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO justifications (`+justificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			just_type=excluded.just_type, date_start=excluded.date_start,
			date_end=excluded.date_end, scope=excluded.scope, status=excluded.status,
			blocks_punch=excluded.blocks_punch, abates_absence=excluded.abates_absence,
			reason=excluded.reason, cancel_reason=excluded.cancel_reason`,
		j.ID, string(j.EmployeeID), string(j.Type), j.DateStart.String(),
		nullableDate(j.DateEnd), string(j.Scope), string(j.Status),
		boolInt(j.BlocksPunch), boolInt(j.AbatesAbsence), j.Reason,
		j.CreatedAt.UTC().Format(time.RFC3339), j.CancelReason)
	return err
}

func (s *Store) GetJustification(ctx context.Context, id string) (*engine.Justification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+justificationColumns+` FROM justifications WHERE id = ?`, id)
	j, err := scanJustification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) DeleteJustification(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM justifications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (s *Store) ActiveCovering(ctx context.Context, employeeID engine.EmployeeID, date engine.Date) ([]engine.Justification, error) {
	return s.queryJustifications(ctx, `
		SELECT `+justificationColumns+` FROM justifications
		WHERE employee_id = ? AND status = 'active'
			AND date_start <= ? AND (date_end IS NULL OR date_end >= ?)
		ORDER BY date_start`,
		string(employeeID), date.String(), date.String())
}

func (s *Store) ActiveIntersecting(ctx context.Context, employeeID engine.EmployeeID, start engine.Date, end *engine.Date) ([]engine.Justification, error) {
	query := `SELECT ` + justificationColumns + ` FROM justifications
		WHERE employee_id = ? AND status = 'active'
			AND (date_end IS NULL OR date_end >= ?)`
	args := []any{string(employeeID), start.String()}
	if end != nil {
		query += ` AND date_start <= ?`
		args = append(args, end.String())
	}
	query += ` ORDER BY date_start`
	return s.queryJustifications(ctx, query, args...)
}

func (s *Store) ExpireEnded(ctx context.Context, asOf engine.Date) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE justifications SET status = 'expired'
		WHERE status = 'active' AND date_end IS NOT NULL AND date_end < ?`,
		asOf.String())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) queryJustifications(ctx context.Context, query string, args ...any) ([]engine.Justification, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Justification
	for rows.Next() {
		j, err := scanJustification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT LOG - Append-only
// =============================================================================

func (s *Store) Append(ctx context.Context, entry attendance.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, actor_id, action, employee_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.At.UTC().Format(time.RFC3339), entry.ActorID,
		string(entry.Action), string(entry.EmployeeID), string(payload))
	return err
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID engine.EmployeeID) ([]attendance.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, actor_id, action, employee_id, payload_json
		FROM audit_log WHERE employee_id = ? ORDER BY at`,
		string(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attendance.AuditEntry
	for rows.Next() {
		var e attendance.AuditEntry
		var at, payload string
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Action, &e.EmployeeID, &payload); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.At = t
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// SCAN/BIND HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullMinute(v sql.NullInt64) *engine.MinuteOfDay {
	if !v.Valid {
		return nil
	}
	m := engine.MinuteOfDay(v.Int64)
	return &m
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullBool(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Int64 != 0
	return &b
}

func minutePtr(m *engine.MinuteOfDay) any {
	if m == nil {
		return nil
	}
	return int(*m)
}

func intPtr(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func boolPtr(b *bool) any {
	if b == nil {
		return nil
	}
	return boolInt(*b)
}

func geoLat(g *engine.GeoPoint) any {
	if g == nil {
		return nil
	}
	return g.Latitude
}

func geoLng(g *engine.GeoPoint) any {
	if g == nil {
		return nil
	}
	return g.Longitude
}

func editedAt(rec engine.PunchRecord) any {
	if !rec.Edited {
		return nil
	}
	return rec.EditedAt.UTC().Format(time.RFC3339)
}
