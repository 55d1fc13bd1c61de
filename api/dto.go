/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract: time-of-day
  fields travel as HH:MM strings, dates as YYYY-MM-DD, and minute totals
  are additionally reported as decimal hours for report consumers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Handlers validate; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - engine: The domain types these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/engine"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"group_id"`
	Active  bool   `json:"active"`
}

// ScheduleGroupDTO represents a shift template.
type ScheduleGroupDTO struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	EntryMorning        string `json:"entry_morning"`
	LunchExit           string `json:"lunch_exit"`
	LunchReturn         string `json:"lunch_return"`
	ExitAfternoon       string `json:"exit_afternoon"`
	DailyLoadMinutes    int    `json:"daily_load_minutes"`
	ToleranceMinutes    int    `json:"tolerance_minutes"`
	SaturdayActive      bool   `json:"saturday_active"`
	SaturdayEntry       string `json:"saturday_entry,omitempty"`
	SaturdayExit        string `json:"saturday_exit,omitempty"`
	SaturdayLoadMinutes int    `json:"saturday_load_minutes,omitempty"`
	SundayIsOff         bool   `json:"sunday_is_off"`
	Version             int    `json:"version"`
}

// SaveScheduleGroupRequest creates or updates a shift template.
type SaveScheduleGroupRequest struct {
	Name                string `json:"name"`
	EntryMorning        string `json:"entry_morning"`
	LunchExit           string `json:"lunch_exit"`
	LunchReturn         string `json:"lunch_return"`
	ExitAfternoon       string `json:"exit_afternoon"`
	DailyLoadMinutes    int    `json:"daily_load_minutes"`
	ToleranceMinutes    int    `json:"tolerance_minutes"`
	SaturdayActive      bool   `json:"saturday_active"`
	SaturdayEntry       string `json:"saturday_entry,omitempty"`
	SaturdayExit        string `json:"saturday_exit,omitempty"`
	SaturdayLoadMinutes int    `json:"saturday_load_minutes,omitempty"`
	SundayIsOff         bool   `json:"sunday_is_off"`
}

// CreateOverrideRequest creates a temporary schedule override. Omitted
// fields inherit from the employee's group.
type CreateOverrideRequest struct {
	EmployeeID          string  `json:"employee_id"`
	DateStart           string  `json:"date_start"`
	DateEnd             *string `json:"date_end,omitempty"`
	EntryMorning        *string `json:"entry_morning,omitempty"`
	LunchExit           *string `json:"lunch_exit,omitempty"`
	LunchReturn         *string `json:"lunch_return,omitempty"`
	ExitAfternoon       *string `json:"exit_afternoon,omitempty"`
	DailyLoadMinutes    *int    `json:"daily_load_minutes,omitempty"`
	ToleranceMinutes    *int    `json:"tolerance_minutes,omitempty"`
	SaturdayActive      *bool   `json:"saturday_active,omitempty"`
	SaturdayEntry       *string `json:"saturday_entry,omitempty"`
	SaturdayExit        *string `json:"saturday_exit,omitempty"`
	SaturdayLoadMinutes *int    `json:"saturday_load_minutes,omitempty"`
	SundayIsOff         *bool   `json:"sunday_is_off,omitempty"`
	Reason              string  `json:"reason"`
}

// OverrideDTO represents a schedule override.
type OverrideDTO struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	DateStart  string  `json:"date_start"`
	DateEnd    *string `json:"date_end,omitempty"`
	Reason     string  `json:"reason"`
	Active     bool    `json:"active"`
}

// CreateJustificationRequest creates an absence/leave record.
type CreateJustificationRequest struct {
	EmployeeID    string  `json:"employee_id"`
	Type          string  `json:"type"`
	DateStart     string  `json:"date_start"`
	DateEnd       *string `json:"date_end,omitempty"`
	Scope         string  `json:"scope"`
	BlocksPunch   bool    `json:"blocks_punch"`
	AbatesAbsence bool    `json:"abates_absence"`
	Reason        string  `json:"reason"`
}

// CancelJustificationRequest cancels an active justification.
type CancelJustificationRequest struct {
	Reason string `json:"reason"`
}

// JustificationDTO represents a justification.
type JustificationDTO struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	Type          string  `json:"type"`
	DateStart     string  `json:"date_start"`
	DateEnd       *string `json:"date_end,omitempty"`
	Scope         string  `json:"scope"`
	Status        string  `json:"status"`
	BlocksPunch   bool    `json:"blocks_punch"`
	AbatesAbsence bool    `json:"abates_absence"`
	Reason        string  `json:"reason,omitempty"`
	CancelReason  string  `json:"cancel_reason,omitempty"`
}

// SubmitPunchRequest is an employee punch submission.
type SubmitPunchRequest struct {
	Date      string   `json:"date"`
	Type      string   `json:"type"`
	At        string   `json:"at"` // HH:MM
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// EditPunchRequest rewrites or fills a punch slot through the audited path.
type EditPunchRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	At         string `json:"at"`
	ReasonCode string `json:"reason_code"`
	Note       string `json:"note"`
	Insert     bool   `json:"insert,omitempty"` // true = fill an empty slot
}

// PunchDTO represents a punch record.
type PunchDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Date         string `json:"date"`
	Type         string `json:"type"`
	At           string `json:"at"`
	Edited       bool   `json:"edited,omitempty"`
	EditedBy     string `json:"edited_by,omitempty"`
	EditedAt     string `json:"edited_at,omitempty"`
	ReasonCode   string `json:"reason_code,omitempty"`
	DeltaMinutes int    `json:"delta_minutes,omitempty"`
	Note         string `json:"note,omitempty"`
}

// DayRecordDTO is the reconciled view of one employee-day.
type DayRecordDTO struct {
	Date            string            `json:"date"`
	Class           string            `json:"class"`
	Entry           *string           `json:"entry,omitempty"`
	LunchExit       *string           `json:"lunch_exit,omitempty"`
	LunchReturn     *string           `json:"lunch_return,omitempty"`
	Exit            *string           `json:"exit,omitempty"`
	Justification   *JustificationDTO `json:"justification,omitempty"`
	WorkedMinutes   int               `json:"worked_minutes"`
	ExpectedMinutes int               `json:"expected_minutes"`
	BalanceMinutes  int               `json:"balance_minutes"`
	Status          string            `json:"status"`
	WithinTolerance bool              `json:"within_tolerance"`
	Anomalous       bool              `json:"anomalous,omitempty"`
}

// PeriodReportDTO is the aggregated report for a date range. Minute totals
// are also reported as decimal hours for downstream consumers.
type PeriodReportDTO struct {
	EmployeeID string `json:"employee_id"`
	From       string `json:"from"`
	To         string `json:"to"`

	TotalWorkedMinutes   int    `json:"total_worked_minutes"`
	TotalWorkedHours     string `json:"total_worked_hours"`
	TotalExtraMinutes    int    `json:"total_extra_minutes"`
	TotalShortageMinutes int    `json:"total_shortage_minutes"`
	NetBalanceMinutes    int    `json:"net_balance_minutes"`
	NetBalanceHours      string `json:"net_balance_hours"`

	CompleteDays   int `json:"complete_days"`
	IncompleteDays int `json:"incomplete_days"`
	JustifiedDays  int `json:"justified_days"`
	DayOffDays     int `json:"day_off_days"`

	EditedPunches      int `json:"edited_punches"`
	EditedDeltaMinutes int `json:"edited_delta_minutes"`

	Days []DayRecordDTO `json:"days"`
}

// ShiftDTO is the resolved schedule for one employee-day: group fields with
// any active override applied.
type ShiftDTO struct {
	GroupID      string `json:"group_id"`
	GroupVersion int    `json:"group_version"`
	OverrideID   string `json:"override_id,omitempty"`

	EntryMorning  string `json:"entry_morning"`
	LunchExit     string `json:"lunch_exit"`
	LunchReturn   string `json:"lunch_return"`
	ExitAfternoon string `json:"exit_afternoon"`

	DailyLoadMinutes int `json:"daily_load_minutes"`
	ToleranceMinutes int `json:"tolerance_minutes"`

	SaturdayActive      bool   `json:"saturday_active"`
	SaturdayEntry       string `json:"saturday_entry,omitempty"`
	SaturdayExit        string `json:"saturday_exit,omitempty"`
	SaturdayLoadMinutes int    `json:"saturday_load_minutes,omitempty"`

	SundayIsOff bool `json:"sunday_is_off"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e engine.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:      string(e.ID),
		Name:    e.Name,
		GroupID: string(e.GroupID),
		Active:  e.Active,
	}
}

func toGroupDTO(g engine.ScheduleGroup) ScheduleGroupDTO {
	dto := ScheduleGroupDTO{
		ID:               string(g.ID),
		Name:             g.Name,
		EntryMorning:     g.EntryMorning.String(),
		LunchExit:        g.LunchExit.String(),
		LunchReturn:      g.LunchReturn.String(),
		ExitAfternoon:    g.ExitAfternoon.String(),
		DailyLoadMinutes: g.DailyLoadMinutes,
		ToleranceMinutes: g.ToleranceMinutes,
		SaturdayActive:   g.SaturdayActive,
		SundayIsOff:      g.SundayIsOff,
		Version:          g.Version,
	}
	if g.SaturdayActive {
		dto.SaturdayEntry = g.SaturdayEntry.String()
		dto.SaturdayExit = g.SaturdayExit.String()
		dto.SaturdayLoadMinutes = g.SaturdayLoadMinutes
	}
	return dto
}

func toShiftDTO(s engine.ShiftDefinition) ShiftDTO {
	dto := ShiftDTO{
		GroupID:      string(s.GroupID),
		GroupVersion: s.GroupVersion,
		OverrideID:   s.OverrideID,

		EntryMorning:  s.EntryMorning.String(),
		LunchExit:     s.LunchExit.String(),
		LunchReturn:   s.LunchReturn.String(),
		ExitAfternoon: s.ExitAfternoon.String(),

		DailyLoadMinutes: s.DailyLoadMinutes,
		ToleranceMinutes: s.ToleranceMinutes,

		SaturdayActive: s.SaturdayActive,
		SundayIsOff:    s.SundayIsOff,
	}
	if s.SaturdayActive {
		dto.SaturdayEntry = s.SaturdayEntry.String()
		dto.SaturdayExit = s.SaturdayExit.String()
		dto.SaturdayLoadMinutes = s.SaturdayLoadMinutes
	}
	return dto
}

func toOverrideDTO(o engine.ScheduleOverride) OverrideDTO {
	dto := OverrideDTO{
		ID:         o.ID,
		EmployeeID: string(o.EmployeeID),
		DateStart:  o.DateStart.String(),
		Reason:     o.Reason,
		Active:     o.Active,
	}
	if o.DateEnd != nil {
		end := o.DateEnd.String()
		dto.DateEnd = &end
	}
	return dto
}

func toJustificationDTO(j engine.Justification) JustificationDTO {
	dto := JustificationDTO{
		ID:            j.ID,
		EmployeeID:    string(j.EmployeeID),
		Type:          string(j.Type),
		DateStart:     j.DateStart.String(),
		Scope:         string(j.Scope),
		Status:        string(j.Status),
		BlocksPunch:   j.BlocksPunch,
		AbatesAbsence: j.AbatesAbsence,
		Reason:        j.Reason,
		CancelReason:  j.CancelReason,
	}
	if j.DateEnd != nil {
		end := j.DateEnd.String()
		dto.DateEnd = &end
	}
	return dto
}

func toPunchDTO(p engine.PunchRecord) PunchDTO {
	dto := PunchDTO{
		ID:           p.ID,
		EmployeeID:   string(p.EmployeeID),
		Date:         p.Date.String(),
		Type:         string(p.Type),
		At:           p.At.String(),
		Edited:       p.Edited,
		EditedBy:     p.EditedBy,
		ReasonCode:   string(p.ReasonCode),
		DeltaMinutes: p.DeltaMinutes,
		Note:         p.Note,
	}
	if p.Edited {
		dto.EditedAt = p.EditedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toDayRecordDTO(d engine.DayRecord) DayRecordDTO {
	dto := DayRecordDTO{
		Date:            d.Date.String(),
		Class:           string(d.Class),
		Entry:           minuteString(d.Entry),
		LunchExit:       minuteString(d.LunchExit),
		LunchReturn:     minuteString(d.LunchReturn),
		Exit:            minuteString(d.Exit),
		WorkedMinutes:   d.WorkedMinutes,
		ExpectedMinutes: d.ExpectedMinutes,
		BalanceMinutes:  d.BalanceMinutes,
		Status:          string(d.Status),
		WithinTolerance: d.WithinTolerance,
		Anomalous:       d.Anomalous,
	}
	if d.Justification != nil {
		j := toJustificationDTO(*d.Justification)
		dto.Justification = &j
	}
	return dto
}

func toPeriodReportDTO(employeeID engine.EmployeeID, summary engine.PeriodSummary, days []engine.DayRecord) PeriodReportDTO {
	dtos := make([]DayRecordDTO, len(days))
	for i, d := range days {
		dtos[i] = toDayRecordDTO(d)
	}
	return PeriodReportDTO{
		EmployeeID: string(employeeID),
		From:       summary.Period.Start.String(),
		To:         summary.Period.End.String(),

		TotalWorkedMinutes:   summary.TotalWorkedMinutes,
		TotalWorkedHours:     minutesToHours(summary.TotalWorkedMinutes),
		TotalExtraMinutes:    summary.TotalExtraMinutes,
		TotalShortageMinutes: summary.TotalShortageMinutes,
		NetBalanceMinutes:    summary.NetBalanceMinutes,
		NetBalanceHours:      minutesToHours(summary.NetBalanceMinutes),

		CompleteDays:   summary.CompleteDays,
		IncompleteDays: summary.IncompleteDays,
		JustifiedDays:  summary.JustifiedDays,
		DayOffDays:     summary.DayOffDays,

		EditedPunches:      summary.EditedPunches,
		EditedDeltaMinutes: summary.EditedDeltaMinutes,

		Days: dtos,
	}
}

// minutesToHours converts a minute total to decimal hours without float
// accumulation error (e.g. 450 -> "7.5").
func minutesToHours(minutes int) string {
	return decimal.NewFromInt(int64(minutes)).
		Div(decimal.NewFromInt(60)).
		Round(2).
		String()
}

func minuteString(m *engine.MinuteOfDay) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}
