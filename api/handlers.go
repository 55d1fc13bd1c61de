/*
handlers.go - HTTP API handlers for the attendance reconciliation engine

PURPOSE:
  Exposes the attendance service via REST. Handles HTTP request/response,
  JSON serialization, and delegates every computation to the single
  service boundary - no balance logic lives here.

ENDPOINTS:
  Employees:
    GET    /api/employees                     List employees
    GET    /api/employees/{id}                Employee details
    POST   /api/employees/{id}/punches        Submit a punch
    GET    /api/employees/{id}/punches        Punches in a date range
    GET    /api/employees/{id}/days/{date}    Reconciled day record
    GET    /api/employees/{id}/report         Period report (from/to query)
    GET    /api/employees/{id}/schedule       Effective shift for a date

  Schedule groups:
    GET    /api/groups                        List shift templates
    POST   /api/groups                        Create (validates 44h week)
    GET    /api/groups/{id}
    PUT    /api/groups/{id}                   Update (versions on change)

  Overrides / justifications:
    POST   /api/overrides                     Create (supersedes overlaps)
    POST   /api/justifications                Create (409 on overlap)
    POST   /api/justifications/{id}/cancel
    DELETE /api/justifications/{id}

  Admin:
    PUT    /api/admin/punches                 Audited punch edit/insert
    POST   /api/admin/justifications/expire   Expire ended justifications

IDENTITY:
  Authentication is an external collaborator. The acting administrator is
  taken from the X-Actor-ID header; an upstream gateway is expected to
  have verified it.

ERROR HANDLING:
  Engine errors map deterministically onto status codes:
  - 400: validation errors, malformed dates/times
  - 404: missing records, unavailable employees
  - 409: conflicting justification/override, occupied punch slot
  - 422: punch sequence violations (body names the next expected punch)
  - 500: store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *attendance.Service
	Log     *zap.Logger
}

func NewHandler(service *attendance.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: service, Log: log}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Employees.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Service.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if emp == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "employee not found", Code: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	date, ok := h.parseDateParam(w, r.URL.Query().Get("date"), "date")
	if !ok {
		return
	}
	shift, err := h.Service.ResolveSchedule(r.Context(), id, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(shift))
}

// =============================================================================
// PUNCH HANDLERS
// =============================================================================

func (h *Handler) SubmitPunch(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))

	var req SubmitPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}
	date, ok := h.parseDateParam(w, req.Date, "date")
	if !ok {
		return
	}
	at, err := engine.ParseMinuteOfDay(req.At)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid at (use HH:MM)", Code: "validation"})
		return
	}

	var loc *engine.GeoPoint
	if req.Latitude != nil && req.Longitude != nil {
		loc = &engine.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	rec, err := h.Service.SubmitPunch(r.Context(), id, date, engine.PunchType(req.Type), at, loc)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPunchDTO(rec))
}

func (h *Handler) ListPunches(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	period, ok := h.parsePeriod(w, r)
	if !ok {
		return
	}
	punches, err := h.Service.Punches.PunchesInRange(r.Context(), id, period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]PunchDTO, len(punches))
	for i, p := range punches {
		dtos[i] = toPunchDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) EditPunch(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "X-Actor-ID header is required", Code: "validation"})
		return
	}

	var req EditPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}
	date, ok := h.parseDateParam(w, req.Date, "date")
	if !ok {
		return
	}
	at, err := engine.ParseMinuteOfDay(req.At)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid at (use HH:MM)", Code: "validation"})
		return
	}

	employeeID := engine.EmployeeID(req.EmployeeID)
	punchType := engine.PunchType(req.Type)
	code := engine.ReasonCode(req.ReasonCode)

	var rec engine.PunchRecord
	if req.Insert {
		rec, err = h.Service.InsertPunchAdmin(r.Context(), actor, employeeID, date, punchType, at, code, req.Note)
	} else {
		rec, err = h.Service.EditPunch(r.Context(), actor, employeeID, date, punchType, at, code, req.Note)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPunchDTO(rec))
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	date, ok := h.parseDateParam(w, chi.URLParam(r, "date"), "date")
	if !ok {
		return
	}
	rec, err := h.Service.ReconcileDay(r.Context(), id, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayRecordDTO(rec))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	period, ok := h.parsePeriod(w, r)
	if !ok {
		return
	}
	days, summary, err := h.Service.ReconcilePeriod(r.Context(), id, period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodReportDTO(id, summary, days))
}

// =============================================================================
// SCHEDULE GROUP HANDLERS
// =============================================================================

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Service.Schedules.ListGroups(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]ScheduleGroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toGroupDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id := engine.GroupID(chi.URLParam(r, "id"))
	g, err := h.Service.Schedules.GetGroup(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if g == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "schedule group not found", Code: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(*g))
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	g, ok := h.decodeGroup(w, r, "")
	if !ok {
		return
	}
	created, err := h.Service.CreateScheduleGroup(r.Context(), g)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupDTO(created))
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id := engine.GroupID(chi.URLParam(r, "id"))
	g, ok := h.decodeGroup(w, r, id)
	if !ok {
		return
	}
	updated, err := h.Service.UpdateScheduleGroup(r.Context(), actorID(r), g)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(updated))
}

func (h *Handler) decodeGroup(w http.ResponseWriter, r *http.Request, id engine.GroupID) (engine.ScheduleGroup, bool) {
	var req SaveScheduleGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return engine.ScheduleGroup{}, false
	}

	g := engine.ScheduleGroup{
		ID:                  id,
		Name:                req.Name,
		DailyLoadMinutes:    req.DailyLoadMinutes,
		ToleranceMinutes:    req.ToleranceMinutes,
		SaturdayActive:      req.SaturdayActive,
		SaturdayLoadMinutes: req.SaturdayLoadMinutes,
		SundayIsOff:         req.SundayIsOff,
	}

	times := []struct {
		raw  string
		dest *engine.MinuteOfDay
	}{
		{req.EntryMorning, &g.EntryMorning},
		{req.LunchExit, &g.LunchExit},
		{req.LunchReturn, &g.LunchReturn},
		{req.ExitAfternoon, &g.ExitAfternoon},
	}
	if req.SaturdayActive {
		times = append(times,
			struct {
				raw  string
				dest *engine.MinuteOfDay
			}{req.SaturdayEntry, &g.SaturdayEntry},
			struct {
				raw  string
				dest *engine.MinuteOfDay
			}{req.SaturdayExit, &g.SaturdayExit})
	}
	for _, t := range times {
		m, err := engine.ParseMinuteOfDay(t.raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid time-of-day (use HH:MM)", Code: "validation"})
			return engine.ScheduleGroup{}, false
		}
		*t.dest = m
	}
	return g, true
}

// =============================================================================
// OVERRIDE HANDLERS
// =============================================================================

func (h *Handler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var req CreateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}
	o, ok := h.decodeOverride(w, req)
	if !ok {
		return
	}
	created, err := h.Service.CreateOverride(r.Context(), actorID(r), o)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOverrideDTO(created))
}

func (h *Handler) decodeOverride(w http.ResponseWriter, req CreateOverrideRequest) (engine.ScheduleOverride, bool) {
	o := engine.ScheduleOverride{
		EmployeeID:          engine.EmployeeID(req.EmployeeID),
		DailyLoadMinutes:    req.DailyLoadMinutes,
		ToleranceMinutes:    req.ToleranceMinutes,
		SaturdayActive:      req.SaturdayActive,
		SaturdayLoadMinutes: req.SaturdayLoadMinutes,
		SundayIsOff:         req.SundayIsOff,
		Reason:              req.Reason,
	}

	var ok bool
	if o.DateStart, ok = h.parseDateField(w, req.DateStart); !ok {
		return o, false
	}
	if req.DateEnd != nil {
		end, ok := h.parseDateField(w, *req.DateEnd)
		if !ok {
			return o, false
		}
		o.DateEnd = &end
	}

	fields := []struct {
		raw  *string
		dest **engine.MinuteOfDay
	}{
		{req.EntryMorning, &o.EntryMorning},
		{req.LunchExit, &o.LunchExit},
		{req.LunchReturn, &o.LunchReturn},
		{req.ExitAfternoon, &o.ExitAfternoon},
		{req.SaturdayEntry, &o.SaturdayEntry},
		{req.SaturdayExit, &o.SaturdayExit},
	}
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		m, err := engine.ParseMinuteOfDay(*f.raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid time-of-day (use HH:MM)", Code: "validation"})
			return o, false
		}
		*f.dest = &m
	}
	return o, true
}

// =============================================================================
// JUSTIFICATION HANDLERS
// =============================================================================

func (h *Handler) CreateJustification(w http.ResponseWriter, r *http.Request) {
	var req CreateJustificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}

	j := engine.Justification{
		EmployeeID:    engine.EmployeeID(req.EmployeeID),
		Type:          engine.JustificationType(req.Type),
		Scope:         engine.JustificationScope(req.Scope),
		BlocksPunch:   req.BlocksPunch,
		AbatesAbsence: req.AbatesAbsence,
		Reason:        req.Reason,
	}
	var ok bool
	if j.DateStart, ok = h.parseDateField(w, req.DateStart); !ok {
		return
	}
	if req.DateEnd != nil {
		end, ok := h.parseDateField(w, *req.DateEnd)
		if !ok {
			return
		}
		j.DateEnd = &end
	}

	created, err := h.Service.CreateJustification(r.Context(), actorID(r), j)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJustificationDTO(created))
}

func (h *Handler) CancelJustification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CancelJustificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "bad_request"})
		return
	}
	if err := h.Service.CancelJustification(r.Context(), actorID(r), id, req.Reason); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteJustification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.DeleteJustification(r.Context(), actorID(r), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExpireJustifications(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseDateParam(w, r.URL.Query().Get("as_of"), "as_of")
	if !ok {
		return
	}
	n, err := h.Service.ExpireJustifications(r.Context(), asOf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}

// =============================================================================
// HELPERS
// =============================================================================

func actorID(r *http.Request) string {
	return r.Header.Get("X-Actor-ID")
}

func (h *Handler) parseDateParam(w http.ResponseWriter, raw, name string) (engine.Date, bool) {
	date, err := engine.ParseDate(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid " + name + " (use YYYY-MM-DD)", Code: "validation",
		})
		return engine.Date{}, false
	}
	return date, true
}

func (h *Handler) parseDateField(w http.ResponseWriter, raw string) (engine.Date, bool) {
	return h.parseDateParam(w, raw, "date")
}

func (h *Handler) parsePeriod(w http.ResponseWriter, r *http.Request) (engine.Period, bool) {
	from, ok := h.parseDateParam(w, r.URL.Query().Get("from"), "from")
	if !ok {
		return engine.Period{}, false
	}
	to, ok := h.parseDateParam(w, r.URL.Query().Get("to"), "to")
	if !ok {
		return engine.Period{}, false
	}
	period := engine.Period{Start: from, End: to}
	if err := period.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation"})
		return engine.Period{}, false
	}
	return period, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the engine error taxonomy onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrInvalidPeriod):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "validation"})
	case errors.Is(err, engine.ErrSequenceViolation):
		resp := ErrorResponse{Error: err.Error(), Code: "sequence_violation"}
		var sv *engine.SequenceViolationError
		if errors.As(err, &sv) && sv.Expected != "" {
			resp.Details = map[string]string{"next_expected": string(sv.Expected)}
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, engine.ErrConflict):
		resp := ErrorResponse{Error: err.Error(), Code: "conflict"}
		var ce *engine.ConflictError
		if errors.As(err, &ce) {
			resp.Details = map[string]any{"conflicting": ce.Conflicting}
		}
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, engine.ErrEmployeeUnavailable), errors.Is(err, engine.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	default:
		h.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
}
