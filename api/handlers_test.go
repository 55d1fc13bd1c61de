package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()

	svc := attendance.NewService(store, store, store, store, store, engine.DefaultRounding)
	_, err := svc.CreateScheduleGroup(context.Background(), engine.ScheduleGroup{
		ID:   "grp-std",
		Name: "Standard",

		EntryMorning:  engine.NewMinuteOfDay(8, 0),
		LunchExit:     engine.NewMinuteOfDay(12, 0),
		LunchReturn:   engine.NewMinuteOfDay(13, 0),
		ExitAfternoon: engine.NewMinuteOfDay(17, 0),

		DailyLoadMinutes: 480,
		ToleranceMinutes: 10,

		SaturdayActive:      true,
		SaturdayEntry:       engine.NewMinuteOfDay(8, 0),
		SaturdayExit:        engine.NewMinuteOfDay(12, 0),
		SaturdayLoadMinutes: 240,

		SundayIsOff: true,
	})
	require.NoError(t, err)
	store.PutEmployee(engine.Employee{ID: "emp-1", Name: "Ana", GroupID: "grp-std", Active: true})

	handler := api.NewHandler(svc, zap.NewNop())
	srv := httptest.NewServer(api.NewRouter(handler, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", "admin-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// =============================================================================
// PUNCHES
// =============================================================================

func TestAPI_SubmitPunch(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/punches", map[string]string{
		"date": "2025-03-10", "type": "morning_entry", "at": "08:02",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var punch map[string]any
	decodeBody(t, resp, &punch)
	assert.Equal(t, "morning_entry", punch["type"])
	assert.Equal(t, "08:02", punch["at"])
	assert.NotEmpty(t, punch["id"])
}

func TestAPI_SubmitPunch_BadDate(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/punches", map[string]string{
		"date": "10/03/2025", "type": "morning_entry", "at": "08:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_SubmitPunch_OutOfOrder_422(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/punches", map[string]string{
		"date": "2025-03-10", "type": "lunch_exit", "at": "12:00",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "sequence_violation", body.Code)
	assert.Equal(t, "morning_entry", body.Details["next_expected"])
}

func TestAPI_SubmitPunch_UnknownEmployee_404(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-ghost/punches", map[string]string{
		"date": "2025-03-10", "type": "morning_entry", "at": "08:00",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_AdminEditPunch(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/punches", map[string]string{
		"date": "2025-03-10", "type": "morning_entry", "at": "09:30",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/admin/punches", map[string]any{
		"employee_id": "emp-1",
		"date":        "2025-03-10",
		"type":        "morning_entry",
		"at":          "08:00",
		"reason_code": "operator_error",
		"note":        "badge reader clock drift",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var punch map[string]any
	decodeBody(t, resp, &punch)
	assert.Equal(t, true, punch["edited"])
	assert.Equal(t, "admin-1", punch["edited_by"])
	assert.Equal(t, float64(-90), punch["delta_minutes"])
}

// =============================================================================
// DAY RECORDS AND REPORTS
// =============================================================================

func submitDay(t *testing.T, srv *httptest.Server, date string, times [4]string) {
	t.Helper()
	types := []string{"morning_entry", "lunch_exit", "lunch_return", "afternoon_exit"}
	for i, pt := range types {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/employees/emp-1/punches", map[string]string{
			"date": date, "type": pt, "at": times[i],
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "punch %s", pt)
	}
}

func TestAPI_GetDay(t *testing.T) {
	srv := newTestServer(t)
	submitDay(t, srv, "2025-03-10", [4]string{"08:00", "12:00", "13:00", "17:20"})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/days/2025-03-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var day map[string]any
	decodeBody(t, resp, &day)
	assert.Equal(t, "complete", day["status"])
	assert.Equal(t, float64(500), day["worked_minutes"])
	assert.Equal(t, float64(20), day["balance_minutes"])
}

func TestAPI_PeriodReport_DecimalHours(t *testing.T) {
	srv := newTestServer(t)
	submitDay(t, srv, "2025-03-10", [4]string{"08:00", "12:00", "13:00", "17:00"})
	submitDay(t, srv, "2025-03-11", [4]string{"08:00", "11:30", "13:00", "17:00"})

	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/employees/emp-1/report?from=2025-03-10&to=2025-03-11", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report map[string]any
	decodeBody(t, resp, &report)
	assert.Equal(t, float64(930), report["total_worked_minutes"])
	assert.Equal(t, "15.5", report["total_worked_hours"])
	assert.Equal(t, float64(-30), report["net_balance_minutes"])
	assert.Equal(t, "-0.5", report["net_balance_hours"])
	assert.Len(t, report["days"], 2)
}

func TestAPI_PeriodReport_InvertedRange_400(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/employees/emp-1/report?from=2025-03-11&to=2025-03-10", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// GROUPS AND JUSTIFICATIONS
// =============================================================================

func TestAPI_CreateGroup_RejectsBrokenWeek(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/groups", map[string]any{
		"name":               "Broken",
		"entry_morning":      "08:00",
		"lunch_exit":         "12:00",
		"lunch_return":       "13:00",
		"exit_afternoon":     "17:00",
		"daily_load_minutes": 480, // 2400/week with saturday inactive
		"sunday_is_off":      true,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "validation", body["code"])
}

func TestAPI_JustificationConflict_409(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/justifications", map[string]any{
		"employee_id": "emp-1",
		"type":        "vacation",
		"date_start":  "2025-03-10",
		"date_end":    "2025-03-14",
		"scope":       "full",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/justifications", map[string]any{
		"employee_id": "emp-1",
		"type":        "medical_certificate",
		"date_start":  "2025-03-12",
		"scope":       "morning",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "conflict", body["code"])
}

func TestAPI_JustifiedDayInRecord(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/justifications", map[string]any{
		"employee_id": "emp-1",
		"type":        "vacation",
		"date_start":  "2025-03-10",
		"date_end":    "2025-03-10",
		"scope":       "full",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/employees/emp-1/days/2025-03-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var day map[string]any
	decodeBody(t, resp, &day)
	assert.Equal(t, "justified", day["status"])
	assert.Equal(t, float64(0), day["balance_minutes"])
	assert.NotNil(t, day["justification"])
}

func TestAPI_Healthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
