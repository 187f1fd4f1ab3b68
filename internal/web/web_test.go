package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Normalize()

	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestBuildRule(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"weekly count", `{"frequency":"WEEKLY","interval":1,"count":5}`, "FREQ=WEEKLY;COUNT=5"},
		{"biweekly", `{"frequency":"BIWEEKLY","interval":1}`, "FREQ=WEEKLY;INTERVAL=2"},
		{"daily until", `{"frequency":"DAILY","interval":3,"until":"2024-12-31"}`, "FREQ=DAILY;INTERVAL=3;UNTIL=20241231"},
		{"empty frequency", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/rule", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["rule"])
		})
	}
}

func TestBuildRule_BadBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/rule", `{"frequency":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/rule", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unknown key")
}

func TestParseRule(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/rule/parse", `{"rule":"RRULE:FREQ=WEEKLY;INTERVAL=2;UNTIL=20241231"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	desc := decode(t, rec)["descriptor"].(map[string]any)
	assert.Equal(t, "BIWEEKLY", desc["frequency"])
	assert.Equal(t, "2024-12-31", desc["until"])

	rec = do(t, s, http.MethodPost, "/api/rule/parse", `{"rule":"not a rule"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOccurrences(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/occurrences",
		`{"descriptor":{"frequency":"WEEKLY","interval":1,"count":3},"start":"2024-12-20T09:00:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=3", out["rule"])
	assert.Equal(t, []any{
		"2024-12-20T09:00:00Z",
		"2024-12-27T09:00:00Z",
		"2025-01-03T09:00:00Z",
	}, out["occurrences"])
}

func TestOccurrences_DefaultsAndEmpty(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxInstances = 4 })

	rec := do(t, s, http.MethodPost, "/api/occurrences",
		`{"descriptor":{"frequency":"DAILY","interval":1},"start":"2024-12-20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["occurrences"], 4)

	rec = do(t, s, http.MethodPost, "/api/occurrences",
		`{"descriptor":{"frequency":"DAILY","interval":1},"start":"garbage"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["occurrences"])
}

func TestDays(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/days?start=2024-12-20&end=2024-12-22", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode(t, rec)["days"])

	rec = do(t, s, http.MethodGet, "/api/days?start=2024-12-20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode(t, rec)["days"])
}

func TestEndDate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/end-date?start=2024-12-20&days=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-12-22", decode(t, rec)["end"])

	rec = do(t, s, http.MethodGet, "/api/end-date?start=2024-12-20&days=other", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decode(t, rec)["end"])
}

func TestNormalize(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/normalize",
		`{"title":"Retreat","start":"2024-12-20","end":"2024-12-22","allDay":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	record := out["record"].(map[string]any)
	assert.Equal(t, "Retreat", record["title"])
	assert.Equal(t, true, record["allDay"])
	assert.Equal(t, "2024-12-20T00:00:00Z", record["start"])
	assert.Equal(t, "2024-12-23T00:00:00Z", record["end"])
	assert.Contains(t, out["googleLink"], "calendar.google.com")
}

func TestDurations(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/durations/hours?selected=1.505", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "hours", out["unit"])
	assert.Equal(t, 1.5, out["current"])

	options := out["options"].([]any)
	require.Len(t, options, 5)
	first := options[0].(map[string]any)
	assert.Equal(t, "Other", first["label"])
	assert.Equal(t, "other", first["value"])
}

func TestDurations_CustomValueAndErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/durations/minutes?selected=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "other", out["current"])
	assert.Len(t, out["options"], 8)

	rec = do(t, s, http.MethodGet, "/api/durations/weeks", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/durations/days?selected=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDurations_TranslatedLabels(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Language = "de"
		c.Labels = map[string]string{"Other": "Andere", "1 hour": "1 Stunde"}
	})

	rec := do(t, s, http.MethodGet, "/api/durations/hours", "")
	require.Equal(t, http.StatusOK, rec.Code)

	options := decode(t, rec)["options"].([]any)
	assert.Equal(t, "Andere", options[0].(map[string]any)["label"])
	assert.Equal(t, "1 Stunde", options[1].(map[string]any)["label"])
	assert.Equal(t, "1 hour, 30 minutes", options[2].(map[string]any)["label"])
}

func TestExportICS(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.CalendarName = "Team" })

	rec := do(t, s, http.MethodPost, "/api/export.ics",
		`[{"uid":"a","title":"Holiday","start":"2024-12-25","end":"2024-12-25","allDay":true},{"title":"No start"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Skipped-Events"))

	body := rec.Body.String()
	assert.Contains(t, body, "X-WR-CALNAME:Team")
	assert.Contains(t, body, "DTSTART;VALUE=DATE:20241225")
	assert.Contains(t, body, "DTEND;VALUE=DATE:20241226")
}

func TestExportGoogle(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/export/google",
		`{"uid":"x","title":"Standup","start":"2024-12-16T10:00:00Z","rule":"FREQ=DAILY;COUNT=2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Standup", out["summary"])
	assert.Equal(t, []any{"RRULE:FREQ=DAILY;COUNT=2"}, out["recurrence"])

	rec = do(t, s, http.MethodPost, "/api/export/google", `{"title":"No start"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	})

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/days?start=2024-12-20&end=2024-12-20", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/days?start=2024-12-20&end=2024-12-20", nil)
	req.SetBasicAuth("admin", "secret")
	ok := httptest.NewRecorder()
	s.Handler().ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestSetConfig(t *testing.T) {
	s := newTestServer(t, nil)

	next := config.DefaultConfig()
	next.Timezone = "UTC"
	next.MaxInstances = 2
	next.Normalize()
	require.NoError(t, s.SetConfig(next))

	rec := do(t, s, http.MethodPost, "/api/occurrences",
		`{"descriptor":{"frequency":"DAILY","interval":1},"start":"2024-12-20"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["occurrences"], 2)

	assert.Error(t, s.SetConfig(nil))

	bad := config.DefaultConfig()
	bad.Language = "!!"
	bad.Labels = map[string]string{"Other": "x"}
	assert.Error(t, s.SetConfig(bad))
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
	writes int
}

func (b *brokenWriter) Write(p []byte) (int, error) {
	b.writes++
	return 0, errors.New("connection reset")
}

func TestExportICS_WriteFailureIsNotFollowedByJSON(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/export.ics",
		strings.NewReader(`[{"title":"Holiday","start":"2024-12-25","allDay":true}]`))
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder()}
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, 1, w.writes)
}

func TestNewServer_LeavesChiDefaultLoggerAlone(t *testing.T) {
	before := reflect.ValueOf(middleware.DefaultLogger).Pointer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg := config.DefaultConfig()
			cfg.Normalize()
			_, err := NewServer(cfg)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, before, reflect.ValueOf(middleware.DefaultLogger).Pointer())
}
