package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/mo"

	"eventcal/internal/calendar"
	"eventcal/internal/datemath"
	"eventcal/internal/duration"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/recurrence"
)

type ruleResponse struct {
	Rule string `json:"rule"`
}

// POST /api/rule with a recurrence.Descriptor body.
func (s *Server) handleBuildRule(w http.ResponseWriter, r *http.Request) {
	var desc recurrence.Descriptor
	if err := readJSON(w, r, &desc); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleResponse{Rule: recurrence.BuildRuleString(desc)})
}

type parseRuleRequest struct {
	Rule string `json:"rule"`
}

type parseRuleResponse struct {
	Descriptor recurrence.Descriptor `json:"descriptor"`
}

// POST /api/rule/parse {"rule": "FREQ=..."}
func (s *Server) handleParseRule(w http.ResponseWriter, r *http.Request) {
	var req parseRuleRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	desc, ok := recurrence.ParseRuleString(req.Rule)
	if !ok {
		s.errorResponse(w, r, http.StatusUnprocessableEntity, "rule could not be parsed")
		return
	}
	writeJSON(w, http.StatusOK, parseRuleResponse{Descriptor: desc})
}

type occurrencesRequest struct {
	Descriptor   recurrence.Descriptor `json:"descriptor"`
	Start        string                `json:"start"`
	MaxInstances int                   `json:"maxInstances,omitempty"`
}

type occurrencesResponse struct {
	Rule        string      `json:"rule"`
	Occurrences []time.Time `json:"occurrences"`
}

// POST /api/occurrences
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	var req occurrencesRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	cfg, loc, _ := s.snapshot()
	max := req.MaxInstances
	if max <= 0 {
		max = cfg.MaxInstances
	}

	occ := recurrence.GenerateOccurrencesIn(loc, req.Descriptor, req.Start, max)
	if occ == nil {
		occ = []time.Time{}
	}
	writeJSON(w, http.StatusOK, occurrencesResponse{
		Rule:        recurrence.BuildRuleString(req.Descriptor),
		Occurrences: occ,
	})
}

type daysResponse struct {
	Days mo.Option[int] `json:"days"`
}

// GET /api/days?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, daysResponse{Days: datemath.DaysInclusive(q.Get("start"), q.Get("end"))})
}

type endDateResponse struct {
	End string `json:"end"`
}

// GET /api/end-date?start=YYYY-MM-DD&days=N
func (s *Server) handleEndDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, endDateResponse{End: datemath.EndDateFromDayCount(q.Get("start"), q.Get("days"))})
}

type normalizeResponse struct {
	Record     model.EventRecord `json:"record"`
	GoogleLink string            `json:"googleLink,omitempty"`
}

// POST /api/normalize with calendar.Attributes.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var attrs calendar.Attributes
	if err := readJSON(w, r, &attrs); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	_, loc, _ := s.snapshot()
	rec := calendar.NormalizeIn(loc, attrs)
	writeJSON(w, http.StatusOK, normalizeResponse{Record: rec, GoogleLink: ics.GoogleLink(rec)})
}

type durationsResponse struct {
	Unit    duration.Unit        `json:"unit"`
	Options []duration.Option    `json:"options"`
	Current duration.OptionValue `json:"current"`
}

// GET /api/durations/{unit}?selected=1.5
func (s *Server) handleDurations(w http.ResponseWriter, r *http.Request) {
	unit, ok := duration.ParseUnit(chi.URLParam(r, "unit"))
	if !ok {
		s.notFoundResponse(w, r)
		return
	}

	cfg, _, tr := s.snapshot()
	set := duration.NewOptionSet(cfg.Presets(unit), unit,
		duration.WithTolerance(cfg.Tolerance),
		duration.WithNamespace(cfg.LabelNamespace),
		duration.WithTranslator(tr),
	)

	selected := mo.None[float64]()
	if raw := r.URL.Query().Get("selected"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.badRequestResponse(w, r, errors.New("selected must be a number"))
			return
		}
		selected = mo.Some(v)
		set.SetSelection(v)
	}

	writeJSON(w, http.StatusOK, durationsResponse{
		Unit:    unit,
		Options: set.BuildOptions(),
		Current: set.CurrentSelectionFor(selected),
	})
}

// POST /api/export.ics with a list of calendar.Attributes.
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	var attrs []calendar.Attributes
	if err := readJSON(w, r, &attrs); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	cfg, loc, _ := s.snapshot()
	records := make([]model.EventRecord, 0, len(attrs))
	for _, a := range attrs {
		records = append(records, calendar.NormalizeIn(loc, a))
	}

	feed, skipped := ics.BuildCalendar(records, ics.ExportOptions{
		Name:      cfg.CalendarName,
		ProductID: cfg.ProductID,
	})
	if skipped > 0 {
		w.Header().Set("X-Skipped-Events", strconv.Itoa(skipped))
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(feed)); err != nil {
		// Status and headers are already sent.
		appLog.Error("failed to write calendar feed", err, "path", r.URL.Path)
	}
}

// POST /api/export/google with calendar.Attributes.
func (s *Server) handleExportGoogle(w http.ResponseWriter, r *http.Request) {
	var attrs calendar.Attributes
	if err := readJSON(w, r, &attrs); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}
	_, loc, _ := s.snapshot()
	ev := ics.GoogleEvent(calendar.NormalizeIn(loc, attrs))
	if ev == nil {
		s.errorResponse(w, r, http.StatusUnprocessableEntity, "event has no valid start")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
