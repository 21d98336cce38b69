package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/neexbeast/kira-trips/internal/geo"
	"github.com/neexbeast/kira-trips/internal/itinerary"
	"github.com/neexbeast/kira-trips/internal/storage"
	"github.com/neexbeast/kira-trips/internal/transit"
)

const (
	defaultStops = 3
	defaultDays  = 3
	maxBodyBytes = 1 << 16
	maxListLimit = 100
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	journeys     JourneyPlanner
	activities   ActivityFinder
	composer     TripComposer
	repo         TripRepo
	defaultStart string
	defaultCity  string
	log          *slog.Logger
}

// Defaults are the places used when a request leaves them out.
type Defaults struct {
	Start string
	City  string
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(journeys JourneyPlanner, activities ActivityFinder, composer TripComposer, repo TripRepo, defaults Defaults, log *slog.Logger) *Handlers {
	return &Handlers{
		journeys:     journeys,
		activities:   activities,
		composer:     composer,
		repo:         repo,
		defaultStart: defaults.Start,
		defaultCity:  defaults.City,
		log:          log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

type journeyRequest struct {
	Start      string          `json:"start"`
	End        string          `json:"end"`
	When       string          `json:"when"`
	StartCoord *geo.Coordinate `json:"start_coord,omitempty"`
	EndCoord   *geo.Coordinate `json:"end_coord,omitempty"`
}

type journeyResponse struct {
	Type string        `json:"type"`
	From string        `json:"from"`
	To   string        `json:"to"`
	Legs []transit.Leg `json:"legs"`
}

type errorResult struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PlanJourney handles POST /api/v1/journeys.
// Routing failures are a result, not an HTTP error.
func (h *Handlers) PlanJourney(w http.ResponseWriter, r *http.Request) {
	var req journeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.End) == "" {
		writeError(w, http.StatusBadRequest, "end is required")
		return
	}

	start := geo.PlaceQuery{Name: orDefault(req.Start, h.defaultStart), Coord: req.StartCoord}
	end := geo.PlaceQuery{Name: strings.TrimSpace(req.End), Coord: req.EndCoord}

	j, err := h.journeys.PlanJourney(r.Context(), start, end, req.When)
	if err != nil {
		if !transit.IsNoConnection(err) {
			h.log.Error("journey planning failed", "from", start.Name, "to", end.Name, "err", err)
		}
		writeJSON(w, http.StatusOK, errorResult{Type: "error", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, journeyResponse{Type: "journey_plan", From: j.From, To: j.To, Legs: j.Legs})
}

// ListActivities handles GET /api/v1/activities?location=&interest=.
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	location := orDefault(r.URL.Query().Get("location"), h.defaultCity)
	interest := strings.TrimSpace(r.URL.Query().Get("interest"))

	res := h.activities.Retrieve(r.Context(), location, interest)
	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "activity_list",
		"location": res.Location,
		"interest": res.Interest,
		"center":   res.Center,
		"items":    res.Items,
	})
}

// BestCity handles GET /api/v1/cities/best?q=.
func (h *Handlers) BestCity(w http.ResponseWriter, r *http.Request) {
	city := h.activities.BestCity(r.Context(), r.URL.Query().Get("q"), h.defaultCity)
	writeJSON(w, http.StatusOK, map[string]string{"city": city})
}

type dayTripRequest struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Interest string `json:"interest"`
	Stops    any    `json:"stops"`
}

type multiDayRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  any    `json:"days"`
}

type tripResponse struct {
	ID   string         `json:"id,omitempty"`
	Plan itinerary.Plan `json:"plan"`
}

// ComposeDayTrip handles POST /api/v1/trips/day.
func (h *Handlers) ComposeDayTrip(w http.ResponseWriter, r *http.Request) {
	var req dayTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Start = orDefault(req.Start, h.defaultStart)
	stops := intOr(req.Stops, defaultStops)

	plan := h.composer.ComposeLoopTrip(r.Context(), req.Start, strings.TrimSpace(req.End), req.Interest, stops)
	h.respondWithTrip(w, r, storage.KindDayTrip, req.Start, req.End, req, plan)
}

// ComposeMultiDayTrip handles POST /api/v1/trips/multiday.
func (h *Handlers) ComposeMultiDayTrip(w http.ResponseWriter, r *http.Request) {
	var req multiDayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Start = orDefault(req.Start, h.defaultStart)
	days := intOr(req.Days, defaultDays)

	plan := h.composer.ComposeMultiDayTrip(r.Context(), req.Start, strings.TrimSpace(req.End), days)
	h.respondWithTrip(w, r, storage.KindMultiDay, req.Start, req.End, req, plan)
}

// respondWithTrip stores the plan and returns it. A failed save is logged
// and the plan is returned without an ID.
func (h *Handlers) respondWithTrip(w http.ResponseWriter, r *http.Request, kind, start, end string, req any, plan itinerary.Plan) {
	resp := tripResponse{Plan: plan}

	if id, err := h.save(r, kind, start, end, req, plan); err != nil {
		h.log.Warn("saving trip failed", "from", start, "to", end, "err", err)
	} else {
		resp.ID = id.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) save(r *http.Request, kind, start, end string, req any, plan itinerary.Plan) (uuid.UUID, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return uuid.Nil, err
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return uuid.Nil, err
	}

	rec := &storage.TripRecord{
		Kind:      kind,
		StartName: start,
		EndName:   end,
		Request:   reqJSON,
		Plan:      planJSON,
	}
	if err := h.repo.SaveTrip(r.Context(), rec); err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

// GetTrip handles GET /api/v1/trips/{id}.
func (h *Handlers) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trip id")
		return
	}

	rec, err := h.repo.GetTrip(r.Context(), id)
	if err != nil {
		h.log.Error("db get failed", "trip", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListTrips handles GET /api/v1/trips?limit=&activity=.
func (h *Handlers) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit := intOr(r.URL.Query().Get("limit"), 0)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		recs []*storage.TripRecord
		err  error
	)
	if name := strings.TrimSpace(r.URL.Query().Get("activity")); name != "" {
		recs, err = h.repo.FindTripsWithActivity(r.Context(), name, limit)
	} else {
		recs, err = h.repo.ListTrips(r.Context(), limit)
	}
	if err != nil {
		h.log.Error("db list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if recs == nil {
		recs = []*storage.TripRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"trips": recs})
}

// intOr reads a loosely typed count such as 3, "3" or 3.0.
func intOr(v any, fallback int) int {
	if v == nil || v == "" {
		return fallback
	}
	if _, isBool := v.(bool); isBool {
		return fallback
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return n
}
