package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/tripsearch/internal/offer"
	"github.com/neexbeast/tripsearch/internal/search"
)

const maxBodyBytes = 1 << 20

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	searcher       TripSearcher
	itineraries    ItineraryStore
	bookingBaseURL string
	log            *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(searcher TripSearcher, itineraries ItineraryStore, bookingBaseURL string, log *slog.Logger) *Handlers {
	return &Handlers{
		searcher:       searcher,
		itineraries:    itineraries,
		bookingBaseURL: bookingBaseURL,
		log:            log,
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

// decode reads a JSON body into dst, writing a 400 and returning false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// fail maps service errors to status codes.
func (h *Handlers) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, search.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error(op+" failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// SearchTravel handles POST /v1/search_travel.
func (h *Handlers) SearchTravel(w http.ResponseWriter, r *http.Request) {
	var req search.TripRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.searcher.Search(r.Context(), req)
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type refineBody struct {
	RequestID string              `json:"request_id"`
	Filters   offer.RefineFilters `json:"filters"`
}

// RefineResults handles POST /v1/refine_results. An unknown request id is not an
// error: the body carries the warning.
func (h *Handlers) RefineResults(w http.ResponseWriter, r *http.Request) {
	var body refineBody
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.RequestID) == "" {
		writeError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	resp, err := h.searcher.Refine(r.Context(), body.RequestID, body.Filters)
	if err != nil {
		h.fail(w, "refine", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlanTrip handles POST /v1/plan_trip.
func (h *Handlers) PlanTrip(w http.ResponseWriter, r *http.Request) {
	var req search.PlanRequest
	if !decode(w, r, &req) {
		return
	}

	plan, err := h.searcher.PlanTrip(r.Context(), req)
	if err != nil {
		h.fail(w, "plan trip", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// BuildItinerary handles POST /v1/itinerary.
func (h *Handlers) BuildItinerary(w http.ResponseWriter, r *http.Request) {
	var req search.ItineraryRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, "build itinerary", err)
		return
	}

	days, warnings := h.searcher.BuildItinerary(req.Destination, req.Activities, req.Days)
	writeJSON(w, http.StatusOK, map[string]any{
		"destination": req.Destination,
		"itinerary":   days,
		"warnings":    warnings,
	})
}

// SaveItinerary handles POST /v1/save_itinerary.
func (h *Handlers) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	var req search.SaveItineraryRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, "save itinerary", err)
		return
	}

	saved := h.itineraries.Save(req.RequestID, req.Destination, req.Days)
	h.log.Info("itinerary saved", "itinerary_id", saved.ID, "request_id", req.RequestID)
	writeJSON(w, http.StatusCreated, map[string]string{"itinerary_id": saved.ID})
}

// GetItinerary handles GET /v1/itineraries/{id}.
func (h *Handlers) GetItinerary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	saved, ok := h.itineraries.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "itinerary not found")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// StartBooking handles POST /v1/start_booking.
func (h *Handlers) StartBooking(w http.ResponseWriter, r *http.Request) {
	var req search.BookingRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := search.StartBooking(h.bookingBaseURL, req)
	if err != nil {
		h.fail(w, "start booking", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PolicySummary handles GET /v1/get_policy_summary/{offer_id}.
func (h *Handlers) PolicySummary(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "offer_id")

	summary, err := h.searcher.PolicySummary(r.Context(), offerID)
	if err != nil {
		h.fail(w, "policy summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HealthHandlerFunc returns an http.HandlerFunc that pings every configured dependency.
// With none configured the service is always healthy.
func HealthHandlerFunc(pingers map[string]Pinger, log *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(pingers))
	for name := range pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"ok": true}

		for _, name := range names {
			if err := pingers[name].Ping(ctx); err != nil {
				log.Error("health check: ping failed", "dependency", name, "err", err)
				body[name] = "error"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}

		if status != http.StatusOK {
			body["ok"] = false
		}
		writeJSON(w, status, body)
	}
}
