package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"

	"github.com/brightdesk/room-booking-api/internal/app/bookings"
	"github.com/brightdesk/room-booking-api/internal/domain"
	"github.com/brightdesk/room-booking-api/internal/ports/out/idempotency"
)

// Server is the thin HTTP adapter over the booking engine. It decodes and
// validates wire shapes and delegates everything else to the service.
type Server struct {
	svc *bookings.Service
}

func NewServer(svc *bookings.Service) *Server {
	return &Server{svc: svc}
}

type successResponse struct {
	Status   string `json:"status"`
	Data     any    `json:"data"`
	Replayed bool   `json:"replayed,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, data any, replayed bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successResponse{Status: "success", Data: data, Replayed: replayed})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

type roomJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Capacity int     `json:"capacity"`
	Timezone *string `json:"timezone,omitempty"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.svc.ListRooms(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]roomJSON, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, roomJSON{
			ID:       string(rm.ID),
			Name:     rm.Name,
			Capacity: rm.Capacity,
			Timezone: rm.Timezone,
		})
	}
	writeSuccess(w, http.StatusOK, out, false)
}

type slotJSON struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

type availabilityJSON struct {
	RoomID string     `json:"roomId"`
	Date   string     `json:"date"`
	Slots  []slotJSON `json:"slots"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "missing date", map[string]any{"date": "query parameter is required"})
		return
	}

	avail, err := s.svc.GetAvailability(r.Context(), roomID, date)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := availabilityJSON{
		RoomID: string(avail.RoomID),
		Date:   avail.Date.Format("2006-01-02"),
		Slots:  make([]slotJSON, 0, len(avail.Slots)),
	}
	for _, sl := range avail.Slots {
		out.Slots = append(out.Slots, slotJSON{StartTime: sl.StartTime, EndTime: sl.EndTime, Available: sl.Available})
	}
	writeSuccess(w, http.StatusOK, out, false)
}

type createBookingRequest struct {
	RoomID      string                    `json:"roomId"`
	UserID      string                    `json:"userId"`
	Title       string                    `json:"title"`
	Description nullable.Nullable[string] `json:"description"`
	StartTime   string                    `json:"startTime"`
	EndTime     string                    `json:"endTime"`
}

type bookingJSON struct {
	ID                 string     `json:"id"`
	RoomID             string     `json:"roomId"`
	UserID             string     `json:"userId"`
	Title              string     `json:"title"`
	Description        *string    `json:"description,omitempty"`
	StartTime          time.Time  `json:"startTime"`
	EndTime            time.Time  `json:"endTime"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
}

func toBookingJSON(b domain.Booking) bookingJSON {
	return bookingJSON{
		ID:                 string(b.ID),
		RoomID:             string(b.RoomID),
		UserID:             string(b.UserID),
		Title:              b.Title,
		Description:        b.Description,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
	}
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body", nil)
		return
	}

	details := map[string]any{}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		details["startTime"] = "must be an RFC 3339 timestamp"
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		details["endTime"] = "must be an RFC 3339 timestamp"
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid booking request", details)
		return
	}

	in := bookings.CreateBookingInput{
		RoomID:    domain.RoomID(req.RoomID),
		UserID:    domain.UserID(req.UserID),
		Title:     req.Title,
		StartTime: start,
		EndTime:   end,
	}
	if v, err := req.Description.Get(); err == nil {
		in.Description = &v
	}

	key := idempotency.Key(r.Header.Get("Idempotency-Key"))
	res, err := s.svc.CreateBooking(r.Context(), in, key)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	// Replays return the original success status unchanged.
	writeSuccess(w, http.StatusCreated, toBookingJSON(res.Booking), res.Replayed)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id := domain.BookingID(chi.URLParam(r, "bookingID"))
	b, err := s.svc.GetBooking(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toBookingJSON(b), false)
}

type cancelBookingRequest struct {
	Reason nullable.Nullable[string] `json:"reason"`
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id := domain.BookingID(chi.URLParam(r, "bookingID"))

	var req cancelBookingRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body", nil)
			return
		}
	}
	var reason *string
	if v, err := req.Reason.Get(); err == nil {
		reason = &v
	}

	b, err := s.svc.CancelBooking(r.Context(), id, reason)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, toBookingJSON(b), false)
}
