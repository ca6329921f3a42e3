package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/policy"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.CreateResult, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	UpdateSeries(ctx context.Context, params application.UpdateSeriesParams) ([]application.Reservation, error)
	CancelReservation(ctx context.Context, params application.CancelReservationParams) (application.Reservation, error)
}

// ReservationHandler serves the office reservation mutations.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params, err := req.toParams(actorFor(r))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	result, err := h.service.CreateReservation(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "room_id", params.RoomID).InfoContext(r.Context(), "reservation created", "count", len(result.Reservations))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createReservationResponse{
		SeriesID:     result.SeriesID,
		Reservations: toReservationDTOs(result.Reservations),
	})
}

// Update changes one reservation, or the whole series with ?scope=series.
func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "reservation_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, end, err := req.times()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	// Office edits always carry the current PIN so the lockout applies.
	if req.CurrentPIN == nil || strings.TrimSpace(*req.CurrentPIN) == "" {
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"current_pin": "current pin is required"},
		})
		return
	}

	actor := actorFor(r)
	if application.CancelScope(r.URL.Query().Get("scope")) == application.ScopeSeries {
		updated, err := h.service.UpdateSeries(r.Context(), application.UpdateSeriesParams{
			AnchorID:    id,
			RoomID:      req.RoomID,
			AnchorStart: start,
			AnchorEnd:   end,
			Title:       req.Title,
			Note:        req.Note,
			Color:       req.Color,
			NewPIN:      req.NewPIN,
			CurrentPIN:  req.CurrentPIN,
			Actor:       actor,
		})
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, seriesResponse{Reservations: toReservationDTOs(updated)})
		return
	}

	updated, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		ReservationID: id,
		RoomID:        req.RoomID,
		Start:         start,
		End:           end,
		Title:         req.Title,
		Note:          req.Note,
		Color:         req.Color,
		NewPIN:        req.NewPIN,
		CurrentPIN:    req.CurrentPIN,
		Actor:         actor,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(updated)})
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservation)
		return
	}

	var req cancelReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	cancelled, err := h.service.CancelReservation(r.Context(), application.CancelReservationParams{
		ReservationID: id,
		PIN:           req.PIN,
		Scope:         application.CancelScope(req.Scope),
		Actor:         actorFor(r),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(cancelled)})
}

// actorFor builds the audit actor from the authenticated device. Requests that
// bypassed device auth are recorded as the office.
func actorFor(r *http.Request) application.Actor {
	device, ok := DeviceFromContext(r.Context())
	if !ok {
		actor := application.AdminActor("")
		actor.Origin = clientOrigin(r)
		return actor
	}
	return application.DeviceActor(device, clientOrigin(r))
}

type repeatRequest struct {
	// Weekdays counts from Sunday = 0.
	Weekdays []int  `json:"weekdays"`
	Until    string `json:"until"`
}

type createReservationRequest struct {
	RoomID string         `json:"room_id"`
	Start  string         `json:"start"`
	End    string         `json:"end"`
	Title  string         `json:"title"`
	Note   string         `json:"note"`
	PIN    string         `json:"pin"`
	Color  string         `json:"color"`
	Repeat *repeatRequest `json:"repeat"`
}

func (req createReservationRequest) toParams(actor application.Actor) (application.CreateReservationParams, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Start))
	if err != nil {
		return application.CreateReservationParams{}, errInvalidTime
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.End))
	if err != nil {
		return application.CreateReservationParams{}, errInvalidTime
	}

	params := application.CreateReservationParams{
		RoomID: strings.TrimSpace(req.RoomID),
		Start:  start,
		End:    end,
		Title:  req.Title,
		Note:   req.Note,
		PIN:    req.PIN,
		Color:  req.Color,
		Actor:  actor,
	}
	if req.Repeat != nil {
		until, err := policy.ParseDate(strings.TrimSpace(req.Repeat.Until))
		if err != nil {
			return application.CreateReservationParams{}, errInvalidDate
		}
		weekdays := make([]time.Weekday, 0, len(req.Repeat.Weekdays))
		for _, d := range req.Repeat.Weekdays {
			weekdays = append(weekdays, time.Weekday(d))
		}
		params.Repeat = &application.RepeatRule{Weekdays: weekdays, Until: until}
	}
	return params, nil
}

type updateReservationRequest struct {
	RoomID     *string `json:"room_id"`
	Start      *string `json:"start"`
	End        *string `json:"end"`
	Title      *string `json:"title"`
	Note       *string `json:"note"`
	Color      *string `json:"color"`
	NewPIN     *string `json:"new_pin"`
	CurrentPIN *string `json:"current_pin"`
}

func (req updateReservationRequest) times() (*time.Time, *time.Time, error) {
	parse := func(raw *string) (*time.Time, error) {
		if raw == nil {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
		if err != nil {
			return nil, errInvalidTime
		}
		return &t, nil
	}
	start, err := parse(req.Start)
	if err != nil {
		return nil, nil, err
	}
	end, err := parse(req.End)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

type cancelReservationRequest struct {
	PIN   string `json:"pin"`
	Scope string `json:"scope"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type seriesResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type createReservationResponse struct {
	SeriesID     *string          `json:"series_id,omitempty"`
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	RoomID      string  `json:"room_id"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Title       string  `json:"title"`
	Note        string  `json:"note,omitempty"`
	Status      string  `json:"status"`
	SeriesID    *string `json:"series_id,omitempty"`
	Color       string  `json:"color"`
	LockedUntil *string `json:"locked_until,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toReservationDTO(r application.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:        r.ID,
		RoomID:    r.RoomID,
		Start:     r.Start.Format(time.RFC3339),
		End:       r.End.Format(time.RFC3339),
		Title:     r.Title,
		Note:      r.Note,
		Status:    string(r.Status),
		SeriesID:  r.SeriesID,
		Color:     r.Color,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.LockedUntil != nil {
		until := r.LockedUntil.UTC().Format(time.RFC3339)
		dto.LockedUntil = &until
	}
	return dto
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationDTO(r))
	}
	return out
}
