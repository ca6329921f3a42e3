package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/policy"
)

type gridService interface {
	ListForWindow(ctx context.Context, params application.ListWindowParams) (application.Grid, error)
	Policy() policy.Policy
}

// GridHandler serves the public and office day grids.
type GridHandler struct {
	service   gridService
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewGridHandler(service gridService, now func() time.Time, logger *slog.Logger) *GridHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &GridHandler{service: service, responder: newResponder(base), logger: base, now: now}
}

// Public renders the grid without internal notes or series ids.
func (h *GridHandler) Public(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, application.ProjectionPublic)
}

// Office renders the grid with internal notes and series ids.
func (h *GridHandler) Office(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, application.ProjectionOffice)
}

func (h *GridHandler) render(w http.ResponseWriter, r *http.Request, projection application.Projection) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "GridHandler", string(projection))

	from, to, err := h.parseRange(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	grid, err := h.service.ListForWindow(r.Context(), application.ListWindowParams{From: from, To: to, Projection: projection})
	if err != nil {
		logger.WarnContext(r.Context(), "grid listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGridDTO(grid))
}

func (h *GridHandler) parseRange(r *http.Request) (policy.Date, policy.Date, error) {
	query := r.URL.Query()
	from := h.service.Policy().LocalDate(h.now())
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		d, err := policy.ParseDate(raw)
		if err != nil {
			return policy.Date{}, policy.Date{}, err
		}
		from = d
	}
	to := from
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		d, err := policy.ParseDate(raw)
		if err != nil {
			return policy.Date{}, policy.Date{}, err
		}
		to = d
	}
	return from, to, nil
}

type gridDTO struct {
	From         string               `json:"from"`
	To           string               `json:"to"`
	Projection   string               `json:"projection"`
	Open         string               `json:"open"`
	Close        string               `json:"close"`
	SlotMinutes  int                  `json:"slot_minutes"`
	Slots        []string             `json:"slots"`
	Rooms        []gridRoomDTO        `json:"rooms"`
	Reservations []gridReservationDTO `json:"reservations"`
	Blocks       []gridBlockDTO       `json:"blocks"`
}

type gridRoomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	SortOrder int    `json:"sort_order"`
}

type gridReservationDTO struct {
	ID       string  `json:"id"`
	RoomID   string  `json:"room_id"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Title    string  `json:"title"`
	Color    string  `json:"color"`
	Note     string  `json:"note,omitempty"`
	SeriesID *string `json:"series_id,omitempty"`
}

type gridBlockDTO struct {
	ID     string  `json:"id"`
	RoomID *string `json:"room_id"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Reason string  `json:"reason,omitempty"`
}

func toGridDTO(g application.Grid) gridDTO {
	dto := gridDTO{
		From:         g.From.String(),
		To:           g.To.String(),
		Projection:   string(g.Projection),
		Open:         g.Open,
		Close:        g.Close,
		SlotMinutes:  g.SlotMinutes,
		Slots:        g.Slots,
		Rooms:        make([]gridRoomDTO, 0, len(g.Rooms)),
		Reservations: make([]gridReservationDTO, 0, len(g.Reservations)),
		Blocks:       make([]gridBlockDTO, 0, len(g.Blocks)),
	}
	for _, room := range g.Rooms {
		dto.Rooms = append(dto.Rooms, gridRoomDTO{ID: room.ID, Name: room.Name, Location: room.Location, SortOrder: room.SortOrder})
	}
	for _, res := range g.Reservations {
		dto.Reservations = append(dto.Reservations, gridReservationDTO{
			ID:       res.ID,
			RoomID:   res.RoomID,
			Start:    res.Start.Format(time.RFC3339),
			End:      res.End.Format(time.RFC3339),
			Title:    res.Title,
			Color:    res.Color,
			Note:     res.Note,
			SeriesID: res.SeriesID,
		})
	}
	for _, b := range g.Blocks {
		dto.Blocks = append(dto.Blocks, gridBlockDTO{
			ID:     b.ID,
			RoomID: b.RoomID,
			Start:  b.Start.Format(time.RFC3339),
			End:    b.End.Format(time.RFC3339),
			Reason: b.Reason,
		})
	}
	return dto
}
