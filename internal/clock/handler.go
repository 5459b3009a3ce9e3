package clock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shiftgate/shiftgate/internal/geo"
	"github.com/shiftgate/shiftgate/internal/observability"
	"github.com/shiftgate/shiftgate/internal/platform/httpx"
	"github.com/shiftgate/shiftgate/internal/shared"
)

// Handler manages clock endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers clock routes; wrap with auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/in", h.clockIn)
	r.Post("/out", h.clockOut)
	r.Get("/perimeter", h.checkPerimeter)
	r.Get("/status", h.status)
	r.Get("/history", h.history)
}

func (h *Handler) clockIn(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, "in", h.service.ClockIn)
}

func (h *Handler) clockOut(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, "out", h.service.ClockOut)
}

type clockOp func(ctx context.Context, userID, managerID int64, req ClockRequest, now time.Time) (*ClockResult, error)

func (h *Handler) clock(w http.ResponseWriter, r *http.Request, direction string, op clockOp) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req ClockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := op(r.Context(), id.UserID, id.ManagerID, req, time.Now().UTC())
	if err != nil {
		h.metrics.ObserveClockAttempt(direction, outcomeOf(err))
		h.respondClockError(w, direction, err)
		return
	}
	h.metrics.ObserveClockAttempt(direction, "ok")
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) checkPerimeter(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	pos, err := parsePosition(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "lat and lng query parameters are required numbers")
		return
	}
	managerID := id.ManagerID
	if id.IsManager() {
		managerID = id.UserID
	}
	check, err := h.service.CheckPerimeter(r.Context(), managerID, pos)
	if err != nil {
		h.respondClockError(w, "perimeter", err)
		return
	}
	httpx.JSON(w, http.StatusOK, check)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	status, err := h.service.Status(r.Context(), id.UserID, time.Now().UTC())
	if err != nil {
		h.logger.Error("clock status failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.service.History(r.Context(), id.UserID, limit)
	if err != nil {
		h.logger.Error("clock history failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if events == nil {
		events = []ClockEvent{}
	}
	httpx.JSON(w, http.StatusOK, events)
}

func (h *Handler) respondClockError(w http.ResponseWriter, direction string, err error) {
	var invalid *geo.InvalidCoordinateError
	var business BusinessError
	switch {
	case errors.As(err, &invalid):
		httpx.ProblemFull(w, httpx.ProblemDetail{
			Title:  "Invalid Coordinate",
			Status: http.StatusBadRequest,
			Detail: invalid.Error(),
			Kind:   "InvalidCoordinate",
			Meta:   map[string]any{"lat": invalid.Lat, "lng": invalid.Lng},
		})
	case errors.As(err, &business):
		httpx.ProblemFull(w, problemFor(business))
	default:
		h.logger.Error("clock "+direction+" failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func problemFor(err BusinessError) httpx.ProblemDetail {
	p := httpx.ProblemDetail{Kind: err.Kind(), Detail: err.Error()}
	switch e := err.(type) {
	case *NoActiveShiftError:
		p.Title = "No Active Shift"
		p.Status = http.StatusNotFound
		p.Meta = map[string]any{"user_id": e.UserID}
	case *AlreadyClockedInError:
		p.Title = "Already Clocked In"
		p.Status = http.StatusConflict
		if e.ShiftID != 0 {
			p.Meta = map[string]any{"shift_id": e.ShiftID}
		}
	case *AlreadyClockedOutError:
		p.Title = "Already Clocked Out"
		p.Status = http.StatusConflict
		if e.ShiftID != 0 {
			p.Meta = map[string]any{"shift_id": e.ShiftID}
		}
	case *OutsidePerimeterError:
		p.Title = "Outside Perimeter"
		p.Status = http.StatusUnprocessableEntity
		meta := map[string]any{}
		if e.NearestLocationID != 0 {
			meta["nearest_location_id"] = e.NearestLocationID
		}
		if e.DistanceMeters != nil {
			meta["distance_meters"] = *e.DistanceMeters
		}
		if len(meta) > 0 {
			p.Meta = meta
		}
	default:
		p.Title = "Clock Rejected"
		p.Status = http.StatusConflict
	}
	return p
}

func outcomeOf(err error) string {
	var business BusinessError
	if errors.As(err, &business) {
		return business.Kind()
	}
	var invalid *geo.InvalidCoordinateError
	if errors.As(err, &invalid) {
		return "InvalidCoordinate"
	}
	return "error"
}

func parsePosition(r *http.Request) (geo.Point, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}
