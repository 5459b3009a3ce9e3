package analytics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shiftgate/shiftgate/internal/platform/httpx"
	"github.com/shiftgate/shiftgate/internal/shared"
)

// Handler manages manager-facing dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes. Callers must wrap them with the
// manager-role middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.dashboard)
	r.Get("/clocked-in", h.clockedIn)
	r.Get("/export.csv", h.exportCSV)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	dash, err := h.service.Dashboard(r.Context(), id.UserID, time.Now().UTC())
	if err != nil {
		h.logger.Error("load dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) clockedIn(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	entries, err := h.service.ClockedIn(r.Context(), id.UserID, time.Now().UTC())
	if err != nil {
		h.logger.Error("load clocked-in board failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []ClockedInEntry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	dash, err := h.service.Dashboard(r.Context(), id.UserID, time.Now().UTC())
	if err != nil {
		h.logger.Error("export dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dashboard.csv"`)
	if err := WriteDashboardCSV(w, dash); err != nil {
		h.logger.Error("write dashboard csv failed", slog.Any("error", err))
	}
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.logger.Error("invalidate dashboard cache failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
