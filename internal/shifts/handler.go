package shifts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shiftgate/shiftgate/internal/platform/httpx"
	"github.com/shiftgate/shiftgate/internal/shared"
)

// Handler manages shift scheduling endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountManagerRoutes registers scheduling routes; wrap with manager
// middleware.
func (h *Handler) MountManagerRoutes(r chi.Router) {
	r.Get("/", h.listForManager)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Post("/{id}/cancel", h.cancel)
	r.Delete("/{id}", h.delete)
}

// MountWorkerRoutes registers worker-facing queries; wrap with auth
// middleware.
func (h *Handler) MountWorkerRoutes(r chi.Router) {
	r.Get("/", h.listForWorker)
	r.Get("/current", h.current)
}

func (h *Handler) listForManager(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	list, err := h.service.ListForManager(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("list shifts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Shift{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) listForWorker(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	list, err := h.service.ListForWorker(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("list own shifts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Shift{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	shift, err := h.service.Current(r.Context(), id.UserID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("resolve current shift failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shift)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req CreateShiftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shift, err := h.service.Create(r.Context(), id.UserID, req)
	if err != nil {
		h.respondServiceError(w, "create shift", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, shift)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	shiftID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "shift id must be an integer")
		return
	}
	var req UpdateShiftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	shift, err := h.service.Update(r.Context(), id.UserID, shiftID, req)
	if err != nil {
		h.respondServiceError(w, "update shift", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shift)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	shiftID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "shift id must be an integer")
		return
	}
	shift, err := h.service.Cancel(r.Context(), id.UserID, shiftID)
	if err != nil {
		h.respondServiceError(w, "cancel shift", err)
		return
	}
	httpx.JSON(w, http.StatusOK, shift)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	shiftID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "shift id must be an integer")
		return
	}
	if err := h.service.Delete(r.Context(), id.UserID, shiftID); err != nil {
		h.respondServiceError(w, "delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotCancellable):
		httpx.Problem(w, http.StatusConflict, "Not Cancellable", "only scheduled or in-progress shifts can be cancelled")
	case errors.Is(err, ErrShiftHasEvents):
		httpx.Problem(w, http.StatusConflict, "Shift Has Events", "cannot delete a shift with recorded clock events")
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrForbidden):
		httpx.RespondError(w, httpx.ErrForbidden)
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
