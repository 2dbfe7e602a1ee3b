// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
	"github.com/Shivanand-hulikatti/library-lending/internal/service"
)

// ReservationHandler holds all HTTP handlers for the lending API.
type ReservationHandler struct {
	svc      *service.ReservationService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, validate: validator.New(), logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, model.Envelope{Status: "success", Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.Envelope{Status: "error", Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bind decodes and validates a request body, writing a 400 on failure.
func (h *ReservationHandler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return false
	}
	return true
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) (int, *model.Error) {
	var de *model.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, nil
	}
	if errors.Is(err, model.ErrUserBlacklisted) {
		return http.StatusForbidden, de
	}
	switch de.Kind {
	case model.KindValidation:
		return http.StatusBadRequest, de
	case model.KindPolicy:
		return http.StatusUnprocessableEntity, de
	case model.KindContention, model.KindConflict:
		return http.StatusConflict, de
	case model.KindNotFound:
		return http.StatusNotFound, de
	case model.KindOwnership:
		return http.StatusForbidden, de
	default:
		return http.StatusInternalServerError, nil
	}
}

func (h *ReservationHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, de := statusFor(err)
	if de == nil {
		h.logger.Error(op+" failed",
			zap.String("path", r.URL.Path),
			zap.String("user_id", UserID(r.Context())),
			zap.Error(err),
		)
		writeError(w, status, "INTERNAL", "internal server error")
		return
	}
	h.logger.Info(op+" rejected",
		zap.String("code", de.Code),
		zap.String("user_id", UserID(r.Context())),
		zap.Error(err),
	)
	writeError(w, status, de.Code, err.Error())
}

// ─── Member handlers ──────────────────────────────────────────────────────────

// Reserve handles POST /user/books/{id}/reserve
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req model.ReserveRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.svc.Reserve(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.ReservationDays)
	if err != nil {
		h.fail(w, r, "reserve", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "book reserved", res)
}

// MyReservations handles GET /reservations/my-reservations
// Returns every reservation of the caller, newest first.
func (h *ReservationHandler) MyReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListMine(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "list reservations", err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if list == nil {
		list = []model.Reservation{}
	}
	writeSuccess(w, http.StatusOK, "", list)
}

// Renew handles POST /reservations/{id}/renew
func (h *ReservationHandler) Renew(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Renew(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "renew", err)
		return
	}
	writeSuccess(w, http.StatusOK, "reservation renewed", res)
}

// Cancel handles DELETE /reservations/{id}
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Cancel(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "cancel", err)
		return
	}
	writeSuccess(w, http.StatusOK, "reservation cancelled", res)
}

// Return handles POST /reservations/{id}/return
func (h *ReservationHandler) Return(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Return(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "return", err)
		return
	}
	writeSuccess(w, http.StatusOK, "book returned", res)
}

// DashboardStats handles GET /user/dashboard/stats
func (h *ReservationHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context(), UserID(r.Context()))
	if err != nil {
		h.fail(w, r, "dashboard stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", stats)
}

// Availability handles GET /books/{id}/availability
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	book, err := h.svc.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "availability", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", book)
}

// ─── Librarian handlers ───────────────────────────────────────────────────────

// AdjustInventory handles PUT /librarian/books/{id}/inventory
func (h *ReservationHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req model.InventoryRequest
	if !h.bind(w, r, &req) {
		return
	}

	book, err := h.svc.AdjustInventory(r.Context(), chi.URLParam(r, "id"), req.TotalCopies)
	if err != nil {
		h.fail(w, r, "adjust inventory", err)
		return
	}
	writeSuccess(w, http.StatusOK, "inventory updated", book)
}

// SetMaintenance handles PUT /librarian/books/{id}/maintenance
func (h *ReservationHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req model.MaintenanceRequest
	if !h.bind(w, r, &req) {
		return
	}

	book, err := h.svc.SetMaintenance(r.Context(), chi.URLParam(r, "id"), *req.Maintenance)
	if err != nil {
		h.fail(w, r, "set maintenance", err)
		return
	}
	writeSuccess(w, http.StatusOK, "maintenance updated", book)
}

// ReturnAtDesk handles POST /librarian/reservations/{id}/return
func (h *ReservationHandler) ReturnAtDesk(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ReturnAsLibrarian(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "librarian return", err)
		return
	}
	writeSuccess(w, http.StatusOK, "book returned", res)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
