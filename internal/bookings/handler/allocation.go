package handler

import (
	"encoding/json"
	"net/http"

	"carwash/internal/bookings/service"
	apperrors "carwash/pkg/errors"
	httputil "carwash/pkg/http"
	"carwash/pkg/logger"
	"carwash/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AllocationHandler struct {
	service service.AllocationService
	log     *logger.Logger
}

func NewAllocationHandler(service service.AllocationService, log *logger.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: service,
		log:     log,
	}
}

func (h *AllocationHandler) GetAssignments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAssignments", err)
		return
	}

	assignments, total, err := h.service.GetAssignments(r.Context(), ps.ByName("id"), limit, offset)
	if err != nil {
		h.writeError(w, "GetAssignments", err)
		return
	}

	if err := httputil.WritePaginated(w, assignments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAssignments", "operation", "WritePaginated", "error", err)
	}
}

func (h *AllocationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.AllocationStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "UpdateStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AllocationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AllocationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/professionals/:id/assignments", h.GetAssignments)
	router.PATCH("/api/v1/allocations/id/:id", h.UpdateStatus)
}
