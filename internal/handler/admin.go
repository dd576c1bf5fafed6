package handler

import (
	"log"
	"net/http"

	"chirper/internal/httputil"
	"chirper/internal/service"
	"chirper/internal/transport/http/middleware"
)

type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Stats handles GET /api/v1/demo/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Stats FAILED: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entities": stats,
		"counters": h.admin.Counters(),
	})
}

// Reset handles POST /api/v1/demo/reset.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	result, err := h.admin.Reset(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Reset FAILED: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
