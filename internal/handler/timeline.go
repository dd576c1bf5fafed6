package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chirper/internal/httputil"
	"chirper/internal/model"
	"chirper/internal/service"
	"chirper/internal/transport/http/middleware"
)

type TimelineHandler struct {
	timeline *service.TimelineService
}

func NewTimelineHandler(timeline *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{timeline: timeline}
}

// GetTimeline handles GET /api/v1/users/{userId}/timeline. Timelines are
// private: a caller may read only their own.
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, err := model.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeUserIDInvalidFormat, err.Error(), requestID)
		return
	}
	if userID != middleware.GetUserID(r.Context()) {
		httputil.WriteError(w, http.StatusForbidden, httputil.CodeForbidden,
			"cannot read another user's timeline", requestID)
		return
	}

	page, err := h.timeline.GetTimeline(r.Context(), userID, r.URL.Query().Get("cursor"), queryLimit(r))
	if err != nil {
		log.Printf("[TimelineHandler] GetTimeline FAILED: user=%s err=%v", userID, err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}
