package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chirper/internal/httputil"
	"chirper/internal/model"
	"chirper/internal/service"
	"chirper/internal/transport/http/middleware"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Content string `json:"content"`
}

// Create handles POST /api/v1/posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeContentEmpty,
			"request body must be JSON with a content field", requestID)
		return
	}

	post, err := h.posts.Create(r.Context(), callerID, req.Content, requestID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrContentEmpty):
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeContentEmpty, err.Error(), requestID)
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeContentTooLong, err.Error(), requestID)
		default:
			log.Printf("[PostHandler] Create FAILED: author=%s err=%v", callerID, err)
			httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetUserPosts handles GET /api/v1/users/{userId}/posts.
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	authorID, err := model.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeUserIDInvalidFormat, err.Error(), requestID)
		return
	}

	page, err := h.posts.GetUserPosts(r.Context(), authorID, r.URL.Query().Get("cursor"), queryLimit(r))
	if err != nil {
		log.Printf("[PostHandler] GetUserPosts FAILED: author=%s err=%v", authorID, err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// queryLimit parses the limit query parameter; 0 lets the service apply its
// default.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
