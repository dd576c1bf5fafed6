package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chirper/internal/httputil"
	"chirper/internal/model"
	"chirper/internal/service"
	"chirper/internal/transport/http/middleware"
)

// FollowService is the slice of the follow service the handler calls.
type FollowService interface {
	Follow(ctx context.Context, followerID, followeeID uuid.UUID, requestID string) error
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID, requestID string) error
	GetFollowing(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.Page[model.FollowedUser], error)
	GetFollowers(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.Page[model.FollowedUser], error)
}

type FollowHandler struct {
	follows FollowService
}

func NewFollowHandler(follows FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// pathUserPair parses {userId} and {targetId} and enforces that {userId} is
// the caller: users mutate only their own follow list.
func pathUserPair(w http.ResponseWriter, r *http.Request) (userID, targetID uuid.UUID, ok bool) {
	requestID := middleware.GetRequestID(r.Context())

	userID, err := model.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeUserIDInvalidFormat, err.Error(), requestID)
		return uuid.Nil, uuid.Nil, false
	}
	targetID, err = model.ParseUserID(chi.URLParam(r, "targetId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeUserIDInvalidFormat, err.Error(), requestID)
		return uuid.Nil, uuid.Nil, false
	}
	if userID != middleware.GetUserID(r.Context()) {
		httputil.WriteError(w, http.StatusForbidden, httputil.CodeForbidden,
			"cannot modify another user's follow list", requestID)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, targetID, true
}

// Follow handles POST /api/v1/users/{userId}/follow/{targetId}.
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, targetID, ok := pathUserPair(w, r)
	if !ok {
		return
	}

	if err := h.follows.Follow(r.Context(), userID, targetID, requestID); err != nil {
		switch {
		case errors.Is(err, model.ErrSelfFollow):
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeSelfFollow, err.Error(), requestID)
		case errors.Is(err, model.ErrAlreadyFollowing):
			httputil.WriteError(w, http.StatusConflict, httputil.CodeAlreadyFollowing, err.Error(), requestID)
		default:
			log.Printf("[FollowHandler] Follow FAILED: follower=%s followee=%s err=%v", userID, targetID, err)
			httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{
		"followerId": userID.String(),
		"followeeId": targetID.String(),
	})
}

// Unfollow handles DELETE /api/v1/users/{userId}/follow/{targetId}.
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, targetID, ok := pathUserPair(w, r)
	if !ok {
		return
	}

	if err := h.follows.Unfollow(r.Context(), userID, targetID, requestID); err != nil {
		switch {
		case errors.Is(err, model.ErrSelfFollow):
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeSelfFollow, err.Error(), requestID)
		case errors.Is(err, model.ErrNotFollowing):
			httputil.WriteError(w, http.StatusConflict, httputil.CodeNotFollowing, err.Error(), requestID)
		default:
			log.Printf("[FollowHandler] Unfollow FAILED: follower=%s followee=%s err=%v", userID, targetID, err)
			httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"followerId": userID.String(),
		"followeeId": targetID.String(),
	})
}

// GetFollowing handles GET /api/v1/users/{userId}/following.
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.follows.GetFollowing)
}

// GetFollowers handles GET /api/v1/users/{userId}/followers.
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.follows.GetFollowers)
}

func (h *FollowHandler) list(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.Page[model.FollowedUser], error)) {
	requestID := middleware.GetRequestID(r.Context())

	userID, err := model.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, httputil.CodeUserIDInvalidFormat, err.Error(), requestID)
		return
	}

	page, err := fetch(r.Context(), userID, r.URL.Query().Get("cursor"), queryLimit(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCursor) {
			httputil.WriteError(w, http.StatusBadRequest, httputil.CodeInvalidCursor, err.Error(), requestID)
			return
		}
		log.Printf("[FollowHandler] list FAILED: user=%s err=%v", userID, err)
		httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError, "internal error", requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}
