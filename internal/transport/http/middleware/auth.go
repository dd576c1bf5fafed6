package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"chirper/internal/httputil"
	"chirper/internal/model"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	requestIDKey contextKey = "requestID"
)

// HeaderUserID carries the caller's identity. The gateway in front of this
// service is trusted to have authenticated it.
const HeaderUserID = "X-User-Id"

// HeaderRequestID is accepted from the client for tracing, or minted here.
const HeaderRequestID = "X-Request-Id"

// RequestID attaches a request id to the context and echoes it on the
// response. A client-supplied id is taken as-is; otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserUpserter is the slice of the user store identity resolution needs.
type UserUpserter interface {
	Upsert(ctx context.Context, userID uuid.UUID) error
}

// Identity resolves the caller from X-User-Id and upserts the user row, so
// any id that ever calls the API exists in the store. Requests without the
// header are unauthorized; requests with a malformed id are bad requests.
func Identity(users UserUpserter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			raw := r.Header.Get(HeaderUserID)
			if raw == "" {
				httputil.WriteError(w, http.StatusUnauthorized, httputil.CodeUnauthorized,
					"missing "+HeaderUserID+" header", requestID)
				return
			}

			userID, err := model.ParseUserID(raw)
			if err != nil {
				code := httputil.CodeUserIDInvalidFormat
				if errors.Is(err, model.ErrUserIDEmpty) {
					code = httputil.CodeUserIDEmpty
				}
				httputil.WriteError(w, http.StatusBadRequest, code, err.Error(), requestID)
				return
			}

			if err := users.Upsert(r.Context(), userID); err != nil {
				log.Printf("[Identity] Upsert FAILED: user=%s err=%v", userID, err)
				httputil.WriteError(w, http.StatusInternalServerError, httputil.CodeInternalError,
					"internal error", requestID)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated caller, or uuid.Nil outside the
// Identity middleware.
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetRequestID returns the request id, or "" outside the RequestID
// middleware.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
