// Package handler is the HTTP surface of the complaint desk: public
// submission endpoints, the administrator API and the live event socket.
package handler

import (
	"context"
	"errors"
	"net/http"

	"complaintdesk/backend/internal/attachments"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/livehub"
	"complaintdesk/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker reports the state of backing services.
type HealthChecker interface {
	Health(ctx context.Context) (map[string]storage.ComponentStatus, bool)
}

// Handler holds the services behind every route. Uploader, Hub and
// HealthChecker are optional; their routes answer 503 when unset.
type Handler struct {
	Complaints     *complaint.Service
	Auth           *auth.Service
	Storage        storage.Storage
	Uploader       *attachments.Uploader
	Hub            *livehub.ManagerService
	HealthChecker  HealthChecker
	AllowedOrigins []string

	log *zap.Logger
}

func NewHandler(complaints *complaint.Service, authSvc *auth.Service, store storage.Storage, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Complaints: complaints,
		Auth:       authSvc,
		Storage:    store,
		log:        log.Named("http"),
	}
}

func session(c *gin.Context) auth.Session {
	return auth.FromContext(c.Request.Context())
}

// fail writes the HTTP form of err and aborts the chain.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *complaint.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, errBadRequest),
		errors.Is(err, attachments.ErrEmptyFile),
		errors.Is(err, attachments.ErrUnsupportedType):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, attachments.ErrFileTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, complaint.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, complaint.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, complaint.ErrInvalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, complaint.ErrConflict), errors.Is(err, storage.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "conflict": true})
	case errors.Is(err, complaint.ErrHistoryWrite):
		h.log.Error("change saved without complete history", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "change saved but its history is incomplete"})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return errBadRequest }

func unavailable(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not configured"})
}
