package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ActorID   string    `json:"actor_id"`
}

// Login exchanges administrator credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindBody(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	token, expires, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, ActorID: req.Username})
}

// Logout revokes the bearer token used for this request.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
