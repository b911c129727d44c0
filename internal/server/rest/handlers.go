package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ministry/internal/common"
	"github.com/dmitrijs2005/ministry/internal/logging"
	"github.com/dmitrijs2005/ministry/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody        = "Invalid request body"
	msgEmailTaken         = "An account with this email already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgSessionExpired     = "Session expired, please sign in again"
	msgUnauthorized       = "Not authenticated"
	msgInternal           = "Internal server error"
)

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool                 `json:"success"`
	Token   string               `json:"token"`
	User    *services.PublicUser `json:"user,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type handler struct {
	sessions SessionAPI
	logger   logging.Logger
	cookie   CookieConfig
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.sessions.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err, msgInvalidCredentials)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken)
	c.JSON(http.StatusCreated, authResponse{Success: true, Token: res.AccessToken, User: &res.User})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, msgInvalidCredentials)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken)
	c.JSON(http.StatusOK, authResponse{Success: true, Token: res.AccessToken, User: &res.User})
}

// refresh rotates the cookie. Any failure clears it so a dead token is not
// presented again.
func (h *handler) refresh(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)

	res, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		h.writeError(c, err, msgSessionExpired)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken)
	c.JSON(http.StatusOK, authResponse{Success: true, Token: res.AccessToken})
}

func (h *handler) logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil {
		h.sessions.Logout(c.Request.Context(), token)
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handler) me(c *gin.Context) {
	user, err := h.sessions.Me(c.Request.Context(), AccessToken(c))
	if err != nil {
		h.writeError(c, err, msgUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// writeError maps the service error taxonomy onto HTTP status codes.
func (h *handler) writeError(c *gin.Context, err error, unauthorizedMsg string) {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, common.ErrConflict):
		fail(c, http.StatusConflict, msgEmailTaken)
	case errors.Is(err, common.ErrorUnauthorized):
		fail(c, http.StatusUnauthorized, unauthorizedMsg)
	default:
		if !errors.Is(err, common.ErrorInternal) && !errors.Is(err, context.Canceled) {
			h.logger.Error(c.Request.Context(), "unexpected error", "path", c.FullPath(), "error", err)
		}
		fail(c, http.StatusInternalServerError, msgInternal)
	}
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Success: false, Message: message})
}
