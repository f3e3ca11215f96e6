package handlers

import (
	"net/http"

	"github.com/gartstein/minicrm/internal/crm/auth"
	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gin-gonic/gin"
)

type loginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) Login(c *gin.Context) {
	fields, _, err := bindFields(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), fields)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{User: h.convert.user(user), Token: token})
}

func (h *Handler) Logout(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		h.abort(c, e.ErrUnauthenticated)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		h.abort(c, e.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, h.convert.user(user))
}
