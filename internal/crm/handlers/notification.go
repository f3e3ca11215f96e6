package handlers

import (
	"net/http"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/notification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const notificationResource = "Notification"

type notificationList struct {
	ListResponse[notification.View]
	UnreadCount int64 `json:"unread_count"`
}

type readAllResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// ListNotifications returns the current user's notifications, newest first.
// unread=1 restricts the list to unread ones.
func (h *Handler) ListNotifications(c *gin.Context) {
	user := currentUser(c)
	unreadOnly := c.Query("unread") == "1" || c.Query("unread") == "true"

	page, err := h.notifications.List(c.Request.Context(), user, unreadOnly, h.pageRequest(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), user)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, notificationList{
		ListResponse: newList(page, "Notifications retrieved successfully", func(n models.Notification) notification.View {
			return notification.NewView(&n)
		}),
		UnreadCount: unread,
	})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.abort(c, e.NotFound(notificationResource))
		return
	}

	n, err := h.notifications.MarkRead(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, notification.NewView(n))
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, readAllResponse{Message: "Notifications marked as read", Updated: updated})
}

// NotificationSocket upgrades to a websocket that receives new notifications
// of the user identified by the token query parameter. Browsers cannot set
// headers on websocket requests.
func (h *Handler) NotificationSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.abort(c, e.ErrUnauthenticated)
		return
	}

	user, _, err := h.authenticator.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.abort(c, err)
		return
	}
	h.live.Serve(c.Writer, c.Request, user.ID)
}
