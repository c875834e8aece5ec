package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/service"
)

// NotificationHandler exposes the caller's notification inbox.
type NotificationHandler struct {
	Notifier *service.Notifier
}

func NewNotificationHandler(n *service.Notifier) *NotificationHandler {
	if n == nil {
		panic("nil service passed to NewNotificationHandler")
	}
	return &NotificationHandler{Notifier: n}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Notifier.ListNotifications(c.Request().Context(), uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items})
}

// MarkRead marks one notification as read. Recipient only.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}
	if err := h.Notifier.MarkRead(c.Request().Context(), id, uid); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCount returns the caller's unread badge count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Notifier.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}
