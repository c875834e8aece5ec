package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/service"
)

// GroupHandler exposes groups and the join-request workflow.
type GroupHandler struct {
	Memberships *service.MembershipService
}

func NewGroupHandler(m *service.MembershipService) *GroupHandler {
	if m == nil {
		panic("nil service passed to NewGroupHandler")
	}
	return &GroupHandler{Memberships: m}
}

type createGroupReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Visibility  string  `json:"visibility"`
	MemberLimit *uint32 `json:"member_limit"`
}

type joinReq struct {
	Message string `json:"message"`
}

// Create makes a new group with the caller as admin.
func (h *GroupHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createGroupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	group, err := h.Memberships.CreateGroup(c.Request().Context(), uid, service.GroupInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		MemberLimit: req.MemberLimit,
	})
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusCreated, group)
}

// Get returns one group.
func (h *GroupHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	group, err := h.Memberships.GetGroup(c.Request().Context(), id)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, group)
}

// List returns all groups.
func (h *GroupHandler) List(c echo.Context) error {
	groups, err := h.Memberships.ListGroups(c.Request().Context())
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"groups": groups})
}

// Delete removes a group and its memberships. Admin only.
func (h *GroupHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	if err := h.Memberships.DeleteGroup(c.Request().Context(), id, uid); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestJoin files a join request for the caller.
func (h *GroupHandler) RequestJoin(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	var req joinReq
	_ = c.Bind(&req) // message is optional
	jr, err := h.Memberships.RequestJoin(c.Request().Context(), id, uid, req.Message)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusCreated, jr)
}

// Approve admits a requester as member. Admin only.
func (h *GroupHandler) Approve(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	userID, err := paramID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.Memberships.Approve(c.Request().Context(), groupID, userID, actor); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reject declines a join request. Admin only.
func (h *GroupHandler) Reject(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	userID, err := paramID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.Memberships.Reject(c.Request().Context(), groupID, userID, actor); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveMember removes a member. The admin may remove anyone but
// themselves; a member may remove only themselves.
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	userID, err := paramID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if err := h.Memberships.Remove(c.Request().Context(), groupID, userID, actor); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMembers lists approved members of a group. Admin only.
func (h *GroupHandler) ListMembers(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	members, err := h.Memberships.ListMembers(c.Request().Context(), groupID, actor)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"members": members})
}

// ListPending lists a group's pending join requests. Admin only.
func (h *GroupHandler) ListPending(c echo.Context) error {
	actor, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	groupID, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid group id"})
	}
	requests, err := h.Memberships.ListPendingRequests(c.Request().Context(), groupID, actor)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}

// MyRequests lists the caller's join requests across groups.
func (h *GroupHandler) MyRequests(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requests, err := h.Memberships.ListMyRequests(c.Request().Context(), uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": requests})
}
