package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/service"
)

// PostHandler exposes food posts and the claim endpoints backed by the
// reservation engine.
type PostHandler struct {
	Reservations *service.ReservationService
}

func NewPostHandler(r *service.ReservationService) *PostHandler {
	if r == nil {
		panic("nil service passed to NewPostHandler")
	}
	return &PostHandler{Reservations: r}
}

type createPostReq struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PlaceName      string   `json:"place_name"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	TotalCount     uint32   `json:"total_count"`
	GroupID        *uint64  `json:"group_id"`
	AvailableUntil string   `json:"available_until"` // RFC 3339
}

// Create publishes a new food post.
func (h *PostHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	until, err := time.Parse(time.RFC3339, req.AvailableUntil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "available_until must be RFC 3339"})
	}

	post, err := h.Reservations.CreatePost(c.Request().Context(), uid, service.PostInput{
		Title:          req.Title,
		Description:    req.Description,
		PlaceName:      req.PlaceName,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		TotalCount:     req.TotalCount,
		GroupID:        req.GroupID,
		AvailableUntil: until,
	})
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// Get returns one post by id.
func (h *PostHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	post, err := h.Reservations.GetPost(c.Request().Context(), id)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// ListClaimable returns the posts the caller may claim right now.
func (h *PostHandler) ListClaimable(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	posts, err := h.Reservations.ListClaimable(c.Request().Context(), uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// ListMine returns the caller's own posts, active or not.
func (h *PostHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	posts, err := h.Reservations.ListMine(c.Request().Context(), uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}

// Deactivate closes a post early. Owner only.
func (h *PostHandler) Deactivate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	if err := h.Reservations.Deactivate(c.Request().Context(), id, uid); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Claim reserves one portion of the post for the caller.
func (h *PostHandler) Claim(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	claim, err := h.Reservations.Claim(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusCreated, claim)
}

// Retract releases the caller's claim and restores the portion.
func (h *PostHandler) Retract(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid post id"})
	}
	if err := h.Reservations.Retract(c.Request().Context(), id, uid); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyClaims lists the caller's claims, newest first.
func (h *PostHandler) MyClaims(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	claims, err := h.Reservations.ListMyClaims(c.Request().Context(), uid)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"claims": claims})
}
