package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/service"
)

// defaultRadiusKm applies when the nearby query omits radius_km.
const defaultRadiusKm = 5.0

// NearbyHandler exposes proximity search over located posts.
type NearbyHandler struct {
	Proximity *service.ProximityService
}

func NewNearbyHandler(p *service.ProximityService) *NearbyHandler {
	if p == nil {
		panic("nil service passed to NewNearbyHandler")
	}
	return &NearbyHandler{Proximity: p}
}

// Nearby returns claimable posts within radius_km of (lat, lng),
// nearest first.
func (h *NearbyHandler) Nearby(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat must be in [-90, 90]"})
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lng must be in [-180, 180]"})
	}
	radius := defaultRadiusKm
	if raw := c.QueryParam("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "radius_km must be positive"})
		}
	}

	posts, err := h.Proximity.Nearby(c.Request().Context(), uid, lat, lng, radius)
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"posts": posts})
}
