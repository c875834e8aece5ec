package router

import (
	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/handler"
	"github.com/irfanhabeeb-002/foodshare/internal/middleware"
)

// API bundles the handlers mounted under the authenticated /v1 group.
type API struct {
	Posts         *handler.PostHandler
	Groups        *handler.GroupHandler
	Notes         *handler.NotificationHandler
	Nearby        *handler.NearbyHandler
	Reports       *handler.ReportHandler
	RateLimit     echo.MiddlewareFunc
	ResponseCache echo.MiddlewareFunc
}

// RegisterAPI mounts the coordination endpoints. Everything requires a
// valid JWT. Feed reads additionally pass through the response cache;
// the rate limiter wraps the whole group.
func RegisterAPI(e *echo.Echo, api API, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		api.RateLimit,
	)

	// ---- Food posts and claims ----
	g.POST("/posts", api.Posts.Create)
	g.GET("/posts", api.Posts.ListClaimable, api.ResponseCache)
	g.GET("/posts/mine", api.Posts.ListMine)
	g.GET("/posts/:id", api.Posts.Get)
	g.DELETE("/posts/:id", api.Posts.Deactivate)
	g.POST("/posts/:id/claim", api.Posts.Claim)
	g.DELETE("/posts/:id/claim", api.Posts.Retract)
	g.GET("/claims", api.Posts.MyClaims)

	// ---- Proximity search ----
	g.GET("/posts/nearby", api.Nearby.Nearby, api.ResponseCache)

	// ---- Groups and membership ----
	g.POST("/groups", api.Groups.Create)
	g.GET("/groups", api.Groups.List, api.ResponseCache)
	g.GET("/groups/:id", api.Groups.Get)
	g.DELETE("/groups/:id", api.Groups.Delete)
	g.POST("/groups/:id/join", api.Groups.RequestJoin)
	g.GET("/groups/:id/members", api.Groups.ListMembers)
	g.GET("/groups/:id/requests", api.Groups.ListPending)
	g.POST("/groups/:id/requests/:user_id/approve", api.Groups.Approve)
	g.POST("/groups/:id/requests/:user_id/reject", api.Groups.Reject)
	g.DELETE("/groups/:id/members/:user_id", api.Groups.RemoveMember)
	g.GET("/join-requests", api.Groups.MyRequests)

	// ---- Notifications ----
	g.GET("/notifications", api.Notes.List)
	g.GET("/notifications/unread-count", api.Notes.UnreadCount)
	g.POST("/notifications/:id/read", api.Notes.MarkRead)

	// ---- Reports ----
	g.POST("/reports", api.Reports.File)
	mod := g.Group("", middleware.RequireRole("MODERATOR"))
	mod.GET("/reports", api.Reports.ListOpen)
	mod.POST("/reports/:id/review", api.Reports.Review)
}
