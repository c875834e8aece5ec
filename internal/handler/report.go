package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/irfanhabeeb-002/foodshare/internal/service"
)

// ReportHandler exposes community reporting. Filing is open to any
// authenticated user; Review and ListOpen sit behind the MODERATOR
// role in the router.
type ReportHandler struct {
	Reports *service.ReportService
}

func NewReportHandler(r *service.ReportService) *ReportHandler {
	if r == nil {
		panic("nil service passed to NewReportHandler")
	}
	return &ReportHandler{Reports: r}
}

type fileReportReq struct {
	PostID      *uint64 `json:"post_id"`
	UserID      *uint64 `json:"user_id"`
	Reason      string  `json:"reason"`
	Description string  `json:"description"`
}

type reviewReportReq struct {
	Status string `json:"status"` // REVIEWED | RESOLVED | DISMISSED
}

// File creates a report against a post or a user.
func (h *ReportHandler) File(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req fileReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	report, err := h.Reports.File(c.Request().Context(), uid, service.ReportInput{
		PostID:      req.PostID,
		UserID:      req.UserID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusCreated, report)
}

// Review moves a pending report to a terminal status and notifies the
// reporter.
func (h *ReportHandler) Review(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report id"})
	}
	var req reviewReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if err := h.Reports.Review(c.Request().Context(), id, status); err != nil {
		return writeServiceErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListOpen returns reports awaiting review.
func (h *ReportHandler) ListOpen(c echo.Context) error {
	reports, err := h.Reports.ListOpen(c.Request().Context())
	if err != nil {
		return writeServiceErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reports": reports})
}
