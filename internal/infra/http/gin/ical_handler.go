package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/dto"
	CalendarApp "peppertree/internal/app/handlers/calendar"
	"peppertree/internal/app/queries"
)

type CalendarHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	BaseURL  string
}

// Export serves the outbound feed. Consumers poll this URL, so the body is
// deterministic for unchanged bookings.
func (h CalendarHandler) Export(c *gin.Context) {
	result, err := queries.Ask[CalendarApp.ExportFeedQuery, *CalendarApp.ExportFeedResult](c.Request.Context(), h.Queries, CalendarApp.ExportFeedQuery{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="bookings.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", result.Body)
}

type importRequest struct {
	FeedURL  string `json:"feed_url"`
	Platform string `json:"platform"`
}

func (h CalendarHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FeedURL == "" || req.Platform == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feed_url and platform are required"})
		return
	}
	cmd := CalendarApp.ImportFeedCommand{
		CommandID:       uuid.NewString(),
		FeedURL:         req.FeedURL,
		Platform:        req.Platform,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[CalendarApp.ImportFeedCommand, *dto.ImportReport](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Info(c *gin.Context) {
	q := CalendarApp.FeedInfoQuery{BaseURL: h.BaseURL}
	result, err := queries.Ask[CalendarApp.FeedInfoQuery, dto.FeedInfo](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
