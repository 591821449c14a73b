package ginserver

import (
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/dto"
	RatesApp "peppertree/internal/app/handlers/rates"
	"peppertree/internal/app/queries"
)

type RateHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Quote prices a stay: ?check_in=2025-12-18&check_out=2025-12-22&guests=2.
func (h RateHandler) Quote(c *gin.Context) {
	checkIn, checkOut, ok := parseStayDates(c, c.Query("check_in"), c.Query("check_out"))
	if !ok {
		return
	}
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "2"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guests must be an integer"})
		return
	}
	q := RatesApp.QuoteStayQuery{CheckIn: checkIn, CheckOut: checkOut, Guests: guests}
	result, askErr := queries.Ask[RatesApp.QuoteStayQuery, dto.QuoteView](c.Request.Context(), h.Queries, q)
	if askErr != nil {
		respondError(c, askErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RateHandler) List(c *gin.Context) {
	q := RatesApp.ListRatesQuery{ActiveOnly: c.Query("active") == "true"}
	result, err := queries.Ask[RatesApp.ListRatesQuery, dto.RateRuleCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type createRateRequest struct {
	Type        string `json:"type"`
	Guests      int    `json:"guests"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	Description string `json:"description"`
}

func (h RateHandler) Create(c *gin.Context) {
	var req createRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := parseOptionalWindow(c, req.WindowStart, req.WindowEnd)
	if !ok {
		return
	}
	cmd := RatesApp.CreateRateCommand{
		RuleID:      uuid.NewString(),
		Type:        req.Type,
		Guests:      req.Guests,
		Amount:      req.Amount,
		Currency:    req.Currency,
		WindowStart: start,
		WindowEnd:   end,
		Description: req.Description,
		Actor:       actor(c),
	}
	result, err := commands.Dispatch[RatesApp.CreateRateCommand, dto.RateRuleView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateRateRequest struct {
	Amount      int64  `json:"amount"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	Description string `json:"description"`
}

func (h RateHandler) Update(c *gin.Context) {
	var req updateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := parseOptionalWindow(c, req.WindowStart, req.WindowEnd)
	if !ok {
		return
	}
	cmd := RatesApp.UpdateRateCommand{
		RuleID:      c.Param("id"),
		Amount:      req.Amount,
		WindowStart: start,
		WindowEnd:   end,
		Description: req.Description,
		Actor:       actor(c),
	}
	result, err := commands.Dispatch[RatesApp.UpdateRateCommand, dto.RateRuleView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RateHandler) Deactivate(c *gin.Context) {
	cmd := RatesApp.DeactivateRateCommand{RuleID: c.Param("id"), Actor: actor(c)}
	result, err := commands.Dispatch[RatesApp.DeactivateRateCommand, dto.RateRuleView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseOptionalWindow(c *gin.Context, start, end string) (time.Time, time.Time, bool) {
	var s, e time.Time
	var err error
	if start != "" {
		s, err = time.Parse("2006-01-02", start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_start must be YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
	}
	if end != "" {
		e, err = time.Parse("2006-01-02", end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_end must be YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
	}
	return s, e, true
}

var _ RateHTTP = RateHandler{}
