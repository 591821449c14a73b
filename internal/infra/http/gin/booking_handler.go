package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peppertree/internal/app/commands"
	"peppertree/internal/app/dto"
	BookingApp "peppertree/internal/app/handlers/booking"
	"peppertree/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestPhone      string `json:"guest_phone"`
	SpecialRequests string `json:"special_requests"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, checkOut, ok := parseStayDates(c, req.CheckIn, req.CheckOut)
	if !ok {
		return
	}
	cmd := BookingApp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[BookingApp.RequestBookingCommand, *BookingApp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h BookingHandler) List(c *gin.Context) {
	q := BookingApp.ListBookingsQuery{
		Status: c.Query("status"),
		Source: c.Query("source"),
	}
	result, err := queries.Ask[BookingApp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	q := BookingApp.GetBookingQuery{BookingID: c.Param("id")}
	result, err := queries.Ask[BookingApp.GetBookingQuery, dto.BookingSummary](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Approve(c *gin.Context) {
	cmd := BookingApp.ApproveBookingCommand{BookingID: c.Param("id"), Actor: actor(c)}
	h.decide(c, cmd)
}

func (h BookingHandler) Reject(c *gin.Context) {
	var req decisionRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.RejectBookingCommand{BookingID: c.Param("id"), Reason: req.Reason, Actor: actor(c)}
	h.decide(c, cmd)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req decisionRequest
	_ = c.ShouldBindJSON(&req)
	cmd := BookingApp.CancelBookingCommand{BookingID: c.Param("id"), Reason: req.Reason, Actor: actor(c)}
	h.decide(c, cmd)
}

func (h BookingHandler) Complete(c *gin.Context) {
	cmd := BookingApp.CompleteBookingCommand{BookingID: c.Param("id"), Actor: actor(c)}
	h.decide(c, cmd)
}

func (h BookingHandler) Delete(c *gin.Context) {
	cmd := BookingApp.DeleteBookingCommand{BookingID: c.Param("id"), Actor: actor(c)}
	h.decide(c, cmd)
}

func (h BookingHandler) decide(c *gin.Context, cmd commands.Command) {
	result, err := commands.Dispatch[commands.Command, *BookingApp.DecisionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func actor(c *gin.Context) string {
	if v := c.GetHeader("X-Admin-User"); v != "" {
		return v
	}
	return "admin"
}

func generateCommandID() string {
	return uuid.NewString()
}

// parseStayDates reads the calendar-date pair booking requests carry.
func parseStayDates(c *gin.Context, in, out string) (time.Time, time.Time, bool) {
	checkIn, err := time.Parse("2006-01-02", in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	checkOut, err := time.Parse("2006-01-02", out)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

var _ BookingHTTP = BookingHandler{}
