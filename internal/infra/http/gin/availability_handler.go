package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"peppertree/internal/app/dto"
	AvailabilityApp "peppertree/internal/app/handlers/availability"
	"peppertree/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

// Month serves the public calendar grid: ?year=2025&month=7.
func (h AvailabilityHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be an integer"})
		return
	}
	q := AvailabilityApp.MonthAvailabilityQuery{Year: year, Month: month}
	result, askErr := queries.Ask[AvailabilityApp.MonthAvailabilityQuery, dto.MonthAvailability](c.Request.Context(), h.Queries, q)
	if askErr != nil {
		if askErr == AvailabilityApp.ErrInvalidMonth {
			c.JSON(http.StatusBadRequest, gin.H{"error": askErr.Error()})
			return
		}
		respondError(c, askErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Check answers one range question: ?check_in=2025-07-01&check_out=2025-07-05.
func (h AvailabilityHandler) Check(c *gin.Context) {
	checkIn, checkOut, ok := parseStayDates(c, c.Query("check_in"), c.Query("check_out"))
	if !ok {
		return
	}
	q := AvailabilityApp.CheckAvailabilityQuery{CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[AvailabilityApp.CheckAvailabilityQuery, dto.AvailabilityCheck](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
