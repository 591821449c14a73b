package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"peppertree/internal/domain/booking"
	"peppertree/internal/domain/calsync"
	"peppertree/internal/domain/rates"
	"peppertree/internal/domain/shared/daterange"
	"peppertree/internal/infra/ical"
)

// statusFor maps domain errors onto HTTP status codes so handlers stay
// thin. Unknown errors become 500 without leaking internals.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, rates.ErrRateNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrDateUnavailable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, rates.ErrLastBaseRate),
		errors.Is(err, rates.ErrDuplicateBaseRate):
		return http.StatusConflict
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, booking.ErrInvalidGuests),
		errors.Is(err, booking.ErrCheckInInPast),
		errors.Is(err, booking.ErrGuestNameMissing),
		errors.Is(err, rates.ErrInvalidGuests),
		errors.Is(err, rates.ErrInvalidAmount),
		errors.Is(err, rates.ErrInvalidWindow),
		errors.Is(err, rates.ErrWindowRequired),
		errors.Is(err, rates.ErrWindowForbidden),
		errors.Is(err, rates.ErrNoBaseRate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calsync.ErrMalformedFeed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ical.ErrFeedUnreachable),
		errors.Is(err, ical.ErrFeedRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
