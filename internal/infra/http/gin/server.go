package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"peppertree/internal/infra/config"
	"peppertree/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
	Delete(c *gin.Context)
}

type AvailabilityHTTP interface {
	Month(c *gin.Context)
	Check(c *gin.Context)
}

type RateHTTP interface {
	Quote(c *gin.Context)
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Deactivate(c *gin.Context)
}

type CalendarHTTP interface {
	Export(c *gin.Context)
	Import(c *gin.Context)
	Info(c *gin.Context)
}

type Handlers struct {
	Booking         BookingHTTP
	Availability    AvailabilityHTTP
	Rates           RateHTTP
	Calendar        CalendarHTTP
	AdminMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	admin := h.AdminMiddleware
	if admin == nil {
		admin = func(c *gin.Context) { c.Next() }
	}

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)

		adminBookings := api.Group("/admin/bookings", admin)
		adminBookings.GET("", h.Booking.List)
		adminBookings.GET("/:id", h.Booking.Get)
		adminBookings.POST("/:id/approve", h.Booking.Approve)
		adminBookings.POST("/:id/reject", h.Booking.Reject)
		adminBookings.POST("/:id/cancel", h.Booking.Cancel)
		adminBookings.POST("/:id/complete", h.Booking.Complete)
		adminBookings.DELETE("/:id", h.Booking.Delete)
	}
	if h.Availability != nil {
		api.GET("/availability", h.Availability.Month)
		api.GET("/availability/check", h.Availability.Check)
	}
	if h.Rates != nil {
		api.GET("/rates/quote", h.Rates.Quote)

		adminRates := api.Group("/admin/rates", admin)
		adminRates.GET("", h.Rates.List)
		adminRates.POST("", h.Rates.Create)
		adminRates.PUT("/:id", h.Rates.Update)
		adminRates.POST("/:id/deactivate", h.Rates.Deactivate)
	}
	if h.Calendar != nil {
		ics := router.Group("/api/ical")
		ics.GET("/bookings.ics", h.Calendar.Export)
		ics.POST("/import", admin, h.Calendar.Import)
		ics.GET("/info", admin, h.Calendar.Info)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

// AdminTokenMiddleware guards admin routes with a static bearer token.
// Real operator authentication terminates at the reverse proxy; this is a
// second fence for direct access.
func AdminTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
