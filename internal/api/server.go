package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shim/internal/config"
	"shim/internal/domain"
	"shim/internal/logging"
	"shim/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Exporter renders bookings over a period as an XLSX workbook.
type Exporter interface {
	ExportBookings(ctx context.Context, from, to time.Time) ([]byte, error)
}

// Profiles resolves the stored identity of a caller.
type Profiles interface {
	Profile(ctx context.Context, caller models.Caller) (*models.User, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators served over HTTP.
type Deps struct {
	Bookings domain.BookingService
	Items    domain.ItemService
	Grants   domain.GrantService
	Users    Profiles
	Exporter Exporter
	Store    Pinger
}

// Server exposes the booking API over HTTP.
type Server struct {
	cfg    *config.Config
	deps   Deps
	auth   *JWTAuth
	engine *gin.Engine
	server *http.Server
	logger *zerolog.Logger
	now    func() time.Time
}

func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *Server {

	if cfg.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		auth:   NewJWTAuth(cfg.Auth),
		engine: gin.New(),
		logger: logging.Component(logger, "http"),
		now:    time.Now,
	}
	s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestID(), accessLog(s.logger), observe())
	if len(s.cfg.HTTP.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.HTTP.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)

	v1 := r.Group("/api/v1", s.auth.Required(), newRateLimiter(s.cfg.HTTP.RateLimit).Middleware())
	v1.GET("/me", s.me)
	v1.GET("/items", s.listBookableItems)
	v1.GET("/items/:id", s.getItem)
	v1.POST("/bookings", s.createBooking)
	v1.GET("/bookings/mine", s.myBookings)

	admin := v1.Group("/admin", RequireRole(models.RoleAdmin))
	admin.GET("/items", s.listAllItems)
	admin.POST("/items", s.createItem)
	admin.PUT("/items/:id", s.updateItem)
	admin.PUT("/items/:id/status", s.setItemStatus)
	admin.DELETE("/items/:id", s.deleteItem)
	admin.GET("/items/:id/overlaps", s.overlaps)

	admin.GET("/bookings", s.listBookings)
	admin.GET("/bookings/export", s.exportBookings)
	admin.GET("/bookings/:id", s.getBooking)
	admin.PUT("/bookings/:id/approve", s.approveBooking)
	admin.PUT("/bookings/:id/decline", s.declineBooking)
	admin.PUT("/bookings/:id/complete", s.completeBooking)
	admin.GET("/dashboard", s.dashboard)

	admin.GET("/grants", s.listGrants)
	admin.POST("/grants", s.createGrant)
	admin.GET("/grants/:id", s.getGrant)
	admin.PUT("/grants/:id", s.updateGrant)
	admin.DELETE("/grants/:id", s.deleteGrant)
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	if s.deps.Store != nil {
		if err := s.deps.Store.PingContext(c.Request.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.deps.Users.Profile(c.Request.Context(), callerFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
