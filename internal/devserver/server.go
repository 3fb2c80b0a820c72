// Package devserver is an in-memory fixture implementing the remote
// attendance API contract the client consumes. It exists for local
// development and end-to-end exercising of the client; it is not the
// production backend.
package devserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/auth"
	"rollcall/internal/httpmiddleware"
)

var checkins = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_dev_checkins_total",
	Help: "Attendance submissions accepted by the fixture server.",
}, []string{"session"})

// Config carries the fixture server settings.
type Config struct {
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	StudentID       string
	Password        string
	RateLimitPerMin int
}

// Server wires the fixture routes.
type Server struct {
	cfg   Config
	store *Store
}

// New creates a fixture server over store.
func New(cfg Config, store *Store) *Server {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 12 * time.Hour
	}
	return &Server{cfg: cfg, store: store}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	if s.cfg.RateLimitPerMin > 0 {
		r.Use(httpmiddleware.NewSimpleTokenBucket(s.cfg.RateLimitPerMin, s.cfg.RateLimitPerMin).GinMiddleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", s.handleLogin)

	guarded := r.Group("/", auth.Bearer(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	guarded.GET("/events", s.handleListEvents)
	guarded.POST("/events", s.handleCreateEvent)
	guarded.PATCH("/events/:id", s.handleUpdateEvent)
	guarded.DELETE("/events/:id", s.handleDeleteEvent)
	guarded.POST("/attendance/:eventId", s.handleAttendance)

	return r
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		StudentID string `json:"studentId" binding:"required"`
		Password  string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "studentId and password are required"})
		return
	}
	if req.StudentID != s.cfg.StudentID || req.Password != s.cfg.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	token, _, err := auth.Issue(req.StudentID, s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleListEvents answers 404 for an empty collection, matching the
// production server's signaling that the client normalizes to an empty page.
func (s *Server) handleListEvents(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)
	events, total := s.store.ListEvents(page, limit)
	if total == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "no events found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "total": total})
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req struct {
		Title       string `json:"eventTitle" binding:"required"`
		Description string `json:"eventDescription" binding:"required"`
		Date        string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "eventTitle, eventDescription and date are required"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
		return
	}
	s.store.CreateEvent(req.Title, req.Description, req.Date)
	// The message spelling is part of the consumed contract.
	c.JSON(http.StatusCreated, gin.H{"message": "succesfully created"})
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var req struct {
		Title       string `json:"eventTitle"`
		Description string `json:"eventDescription"`
		Date        string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
			return
		}
	}
	ev, ok := s.store.UpdateEvent(c.Param("id"), req.Title, req.Description, req.Date)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updatedEvent": ev})
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	if !s.store.DeleteEvent(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleAttendance(c *gin.Context) {
	eventID := c.Param("eventId")
	if !s.store.HasEvent(eventID) {
		c.JSON(http.StatusNotFound, gin.H{"message": "event not found"})
		return
	}
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		CSY       string `json:"CSY"`
		StudentID string `json:"studentId" binding:"required"`
		Gbox      string `json:"gbox"`
		AM        bool   `json:"AM"`
		PM        bool   `json:"PM"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "studentId is required"})
		return
	}
	if req.AM == req.PM {
		c.JSON(http.StatusBadRequest, gin.H{"message": "exactly one of AM or PM must be set"})
		return
	}
	rec := s.store.AddAttendance(eventID, Attendance{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CSY:       req.CSY,
		StudentID: req.StudentID,
		Gbox:      req.Gbox,
		AM:        req.AM,
		PM:        req.PM,
	})
	session := "AM"
	if rec.PM {
		session = "PM"
	}
	checkins.WithLabelValues(session).Inc()
	c.JSON(http.StatusCreated, gin.H{"success": true, "attendance": rec})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
