package server

import (
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/tracker/internal/auth"
	httpmiddleware "github.com/wolfeidau/tracker/internal/http"
	"github.com/wolfeidau/tracker/internal/logger"
	"github.com/wolfeidau/tracker/internal/service"
	"golang.org/x/time/rate"
)

// Config controls the HTTP API.
type Config struct {
	AllowedOrigins []string
	BodyLimit      string
	// LoginRate is the sustained number of login attempts per second allowed
	// from one client IP.
	LoginRate  float64
	LoginBurst int
	Logger     zerolog.Logger
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.BodyLimit == "" {
		c.BodyLimit = "1M"
	}
	if c.LoginRate == 0 {
		c.LoginRate = 1
	}
	if c.LoginBurst == 0 {
		c.LoginBurst = 5
	}
}

// Server exposes the tracker service over a JSON HTTP API.
type Server struct {
	svc    *service.Service
	issuer *auth.TokenIssuer
	cfg    Config
	echo   *echo.Echo
}

// New builds the server and registers all routes.
func New(svc *service.Service, issuer *auth.TokenIssuer, cfg Config) *Server {
	cfg.ApplyDefaults()

	s := &Server{
		svc:    svc,
		issuer: issuer,
		cfg:    cfg,
		echo:   echo.New(),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestID())
	e.Use(logger.Requests(cfg.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	e.GET("/health", s.health)

	limiter := newLoginLimiter(rate.Limit(cfg.LoginRate), cfg.LoginBurst)
	e.POST("/auth/token", s.login, limiter.middleware())

	api := e.Group("/api/v1", auth.BearerAuth(issuer.Verifier(), svc))
	s.registerRoutes(api)

	return s
}

func (s *Server) registerRoutes(api *echo.Group) {
	api.GET("/me", s.me)

	api.POST("/orgs", s.createOrganization)
	api.GET("/orgs", s.listOrganizations)
	api.GET("/orgs/:id", s.getOrganization)
	api.PATCH("/orgs/:id", s.updateOrganization)

	api.POST("/users", s.createUser)
	api.GET("/users", s.listUsers)
	api.GET("/users/:id", s.getUser)
	api.PATCH("/users/:id", s.updateUser)
	api.DELETE("/users/:id", s.deleteUser)

	api.POST("/workflows", s.createWorkflow)
	api.GET("/workflows", s.listWorkflows)
	api.GET("/workflows/:id", s.getWorkflow)
	api.PATCH("/workflows/:id", s.updateWorkflow)
	api.DELETE("/workflows/:id", s.deleteWorkflow)

	api.POST("/projects", s.createProject)
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:id", s.getProject)
	api.PATCH("/projects/:id", s.updateProject)
	api.DELETE("/projects/:id", s.deleteProject)
	api.GET("/projects/:id/workflow", s.getProjectWorkflow)
	api.PUT("/projects/:id/workflow", s.setProjectWorkflow)

	api.POST("/projects/:id/tickets", s.createTicket)
	api.GET("/projects/:id/tickets", s.listProjectTickets)
	api.GET("/tickets", s.listTickets)
	api.GET("/tickets/:id", s.getTicket)
	api.PATCH("/tickets/:id", s.updateTicket)
	api.DELETE("/tickets/:id", s.deleteTicket)
	api.PUT("/tickets/:id/status", s.updateTicketStatus)
	api.POST("/tickets/:id/move", s.moveTicket)
	api.PUT("/tickets/:id/assignee", s.assignTicket)

	api.POST("/projects/:id/epics", s.createEpic)
	api.GET("/projects/:id/epics", s.listEpics)
	api.GET("/epics/:id", s.getEpic)
	api.PATCH("/epics/:id", s.updateEpic)
	api.DELETE("/epics/:id", s.deleteEpic)

	api.POST("/tickets/:id/comments", s.createComment)
	api.GET("/tickets/:id/comments", s.listComments)
	api.PATCH("/comments/:id", s.updateComment)
	api.DELETE("/comments/:id", s.deleteComment)
}

// Handler returns the root handler with client IP tracking, CORS and
// response compression applied around the echo router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = gzhttp.GzipHandler(s.echo)
	handler = WithCORS(s.cfg.AllowedOrigins, handler)
	return httpmiddleware.ClientIPMiddleware()(handler)
}

// WithCORS wraps handler with CORS support for the given origins. An empty
// list disables CORS.
func WithCORS(origins []string, handler http.Handler) http.Handler {
	if len(origins) == 0 {
		return handler
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", echo.HeaderXRequestID},
		ExposedHeaders: []string{echo.HeaderXRequestID},
		MaxAge:         int((2 * time.Hour).Seconds()),
	})
	return c.Handler(handler)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
