package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/scheduler"
)

const defaultServiceName = "cadence-web"

// Options wire the server's dependencies.
type Options struct {
	Factory *scheduler.Factory
	Logger  *logging.Logger
	// Gatherer backs /metrics; nil exposes the default registry.
	Gatherer    prometheus.Gatherer
	ServiceName string
}

// Server answers the dashboard's loaders and actions. Every outbound call is
// made in server-side mode, bound to the inbound request.
type Server struct {
	factory     *scheduler.Factory
	logger      *logging.Logger
	gatherer    prometheus.Gatherer
	serviceName string
	now         func() time.Time
}

// New builds a Server.
func New(opts Options) *Server {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	name := opts.ServiceName
	if name == "" {
		name = defaultServiceName
	}
	return &Server{
		factory:     opts.Factory,
		logger:      opts.Logger,
		gatherer:    gatherer,
		serviceName: name,
		now:         time.Now,
	}
}

// Router registers every route on a fresh engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(s.serviceName), s.accessLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.GET("/dashboard", s.dashboard)

		api.GET("/targets", s.listTargets)
		api.GET("/targets/:id", s.getTarget)
		api.POST("/targets", s.targetAction)

		api.GET("/schedules", s.listSchedules)
		api.POST("/schedules", s.scheduleAction)

		api.GET("/runs", s.listRuns)
		api.GET("/runs/:id", s.getRun)
	}

	session := router.Group("/auth")
	{
		session.POST("/session", s.login)
		session.POST("/logout", s.logout)
	}
	return router
}

// client binds a scheduler client to the inbound request.
func (s *Server) client(c *gin.Context) *scheduler.Client {
	return s.factory.Client(c.Request)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		s.logger.Info("web request", map[string]any{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"statusCode": c.Writer.Status(),
			"latency_ms": s.now().Sub(start).Milliseconds(),
		})
	}
}

// errorMessage renders err for a loader envelope: null when there is none.
func errorMessage(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

func queryInt(c *gin.Context, key string, fallback int) int {
	return atoiOr(c.Query(key), fallback)
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

func emptyPage[T any](pageSize int) *scheduler.Page[T] {
	return &scheduler.Page[T]{Items: []T{}, Page: 1, PageSize: pageSize}
}
