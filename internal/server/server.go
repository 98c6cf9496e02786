package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/internal/engine"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	"github.com/iceymoss/local-blog-genius/internal/service"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobLogReader *repo.JobRepo 满足该接口
type JobLogReader interface {
	RecentLogs(ctx context.Context, jobName string, limit int) ([]objects.SysJobLog, error)
}

// Deps HTTP 层依赖，全部由 cmd/server 构建后注入
type Deps struct {
	Blog       *service.BlogService
	Industries *service.IndustryService
	Locations  *service.LocationService
	Scheduler  *engine.Scheduler
	JobLogs    JobLogReader
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	deps   Deps
	log    *zap.Logger
}

func NewServer(cfg *conf.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	log := deps.Logger.With(zap.String("component", "http"))

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		accessLog(log),
		observe(deps.Metrics),
		cors.New(corsConfig(cfg.Server.CORSOrigins)),
	)

	s := &Server{engine: router, deps: deps, log: log}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group(cfg.App.APIV1Str)
	{
		blog := api.Group("/blog")
		blog.POST("/generate", s.generatePost)
		blog.GET("/posts", s.listPosts)
		blog.GET("/posts/:id", s.getPost)
		blog.PATCH("/posts/:id", s.updatePost)
		blog.DELETE("/posts/:id", s.deletePost)
		blog.GET("/stats", s.postStats)
		blog.GET("/industries/:name/posts", s.postsByIndustry)
		blog.GET("/locations/:name/posts", s.postsByLocation)

		industries := api.Group("/industries")
		industries.GET("", s.listIndustries)
		industries.POST("", s.createIndustry)
		industries.GET("/stats", s.industryStats)
		industries.GET("/related", s.relatedIndustries)
		industries.GET("/:id", s.getIndustry)
		industries.PATCH("/:id", s.updateIndustry)
		industries.DELETE("/:id", s.deleteIndustry)

		locations := api.Group("/locations")
		locations.GET("", s.listLocations)
		locations.POST("", s.createLocation)
		locations.GET("/stats", s.locationStats)
		locations.GET("/search", s.searchLocations)
		locations.GET("/:id", s.getLocation)
		locations.PATCH("/:id", s.updateLocation)
		locations.DELETE("/:id", s.deleteLocation)

		jobs := api.Group("/jobs")
		jobs.GET("", s.listJobs)
		jobs.POST("/:name/run", s.runJob)
		jobs.GET("/:name/logs", s.jobLogs)
	}

	router.NoRoute(func(c *gin.Context) {
		// API 404 统一返回 JSON
		if strings.HasPrefix(c.Request.URL.Path, cfg.App.APIV1Str) {
			c.JSON(http.StatusNotFound, errorBody{Code: http.StatusNotFound, Category: "not_found", Message: "API not found"})
			return
		}
		c.JSON(http.StatusNotFound, errorBody{Code: http.StatusNotFound, Category: "not_found", Message: "not found"})
	})

	s.http = &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler 供测试和自定义 http.Server 使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 阻塞直到服务关闭，正常关闭时返回 nil
func (s *Server) Run() error {
	s.log.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AddAllowHeaders(requestIDHeader)
	cfg.AddExposeHeaders(requestIDHeader)
	return cfg
}
