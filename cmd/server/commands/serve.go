package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/ai"
	"github.com/iceymoss/local-blog-genius/internal/engine"
	"github.com/iceymoss/local-blog-genius/internal/geocode"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	"github.com/iceymoss/local-blog-genius/internal/server"
	"github.com/iceymoss/local-blog-genius/internal/service"
	"github.com/iceymoss/local-blog-genius/internal/tasks"
	"github.com/iceymoss/local-blog-genius/pkg/db"
	"github.com/iceymoss/local-blog-genius/pkg/logger"
	"github.com/iceymoss/local-blog-genius/pkg/sensitive"
	"github.com/iceymoss/local-blog-genius/pkg/storage"
	"github.com/iceymoss/local-blog-genius/pkg/transaction"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, conn, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync(log)
	defer closeDB(conn, log)

	// 1. 存储
	if err := db.Migrate(conn); err != nil {
		log.Error("migration failed", zap.Error(err))
		return err
	}
	sx, err := db.NewSQLX(conn)
	if err != nil {
		return err
	}
	m := metrics.New()
	repos := service.NewRepos(conn, sx, log)
	tx := transaction.NewManager(conn)

	// 2. 外部服务
	llm, err := ai.NewOpenAI(cfg.OpenAI)
	if err != nil {
		// 未配置时仍可启动，生成接口返回不可用
		log.Warn("content generation disabled", zap.Error(err))
	}
	generator := ai.NewClient(llm, cfg.OpenAI, log, ai.WithMetrics(m))
	geocoder := geocode.NewClient(cfg.Geocoding, log, m)

	words, err := sensitive.Load(cfg.ContentFilter.Words, cfg.ContentFilter.DictPath)
	if err != nil {
		log.Error("content filter", zap.Error(err))
		return err
	}
	validator := service.NewValidator(words)

	// 3. 业务
	industries := service.NewIndustryService(tx, repos, validator, log)
	locations := service.NewLocationService(tx, repos, geocoder, validator, log)
	blog := service.NewBlogService(tx, repos, industries, locations, generator, validator, m, log)

	// 4. 定时任务
	registry := tasks.NewDefaultRegistry(tasks.Deps{
		Stats:     blog,
		Locations: locations,
		Posts:     blog,
		Storage:   storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL, log),
		Metrics:   m,
		Logger:    log,
	})
	scheduler := engine.NewScheduler(registry, repos.Jobs, log)
	loaded := scheduler.LoadJobs(cfg.Jobs)
	scheduler.Start()
	log.Info("scheduler started", zap.Int("jobs", loaded), zap.Strings("handlers", registry.Names()))

	// 5. HTTP
	srv := server.NewServer(cfg, server.Deps{
		Blog:       blog,
		Industries: industries,
		Locations:  locations,
		Scheduler:  scheduler,
		JobLogs:    repos.Jobs,
		Metrics:    m,
		Logger:     log,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		if runErr != nil {
			log.Error("http server stopped", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", zap.Error(serr))
	}
	if serr := scheduler.Stop(shutdownCtx); serr != nil {
		log.Warn("scheduler shutdown", zap.Error(serr))
	}
	return runErr
}
