package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/internal/core"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	SourceConfig = "CONFIG"

	defaultRunTimeout = 10 * time.Minute
)

var ErrJobNotFound = errors.New("job not found")

// TaskProvider *tasks.Registry 满足该接口
type TaskProvider interface {
	GetTask(name string) (core.Task, error)
}

// JobLogStore *repo.JobRepo 满足该接口
type JobLogStore interface {
	CreateLog(ctx context.Context, log *objects.SysJobLog) error
	UpdateLog(ctx context.Context, log *objects.SysJobLog) error
}

type registeredJob struct {
	handler string
	task    core.Task
	params  map[string]any
	entryID cron.EntryID
}

type Scheduler struct {
	cron       *cron.Cron
	Stats      *StatManager
	tasks      TaskProvider
	store      JobLogStore
	log        *zap.Logger
	timeout    time.Duration
	mu         sync.RWMutex
	registered map[string]registeredJob
	manual     sync.WaitGroup
}

type Option func(*Scheduler)

// WithRunTimeout 单次执行超时
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// NewScheduler store 为 nil 时不落库
func NewScheduler(tasks TaskProvider, store JobLogStore, log *zap.Logger, opts ...Option) *Scheduler {
	log = log.With(zap.String("component", "scheduler"))
	cl := cronLogger{log: log.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Stats:      NewStatManager(),
		tasks:      tasks,
		store:      store,
		log:        log,
		timeout:    defaultRunTimeout,
		registered: make(map[string]registeredJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadJobs 添加配置中启用的任务，返回成功添加的数量
func (s *Scheduler) LoadJobs(jobs []conf.JobConfig) int {
	added := 0
	for _, job := range jobs {
		if !job.Enable {
			s.log.Info("job disabled, skipped", zap.String("job", job.Name))
			continue
		}
		if err := s.AddJob(job.Cron, job.HandlerName(), job.Name, job.Params, SourceConfig); err != nil {
			s.log.Error("failed to load job", zap.String("job", job.Name), zap.Error(err))
			continue
		}
		s.log.Info("job loaded", zap.String("job", job.Name), zap.String("cron", job.Cron))
		added++
	}
	return added
}

// AddJob 添加任务
func (s *Scheduler) AddJob(cronExpr, handler, jobName string, params map[string]any, source string) error {
	// 1. 获取任务实现
	task, err := s.tasks.GetTask(handler)
	if err != nil {
		return err
	}

	// 2. 加入 Cron
	entryID, err := s.cron.AddFunc(cronExpr, func() {
		s.run(jobName, handler, task, params)
	})
	if err != nil {
		return fmt.Errorf("invalid cron %q for job %s: %w", cronExpr, jobName, err)
	}

	// 3. 初始化状态，保存引用以便手动触发
	s.mu.Lock()
	s.registered[jobName] = registeredJob{handler: handler, task: task, params: params, entryID: entryID}
	s.mu.Unlock()

	s.Stats.Set(jobName, &JobStats{
		Name:        jobName,
		Handler:     handler,
		CronExpr:    cronExpr,
		Status:      StatusIdle,
		LastResult:  "Pending",
		Source:      source,
		NextRunTime: formatTime(s.cron.Entry(entryID).Next),
	})
	return nil
}

// ManualRun 手动触发，异步执行
func (s *Scheduler) ManualRun(jobName string) error {
	s.mu.RLock()
	reg, ok := s.registered[jobName]
	s.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		s.run(jobName, reg.handler, reg.task, reg.params)
	}()
	return nil
}

// run 执行并记录状态和日志
func (s *Scheduler) run(name, handler string, task core.Task, params map[string]any) {
	start := time.Now()
	s.Stats.Update(name, func(st *JobStats) {
		st.Status = StatusRunning
		st.LastRunTime = formatTime(start)
		st.RunCount++
	})
	log := s.log.With(zap.String("job", name), zap.String("handler", task.Identifier()))
	log.Info("job started")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry := &objects.SysJobLog{
		JobName:     name,
		HandlerName: handler,
		Status:      objects.JobStatusRunning,
		StartTime:   start,
	}
	if s.store != nil {
		if err := s.store.CreateLog(ctx, entry); err != nil {
			log.Warn("failed to create job log", zap.Error(err))
		}
	}

	err := task.Run(ctx, params)

	end := time.Now()
	entry.EndTime = &end
	entry.DurationMs = end.Sub(start).Milliseconds()
	if err != nil {
		entry.Status = objects.JobStatusFailed
		entry.ErrorMsg = err.Error()
		log.Error("job failed", zap.Duration("duration", end.Sub(start)), zap.Error(err))
	} else {
		entry.Status = objects.JobStatusSuccess
		log.Info("job finished", zap.Duration("duration", end.Sub(start)))
	}
	if s.store != nil && entry.ID != 0 {
		if uerr := s.store.UpdateLog(context.Background(), entry); uerr != nil {
			log.Warn("failed to update job log", zap.Error(uerr))
		}
	}

	next := s.nextRun(name)
	s.Stats.Update(name, func(st *JobStats) {
		if err != nil {
			st.Status = StatusError
			st.LastResult = fmt.Sprintf("Error: %v", err)
		} else {
			st.Status = StatusIdle
			st.LastResult = "Success"
		}
		st.NextRunTime = formatTime(next)
	})
}

func (s *Scheduler) nextRun(name string) time.Time {
	s.mu.RLock()
	reg, ok := s.registered[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(reg.entryID).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	waited := make(chan struct{})
	go func() {
		s.manual.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 将 cron 的日志接到 zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
