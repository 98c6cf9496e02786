package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/internal/core"
	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/internal/tasks"
	"github.com/iceymoss/local-blog-genius/pkg/db/dbtest"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTask struct {
	mu     sync.Mutex
	err    error
	runs   int
	params map[string]any
}

func (f *fakeTask) Run(_ context.Context, params map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	f.params = params
	return f.err
}

func (f *fakeTask) Identifier() string { return "test:fake" }

func (f *fakeTask) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func newRegistry(task core.Task) *tasks.Registry {
	r := tasks.NewRegistry()
	r.Register("test:fake", func() core.Task { return task })
	return r
}

func stop(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestLoadJobsSkipsDisabledAndUnknown(t *testing.T) {
	s := NewScheduler(newRegistry(&fakeTask{}), nil, zap.NewNop())

	added := s.LoadJobs([]conf.JobConfig{
		{Name: "fake", Handler: "test:fake", Cron: "@every 1h", Enable: true},
		{Name: "off", Handler: "test:fake", Cron: "@every 1h", Enable: false},
		{Name: "missing", Handler: "test:nope", Cron: "@every 1h", Enable: true},
		{Name: "bad-cron", Handler: "test:fake", Cron: "not a cron", Enable: true},
	})
	assert.Equal(t, 1, added)

	all := s.Stats.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "fake", all[0].Name)
	assert.Equal(t, StatusIdle, all[0].Status)
	assert.Equal(t, SourceConfig, all[0].Source)
}

func TestManualRunRecordsStatsAndLog(t *testing.T) {
	conn := dbtest.New(t)
	jobs := repo.NewJobRepo(conn, zap.NewNop())
	task := &fakeTask{}
	s := NewScheduler(newRegistry(task), jobs, zap.NewNop())

	params := map[string]any{"batch": 3}
	require.NoError(t, s.AddJob("@every 1h", "test:fake", "fake", params, SourceConfig))
	require.NoError(t, s.ManualRun("fake"))
	stop(t, s)

	assert.Equal(t, 1, task.count())
	assert.Equal(t, params, task.params)

	st, ok := s.Stats.Get("fake")
	require.True(t, ok)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, "Success", st.LastResult)
	assert.EqualValues(t, 1, st.RunCount)
	assert.NotEmpty(t, st.LastRunTime)

	logs, err := jobs.RecentLogs(context.Background(), "fake", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, objects.JobStatusSuccess, logs[0].Status)
	assert.Equal(t, "test:fake", logs[0].HandlerName)
	assert.NotNil(t, logs[0].EndTime)
}

func TestManualRunFailure(t *testing.T) {
	conn := dbtest.New(t)
	jobs := repo.NewJobRepo(conn, zap.NewNop())
	task := &fakeTask{err: errors.New("boom")}
	s := NewScheduler(newRegistry(task), jobs, zap.NewNop())

	require.NoError(t, s.AddJob("@every 1h", "test:fake", "fake", nil, SourceConfig))
	require.NoError(t, s.ManualRun("fake"))
	stop(t, s)

	st, _ := s.Stats.Get("fake")
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Error: boom", st.LastResult)

	logs, err := jobs.RecentLogs(context.Background(), "fake", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, objects.JobStatusFailed, logs[0].Status)
	assert.Equal(t, "boom", logs[0].ErrorMsg)
}

func TestManualRunUnknownJob(t *testing.T) {
	s := NewScheduler(tasks.NewRegistry(), nil, zap.NewNop())
	assert.ErrorIs(t, s.ManualRun("nope"), ErrJobNotFound)
}

func TestCronTriggersJob(t *testing.T) {
	task := &fakeTask{}
	s := NewScheduler(newRegistry(task), nil, zap.NewNop())
	require.NoError(t, s.AddJob("* * * * * *", "test:fake", "every-second", nil, SourceConfig))

	s.Start()
	assert.Eventually(t, func() bool { return task.count() > 0 }, 3*time.Second, 50*time.Millisecond)
	stop(t, s)

	st, _ := s.Stats.Get("every-second")
	assert.NotEmpty(t, st.NextRunTime)
}

func TestParams(t *testing.T) {
	params := map[string]any{"batch": 5.0, "interval": "250ms", "seconds": 2}
	assert.Equal(t, 5, core.IntParam(params, "batch", 10))
	assert.Equal(t, 10, core.IntParam(params, "missing", 10))
	assert.Equal(t, 250*time.Millisecond, core.DurationParam(params, "interval", time.Second))
	assert.Equal(t, 2*time.Second, core.DurationParam(params, "seconds", time.Second))
	assert.Equal(t, time.Second, core.DurationParam(nil, "interval", time.Second))
}
