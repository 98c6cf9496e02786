package engine

import (
	"sort"
	"sync"
	"time"
)

const (
	StatusIdle    = "Idle"
	StatusRunning = "Running"
	StatusError   = "Error"

	timeLayout = "2006-01-02 15:04:05"
)

// JobStats 任务运行时状态
type JobStats struct {
	Name        string `json:"name"`
	Handler     string `json:"handler"`
	CronExpr    string `json:"cron_expr"`
	Status      string `json:"status"`      // Idle, Running, Error
	LastRunTime string `json:"last_run"`    // 格式化后的时间
	NextRunTime string `json:"next_run"`    // 格式化后的时间
	LastResult  string `json:"last_result"` // 成功或错误信息
	RunCount    int64  `json:"run_count"`
	Source      string `json:"source"` // 目前只有 CONFIG
}

type StatManager struct {
	stats map[string]*JobStats
	mu    sync.RWMutex
}

func NewStatManager() *StatManager {
	return &StatManager{
		stats: make(map[string]*JobStats),
	}
}

func (m *StatManager) Set(name string, stat *JobStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[name] = stat
}

// Update 在锁内修改状态，任务不存在时忽略
func (m *StatManager) Update(name string, fn func(*JobStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[name]; ok {
		fn(s)
	}
}

// Get 返回副本
func (m *StatManager) Get(name string) (JobStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[name]
	if !ok {
		return JobStats{}, false
	}
	return *s, true
}

func (m *StatManager) GetAll() []JobStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]JobStats, 0, len(m.stats))
	for _, s := range m.stats {
		list = append(list, *s)
	}
	// 按名称排序
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
