package tasks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iceymoss/local-blog-genius/internal/core"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	"github.com/iceymoss/local-blog-genius/internal/tasks/export"
	"github.com/iceymoss/local-blog-genius/internal/tasks/geo"
	"github.com/iceymoss/local-blog-genius/internal/tasks/report"
	"github.com/iceymoss/local-blog-genius/pkg/storage"

	"go.uber.org/zap"
)

// Registry handler 名称到任务构造函数的映射
type Registry struct {
	mu       sync.RWMutex
	creators map[string]core.TaskCreator
}

func NewRegistry() *Registry {
	return &Registry{creators: make(map[string]core.TaskCreator)}
}

func (r *Registry) Register(name string, creator core.TaskCreator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[name] = creator
}

func (r *Registry) GetTask(name string) (core.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	creator, ok := r.creators[name]
	if !ok {
		return nil, fmt.Errorf("task implementation '%s' not found", name)
	}
	return creator(), nil
}

// Names 已注册的 handler，按名称排序
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Deps 内置任务的依赖
type Deps struct {
	Stats     report.StatsSource
	Locations geo.LocationEnricher
	Posts     export.PostSource
	Storage   storage.FileStorage
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewDefaultRegistry 注册全部内置任务
func NewDefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()
	r.Register(report.StatsSnapshotName, func() core.Task {
		return report.NewStatsSnapshot(deps.Stats, deps.Metrics, deps.Logger)
	})
	r.Register(geo.EnrichLocationsName, func() core.Task {
		return geo.NewEnrichLocations(deps.Locations, deps.Logger)
	})
	r.Register(export.MarkdownName, func() core.Task {
		return export.NewMarkdown(deps.Posts, deps.Storage, deps.Logger)
	})
	return r
}
