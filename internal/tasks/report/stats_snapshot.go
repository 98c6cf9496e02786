package report

import (
	"context"

	"github.com/iceymoss/local-blog-genius/internal/core"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	"github.com/iceymoss/local-blog-genius/internal/service"

	"go.uber.org/zap"
)

const StatsSnapshotName = "report:stats_snapshot"

// StatsSource *service.BlogService 满足该接口
type StatsSource interface {
	Stats(ctx context.Context) (*service.PostStats, error)
}

// StatsSnapshotTask 定期记录文章统计并更新 gauge
type StatsSnapshotTask struct {
	source  StatsSource
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewStatsSnapshot(source StatsSource, m *metrics.Metrics, log *zap.Logger) core.Task {
	return &StatsSnapshotTask{source: source, metrics: m, log: log.With(zap.String("task", StatsSnapshotName))}
}

func (t *StatsSnapshotTask) Identifier() string {
	return StatsSnapshotName
}

func (t *StatsSnapshotTask) Run(ctx context.Context, _ map[string]any) error {
	stats, err := t.source.Stats(ctx)
	if err != nil {
		return err
	}
	t.metrics.PostSnapshot(stats.TotalPosts, stats.AverageTokens)

	fields := []zap.Field{
		zap.Int64("total_posts", stats.TotalPosts),
		zap.Float64("average_tokens", stats.AverageTokens),
		zap.Int("industries", len(stats.PostsByIndustry)),
		zap.Int("locations", len(stats.PostsByLocation)),
	}
	if stats.LastGenerated != nil {
		fields = append(fields, zap.Time("last_generated", *stats.LastGenerated))
	}
	t.log.Info("blog stats snapshot", fields...)
	return nil
}
