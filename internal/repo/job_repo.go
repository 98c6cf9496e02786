package repo

import (
	"context"

	"github.com/iceymoss/local-blog-genius/pkg/db/objects"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobRepo 定时任务执行日志
type JobRepo struct {
	crud[objects.SysJobLog]
}

func NewJobRepo(conn *gorm.DB, log *zap.Logger) *JobRepo {
	return &JobRepo{crud: newCrud[objects.SysJobLog](conn, "job log", log)}
}

// CreateLog 开始记录日志
func (r *JobRepo) CreateLog(ctx context.Context, log *objects.SysJobLog) error {
	return r.create(ctx, log)
}

// UpdateLog 任务结束更新日志
func (r *JobRepo) UpdateLog(ctx context.Context, log *objects.SysJobLog) error {
	if err := r.conn(ctx).Save(log).Error; err != nil {
		return r.fail("update_log", err)
	}
	return nil
}

// RecentLogs 某个任务最近的执行记录，jobName 为空时返回全部任务
func (r *JobRepo) RecentLogs(ctx context.Context, jobName string, limit int) ([]objects.SysJobLog, error) {
	tx := r.conn(ctx).Order("start_time DESC").Order("id DESC").Limit(limit)
	if jobName != "" {
		tx = tx.Where("job_name = ?", jobName)
	}
	var out []objects.SysJobLog
	if err := tx.Find(&out).Error; err != nil {
		return nil, r.fail("recent_logs", err)
	}
	return out, nil
}
