package repo

import (
	"context"

	"github.com/iceymoss/local-blog-genius/pkg/db"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"
	"github.com/iceymoss/local-blog-genius/pkg/transaction"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page 分页参数，Limit <= 0 时使用默认值
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalized(defaultLimit int) Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

type scope = func(*gorm.DB) *gorm.DB

// crud 各实体共用的增删改查，错误统一在此分类
type crud[T any] struct {
	db     *gorm.DB
	entity string
	log    *zap.Logger
}

func newCrud[T any](conn *gorm.DB, entity string, log *zap.Logger) crud[T] {
	return crud[T]{db: conn, entity: entity, log: log.With(zap.String("entity", entity))}
}

// conn 事务内返回事务连接
func (c crud[T]) conn(ctx context.Context) *gorm.DB {
	return transaction.GetTransactionOrDB(ctx, c.db)
}

// fail 记录日志并将数据库错误转换为分类错误
func (c crud[T]) fail(op string, err error) error {
	switch {
	case db.IsNotFound(err):
		c.log.Debug("record not found", zap.String("operation", op))
		return xerrors.NotFound(c.entity)
	case db.IsUniqueViolation(err):
		c.log.Warn("integrity error", zap.String("operation", op), zap.Error(err))
		return xerrors.Wrap(xerrors.KindConflict, err, c.entity+" already exists or violates constraints")
	default:
		c.log.Error("database error", zap.String("operation", op), zap.Error(err))
		return xerrors.Persistence(err)
	}
}

func (c crud[T]) create(ctx context.Context, obj *T) error {
	if err := c.conn(ctx).Create(obj).Error; err != nil {
		return c.fail("create", err)
	}
	return nil
}

func (c crud[T]) get(ctx context.Context, id uint, scopes ...scope) (*T, error) {
	var obj T
	if err := c.conn(ctx).Scopes(scopes...).First(&obj, id).Error; err != nil {
		return nil, c.fail("get", err)
	}
	return &obj, nil
}

func (c crud[T]) list(ctx context.Context, page Page, scopes ...scope) ([]T, error) {
	page = page.normalized(DefaultLimit)
	var out []T
	err := c.conn(ctx).Model(new(T)).Scopes(scopes...).
		Order("id").Offset(page.Skip).Limit(page.Limit).
		Find(&out).Error
	if err != nil {
		return nil, c.fail("list", err)
	}
	return out, nil
}

func (c crud[T]) count(ctx context.Context, scopes ...scope) (int64, error) {
	var n int64
	if err := c.conn(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, c.fail("count", err)
	}
	return n, nil
}

// update 只写入 columns 中给出的列，updated_at 由 gorm 维护
func (c crud[T]) update(ctx context.Context, id uint, columns map[string]any) error {
	if _, err := c.get(ctx, id); err != nil {
		return err
	}
	if err := c.conn(ctx).Model(new(T)).Where("id = ?", id).Updates(columns).Error; err != nil {
		return c.fail("update", err)
	}
	return nil
}

func (c crud[T]) delete(ctx context.Context, id uint) error {
	res := c.conn(ctx).Delete(new(T), id)
	if res.Error != nil {
		return c.fail("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return xerrors.NotFound(c.entity)
	}
	return nil
}

func whereEq(column string, value any) scope {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(column+" = ?", value)
	}
}
