package service

import (
	"context"
	"strings"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/ai"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"
	"github.com/iceymoss/local-blog-genius/pkg/transaction"
	"github.com/iceymoss/local-blog-genius/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DefaultByNameLimit 按行业/地点名称查询的默认条数
const DefaultByNameLimit = 10

type BlogPostCreate struct {
	Industry string `json:"industry" validate:"required,min=2,max=100"`
	Location string `json:"location" validate:"required,min=2,max=100"`
	Topic    string `json:"topic" validate:"required,min=5,max=200"`
	Style    string `json:"style" validate:"required,min=3,max=50"`
}

func (in *BlogPostCreate) normalize() {
	in.Industry = strings.TrimSpace(in.Industry)
	in.Location = strings.TrimSpace(in.Location)
	in.Topic = strings.TrimSpace(in.Topic)
	in.Style = strings.TrimSpace(in.Style)
	if in.Style == "" {
		in.Style = objects.DefaultStyle
	}
}

type BlogPostUpdate struct {
	Topic   *string `json:"topic" validate:"omitempty,min=5,max=200"`
	Content *string `json:"content" validate:"omitempty,min=1"`
	Style   *string `json:"style" validate:"omitempty,min=3,max=50"`
}

func (in *BlogPostUpdate) normalize() {
	trim(in.Topic)
	trim(in.Style)
}

func (in BlogPostUpdate) toRepo() repo.PostUpdate {
	return repo.PostUpdate{Topic: in.Topic, Content: in.Content, Style: in.Style}
}

type PostStats struct {
	TotalPosts      int64            `json:"total_posts"`
	PostsByIndustry map[string]int64 `json:"posts_by_industry"`
	PostsByLocation map[string]int64 `json:"posts_by_location"`
	AverageTokens   float64          `json:"average_tokens"`
	LastGenerated   *time.Time       `json:"last_generated"`
}

// BlogService 文章生成主流程
type BlogService struct {
	tx         *transaction.Manager
	repos      Repos
	industries *IndustryService
	locations  *LocationService
	generator  Generator
	validator  *Validator
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewBlogService(
	tx *transaction.Manager,
	repos Repos,
	industries *IndustryService,
	locations *LocationService,
	generator Generator,
	v *Validator,
	m *metrics.Metrics,
	log *zap.Logger,
) *BlogService {
	return &BlogService{
		tx:         tx,
		repos:      repos,
		industries: industries,
		locations:  locations,
		generator:  generator,
		validator:  v,
		metrics:    m,
		log:        log.With(zap.String("component", "blog_service")),
	}
}

// CreatePost 校验 -> 行业/地点 get-or-create -> 生成内容 -> 事务内写入文章
// 生成调用不在任何事务内
func (s *BlogService) CreatePost(ctx context.Context, in BlogPostCreate) (*objects.BlogPost, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := s.validator.Screen(in.Industry, in.Location, in.Topic); err != nil {
		return nil, err
	}

	industry, err := s.industries.GetOrCreate(ctx, in.Industry)
	if err != nil {
		return nil, err
	}
	location, err := s.locations.GetOrCreate(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(ctx, ai.Request{
		Industry: industry.Name,
		Location: location.Name,
		Topic:    in.Topic,
		Style:    in.Style,
	})
	if err != nil {
		s.log.Error("error creating blog post", zap.String("operation", "generate"),
			zap.String("industry", in.Industry), zap.String("location", in.Location), zap.Error(err))
		return nil, err
	}

	post := &objects.BlogPost{
		IndustryID: industry.ID,
		LocationID: location.ID,
		Topic:      in.Topic,
		Content:    result.Content,
		Style:      in.Style,
		Metadata: datatypes.JSONMap{
			"finish_reason":   result.FinishReason,
			"generation_date": utils.FormatRFC3339(utils.NowUTC()),
		},
	}
	s.fillTokens(post, result)

	err = s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		return s.repos.Posts.Create(ctx, post)
	})
	if err != nil {
		s.log.Error("error creating blog post", zap.String("operation", "insert"), zap.Error(err))
		return nil, err
	}
	s.metrics.PostCreated()
	s.log.Info("blog post created", zap.Uint("id", post.ID),
		zap.String("industry", industry.Name), zap.String("location", location.Name),
		zap.Intp("tokens_used", post.TokensUsed))

	return s.repos.Posts.Get(ctx, post.ID)
}

// fillTokens 优先使用服务端上报的用量；未上报时按正文本地计数，
// 并在 metadata 中记录 tokens_counted 与 tokens_exact。两者都不可用时保持 NULL，不计入平均值
func (s *BlogService) fillTokens(post *objects.BlogPost, result *ai.Result) {
	if result.TokensUsed > 0 {
		post.TokensUsed = ptr(result.TokensUsed)
		return
	}
	counter, ok := s.generator.(TokenCounter)
	if !ok {
		return
	}
	n, exact := counter.CountTokens(result.Content)
	if n <= 0 {
		return
	}
	post.TokensUsed = ptr(n)
	post.Metadata["tokens_counted"] = true
	post.Metadata["tokens_exact"] = exact
}

func (s *BlogService) Get(ctx context.Context, id uint) (*objects.BlogPost, error) {
	return s.repos.Posts.Get(ctx, id)
}

func (s *BlogService) List(ctx context.Context, filter repo.PostFilter, page repo.Page) ([]objects.BlogPost, int64, error) {
	if err := checkPage(page); err != nil {
		return nil, 0, err
	}
	items, err := s.repos.Posts.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Posts.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *BlogService) Update(ctx context.Context, id uint, in BlogPostUpdate) (*objects.BlogPost, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	update := in.toRepo()
	if len(update.Columns()) == 0 {
		return nil, xerrors.Validation("no fields to update")
	}
	if in.Topic != nil {
		if err := s.validator.Screen(*in.Topic); err != nil {
			return nil, err
		}
	}
	var out *objects.BlogPost
	err := s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		var err error
		out, err = s.repos.Posts.Update(ctx, id, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BlogService) Delete(ctx context.Context, id uint) error {
	return s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		return s.repos.Posts.Delete(ctx, id)
	})
}

// ByIndustry 指定行业名称下的文章，最新的在前
func (s *BlogService) ByIndustry(ctx context.Context, name string, page repo.Page) ([]objects.BlogPost, error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}
	if page.Limit == 0 {
		page.Limit = DefaultByNameLimit
	}
	return s.repos.Posts.ListByIndustryName(ctx, strings.TrimSpace(name), page)
}

func (s *BlogService) ByLocation(ctx context.Context, name string, page repo.Page) ([]objects.BlogPost, error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}
	if page.Limit == 0 {
		page.Limit = DefaultByNameLimit
	}
	return s.repos.Posts.ListByLocationName(ctx, strings.TrimSpace(name), page)
}

// CreatedSince 供导出任务使用
func (s *BlogService) CreatedSince(ctx context.Context, since time.Time, limit int) ([]objects.BlogPost, error) {
	return s.repos.Posts.CreatedSince(ctx, since, limit)
}

func (s *BlogService) Stats(ctx context.Context) (*PostStats, error) {
	total, err := s.repos.Posts.Count(ctx, repo.PostFilter{})
	if err != nil {
		return nil, err
	}
	byIndustry, err := s.repos.Stats.PostsByIndustry(ctx)
	if err != nil {
		return nil, err
	}
	byLocation, err := s.repos.Stats.PostsByLocation(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.repos.Stats.AverageTokens(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.repos.Posts.Latest(ctx)
	if err != nil {
		return nil, err
	}

	stats := &PostStats{
		TotalPosts:      total,
		PostsByIndustry: make(map[string]int64, len(byIndustry)),
		PostsByLocation: make(map[string]int64, len(byLocation)),
		AverageTokens:   round2(avg),
	}
	for _, row := range byIndustry {
		stats.PostsByIndustry[row.Name] = row.Count
	}
	for _, row := range byLocation {
		stats.PostsByLocation[row.Name] = row.Count
	}
	if latest != nil {
		created := latest.CreatedAt
		stats.LastGenerated = &created
	}
	return stats, nil
}
