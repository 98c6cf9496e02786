package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/iceymoss/local-blog-genius/internal/core"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	"github.com/iceymoss/local-blog-genius/pkg/storage"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	MarkdownName = "export:posts_markdown"

	defaultSince  = 24 * time.Hour
	defaultFolder = "posts"
	defaultLimit  = 100
	maxSlugRunes  = 60
)

// PostSource *service.BlogService 满足该接口
type PostSource interface {
	CreatedSince(ctx context.Context, since time.Time, limit int) ([]objects.BlogPost, error)
}

// MarkdownTask 把最近生成的文章导出为带 front matter 的 Markdown 文件
// 参数: since 回溯时长, folder 存储目录, limit 单次最多导出条数
// 文件名由日期、标题和 id 组成，重复导出会覆盖同一文件
type MarkdownTask struct {
	posts   PostSource
	storage storage.FileStorage
	log     *zap.Logger
	now     func() time.Time
}

func NewMarkdown(posts PostSource, fs storage.FileStorage, log *zap.Logger) core.Task {
	return &MarkdownTask{
		posts:   posts,
		storage: fs,
		log:     log.With(zap.String("task", MarkdownName)),
		now:     time.Now,
	}
}

func (t *MarkdownTask) Identifier() string {
	return MarkdownName
}

func (t *MarkdownTask) Run(ctx context.Context, params map[string]any) error {
	if t.storage == nil {
		return errors.New("export storage is not configured")
	}
	since := core.DurationParam(params, "since", defaultSince)
	folder := core.StringParam(params, "folder", defaultFolder)
	limit := core.IntParam(params, "limit", defaultLimit)

	posts, err := t.posts.CreatedSince(ctx, t.now().Add(-since), limit)
	if err != nil {
		return err
	}

	written := 0
	for _, post := range posts {
		doc, err := render(post)
		if err != nil {
			return fmt.Errorf("render post %d: %w", post.ID, err)
		}
		url, err := t.storage.Save(ctx, bytes.NewReader(doc), FileName(post), folder)
		if err != nil {
			return fmt.Errorf("export post %d: %w", post.ID, err)
		}
		written++
		t.log.Debug("post exported", zap.Uint("id", post.ID), zap.String("url", url))
	}
	t.log.Info("markdown export finished", zap.Int("posts", written), zap.Duration("since", since))
	return nil
}

// FileName 2006-01-02-topic-slug-<id>.md
func FileName(post objects.BlogPost) string {
	slug := slugify(post.Topic)
	if slug == "" {
		slug = "post"
	}
	return fmt.Sprintf("%s-%s-%d.md", post.CreatedAt.UTC().Format("2006-01-02"), slug, post.ID)
}

// FrontMatter 导出文件头部的 YAML 元数据
type FrontMatter struct {
	Title      string    `yaml:"title"`
	Date       time.Time `yaml:"date"`
	Industry   string    `yaml:"industry,omitempty"`
	Location   string    `yaml:"location,omitempty"`
	Style      string    `yaml:"style"`
	TokensUsed *int      `yaml:"tokens_used,omitempty"`
}

func render(post objects.BlogPost) ([]byte, error) {
	meta := FrontMatter{
		Title:      post.Topic,
		Date:       post.CreatedAt.UTC(),
		Style:      post.Style,
		TokensUsed: post.TokensUsed,
	}
	if post.Industry != nil {
		meta.Industry = post.Industry.Name
	}
	if post.Location != nil {
		meta.Location = post.Location.FullName()
	}
	head, err := yaml.Marshal(meta)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(post.Content))
	b.WriteString("\n")
	return b.Bytes(), nil
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	n := 0
	for _, r := range strings.ToLower(s) {
		if n >= maxSlugRunes {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
			n++
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
			n++
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
