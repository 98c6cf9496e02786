package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const (
	Temperature      = 0.7
	PresencePenalty  = 0.3
	FrequencyPenalty = 0.3

	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

var errEmptyResponse = errors.New("empty response from provider")

// Model 生成接口，*openai.LLM 满足该接口
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// SleepFunc 重试等待，可在测试中替换
type SleepFunc func(ctx context.Context, d time.Duration) error

type Request struct {
	Industry  string
	Location  string
	Topic     string
	Style     string
	MaxTokens int // <= 0 时使用配置的默认值
}

type Result struct {
	Content      string
	TokensUsed   int
	FinishReason string
}

// Client 带重试的内容生成客户端
type Client struct {
	llm         Model
	model       string
	maxTokens   int
	maxAttempts int
	retryDelay  time.Duration
	sleep       SleepFunc
	log         *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*Client)

func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewOpenAI 按配置构造 OpenAI 兼容的模型
func NewOpenAI(cfg conf.OpenAIConfig) (Model, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// NewClient llm 为 nil 时客户端仍可构造，调用时返回不可用错误
func NewClient(llm Model, cfg conf.OpenAIConfig, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		llm:         llm,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		sleep:       sleepContext,
		log:         log.With(zap.String("component", "ai")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate 生成博客内容，失败后按 1s、2s 线性退避，最多尝试 3 次
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if c.llm == nil {
		return nil, xerrors.Unavailable(nil, "generation provider is not configured")
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, BlogPrompt(req.Industry, req.Location, req.Topic, req.Style)),
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	callOpts := []llms.CallOption{
		llms.WithModel(c.model),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(Temperature),
		llms.WithPresencePenalty(PresencePenalty),
		llms.WithFrequencyPenalty(FrequencyPenalty),
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.complete(ctx, messages, callOpts)
		if err == nil {
			c.metrics.GenerationAttempt(true)
			c.metrics.GenerationTokens(result.TokensUsed)
			return result, nil
		}
		c.metrics.GenerationAttempt(false)
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		c.log.Warn("generation attempt failed",
			zap.Int("attempt", attempt),
			zap.String("industry", req.Industry),
			zap.String("location", req.Location),
			zap.Error(err),
		)
		if err := c.sleep(ctx, c.retryDelay*time.Duration(attempt)); err != nil {
			return nil, xerrors.Wrap(xerrors.KindUnavailable, err, "generation cancelled")
		}
	}

	c.log.Error("failed to generate blog content",
		zap.Int("attempts", c.maxAttempts),
		zap.String("industry", req.Industry),
		zap.String("location", req.Location),
		zap.Error(lastErr),
	)
	return nil, xerrors.Wrap(xerrors.KindRetryExhausted, lastErr,
		fmt.Sprintf("failed to generate blog content after %d attempts", c.maxAttempts))
}

func (c *Client) complete(ctx context.Context, messages []llms.MessageContent, opts []llms.CallOption) (*Result, error) {
	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errEmptyResponse
	}
	choice := resp.Choices[0]
	return &Result{
		Content:      choice.Content,
		TokensUsed:   intInfo(choice.GenerationInfo, "TotalTokens"),
		FinishReason: choice.StopReason,
	}, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
