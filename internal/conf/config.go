package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App                AppConfig           `mapstructure:"app"`
	Server             ServerConfig        `mapstructure:"server"`
	Database           DatabaseConfig      `mapstructure:"database"`
	OpenAI             OpenAIConfig        `mapstructure:"openai"`
	Geocoding          GeocodingConfig     `mapstructure:"geocoding"`
	ContentFilter      ContentFilterConfig `mapstructure:"content_filter"`
	Storage            StorageConfig       `mapstructure:"storage"`
	RateLimitPerMinute int                 `mapstructure:"rate_limit_per_minute"` // 暂未启用
	CacheTTL           int                 `mapstructure:"cache_ttl"`             // 暂未启用，单位秒
	LogLevel           string              `mapstructure:"log_level"`
	Jobs               []JobConfig         `mapstructure:"jobs"`
}

type AppConfig struct {
	ProjectName string `mapstructure:"project_name"`
	Version     string `mapstructure:"version"`
	Description string `mapstructure:"description"`
	APIV1Str    string `mapstructure:"api_v1_str"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	LogLevel     string `mapstructure:"log_level"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type GeocodingConfig struct {
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ContentFilterConfig struct {
	Words    []string `mapstructure:"words"`
	DictPath string   `mapstructure:"dict_path"` // 每行一个词
}

// StorageConfig 导出文件的本地存储
type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"`
}

type JobConfig struct {
	Name    string                 `mapstructure:"name"`
	Handler string                 `mapstructure:"handler"`
	Cron    string                 `mapstructure:"cron"`
	Enable  bool                   `mapstructure:"enable"`
	Params  map[string]interface{} `mapstructure:"params"`
}

// HandlerName 未配置 handler 时使用任务名
func (j JobConfig) HandlerName() string {
	if j.Handler != "" {
		return j.Handler
	}
	return j.Name
}

var defaults = map[string]any{
	"app.project_name":         "LocalBlogGenius",
	"app.version":              "1.0.0",
	"app.description":          "API for generating localized blog content",
	"app.api_v1_str":           "/api/v1",
	"server.port":              ":8000",
	"server.cors_origins":      []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:8000"},
	"database.url":             "sqlite://sql_app.db",
	"database.log_level":       "warning",
	"database.max_open_conns":  30,
	"database.max_idle_conns":  15,
	"openai.api_key":           "",
	"openai.base_url":          "",
	"openai.model":             "gpt-4-turbo-preview",
	"openai.max_tokens":        2000,
	"geocoding.url":            "https://nominatim.openstreetmap.org/search",
	"geocoding.user_agent":     "LocalBlogGenius/1.0",
	"geocoding.timeout":        "10s",
	"content_filter.words":     []string{},
	"content_filter.dict_path": "",
	"storage.base_path":        "exports",
	"storage.base_url":         "",
	"rate_limit_per_minute":    10,
	"cache_ttl":                3600,
	"log_level":                "info",
}

// 沿用原有的扁平环境变量名
var envAliases = map[string][]string{
	"app.project_name":      {"PROJECT_NAME"},
	"app.version":           {"VERSION"},
	"app.description":       {"DESCRIPTION"},
	"app.api_v1_str":        {"API_V1_STR"},
	"server.port":           {"SERVER_PORT"},
	"server.cors_origins":   {"BACKEND_CORS_ORIGINS"},
	"database.url":          {"DATABASE_URL"},
	"database.log_level":    {"DATABASE_LOG_LEVEL"},
	"openai.api_key":        {"OPENAI_API_KEY"},
	"openai.base_url":       {"OPENAI_BASE_URL"},
	"openai.model":          {"OPENAI_MODEL"},
	"openai.max_tokens":     {"MAX_TOKENS", "OPENAI_MAX_TOKENS"},
	"geocoding.url":         {"GEOCODING_URL"},
	"geocoding.user_agent":  {"GEOCODING_USER_AGENT"},
	"geocoding.timeout":     {"GEOCODING_TIMEOUT"},
	"rate_limit_per_minute": {"RATE_LIMIT_PER_MINUTE"},
	"cache_ttl":             {"CACHE_TTL"},
	"storage.base_path":     {"STORAGE_BASE_PATH"},
	"log_level":             {"LOG_LEVEL"},
}

// LoadConfig 加载配置，path 为空或文件不存在时只使用默认值与环境变量
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // 自动读取环境变量
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// 显式展开环境变量
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.Server.CORSOrigins = cleanList(c.Server.CORSOrigins)
	c.ContentFilter.Words = cleanList(c.ContentFilter.Words)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("database.url must not be empty")
	}
	if c.OpenAI.MaxTokens <= 0 {
		return fmt.Errorf("openai.max_tokens must be positive, got %d", c.OpenAI.MaxTokens)
	}
	if !strings.HasPrefix(c.App.APIV1Str, "/") {
		return fmt.Errorf("app.api_v1_str must start with '/', got %q", c.App.APIV1Str)
	}
	for _, job := range c.Jobs {
		if job.Enable && (job.Name == "" || job.Cron == "") {
			return fmt.Errorf("enabled job requires name and cron: %+v", job)
		}
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
