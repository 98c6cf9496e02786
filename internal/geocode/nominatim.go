package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/conf"
	"github.com/iceymoss/local-blog-genius/internal/metrics"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"

	"go.uber.org/zap"
)

const (
	DefaultURL       = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "LocalBlogGenius/1.0"
)

// 地名优先级
var placeKeys = []string{"city", "town", "village", "suburb", "municipality"}

// Suggestion 地点联想结果
type Suggestion struct {
	Name     string         `json:"name"`
	FullName string         `json:"full_name"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

// Place Nominatim 返回的单条结果，只保留用到的字段
type Place struct {
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Class       string            `json:"class"`
	OSMType     string            `json:"osm_type"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Address     map[string]string `json:"address"`
}

// Client Nominatim 搜索客户端
type Client struct {
	Config  conf.GeocodingConfig
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	httpClient *http.Client
}

func NewClient(cfg conf.GeocodingConfig, log *zap.Logger, m *metrics.Metrics) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		Config:     cfg,
		Logger:     log.With(zap.String("component", "geocode")),
		Metrics:    m,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search 查询地点并转换为联想结果，不做重试与缓存
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	places, err := c.Lookup(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	suggestions := make([]Suggestion, 0, len(places))
	for _, p := range places {
		suggestions = append(suggestions, p.Suggestion())
	}
	return suggestions, nil
}

// Lookup 返回 Nominatim 原始结果
func (c *Client) Lookup(ctx context.Context, query string, limit int) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Config.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, err, "error processing location search")
	}
	// Nominatim 要求提供 User-Agent
	req.Header.Set("User-Agent", c.Config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Metrics.GeocodingRequest(false)
		c.Logger.Error("error searching locations", zap.String("query", query), zap.Error(err))
		return nil, xerrors.Unavailable(err, "error connecting to geocoding service")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Metrics.GeocodingRequest(false)
		_, _ = io.Copy(io.Discard, resp.Body)
		c.Logger.Error("geocoding service returned error status",
			zap.String("query", query), zap.Int("status", resp.StatusCode))
		return nil, xerrors.Unavailable(fmt.Errorf("status code %d", resp.StatusCode), "geocoding service unavailable")
	}

	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.Metrics.GeocodingRequest(false)
		c.Logger.Error("unexpected error in location search", zap.String("query", query), zap.Error(err))
		return nil, xerrors.Wrap(xerrors.KindInternal, err, "error processing location search")
	}
	c.Metrics.GeocodingRequest(true)
	return places, nil
}

func (p Place) Suggestion() Suggestion {
	typ := p.Type
	if typ == "" {
		typ = "unknown"
	}
	return Suggestion{
		Name:     p.PlaceName(),
		FullName: p.FullName(),
		Type:     typ,
		Metadata: map[string]any{
			"lat":      p.Lat,
			"lon":      p.Lon,
			"osm_type": p.OSMType,
			"class":    p.Class,
		},
	}
}

// PlaceName 依次取 city/town/village/suburb/municipality，否则取 display_name 第一段
func (p Place) PlaceName() string {
	for _, key := range placeKeys {
		if v := p.Address[key]; v != "" {
			return v
		}
	}
	name, _, _ := strings.Cut(p.DisplayName, ",")
	return name
}

// FullName 地名、州/省、国家，跳过已出现的部分
func (p Place) FullName() string {
	parts := make([]string, 0, 3)
	add := func(s string) {
		if s == "" {
			return
		}
		for _, existing := range parts {
			if existing == s {
				return
			}
		}
		parts = append(parts, s)
	}

	add(p.PlaceName())
	add(p.State())
	add(p.Country())
	return strings.Join(parts, ", ")
}

// State 州或省
func (p Place) State() string {
	if s := p.Address["state"]; s != "" {
		return s
	}
	return p.Address["province"]
}

func (p Place) Country() string {
	return p.Address["country"]
}
