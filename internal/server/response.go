package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/iceymoss/local-blog-genius/internal/repo"
	"github.com/iceymoss/local-blog-genius/pkg/db/objects"
	xerrors "github.com/iceymoss/local-blog-genius/pkg/errors"
	"github.com/iceymoss/local-blog-genius/pkg/xerr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Items   any    `json:"items,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorBody struct {
	Success  bool   `json:"success"`
	Code     int    `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, items any, total int64) {
	c.JSON(http.StatusOK, envelope{Success: true, Total: &total, Items: items})
}

func respondItems(c *gin.Context, items any) {
	c.JSON(http.StatusOK, envelope{Success: true, Items: items})
}

// fail 按错误分类渲染，未分类错误只记录日志不外泄细节
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	cm, classified := xerrors.As(err)
	if !classified {
		s.log.Error("unclassified error",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody{
			Code:     xerr.SERVER_COMMON_ERROR,
			Category: xerrors.KindInternal.String(),
			Message:  xerr.Message(xerr.SERVER_COMMON_ERROR),
		})
		return
	}
	if cm.Kind.HTTPStatus() >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	c.JSON(cm.Kind.HTTPStatus(), errorBody{Code: cm.Code, Category: cm.Kind.String(), Message: cm.Msg})
}

// bindJSON 请求体格式错误视为校验错误
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.fail(c, xerrors.WithCode(xerrors.KindValidation, xerr.ErrInvalidJSON, "malformed request body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		s.fail(c, xerrors.Validation("id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// intQuery 缺省时返回 def
func (s *Server) intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.fail(c, xerrors.Validation("%s must be an integer", key))
		return 0, false
	}
	return n, true
}

func (s *Server) uintQuery(c *gin.Context, key string) (*uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.fail(c, xerrors.Validation("%s must be a positive integer", key))
		return nil, false
	}
	v := uint(n)
	return &v, true
}

func stringQuery(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

// page 解析 skip/limit，范围检查交给 service
func (s *Server) page(c *gin.Context, defaultLimit int) (repo.Page, bool) {
	skip, ok := s.intQuery(c, "skip", 0)
	if !ok {
		return repo.Page{}, false
	}
	limit, ok := s.intQuery(c, "limit", defaultLimit)
	if !ok {
		return repo.Page{}, false
	}
	return repo.Page{Skip: skip, Limit: limit}, true
}

type postResponse struct {
	ID         uint              `json:"id"`
	IndustryID uint              `json:"industry_id"`
	Industry   string            `json:"industry"`
	LocationID uint              `json:"location_id"`
	Location   string            `json:"location"`
	Topic      string            `json:"topic"`
	Content    string            `json:"content"`
	Style      string            `json:"style"`
	TokensUsed *int              `json:"tokens_used"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func toPost(p objects.BlogPost) postResponse {
	out := postResponse{
		ID:         p.ID,
		IndustryID: p.IndustryID,
		LocationID: p.LocationID,
		Topic:      p.Topic,
		Content:    p.Content,
		Style:      p.Style,
		TokensUsed: p.TokensUsed,
		Metadata:   p.Metadata,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Industry != nil {
		out.Industry = p.Industry.Name
	}
	if p.Location != nil {
		out.Location = p.Location.Name
	}
	return out
}

func toPosts(posts []objects.BlogPost) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPost(p))
	}
	return out
}

type locationResponse struct {
	objects.Location
	FullName string `json:"full_name"`
}

func toLocation(l objects.Location) locationResponse {
	return locationResponse{Location: l, FullName: l.FullName()}
}

func toLocations(locations []objects.Location) []locationResponse {
	out := make([]locationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, toLocation(l))
	}
	return out
}

type jobLogResponse struct {
	ID         uint       `json:"id"`
	JobName    string     `json:"job_name"`
	Handler    string     `json:"handler"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
}

func jobStatus(status int) string {
	switch status {
	case objects.JobStatusSuccess:
		return "success"
	case objects.JobStatusFailed:
		return "failed"
	default:
		return "running"
	}
}

func toJobLogs(logs []objects.SysJobLog) []jobLogResponse {
	out := make([]jobLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, jobLogResponse{
			ID:         l.ID,
			JobName:    l.JobName,
			Handler:    l.HandlerName,
			Status:     jobStatus(l.Status),
			Error:      l.ErrorMsg,
			DurationMs: l.DurationMs,
			StartTime:  l.StartTime,
			EndTime:    l.EndTime,
		})
	}
	return out
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
