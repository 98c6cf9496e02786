package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/iceymoss/local-blog-genius/pkg/xerr"
)

// Kind 错误分类
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnavailable
	KindPersistence
	KindRetryExhausted
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "upstream_unavailable"
	case KindPersistence:
		return "persistence"
	case KindRetryExhausted:
		return "retry_exhausted"
	default:
		return "internal"
	}
}

// HTTPStatus 分类对应的 HTTP 状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindRetryExhausted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) defaultCode() int {
	switch k {
	case KindValidation:
		return xerr.REQUEST_PARAM_ERROR
	case KindNotFound:
		return xerr.ErrResourceNotFound
	case KindConflict:
		return xerr.ErrConflict
	case KindUnavailable:
		return xerr.ErrUpstreamUnavailable
	case KindPersistence:
		return xerr.DB_ERROR
	case KindRetryExhausted:
		return xerr.ErrGenerationFailed
	default:
		return xerr.SERVER_COMMON_ERROR
	}
}

type CodeMsg struct {
	Kind Kind   // 错误分类
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

// 实现 error 接口
func (e CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e CodeMsg) Unwrap() error {
	return e.Err
}

// New 构造函数
func New(kind Kind, msg string) error {
	return CodeMsg{Kind: kind, Code: kind.defaultCode(), Msg: msg}
}

// Wrap 保留原始错误
func Wrap(kind Kind, err error, msg string) error {
	return CodeMsg{Kind: kind, Code: kind.defaultCode(), Msg: msg, Err: err}
}

// WithCode 使用指定错误码
func WithCode(kind Kind, code int, msg string) error {
	if msg == "" {
		msg = xerr.Message(code)
	}
	return CodeMsg{Kind: kind, Code: code, Msg: msg}
}

func Validation(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(entity string) error {
	return New(KindNotFound, entity+" not found")
}

func Conflict(msg string) error {
	return New(KindConflict, msg)
}

func Unavailable(err error, msg string) error {
	return Wrap(KindUnavailable, err, msg)
}

func Persistence(err error) error {
	return Wrap(KindPersistence, err, xerr.Message(xerr.DB_ERROR))
}

// As 从错误链中取出 CodeMsg
func As(err error) (CodeMsg, bool) {
	var cm CodeMsg
	if stderrors.As(err, &cm) {
		return cm, true
	}
	return CodeMsg{}, false
}

// KindOf 未分类的错误一律视为 KindInternal
func KindOf(err error) Kind {
	if cm, ok := As(err); ok {
		return cm.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
