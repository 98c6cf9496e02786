package xerr

const (
	SERVER_COMMON_ERROR = 100001
	REQUEST_PARAM_ERROR = 100002
	DB_ERROR            = 100004

	ErrInternalServer = 500 // HTTP 500

	ErrBadRequest       = 1000 // HTTP 400
	ErrInvalidInput     = 1001 // HTTP 400
	ErrMissingParameter = 1002 // HTTP 400
	ErrInvalidJSON      = 1003 // HTTP 400
	ErrBlockedWord      = 1004 // HTTP 400

	ErrNotFound         = 1300 // HTTP 404
	ErrResourceNotFound = 1301 // HTTP 404

	ErrConflict = 1400 // HTTP 409

	ErrUpstreamUnavailable = 1500 // HTTP 503
	ErrGenerationFailed    = 1501 // HTTP 502
)

// Message 返回错误码的默认描述
func Message(code int) string {
	switch code {
	case SERVER_COMMON_ERROR, ErrInternalServer:
		return "internal server error"
	case REQUEST_PARAM_ERROR, ErrBadRequest, ErrInvalidInput, ErrMissingParameter:
		return "invalid request parameters"
	case ErrInvalidJSON:
		return "malformed request body"
	case ErrBlockedWord:
		return "input contains blocked word"
	case DB_ERROR:
		return "database error occurred"
	case ErrNotFound, ErrResourceNotFound:
		return "resource not found"
	case ErrConflict:
		return "resource already exists or violates constraints"
	case ErrUpstreamUnavailable:
		return "upstream service unavailable"
	case ErrGenerationFailed:
		return "content generation failed"
	default:
		return "unknown error"
	}
}
