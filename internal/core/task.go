package core

import (
	"context"
	"time"
)

// TaskCreator 定义任务构造函数签名
type TaskCreator func() Task

// Task 任务接口
type Task interface {
	// Run 执行任务逻辑
	// params 是从配置文件传入的动态参数
	Run(ctx context.Context, params map[string]any) error

	// Identifier 返回任务唯一标识 (用于日志)
	Identifier() string
}

// IntParam 读取整数参数，YAML 中的数字可能解析为 int 或 float64
func IntParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// DurationParam 支持 "1s" 这样的字符串，或以秒为单位的数字
func DurationParam(params map[string]any, key string, def time.Duration) time.Duration {
	switch v := params[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return def
}

func StringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}
