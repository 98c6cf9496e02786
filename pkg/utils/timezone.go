package utils

import (
	"fmt"
	"strings"
	"time"
	// 容器镜像可能没有 zoneinfo
	_ "time/tzdata"
)

// LoadTimezone 校验并加载 IANA 时区名，例如 America/Chicago
func LoadTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty timezone")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// NowUTC 统一使用 UTC 记录生成时间
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatRFC3339 将时间格式化为 UTC 的 RFC3339 字符串
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
