package storage

import (
	"context"
	"io"
)

// FileStorage 文件存储接口，可替换为 OSS、S3 等实现
type FileStorage interface {
	// Save 写入 folder/name，已存在时覆盖，返回访问地址
	Save(ctx context.Context, r io.Reader, name, folder string) (string, error)

	// Delete 文件不存在时视为成功
	Delete(ctx context.Context, path string) error

	// URL 存储路径对应的访问地址
	URL(path string) string
}
