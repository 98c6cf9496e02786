package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径，如 ./exports
	baseURL  string // 为空时返回相对路径
	log      *zap.Logger
}

// NewLocalStorage 创建目录失败只记录日志，写入时再报错
func NewLocalStorage(basePath, baseURL string, log *zap.Logger) *LocalStorage {
	log = log.With(zap.String("component", "storage"))
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		log.Error("create storage dir failed", zap.String("path", basePath), zap.Error(err))
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL, log: log}
}

// Save 先写临时文件再重命名，避免读到写了一半的文件
func (s *LocalStorage) Save(ctx context.Context, r io.Reader, name, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	dir, err := s.resolve(folder)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename file: %w", err)
	}

	return s.URL(filepath.Join(folder, name)), nil
}

// Delete path 可以是 URL 或相对路径
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.baseURL != "" {
		path = strings.TrimPrefix(path, strings.TrimSuffix(s.baseURL, "/"))
	}
	full, err := s.resolve(strings.TrimPrefix(path, "/"))
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(path string) string {
	urlPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
	if s.baseURL == "" {
		return "/" + urlPath
	}
	return strings.TrimSuffix(s.baseURL, "/") + "/" + urlPath
}

// resolve 拒绝跳出 basePath 的路径
func (s *LocalStorage) resolve(rel string) (string, error) {
	full := filepath.Join(s.basePath, rel)
	base := filepath.Clean(s.basePath)
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", rel)
	}
	return full, nil
}
