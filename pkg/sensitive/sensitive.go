package sensitive

import (
	"fmt"
	"strings"

	"github.com/importcjj/sensitive"
)

// Word 敏感词过滤器，词表来自配置或词典文件
type Word struct {
	Filter *sensitive.Filter
}

// NewWord 使用给定词表构造过滤器，匹配不区分大小写
func NewWord(words []string) *Word {
	filter := sensitive.New()
	for _, w := range words {
		w = filter.RemoveNoise(strings.ToLower(strings.TrimSpace(w)))
		if w != "" {
			filter.AddWord(w)
		}
	}
	return &Word{Filter: filter}
}

// Load 合并配置词表与词典文件，两者都为空时返回 nil
func Load(words []string, dictPath string) (*Word, error) {
	if len(words) == 0 && dictPath == "" {
		return nil, nil
	}
	w := NewWord(words)
	if dictPath != "" {
		if err := w.LoadDict(dictPath); err != nil {
			return nil, fmt.Errorf("load word dict %s: %w", dictPath, err)
		}
	}
	return w, nil
}

// LoadDict 追加词典文件，每行一个词，词条需为小写
func (w *Word) LoadDict(path string) error {
	return w.Filter.LoadWordDict(path)
}

// Validate 返回是否通过以及命中的第一个词
func (w *Word) Validate(content string) (bool, string) {
	return w.Filter.Validate(strings.ToLower(content))
}
