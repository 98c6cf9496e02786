package ai

import (
	"math"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// wordTokenRatio 词数到 token 数的粗略换算，仅在分词器不可用时使用
const wordTokenRatio = 1.3

// CountTokens 使用模型对应的 tiktoken 编码计算 token 数。
// 分词器加载失败时退化为 词数*1.3 的估算值，此时 exact 为 false。
func CountTokens(model, text string, log *zap.Logger) (n int, exact bool) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if log != nil {
			log.Warn("error counting tokens, using word estimate", zap.String("model", model), zap.Error(err))
		}
		return EstimateTokens(text), false
	}
	return len(enc.Encode(text, nil, nil)), true
}

// EstimateTokens 近似值，不可当作精确计数
func EstimateTokens(text string) int {
	return int(math.Round(float64(len(strings.Fields(text))) * wordTokenRatio))
}

// CountTokens 使用客户端配置的模型
func (c *Client) CountTokens(text string) (int, bool) {
	return CountTokens(c.model, text, c.log)
}
