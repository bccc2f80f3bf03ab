package idgen

import (
	"crypto/rand"
	"fmt"
)

// 只含字母和数字（无符号），与旧网关的 nanoid customAlphabet 对齐
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength 实体ID默认长度
const DefaultLength = 12

// New 生成指定长度的随机短ID
// 唯一性最终由数据库唯一约束兜底，这里只保证碰撞概率足够低
func New(length int) string {
	if length < 1 {
		panic(fmt.Sprintf("idgen: length must be at least 1, got %d", length))
	}

	id := make([]byte, length)
	buf := make([]byte, length)
	filled := 0
	for filled < length {
		if _, err := rand.Read(buf); err != nil {
			// crypto/rand 读失败说明运行环境已不可用
			panic(fmt.Sprintf("idgen: crypto/rand failed: %v", err))
		}
		for _, b := range buf {
			// 拒绝采样，避免模运算偏差（62*4=248）
			if b >= 248 {
				continue
			}
			id[filled] = alphabet[int(b)%len(alphabet)]
			filled++
			if filled == length {
				break
			}
		}
	}
	return string(id)
}

// NewDefault 生成默认长度（12位）的ID
func NewDefault() string {
	return New(DefaultLength)
}
