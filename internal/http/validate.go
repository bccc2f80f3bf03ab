package httpapi

import (
	"strings"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// fieldRule 单个字段的声明式约束（存在性、字符串类型、trim 后长度区间）
// 每个操作一张约束表，在任何存储访问之前统一求值
type fieldRule struct {
	Field    string
	Required bool
	MinLen   int
	MaxLen   int // 0 表示不限
}

var (
	createContactRules = []fieldRule{
		{Field: "phone_number", Required: true, MinLen: 5, MaxLen: 20},
	}

	appendMessageRules = []fieldRule{
		{Field: "contact_id", Required: true, MinLen: 1, MaxLen: 21},
		{Field: "message_in", Required: true, MinLen: 1},
		{Field: "message_out"},
	}

	preferenceTransitionRules = []fieldRule{
		{Field: "contact_id", Required: true, MinLen: 1, MaxLen: 21},
	}
)

// validatePayload 对解码后的 JSON 对象求值约束表
// 返回 trim 过的字符串字段；可选字段缺席时不会出现在结果里
func validatePayload(payload map[string]any, rules []fieldRule) (map[string]string, *domain.ValidationError) {
	values := make(map[string]string, len(rules))
	var fields []domain.FieldError

	for _, rule := range rules {
		raw, present := payload[rule.Field]
		if !present || raw == nil {
			if rule.Required {
				fields = append(fields, domain.FieldError{Field: rule.Field, Reason: "is required"})
			}
			continue
		}

		str, ok := raw.(string)
		if !ok {
			fields = append(fields, domain.FieldError{Field: rule.Field, Reason: "must be a string"})
			continue
		}

		str = strings.TrimSpace(str)
		if rule.Required && str == "" {
			fields = append(fields, domain.FieldError{Field: rule.Field, Reason: "is required"})
			continue
		}
		if len(str) < rule.MinLen {
			fields = append(fields, domain.FieldError{Field: rule.Field, Reason: "is too short"})
			continue
		}
		if rule.MaxLen > 0 && len(str) > rule.MaxLen {
			fields = append(fields, domain.FieldError{Field: rule.Field, Reason: "is too long"})
			continue
		}
		values[rule.Field] = str
	}

	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	return values, nil
}
