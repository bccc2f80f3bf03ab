package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/domain"
)

// WebhookNotifier 同意状态变更 webhook 通知器
// 超时 + 有限重试，重试耗尽即放弃（事件流才是可靠通道，webhook 是旁路）
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 webhook 通知器
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

var _ ConsentNotifier = (*WebhookNotifier)(nil)

// NotifyConsentChange POST 事件到配置的 webhook 地址
func (n *WebhookNotifier) NotifyConsentChange(ctx context.Context, event domain.ConsentEvent) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	n.logger.Debug("consent webhook delivered",
		zap.String("contact_id", event.ContactID),
		zap.String("event", event.Event),
		zap.Int("status", resp.StatusCode()))
	return nil
}
