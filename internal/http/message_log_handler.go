package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/domain"
	"github.com/Danne56/chatbot-api/internal/service"
)

// MessageLogHandler 消息日志 Handler
type MessageLogHandler struct {
	logService service.MessageLogService
	logger     *zap.Logger
}

// NewMessageLogHandler 创建消息日志 Handler
func NewMessageLogHandler(logService service.MessageLogService, logger *zap.Logger) *MessageLogHandler {
	return &MessageLogHandler{
		logService: logService,
		logger:     logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *MessageLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	// AppendMessage
	case path == "/api/messages" && r.Method == http.MethodPost:
		h.AppendMessage(w, r)
	// ListMessages
	case strings.HasPrefix(path, "/api/messages/") && r.Method == http.MethodGet:
		contactID := strings.TrimPrefix(path, "/api/messages/")
		if contactID != "" && !strings.Contains(contactID, "/") {
			h.ListMessages(w, r, contactID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// AppendMessage 记录一对入/出消息
func (h *MessageLogHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := readBodyJSON(r, 2<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON body"})
		return
	}

	values, verr := validatePayload(payload, appendMessageRules)
	if verr != nil {
		respondError(w, h.logger, "append message", verr)
		return
	}

	req := service.AppendMessageRequest{
		ContactID: values["contact_id"],
		MessageIn: values["message_in"],
	}
	if out, ok := values["message_out"]; ok && out != "" {
		req.MessageOut = &out
	}

	resp, err := h.logService.Append(ctx, req)
	if err != nil {
		respondError(w, h.logger, "append message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      resp.ID,
	})
}

// ListMessages 按联系人查询消息日志
func (h *MessageLogHandler) ListMessages(w http.ResponseWriter, r *http.Request, contactID string) {
	ctx := r.Context()

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	entries, err := h.logService.List(ctx, contactID, limit)
	if err != nil {
		respondError(w, h.logger, "list messages", err)
		return
	}

	if entries == nil {
		entries = []*domain.MessageLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}
