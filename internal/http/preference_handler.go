package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/domain"
	"github.com/Danne56/chatbot-api/internal/service"
)

// PreferenceHandler 用户偏好 Handler
type PreferenceHandler struct {
	prefService service.PreferenceService
	logger      *zap.Logger
}

// NewPreferenceHandler 创建用户偏好 Handler
func NewPreferenceHandler(prefService service.PreferenceService, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		prefService: prefService,
		logger:      logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *PreferenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	// OptIn
	case path == "/api/preferences/opt-in" && r.Method == http.MethodPost:
		h.transition(w, r, "opt-in", h.prefService.OptIn)
	// OptOut
	case path == "/api/preferences/opt-out" && r.Method == http.MethodPost:
		h.transition(w, r, "opt-out", h.prefService.OptOut)
	// MarkIntroSent
	case path == "/api/preferences/intro-sent" && r.Method == http.MethodPost:
		h.transition(w, r, "intro-sent", h.prefService.MarkIntroSent)
	// ResetDailyFlags
	case path == "/api/preferences/reset-daily" && r.Method == http.MethodPost:
		h.ResetDailyFlags(w, r)
	// GetPreference
	case strings.HasPrefix(path, "/api/preferences/") && r.Method == http.MethodGet:
		contactID := strings.TrimPrefix(path, "/api/preferences/")
		if contactID != "" && !strings.Contains(contactID, "/") {
			h.GetPreference(w, r, contactID)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// transition opt-in / opt-out / intro-sent 的统一入口：校验 -> 转移
func (h *PreferenceHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	apply func(ctx context.Context, contactID string) error,
) {
	ctx := r.Context()

	var payload map[string]any
	if err := readBodyJSON(r, 2<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON body"})
		return
	}

	values, verr := validatePayload(payload, preferenceTransitionRules)
	if verr != nil {
		respondError(w, h.logger, op, verr)
		return
	}

	if err := apply(ctx, values["contact_id"]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// strict 策略：联系人存在但无偏好行
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Preferences not found"})
			return
		}
		respondError(w, h.logger, op, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetPreference 按联系人ID查询偏好
func (h *PreferenceHandler) GetPreference(w http.ResponseWriter, r *http.Request, contactID string) {
	ctx := r.Context()

	pref, err := h.prefService.Get(ctx, contactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Preferences not found"})
			return
		}
		respondError(w, h.logger, "get preference", err)
		return
	}

	writeJSON(w, http.StatusOK, pref)
}

// ResetDailyFlags 批量清除每日标记
func (h *PreferenceHandler) ResetDailyFlags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	affected, err := h.prefService.ResetDailyFlags(ctx)
	if err != nil {
		respondError(w, h.logger, "reset daily flags", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"affected_count": affected,
	})
}
