package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Danne56/chatbot-api/internal/config"
	"github.com/Danne56/chatbot-api/internal/domain"
	"github.com/Danne56/chatbot-api/internal/service"
)

// ContactHandler 联系人管理 Handler
type ContactHandler struct {
	contactService service.ContactService
	lookupMode     config.LookupNotFoundMode
	logger         *zap.Logger
}

// NewContactHandler 创建联系人 Handler
func NewContactHandler(contactService service.ContactService, lookupMode config.LookupNotFoundMode, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		lookupMode:     lookupMode,
		logger:         logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	// CreateContact
	case path == "/api/contacts" && r.Method == http.MethodPost:
		h.CreateContact(w, r)
	// ExportConsent
	case path == "/api/contacts/export" && r.Method == http.MethodGet:
		h.ExportConsent(w, r)
	// GetContactByPhone
	case strings.HasPrefix(path, "/api/contacts/") && r.Method == http.MethodGet:
		phone := strings.TrimPrefix(path, "/api/contacts/")
		if phone != "" && !strings.Contains(phone, "/") {
			h.GetContactByPhone(w, r, phone)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// CreateContact 创建联系人（已存在则幂等返回现有ID）
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := readBodyJSON(r, 2<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON body"})
		return
	}

	values, verr := validatePayload(payload, createContactRules)
	if verr != nil {
		respondError(w, h.logger, "create contact", verr)
		return
	}

	resp, err := h.contactService.Register(ctx, service.RegisterContactRequest{
		PhoneNumber: values["phone_number"],
	})
	if err != nil {
		respondError(w, h.logger, "create contact", err)
		return
	}

	status := http.StatusCreated
	if resp.Existed {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"success": true,
		"id":      resp.ID,
		"existed": resp.Existed,
	})
}

// GetContactByPhone 按手机号查询联系人
// 未命中的返回形态由部署配置决定：200+{data:null} 或 404
func (h *ContactHandler) GetContactByPhone(w http.ResponseWriter, r *http.Request, phoneNumber string) {
	ctx := r.Context()

	contact, err := h.contactService.Lookup(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if h.lookupMode == config.LookupNotFound404 {
				writeJSON(w, http.StatusNotFound, map[string]any{"error": "Contact not found"})
			} else {
				writeJSON(w, http.StatusOK, map[string]any{"data": nil})
			}
			return
		}
		respondError(w, h.logger, "get contact", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": contact})
}

// ExportConsent 导出联系人+同意状态 Excel
func (h *ContactHandler) ExportConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.contactService.ExportConsent(ctx)
	if err != nil {
		respondError(w, h.logger, "export consent", err)
		return
	}

	data, err := GenerateConsentExport(rows)
	if err != nil {
		respondError(w, h.logger, "export consent", err)
		return
	}

	filename := fmt.Sprintf("contacts_consent_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
