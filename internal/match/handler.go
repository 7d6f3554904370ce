package match

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/tier"
	"github.com/sirupsen/logrus"
)

// TierTrigger 按需触发段位同步
type TierTrigger interface {
	RunNow(ctx context.Context) (tier.Report, error)
}

// Handler 匹配服务的HTTP管理接口
type Handler struct {
	service *Service
	tiers   TierTrigger
	log     *logrus.Entry
}

// NewHandler 创建处理器，tiers 可以为空
func NewHandler(service *Service, tiers TierTrigger, log *logrus.Entry) *Handler {
	return &Handler{service: service, tiers: tiers, log: log}
}

// RegisterHandlers 注册HTTP处理器
func (h *Handler) RegisterHandlers(mux *http.ServeMux) {
	// 健康检查端点
	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/match/status", h.handleMatchStatus)
	mux.HandleFunc("/match/active", h.handleActiveMatches)
	mux.HandleFunc("/match/", h.handleMatch)
	mux.HandleFunc("/tiers/sync", h.handleTierSync)
}

// 通用响应
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 匹配状态响应
type matchStatusResponse struct {
	Queues        map[models.QueueID]int `json:"queues"`
	ActiveMatches int                    `json:"active_matches"`
}

// handleHealth 处理健康检查请求
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	if h.service == nil {
		http.Error(w, "服务未初始化", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleMatchStatus 返回每个队列的人数与活跃对局数
func (h *Handler) handleMatchStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, matchStatusResponse{
		Queues:        h.service.QueueSizes(),
		ActiveMatches: len(h.service.ActiveMatches()),
	})
}

// handleActiveMatches 返回所有活跃对局
func (h *Handler) handleActiveMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: h.service.ActiveMatches()})
}

// handleMatch 按ID查询活跃对局
func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/match/")
	if id == "" {
		http.Error(w, "缺少对局ID", http.StatusBadRequest)
		return
	}

	m, ok := h.service.Get(id)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "对局不存在或已结束"})
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: m})
}

// handleTierSync 立即执行一轮段位同步
func (h *Handler) handleTierSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}
	if h.tiers == nil {
		http.Error(w, "段位同步未启用", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	report, err := h.tiers.RunNow(ctx)
	if err != nil {
		h.log.WithError(err).Error("段位同步失败")
		h.writeJSON(w, http.StatusInternalServerError, apiResponse{Success: false, Message: "段位同步失败"})
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "段位同步完成", Data: report})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Warn("编码响应失败")
	}
}
