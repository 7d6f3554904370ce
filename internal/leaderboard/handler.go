package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Ranking 排行榜查询
type Ranking interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// Handler 排行榜HTTP接口
type Handler struct {
	ranking Ranking
	log     *logrus.Entry
}

// NewHandler 创建排行榜处理器
func NewHandler(ranking Ranking, log *logrus.Entry) *Handler {
	return &Handler{ranking: ranking, log: log}
}

// RegisterHandlers 注册HTTP处理器
func (h *Handler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/leaderboard", h.handleLeaderboard)
}

// Response 排行榜响应
type Response struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Data    []Entry `json:"data"`
}

// handleLeaderboard 处理排行榜查询，limit 取值 1..100
func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.send(w, http.StatusMethodNotAllowed, Response{Message: "仅支持GET方法"})
		return
	}

	limit := defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= maxLimit {
			limit = l
		}
	}

	entries, err := h.ranking.Top(r.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("查询排行榜失败")
		h.send(w, http.StatusInternalServerError, Response{Message: "查询排行榜失败"})
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	h.log.WithField("count", len(entries)).Debug("排行榜查询")
	h.send(w, http.StatusOK, Response{Success: true, Data: entries})
}

func (h *Handler) send(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.WithError(err).Warn("写入响应失败")
	}
}
