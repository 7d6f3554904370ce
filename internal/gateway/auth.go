package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jacl-coder/BrawlLadder-Server/config"
)

// ErrUnauthorized 令牌缺失或无效
var ErrUnauthorized = errors.New("未授权")

// Claims 客户端令牌声明，Subject 为平台用户ID
type Claims struct {
	Name      string `json:"name,omitempty"`
	Moderator bool   `json:"mod,omitempty"`
	jwt.RegisteredClaims
}

// AuthHandler 签发与校验客户端令牌（HS256）
type AuthHandler struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// AuthResponse 认证响应
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Actor   *Actor `json:"actor,omitempty"`
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg config.AuthConfig) *AuthHandler {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthHandler{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *AuthHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/auth/validate", h.handleValidate)
}

// Issue 为玩家签发令牌
func (h *AuthHandler) Issue(actor Actor) (string, error) {
	now := h.now()
	claims := Claims{
		Name:      actor.DisplayName,
		Moderator: actor.Moderator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    h.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	return token, nil
}

// ValidateToken 校验令牌并返回发起者
func (h *AuthHandler) ValidateToken(token string) (Actor, error) {
	if token == "" {
		return Actor{}, ErrUnauthorized
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return h.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return Actor{}, fmt.Errorf("%w: 令牌缺少用户ID", ErrUnauthorized)
	}

	return Actor{
		ID:          claims.Subject,
		DisplayName: claims.Name,
		Moderator:   claims.Moderator,
	}, nil
}

// tokenFromRequest 依次从 Authorization 头和 token 查询参数获取令牌
func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// handleValidate 处理令牌验证请求
func (h *AuthHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	actor, err := h.ValidateToken(tokenFromRequest(r))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(AuthResponse{Success: false, Message: "令牌无效或已过期"})
		return
	}

	json.NewEncoder(w).Encode(AuthResponse{Success: true, Message: "令牌有效", Actor: &actor})
}
