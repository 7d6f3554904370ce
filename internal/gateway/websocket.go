// websocket.go

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jacl-coder/BrawlLadder-Server/internal/match"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	"github.com/sirupsen/logrus"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 * 1024

	// 每个连接的发送缓冲
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 客户端通过令牌认证，不限制来源
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 服务器推送的帧类型
const (
	FrameReply       = "reply"
	FrameMatchUpdate = "match_update"
	FrameMessage     = "message"
)

// outFrame 服务器推送的帧
type outFrame struct {
	Type    string      `json:"type"`
	OK      *bool       `json:"ok,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// clientConn 一个已认证的 WebSocket 连接
type clientConn struct {
	id    string
	actor Actor
	send  chan []byte
}

// Hub 管理 WebSocket 客户端：接收命令帧、推送对局更新与频道消息
type Hub struct {
	auth       *AuthHandler
	dispatcher *Dispatcher
	limiter    *RateLimiter
	log        *logrus.Entry

	mu      sync.RWMutex
	clients map[string]*clientConn
	players map[string]int // 玩家ID -> 连接数
}

// NewHub 创建连接管理器，limiter 可以为空，dispatcher 可以稍后通过 SetDispatcher 设置
func NewHub(auth *AuthHandler, dispatcher *Dispatcher, limiter *RateLimiter, log *logrus.Entry) *Hub {
	return &Hub{
		auth:       auth,
		dispatcher: dispatcher,
		limiter:    limiter,
		log:        log,
		clients:    make(map[string]*clientConn),
		players:    make(map[string]int),
	}
}

// SetDispatcher 设置命令分发器，需在开始接受连接前调用
func (h *Hub) SetDispatcher(d *Dispatcher) {
	h.dispatcher = d
}

// ServeHTTP 认证后升级为 WebSocket 连接
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, err := h.auth.ValidateToken(tokenFromRequest(r))
	if err != nil {
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket升级失败")
		return
	}

	c := &clientConn{
		id:    uuid.New().String(),
		actor: actor,
		send:  make(chan []byte, sendBuffer),
	}
	h.register(c)

	go h.writePump(conn, c)
	go h.readPump(conn, c)
}

func (h *Hub) register(c *clientConn) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.players[c.actor.ID]++
	total := len(h.clients)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"player_id": c.actor.ID, "conn_id": c.id, "total": total}).Info("客户端已连接")
}

func (h *Hub) unregister(c *clientConn) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	if h.players[c.actor.ID]--; h.players[c.actor.ID] <= 0 {
		delete(h.players, c.actor.ID)
	}
	close(c.send)
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"player_id": c.actor.ID, "conn_id": c.id}).Info("客户端已断开")
}

// readPump 从WebSocket读取命令帧
func (h *Hub) readPump(conn *websocket.Conn, c *clientConn) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Warn("WebSocket读取错误")
			}
			return
		}
		h.handleFrame(c, message)
	}
}

// writePump 向WebSocket写入数据并定时发送 ping
func (h *Hub) writePump(conn *websocket.Conn, c *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame 解码命令并把回复发回同一连接
func (h *Hub) handleFrame(c *clientConn, data []byte) {
	var reply Reply
	if h.limiter != nil && !h.limiter.Allow("ws:"+c.actor.ID) {
		reply = Reply{Text: h.dispatcher.errorText(ErrRateLimited), Err: ErrRateLimited}
	} else if cmd, err := DecodeFrame(data); err != nil {
		reply = Reply{Text: h.dispatcher.errorText(err), Err: err}
	} else {
		reply = h.dispatcher.Dispatch(context.Background(), Request{Actor: c.actor, Command: cmd})
	}

	ok := reply.OK()
	h.sendTo(c, outFrame{Type: FrameReply, OK: &ok, Payload: reply})
}

// sendTo 发送到单个连接；缓冲已满时丢弃
func (h *Hub) sendTo(c *clientConn, f outFrame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.log.WithError(err).Warn("编码推送消息失败")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.WithField("conn_id", c.id).Warn("发送缓冲已满，丢弃消息")
	}
}

// Broadcast 推送给所有连接
func (h *Hub) Broadcast(frameType string, payload interface{}) {
	data, err := json.Marshal(outFrame{Type: frameType, Payload: payload})
	if err != nil {
		h.log.WithError(err).Warn("编码推送消息失败")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.WithField("conn_id", c.id).Warn("发送缓冲已满，丢弃消息")
		}
	}
}

// MatchUpdated 对局状态变化时推送快照
func (h *Hub) MatchUpdated(m models.Match) {
	h.Broadcast(FrameMatchUpdate, m)
}

// IsOffline 有连接的玩家视为在线；没有连接时不提供信息
func (h *Hub) IsOffline(playerID string) (bool, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.players[playerID] > 0 {
		return false, true
	}
	return false, false
}

// Connections 当前连接数
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastNotifier 转发频道消息的同时推送给 WebSocket 客户端
type BroadcastNotifier struct {
	next platform.Notifier
	hub  *Hub
}

// NewBroadcastNotifier 包装通知器
func NewBroadcastNotifier(next platform.Notifier, hub *Hub) *BroadcastNotifier {
	return &BroadcastNotifier{next: next, hub: hub}
}

type channelMessage struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Edit      bool   `json:"edit,omitempty"`
}

// PostMessage 发送消息并推送
func (n *BroadcastNotifier) PostMessage(ctx context.Context, channelID, content string) (string, error) {
	id, err := n.next.PostMessage(ctx, channelID, content)
	if err != nil {
		return "", err
	}
	n.hub.Broadcast(FrameMessage, channelMessage{ChannelID: channelID, MessageID: id, Content: content})
	return id, nil
}

// EditMessage 编辑消息并推送
func (n *BroadcastNotifier) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if err := n.next.EditMessage(ctx, channelID, messageID, content); err != nil {
		return err
	}
	n.hub.Broadcast(FrameMessage, channelMessage{ChannelID: channelID, MessageID: messageID, Content: content, Edit: true})
	return nil
}

// Presences 组合多个在线状态来源：任一来源确认在线即在线，否则取第一个确认离线的来源
type Presences []match.Presence

// IsOffline 实现 match.Presence
func (ps Presences) IsOffline(playerID string) (bool, bool) {
	offline, known := false, false
	for _, p := range ps {
		if p == nil {
			continue
		}
		off, ok := p.IsOffline(playerID)
		if !ok {
			continue
		}
		if !off {
			return false, true
		}
		offline, known = true, true
	}
	return offline, known
}
