package draft

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jacl-coder/BrawlLadder-Server/internal/metrics"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSession 用户没有进行中的选角
	ErrNoSession = errors.New("没有进行中的选角")
	// ErrSessionExists 用户已有进行中的选角
	ErrSessionExists = errors.New("已有进行中的选角")
)

// PickResult 一次用户选择后的结果
type PickResult struct {
	Session Session  `json:"session"`
	AIPicks []string `json:"ai_picks,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
	closed  bool
}

// Manager 按用户管理选角会话，每个用户同时只有一个会话
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	profile  string
	metrics  metrics.Metrics
	log      *logrus.Entry
}

// NewManager 创建选角会话管理器
func NewManager(profile string, m metrics.Metrics, log *logrus.Entry) *Manager {
	if m == nil {
		m = metrics.Noop()
	}
	return &Manager{
		sessions: make(map[string]*sessionEntry),
		profile:  profile,
		metrics:  m,
		log:      log,
	}
}

// Start 为用户开启新的选角
func (m *Manager) Start(ownerID string) (Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return Session{}, fmt.Errorf("生成会话ID失败: %w", err)
	}

	m.mu.Lock()
	if e, ok := m.sessions[ownerID]; ok {
		m.mu.Unlock()
		// 会话锁总是在管理器锁之外获取
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.session.snapshot(), ErrSessionExists
	}
	s := NewSession(id, ownerID, m.profile)
	m.sessions[ownerID] = &sessionEntry{session: s}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"owner_id":   ownerID,
		"session_id": id,
		"ai_bans":    s.AIBans,
	}).Info("选角会话已创建")

	return s.snapshot(), nil
}

// Ban 用户禁用英雄，名字会先被解析
func (m *Manager) Ban(ownerID, input string) (Session, error) {
	e, err := m.entry(ownerID)
	if err != nil {
		return Session{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Session{}, ErrNoSession
	}

	name, ok := ResolveBrawler(input)
	if !ok {
		return e.session.snapshot(), RejectUnknown
	}
	if err := e.session.ApplyUserBan(name); err != nil {
		return e.session.snapshot(), err
	}
	return e.session.snapshot(), nil
}

// Pick 用户选择英雄，随后执行 AI 回合；选角完成时返回评估并结束会话
func (m *Manager) Pick(ownerID, input string) (PickResult, error) {
	e, err := m.entry(ownerID)
	if err != nil {
		return PickResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return PickResult{}, ErrNoSession
	}

	s := e.session
	name, ok := ResolveBrawler(input)
	if !ok {
		return PickResult{Session: s.snapshot()}, RejectUnknown
	}
	if err := s.ApplyUserPick(name); err != nil {
		return PickResult{Session: s.snapshot()}, err
	}

	result := PickResult{AIPicks: s.RunAIPicks()}

	if summary, done := s.Summarize(); done {
		result.Summary = &summary
		e.closed = true
		m.remove(ownerID, e)
		m.metrics.DraftFinished(string(summary.Winner))
		m.log.WithFields(logrus.Fields{
			"owner_id":   ownerID,
			"session_id": s.ID,
			"winner":     summary.Winner,
			"user_score": summary.UserScore,
			"ai_score":   summary.AIScore,
		}).Info("选角结束")
	}

	result.Session = s.snapshot()
	return result, nil
}

// Cancel 放弃用户的选角
func (m *Manager) Cancel(ownerID string) error {
	m.mu.Lock()
	e, ok := m.sessions[ownerID]
	if ok {
		delete(m.sessions, ownerID)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNoSession
	}

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	m.log.WithField("owner_id", ownerID).Info("选角会话已取消")
	return nil
}

// Get 查询用户当前的选角
func (m *Manager) Get(ownerID string) (Session, bool) {
	e, err := m.entry(ownerID)
	if err != nil {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Session{}, false
	}
	return e.session.snapshot(), true
}

// Count 进行中的会话数
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) entry(ownerID string) (*sessionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[ownerID]
	if !ok {
		return nil, ErrNoSession
	}
	return e, nil
}

func (m *Manager) remove(ownerID string, e *sessionEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[ownerID] == e {
		delete(m.sessions, ownerID)
	}
}

// snapshot 返回不共享切片的副本
func (s *Session) snapshot() Session {
	c := *s
	c.UserBans = append([]string(nil), s.UserBans...)
	c.AIBans = append([]string(nil), s.AIBans...)
	c.UserPicks = append([]string(nil), s.UserPicks...)
	c.AIPicks = append([]string(nil), s.AIPicks...)
	return c
}
