// service.go

package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/jacl-coder/BrawlLadder-Server/internal/metrics"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	"github.com/jacl-coder/BrawlLadder-Server/internal/rating"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	"github.com/sirupsen/logrus"
)

// RatingBoard 积分变化后的排行榜更新
type RatingBoard interface {
	UpdateRatings(ctx context.Context, players []models.Player) error
}

// Observer 对局状态变化的订阅者
type Observer interface {
	MatchUpdated(m models.Match)
}

// Deps 匹配服务依赖
type Deps struct {
	Store     store.PlayerStore
	Archive   store.MatchArchive
	Board     RatingBoard
	Engine    *rating.Engine
	Notifier  platform.Notifier
	Presence  Presence
	Localizer platform.Localizer
	ChannelID string
	Metrics   metrics.Metrics
	Log       *logrus.Entry
}

// Service 匹配服务：队列、对局生命周期与赛后结算
type Service struct {
	cfg      config.MatchConfig
	rules    Rules
	registry *Registry
	queues   *QueueManager

	store     store.PlayerStore
	archive   store.MatchArchive
	board     RatingBoard
	engine    *rating.Engine
	notifier  platform.Notifier
	loc       platform.Localizer
	channelID string
	metrics   metrics.Metrics
	log       *logrus.Entry

	observersMu sync.RWMutex
	observers   []Observer

	now func() time.Time

	// 控制通道
	shutdown  chan struct{}
	done      chan struct{}
	isRunning bool
	runMu     sync.Mutex
}

// NewService 创建匹配服务
func NewService(cfg config.MatchConfig, deps Deps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop()
	}
	if deps.Engine == nil {
		deps.Engine = rating.NewEngine(rating.DefaultConfig())
	}
	if deps.Log == nil {
		deps.Log = logrus.WithField("component", "match")
	}

	registry := NewRegistry()
	s := &Service{
		cfg:       cfg,
		rules:     RulesFromConfig(cfg),
		registry:  registry,
		store:     deps.Store,
		archive:   deps.Archive,
		board:     deps.Board,
		engine:    deps.Engine,
		notifier:  deps.Notifier,
		loc:       deps.Localizer,
		channelID: deps.ChannelID,
		metrics:   deps.Metrics,
		log:       deps.Log,
		now:       time.Now,
	}
	s.queues = NewQueueManager(cfg.Queues, QueueSettingsFromConfig(cfg), registry, deps.Store, deps.Presence, deps.Metrics, deps.Log)
	return s
}

// AddObserver 注册状态订阅者
func (s *Service) AddObserver(o Observer) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, o)
}

// Start 启动超时检查循环
func (s *Service) Start() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.isRunning {
		return fmt.Errorf("匹配服务已经在运行")
	}

	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	s.shutdown = make(chan struct{})
	s.done = make(chan struct{})
	s.isRunning = true

	go s.sweepLoop(interval)

	s.log.WithField("sweep_interval", interval.String()).Info("匹配服务启动")
	return nil
}

// Stop 停止超时检查循环
func (s *Service) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if !s.isRunning {
		return
	}

	close(s.shutdown)
	<-s.done
	s.isRunning = false

	s.log.Info("匹配服务已停止")
}

func (s *Service) sweepLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.shutdown:
			return
		}
	}
}

// Sweep 对所有活跃对局执行一次超时检查
func (s *Service) Sweep(ctx context.Context) {
	for _, id := range s.registry.IDs() {
		m, effects, err := s.registry.Apply(id, Tick{}, s.now(), s.rules)
		if err != nil {
			// 已经结束的对局会在释放后消失
			continue
		}
		if len(effects) == 0 {
			continue
		}
		s.log.WithFields(logrus.Fields{"match_id": id, "state": m.State}).Info("对局超时")
		s.execute(ctx, m, effects)
	}
}

// EnqueueResult 入队结果
type EnqueueResult struct {
	QueueID  models.QueueID `json:"queue_id"`
	Position int            `json:"position"`
	Match    *models.Match  `json:"match,omitempty"`
}

// Enqueue 玩家加入队列；组队成功时发送对局公告
func (s *Service) Enqueue(ctx context.Context, playerID, displayName string, queueID models.QueueID) (EnqueueResult, error) {
	if queueID == "" {
		queueID = s.DefaultQueue()
	}

	formed, err := s.queues.Enqueue(ctx, playerID, displayName, queueID)
	if err != nil {
		return EnqueueResult{}, err
	}

	result := EnqueueResult{QueueID: queueID, Match: formed}
	if formed == nil {
		entries, _ := s.queues.Entries(queueID)
		result.Position = len(entries)
		return result, nil
	}

	s.announceFormed(ctx, formed)
	return result, nil
}

func (s *Service) announceFormed(ctx context.Context, m *models.Match) {
	if s.notifier != nil && s.channelID != "" {
		msgID, err := s.notifier.PostMessage(ctx, s.channelID, FormatFormed(s.loc, *m))
		if err != nil {
			s.log.WithError(err).WithField("match_id", m.ID).Warn("发送对局公告失败")
		} else {
			ref := models.MessageRef{ChannelID: s.channelID, MessageID: msgID}
			m.Announcement = ref
			s.registry.SetAnnouncement(m.ID, ref)
		}
	}
	s.notifyObservers(*m)
}

// Dequeue 玩家退出队列
func (s *Service) Dequeue(playerID string, queueID models.QueueID) error {
	return s.queues.Dequeue(playerID, queueID)
}

// SubmitRoomCode 参与者提交房间码
func (s *Service) SubmitRoomCode(ctx context.Context, playerID, code string) (models.Match, error) {
	matchID, ok := s.registry.ActiveMatchOf(playerID)
	if !ok {
		return models.Match{}, ErrNotParticipant
	}
	return s.apply(ctx, matchID, RoomCodeSubmitted{PlayerID: playerID, Code: code})
}

// Vote 投票；matchID 为空时使用投票者所在的对局
func (s *Service) Vote(ctx context.Context, matchID string, vote VoteCast) (models.Match, error) {
	if matchID == "" {
		id, ok := s.registry.ActiveMatchOf(vote.PlayerID)
		if !ok {
			return models.Match{}, ErrNotParticipant
		}
		matchID = id
	}
	return s.apply(ctx, matchID, vote)
}

func (s *Service) apply(ctx context.Context, matchID string, ev Event) (models.Match, error) {
	m, effects, err := s.registry.Apply(matchID, ev, s.now(), s.rules)
	if err != nil {
		if errors.Is(err, ErrMatchClosed) {
			s.log.WithFields(logrus.Fields{"match_id": matchID, "event": fmt.Sprintf("%T", ev)}).Info("忽略已结束对局的事件")
		}
		return m, err
	}
	s.execute(ctx, m, effects)
	return m, nil
}

// MatchOf 玩家所在的活跃对局
func (s *Service) MatchOf(playerID string) (models.Match, bool) {
	id, ok := s.registry.ActiveMatchOf(playerID)
	if !ok {
		return models.Match{}, false
	}
	return s.registry.Get(id)
}

// Get 查询活跃对局
func (s *Service) Get(matchID string) (models.Match, bool) {
	return s.registry.Get(matchID)
}

// ActiveMatches 所有活跃对局
func (s *Service) ActiveMatches() []models.Match {
	return s.registry.List()
}

// QueueSizes 所有队列人数
func (s *Service) QueueSizes() map[models.QueueID]int {
	return s.queues.Sizes()
}

// QueueEntries 某个队列的排队玩家
func (s *Service) QueueEntries(queueID models.QueueID) ([]models.QueueEntry, error) {
	return s.queues.Entries(queueID)
}

// QueueIDs 已配置的队列
func (s *Service) QueueIDs() []models.QueueID {
	return s.queues.QueueIDs()
}

// DefaultQueue 默认队列
func (s *Service) DefaultQueue() models.QueueID {
	ids := s.queues.QueueIDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func (s *Service) notifyObservers(m models.Match) {
	s.observersMu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.observersMu.RUnlock()

	for _, o := range observers {
		o.MatchUpdated(m)
	}
}
