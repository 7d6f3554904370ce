// queue.go

package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/jacl-coder/BrawlLadder-Server/internal/metrics"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInActiveMatch 玩家已在对局中
	ErrInActiveMatch = errors.New("玩家已在对局中")
	// ErrAlreadyQueued 玩家已在该队列中
	ErrAlreadyQueued = errors.New("玩家已在匹配队列中")
	// ErrUnknownQueue 队列不存在
	ErrUnknownQueue = errors.New("未知的匹配队列")
	// ErrNotQueued 玩家不在任何队列中
	ErrNotQueued = errors.New("玩家不在匹配队列中")
)

// Presence 在线状态查询；known 为假表示没有可用信息
type Presence interface {
	IsOffline(playerID string) (offline bool, known bool)
}

// QueueSettings 组队参数
type QueueSettings struct {
	TeamSize     int
	MaxRatingGap float64
	Balance      bool
	BestOf       int
	MapChoices   int
	RoomTimeout  time.Duration
}

// QueueSettingsFromConfig 从配置构造组队参数
func QueueSettingsFromConfig(cfg config.MatchConfig) QueueSettings {
	return QueueSettings{
		TeamSize:     cfg.TeamSize,
		MaxRatingGap: cfg.MaxRatingGap,
		Balance:      cfg.Balance,
		BestOf:       cfg.BestOf,
		MapChoices:   cfg.MapChoices,
		RoomTimeout:  cfg.RoomTimeout,
	}
}

type pool struct {
	mu      sync.Mutex
	entries []models.QueueEntry
}

// QueueManager 匹配队列，每个队列独立加锁，队列之间不会互相匹配
type QueueManager struct {
	pools    map[models.QueueID]*pool
	order    []models.QueueID
	settings QueueSettings
	registry *Registry
	store    store.PlayerStore
	presence Presence
	metrics  metrics.Metrics
	log      *logrus.Entry

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// NewQueueManager 创建队列管理器，queues 为允许的队列ID
func NewQueueManager(queues []string, settings QueueSettings, registry *Registry, st store.PlayerStore, presence Presence, m metrics.Metrics, log *logrus.Entry) *QueueManager {
	if m == nil {
		m = metrics.Noop()
	}
	qm := &QueueManager{
		pools:    make(map[models.QueueID]*pool, len(queues)),
		settings: settings,
		registry: registry,
		store:    st,
		presence: presence,
		metrics:  m,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, q := range queues {
		id := models.QueueID(q)
		if _, dup := qm.pools[id]; dup {
			continue
		}
		qm.pools[id] = &pool{}
		qm.order = append(qm.order, id)
	}
	return qm
}

// Enqueue 加入队列并立即尝试组队；成功组队时返回新对局
func (qm *QueueManager) Enqueue(ctx context.Context, playerID, displayName string, queueID models.QueueID) (*models.Match, error) {
	p, ok := qm.pools[queueID]
	if !ok {
		return nil, ErrUnknownQueue
	}
	if _, busy := qm.registry.ActiveMatchOf(playerID); busy {
		return nil, ErrInActiveMatch
	}

	player, err := qm.store.GetOrCreate(ctx, playerID, displayName)
	if err != nil {
		return nil, fmt.Errorf("读取玩家积分失败: %w", err)
	}

	p.mu.Lock()
	if pie.Any(p.entries, func(e models.QueueEntry) bool { return e.PlayerID == playerID }) {
		p.mu.Unlock()
		return nil, ErrAlreadyQueued
	}
	p.entries = append(p.entries, models.QueueEntry{
		PlayerID:    playerID,
		DisplayName: player.DisplayName,
		QueueID:     queueID,
		JoinedAt:    qm.now(),
		Rating:      player.Rating,
	})

	qm.log.WithFields(logrus.Fields{
		"player_id": playerID,
		"queue":     queueID,
		"rating":    player.Rating,
	}).Info("玩家加入匹配队列")

	formed := qm.tryFormMatch(queueID, p)
	size := len(p.entries)
	p.mu.Unlock()

	qm.metrics.QueueSize(string(queueID), size)

	if formed != nil {
		qm.dropFromOtherQueues(queueID, formed.Participants())
	}
	return formed, nil
}

// Dequeue 退出队列；queueID 为空时退出所有队列
func (qm *QueueManager) Dequeue(playerID string, queueID models.QueueID) error {
	ids := qm.order
	if queueID != "" {
		if _, ok := qm.pools[queueID]; !ok {
			return ErrUnknownQueue
		}
		ids = []models.QueueID{queueID}
	}

	removed := false
	for _, id := range ids {
		if qm.remove(id, playerID) {
			removed = true
			qm.log.WithFields(logrus.Fields{"player_id": playerID, "queue": id}).Info("玩家离开匹配队列")
		}
	}
	if !removed {
		return ErrNotQueued
	}
	return nil
}

func (qm *QueueManager) remove(queueID models.QueueID, playerIDs ...string) bool {
	p := qm.pools[queueID]
	p.mu.Lock()
	before := len(p.entries)
	p.entries = pie.Filter(p.entries, func(e models.QueueEntry) bool {
		return !pie.Contains(playerIDs, e.PlayerID)
	})
	removed := len(p.entries) != before
	size := len(p.entries)
	p.mu.Unlock()

	if removed {
		qm.metrics.QueueSize(string(queueID), size)
	}
	return removed
}

// dropFromOtherQueues 组队成功的玩家从其他队列中移除
func (qm *QueueManager) dropFromOtherQueues(formedIn models.QueueID, playerIDs []string) {
	for _, id := range qm.order {
		if id == formedIn {
			continue
		}
		qm.remove(id, playerIDs...)
	}
}

// Entries 队列快照，按加入时间排序
func (qm *QueueManager) Entries(queueID models.QueueID) ([]models.QueueEntry, error) {
	p, ok := qm.pools[queueID]
	if !ok {
		return nil, ErrUnknownQueue
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.QueueEntry(nil), p.entries...), nil
}

// Sizes 每个队列的人数
func (qm *QueueManager) Sizes() map[models.QueueID]int {
	sizes := make(map[models.QueueID]int, len(qm.pools))
	for id, p := range qm.pools {
		p.mu.Lock()
		sizes[id] = len(p.entries)
		p.mu.Unlock()
	}
	return sizes
}

// QueueIDs 配置的队列，按配置顺序
func (qm *QueueManager) QueueIDs() []models.QueueID {
	return append([]models.QueueID(nil), qm.order...)
}

// tryFormMatch 在队列锁内尝试组成一场对局
func (qm *QueueManager) tryFormMatch(queueID models.QueueID, p *pool) *models.Match {
	size := qm.settings.TeamSize * 2

	for {
		p.entries = qm.dropOffline(queueID, p.entries)
		if len(p.entries) < size {
			return nil
		}

		window, ok := SelectWindow(p.entries, size, qm.settings.MaxRatingGap)
		if !ok {
			return nil
		}

		m := qm.buildMatch(queueID, window)
		conflicts := qm.registry.Claim(m)
		if len(conflicts) > 0 {
			// 这些玩家已在其他队列组成的对局中
			qm.log.WithFields(logrus.Fields{
				"queue":   queueID,
				"players": conflicts,
			}).Info("移除已在对局中的排队玩家")
			p.entries = pie.Filter(p.entries, func(e models.QueueEntry) bool {
				return !pie.Contains(conflicts, e.PlayerID)
			})
			continue
		}

		ids := m.Participants()
		p.entries = pie.Filter(p.entries, func(e models.QueueEntry) bool {
			return !pie.Contains(ids, e.PlayerID)
		})

		qm.metrics.MatchFormed(string(queueID))
		qm.log.WithFields(logrus.Fields{
			"match_id": m.ID,
			"queue":    queueID,
			"blue":     m.Blue,
			"red":      m.Red,
		}).Info("匹配成功，创建对局")
		return &m
	}
}

func (qm *QueueManager) dropOffline(queueID models.QueueID, entries []models.QueueEntry) []models.QueueEntry {
	if qm.presence == nil {
		return entries
	}
	return pie.Filter(entries, func(e models.QueueEntry) bool {
		offline, known := qm.presence.IsOffline(e.PlayerID)
		if known && offline {
			qm.log.WithFields(logrus.Fields{"player_id": e.PlayerID, "queue": queueID}).Info("玩家已离线，移出队列")
			return false
		}
		return true
	})
}

func (qm *QueueManager) buildMatch(queueID models.QueueID, window []models.QueueEntry) models.Match {
	qm.rngMu.Lock()
	var blue, red []models.QueueEntry
	if qm.settings.Balance {
		blue, red = SplitBalanced(window)
	} else {
		blue, red = ShuffleSplit(window, qm.rng)
	}
	maps := PickMaps(qm.settings.MapChoices, qm.rng)
	qm.rngMu.Unlock()

	bestOf := qm.settings.BestOf
	if bestOf <= 0 {
		bestOf = 1
	}

	now := qm.now()
	return models.Match{
		ID:        uuid.New().String(),
		QueueID:   queueID,
		Blue:      playerIDs(blue),
		Red:       playerIDs(red),
		State:     models.StateRoomPending,
		CreatedAt: now,
		Deadline:  now.Add(qm.settings.RoomTimeout),
		Votes:     make(map[string]models.Vote),
		BestOf:    bestOf,
		Maps:      maps,
	}
}

// SelectWindow 在按积分排序的队列中寻找 size 个连续且积分差不超过 maxGap 的玩家；
// 多个窗口可选时取包含等待最久玩家的窗口，再取积分差更小者
func SelectWindow(entries []models.QueueEntry, size int, maxGap float64) ([]models.QueueEntry, bool) {
	if size <= 0 || len(entries) < size {
		return nil, false
	}

	sorted := append([]models.QueueEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating == sorted[j].Rating {
			return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
		}
		return sorted[i].Rating < sorted[j].Rating
	})

	best := -1
	var bestOldest time.Time
	var bestSpread float64
	for i := 0; i+size <= len(sorted); i++ {
		window := sorted[i : i+size]
		spread := window[size-1].Rating - window[0].Rating
		if spread > maxGap {
			continue
		}

		oldest := window[0].JoinedAt
		for _, e := range window[1:] {
			if e.JoinedAt.Before(oldest) {
				oldest = e.JoinedAt
			}
		}

		if best < 0 || oldest.Before(bestOldest) || (oldest.Equal(bestOldest) && spread < bestSpread) {
			best = i
			bestOldest = oldest
			bestSpread = spread
		}
	}

	if best < 0 {
		return nil, false
	}
	return append([]models.QueueEntry(nil), sorted[best:best+size]...), true
}
