package match

import (
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/mitchellh/copystructure"
	"github.com/sirupsen/logrus"
)

type matchEntry struct {
	mu    sync.Mutex
	match models.Match
}

// Registry 活跃对局表与参与者索引
type Registry struct {
	mu           sync.RWMutex
	matches      map[string]*matchEntry
	participants map[string]string // 玩家ID -> 对局ID
}

// NewRegistry 创建对局表
func NewRegistry() *Registry {
	return &Registry{
		matches:      make(map[string]*matchEntry),
		participants: make(map[string]string),
	}
}

// Claim 原子地登记对局及其全部参与者；有参与者已在其他对局中时不做任何修改并返回冲突的玩家
func (r *Registry) Claim(m models.Match) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conflicts []string
	for _, id := range m.Participants() {
		if _, busy := r.participants[id]; busy {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return conflicts
	}

	for _, id := range m.Participants() {
		r.participants[id] = m.ID
	}
	r.matches[m.ID] = &matchEntry{match: m}
	return nil
}

// Release 移除对局并释放其参与者
func (r *Registry) Release(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.matches, matchID)
	for player, id := range r.participants {
		if id == matchID {
			delete(r.participants, player)
		}
	}
}

// ActiveMatchOf 玩家所在的活跃对局
func (r *Registry) ActiveMatchOf(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.participants[playerID]
	return id, ok
}

// Get 返回对局快照
func (r *Registry) Get(matchID string) (models.Match, bool) {
	r.mu.RLock()
	e, ok := r.matches[matchID]
	r.mu.RUnlock()
	if !ok {
		return models.Match{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.match), true
}

// List 所有活跃对局的快照，按创建时间排序
func (r *Registry) List() []models.Match {
	r.mu.RLock()
	entries := make([]*matchEntry, 0, len(r.matches))
	for _, e := range r.matches {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]models.Match, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, snapshot(e.match))
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// IDs 活跃对局ID
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.matches))
	for id := range r.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count 活跃对局数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// Apply 在对局锁内执行一次状态转换并提交结果
func (r *Registry) Apply(matchID string, ev Event, now time.Time, rules Rules) (models.Match, []Effect, error) {
	r.mu.RLock()
	e, ok := r.matches[matchID]
	r.mu.RUnlock()
	if !ok {
		return models.Match{}, nil, ErrMatchNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, effects, err := Transition(e.match, ev, now, rules)
	if err != nil {
		return snapshot(e.match), nil, err
	}
	e.match = next
	return snapshot(next), effects, nil
}

// SetAnnouncement 记录对局公告消息
func (r *Registry) SetAnnouncement(matchID string, ref models.MessageRef) {
	r.mu.RLock()
	e, ok := r.matches[matchID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.match.Announcement = ref
	e.mu.Unlock()
}

// snapshot 深拷贝对局，调用方可以随意修改
func snapshot(m models.Match) models.Match {
	copied, err := copystructure.Copy(m)
	if err != nil {
		logrus.WithError(err).Warn("复制对局失败")
		return m
	}
	out, _ := copied.(models.Match)
	return out
}
