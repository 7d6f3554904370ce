package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

// MemoryStore 进程内存储，用于本地运行与测试
type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]models.Player
	matches map[string]models.Match
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(players ...models.Player) *MemoryStore {
	s := &MemoryStore{
		players: make(map[string]models.Player),
		matches: make(map[string]models.Match),
	}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

// GetByID 按ID读取玩家
func (s *MemoryStore) GetByID(_ context.Context, id string) (models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return models.Player{}, ErrNotFound
	}
	return p, nil
}

// GetManyByID 批量读取，缺失的ID被忽略
func (s *MemoryStore) GetManyByID(_ context.Context, ids []string) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateByID 部分更新
func (s *MemoryStore) UpdateByID(_ context.Context, id string, upd models.PlayerUpdate) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return models.Player{}, ErrNotFound
	}
	p = upd.Apply(p)
	p.UpdatedAt = time.Now()
	s.players[id] = p
	return p, nil
}

// ListActiveOrderedByRatingDesc 活跃玩家按积分降序，同分按ID升序
func (s *MemoryStore) ListActiveOrderedByRatingDesc(_ context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Player, 0, len(s.players))
	for _, p := range s.players {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetOrCreate 读取玩家，不存在时以默认值创建；显示名有变化时同步
func (s *MemoryStore) GetOrCreate(_ context.Context, id, displayName string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.players[id]; ok {
		if displayName != "" && displayName != p.DisplayName {
			p.DisplayName = displayName
			s.players[id] = p
		}
		return p, nil
	}
	p := models.NewPlayer(id, displayName)
	s.players[id] = p
	return p, nil
}

// SaveMatch 归档对局
func (s *MemoryStore) SaveMatch(_ context.Context, m models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[m.ID] = m
	return nil
}

// Match 读取归档的对局
func (s *MemoryStore) Match(id string) (models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	return m, ok
}
