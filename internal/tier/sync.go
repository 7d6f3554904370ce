// sync.go

package tier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/internal/metrics"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Publisher 接收每轮计算出的段位快照
type Publisher interface {
	PublishTiers(ctx context.Context, tiers map[string]models.Tier) error
	ReplaceRatings(ctx context.Context, players []models.Player) error
}

// Report 一轮同步的统计
type Report struct {
	Players  int           `json:"players"`
	Granted  int           `json:"granted"`
	Revoked  int           `json:"revoked"`
	Retiered int           `json:"retiered"`
	Renamed  int           `json:"renamed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Mutations 角色变更总数
func (r Report) Mutations() int {
	return r.Granted + r.Revoked
}

// Syncer 段位同步服务
type Syncer struct {
	store       store.PlayerStore
	roles       platform.RolePlatform
	roleIDs     map[models.Tier]string
	publisher   Publisher
	metrics     metrics.Metrics
	dist        []Distribution
	concurrency int
	log         *logrus.Entry

	// 同一时间只运行一轮，保证同一玩家不会被并发处理
	cycle sync.Mutex
}

// Option Syncer 可选项
type Option func(*Syncer)

// WithPublisher 同步后发布段位
func WithPublisher(p Publisher) Option {
	return func(s *Syncer) { s.publisher = p }
}

// WithMetrics 设置指标
func WithMetrics(m metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithConcurrency 设置并发度
func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDistribution 替换段位占比表
func WithDistribution(d []Distribution) Option {
	return func(s *Syncer) { s.dist = d }
}

// NewSyncer 创建段位同步服务，roleIDs 为段位到平台角色ID的映射
func NewSyncer(st store.PlayerStore, roles platform.RolePlatform, roleIDs map[models.Tier]string, log *logrus.Entry, opts ...Option) *Syncer {
	s := &Syncer{
		store:       st,
		roles:       roles,
		roleIDs:     roleIDs,
		metrics:     metrics.Noop(),
		dist:        DefaultDistribution,
		concurrency: 4,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type outcome struct {
	granted  int
	revoked  int
	retiered bool
	renamed  bool
	failed   bool
}

// Run 执行一轮同步；单个玩家的失败只记录日志，不影响其他玩家
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	start := time.Now()

	players, err := s.store.ListActiveOrderedByRatingDesc(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("读取玩家列表失败: %w", err)
	}

	report := Report{Players: len(players)}
	if len(players) == 0 {
		s.log.Warn("没有可同步段位的玩家")
		return report, nil
	}

	boundaries := ComputeBoundaries(len(players), s.dist)
	assigned := make(map[string]models.Tier, len(players))
	for i, p := range players {
		t, ok := ForRank(i+1, boundaries)
		if !ok {
			continue
		}
		assigned[p.ID] = t
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, p := range players {
		p := p
		t, ok := assigned[p.ID]
		if !ok {
			continue
		}
		g.Go(func() error {
			o := s.reconcile(ctx, p, t)

			mu.Lock()
			defer mu.Unlock()
			report.Granted += o.granted
			report.Revoked += o.revoked
			if o.retiered {
				report.Retiered++
			}
			if o.renamed {
				report.Renamed++
			}
			if o.failed {
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.publisher != nil {
		if err := s.publisher.ReplaceRatings(ctx, players); err != nil {
			s.log.WithError(err).Warn("发布积分榜失败")
		}
		if err := s.publisher.PublishTiers(ctx, assigned); err != nil {
			s.log.WithError(err).Warn("发布段位失败")
		}
	}

	report.Duration = time.Since(start)
	s.metrics.TierSyncCompleted(report.Duration, report.Players, report.Failed)

	s.log.WithFields(logrus.Fields{
		"players":  report.Players,
		"granted":  report.Granted,
		"revoked":  report.Revoked,
		"retiered": report.Retiered,
		"failed":   report.Failed,
		"duration": report.Duration.String(),
	}).Info("段位同步完成")

	return report, nil
}

// reconcile 使单个玩家的段位角色与计算结果一致
func (s *Syncer) reconcile(ctx context.Context, p models.Player, t models.Tier) outcome {
	var o outcome
	log := s.log.WithFields(logrus.Fields{"player_id": p.ID, "tier": t})

	if p.Tier != t {
		tier := t
		if _, err := s.store.UpdateByID(ctx, p.ID, models.PlayerUpdate{Tier: &tier}); err != nil {
			log.WithError(err).Warn("保存段位失败")
			o.failed = true
		} else {
			o.retiered = true
		}
	}

	current, err := s.roles.GetMemberRoles(ctx, p.ID)
	if err != nil {
		log.WithError(err).Warn("获取成员角色失败，跳过")
		o.failed = true
		return o
	}

	has := make(map[string]bool, len(current))
	for _, id := range current {
		has[id] = true
	}

	target := s.roleIDs[t]
	if target != "" && !has[target] {
		if err := s.roles.GrantRole(ctx, p.ID, target); err != nil {
			log.WithError(err).Warn("授予段位角色失败")
			o.failed = true
		} else {
			o.granted++
			s.metrics.RoleMutation("grant")
		}
	}

	for _, other := range models.AllTiers {
		id := s.roleIDs[other]
		if other == t || id == "" || id == target || !has[id] {
			continue
		}
		if err := s.roles.RevokeRole(ctx, p.ID, id); err != nil {
			log.WithError(err).WithField("stale_tier", other).Warn("移除旧段位角色失败")
			o.failed = true
			continue
		}
		o.revoked++
		s.metrics.RoleMutation("revoke")
	}

	if namer, ok := s.roles.(platform.DisplayNamer); ok {
		name, err := namer.DisplayName(ctx, p.ID)
		if err == nil && name != "" && name != p.DisplayName {
			if _, err := s.store.UpdateByID(ctx, p.ID, models.PlayerUpdate{DisplayName: &name}); err != nil {
				log.WithError(err).Warn("同步显示名失败")
			} else {
				o.renamed = true
			}
		}
	}

	return o
}
