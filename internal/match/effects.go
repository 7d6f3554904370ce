package match

import (
	"context"
	"math"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/rating"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// persistConcurrency 并发写入玩家记录的上限
const persistConcurrency = 4

// execute 在对局锁外依次执行副作用；任何一步失败只记录日志
func (s *Service) execute(ctx context.Context, m models.Match, effects []Effect) {
	log := s.log.WithFields(logrus.Fields{"match_id": m.ID, "state": m.State})

	var deltas []rating.Result
	var penalty float64

	for _, eff := range effects {
		switch e := eff.(type) {
		case ApplyResult:
			deltas = s.applyResult(ctx, m, e.Winner)
		case ApplyDodgePenalty:
			penalty = e.Penalty
			s.applyDodgePenalty(ctx, m, e.Side, e.Penalty)
		case Announce:
			s.post(ctx, log, FormatNotice(s.loc, e, m, penalty, deltas))
		case EditAnnouncement:
			s.editAnnouncement(ctx, log, m)
		case Release:
			s.registry.Release(m.ID)
			s.metrics.MatchClosed(string(m.QueueID), string(m.State))
			log.Info("对局结束，释放参与者")
		case Archive:
			if s.archive != nil {
				if err := s.archive.SaveMatch(ctx, m); err != nil {
					log.WithError(err).Warn("归档对局失败")
				}
			}
		default:
			log.Warnf("未知的副作用类型: %T", eff)
		}
	}

	s.notifyObservers(m)
}

func (s *Service) post(ctx context.Context, log *logrus.Entry, content string) {
	if s.notifier == nil || s.channelID == "" || content == "" {
		return
	}
	if _, err := s.notifier.PostMessage(ctx, s.channelID, content); err != nil {
		log.WithError(err).Warn("发送对局消息失败")
	}
}

func (s *Service) editAnnouncement(ctx context.Context, log *logrus.Entry, m models.Match) {
	ref := m.Announcement
	if s.notifier == nil || ref.MessageID == "" {
		return
	}
	content := FormatFormed(s.loc, m) + "\n" + FormatStatus(s.loc, m)
	if err := s.notifier.EditMessage(ctx, ref.ChannelID, ref.MessageID, content); err != nil {
		log.WithError(err).Warn("更新对局消息失败")
	}
}

// applyResult 计算并写入所有参与者的积分；单个玩家写入失败不影响其他玩家
func (s *Service) applyResult(ctx context.Context, m models.Match, winner models.Side) []rating.Result {
	log := s.log.WithFields(logrus.Fields{"match_id": m.ID, "winner": winner})

	players, err := s.store.GetManyByID(ctx, m.Participants())
	if err != nil {
		log.WithError(err).Error("读取参与者失败，跳过积分结算")
		s.metrics.RatingUpdateFailed("load")
		return nil
	}

	winnerIDs := m.Team(winner)
	var winners, losers []models.Player
	for _, p := range players {
		if pie.Contains(winnerIDs, p.ID) {
			winners = append(winners, p)
		} else {
			losers = append(losers, p)
		}
	}

	results := s.engine.Match(winners, losers, rating.ScoreWin)
	updated := persistAll(ctx, s, log, results, func(r rating.Result) models.PlayerUpdate {
		return r.Update()
	}, func(r rating.Result) string { return r.PlayerID })

	s.publish(ctx, log, updated)
	return results
}

// applyDodgePenalty 扣除未到场一方的积分，胜负场次不变
func (s *Service) applyDodgePenalty(ctx context.Context, m models.Match, side models.Side, penalty float64) {
	log := s.log.WithFields(logrus.Fields{"match_id": m.ID, "dodged_by": side})

	players, err := s.store.GetManyByID(ctx, m.Team(side))
	if err != nil {
		log.WithError(err).Error("读取未到场玩家失败，跳过扣分")
		s.metrics.RatingUpdateFailed("load")
		return
	}

	updated := persistAll(ctx, s, log, players, func(p models.Player) models.PlayerUpdate {
		r := math.Max(0, p.Rating-penalty)
		return models.PlayerUpdate{Rating: &r}
	}, func(p models.Player) string { return p.ID })

	s.publish(ctx, log, updated)
}

// persistAll 并发写入玩家更新，返回写入成功后的记录
func persistAll[T any](ctx context.Context, s *Service, log *logrus.Entry, items []T, update func(T) models.PlayerUpdate, id func(T) string) []models.Player {
	var mu sync.Mutex
	var updated []models.Player

	var g errgroup.Group
	g.SetLimit(persistConcurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			p, err := s.store.UpdateByID(ctx, id(item), update(item))
			if err != nil {
				log.WithError(err).WithField("player_id", id(item)).Error("写入玩家积分失败")
				s.metrics.RatingUpdateFailed("store")
				return nil
			}
			mu.Lock()
			updated = append(updated, p)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return updated
}

func (s *Service) publish(ctx context.Context, log *logrus.Entry, players []models.Player) {
	if s.board == nil || len(players) == 0 {
		return
	}
	if err := s.board.UpdateRatings(ctx, players); err != nil {
		log.WithError(err).Warn("更新排行榜失败")
	}
}
