// dispatcher.go

package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jacl-coder/BrawlLadder-Server/internal/draft"
	"github.com/jacl-coder/BrawlLadder-Server/internal/match"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	"github.com/jacl-coder/BrawlLadder-Server/internal/store"
	"github.com/jacl-coder/BrawlLadder-Server/internal/tier"
	"github.com/sirupsen/logrus"
)

// ErrForbidden 需要管理员权限
var ErrForbidden = errors.New("需要管理员权限")

// Matches 命令用到的匹配服务接口
type Matches interface {
	Enqueue(ctx context.Context, playerID, displayName string, queueID models.QueueID) (match.EnqueueResult, error)
	Dequeue(playerID string, queueID models.QueueID) error
	SubmitRoomCode(ctx context.Context, playerID, code string) (models.Match, error)
	Vote(ctx context.Context, matchID string, vote match.VoteCast) (models.Match, error)
	QueueEntries(queueID models.QueueID) ([]models.QueueEntry, error)
	QueueIDs() []models.QueueID
	MatchOf(playerID string) (models.Match, bool)
}

// Drafts 选角会话接口
type Drafts interface {
	Start(ownerID string) (draft.Session, error)
	Ban(ownerID, input string) (draft.Session, error)
	Pick(ownerID, input string) (draft.PickResult, error)
	Cancel(ownerID string) error
}

// Ranks 排名与段位查询
type Ranks interface {
	Rank(ctx context.Context, playerID string) (int, error)
	Tier(ctx context.Context, playerID string) (models.Tier, error)
}

// Reply 命令执行结果
type Reply struct {
	Text string      `json:"message"`
	Data interface{} `json:"data,omitempty"`
	Err  error       `json:"-"`
}

// OK 命令是否成功
func (r Reply) OK() bool {
	return r.Err == nil
}

// Dispatcher 执行命令并生成本地化回复
type Dispatcher struct {
	matches Matches
	drafts  Drafts
	players store.PlayerStore
	ranks   Ranks
	tiers   match.TierTrigger
	loc     platform.Localizer
	log     *logrus.Entry
}

// DispatcherDeps 分发器依赖，ranks 与 tiers 可以为空
type DispatcherDeps struct {
	Matches   Matches
	Drafts    Drafts
	Players   store.PlayerStore
	Ranks     Ranks
	Tiers     match.TierTrigger
	Localizer platform.Localizer
	Log       *logrus.Entry
}

// NewDispatcher 创建命令分发器
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.Log == nil {
		deps.Log = logrus.WithField("component", "gateway")
	}
	return &Dispatcher{
		matches: deps.Matches,
		drafts:  deps.Drafts,
		players: deps.Players,
		ranks:   deps.Ranks,
		tiers:   deps.Tiers,
		loc:     deps.Localizer,
		log:     deps.Log,
	}
}

// Dispatch 执行一条命令；校验失败转为本地化回复，不会向上返回
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Reply {
	reply := d.dispatch(ctx, req)
	if reply.Err != nil {
		reply.Text = d.errorText(reply.Err)
		d.log.WithFields(logrus.Fields{
			"player_id": req.Actor.ID,
			"command":   fmt.Sprintf("%T", req.Command),
		}).WithError(reply.Err).Debug("命令被拒绝")
	}
	return reply
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request) Reply {
	actor := req.Actor
	switch cmd := req.Command.(type) {
	case EnqueueCmd:
		res, err := d.matches.Enqueue(ctx, actor.ID, actor.DisplayName, cmd.Queue)
		if err != nil {
			return Reply{Err: err}
		}
		if res.Match != nil {
			return Reply{Text: d.loc.Format(textMatchFound, vars{"queue": string(res.QueueID)}), Data: res}
		}
		return Reply{Text: d.loc.Format(textJoined, vars{
			"queue":    string(res.QueueID),
			"position": fmt.Sprint(res.Position),
		}), Data: res}

	case DequeueCmd:
		if err := d.matches.Dequeue(actor.ID, cmd.Queue); err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textLeft, nil)}

	case QueueStatusCmd:
		return d.queueStatus(cmd.Queue)

	case SubmitRoomCodeCmd:
		m, err := d.matches.SubmitRoomCode(ctx, actor.ID, cmd.Code)
		if err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textCodeAccepted, vars{"code": m.RoomCode}), Data: m}

	case VoteCmd:
		m, err := d.matches.Vote(ctx, cmd.MatchID, match.VoteCast{
			PlayerID:  actor.ID,
			Kind:      cmd.Kind,
			Side:      cmd.Side,
			Moderator: actor.Moderator && cmd.MatchID != "",
		})
		if err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textVoteRecorded, vars{"state": string(m.State)}), Data: m}

	case DraftStartCmd:
		s, err := d.drafts.Start(actor.ID)
		if err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textDraftStarted, vars{
			"ai_bans": strings.Join(s.AIBans, ", "),
		}), Data: s}

	case DraftBanCmd:
		s, err := d.drafts.Ban(actor.ID, cmd.Brawler)
		if err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textBanned, vars{
			"bans":  strings.Join(s.UserBans, ", "),
			"phase": string(s.Phase),
		}), Data: s}

	case DraftPickCmd:
		res, err := d.drafts.Pick(actor.ID, cmd.Brawler)
		if err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.pickText(res), Data: res}

	case DraftCancelCmd:
		if err := d.drafts.Cancel(actor.ID); err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textDraftCancelled, nil)}

	case RatingQueryCmd:
		target := cmd.PlayerID
		if target == "" {
			target = actor.ID
		}
		return d.rating(ctx, target)

	case TierSyncCmd:
		if !actor.Moderator {
			return Reply{Err: ErrForbidden}
		}
		if d.tiers == nil {
			return Reply{Err: errTierSyncDisabled}
		}
		report, err := d.tiers.RunNow(ctx)
		if err != nil {
			return Reply{Err: err}
		}
		return Reply{Text: d.loc.Format(textTierSynced, vars{
			"players": fmt.Sprint(report.Players),
			"changes": fmt.Sprint(report.Mutations()),
			"failed":  fmt.Sprint(report.Failed),
		}), Data: report}

	default:
		return Reply{Err: fmt.Errorf("%w: %T", ErrUnknownCommand, req.Command)}
	}
}

var errTierSyncDisabled = errors.New("段位同步未启用")

func (d *Dispatcher) queueStatus(queueID models.QueueID) Reply {
	ids := d.matches.QueueIDs()
	if queueID != "" {
		ids = []models.QueueID{queueID}
	}

	lines := make([]string, 0, len(ids))
	status := make(map[models.QueueID][]models.QueueEntry, len(ids))
	for _, id := range ids {
		entries, err := d.matches.QueueEntries(id)
		if err != nil {
			return Reply{Err: err}
		}
		status[id] = entries

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, displayOrMention(e))
		}
		lines = append(lines, d.loc.Format(textQueueLine, vars{
			"queue":   string(id),
			"count":   fmt.Sprint(len(entries)),
			"players": strings.Join(names, ", "),
		}))
	}
	return Reply{Text: strings.Join(lines, "\n"), Data: status}
}

func displayOrMention(e models.QueueEntry) string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return platform.Mention(e.PlayerID)
}

func (d *Dispatcher) rating(ctx context.Context, playerID string) Reply {
	p, err := d.players.GetByID(ctx, playerID)
	if err != nil {
		return Reply{Err: err}
	}

	info := ratingInfo{Player: p, Tier: p.Tier}
	if d.ranks != nil {
		if rank, err := d.ranks.Rank(ctx, playerID); err == nil {
			info.Rank = rank
		} else {
			d.log.WithError(err).WithField("player_id", playerID).Warn("查询排名失败")
		}
		if t, err := d.ranks.Tier(ctx, playerID); err == nil && t != "" {
			info.Tier = t
		}
	}

	rank := "-"
	if info.Rank > 0 {
		rank = fmt.Sprint(info.Rank)
	}
	tierLabel := string(info.Tier)
	if tierLabel == "" {
		tierLabel = "-"
	}
	return Reply{Text: d.loc.Format(textRating, vars{
		"player":  platform.Mention(p.ID),
		"rating":  fmt.Sprintf("%.0f", p.Rating),
		"wins":    fmt.Sprint(p.Wins),
		"losses":  fmt.Sprint(p.Losses),
		"winrate": fmt.Sprintf("%.0f", p.WinRate()),
		"rank":    rank,
		"tier":    tierLabel,
	}), Data: info}
}

type ratingInfo struct {
	Player models.Player `json:"player"`
	Rank   int           `json:"rank"`
	Tier   models.Tier   `json:"tier"`
}

func (d *Dispatcher) pickText(res draft.PickResult) string {
	s := res.Session
	text := d.loc.Format(textPicked, vars{
		"user_picks": strings.Join(s.UserPicks, ", "),
		"ai_picks":   strings.Join(s.AIPicks, ", "),
	})
	if res.Summary == nil {
		return text
	}
	sum := res.Summary
	return text + "\n" + d.loc.Format(textDraftSummary, vars{
		"user_score": fmt.Sprintf("%.1f", sum.UserScore),
		"ai_score":   fmt.Sprintf("%.1f", sum.AIScore),
		"winner":     d.loc.Format(winnerNames[sum.Winner], nil),
		"chance":     fmt.Sprint(sum.WinChance),
	})
}

// errorText 把错误映射为面向用户的文本
func (d *Dispatcher) errorText(err error) string {
	var rejection draft.Rejection
	if errors.As(err, &rejection) {
		if t, ok := rejectionTexts[rejection]; ok {
			return d.loc.Format(t, nil)
		}
	}
	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return d.loc.Format(e.text, nil)
		}
	}
	d.log.WithError(err).Error("命令执行失败")
	return d.loc.Format(textInternalError, nil)
}

type vars = map[string]string

var (
	textJoined         = platform.Text{FR: "✅ Tu as rejoint la file **{queue}** (position {position}).", EN: "✅ You joined the **{queue}** queue (position {position})."}
	textMatchFound     = platform.Text{FR: "🎮 Match trouvé dans la file **{queue}** !", EN: "🎮 Match found in the **{queue}** queue!"}
	textLeft           = platform.Text{FR: "👋 Tu as quitté la file.", EN: "👋 You left the queue."}
	textQueueLine      = platform.Text{FR: "**{queue}** ({count}) : {players}", EN: "**{queue}** ({count}): {players}"}
	textCodeAccepted   = platform.Text{FR: "🔑 Code de salle enregistré : `{code}`", EN: "🔑 Room code saved: `{code}`"}
	textVoteRecorded   = platform.Text{FR: "🗳️ Vote enregistré ({state}).", EN: "🗳️ Vote recorded ({state})."}
	textDraftStarted   = platform.Text{FR: "🧠 Draft lancée ! Bans de l'IA : {ai_bans}. À toi de bannir 3 brawlers avec `!ban`.", EN: "🧠 Draft started! AI bans: {ai_bans}. Ban 3 brawlers with `!ban`."}
	textBanned         = platform.Text{FR: "🚫 Tes bans : {bans} ({phase})", EN: "🚫 Your bans: {bans} ({phase})"}
	textPicked         = platform.Text{FR: "✅ Tes picks : {user_picks}\n🤖 Picks de l'IA : {ai_picks}", EN: "✅ Your picks: {user_picks}\n🤖 AI picks: {ai_picks}"}
	textDraftSummary   = platform.Text{FR: "📊 Toi {user_score} | IA {ai_score} → {winner} ({chance}% de victoire)", EN: "📊 You {user_score} | AI {ai_score} → {winner} ({chance}% win chance)"}
	textDraftCancelled = platform.Text{FR: "Draft annulée.", EN: "Draft cancelled."}
	textRating         = platform.Text{FR: "{player} : **{rating}** Elo, {wins}V/{losses}D ({winrate}%), rang #{rank}, tier {tier}", EN: "{player}: **{rating}** Elo, {wins}W/{losses}L ({winrate}%), rank #{rank}, tier {tier}"}
	textTierSynced     = platform.Text{FR: "🏅 Tiers synchronisés : {players} joueurs, {changes} changements de rôle, {failed} échecs.", EN: "🏅 Tiers synced: {players} players, {changes} role changes, {failed} failures."}
	textInternalError  = platform.Text{FR: "❌ Une erreur est survenue, réessaie plus tard.", EN: "❌ Something went wrong, try again later."}
)

var winnerNames = map[draft.Winner]platform.Text{
	draft.WinnerUser: {FR: "victoire pour toi", EN: "you win"},
	draft.WinnerAI:   {FR: "victoire de l'IA", EN: "AI wins"},
	draft.WinnerDraw: {FR: "égalité", EN: "draw"},
}

var rejectionTexts = map[draft.Rejection]platform.Text{
	draft.RejectPhase:     {FR: "❌ Ce n'est pas le bon moment pour ça.", EN: "❌ Not allowed in this phase."},
	draft.RejectLimit:     {FR: "❌ Tu as déjà fait tes 3 choix.", EN: "❌ You already made your 3 choices."},
	draft.RejectAIBan:     {FR: "❌ Ce brawler est banni par l'IA.", EN: "❌ That brawler is banned by the AI."},
	draft.RejectDuplicate: {FR: "❌ Tu as déjà banni ce brawler.", EN: "❌ You already banned that brawler."},
	draft.RejectDone:      {FR: "❌ La draft est terminée.", EN: "❌ The draft is over."},
	draft.RejectTurn:      {FR: "❌ Ce n'est pas ton tour.", EN: "❌ It is not your turn."},
	draft.RejectTaken:     {FR: "❌ Ce brawler n'est plus disponible.", EN: "❌ That brawler is not available."},
	draft.RejectUnknown:   {FR: "❌ Brawler inconnu.", EN: "❌ Unknown brawler."},
}

var errorTexts = []struct {
	err  error
	text platform.Text
}{
	{match.ErrInActiveMatch, platform.Text{FR: "❌ Tu es déjà dans un match.", EN: "❌ You are already in a match."}},
	{match.ErrAlreadyQueued, platform.Text{FR: "❌ Tu es déjà dans cette file.", EN: "❌ You are already in this queue."}},
	{match.ErrUnknownQueue, platform.Text{FR: "❌ File inconnue.", EN: "❌ Unknown queue."}},
	{match.ErrNotQueued, platform.Text{FR: "❌ Tu n'es dans aucune file.", EN: "❌ You are not in a queue."}},
	{match.ErrNotParticipant, platform.Text{FR: "❌ Tu ne participes pas à ce match.", EN: "❌ You are not in this match."}},
	{match.ErrMatchNotFound, platform.Text{FR: "❌ Match introuvable ou déjà terminé.", EN: "❌ Match not found or already over."}},
	{match.ErrMatchClosed, platform.Text{FR: "❌ Ce match est déjà terminé.", EN: "❌ This match is already over."}},
	{match.ErrRoomNotReady, platform.Text{FR: "❌ Il faut d'abord un code de salle (`!code`).", EN: "❌ A room code is needed first (`!code`)."}},
	{match.ErrRoomAlreadySet, platform.Text{FR: "❌ Le code de salle est déjà défini.", EN: "❌ The room code is already set."}},
	{match.ErrInvalidRoomCode, platform.Text{FR: "❌ Code de salle invalide.", EN: "❌ Invalid room code."}},
	{match.ErrInvalidVote, platform.Text{FR: "❌ Vote invalide.", EN: "❌ Invalid vote."}},
	{draft.ErrNoSession, platform.Text{FR: "❌ Aucune draft en cours, lance `!draft`.", EN: "❌ No draft in progress, start one with `!draft`."}},
	{draft.ErrSessionExists, platform.Text{FR: "❌ Tu as déjà une draft en cours.", EN: "❌ You already have a draft in progress."}},
	{store.ErrNotFound, platform.Text{FR: "❌ Joueur inconnu, il n'a encore joué aucun match.", EN: "❌ Unknown player, no match played yet."}},
	{ErrForbidden, platform.Text{FR: "❌ Commande réservée aux modérateurs.", EN: "❌ Moderators only."}},
	{errTierSyncDisabled, platform.Text{FR: "❌ La synchronisation des tiers est désactivée.", EN: "❌ Tier sync is disabled."}},
	{ErrRateLimited, platform.Text{FR: "⏳ Doucement ! Réessaie dans une minute.", EN: "⏳ Slow down! Try again in a minute."}},
	{ErrUnknownCommand, platform.Text{FR: "❌ Commande inconnue.", EN: "❌ Unknown command."}},
	{ErrMissingArgument, platform.Text{FR: "❌ Il manque un argument.", EN: "❌ Missing argument."}},
	{ErrMalformedFrame, platform.Text{FR: "❌ Message mal formé.", EN: "❌ Malformed message."}},
	{ErrInvalidSide, platform.Text{FR: "❌ Équipe inconnue, utilise `blue` ou `red`.", EN: "❌ Unknown side, use `blue` or `red`."}},
}

var _ match.TierTrigger = (*tier.Scheduler)(nil)
