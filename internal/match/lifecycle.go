// lifecycle.go

package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

var (
	// ErrMatchClosed 对局已结束
	ErrMatchClosed = errors.New("对局已结束")
	// ErrNotParticipant 不是对局参与者
	ErrNotParticipant = errors.New("不是对局参与者")
	// ErrRoomNotReady 房间码提交前不能投票
	ErrRoomNotReady = errors.New("房间尚未建立")
	// ErrRoomAlreadySet 房间码已提交
	ErrRoomAlreadySet = errors.New("房间码已提交")
	// ErrInvalidVote 投票类型或队伍无效
	ErrInvalidVote = errors.New("无效的投票")
	// ErrInvalidRoomCode 房间码为空
	ErrInvalidRoomCode = errors.New("无效的房间码")
	// ErrMatchNotFound 对局不存在或已释放
	ErrMatchNotFound = errors.New("对局不存在")
)

// Rules 生命周期参数
type Rules struct {
	ResultQuorum int
	DodgeQuorum  int
	DodgePenalty float64
	MatchTimeout time.Duration
	RoomTimeout  time.Duration
}

// RulesFromConfig 从配置构造生命周期参数
func RulesFromConfig(cfg config.MatchConfig) Rules {
	return Rules{
		ResultQuorum: cfg.ResultQuorum,
		DodgeQuorum:  cfg.DodgeQuorum,
		DodgePenalty: cfg.DodgePenalty,
		MatchTimeout: cfg.MatchTimeout,
		RoomTimeout:  cfg.RoomTimeout,
	}
}

// Event 作用于对局的事件
type Event interface {
	isEvent()
}

// RoomCodeSubmitted 参与者提交房间码
type RoomCodeSubmitted struct {
	PlayerID string
	Code     string
}

// VoteCast 投票；Moderator 为真时跳过法定人数直接结算
type VoteCast struct {
	PlayerID  string
	Kind      models.VoteKind
	Side      models.Side
	Moderator bool
}

// Tick 定时检查超时
type Tick struct{}

func (RoomCodeSubmitted) isEvent() {}
func (VoteCast) isEvent()          {}
func (Tick) isEvent()              {}

// Notice 对外公告类型
type Notice string

const (
	NoticeRoomReady Notice = "room_ready"
	NoticeGameWon   Notice = "game_won"
	NoticeResolved  Notice = "resolved"
	NoticeDodged    Notice = "dodged"
	NoticeTimedOut  Notice = "timed_out"
)

// Effect 状态提交后需要执行的副作用
type Effect interface {
	isEffect()
}

// Announce 在对局频道发送公告；Side 为本局胜方，仅系列赛中间局使用
type Announce struct {
	Notice Notice
	Side   models.Side
}

// EditAnnouncement 刷新对局消息
type EditAnnouncement struct{}

// ApplyResult 按胜方结算积分
type ApplyResult struct {
	Winner models.Side
}

// ApplyDodgePenalty 扣除未到场一方的积分
type ApplyDodgePenalty struct {
	Side    models.Side
	Penalty float64
}

// Release 释放参与者，使其可以重新排队
type Release struct{}

// Archive 保存终局对局
type Archive struct{}

func (Announce) isEffect()          {}
func (EditAnnouncement) isEffect()  {}
func (ApplyResult) isEffect()       {}
func (ApplyDodgePenalty) isEffect() {}
func (Release) isEffect()           {}
func (Archive) isEffect()           {}

// Transition 纯状态转换：返回新的对局与待执行的副作用，输入对局不会被修改
func Transition(m models.Match, ev Event, now time.Time, rules Rules) (models.Match, []Effect, error) {
	if m.State.IsTerminal() {
		return m, nil, ErrMatchClosed
	}

	next := m
	next.Votes = cloneVotes(m.Votes)

	switch e := ev.(type) {
	case RoomCodeSubmitted:
		return submitRoomCode(next, e, now, rules)
	case VoteCast:
		return castVote(next, e, now, rules)
	case Tick:
		return tick(next, now)
	default:
		return m, nil, fmt.Errorf("未知事件类型: %T", ev)
	}
}

func submitRoomCode(m models.Match, e RoomCodeSubmitted, now time.Time, rules Rules) (models.Match, []Effect, error) {
	if _, ok := m.SideOf(e.PlayerID); !ok {
		return m, nil, ErrNotParticipant
	}
	if m.State != models.StateRoomPending {
		return m, nil, ErrRoomAlreadySet
	}
	code := NormalizeRoomCode(e.Code)
	if code == "" {
		return m, nil, ErrInvalidRoomCode
	}

	m.RoomCode = code
	m.State = models.StateInProgress
	m.Deadline = now.Add(rules.MatchTimeout)

	return m, []Effect{Announce{Notice: NoticeRoomReady}, EditAnnouncement{}}, nil
}

func castVote(m models.Match, e VoteCast, now time.Time, rules Rules) (models.Match, []Effect, error) {
	if (e.Kind != models.VoteResult && e.Kind != models.VoteDodge) || !e.Side.Valid() {
		return m, nil, ErrInvalidVote
	}

	if e.Moderator {
		if e.Kind == models.VoteDodge {
			return dodge(m, e.Side, now, rules)
		}
		return resolve(m, e.Side, now)
	}

	if _, ok := m.SideOf(e.PlayerID); !ok {
		return m, nil, ErrNotParticipant
	}
	if m.State == models.StateRoomPending {
		return m, nil, ErrRoomNotReady
	}

	if m.Votes == nil {
		m.Votes = make(map[string]models.Vote)
	}
	m.Votes[e.PlayerID] = models.Vote{Kind: e.Kind, Side: e.Side, CastAt: now}
	m.State = models.StateAwaitingResult

	participants := len(m.Participants())

	results := m.Tally(models.VoteResult)
	need := quorum(participants, rules.ResultQuorum)
	for _, side := range []models.Side{models.SideBlue, models.SideRed} {
		if results[side] >= need {
			return gameWon(m, side, now, rules)
		}
	}

	dodges := m.Tally(models.VoteDodge)
	need = quorum(participants, rules.DodgeQuorum)
	for _, side := range []models.Side{models.SideBlue, models.SideRed} {
		if dodges[side] >= need {
			return dodge(m, side, now, rules)
		}
	}

	return m, []Effect{EditAnnouncement{}}, nil
}

// gameWon 记一局胜利，系列赛未结束时回到进行中
func gameWon(m models.Match, side models.Side, now time.Time, rules Rules) (models.Match, []Effect, error) {
	if side == models.SideBlue {
		m.BlueWins++
	} else {
		m.RedWins++
	}

	wins := m.BlueWins
	if side == models.SideRed {
		wins = m.RedWins
	}
	if wins >= WinsNeeded(m.BestOf) {
		return resolve(m, side, now)
	}

	m.Votes = make(map[string]models.Vote)
	m.State = models.StateInProgress
	m.Deadline = now.Add(rules.MatchTimeout)
	return m, []Effect{Announce{Notice: NoticeGameWon, Side: side}, EditAnnouncement{}}, nil
}

func resolve(m models.Match, winner models.Side, now time.Time) (models.Match, []Effect, error) {
	m.State = models.StateResolved
	m.Winner = winner
	m.ClosedAt = now
	return m, []Effect{
		ApplyResult{Winner: winner},
		Announce{Notice: NoticeResolved},
		EditAnnouncement{},
		Release{},
		Archive{},
	}, nil
}

func dodge(m models.Match, side models.Side, now time.Time, rules Rules) (models.Match, []Effect, error) {
	m.State = models.StateDodged
	m.DodgedBy = side
	m.ClosedAt = now
	return m, []Effect{
		ApplyDodgePenalty{Side: side, Penalty: rules.DodgePenalty},
		Announce{Notice: NoticeDodged},
		EditAnnouncement{},
		Release{},
		Archive{},
	}, nil
}

func tick(m models.Match, now time.Time) (models.Match, []Effect, error) {
	if m.Deadline.IsZero() || now.Before(m.Deadline) {
		return m, nil, nil
	}
	m.State = models.StateTimedOut
	m.ClosedAt = now
	return m, []Effect{
		Announce{Notice: NoticeTimedOut},
		EditAnnouncement{},
		Release{},
		Archive{},
	}, nil
}

// quorum 法定人数不超过参与人数
func quorum(participants, configured int) int {
	q := configured
	if participants < q {
		q = participants
	}
	if q < 1 {
		q = 1
	}
	return q
}

// WinsNeeded 系列赛获胜所需局数
func WinsNeeded(bestOf int) int {
	if bestOf <= 1 {
		return 1
	}
	return bestOf/2 + 1
}

// NormalizeRoomCode 去掉空白并转大写
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func cloneVotes(votes map[string]models.Vote) map[string]models.Vote {
	if votes == nil {
		return nil
	}
	out := make(map[string]models.Vote, len(votes))
	for k, v := range votes {
		out[k] = v
	}
	return out
}
