// match.go

package models

import (
	"time"
)

// MatchState 对局状态
type MatchState string

const (
	// StateRoomPending 等待房间码
	StateRoomPending MatchState = "ROOM_PENDING"
	// StateInProgress 房间已建立，超时计时中
	StateInProgress MatchState = "IN_PROGRESS"
	// StateAwaitingResult 已有玩家报告结果，收集投票中
	StateAwaitingResult MatchState = "AWAITING_RESULT"
	// StateResolved 已结算（终态）
	StateResolved MatchState = "RESOLVED"
	// StateDodged 一方未到场（终态）
	StateDodged MatchState = "DODGED"
	// StateTimedOut 超时作废（终态）
	StateTimedOut MatchState = "TIMED_OUT"
)

// IsTerminal 是否为终态
func (s MatchState) IsTerminal() bool {
	return s == StateResolved || s == StateDodged || s == StateTimedOut
}

// Side 队伍
type Side string

const (
	SideBlue Side = "blue"
	SideRed  Side = "red"
)

// Opponent 对手队伍
func (s Side) Opponent() Side {
	if s == SideBlue {
		return SideRed
	}
	return SideBlue
}

// Valid 是否为合法队伍
func (s Side) Valid() bool {
	return s == SideBlue || s == SideRed
}

// VoteKind 投票类型
type VoteKind string

const (
	// VoteResult 声明获胜方
	VoteResult VoteKind = "result"
	// VoteDodge 声明未到场的一方
	VoteDodge VoteKind = "dodge"
)

// Vote 玩家的投票，同一玩家的新投票覆盖旧投票
type Vote struct {
	Kind   VoteKind  `json:"kind"`
	Side   Side      `json:"side"`
	CastAt time.Time `json:"cast_at"`
}

// MapChoice 地图轮换中的一项
type MapChoice struct {
	Mode  string `json:"mode"`
	Map   string `json:"map"`
	Emoji string `json:"emoji"`
}

// MessageRef 平台消息引用
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Match 对局
type Match struct {
	ID           string          `json:"id"`
	QueueID      QueueID         `json:"queue_id"`
	Blue         []string        `json:"blue"`
	Red          []string        `json:"red"`
	State        MatchState      `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	RoomCode     string          `json:"room_code,omitempty"`
	Deadline     time.Time       `json:"deadline"`
	Votes        map[string]Vote `json:"votes"`
	BestOf       int             `json:"best_of"`
	BlueWins     int             `json:"blue_wins"`
	RedWins      int             `json:"red_wins"`
	Maps         []MapChoice     `json:"maps,omitempty"`
	Announcement MessageRef      `json:"announcement"`
	Winner       Side            `json:"winner,omitempty"`
	DodgedBy     Side            `json:"dodged_by,omitempty"`
	ClosedAt     time.Time       `json:"closed_at,omitempty"`
}

// Participants 所有参与者，蓝队在前
func (m *Match) Participants() []string {
	all := make([]string, 0, len(m.Blue)+len(m.Red))
	all = append(all, m.Blue...)
	return append(all, m.Red...)
}

// SideOf 返回玩家所在队伍
func (m *Match) SideOf(playerID string) (Side, bool) {
	for _, id := range m.Blue {
		if id == playerID {
			return SideBlue, true
		}
	}
	for _, id := range m.Red {
		if id == playerID {
			return SideRed, true
		}
	}
	return "", false
}

// Team 返回一方的成员
func (m *Match) Team(side Side) []string {
	if side == SideBlue {
		return m.Blue
	}
	return m.Red
}

// Tally 统计某类投票中每一方的票数
func (m *Match) Tally(kind VoteKind) map[Side]int {
	counts := map[Side]int{SideBlue: 0, SideRed: 0}
	for _, v := range m.Votes {
		if v.Kind == kind {
			counts[v.Side]++
		}
	}
	return counts
}
