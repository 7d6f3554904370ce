// session.go

package draft

import (
	"time"

	"github.com/elliotchance/pie/v2"
)

// Phase 选角阶段
type Phase string

const (
	PhaseBan   Phase = "BAN"
	PhaseDraft Phase = "DRAFT"
	PhaseDone  Phase = "DONE"
)

// Rejection 禁用或选择被拒绝的原因
type Rejection string

const (
	RejectPhase     Rejection = "phase"
	RejectLimit     Rejection = "limit"
	RejectAIBan     Rejection = "ai-ban"
	RejectDuplicate Rejection = "duplicate"
	RejectDone      Rejection = "done"
	RejectTurn      Rejection = "turn"
	RejectTaken     Rejection = "taken"
	RejectUnknown   Rejection = "unknown"
)

func (r Rejection) Error() string {
	return "选角操作被拒绝: " + string(r)
}

// Winner 选角结果
type Winner string

const (
	WinnerUser Winner = "user"
	WinnerAI   Winner = "ai"
	WinnerDraw Winner = "draw"
)

// Summary 选角结束后的评估
type Summary struct {
	UserScore float64 `json:"user_score"`
	AIScore   float64 `json:"ai_score"`
	Winner    Winner  `json:"winner"`
	WinChance int     `json:"win_chance"`
}

// Session 一局针对 AI 的禁用/选择模拟
type Session struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	MetaProfile string    `json:"meta_profile"`
	Phase       Phase     `json:"phase"`
	UserBans    []string  `json:"user_bans"`
	AIBans      []string  `json:"ai_bans"`
	UserPicks   []string  `json:"user_picks"`
	AIPicks     []string  `json:"ai_picks"`
	Step        int       `json:"step"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSession 创建会话，AI 禁用在创建时确定
func NewSession(id, ownerID, profile string) *Session {
	if profile == "" {
		profile = DefaultMetaProfile
	}
	return &Session{
		ID:          id,
		OwnerID:     ownerID,
		MetaProfile: profile,
		Phase:       PhaseBan,
		AIBans:      ComputeAIBans(profile),
		CreatedAt:   time.Now(),
	}
}

// Turn 当前行动方，选角结束时返回空
func (s *Session) Turn() Actor {
	if s.Step >= len(TurnOrder) {
		return ""
	}
	return TurnOrder[s.Step]
}

// Done 是否所有选择都已完成
func (s *Session) Done() bool {
	return s.Step >= len(TurnOrder)
}

// Available 未被禁用且未被选择的英雄
func (s *Session) Available() []string {
	return pie.Filter(Brawlers, func(b string) bool {
		return !pie.Contains(s.AIBans, b) &&
			!pie.Contains(s.UserBans, b) &&
			!pie.Contains(s.UserPicks, b) &&
			!pie.Contains(s.AIPicks, b)
	})
}

// ApplyUserBan 用户禁用一个英雄，第三次禁用后进入选择阶段
func (s *Session) ApplyUserBan(brawler string) error {
	if s.Phase != PhaseBan {
		return RejectPhase
	}
	if len(s.UserBans) >= BanCount {
		return RejectLimit
	}
	if !pie.Contains(Brawlers, brawler) {
		return RejectUnknown
	}
	if pie.Contains(s.AIBans, brawler) {
		return RejectAIBan
	}
	if pie.Contains(s.UserBans, brawler) {
		return RejectDuplicate
	}

	s.UserBans = append(s.UserBans, brawler)
	if len(s.UserBans) >= BanCount {
		s.Phase = PhaseDraft
		s.Step = 0
	}
	return nil
}

// ApplyUserPick 用户在自己的回合选择一个英雄
func (s *Session) ApplyUserPick(brawler string) error {
	if s.Phase != PhaseDraft {
		return RejectPhase
	}
	if s.Done() {
		return RejectDone
	}
	if s.Turn() != ActorUser {
		return RejectTurn
	}
	if len(s.UserPicks) >= PickCount {
		return RejectLimit
	}
	if !pie.Contains(Brawlers, brawler) {
		return RejectUnknown
	}
	if !pie.Contains(s.Available(), brawler) {
		return RejectTaken
	}

	s.UserPicks = append(s.UserPicks, brawler)
	s.Step++
	return nil
}

// RunAIPicks 连续执行 AI 回合，返回本次 AI 选择的英雄
func (s *Session) RunAIPicks() []string {
	var picked []string
	for s.Phase == PhaseDraft && !s.Done() && s.Turn() == ActorAI {
		if len(s.AIPicks) >= PickCount {
			break
		}
		available := s.Available()
		if len(available) == 0 {
			break
		}

		last := ""
		if n := len(s.UserPicks); n > 0 {
			last = s.UserPicks[n-1]
		}

		pick := PickAI(available, last, s.AIPicks, s.MetaProfile)
		if pick == "" {
			break
		}
		s.AIPicks = append(s.AIPicks, pick)
		s.Step++
		picked = append(picked, pick)
	}
	return picked
}

// Summarize 选择完成后评估双方阵容，未完成时返回 false
func (s *Session) Summarize() (Summary, bool) {
	if s.Phase != PhaseDraft || !s.Done() {
		return Summary{}, false
	}

	userScore := EvaluateDraft(s.UserPicks, s.MetaProfile)
	aiScore := EvaluateDraft(s.AIPicks, s.MetaProfile)

	winner := WinnerDraw
	if userScore > aiScore {
		winner = WinnerUser
	}
	if aiScore > userScore {
		winner = WinnerAI
	}

	s.Phase = PhaseDone
	return Summary{
		UserScore: userScore,
		AIScore:   aiScore,
		Winner:    winner,
		WinChance: WinChance(userScore, aiScore),
	}, true
}
