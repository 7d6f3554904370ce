// command.go

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

var (
	// ErrNotCommand 消息不是命令
	ErrNotCommand = errors.New("不是命令")
	// ErrUnknownCommand 未知命令
	ErrUnknownCommand = errors.New("未知命令")
	// ErrMissingArgument 缺少参数
	ErrMissingArgument = errors.New("缺少命令参数")
	// ErrInvalidSide 无法识别的队伍
	ErrInvalidSide = errors.New("无法识别的队伍")
	// ErrMalformedFrame WebSocket 帧格式错误
	ErrMalformedFrame = errors.New("消息格式错误")
)

// Actor 命令发起者
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Moderator   bool   `json:"moderator"`
}

// Command 入站命令
type Command interface {
	isCommand()
}

// Request 发起者与命令
type Request struct {
	Actor   Actor
	Command Command
}

// EnqueueCmd 加入队列，Queue 为空时使用默认队列
type EnqueueCmd struct {
	Queue models.QueueID `json:"queue"`
}

// DequeueCmd 退出队列，Queue 为空时退出所有队列
type DequeueCmd struct {
	Queue models.QueueID `json:"queue"`
}

// SubmitRoomCodeCmd 提交房间码
type SubmitRoomCodeCmd struct {
	Code string `json:"code"`
}

// VoteCmd 结果或未到场投票
type VoteCmd struct {
	MatchID string          `json:"match_id"`
	Kind    models.VoteKind `json:"kind"`
	Side    models.Side     `json:"side"`
}

// DraftStartCmd 开始选角
type DraftStartCmd struct{}

// DraftBanCmd 禁用英雄
type DraftBanCmd struct {
	Brawler string `json:"brawler"`
}

// DraftPickCmd 选择英雄
type DraftPickCmd struct {
	Brawler string `json:"brawler"`
}

// DraftCancelCmd 放弃选角
type DraftCancelCmd struct{}

// RatingQueryCmd 查询积分，PlayerID 为空时查询自己
type RatingQueryCmd struct {
	PlayerID string `json:"player_id"`
}

// TierSyncCmd 立即同步段位（仅管理员）
type TierSyncCmd struct{}

// QueueStatusCmd 查看队列
type QueueStatusCmd struct {
	Queue models.QueueID `json:"queue"`
}

func (EnqueueCmd) isCommand()        {}
func (DequeueCmd) isCommand()        {}
func (SubmitRoomCodeCmd) isCommand() {}
func (VoteCmd) isCommand()           {}
func (DraftStartCmd) isCommand()     {}
func (DraftBanCmd) isCommand()       {}
func (DraftPickCmd) isCommand()      {}
func (DraftCancelCmd) isCommand()    {}
func (RatingQueryCmd) isCommand()    {}
func (TierSyncCmd) isCommand()       {}
func (QueueStatusCmd) isCommand()    {}

// ParseText 解析聊天文本命令，例如 "!win blue"
func ParseText(prefix, content string) (Command, error) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return nil, ErrNotCommand
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return nil, ErrNotCommand
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	switch name {
	case "join", "queue-join":
		return EnqueueCmd{Queue: queueArg(args)}, nil
	case "leave":
		return DequeueCmd{Queue: queueArg(args)}, nil
	case "queue", "q":
		return QueueStatusCmd{Queue: queueArg(args)}, nil
	case "code", "room":
		if len(args) == 0 {
			return nil, ErrMissingArgument
		}
		return SubmitRoomCodeCmd{Code: args[0]}, nil
	case "win":
		return parseVote(models.VoteResult, args)
	case "dodge":
		return parseVote(models.VoteDodge, args)
	case "draft":
		return DraftStartCmd{}, nil
	case "ban":
		if len(args) == 0 {
			return nil, ErrMissingArgument
		}
		return DraftBanCmd{Brawler: strings.Join(args, " ")}, nil
	case "pick":
		if len(args) == 0 {
			return nil, ErrMissingArgument
		}
		return DraftPickCmd{Brawler: strings.Join(args, " ")}, nil
	case "draftcancel":
		return DraftCancelCmd{}, nil
	case "elo", "rank":
		cmd := RatingQueryCmd{}
		if len(args) > 0 {
			cmd.PlayerID = mentionID(args[0])
		}
		return cmd, nil
	case "tiersync":
		return TierSyncCmd{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

func queueArg(args []string) models.QueueID {
	if len(args) == 0 {
		return ""
	}
	return models.QueueID(strings.ToLower(args[0]))
}

func parseVote(kind models.VoteKind, args []string) (Command, error) {
	if len(args) == 0 {
		return nil, ErrMissingArgument
	}
	side, err := ParseSide(args[0])
	if err != nil {
		return nil, err
	}
	cmd := VoteCmd{Kind: kind, Side: side}
	if len(args) > 1 {
		cmd.MatchID = args[1]
	}
	return cmd, nil
}

// ParseSide 识别队伍名，支持英文与法文
func ParseSide(s string) (models.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blue", "bleu", "b":
		return models.SideBlue, nil
	case "red", "rouge", "r":
		return models.SideRed, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSide, s)
	}
}

// mentionID 把 <@123> 或 <@!123> 还原为用户ID
func mentionID(s string) string {
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	return strings.TrimSuffix(s, ">")
}

// Frame WebSocket 消息帧
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeFrame 把 WebSocket 帧解码为命令
func DecodeFrame(data []byte) (Command, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	var cmd Command
	switch f.Type {
	case "enqueue":
		cmd = &EnqueueCmd{}
	case "dequeue":
		cmd = &DequeueCmd{}
	case "room_code":
		cmd = &SubmitRoomCodeCmd{}
	case "vote":
		cmd = &VoteCmd{}
	case "draft_start":
		return DraftStartCmd{}, nil
	case "draft_ban":
		cmd = &DraftBanCmd{}
	case "draft_pick":
		cmd = &DraftPickCmd{}
	case "draft_cancel":
		return DraftCancelCmd{}, nil
	case "rating":
		cmd = &RatingQueryCmd{}
	case "tier_sync":
		return TierSyncCmd{}, nil
	case "queue_status":
		cmd = &QueueStatusCmd{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, f.Type)
	}

	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, cmd); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
	}
	return deref(cmd), nil
}

func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *EnqueueCmd:
		return *c
	case *DequeueCmd:
		return *c
	case *SubmitRoomCodeCmd:
		return *c
	case *VoteCmd:
		return *c
	case *DraftBanCmd:
		return *c
	case *DraftPickCmd:
		return *c
	case *RatingQueryCmd:
		return *c
	case *QueueStatusCmd:
		return *c
	default:
		return cmd
	}
}
