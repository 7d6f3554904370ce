// discord.go

package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/elliotchance/pie/v2"
	"github.com/jacl-coder/BrawlLadder-Server/config"
	"github.com/sirupsen/logrus"
)

// commandTimeout 单条聊天命令的处理上限
const commandTimeout = 30 * time.Second

// Inbound 平台无关的聊天消息
type Inbound struct {
	AuthorID    string
	DisplayName string
	Roles       []string
	Content     string
	Bot         bool
}

// DiscordBot 把 Discord 文本命令交给分发器并回复到原频道
type DiscordBot struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
	limiter    *RateLimiter
	prefix     string
	modRoles   []string
	log        *logrus.Entry
}

// NewDiscordBot 创建 Discord 命令入口，limiter 可以为空
func NewDiscordBot(session *discordgo.Session, cfg config.DiscordConfig, dispatcher *Dispatcher, limiter *RateLimiter, log *logrus.Entry) *DiscordBot {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "!"
	}
	return &DiscordBot{
		session:    session,
		dispatcher: dispatcher,
		limiter:    limiter,
		prefix:     prefix,
		modRoles:   cfg.ModeratorRoles,
		log:        log,
	}
}

// Attach 注册消息处理器
func (b *DiscordBot) Attach() {
	b.session.Identify.Intents |= discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent | discordgo.IntentsGuildPresences
	b.session.AddHandler(b.onMessageCreate)
}

func (b *DiscordBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	in := Inbound{
		AuthorID:    m.Author.ID,
		DisplayName: m.Author.GlobalName,
		Content:     m.Content,
		Bot:         m.Author.Bot,
	}
	if in.DisplayName == "" {
		in.DisplayName = m.Author.Username
	}
	if m.Member != nil {
		in.Roles = m.Member.Roles
		if m.Member.Nick != "" {
			in.DisplayName = m.Member.Nick
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	text, ok := b.Handle(ctx, in)
	if !ok || text == "" {
		return
	}
	if _, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		b.log.WithError(err).WithField("channel_id", m.ChannelID).Warn("回复命令失败")
	}
}

// Handle 处理一条消息；不是命令时返回 false
func (b *DiscordBot) Handle(ctx context.Context, in Inbound) (string, bool) {
	if in.Bot {
		return "", false
	}

	cmd, err := ParseText(b.prefix, in.Content)
	if errors.Is(err, ErrNotCommand) {
		return "", false
	}
	// 未知命令可能属于其他机器人
	if errors.Is(err, ErrUnknownCommand) {
		return "", false
	}
	if err != nil {
		return b.dispatcher.errorText(err), true
	}

	if b.limiter != nil && !b.limiter.Allow("discord:"+in.AuthorID) {
		return b.dispatcher.errorText(ErrRateLimited), true
	}

	actor := Actor{
		ID:          in.AuthorID,
		DisplayName: in.DisplayName,
		Moderator:   b.isModerator(in.Roles),
	}

	b.log.WithFields(logrus.Fields{
		"player_id": actor.ID,
		"content":   in.Content,
	}).Debug("收到聊天命令")

	reply := b.dispatcher.Dispatch(ctx, Request{Actor: actor, Command: cmd})
	return reply.Text, true
}

func (b *DiscordBot) isModerator(roles []string) bool {
	return pie.Any(roles, func(r string) bool {
		return pie.Contains(b.modRoles, r)
	})
}
