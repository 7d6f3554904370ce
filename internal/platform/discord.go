// discord.go

package platform

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord 基于 discordgo 的角色与消息实现
type Discord struct {
	session *discordgo.Session
	guildID string
}

// NewDiscord 创建Discord适配器
func NewDiscord(session *discordgo.Session, guildID string) *Discord {
	return &Discord{session: session, guildID: guildID}
}

// GrantRole 授予角色
func (d *Discord) GrantRole(ctx context.Context, userID, roleID string) error {
	if err := d.session.GuildMemberRoleAdd(d.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("授予角色 %s 给 %s 失败: %w", roleID, userID, err)
	}
	return nil
}

// RevokeRole 移除角色
func (d *Discord) RevokeRole(ctx context.Context, userID, roleID string) error {
	if err := d.session.GuildMemberRoleRemove(d.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("移除角色 %s 失败: %w", roleID, err)
	}
	return nil
}

// GetMemberRoles 查询成员角色
func (d *Discord) GetMemberRoles(ctx context.Context, userID string) ([]string, error) {
	member, err := d.member(ctx, userID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

// DisplayName 成员在服务器内的显示名
func (d *Discord) DisplayName(ctx context.Context, userID string) (string, error) {
	member, err := d.member(ctx, userID)
	if err != nil {
		return "", err
	}
	return MemberDisplayName(member), nil
}

func (d *Discord) member(ctx context.Context, userID string) (*discordgo.Member, error) {
	// 优先读取网关缓存
	if d.session.State != nil {
		if m, err := d.session.State.Member(d.guildID, userID); err == nil {
			return m, nil
		}
	}
	m, err := d.session.GuildMember(d.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("获取成员 %s 失败: %w", userID, err)
	}
	return m, nil
}

// PostMessage 发送消息，返回消息ID
func (d *Discord) PostMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("发送消息到频道 %s 失败: %w", channelID, err)
	}
	return msg.ID, nil
}

// EditMessage 编辑已发送的消息
func (d *Discord) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if _, err := d.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("编辑消息 %s 失败: %w", messageID, err)
	}
	return nil
}

// IsOffline 成员是否明确处于离线状态；没有在线状态缓存时返回 known=false
func (d *Discord) IsOffline(userID string) (offline bool, known bool) {
	if d.session.State == nil {
		return false, false
	}
	p, err := d.session.State.Presence(d.guildID, userID)
	if err != nil || p == nil {
		return false, false
	}
	return p.Status == discordgo.StatusOffline, true
}

// MemberDisplayName 昵称优先，其次全局名与用户名
func MemberDisplayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
