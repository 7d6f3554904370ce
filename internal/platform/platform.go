// Package platform 聊天平台（角色、消息）的外部接口与实现
package platform

import (
	"context"
)

// RolePlatform 角色授予与查询
type RolePlatform interface {
	GrantRole(ctx context.Context, userID, roleID string) error
	RevokeRole(ctx context.Context, userID, roleID string) error
	GetMemberRoles(ctx context.Context, userID string) ([]string, error)
}

// DisplayNamer 可选接口：查询成员当前显示名
type DisplayNamer interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Notifier 对外消息通道
type Notifier interface {
	PostMessage(ctx context.Context, channelID, content string) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
}

// Mention 生成用户提及文本
func Mention(userID string) string {
	return "<@" + userID + ">"
}
