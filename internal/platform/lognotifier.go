package platform

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogNotifier 未接入聊天平台时把消息写入日志
type LogNotifier struct {
	log   *logrus.Entry
	count atomic.Int64
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	return &LogNotifier{log: log}
}

// PostMessage 记录消息并返回随机消息ID
func (n *LogNotifier) PostMessage(_ context.Context, channelID, content string) (string, error) {
	id := uuid.NewString()
	n.count.Add(1)
	n.log.WithFields(logrus.Fields{
		"channel_id": channelID,
		"message_id": id,
	}).Info(content)
	return id, nil
}

// EditMessage 记录编辑
func (n *LogNotifier) EditMessage(_ context.Context, channelID, messageID, content string) error {
	n.count.Add(1)
	n.log.WithFields(logrus.Fields{
		"channel_id": channelID,
		"message_id": messageID,
		"edit":       true,
	}).Info(content)
	return nil
}

// Sent 已记录的消息数
func (n *LogNotifier) Sent() int64 {
	return n.count.Load()
}
