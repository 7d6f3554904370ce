package models

import "time"

// QueueID 匹配队列标识
type QueueID string

// QueueEntry 队列中的等待条目
type QueueEntry struct {
	PlayerID    string    `json:"player_id"`
	DisplayName string    `json:"display_name"`
	QueueID     QueueID   `json:"queue_id"`
	JoinedAt    time.Time `json:"joined_at"`
	Rating      float64   `json:"rating"` // 入队时的积分快照
}
