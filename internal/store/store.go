// Package store 玩家记录与对局归档的持久化
package store

import (
	"context"
	"errors"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// PlayerStore 以ID读写的玩家记录存储，不提供跨记录事务
type PlayerStore interface {
	GetByID(ctx context.Context, id string) (models.Player, error)
	GetManyByID(ctx context.Context, ids []string) ([]models.Player, error)
	UpdateByID(ctx context.Context, id string, upd models.PlayerUpdate) (models.Player, error)
	ListActiveOrderedByRatingDesc(ctx context.Context) ([]models.Player, error)
	GetOrCreate(ctx context.Context, id, displayName string) (models.Player, error)
}

// MatchArchive 终局对局归档
type MatchArchive interface {
	SaveMatch(ctx context.Context, m models.Match) error
}
