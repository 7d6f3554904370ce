// postgres.go

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/lib/pq"
)

const playerColumns = `id, display_name, rating, weight, games_played, wins, losses,
	win_streak, lose_streak, tier, active, created_at, updated_at`

// PostgresStore 基于PostgreSQL的玩家存储
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore 创建PostgreSQL存储
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (models.Player, error) {
	var p models.Player
	var tier string
	err := row.Scan(
		&p.ID, &p.DisplayName, &p.Rating, &p.Weight, &p.GamesPlayed, &p.Wins, &p.Losses,
		&p.WinStreak, &p.LoseStreak, &tier, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Tier = models.Tier(tier)
	return p, err
}

// GetByID 按ID读取玩家
func (s *PostgresStore) GetByID(ctx context.Context, id string) (models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	p, err := scanPlayer(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Player{}, ErrNotFound
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("查询玩家 %s 失败: %w", id, err)
	}
	return p, nil
}

// GetManyByID 批量读取，缺失的ID被忽略
func (s *PostgresStore) GetManyByID(ctx context.Context, ids []string) ([]models.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1)`
	return s.queryPlayers(ctx, query, pq.Array(ids))
}

// ListActiveOrderedByRatingDesc 活跃玩家按积分降序
func (s *PostgresStore) ListActiveOrderedByRatingDesc(ctx context.Context) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE active ORDER BY rating DESC, id ASC`
	return s.queryPlayers(ctx, query)
}

func (s *PostgresStore) queryPlayers(ctx context.Context, query string, args ...any) ([]models.Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询玩家失败: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("读取玩家行失败: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// UpdateByID 部分更新并返回最新记录
func (s *PostgresStore) UpdateByID(ctx context.Context, id string, upd models.PlayerUpdate) (models.Player, error) {
	if upd.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	set, args := buildPlayerUpdate(upd)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE players SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = $%d RETURNING %s`,
		set, len(args), playerColumns)

	p, err := scanPlayer(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Player{}, ErrNotFound
	}
	if err != nil {
		return models.Player{}, fmt.Errorf("更新玩家 %s 失败: %w", id, err)
	}
	return p, nil
}

// buildPlayerUpdate 生成 SET 子句与参数，占位符从 $1 开始
func buildPlayerUpdate(upd models.PlayerUpdate) (string, []any) {
	var clauses []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.DisplayName != nil {
		add("display_name", *upd.DisplayName)
	}
	if upd.Rating != nil {
		add("rating", *upd.Rating)
	}
	if upd.GamesPlayed != nil {
		add("games_played", *upd.GamesPlayed)
	}
	if upd.Wins != nil {
		add("wins", *upd.Wins)
	}
	if upd.Losses != nil {
		add("losses", *upd.Losses)
	}
	if upd.WinStreak != nil {
		add("win_streak", *upd.WinStreak)
	}
	if upd.LoseStreak != nil {
		add("lose_streak", *upd.LoseStreak)
	}
	if upd.Tier != nil {
		add("tier", string(*upd.Tier))
	}

	return strings.Join(clauses, ", "), args
}

// GetOrCreate 读取玩家，不存在时创建；显示名非空且有变化时同步
func (s *PostgresStore) GetOrCreate(ctx context.Context, id, displayName string) (models.Player, error) {
	query := `
		INSERT INTO players (id, display_name, rating, weight)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET display_name = CASE
			WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name
			ELSE players.display_name
		END
		RETURNING ` + playerColumns

	p, err := scanPlayer(s.db.QueryRowContext(ctx, query, id, displayName, models.DefaultRating, models.DefaultWeight))
	if err != nil {
		return models.Player{}, fmt.Errorf("创建玩家 %s 失败: %w", id, err)
	}
	return p, nil
}

// SaveMatch 归档对局，重复写入时覆盖
func (s *PostgresStore) SaveMatch(ctx context.Context, m models.Match) error {
	maps := make([]string, 0, len(m.Maps))
	for _, c := range m.Maps {
		maps = append(maps, c.Mode+": "+c.Map)
	}

	var closedAt sql.NullTime
	if !m.ClosedAt.IsZero() {
		closedAt = sql.NullTime{Time: m.ClosedAt, Valid: true}
	}

	query := `
		INSERT INTO matches (id, queue_id, state, blue_ids, red_ids, room_code, maps,
			best_of, blue_wins, red_wins, winner, dodged_by, created_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			room_code = EXCLUDED.room_code,
			blue_wins = EXCLUDED.blue_wins,
			red_wins = EXCLUDED.red_wins,
			winner = EXCLUDED.winner,
			dodged_by = EXCLUDED.dodged_by,
			closed_at = EXCLUDED.closed_at`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, string(m.QueueID), string(m.State), pq.Array(m.Blue), pq.Array(m.Red),
		m.RoomCode, pq.Array(maps), m.BestOf, m.BlueWins, m.RedWins,
		string(m.Winner), string(m.DodgedBy), m.CreatedAt, closedAt,
	)
	if err != nil {
		return fmt.Errorf("归档对局 %s 失败: %w", m.ID, err)
	}
	return nil
}
