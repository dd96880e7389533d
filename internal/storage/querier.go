package storage

import (
	"WrplSpectra/internal/config"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ErrNotFound is returned when no stored replay matches the query.
var ErrNotFound = errors.New("replay not found")

// ReplaySummary is a stored replay row.
type ReplaySummary struct {
	SessionID    string    `json:"session_id"`
	FileName     string    `json:"file_name"`
	Level        string    `json:"level"`
	BattleType   string    `json:"battle_type"`
	Difficulty   string    `json:"difficulty"`
	StartTime    time.Time `json:"start_time"`
	Status       string    `json:"status"`
	TimePlayed   float64   `json:"time_played"`
	AuthorUserID string    `json:"author_user_id"`
	AuthorName   string    `json:"author_name"`
	PlayerCount  uint32    `json:"player_count"`
}

// PlayerSummary is a stored roster row.
type PlayerSummary struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	SquadronTag string   `json:"squadron_tag"`
	Team        int64    `json:"team"`
	Kills       int64    `json:"kills"`
	Deaths      int64    `json:"deaths"`
	Score       int64    `json:"score"`
	Lineup      []string `json:"lineup"`
}

// ListFilter narrows ListReplays.
type ListFilter struct {
	Level      string
	Difficulty string
	Limit      int
}

// Querier defines the interface for reading stored replays.
type Querier interface {
	GetReplay(ctx context.Context, sessionID string) (*ReplaySummary, []PlayerSummary, error)
	ListReplays(ctx context.Context, filter ListFilter) ([]ReplaySummary, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn driver.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

const replayColumns = `SessionID, FileName, Level, BattleType, Difficulty, StartTime,
	Status, TimePlayed, AuthorUserID, AuthorName, PlayerCount`

func scanReplay(scan func(dest ...interface{}) error) (ReplaySummary, error) {
	var r ReplaySummary
	err := scan(&r.SessionID, &r.FileName, &r.Level, &r.BattleType, &r.Difficulty, &r.StartTime,
		&r.Status, &r.TimePlayed, &r.AuthorUserID, &r.AuthorName, &r.PlayerCount)
	return r, err
}

// GetReplay returns one replay and its roster.
func (q *clickhouseQuerier) GetReplay(ctx context.Context, sessionID string) (*ReplaySummary, []PlayerSummary, error) {
	row := q.conn.QueryRow(ctx, "SELECT "+replayColumns+" FROM replays FINAL WHERE SessionID = ? LIMIT 1", sessionID)
	replay, err := scanReplay(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to query replay: %w", err)
	}

	rows, err := q.conn.Query(ctx, `
		SELECT UserID, Name, SquadronTag, Team, Kills, Deaths, Score, Lineup
		FROM replay_players FINAL
		WHERE SessionID = ?
		ORDER BY Team, Score DESC`, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var players []PlayerSummary
	for rows.Next() {
		var p PlayerSummary
		if err := rows.Scan(&p.UserID, &p.Name, &p.SquadronTag, &p.Team, &p.Kills, &p.Deaths, &p.Score, &p.Lineup); err != nil {
			return nil, nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	return &replay, players, rows.Err()
}

// ListReplays returns the most recent replays matching filter.
func (q *clickhouseQuerier) ListReplays(ctx context.Context, filter ListFilter) ([]ReplaySummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + replayColumns + " FROM replays FINAL")

	var whereClauses []string
	args := []interface{}{}
	if filter.Level != "" {
		whereClauses = append(whereClauses, "Level = ?")
		args = append(args, filter.Level)
	}
	if filter.Difficulty != "" {
		whereClauses = append(whereClauses, "Difficulty = ?")
		args = append(args, filter.Difficulty)
	}
	if len(whereClauses) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY StartTime DESC LIMIT %d", limit))

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var replays []ReplaySummary
	for rows.Next() {
		r, err := scanReplay(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan replay row: %w", err)
		}
		replays = append(replays, r)
	}
	return replays, rows.Err()
}
