package storage

import (
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/factory"
	imodel "WrplSpectra/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func init() {
	factory.RegisterWriter("clickhouse", func(cfg *config.Config) (imodel.Writer, error) {
		return NewClickHouseWriter(cfg.ClickHouse)
	})
}

const createReplaysTable = `
CREATE TABLE IF NOT EXISTS replays (
    SessionID     String,
    FileName      String,
    Version       UInt32,
    Level         String,
    BattleType    String,
    Difficulty    String,
    DifficultyRaw UInt8,
    StartTime     DateTime,
    TimeLimit     UInt32,
    ScoreLimit    UInt32,
    Status        String,
    TimePlayed    Float64,
    AuthorUserID  String,
    AuthorName    String,
    PlayerCount   UInt32,
    IngestedAt    DateTime
) ENGINE = ReplacingMergeTree(IngestedAt)
ORDER BY SessionID;
`

const createPlayersTable = `
CREATE TABLE IF NOT EXISTS replay_players (
    SessionID    String,
    UserID       String,
    Name         String,
    SquadronID   String,
    SquadronTag  String,
    Platform     String,
    Team         Int64,
    Squad        Int64,
    Kills        Int64,
    GroundKills  Int64,
    NavalKills   Int64,
    Assists      Int64,
    Deaths       Int64,
    Score        Int64,
    WaitSeconds  Float64,
    Lineup       Array(String),
    IngestedAt   DateTime
) ENGINE = ReplacingMergeTree(IngestedAt)
ORDER BY (SessionID, UserID);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createReplaysTable, createPlayersTable} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Println("Successfully connected to ClickHouse and ensured tables exist.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

func (w *ClickHouseWriter) Name() string { return "clickhouse" }

// Close closes the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

// Write inserts the replay summary and one row per player.
func (w *ClickHouseWriter) Write(ctx context.Context, rec *model.ReplayRecord) error {
	now := time.Now()
	h := rec.Header

	replayBatch, err := w.conn.PrepareBatch(ctx, "INSERT INTO replays")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	err = replayBatch.Append(
		h.SessionID,
		h.FileName,
		h.Version,
		h.Level,
		h.BattleType,
		string(h.Difficulty),
		h.DifficultyRaw,
		time.Unix(int64(h.StartTime), 0),
		h.TimeLimit,
		h.ScoreLimit,
		rec.Status,
		rec.TimePlayed,
		rec.Author.UserID,
		rec.Author.Name,
		uint32(len(rec.Players)),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to append replay to batch: %w", err)
	}
	if err := replayBatch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	if len(rec.Players) == 0 {
		return nil
	}

	playerBatch, err := w.conn.PrepareBatch(ctx, "INSERT INTO replay_players")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, row := range PlayerRows(rec) {
		if err := playerBatch.Append(row...); err != nil {
			return fmt.Errorf("failed to append player to batch: %w", err)
		}
	}
	if err := playerBatch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote replay %s with %d players to ClickHouse", h.SessionID, len(rec.Players))
	return nil
}

// PlayerRows flattens the roster into replay_players column order.
func PlayerRows(rec *model.ReplayRecord) [][]interface{} {
	now := time.Now()
	rows := make([][]interface{}, 0, len(rec.Players))
	for _, p := range rec.Players {
		lineup := p.Stats.Lineup
		if lineup == nil {
			lineup = []string{}
		}
		rows = append(rows, []interface{}{
			rec.Header.SessionID,
			p.Identity.UserID,
			p.Identity.Name,
			p.Identity.SquadronID,
			p.Identity.SquadronTag,
			p.Identity.Platform,
			p.Stats.Team,
			p.Stats.Squad,
			p.Stats.Kills,
			p.Stats.GroundKills,
			p.Stats.NavalKills,
			p.Stats.Assists,
			p.Stats.Deaths,
			p.Stats.Score,
			p.Stats.WaitTime.Seconds(),
			lineup,
			now,
		})
	}
	return rows
}
