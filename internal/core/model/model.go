package model

import (
	"time"

	"WrplSpectra/internal/core/tree"
)

// Difficulty is the game mode derived from the header difficulty nibble.
type Difficulty string

const (
	Arcade    Difficulty = "Arcade"
	Realistic Difficulty = "Realistic"
	Simulator Difficulty = "Simulator"
)

// ReplayHeader holds the fields decoded from the fixed-layout replay header.
type ReplayHeader struct {
	FileName          string     `json:"file_name"`
	FileSize          int        `json:"file_size"`
	Version           uint32     `json:"version"`
	Level             string     `json:"level"`
	LevelSettings     string     `json:"level_settings"`
	BattleType        string     `json:"battle_type"`
	Environment       string     `json:"environment"`
	Visibility        string     `json:"visibility"`
	RezOffset         uint32     `json:"rez_offset"`
	DifficultyRaw     uint8      `json:"difficulty_raw"`
	Difficulty        Difficulty `json:"difficulty"`
	SessionType       uint32     `json:"session_type"`
	SessionIDInt      uint64     `json:"session_id_int"`
	SessionID         string     `json:"session_id"`
	MSetSize          uint32     `json:"m_set_size"`
	LocName           string     `json:"loc_name"`
	StartTime         uint32     `json:"start_time"`
	StartTimeReadable string     `json:"start_time_readable"`
	TimeLimit         uint32     `json:"time_limit"`
	ScoreLimit        uint32     `json:"score_limit"`
	BattleClass       string     `json:"battle_class"`
	BattleKillStreak  string     `json:"battle_kill_streak"`
}

// PlayerIdentity is the profile side of a correlated player.
type PlayerIdentity struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	SquadronID  string `json:"squadron_id"`
	SquadronTag string `json:"squadron_tag"`
	Platform    string `json:"platform"`
}

// PlayerBattleStats is the per-player battle outcome.
type PlayerBattleStats struct {
	Team          int64         `json:"team"`
	Squad         int64         `json:"squad"`
	AutoSquad     bool          `json:"auto_squad"`
	Kills         int64         `json:"kills"`
	GroundKills   int64         `json:"ground_kills"`
	NavalKills    int64         `json:"naval_kills"`
	TeamKills     int64         `json:"team_kills"`
	AIKills       int64         `json:"ai_kills"`
	AIGroundKills int64         `json:"ai_ground_kills"`
	AINavalKills  int64         `json:"ai_naval_kills"`
	Assists       int64         `json:"assists"`
	Deaths        int64         `json:"deaths"`
	CaptureZone   int64         `json:"capture_zone"`
	DamageZone    int64         `json:"damage_zone"`
	Score         int64         `json:"score"`
	AwardDamage   int64         `json:"award_damage"`
	MissileEvades int64         `json:"missile_evades"`
	WaitTime      time.Duration `json:"wait_time"`
	Lineup        []string      `json:"lineup"`
}

// PlayerRecord pairs a profile with the battle stats of the same user.
type PlayerRecord struct {
	Identity PlayerIdentity    `json:"identity"`
	Stats    PlayerBattleStats `json:"stats"`
}

// Author identifies who recorded the replay.
type Author struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// ReplayRecord is the fully assembled result for one replay file.
type ReplayRecord struct {
	SourcePath string         `json:"-"`
	Header     ReplayHeader   `json:"header"`
	Status     string         `json:"status"`
	TimePlayed float64        `json:"time_played"`
	Author     Author         `json:"author"`
	Players    []PlayerRecord `json:"players"`
	Results    tree.Value     `json:"results"`
}
