package transport

import (
	"WrplSpectra/internal/core/model"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Summary converts a record into a protobuf Struct without the raw results
// tree, which can be large and is already stored by the file exporters.
func Summary(rec *model.ReplayRecord) (*structpb.Struct, error) {
	h := rec.Header
	players := make([]interface{}, 0, len(rec.Players))
	for _, p := range rec.Players {
		lineup := make([]interface{}, 0, len(p.Stats.Lineup))
		for _, craft := range p.Stats.Lineup {
			lineup = append(lineup, craft)
		}
		players = append(players, map[string]interface{}{
			"user_id":      p.Identity.UserID,
			"name":         p.Identity.Name,
			"squadron_id":  p.Identity.SquadronID,
			"squadron_tag": p.Identity.SquadronTag,
			"platform":     p.Identity.Platform,
			"team":         p.Stats.Team,
			"kills":        p.Stats.Kills,
			"ground_kills": p.Stats.GroundKills,
			"naval_kills":  p.Stats.NavalKills,
			"assists":      p.Stats.Assists,
			"deaths":       p.Stats.Deaths,
			"score":        p.Stats.Score,
			"wait_seconds": p.Stats.WaitTime.Seconds(),
			"lineup":       lineup,
		})
	}

	s, err := structpb.NewStruct(map[string]interface{}{
		"file_name":      h.FileName,
		"session_id":     h.SessionID,
		"version":        h.Version,
		"level":          h.Level,
		"battle_type":    h.BattleType,
		"difficulty":     string(h.Difficulty),
		"difficulty_raw": uint32(h.DifficultyRaw),
		"start_time":     h.StartTime,
		"status":         rec.Status,
		"time_played":    rec.TimePlayed,
		"author_user_id": rec.Author.UserID,
		"author_name":    rec.Author.Name,
		"players":        players,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	return s, nil
}

// EncodeSummary serializes the summary of rec to protobuf binary format.
func EncodeSummary(rec *model.ReplayRecord) ([]byte, error) {
	s, err := Summary(rec)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// DecodeSummary parses a payload produced by EncodeSummary.
func DecodeSummary(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &s, nil
}
