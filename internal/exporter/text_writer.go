package exporter

import (
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/factory"
	imodel "WrplSpectra/internal/model"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func init() {
	factory.RegisterWriter("txt", func(cfg *config.Config) (imodel.Writer, error) {
		return NewTextWriter(cfg.Extractor.OutputDir), nil
	})
}

var (
	rule     = strings.Repeat("=", 80)
	thinRule = strings.Repeat("-", 80)
)

// TextWriter writes a human-readable report per replay.
type TextWriter struct {
	outputDir string
}

// NewTextWriter creates a text exporter. An empty outputDir writes next to
// the source replay.
func NewTextWriter(outputDir string) *TextWriter {
	return &TextWriter{outputDir: outputDir}
}

func (w *TextWriter) Name() string { return "txt" }

func (w *TextWriter) Close() error { return nil }

// Write renders rec to <replay>.txt.
func (w *TextWriter) Write(_ context.Context, rec *model.ReplayRecord) error {
	outputFile, err := OutputPath(rec, w.outputDir, "txt")
	if err != nil {
		return err
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", outputFile, err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := RenderText(bw, rec); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return file.Close()
}

// RenderText writes the report for rec to bw.
func RenderText(bw *bufio.Writer, rec *model.ReplayRecord) error {
	h := rec.Header
	name := h.FileName
	if name == "" {
		name = "Unknown"
	}

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "War Thunder Replay: %s\n", name)
	fmt.Fprintf(bw, "%s\n\n", rule)

	fmt.Fprintln(bw, "[ HEADER INFORMATION ]")
	fmt.Fprintln(bw, thinRule)
	fields := []struct {
		key   string
		value interface{}
	}{
		{"file_name", h.FileName},
		{"file_size", h.FileSize},
		{"version", h.Version},
		{"level", h.Level},
		{"level_settings", h.LevelSettings},
		{"battle_type", h.BattleType},
		{"environment", h.Environment},
		{"visibility", h.Visibility},
		{"difficulty", h.Difficulty},
		{"difficulty_raw", h.DifficultyRaw},
		{"session_type", h.SessionType},
		{"session_id", h.SessionID},
		{"session_id_int", h.SessionIDInt},
		{"m_set_size", h.MSetSize},
		{"loc_name", h.LocName},
		{"start_time", h.StartTime},
		{"start_time_readable", h.StartTimeReadable},
		{"time_limit", h.TimeLimit},
		{"score_limit", h.ScoreLimit},
		{"battle_class", h.BattleClass},
		{"battle_kill_streak", h.BattleKillStreak},
		{"rez_offset", h.RezOffset},
	}
	for _, f := range fields {
		fmt.Fprintf(bw, "%-25s: %v\n", f.key, f.value)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "[ RESULT ]")
	fmt.Fprintln(bw, thinRule)
	fmt.Fprintf(bw, "%-25s: %s\n", "status", rec.Status)
	fmt.Fprintf(bw, "%-25s: %.1f\n", "time_played", rec.TimePlayed)
	fmt.Fprintf(bw, "%-25s: %s (%s)\n", "author", rec.Author.Name, rec.Author.UserID)

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "[ PLAYERS ]")
	fmt.Fprintln(bw, thinRule)
	if len(rec.Players) == 0 {
		fmt.Fprintln(bw, "(No players)")
	}
	for _, p := range rec.Players {
		tag := p.Identity.SquadronTag
		if tag != "" {
			tag += " "
		}
		fmt.Fprintf(bw, "%s%s [%s] team %d: kills %d, ground %d, naval %d, assists %d, deaths %d, score %d\n",
			tag, p.Identity.Name, p.Identity.UserID, p.Stats.Team,
			p.Stats.Kills, p.Stats.GroundKills, p.Stats.NavalKills, p.Stats.Assists, p.Stats.Deaths, p.Stats.Score)
		if len(p.Stats.Lineup) > 0 {
			fmt.Fprintf(bw, "    lineup: %s\n", strings.Join(p.Stats.Lineup, ", "))
		}
	}

	fmt.Fprint(bw, "\n\n[ BATTLE DATA (BLK) ]\n")
	fmt.Fprintln(bw, thinRule)
	if rec.Results.IsEmpty() {
		_, err := fmt.Fprint(bw, "(No BLK data available)")
		return err
	}

	raw, err := rec.Results.MarshalJSON()
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return err
	}
	_, err = bw.Write(pretty.Bytes())
	return err
}
