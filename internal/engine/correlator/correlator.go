package correlator

import (
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/core/tree"
	"log"
)

// squadronNone is the clanId value the game writes for players without a squadron.
const squadronNone = "-1"

// Paths searched for the two datasets inside the results tree.
var (
	statsPaths   = [][]string{{"player"}, {"players"}}
	profilePaths = [][]string{{"uiScriptsData", "playersInfo"}, {"playersInfo"}}
)

// Options tunes how unmatched entries are handled.
type Options struct {
	// KeepUnmatched emits a record with a placeholder identity for battle
	// stats that have no profile instead of dropping them.
	KeepUnmatched bool
	Verbose       bool
}

// Correlator joins battle stats with player profiles by user id.
type Correlator struct {
	opts Options
}

// New creates a Correlator.
func New(opts Options) *Correlator {
	return &Correlator{opts: opts}
}

// Correlate builds the roster for one replay. Order follows the battle
// stats list; each user id appears at most once.
func (c *Correlator) Correlate(header *model.ReplayHeader, results tree.Value) []model.PlayerRecord {
	stats, _ := results.Lookup(statsPaths...)
	profiles, _ := results.Lookup(profilePaths...)
	index := indexProfiles(profiles)

	var roster []model.PlayerRecord
	seen := make(map[string]bool)

	for _, entry := range entries(stats) {
		id, ok := entry.Get("userId").Canonical()
		if !ok || id == "" {
			continue
		}
		if seen[id] {
			if c.opts.Verbose {
				log.Printf("debug: duplicate battle stats for user %s in session %s skipped", id, sessionOf(header))
			}
			continue
		}

		profile, ok := index[id]
		if !ok {
			if !c.opts.KeepUnmatched {
				if c.opts.Verbose {
					log.Printf("debug: no profile for user %s in session %s, dropped from roster", id, sessionOf(header))
				}
				continue
			}
			profile = tree.Empty()
		}

		seen[id] = true
		roster = append(roster, model.PlayerRecord{
			Identity: identityOf(id, profile),
			Stats:    statsOf(entry, profile),
		})
	}
	return roster
}

// indexProfiles maps each profile's canonical id to the first entry seen.
func indexProfiles(profiles tree.Value) map[string]tree.Value {
	index := make(map[string]tree.Value)
	for _, p := range entries(profiles) {
		id, ok := p.Get("id").Canonical()
		if !ok || id == "" {
			continue
		}
		if _, dup := index[id]; !dup {
			index[id] = p
		}
	}
	return index
}

// entries returns the elements of a sequence or the values of a mapping.
func entries(v tree.Value) []tree.Value {
	switch v.Kind() {
	case tree.Sequence:
		return v.Items()
	case tree.Mapping:
		out := make([]tree.Value, 0, v.Len())
		v.Each(func(_ string, val tree.Value) {
			out = append(out, val)
		})
		return out
	}
	return nil
}

func identityOf(id string, profile tree.Value) model.PlayerIdentity {
	squadron := profile.GetString("clanId", "")
	if squadron == squadronNone {
		squadron = ""
	}
	return model.PlayerIdentity{
		UserID:      id,
		Name:        profile.GetString("name", ""),
		SquadronID:  squadron,
		SquadronTag: profile.GetString("clanTag", ""),
		Platform:    profile.GetString("platform", ""),
	}
}

func statsOf(entry, profile tree.Value) model.PlayerBattleStats {
	return model.PlayerBattleStats{
		Team:          entry.GetInt("team", 0),
		Squad:         entry.GetInt("squadId", 0),
		AutoSquad:     entry.GetBool("autoSquad", false),
		Kills:         entry.GetInt("kills", 0),
		GroundKills:   entry.GetInt("groundKills", 0),
		NavalKills:    entry.GetInt("navalKills", 0),
		TeamKills:     entry.GetInt("teamKills", 0),
		AIKills:       entry.GetInt("aiKills", 0),
		AIGroundKills: entry.GetInt("aiGroundKills", 0),
		AINavalKills:  entry.GetInt("aiNavalKills", 0),
		Assists:       entry.GetInt("assists", 0),
		Deaths:        entry.GetInt("deaths", 0),
		CaptureZone:   entry.GetInt("captureZone", 0),
		DamageZone:    entry.GetInt("damageZone", 0),
		Score:         entry.GetInt("score", 0),
		AwardDamage:   entry.GetInt("awardDamage", 0),
		MissileEvades: entry.GetInt("missileEvades", 0),
		WaitTime:      entry.GetSeconds("waitTime", 0),
		Lineup:        lineupOf(profile.Get("crafts")),
	}
}

// lineupOf lists craft names in encounter order. Entries are either plain
// names or records with a "name" field; anything else is skipped.
func lineupOf(crafts tree.Value) []string {
	lineup := []string{}
	for _, craft := range entries(crafts) {
		switch craft.Kind() {
		case tree.String:
			name, _ := craft.AsString()
			if name != "" {
				lineup = append(lineup, name)
			}
		case tree.Mapping:
			if name := craft.GetString("name", ""); name != "" {
				lineup = append(lineup, name)
			}
		}
	}
	return lineup
}

func sessionOf(h *model.ReplayHeader) string {
	if h == nil {
		return "unknown"
	}
	return h.SessionID
}
