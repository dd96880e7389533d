package correlator

import (
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/core/tree"
	"testing"
	"time"
)

const sampleResults = `{
  "status": "win",
  "player": [
    {"userId": 1001, "team": 1, "squadId": 2, "autoSquad": true, "kills": 3, "groundKills": 2,
     "deaths": 1, "score": 1450, "waitTime": 12.5},
    {"userId": "2002", "team": 2, "kills": "many"},
    {"userId": 3003, "team": 2},
    {"userId": 1001, "team": 1, "kills": 99},
    {"team": 1}
  ],
  "uiScriptsData": {
    "playersInfo": {
      "0": {"id": "1001", "name": "alpha", "clanId": -1, "clanTag": "", "platform": "win64",
            "crafts": {"0": "us_m4a1", "1": {"name": "us_m18"}, "2": {"rank": 3}, "3": 17}},
      "1": {"id": 2002, "name": "bravo", "clanId": "55", "clanTag": "=TAG=",
            "crafts": ["germ_pzkpfw_iv", "germ_pzkpfw_iv"]},
      "2": {"id": 2002, "name": "bravo-duplicate"}
    }
  }
}`

func parse(t *testing.T, s string) tree.Value {
	t.Helper()
	v, err := tree.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return v
}

func TestCorrelate(t *testing.T) {
	header := &model.ReplayHeader{SessionID: "0x1"}
	roster := New(Options{}).Correlate(header, parse(t, sampleResults))

	if len(roster) != 2 {
		t.Fatalf("Expected 2 players, got %d: %+v", len(roster), roster)
	}

	alpha := roster[0]
	if alpha.Identity.UserID != "1001" || alpha.Identity.Name != "alpha" {
		t.Errorf("Unexpected first identity: %+v", alpha.Identity)
	}
	if alpha.Identity.SquadronID != "" {
		t.Errorf("Expected squadron sentinel -1 to normalize to empty, got %q", alpha.Identity.SquadronID)
	}
	if alpha.Identity.Platform != "win64" {
		t.Errorf("Expected platform win64, got %q", alpha.Identity.Platform)
	}
	if alpha.Stats.Kills != 3 || alpha.Stats.GroundKills != 2 || alpha.Stats.Score != 1450 || alpha.Stats.Deaths != 1 {
		t.Errorf("Unexpected stats: %+v", alpha.Stats)
	}
	if alpha.Stats.Team != 1 || alpha.Stats.Squad != 2 || !alpha.Stats.AutoSquad {
		t.Errorf("Unexpected team fields: %+v", alpha.Stats)
	}
	if alpha.Stats.WaitTime != 12500*time.Millisecond {
		t.Errorf("Expected wait time 12.5s, got %s", alpha.Stats.WaitTime)
	}
	wantLineup := []string{"us_m4a1", "us_m18"}
	if len(alpha.Stats.Lineup) != len(wantLineup) {
		t.Fatalf("Expected lineup %v, got %v", wantLineup, alpha.Stats.Lineup)
	}
	for i := range wantLineup {
		if alpha.Stats.Lineup[i] != wantLineup[i] {
			t.Errorf("Lineup[%d]: expected %q, got %q", i, wantLineup[i], alpha.Stats.Lineup[i])
		}
	}

	bravo := roster[1]
	if bravo.Identity.UserID != "2002" || bravo.Identity.Name != "bravo" {
		t.Errorf("Expected first-seen profile for 2002, got %+v", bravo.Identity)
	}
	if bravo.Identity.SquadronID != "55" || bravo.Identity.SquadronTag != "=TAG=" {
		t.Errorf("Expected squadron to pass through, got %+v", bravo.Identity)
	}
	if bravo.Stats.Kills != 0 {
		t.Errorf("Expected wrong-typed kills to default to 0, got %d", bravo.Stats.Kills)
	}
	if bravo.Stats.WaitTime != 0 || bravo.Stats.AutoSquad {
		t.Errorf("Expected defaults for missing fields, got %+v", bravo.Stats)
	}
	if len(bravo.Stats.Lineup) != 2 {
		t.Errorf("Expected duplicate crafts to be kept, got %v", bravo.Stats.Lineup)
	}
}

func TestCorrelate_UniqueIdentities(t *testing.T) {
	roster := New(Options{KeepUnmatched: true}).Correlate(nil, parse(t, sampleResults))

	seen := make(map[string]bool)
	for _, p := range roster {
		if seen[p.Identity.UserID] {
			t.Errorf("Duplicate identity %s in roster", p.Identity.UserID)
		}
		seen[p.Identity.UserID] = true
	}
	if len(roster) != 3 {
		t.Fatalf("Expected 3 players with unmatched kept, got %d", len(roster))
	}
	if roster[2].Identity.UserID != "3003" || roster[2].Identity.Name != "" {
		t.Errorf("Expected placeholder identity for 3003, got %+v", roster[2].Identity)
	}
	if roster[2].Stats.Team != 2 || len(roster[2].Stats.Lineup) != 0 {
		t.Errorf("Unexpected stats for unmatched player: %+v", roster[2].Stats)
	}
}

func TestCorrelate_FlatProfilesAndEmptyTree(t *testing.T) {
	v := parse(t, `{"players": [{"userId": 7}], "playersInfo": [{"id": 7, "name": "solo", "clanId": "-1"}]}`)
	roster := New(Options{}).Correlate(nil, v)
	if len(roster) != 1 || roster[0].Identity.Name != "solo" || roster[0].Identity.SquadronID != "" {
		t.Errorf("Unexpected roster: %+v", roster)
	}

	if roster := New(Options{}).Correlate(nil, tree.Empty()); len(roster) != 0 {
		t.Errorf("Expected empty roster for empty tree, got %d", len(roster))
	}
}
