package assembler

import (
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/core/tree"
)

// Defaults applied when the results tree lacks top-level information.
const (
	DefaultStatus    = "left"
	ServerAuthorID   = "-1"
	ServerAuthorName = "server"
)

// Assemble combines the decoded parts of one replay into a record. The
// results tree is kept as-is for consumers that want the raw data.
func Assemble(header model.ReplayHeader, results tree.Value, roster []model.PlayerRecord) *model.ReplayRecord {
	if roster == nil {
		roster = []model.PlayerRecord{}
	}
	if results.Kind() == tree.Null {
		results = tree.Empty()
	}

	return &model.ReplayRecord{
		Header:     header,
		Status:     statusOf(results),
		TimePlayed: results.GetFloat("timePlayed", 0),
		Author:     authorOf(results),
		Players:    roster,
		Results:    results,
	}
}

func statusOf(results tree.Value) string {
	if s := results.GetString("status", ""); s != "" {
		return s
	}
	return DefaultStatus
}

// authorOf treats partial author information as absent.
func authorOf(results tree.Value) model.Author {
	id := results.GetString("authorUserId", "")
	name := results.GetString("author", "")
	if id == "" || name == "" {
		return model.Author{UserID: ServerAuthorID, Name: ServerAuthorName}
	}
	return model.Author{UserID: id, Name: name}
}
