// Package pages holds the server's HTML pages as templ components.
package pages

import (
	"github.com/mcoot/tichu/internal/model"
)

// IndexData is the data shown on the index page
type IndexData struct {
	SocketPath  string
	Connections int
	Games       int
	Recent      []*model.GameSummary
}

func playerNames(s *model.GameSummary) []string {
	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		names[i] = p.DisplayName
	}
	return names
}
