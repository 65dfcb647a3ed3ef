package main

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Player is one roster entry. A nil NotificationsEnabled leaves the stored flag alone.
type Player struct {
	Name                 string `yaml:"name"`
	NotificationsEnabled *bool  `yaml:"notifications_enabled"`
}

type roster struct {
	Players []Player `yaml:"players"`
}

// parseRoster decodes a YAML roster. Names are trimmed, blank names are
// rejected, and a name repeated in any letter case keeps its first entry.
func parseRoster(data []byte) ([]Player, error) {
	var r roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal roster: %w", err)
	}

	seen := make(map[string]bool, len(r.Players))
	players := make([]Player, 0, len(r.Players))
	for i, p := range r.Players {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("player %d has no name", i+1)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		players = append(players, p)
	}
	return players, nil
}
