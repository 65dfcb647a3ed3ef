package main

import "testing"

func TestParseRoster(t *testing.T) {
	data := []byte(`
players:
  - name: Alice
  - name: "  Bob  "
    notifications_enabled: true
  - name: carol
    notifications_enabled: false
  - name: ALICE
`)
	players, err := parseRoster(data)
	if err != nil {
		t.Fatalf("parseRoster: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d: %+v", len(players), players)
	}

	if players[0].Name != "Alice" || players[0].NotificationsEnabled != nil {
		t.Errorf("unexpected first player %+v", players[0])
	}
	if players[1].Name != "Bob" || players[1].NotificationsEnabled == nil || !*players[1].NotificationsEnabled {
		t.Errorf("unexpected second player %+v", players[1])
	}
	if players[2].Name != "carol" || players[2].NotificationsEnabled == nil || *players[2].NotificationsEnabled {
		t.Errorf("unexpected third player %+v", players[2])
	}
}

func TestParseRosterErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"blank name", "players:\n  - name: \"  \"\n"},
		{"missing name", "players:\n  - notifications_enabled: true\n"},
		{"malformed yaml", "players: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRoster([]byte(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseRosterEmpty(t *testing.T) {
	players, err := parseRoster([]byte("players: []\n"))
	if err != nil {
		t.Fatalf("parseRoster: %v", err)
	}
	if len(players) != 0 {
		t.Fatalf("expected no players, got %+v", players)
	}
}
