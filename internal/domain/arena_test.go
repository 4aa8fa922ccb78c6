package domain

import "testing"

func TestParseGameMode(t *testing.T) {
	tests := []struct {
		in     string
		want   GameMode
		wantOK bool
	}{
		{"2v2", TwoVsTwo, true},
		{"Rated 3v3", ThreeVsThree, true},
		{"Rated Solo Shuffle", SoloShuffle, true},
		{" SKIRMISH ", Skirmish, true},
		{"Battleground", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseGameMode(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseGameMode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestArenaZoneLookup(t *testing.T) {
	if got := ArenaZoneFromID(559); got != NagrandArena {
		t.Errorf("ArenaZoneFromID(559) = %v", got)
	}
	if got := ArenaZoneFromID(1); got != ZoneUnknown {
		t.Errorf("ArenaZoneFromID(1) = %v, want unknown", got)
	}
	if got := ZoneUnknown.String(); got != "Unknown" {
		t.Errorf("ZoneUnknown.String() = %q", got)
	}

	byName := []struct {
		name string
		want ArenaZone
	}{
		{"Nagrand Arena", NagrandArenaLegion},
		{"Blade's Edge Arena", BladesEdgeArenaLegion},
		{"Tiger's Peak", TigersPeak},
		{"the ring of valor", RingOfValor},
		{"Tol’viron Arena", TolVironArena},
		{"Gurubashi Arena", ZoneUnknown},
	}
	for _, tt := range byName {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArenaZoneFromName(tt.name); got != tt.want {
				t.Errorf("ArenaZoneFromName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
