package domain

import (
	"strings"
)

type GameMode string

const (
	TwoVsTwo     GameMode = "2v2"
	ThreeVsThree GameMode = "3v3"
	SoloShuffle  GameMode = "Solo Shuffle"
	Skirmish     GameMode = "Skirmish"
)

// ParseGameMode accepts the labels written by the in-game addon, e.g.
// "2v2", "Rated 3v3", "Rated Solo Shuffle" or "skirmish".
func ParseGameMode(s string) (GameMode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "rated ")
	switch s {
	case "2v2":
		return TwoVsTwo, true
	case "3v3":
		return ThreeVsThree, true
	case "solo shuffle", "shuffle":
		return SoloShuffle, true
	case "skirmish":
		return Skirmish, true
	}
	return "", false
}

// ArenaZone values are the client's instance ids.
type ArenaZone int

const (
	ZoneUnknown            ArenaZone = 0
	NagrandArena           ArenaZone = 559
	BladesEdgeArena        ArenaZone = 562
	RuinsOfLordaeron       ArenaZone = 572
	DalaranSewers          ArenaZone = 617
	RingOfValor            ArenaZone = 618
	TolVironArena          ArenaZone = 980
	TigersPeak             ArenaZone = 1134
	BlackRookHoldArena     ArenaZone = 1504
	NagrandArenaLegion     ArenaZone = 1505
	AshamanesFall          ArenaZone = 1552
	BladesEdgeArenaLegion  ArenaZone = 1672
	HookPoint              ArenaZone = 1825
	Mugambala              ArenaZone = 1911
	TheRobodrome           ArenaZone = 2167
	EmpyreanDomain         ArenaZone = 2373
	MaldraxxusColiseum     ArenaZone = 2509
	EnigmaCrucible         ArenaZone = 2547
	NokhudonProvingGrounds ArenaZone = 2563
)

var arenaZoneNames = map[ArenaZone]string{
	NagrandArena:           "Nagrand Arena",
	BladesEdgeArena:        "Blade's Edge Arena",
	RuinsOfLordaeron:       "Ruins of Lordaeron",
	DalaranSewers:          "Dalaran Sewers",
	RingOfValor:            "The Ring of Valor",
	TolVironArena:          "Tol'viron Arena",
	TigersPeak:             "The Tiger's Peak",
	BlackRookHoldArena:     "Black Rook Hold Arena",
	NagrandArenaLegion:     "Nagrand Arena",
	AshamanesFall:          "Ashamane's Fall",
	BladesEdgeArenaLegion:  "Blade's Edge Arena",
	HookPoint:              "Hook Point",
	Mugambala:              "Mugambala",
	TheRobodrome:           "The Robodrome",
	EmpyreanDomain:         "Empyrean Domain",
	MaldraxxusColiseum:     "Maldraxxus Coliseum",
	EnigmaCrucible:         "Enigma Crucible",
	NokhudonProvingGrounds: "Nokhudon Proving Grounds",
}

// name lookups prefer the current version of re-released arenas
var arenaZonesByName = func() map[string]ArenaZone {
	m := make(map[string]ArenaZone, len(arenaZoneNames))
	for zone, name := range arenaZoneNames {
		key := normalizeZoneName(name)
		if existing, ok := m[key]; ok && existing > zone {
			continue
		}
		m[key] = zone
	}
	return m
}()

func (z ArenaZone) String() string {
	if name, ok := arenaZoneNames[z]; ok {
		return name
	}
	return "Unknown"
}

func ArenaZoneFromID(id int) ArenaZone {
	zone := ArenaZone(id)
	if _, ok := arenaZoneNames[zone]; ok {
		return zone
	}
	return ZoneUnknown
}

func ArenaZoneFromName(name string) ArenaZone {
	if zone, ok := arenaZonesByName[normalizeZoneName(name)]; ok {
		return zone
	}
	return ZoneUnknown
}

func normalizeZoneName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "the ")
	return strings.NewReplacer("'", "", "’", "").Replace(name)
}
