package combatlog

import (
	"time"
)

// Event is one parsed combat log event. It is never persisted directly.
type Event struct {
	Timestamp  time.Time
	EventType  string
	SourceGUID string
	SourceName string
	TargetGUID string
	TargetName string
	SpellID    int
	SpellName  string
	Damage     int64
	Healing    int64
	Absorbed   int64

	// ZONE_CHANGE and ARENA_MATCH_START only
	ZoneID       int
	ZoneName     string
	ArenaMatchID string
	MatchType    string
	IsRanked     *bool
}

// IsPlayerGUID reports whether guid may belong to a player. Empty GUIDs are
// allowed because simplified lines carry none.
func IsPlayerGUID(guid string) bool {
	for _, prefix := range []string{"Creature-", "Pet-", "Vehicle-", "GameObject-"} {
		if len(guid) >= len(prefix) && guid[:len(prefix)] == prefix {
			return false
		}
	}
	return true
}
