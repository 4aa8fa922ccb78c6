package combatlog

import (
	"regexp"
	"strings"
)

const DefaultRegion = "eu"

var regionSuffix = regexp.MustCompile(`(?i)-(EU|US|KR|TW|CN)$`)

// PlayerName is an actor string split into its identity parts.
type PlayerName struct {
	Name   string
	Realm  string
	Region string
}

// HasRealm reports whether a player record may be created for this actor.
func (p PlayerName) HasRealm() bool {
	return p.Realm != ""
}

// ParsePlayerName splits "Name-Realm[-REGION]". The region defaults to "eu"
// and the realm is everything after the first dash, so dashed realm names
// such as "Azjol-Nerub" survive.
func ParsePlayerName(raw string) PlayerName {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))

	region := DefaultRegion
	if m := regionSuffix.FindStringSubmatch(s); m != nil {
		region = strings.ToLower(m[1])
		s = s[:len(s)-len(m[0])]
	}

	idx := strings.Index(s, "-")
	switch {
	case idx < 0:
		return PlayerName{Name: s, Region: region}
	case idx == 0:
		return PlayerName{Realm: s[1:], Region: region}
	default:
		return PlayerName{Name: s[:idx], Realm: s[idx+1:], Region: region}
	}
}
