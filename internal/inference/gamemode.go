package inference

import (
	"strings"

	"pvp-analytics/internal/domain"
)

// ResolveGameMode maps a participant count to a game mode. hint is the
// arena-match-id (or the addon's mode label); a six-player match is a solo
// shuffle lobby only when the hint says so. Unrecognised counts default to 2v2.
func ResolveGameMode(participants int, hint string) domain.GameMode {
	switch participants {
	case 4:
		return domain.TwoVsTwo
	case 6:
		if strings.Contains(strings.ToLower(hint), "shuffle") {
			return domain.SoloShuffle
		}
		return domain.ThreeVsThree
	case 10:
		return domain.Skirmish
	}
	return domain.TwoVsTwo
}
