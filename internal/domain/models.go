package domain

import (
	"strings"
	"time"
)

type Player struct {
	ID        int64
	Name      string
	Realm     string
	Region    string
	Class     string
	Spec      string
	Faction   string
	Race      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MissingAttributes reports whether any inferable attribute is still blank.
func (p *Player) MissingAttributes() bool {
	return p.Class == "" || p.Faction == "" || p.Spec == ""
}

type Match struct {
	ID           int64
	StartTime    time.Time
	EndTime      time.Time
	ArenaZone    ArenaZone
	ArenaMatchID string
	GameMode     GameMode
	Duration     int // seconds
	UniqueHash   string
	IsRanked     bool
	CreatedAt    time.Time
}

// MatchResult is one player's participation in a match. Team, Rating and
// IsWinner are placeholders filled by a separate process.
type MatchResult struct {
	ID       int64
	MatchID  int64
	PlayerID int64
	Spec     string
	Team     string
	Rating   int
	IsWinner bool
}

type CombatLogEntry struct {
	ID             int64
	MatchID        int64
	Timestamp      time.Time
	EventType      string
	SourcePlayerID int64
	TargetPlayerID *int64
	SpellID        int
	SpellName      string
	Damage         int64
	Healing        int64
	Absorbed       int64
}

type UploadStatus string

const (
	UploadProcessing UploadStatus = "processing"
	UploadCompleted  UploadStatus = "completed"
	UploadFailed     UploadStatus = "failed"
)

type Upload struct {
	ID         string // nanoid
	FileName   string
	Format     string
	Status     UploadStatus
	MatchCount int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// PlayerProfile is the subset of an external character profile used to fill
// attributes that spell inference could not determine.
type PlayerProfile struct {
	Class   string
	Spec    string
	Race    string
	Faction string
}

// NameKey is the case-insensitive identity used for player names and realms.
func NameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PlayerKey identifies a character by name and realm. Without a realm only
// the name is used.
func PlayerKey(name, realm string) string {
	k := NameKey(name)
	if r := NameKey(realm); r != "" {
		k += "-" + r
	}
	return k
}
