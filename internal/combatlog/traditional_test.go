package combatlog

import (
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		check func(t *testing.T, ev *Event)
	}{
		{
			name: "spell damage",
			line: `1/15/2024 20:31:45.123  SPELL_DAMAGE,Player-1-0001,"A-Stormrage-US",0x512,0x0,Player-1-0002,"B-Proudmoore-US",0x548,0x0,12294,"Mortal Strike",0x1,15000`,
			check: func(t *testing.T, ev *Event) {
				if ev.EventType != EventSpellDamage {
					t.Errorf("event type: got %q", ev.EventType)
				}
				if ev.SourceGUID != "Player-1-0001" || ev.SourceName != "A-Stormrage-US" {
					t.Errorf("source: got %q %q", ev.SourceGUID, ev.SourceName)
				}
				if ev.TargetName != "B-Proudmoore-US" {
					t.Errorf("target: got %q", ev.TargetName)
				}
				if ev.SpellID != 12294 || ev.SpellName != "Mortal Strike" {
					t.Errorf("spell: got %d %q", ev.SpellID, ev.SpellName)
				}
				if ev.Damage != 15000 {
					t.Errorf("damage: got %d, want 15000", ev.Damage)
				}
			},
		},
		{
			name: "periodic heal",
			line: `1/15/2024 20:31:46.000  SPELL_PERIODIC_HEAL,Player-1-3,"C-Stormrage-EU",0x0,0x0,Player-1-3,"C-Stormrage-EU",0x0,0x0,774,"Rejuvenation",0x8,2200`,
			check: func(t *testing.T, ev *Event) {
				if ev.Healing != 2200 || ev.Damage != 0 {
					t.Errorf("amounts: healing %d damage %d", ev.Healing, ev.Damage)
				}
			},
		},
		{
			name: "swing damage has no spell",
			line: `1/15/2024 20:31:47.000  SWING_DAMAGE,Player-1-1,"A-Stormrage-US",0x0,0x0,Player-1-2,"B-Proudmoore-US",0x0,0x0,3100`,
			check: func(t *testing.T, ev *Event) {
				if ev.Damage != 3100 {
					t.Errorf("damage: got %d, want 3100", ev.Damage)
				}
				if ev.SpellName != "" || ev.SpellID != 0 {
					t.Errorf("swing should not carry a spell, got %d %q", ev.SpellID, ev.SpellName)
				}
			},
		},
		{
			name: "absorbed",
			line: `1/15/2024 20:31:48.000  SPELL_ABSORBED,Player-1-1,"A-Stormrage-US",0x0,0x0,Player-1-2,"B-Proudmoore-US",0x0,0x0,12294,"Mortal Strike",0x1,Player-1-9,"D-Stormrage-US",0x0,0x0,17,"Power Word: Shield",0x2,4000`,
			check: func(t *testing.T, ev *Event) {
				if ev.Absorbed != 4000 {
					t.Errorf("absorbed: got %d, want 4000", ev.Absorbed)
				}
			},
		},
		{
			name: "unknown event kept without amount",
			line: `1/15/2024 20:31:49.000  SPELL_CAST_SUCCESS,Player-1-1,"A-Stormrage-US",0x0,0x0,0000000000000000,nil,0x0,0x0,1719,"Recklessness",0x1`,
			check: func(t *testing.T, ev *Event) {
				if ev.EventType != EventSpellCastSuccess || ev.SpellName != "Recklessness" {
					t.Errorf("got %q %q", ev.EventType, ev.SpellName)
				}
				if ev.Damage != 0 || ev.Healing != 0 || ev.Absorbed != 0 {
					t.Error("expected no amount")
				}
			},
		},
		{
			name: "zone change",
			line: `1/15/2024 20:35:10.000  ZONE_CHANGE,"559","Nagrand Arena",0`,
			check: func(t *testing.T, ev *Event) {
				if ev.ZoneID != 559 || ev.ZoneName != "Nagrand Arena" {
					t.Errorf("zone: got %d %q", ev.ZoneID, ev.ZoneName)
				}
				if ev.SourceName != "" {
					t.Errorf("zone change should not carry actors, got %q", ev.SourceName)
				}
			},
		},
		{
			name: "arena match start",
			line: `1/15/2024 20:31:40.000  ARENA_MATCH_START,559,"123",2v2,1`,
			check: func(t *testing.T, ev *Event) {
				if ev.ZoneID != 559 || ev.ArenaMatchID != "123" || ev.MatchType != "2v2" {
					t.Errorf("got zone %d id %q type %q", ev.ZoneID, ev.ArenaMatchID, ev.MatchType)
				}
				if ev.IsRanked == nil || !*ev.IsRanked {
					t.Error("expected ranked flag")
				}
			},
		},
		{
			name: "short payload degrades to empty fields",
			line: `1/15/2024 20:31:45.000  SPELL_DAMAGE,Player-1-1`,
			check: func(t *testing.T, ev *Event) {
				if ev.SourceGUID != "Player-1-1" || ev.SourceName != "" || ev.Damage != 0 {
					t.Errorf("got %+v", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseLine(tt.line)
			if ev == nil {
				t.Fatal("ParseLine returned nil")
			}
			tt.check(t, ev)
		})
	}
}

func TestParseLineRejects(t *testing.T) {
	lines := []string{
		"",
		"no separator here",
		"1/15/2024 20:31:45.000 SPELL_DAMAGE,x",
		"not-a-time  SPELL_DAMAGE,x",
		"  SPELL_DAMAGE,x",
	}
	for _, line := range lines {
		if ev := ParseLine(line); ev != nil {
			t.Errorf("ParseLine(%q) = %+v, want nil", line, ev)
		}
	}
}

func TestParseLineNeverPanics(t *testing.T) {
	inputs := []string{
		"  ", "    ", ",,,,", "1/1  ", "1/1/2024 00:00:00  ,,,,,,,,,,,,,,,,,,,,,,,,",
		"1/1/2024 00:00:00  \"", "\x00\xff  \xfe", "1/1/2024 00:00:00  ZONE_CHANGE",
		"1/1/2024 00:00:00  ARENA_MATCH_START", "1/1/2024 00:00:00  SPELL_ABSORBED,a,b",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("ParseLine(%q) panicked: %v", in, r)
				}
			}()
			ParseLine(in)
		}()
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"full date with millis", "1/15/2024 20:31:45.123", time.Date(2024, 1, 15, 20, 31, 45, 123000000, time.Local)},
		{"full date", "1/15/2024 20:31:45", time.Date(2024, 1, 15, 20, 31, 45, 0, time.Local)},
		{"iso", "2024-01-15 20:31:45", time.Date(2024, 1, 15, 20, 31, 45, 0, time.Local)},
		{"trailing offset", "1/15/2024 20:31:45.1234-5", time.Date(2024, 1, 15, 20, 31, 45, 123400000, time.Local)},
		{"rfc3339 fallback", "2024-01-15T20:31:45Z", time.Date(2024, 1, 15, 20, 31, 45, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.input)
			if !ok {
				t.Fatalf("ParseTimestamp(%q) failed", tt.input)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("expected UTC, got %v", got.Location())
			}
		})
	}
}

func TestParseTimestampWithoutYear(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2026, time.January, 3, 12, 0, 0, 0, time.Local) }

	tests := []struct {
		in       string
		wantYear int
	}{
		{"1/2 20:31:45.000", 2026},
		{"1/4 08:00:00", 2026},
		{"12/30 23:59:59.500", 2025},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			if !ok {
				t.Fatalf("ParseTimestamp(%q) failed", tt.in)
			}
			if y := got.In(time.Local).Year(); y != tt.wantYear {
				t.Errorf("year = %d, want %d", y, tt.wantYear)
			}
		})
	}
}
