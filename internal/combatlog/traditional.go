package combatlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const timestampSeparator = "  "

// Exact layouts tried before the fallback layouts. Layouts without a
// fractional part still accept one when parsing.
var timestampLayouts = []string{
	"1/2/2006 15:04:05.000",
	"1/2/2006 15:04:05",
	"1/2 15:04:05.000",
	"1/2 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
}

// newer clients append the local UTC offset in hours, e.g. "20:31:45.1234-5"
var trailingOffset = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}(?:\.\d+)?)[+-]\d{1,2}$`)

// ParseLine parses one traditional combat log line. It returns nil only when
// the timestamp separator is missing or the timestamp cannot be parsed; short
// payloads degrade to empty fields.
func ParseLine(line string) *Event {
	parts := strings.SplitN(strings.TrimRight(line, "\r\n"), timestampSeparator, 2)
	if len(parts) != 2 {
		return nil
	}

	ts, ok := ParseTimestamp(parts[0])
	if !ok {
		return nil
	}

	fields := strings.Split(parts[1], ",")
	ev := &Event{
		Timestamp: ts,
		EventType: field(fields, FieldEventType),
	}

	switch ev.EventType {
	case EventZoneChange:
		ev.ZoneID = intField(fields, FieldZoneChangeID)
		ev.ZoneName = field(fields, FieldZoneChangeName)
	case EventArenaMatchStart:
		ev.ZoneID = intField(fields, FieldArenaZoneID)
		ev.ArenaMatchID = field(fields, FieldArenaMatchID)
		ev.MatchType = field(fields, FieldArenaMatchType)
		if ranked, err := strconv.ParseBool(field(fields, FieldArenaRanked)); err == nil {
			ev.IsRanked = &ranked
		}
	default:
		ev.SourceGUID = field(fields, FieldSourceGUID)
		ev.SourceName = field(fields, FieldSourceName)
		ev.TargetGUID = field(fields, FieldTargetGUID)
		ev.TargetName = field(fields, FieldTargetName)
		if !noSpellPrefix[ev.EventType] {
			ev.SpellID = intField(fields, FieldSpellID)
			ev.SpellName = field(fields, FieldSpellName)
		}

		if amount, ok := amountFields[ev.EventType]; ok {
			v := int64Field(fields, amount.index)
			switch amount.kind {
			case amountDamage:
				ev.Damage = v
			case amountHealing:
				ev.Healing = v
			case amountAbsorbed:
				ev.Absorbed = v
			}
		}
	}

	return ev
}

// ParseTimestamp parses a traditional log timestamp. The log carries no
// timezone, so the value is read as local time and converted to UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	s = trailingOffset.ReplaceAllString(s, "$1")

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return withYear(t).UTC(), true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

var now = time.Now

// year-less layouts parse as year 0. They take the current year, or the year
// before when that would put the line more than a day in the future.
func withYear(t time.Time) time.Time {
	if t.Year() != 0 {
		return t
	}
	current := now()
	dated := time.Date(current.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if dated.After(current.Add(24 * time.Hour)) {
		dated = dated.AddDate(-1, 0, 0)
	}
	return dated
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return trimField(fields[i])
}

func intField(fields []string, i int) int {
	n, err := strconv.Atoi(field(fields, i))
	if err != nil {
		return 0
	}
	return n
}

func int64Field(fields []string, i int) int64 {
	n, err := strconv.ParseInt(field(fields, i), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func trimField(s string) string {
	return strings.Trim(s, "\" \t\r\n")
}
