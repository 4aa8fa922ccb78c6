package combatlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Simplified line kinds as written by the addon.
const (
	SimplifiedHeal      = "HEAL"
	SimplifiedDamage    = "DAMAGE"
	SimplifiedInterrupt = "INTERRUPT"
)

var (
	simplifiedHeader = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2}):(\d{2})\s+-\s+([A-Z_]+):\s*(.*?)\s*$`)

	healPattern   = regexp.MustCompile(`^(.+?) healed with (.+?) for ([\d,]+)`)
	damagePattern = regexp.MustCompile(`^(.+?) used (.+?) for ([\d,]+) on (.+)$`)

	interruptTagged = regexp.MustCompile(`^(.+?) interrupted \|c[0-9a-fA-F]{8}(.+?)\|r's \|c[0-9a-fA-F]{8}(.+?)\|r`)
	interruptLoose  = regexp.MustCompile(`^(.+?) interrupted (.+?)'s (.+?)\.?$`)

	colorCode = regexp.MustCompile(`\|c[0-9a-fA-F]{8}|\|r`)
)

// ParseSimplifiedLine parses one "HH:mm:ss - KIND: text" line. The line has
// no date, so the time of day is placed on baseDate's calendar day in
// baseDate's location. Malformed lines return nil.
func ParseSimplifiedLine(line string, baseDate time.Time) *Event {
	m := simplifiedHeader.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second, _ := strconv.Atoi(m[3])
	if hour > 23 || minute > 59 || second > 59 {
		return nil
	}

	y, mo, d := baseDate.Date()
	ts := time.Date(y, mo, d, hour, minute, second, 0, baseDate.Location()).UTC()

	kind, body := m[4], m[5]
	if kind == SimplifiedInterrupt || strings.Contains(body, " interrupted ") {
		return parseInterrupt(ts, body)
	}

	switch {
	case strings.Contains(body, "healed"):
		hm := healPattern.FindStringSubmatch(body)
		if hm == nil {
			return nil
		}
		return &Event{
			Timestamp:  ts,
			EventType:  EventSpellHeal,
			SourceName: cleanName(hm[1]),
			SpellName:  cleanName(hm[2]),
			Healing:    parseAmount(hm[3]),
		}
	case strings.Contains(body, "used"):
		dm := damagePattern.FindStringSubmatch(body)
		if dm == nil {
			return nil
		}
		return &Event{
			Timestamp:  ts,
			EventType:  EventSpellDamage,
			SourceName: cleanName(dm[1]),
			SpellName:  cleanName(dm[2]),
			Damage:     parseAmount(dm[3]),
			TargetName: cleanName(dm[4]),
		}
	}
	return nil
}

func parseInterrupt(ts time.Time, body string) *Event {
	im := interruptTagged.FindStringSubmatch(body)
	if im == nil {
		im = interruptLoose.FindStringSubmatch(body)
	}
	if im == nil {
		return nil
	}
	return &Event{
		Timestamp:  ts,
		EventType:  EventSpellInterrupt,
		SourceName: cleanName(im[1]),
		TargetName: cleanName(im[2]),
		SpellName:  cleanName(im[3]),
	}
}

func cleanName(s string) string {
	return strings.TrimSpace(colorCode.ReplaceAllString(s, ""))
}

func parseAmount(s string) int64 {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
