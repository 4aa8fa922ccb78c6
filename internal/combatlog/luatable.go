package combatlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LuaMatchData is one match block of a Lua-table upload: its metadata and
// the raw simplified log lines.
type LuaMatchData struct {
	StartTime string
	EndTime   string
	Zone      string
	Faction   string
	Mode      string
	Logs      []string
}

const logLineMarker = " - "

const (
	luaString     = `"((?:[^"\\]|\\.)*)"`
	luaArrayItems = `((?:\s*"(?:[^"\\]|\\.)*"\s*,?\s*(?:--\s*\[\d+\])?)*)`
)

var (
	luaBlockPattern = regexp.MustCompile(`(?s)\{\s*` +
		luaField("StartTime") + `\s*,\s*` +
		luaField("EndTime") + `\s*,\s*` +
		luaField("Zone") + `\s*,\s*` +
		luaField("Faction") + `\s*,\s*` +
		luaField("Mode") + `\s*,\s*` +
		`\["Logs"\]\s*=\s*\{` + luaArrayItems + `\s*\}`)

	luaQuoted = regexp.MustCompile(luaString)

	luaBlockOpen = regexp.MustCompile(`^(?:\[\d+\]\s*=\s*)?\{$`)
	luaLogsOpen  = regexp.MustCompile(`\["Logs"\]\s*=\s*\{`)

	luaMetaFields = []struct {
		pattern *regexp.Regexp
		set     func(*LuaMatchData, string)
	}{
		{regexp.MustCompile(`\["StartTime"\]\s*=\s*` + luaString), func(d *LuaMatchData, v string) { d.StartTime = v }},
		{regexp.MustCompile(`\["EndTime"\]\s*=\s*` + luaString), func(d *LuaMatchData, v string) { d.EndTime = v }},
		{regexp.MustCompile(`\["Zone"\]\s*=\s*` + luaString), func(d *LuaMatchData, v string) { d.Zone = v }},
		{regexp.MustCompile(`\["Faction"\]\s*=\s*` + luaString), func(d *LuaMatchData, v string) { d.Faction = v }},
		{regexp.MustCompile(`\["Mode"\]\s*=\s*` + luaString), func(d *LuaMatchData, v string) { d.Mode = v }},
	}

	luaUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)
)

func luaField(name string) string {
	return `\["` + name + `"\]\s*=\s*` + luaString
}

// ParseLuaTable extracts every match block from a Lua-table document. The
// single-pass pattern is tried first; the line scanner only runs when the
// pattern finds nothing.
func ParseLuaTable(doc string) []LuaMatchData {
	if blocks := parseLuaTablePattern(doc); len(blocks) > 0 {
		return blocks
	}
	return parseLuaTableScan(doc)
}

func parseLuaTablePattern(doc string) []LuaMatchData {
	var blocks []LuaMatchData
	for _, m := range luaBlockPattern.FindAllStringSubmatch(doc, -1) {
		blocks = append(blocks, LuaMatchData{
			StartTime: luaUnescape(m[1]),
			EndTime:   luaUnescape(m[2]),
			Zone:      luaUnescape(m[3]),
			Faction:   luaUnescape(m[4]),
			Mode:      luaUnescape(m[5]),
			Logs:      extractLogLines(m[6]),
		})
	}
	return blocks
}

// parseLuaTableScan walks the document line by line, tracking brace depth
// outside quoted strings. A block is kept once its braces close if it has at
// least one log line and a start time.
func parseLuaTableScan(doc string) []LuaMatchData {
	var (
		blocks     []LuaMatchData
		current    *LuaMatchData
		depth      int
		blockDepth int
		inLogs     bool
		logsDepth  int
	)

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)

		if current == nil && depth >= 1 && luaBlockOpen.MatchString(trimmed) {
			current = &LuaMatchData{}
			blockDepth = depth
		}

		if current != nil {
			switch {
			case inLogs:
				current.Logs = append(current.Logs, extractLogLines(line)...)
			case luaLogsOpen.MatchString(line):
				inLogs = true
				logsDepth = depth
				loc := luaLogsOpen.FindStringIndex(line)
				current.Logs = append(current.Logs, extractLogLines(line[loc[1]:])...)
			default:
				for _, f := range luaMetaFields {
					if m := f.pattern.FindStringSubmatch(line); m != nil {
						f.set(current, luaUnescape(m[1]))
					}
				}
			}
		}

		depth += braceDelta(line)

		if inLogs && depth <= logsDepth {
			inLogs = false
		}
		if current != nil && depth <= blockDepth {
			if len(current.Logs) > 0 && current.StartTime != "" {
				blocks = append(blocks, *current)
			}
			current = nil
			inLogs = false
		}
	}

	if current != nil && len(current.Logs) > 0 {
		blocks = append(blocks, *current)
	}
	return blocks
}

// braceDelta counts structural braces on a line, ignoring any inside quoted
// strings. A quote preceded by an odd number of backslashes is escaped.
func braceDelta(line string) int {
	delta := 0
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			backslashes := 0
			for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				inQuote = !inQuote
			}
		case '{':
			if !inQuote {
				delta++
			}
		case '}':
			if !inQuote {
				delta--
			}
		}
	}
	return delta
}

func extractLogLines(s string) []string {
	var lines []string
	for _, m := range luaQuoted.FindAllStringSubmatch(s, -1) {
		v := luaUnescape(m[1])
		if strings.Contains(v, logLineMarker) {
			lines = append(lines, v)
		}
	}
	return lines
}

func luaUnescape(s string) string {
	return luaUnescaper.Replace(s)
}

var luaTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// ParseLuaTime parses a block's StartTime or EndTime. Layouts without a zone
// are read as local time; unix seconds are accepted too. The result is UTC.
func ParseLuaTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range luaTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}
