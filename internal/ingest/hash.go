package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// matchHash fingerprints a match by its participant names, its bounds and the
// arena match id. Names are sorted so enumeration order does not matter.
func matchHash(names []string, start, end time.Time, arenaMatchID string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(strings.Join(sorted, "|"))
	b.WriteString("|")
	b.WriteString(start.UTC().Format(time.RFC3339Nano))
	b.WriteString("|")
	b.WriteString(end.UTC().Format(time.RFC3339Nano))
	b.WriteString("|")
	b.WriteString(arenaMatchID)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
