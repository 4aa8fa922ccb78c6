package inference

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// SpellSet holds the distinct spell names one player cast during one match.
// Names are compared case-insensitively.
type SpellSet map[string]struct{}

func (s SpellSet) Add(spell string) {
	spell = normalizeSpell(spell)
	if spell == "" {
		return
	}
	s[spell] = struct{}{}
}

// Merge adds every spell of other to s.
func (s SpellSet) Merge(other SpellSet) {
	for spell := range other {
		s[spell] = struct{}{}
	}
}

func (s SpellSet) Has(spell string) bool {
	_, ok := s[normalizeSpell(spell)]
	return ok
}

type classRule struct {
	Spell string `yaml:"spell"`
	Class string `yaml:"class"`
}

type specRule struct {
	Spell    string `yaml:"spell"`
	Spec     string `yaml:"spec"`
	Priority int    `yaml:"priority"`
}

type factionRule struct {
	Ability string `yaml:"ability"`
	Faction string `yaml:"faction"`
}

type tableFile struct {
	HighConfidenceClasses []classRule   `yaml:"high_confidence_classes"`
	Classes               []classRule   `yaml:"classes"`
	Specs                 []specRule    `yaml:"specs"`
	Factions              []factionRule `yaml:"factions"`
}

// Tables is an immutable set of spell mappings. Every lookup walks the
// ordered rule lists, so results never depend on map iteration order.
type Tables struct {
	highConfidence []classRule
	classes        []classRule
	specs          []specRule
	factions       []factionRule
}

var (
	defaultOnce sync.Once
	defaultTbl  *Tables
)

// Default returns the tables compiled into the binary. The embedded document
// is validated by tests, so a parse failure here is a programming error.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Load(defaultTables)
		if err != nil {
			panic(fmt.Sprintf("inference: embedded tables: %v", err))
		}
		defaultTbl = t
	})
	return defaultTbl
}

// Load parses a YAML table document.
func Load(data []byte) (*Tables, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse inference tables: %w", err)
	}

	t := &Tables{}
	for i, r := range f.HighConfidenceClasses {
		if r.Spell == "" || r.Class == "" {
			return nil, fmt.Errorf("high_confidence_classes[%d]: spell and class are required", i)
		}
		t.highConfidence = append(t.highConfidence, classRule{Spell: normalizeSpell(r.Spell), Class: r.Class})
	}
	for i, r := range f.Classes {
		if r.Spell == "" || r.Class == "" {
			return nil, fmt.Errorf("classes[%d]: spell and class are required", i)
		}
		t.classes = append(t.classes, classRule{Spell: normalizeSpell(r.Spell), Class: r.Class})
	}
	for i, r := range f.Specs {
		if r.Spell == "" || r.Spec == "" {
			return nil, fmt.Errorf("specs[%d]: spell and spec are required", i)
		}
		t.specs = append(t.specs, specRule{Spell: normalizeSpell(r.Spell), Spec: r.Spec, Priority: r.Priority})
	}
	for i, r := range f.Factions {
		if r.Ability == "" || r.Faction == "" {
			return nil, fmt.Errorf("factions[%d]: ability and faction are required", i)
		}
		t.factions = append(t.factions, factionRule{Ability: normalizeSpell(r.Ability), Faction: r.Faction})
	}
	return t, nil
}

// InferClass returns the class of the first high-confidence rule whose spell
// was observed, else the first general rule, else "".
func (t *Tables) InferClass(spells SpellSet) string {
	for _, r := range t.highConfidence {
		if _, ok := spells[r.Spell]; ok {
			return r.Class
		}
	}
	for _, r := range t.classes {
		if _, ok := spells[r.Spell]; ok {
			return r.Class
		}
	}
	return ""
}

// InferSpec keeps the best observed priority per spec and returns the spec
// with the highest one. Equal priorities go to the alphabetically first spec.
func (t *Tables) InferSpec(spells SpellSet) string {
	best := make(map[string]int)
	for _, r := range t.specs {
		if _, ok := spells[r.Spell]; !ok {
			continue
		}
		if p, seen := best[r.Spec]; !seen || r.Priority > p {
			best[r.Spec] = r.Priority
		}
	}
	if len(best) == 0 {
		return ""
	}

	candidates := make([]string, 0, len(best))
	for spec := range best {
		candidates = append(candidates, spec)
	}
	sort.Slice(candidates, func(i, j int) bool {
		pi, pj := best[candidates[i]], best[candidates[j]]
		if pi != pj {
			return pi > pj
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0]
}

// InferFaction returns the faction of the first faction-specific ability
// that was observed.
func (t *Tables) InferFaction(spells SpellSet) string {
	for _, r := range t.factions {
		if _, ok := spells[r.Ability]; ok {
			return r.Faction
		}
	}
	return ""
}

func normalizeSpell(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
