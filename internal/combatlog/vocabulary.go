package combatlog

// Event types written by the game client.
const (
	EventSwingDamage       = "SWING_DAMAGE"
	EventSpellDamage       = "SPELL_DAMAGE"
	EventSpellPeriodicDmg  = "SPELL_PERIODIC_DAMAGE"
	EventRangeDamage       = "RANGE_DAMAGE"
	EventSpellHeal         = "SPELL_HEAL"
	EventSpellPeriodicHeal = "SPELL_PERIODIC_HEAL"
	EventSpellAbsorbed     = "SPELL_ABSORBED"
	EventSpellCastSuccess  = "SPELL_CAST_SUCCESS"
	EventSpellAuraApplied  = "SPELL_AURA_APPLIED"
	EventSpellInterrupt    = "SPELL_INTERRUPT"
	EventUnitDied          = "UNIT_DIED"
	EventZoneChange        = "ZONE_CHANGE"
	EventArenaMatchStart   = "ARENA_MATCH_START"
	EventArenaMatchEnd     = "ARENA_MATCH_END"
)

// Column indices of the comma separated payload of a traditional line.
const (
	FieldEventType  = 0
	FieldSourceGUID = 1
	FieldSourceName = 2
	FieldTargetGUID = 5
	FieldTargetName = 6
	FieldSpellID    = 9
	FieldSpellName  = 10

	FieldZoneChangeID   = 1
	FieldZoneChangeName = 2

	FieldArenaZoneID    = 1
	FieldArenaMatchID   = 2
	FieldArenaMatchType = 3
	FieldArenaRanked    = 4
)

type amountKind int

const (
	amountDamage amountKind = iota
	amountHealing
	amountAbsorbed
)

type amountField struct {
	index int
	kind  amountKind
}

// amountFields maps the event types that carry an amount to its column.
// Events missing from the table carry no amount.
var amountFields = map[string]amountField{
	EventSwingDamage:       {index: 9, kind: amountDamage},
	EventSpellDamage:       {index: 12, kind: amountDamage},
	EventRangeDamage:       {index: 12, kind: amountDamage},
	EventSpellHeal:         {index: 12, kind: amountHealing},
	EventSpellPeriodicHeal: {index: 12, kind: amountHealing},
	EventSpellAbsorbed:     {index: 19, kind: amountAbsorbed},
}

// swing events have no spell prefix
var noSpellPrefix = map[string]bool{
	EventSwingDamage: true,
	"SWING_MISSED":   true,
}
