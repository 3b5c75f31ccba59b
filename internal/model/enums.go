package model

import (
	"fmt"
	"strings"
)

// MissionType is the kind of mission a fissure is attached to.
type MissionType int

// Supported mission types.
const (
	MissionCapture MissionType = iota
	MissionDefense
	MissionExcavation
	MissionExtermination
	MissionInterception
	MissionMobileDefense
	MissionRescue
	MissionSabotage
	MissionSurvival
	MissionSpy
	MissionHijack
	MissionAssault
	MissionDefection
	MissionInfestedSalvage
	MissionDisruption
	MissionSanctuaryOnslaught
	MissionFreeRoam
	MissionArena
	MissionSkirmish
	MissionOrphix
	MissionVolatile
	MissionHive
	MissionAssassination
	MissionRush
	MissionPursuit
	MissionDeception
	MissionCrossfire
)

var missionTypeNames = []string{
	"Capture",
	"Defense",
	"Excavation",
	"Extermination",
	"Interception",
	"Mobile Defense",
	"Rescue",
	"Sabotage",
	"Survival",
	"Spy",
	"Hijack",
	"Assault",
	"Defection",
	"Infested Salvage",
	"Disruption",
	"Sanctuary Onslaught",
	"Free Roam",
	"Arena",
	"Skirmish",
	"Orphix",
	"Volatile",
	"Hive",
	"Assassination",
	"Rush",
	"Pursuit",
	"Deception",
	"Crossfire",
}

// Tier is the relic tier of a fissure.
type Tier int

// Supported tiers, in order of rarity.
const (
	TierLith Tier = iota
	TierMeso
	TierNeo
	TierAxi
	TierRequiem
)

var tierNames = []string{"Lith", "Meso", "Neo", "Axi", "Requiem"}

// Faction is the enemy faction occupying a fissure node.
type Faction int

// Supported factions.
const (
	FactionOrokin Faction = iota
	FactionGrineer
	FactionCorpus
	FactionInfested
	FactionNarmer
	FactionCrossfire
)

var factionNames = []string{"Orokin", "Grineer", "Corpus", "Infested", "Narmer", "Crossfire"}

// ExclusivityFilter selects how a boolean attribute restricts matches.
type ExclusivityFilter int

// Supported exclusivity modes.
const (
	// Exclude drops entries that have the attribute.
	Exclude ExclusivityFilter = iota
	// Include keeps entries regardless of the attribute.
	Include
	// Exclusive keeps only entries that have the attribute.
	Exclusive
)

var exclusivityNames = []string{"Exclude", "Include", "Exclusive"}

// Allows reports whether an entry with the given attribute value passes.
func (e ExclusivityFilter) Allows(value bool) bool {
	switch e {
	case Exclude:
		return !value
	case Exclusive:
		return value
	default:
		return true
	}
}

func (m MissionType) String() string       { return enumName(missionTypeNames, int(m)) }
func (t Tier) String() string              { return enumName(tierNames, int(t)) }
func (f Faction) String() string           { return enumName(factionNames, int(f)) }
func (e ExclusivityFilter) String() string { return enumName(exclusivityNames, int(e)) }

// ParseMissionType accepts a display name ("Mobile Defense") or its compact
// form ("MobileDefense"), case-insensitively.
func ParseMissionType(s string) (MissionType, error) {
	return parseEnum[MissionType]("mission type", missionTypeNames, s)
}

// ParseTier parses a tier name.
func ParseTier(s string) (Tier, error) { return parseEnum[Tier]("tier", tierNames, s) }

// ParseFaction parses a faction name.
func ParseFaction(s string) (Faction, error) { return parseEnum[Faction]("faction", factionNames, s) }

// ParseExclusivityFilter parses an exclusivity mode name.
func ParseExclusivityFilter(s string) (ExclusivityFilter, error) {
	return parseEnum[ExclusivityFilter]("exclusivity filter", exclusivityNames, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m MissionType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MissionType) UnmarshalText(b []byte) error {
	v, err := ParseMissionType(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Faction) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Faction) UnmarshalText(b []byte) error {
	v, err := ParseFaction(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (e ExclusivityFilter) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ExclusivityFilter) UnmarshalText(b []byte) error {
	v, err := ParseExclusivityFilter(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// AllMissionTypes returns every mission type in declaration order.
func AllMissionTypes() []MissionType { return allOf[MissionType](len(missionTypeNames)) }

// AllTiers returns every tier in declaration order.
func AllTiers() []Tier { return allOf[Tier](len(tierNames)) }

// AllFactions returns every faction in declaration order.
func AllFactions() []Faction { return allOf[Faction](len(factionNames)) }

// AllExclusivityFilters returns every exclusivity mode.
func AllExclusivityFilters() []ExclusivityFilter {
	return allOf[ExclusivityFilter](len(exclusivityNames))
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("Unknown(%d)", i)
	}
	return names[i]
}

func parseEnum[T ~int](kind string, names []string, s string) (T, error) {
	key := compact(s)
	for i, name := range names {
		if compact(name) == key {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

func allOf[T ~int](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(i)
	}
	return out
}

func compact(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
