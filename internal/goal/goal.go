// Package goal implements the engine's AI behavior selector and the factory
// that builds selector contents from declarative behavior configuration.
// Built-in goals cover the stock movement/look/target behaviors; the custom
// goal delegates every lifecycle point across the scripting boundary.
package goal

import "strings"

// Flag marks a capability a running goal claims exclusively. Two goals whose
// flag sets overlap never run at the same time.
type Flag uint8

const (
	FlagMove Flag = 1 << iota
	FlagLook
	FlagJump
	FlagTarget
)

// ParseFlags converts flag names ("move", "look", "jump", "target") into a
// mask. Unknown names are ignored.
func ParseFlags(names []string) Flag {
	var f Flag
	for _, n := range names {
		switch strings.ToLower(n) {
		case "move":
			f |= FlagMove
		case "look":
			f |= FlagLook
		case "jump":
			f |= FlagJump
		case "target":
			f |= FlagTarget
		}
	}
	return f
}

// Goal is one unit of AI logic. The selector drives the five lifecycle
// points; Flags and RequiresUpdateEveryTick are fixed per goal instance.
type Goal interface {
	CanUse() bool
	CanContinueToUse() bool
	Start()
	Tick()
	Stop()
	Flags() Flag
	RequiresUpdateEveryTick() bool
}

// Archetype is the base class a script-defined entity builds on. It decides
// which built-in goals the type supports and which default behavior set an
// unconfigured type receives.
type Archetype int

const (
	ArchetypePathfinder Archetype = iota
	ArchetypeMonster
	ArchetypeAnimal
	ArchetypeProjectile
)

func (a Archetype) String() string {
	switch a {
	case ArchetypePathfinder:
		return "pathfinder"
	case ArchetypeMonster:
		return "monster"
	case ArchetypeAnimal:
		return "animal"
	case ArchetypeProjectile:
		return "projectile"
	default:
		return "unknown"
	}
}

// Mob is the slice of a live entity the built-in goals need. Implemented by
// the world's entity instances; entity IDs are 0 when no entity is meant.
type Mob interface {
	ID() int64
	Archetype() Archetype

	Pos() (x, y, z float64)
	EntityPos(id int64) (x, y, z float64, ok bool)
	DistanceTo(id int64) float64
	IsAlive(id int64) bool

	MoveTo(x, y, z, speed float64) bool
	IsNavigating() bool
	StopNavigation()
	LookAt(x, y, z float64)
	LookAtEntity(id int64)
	Jump()
	IsInWater() bool

	Target() int64
	SetTarget(id int64)
	LastAttacker() int64
	DoHurtTarget(id int64) bool

	NearestPlayer(radius float64) int64
	PlayerHolding(itemID string, radius float64) int64
	RandomReachablePos(radius float64, avoidWater bool) (x, y, z float64, ok bool)

	InLove() bool
	FindBreedPartner() int64
	Breed(partnerID int64)
	ParentID() int64
}

// Definition is a reusable custom-goal definition registered through the
// two-phase protocol; it supplies flag and tick-rate defaults for behavior
// configs that reference the goal ID without restating them.
type Definition struct {
	Flags     Flag
	EveryTick bool
}

// DefinitionSource resolves registered custom-goal definitions by ID.
type DefinitionSource interface {
	GoalDefinition(goalID string) (Definition, bool)
}
