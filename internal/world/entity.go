package world

import (
	"math"
	"math/rand"

	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/proxy"
)

// Entity is a live instance of a registered entity type, or a player.
// Players have no proxy type and no selectors. All methods run on the
// engine goroutine.
type Entity struct {
	id  int64
	typ *proxy.EntityType // nil for players
	w   *World

	x, y, z float64
	yaw     float64
	health  float64
	dead    bool
	inWater bool

	target       int64
	lastAttacker int64

	inLove   bool
	parentID int64
	heldItem string // players: identifier of the held item

	navActive        bool
	navX, navY, navZ float64
	navSpeed         float64

	goals       *goal.Selector
	targetGoals *goal.Selector
}

// ID returns the entity's instance identity.
func (e *Entity) ID() int64 { return e.id }

// Type returns the entity's registered type, nil for players.
func (e *Entity) Type() *proxy.EntityType { return e.typ }

// IsPlayer reports whether this is a player rather than a typed mob.
func (e *Entity) IsPlayer() bool { return e.typ == nil }

// Health returns current health.
func (e *Entity) Health() float64 { return e.health }

// Dead reports whether the entity has been removed from play.
func (e *Entity) Dead() bool { return e.dead }

// Goals returns the main behavior selector, nil for players/projectiles.
func (e *Entity) Goals() *goal.Selector { return e.goals }

// TargetGoals returns the targeting selector.
func (e *Entity) TargetGoals() *goal.Selector { return e.targetGoals }

// SetInWater flips the water flag; world physics is out of scope, so the
// caller (or a test) decides when a mob is swimming.
func (e *Entity) SetInWater(v bool) { e.inWater = v }

// SetInLove marks an animal ready to breed.
func (e *Entity) SetInLove(v bool) { e.inLove = v }

// SetHeldItem sets the item identifier a player is holding.
func (e *Entity) SetHeldItem(itemID string) { e.heldItem = itemID }

// SetPos teleports the entity.
func (e *Entity) SetPos(x, y, z float64) { e.x, e.y, e.z = x, y, z }

// ── goal.Mob implementation ────────────────────────────────────────

func (e *Entity) Archetype() goal.Archetype {
	if e.typ == nil {
		return goal.ArchetypePathfinder
	}
	return e.typ.Settings.Archetype
}

func (e *Entity) Pos() (x, y, z float64) { return e.x, e.y, e.z }

func (e *Entity) EntityPos(id int64) (x, y, z float64, ok bool) {
	o := e.w.entity(id)
	if o == nil {
		return 0, 0, 0, false
	}
	return o.x, o.y, o.z, true
}

func (e *Entity) DistanceTo(id int64) float64 {
	o := e.w.entity(id)
	if o == nil {
		return math.Inf(1)
	}
	dx, dy, dz := o.x-e.x, o.y-e.y, o.z-e.z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (e *Entity) IsAlive(id int64) bool {
	o := e.w.entity(id)
	return o != nil && !o.dead
}

func (e *Entity) MoveTo(x, y, z, speed float64) bool {
	e.navActive = true
	e.navX, e.navY, e.navZ = x, y, z
	base := 0.25
	if e.typ != nil {
		base = e.typ.Settings.MovementSpeed
	}
	e.navSpeed = base * speed
	return true
}

func (e *Entity) IsNavigating() bool { return e.navActive }

func (e *Entity) StopNavigation() { e.navActive = false }

func (e *Entity) LookAt(x, y, z float64) {
	e.yaw = math.Atan2(z-e.z, x-e.x)
}

func (e *Entity) LookAtEntity(id int64) {
	if o := e.w.entity(id); o != nil {
		e.LookAt(o.x, o.y, o.z)
	}
}

func (e *Entity) Jump() {
	// No vertical physics; jumping only matters to the float goal, which
	// keeps the mob from counting as submerged next tick.
	e.inWater = false
}

func (e *Entity) IsInWater() bool { return e.inWater }

func (e *Entity) Target() int64 { return e.target }

func (e *Entity) SetTarget(id int64) {
	if e.target == id {
		return
	}
	e.target = id
	if id != 0 && e.typ != nil {
		e.w.table.InvokeEntityTarget(e.typ.Handle, e.id, id)
	}
}

func (e *Entity) LastAttacker() int64 { return e.lastAttacker }

func (e *Entity) DoHurtTarget(id int64) bool {
	if e.typ != nil {
		e.w.table.InvokeEntityAttack(e.typ.Handle, e.id, id)
	}
	dmg := 1.0
	if e.typ != nil {
		dmg = e.typ.Settings.AttackDamage
	}
	return e.w.Damage(id, e.id, "mob_attack", dmg)
}

func (e *Entity) NearestPlayer(radius float64) int64 {
	var best int64
	bestDist := radius
	for _, p := range e.w.players {
		if p.dead {
			continue
		}
		if d := e.DistanceTo(p.id); d <= bestDist {
			best, bestDist = p.id, d
		}
	}
	return best
}

func (e *Entity) PlayerHolding(itemID string, radius float64) int64 {
	var best int64
	bestDist := radius
	for _, p := range e.w.players {
		if p.dead || p.heldItem != itemID {
			continue
		}
		if d := e.DistanceTo(p.id); d <= bestDist {
			best, bestDist = p.id, d
		}
	}
	return best
}

func (e *Entity) RandomReachablePos(radius float64, avoidWater bool) (x, y, z float64, ok bool) {
	for attempt := 0; attempt < 8; attempt++ {
		dx := (rand.Float64()*2 - 1) * radius
		dz := (rand.Float64()*2 - 1) * radius
		cx, cz := e.x+dx, e.z+dz
		if avoidWater && e.w.liquidAt(cx, e.y, cz) {
			continue
		}
		return cx, e.y, cz, true
	}
	return 0, 0, 0, false
}

func (e *Entity) InLove() bool { return e.inLove }

func (e *Entity) FindBreedPartner() int64 {
	if e.typ == nil {
		return 0
	}
	for _, o := range e.w.entities {
		if o == e || o.dead || o.typ == nil || o.typ.Handle != e.typ.Handle || !o.inLove {
			continue
		}
		if e.DistanceTo(o.id) <= 8 {
			return o.id
		}
	}
	return 0
}

func (e *Entity) Breed(partnerID int64) {
	partner := e.w.entity(partnerID)
	if partner == nil || e.typ == nil {
		return
	}
	baby := e.w.spawnFromType(e.typ, (e.x+partner.x)/2, e.y, (e.z+partner.z)/2)
	baby.parentID = e.id
	e.inLove = false
	partner.inLove = false
	e.w.table.InvokeAnimalBreed(e.typ.Handle, e.id, partnerID, baby.id)
}

func (e *Entity) ParentID() int64 { return e.parentID }

// tick advances navigation and behavior selectors by one engine tick.
func (e *Entity) tick() {
	if e.navActive {
		dx, dy, dz := e.navX-e.x, e.navY-e.y, e.navZ-e.z
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if dist <= 0.5 {
			e.navActive = false
		} else {
			step := e.navSpeed
			if step > dist {
				step = dist
			}
			e.x += dx / dist * step
			e.y += dy / dist * step
			e.z += dz / dist * step
		}
	}
	if e.targetGoals != nil {
		e.targetGoals.Tick()
	}
	if e.goals != nil {
		e.goals.Tick()
	}
}
