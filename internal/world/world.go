// Package world is the host engine's live side of the bridge: entity and
// block instances created from the frozen registries, and the fixed-rate
// tick that drives behavior selectors and forwards lifecycle events through
// the dispatch table. Everything here runs on the engine goroutine.
package world

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/proxy"
)

// BlockPos addresses one block cell.
type BlockPos struct {
	X, Y, Z int
}

type placedBlock struct {
	typ       *proxy.BlockType
	state     uint64
	container *proxy.ContainerType // nil when the block has no container
}

// World holds live instances and drives their ticks.
type World struct {
	log     *zap.Logger
	ctx     *proxy.Context
	table   *dispatch.Table
	factory *goal.Factory

	id           int64
	tickCount    uint64
	nextEntityID int64
	randomTicks  int

	entities map[int64]*Entity
	players  map[int64]*Entity
	blocks   map[BlockPos]*placedBlock
}

// New creates an empty world backed by the given (frozen) registry context.
// randomTicks bounds how many random-ticking blocks fire per tick; values
// below one fall back to the default.
func New(id int64, ctx *proxy.Context, factory *goal.Factory, randomTicks int, log *zap.Logger) *World {
	if randomTicks < 1 {
		randomTicks = defaultRandomTicks
	}
	return &World{
		log:         log,
		ctx:         ctx,
		table:       ctx.Dispatch(),
		factory:     factory,
		id:          id,
		randomTicks: randomTicks,
		entities:    make(map[int64]*Entity),
		players:     make(map[int64]*Entity),
		blocks:      make(map[BlockPos]*placedBlock),
	}
}

// ID returns the world identity used in dispatched events.
func (w *World) ID() int64 { return w.id }

func (w *World) entity(id int64) *Entity {
	return w.entities[id]
}

// Entity returns a live entity by ID.
func (w *World) Entity(id int64) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// EntityCount returns the number of live entities, players included.
func (w *World) EntityCount() int { return len(w.entities) }

// ── Entities ───────────────────────────────────────────────────────

// Spawn creates a live entity of a registered type at the given position
// and fires the spawn event.
func (w *World) Spawn(typeID bridge.Identifier, x, y, z float64) (*Entity, error) {
	typ, ok := w.ctx.EntityByID(typeID)
	if !ok {
		return nil, fmt.Errorf("world: entity type %s not registered", typeID)
	}
	e := w.spawnFromType(typ, x, y, z)
	return e, nil
}

func (w *World) spawnFromType(typ *proxy.EntityType, x, y, z float64) *Entity {
	w.nextEntityID++
	e := &Entity{
		id:     w.nextEntityID,
		typ:    typ,
		w:      w,
		x:      x,
		y:      y,
		z:      z,
		health: typ.Settings.MaxHealth,
	}
	if typ.Settings.Archetype != goal.ArchetypeProjectile {
		w.installBehavior(e, typ)
	}
	w.entities[e.id] = e
	w.table.InvokeEntitySpawn(typ.Handle, e.id, w.id)
	return e
}

// installBehavior builds the two selectors from the type's captured
// behavior configuration: nil config installs the archetype defaults, an
// explicit empty list installs nothing.
func (w *World) installBehavior(e *Entity, typ *proxy.EntityType) {
	e.goals = goal.NewSelector()
	e.targetGoals = goal.NewSelector()

	if typ.Goals == nil {
		w.installDefaultGoals(e, typ.Settings.Archetype)
	} else {
		w.factory.Populate(e.goals, e, *typ.Goals)
	}
	if typ.TargetGoals == nil {
		w.installDefaultTargetGoals(e, typ.Settings.Archetype)
	} else {
		w.factory.PopulateTargets(e.targetGoals, e, *typ.TargetGoals)
	}
}

// installDefaultGoals mirrors the stock behavior sets of each archetype.
func (w *World) installDefaultGoals(e *Entity, a goal.Archetype) {
	e.goals.Add(0, goal.NewFloatGoal(e))
	switch a {
	case goal.ArchetypeMonster:
		e.goals.Add(2, goal.NewMeleeAttackGoal(e, 1.0, true))
		e.goals.Add(5, goal.NewWaterAvoidingRandomStrollGoal(e, 1.0))
		e.goals.Add(6, goal.NewLookAtPlayerGoal(e, 8.0))
		e.goals.Add(7, goal.NewRandomLookAroundGoal(e))
	case goal.ArchetypeAnimal:
		e.goals.Add(1, goal.NewPanicGoal(e, 1.5))
		e.goals.Add(2, goal.NewBreedGoal(e, 1.0))
		e.goals.Add(4, goal.NewFollowParentGoal(e, 1.1))
		e.goals.Add(5, goal.NewWaterAvoidingRandomStrollGoal(e, 1.0))
		e.goals.Add(6, goal.NewLookAtPlayerGoal(e, 6.0))
		e.goals.Add(7, goal.NewRandomLookAroundGoal(e))
	default:
		e.goals.Add(5, goal.NewWaterAvoidingRandomStrollGoal(e, 1.0))
		e.goals.Add(6, goal.NewLookAtPlayerGoal(e, 8.0))
	}
}

func (w *World) installDefaultTargetGoals(e *Entity, a goal.Archetype) {
	switch a {
	case goal.ArchetypeMonster:
		e.targetGoals.Add(1, goal.NewHurtByTargetGoal(e, true))
		e.targetGoals.Add(2, goal.NewNearestAttackableTargetGoal(e, true))
	case goal.ArchetypeAnimal:
		e.targetGoals.Add(1, goal.NewHurtByTargetGoal(e, false))
	}
}

// SpawnPlayer creates a player entity. Players carry no proxy type and no
// behavior selectors; they exist so goals and events have someone to see.
func (w *World) SpawnPlayer(x, y, z float64) *Entity {
	w.nextEntityID++
	e := &Entity{
		id:     w.nextEntityID,
		w:      w,
		x:      x,
		y:      y,
		z:      z,
		health: 20,
	}
	w.entities[e.id] = e
	w.players[e.id] = e
	return e
}

// Damage applies damage to an entity. The scripted damage handler may
// cancel it; an uncancelled lethal hit kills the entity and fires the death
// event. Returns whether damage was applied.
func (w *World) Damage(entityID, attackerID int64, source string, amount float64) bool {
	e := w.entity(entityID)
	if e == nil || e.dead {
		return false
	}
	if e.typ != nil && !w.table.InvokeEntityDamage(e.typ.Handle, entityID, source, amount) {
		return false
	}
	e.health -= amount
	e.lastAttacker = attackerID
	if e.health <= 0 {
		w.kill(e, source)
	}
	return true
}

func (w *World) kill(e *Entity, source string) {
	e.dead = true
	if e.goals != nil {
		e.goals.StopAll()
	}
	if e.targetGoals != nil {
		e.targetGoals.StopAll()
	}
	delete(w.entities, e.id)
	delete(w.players, e.id)
	if e.typ != nil {
		w.table.InvokeEntityDeath(e.typ.Handle, e.id, source)
	}
}

// ── Blocks ─────────────────────────────────────────────────────────

// PlaceBlock sets a registered block type at pos in its default state and
// fires the placed event plus neighbor updates.
func (w *World) PlaceBlock(typeID bridge.Identifier, pos BlockPos, playerID int64) bool {
	typ, ok := w.ctx.BlockByID(typeID)
	if !ok {
		w.log.Warn("place of unregistered block", zap.String("id", typeID.String()))
		return false
	}
	if existing, occupied := w.blocks[pos]; occupied {
		if !existing.typ.Settings.Replaceable {
			return false
		}
		existing.typ.OnRemoved(w.id, pos.X, pos.Y, pos.Z)
	}
	pb := &placedBlock{typ: typ, state: typ.DefaultState()}
	if ct, has := w.ctx.ContainerForBlock(typeID.String()); has {
		pb.container = ct
	}
	w.blocks[pos] = pb
	typ.OnPlaced(w.id, pos.X, pos.Y, pos.Z, playerID)
	w.notifyNeighbors(pos)
	return true
}

// BreakBlock removes the block at pos unless the scripted break handler
// cancels it.
func (w *World) BreakBlock(pos BlockPos, playerID int64) bool {
	pb, ok := w.blocks[pos]
	if !ok {
		return false
	}
	if !pb.typ.OnBreak(w.id, pos.X, pos.Y, pos.Z, playerID) {
		return false
	}
	delete(w.blocks, pos)
	pb.typ.OnRemoved(w.id, pos.X, pos.Y, pos.Z)
	w.notifyNeighbors(pos)
	return true
}

// UseBlock fires the use event; opening a container block also fires the
// container-opened event.
func (w *World) UseBlock(pos BlockPos, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	pb, ok := w.blocks[pos]
	if !ok {
		return dispatch.Pass
	}
	res := pb.typ.OnUse(w.id, pos.X, pos.Y, pos.Z, playerID, hand)
	if pb.container != nil {
		w.table.InvokeContainerOpened(pb.container.Handle, w.id, playerID)
	}
	return res
}

// CloseContainer fires the container-closed event for a container block.
func (w *World) CloseContainer(pos BlockPos, playerID int64) {
	if pb, ok := w.blocks[pos]; ok && pb.container != nil {
		w.table.InvokeContainerClosed(pb.container.Handle, w.id, playerID)
	}
}

// SteppedOn fires the stepped-on event for the block at pos.
func (w *World) SteppedOn(pos BlockPos, entityID int64) {
	if pb, ok := w.blocks[pos]; ok {
		pb.typ.OnSteppedOn(w.id, pos.X, pos.Y, pos.Z, entityID)
	}
}

// FallenUpon fires the fallen-upon event with the fall distance.
func (w *World) FallenUpon(pos BlockPos, entityID int64, fallDistance float64) {
	if pb, ok := w.blocks[pos]; ok {
		pb.typ.OnFallenUpon(w.id, pos.X, pos.Y, pos.Z, entityID, fallDistance)
	}
}

// BlockAt returns the type and encoded state of the block at pos.
func (w *World) BlockAt(pos BlockPos) (*proxy.BlockType, uint64, bool) {
	pb, ok := w.blocks[pos]
	if !ok {
		return nil, 0, false
	}
	return pb.typ, pb.state, true
}

// SetBlockState re-encodes the block's state from one value index per
// declared property.
func (w *World) SetBlockState(pos BlockPos, values []int) error {
	pb, ok := w.blocks[pos]
	if !ok {
		return fmt.Errorf("world: no block at %v", pos)
	}
	encoded, err := pb.typ.EncodeState(values)
	if err != nil {
		return err
	}
	pb.state = encoded
	return nil
}

// liquidAt reports whether the block cell containing the point is liquid.
func (w *World) liquidAt(x, y, z float64) bool {
	pb, ok := w.blocks[BlockPos{int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z))}]
	return ok && pb.typ.Settings.Liquid
}

func (w *World) notifyNeighbors(pos BlockPos) {
	for _, d := range [...][3]int{{0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0}} {
		n := BlockPos{pos.X + d[0], pos.Y + d[1], pos.Z + d[2]}
		if pb, ok := w.blocks[n]; ok {
			pb.typ.OnNeighborChanged(w.id, n.X, n.Y, n.Z, pos.X, pos.Y, pos.Z)
		}
	}
}

// ── Items ──────────────────────────────────────────────────────────

// UseItem fires the item-use event for a registered item.
func (w *World) UseItem(itemID bridge.Identifier, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	it, ok := w.ctx.ItemByID(itemID)
	if !ok {
		return dispatch.Pass
	}
	return it.OnUse(w.id, playerID, hand)
}

// UseItemOnBlock fires the item-use-on-block event.
func (w *World) UseItemOnBlock(itemID bridge.Identifier, pos BlockPos, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	it, ok := w.ctx.ItemByID(itemID)
	if !ok {
		return dispatch.Pass
	}
	return it.OnUseOnBlock(w.id, pos.X, pos.Y, pos.Z, playerID, hand)
}

// UseItemOnEntity fires the item-use-on-entity event.
func (w *World) UseItemOnEntity(itemID bridge.Identifier, entityID, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	it, ok := w.ctx.ItemByID(itemID)
	if !ok {
		return dispatch.Pass
	}
	return it.OnUseOnEntity(w.id, entityID, playerID, hand)
}

// AttackWithItem routes a player's item attack: the scripted handler may
// cancel it before any damage applies.
func (w *World) AttackWithItem(itemID bridge.Identifier, attackerID, targetID int64) bool {
	it, ok := w.ctx.ItemByID(itemID)
	if !ok {
		return false
	}
	if !it.OnAttackEntity(w.id, attackerID, targetID) {
		return false
	}
	dmg := 1.0
	if it.Settings.IsWeapon() {
		dmg = it.Settings.AttackDamage
	}
	return w.Damage(targetID, attackerID, "player_attack", dmg)
}

// ── Tick ───────────────────────────────────────────────────────────

const defaultRandomTicks = 3

// Tick advances the world by one engine tick: entity navigation and
// selectors, the per-type entity tick opt-in, container ticks, and a
// random-tick sample of eligible blocks.
func (w *World) Tick() {
	w.tickCount++

	for _, e := range w.entities {
		if e.typ == nil {
			continue
		}
		e.tick()
		if e.typ.Settings.TickCallback {
			w.table.InvokeEntityTick(e.typ.Handle, e.id)
		}
		cell := BlockPos{int(math.Floor(e.x)), int(math.Floor(e.y)), int(math.Floor(e.z))}
		if pb, ok := w.blocks[cell]; ok && !pb.typ.Settings.Collidable {
			pb.typ.OnEntityInside(w.id, cell.X, cell.Y, cell.Z, e.id)
		}
	}

	var randomTickable []BlockPos
	for pos, pb := range w.blocks {
		if pb.container != nil && pb.container.Settings.Ticks {
			w.table.InvokeContainerTick(pb.container.Handle, w.id, pos.X, pos.Y, pos.Z)
		}
		if pb.typ.Settings.RandomTicks {
			randomTickable = append(randomTickable, pos)
		}
	}
	for i := 0; i < w.randomTicks && len(randomTickable) > 0; i++ {
		pos := randomTickable[rand.Intn(len(randomTickable))]
		w.blocks[pos].typ.OnRandomTick(w.id, pos.X, pos.Y, pos.Z)
	}
}
