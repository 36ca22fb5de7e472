// Package dispatch routes native lifecycle events to the scripting side
// through a single function slot per event kind. Every slot has a declared
// default that is returned until a handler is installed, and again whenever
// a handler panics: no event in this layer may take down the engine thread.
package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
)

// ActionResult is the outcome of a use-style interaction.
type ActionResult int

const (
	Pass    ActionResult = iota // not handled, engine falls through
	Success                     // handled, swing arm
	Consume                     // handled, consume the item
	Fail                        // explicitly rejected
)

// Hand distinguishes which hand performed an interaction.
type Hand int

const (
	MainHand Hand = iota
	OffHand
)

// Block event handlers. The handle identifies the block type; position and
// actor identify the instance the event happened to.
type (
	BlockBreakFunc           func(h bridge.Handle, worldID int64, x, y, z int, playerID int64) bool
	BlockUseFunc             func(h bridge.Handle, worldID int64, x, y, z int, playerID int64, hand Hand) ActionResult
	BlockSteppedOnFunc       func(h bridge.Handle, worldID int64, x, y, z int, entityID int64)
	BlockFallenUponFunc      func(h bridge.Handle, worldID int64, x, y, z int, entityID int64, fallDistance float64)
	BlockRandomTickFunc      func(h bridge.Handle, worldID int64, x, y, z int)
	BlockPlacedFunc          func(h bridge.Handle, worldID int64, x, y, z int, playerID int64)
	BlockRemovedFunc         func(h bridge.Handle, worldID int64, x, y, z int)
	BlockNeighborChangedFunc func(h bridge.Handle, worldID int64, x, y, z, nx, ny, nz int)
	BlockEntityInsideFunc    func(h bridge.Handle, worldID int64, x, y, z int, entityID int64)
)

// Entity event handlers.
type (
	EntitySpawnFunc  func(h bridge.Handle, entityID, worldID int64)
	EntityTickFunc   func(h bridge.Handle, entityID int64)
	EntityDeathFunc  func(h bridge.Handle, entityID int64, source string)
	EntityDamageFunc func(h bridge.Handle, entityID int64, source string, amount float64) bool
	EntityAttackFunc func(h bridge.Handle, entityID, targetID int64)
	EntityTargetFunc func(h bridge.Handle, entityID, targetID int64)
	AnimalBreedFunc  func(h bridge.Handle, parentID, partnerID, babyID int64)
)

// Item event handlers.
type (
	ItemUseFunc          func(h bridge.Handle, worldID, playerID int64, hand Hand) ActionResult
	ItemUseOnBlockFunc   func(h bridge.Handle, worldID int64, x, y, z int, playerID int64, hand Hand) ActionResult
	ItemUseOnEntityFunc  func(h bridge.Handle, worldID, entityID, playerID int64, hand Hand) ActionResult
	ItemAttackEntityFunc func(h bridge.Handle, worldID, attackerID, targetID int64) bool
)

// Command and container event handlers.
type (
	CommandExecuteFunc  func(h bridge.Handle, playerID int64, argsJSON string) int
	ContainerOpenedFunc func(h bridge.Handle, worldID, playerID int64)
	ContainerClosedFunc func(h bridge.Handle, worldID, playerID int64)
	ContainerTickFunc   func(h bridge.Handle, worldID int64, x, y, z int)
)

// Custom goal handlers are keyed by the goal's string ID rather than a type
// handle: one scripted goal definition may be shared by many entity types.
type (
	GoalCanUseFunc      func(goalID string, entityID int64) bool
	GoalCanContinueFunc func(goalID string, entityID int64) bool
	GoalStartFunc       func(goalID string, entityID int64)
	GoalTickFunc        func(goalID string, entityID int64)
	GoalStopFunc        func(goalID string, entityID int64)
)

// Table holds one handler slot per event kind. Slots are written once at
// startup and read on every event, so a single RWMutex suffices. Invoking a
// kind with no handler returns that kind's declared default; boolean
// allow/deny kinds default to allow, except goal activation checks which
// default to deny so an unconfigured custom goal never silently runs.
type Table struct {
	mu  sync.RWMutex
	log *zap.Logger

	blockBreak           BlockBreakFunc
	blockUse             BlockUseFunc
	blockSteppedOn       BlockSteppedOnFunc
	blockFallenUpon      BlockFallenUponFunc
	blockRandomTick      BlockRandomTickFunc
	blockPlaced          BlockPlacedFunc
	blockRemoved         BlockRemovedFunc
	blockNeighborChanged BlockNeighborChangedFunc
	blockEntityInside    BlockEntityInsideFunc

	entitySpawn  EntitySpawnFunc
	entityTick   EntityTickFunc
	entityDeath  EntityDeathFunc
	entityDamage EntityDamageFunc
	entityAttack EntityAttackFunc
	entityTarget EntityTargetFunc
	animalBreed  AnimalBreedFunc

	itemUse          ItemUseFunc
	itemUseOnBlock   ItemUseOnBlockFunc
	itemUseOnEntity  ItemUseOnEntityFunc
	itemAttackEntity ItemAttackEntityFunc

	commandExecute  CommandExecuteFunc
	containerOpened ContainerOpenedFunc
	containerClosed ContainerClosedFunc
	containerTick   ContainerTickFunc

	goalCanUse      GoalCanUseFunc
	goalCanContinue GoalCanContinueFunc
	goalStart       GoalStartFunc
	goalTick        GoalTickFunc
	goalStop        GoalStopFunc
}

// NewTable creates an empty dispatch table.
func NewTable(log *zap.Logger) *Table {
	return &Table{log: log}
}

// recovered logs a handler panic. Callers set their named return to the
// kind's default before deferring this, so a panicking handler degrades to
// the unconfigured behavior.
func (t *Table) recovered(kind string) {
	if r := recover(); r != nil {
		t.log.Error("callback handler panic", zap.String("kind", kind), zap.Any("panic", r))
	}
}

// ── Install: replaces any existing handler for the kind ────────────

func (t *Table) InstallBlockBreak(fn BlockBreakFunc) { t.mu.Lock(); t.blockBreak = fn; t.mu.Unlock() }
func (t *Table) InstallBlockUse(fn BlockUseFunc)     { t.mu.Lock(); t.blockUse = fn; t.mu.Unlock() }
func (t *Table) InstallBlockSteppedOn(fn BlockSteppedOnFunc) {
	t.mu.Lock()
	t.blockSteppedOn = fn
	t.mu.Unlock()
}
func (t *Table) InstallBlockFallenUpon(fn BlockFallenUponFunc) {
	t.mu.Lock()
	t.blockFallenUpon = fn
	t.mu.Unlock()
}
func (t *Table) InstallBlockRandomTick(fn BlockRandomTickFunc) {
	t.mu.Lock()
	t.blockRandomTick = fn
	t.mu.Unlock()
}
func (t *Table) InstallBlockPlaced(fn BlockPlacedFunc) { t.mu.Lock(); t.blockPlaced = fn; t.mu.Unlock() }
func (t *Table) InstallBlockRemoved(fn BlockRemovedFunc) {
	t.mu.Lock()
	t.blockRemoved = fn
	t.mu.Unlock()
}
func (t *Table) InstallBlockNeighborChanged(fn BlockNeighborChangedFunc) {
	t.mu.Lock()
	t.blockNeighborChanged = fn
	t.mu.Unlock()
}
func (t *Table) InstallBlockEntityInside(fn BlockEntityInsideFunc) {
	t.mu.Lock()
	t.blockEntityInside = fn
	t.mu.Unlock()
}

func (t *Table) InstallEntitySpawn(fn EntitySpawnFunc) { t.mu.Lock(); t.entitySpawn = fn; t.mu.Unlock() }
func (t *Table) InstallEntityTick(fn EntityTickFunc)   { t.mu.Lock(); t.entityTick = fn; t.mu.Unlock() }
func (t *Table) InstallEntityDeath(fn EntityDeathFunc) { t.mu.Lock(); t.entityDeath = fn; t.mu.Unlock() }
func (t *Table) InstallEntityDamage(fn EntityDamageFunc) {
	t.mu.Lock()
	t.entityDamage = fn
	t.mu.Unlock()
}
func (t *Table) InstallEntityAttack(fn EntityAttackFunc) {
	t.mu.Lock()
	t.entityAttack = fn
	t.mu.Unlock()
}
func (t *Table) InstallEntityTarget(fn EntityTargetFunc) {
	t.mu.Lock()
	t.entityTarget = fn
	t.mu.Unlock()
}
func (t *Table) InstallAnimalBreed(fn AnimalBreedFunc) { t.mu.Lock(); t.animalBreed = fn; t.mu.Unlock() }

func (t *Table) InstallItemUse(fn ItemUseFunc) { t.mu.Lock(); t.itemUse = fn; t.mu.Unlock() }
func (t *Table) InstallItemUseOnBlock(fn ItemUseOnBlockFunc) {
	t.mu.Lock()
	t.itemUseOnBlock = fn
	t.mu.Unlock()
}
func (t *Table) InstallItemUseOnEntity(fn ItemUseOnEntityFunc) {
	t.mu.Lock()
	t.itemUseOnEntity = fn
	t.mu.Unlock()
}
func (t *Table) InstallItemAttackEntity(fn ItemAttackEntityFunc) {
	t.mu.Lock()
	t.itemAttackEntity = fn
	t.mu.Unlock()
}

func (t *Table) InstallCommandExecute(fn CommandExecuteFunc) {
	t.mu.Lock()
	t.commandExecute = fn
	t.mu.Unlock()
}
func (t *Table) InstallContainerOpened(fn ContainerOpenedFunc) {
	t.mu.Lock()
	t.containerOpened = fn
	t.mu.Unlock()
}
func (t *Table) InstallContainerClosed(fn ContainerClosedFunc) {
	t.mu.Lock()
	t.containerClosed = fn
	t.mu.Unlock()
}
func (t *Table) InstallContainerTick(fn ContainerTickFunc) {
	t.mu.Lock()
	t.containerTick = fn
	t.mu.Unlock()
}

func (t *Table) InstallGoalCanUse(fn GoalCanUseFunc) { t.mu.Lock(); t.goalCanUse = fn; t.mu.Unlock() }
func (t *Table) InstallGoalCanContinue(fn GoalCanContinueFunc) {
	t.mu.Lock()
	t.goalCanContinue = fn
	t.mu.Unlock()
}
func (t *Table) InstallGoalStart(fn GoalStartFunc) { t.mu.Lock(); t.goalStart = fn; t.mu.Unlock() }
func (t *Table) InstallGoalTick(fn GoalTickFunc)   { t.mu.Lock(); t.goalTick = fn; t.mu.Unlock() }
func (t *Table) InstallGoalStop(fn GoalStopFunc)   { t.mu.Lock(); t.goalStop = fn; t.mu.Unlock() }

// ── Invoke: synchronous round-trip, default when unset ─────────────

// InvokeBlockBreak asks whether the break may proceed. Default: allow.
func (t *Table) InvokeBlockBreak(h bridge.Handle, worldID int64, x, y, z int, playerID int64) (allow bool) {
	t.mu.RLock()
	fn := t.blockBreak
	t.mu.RUnlock()
	if fn == nil {
		return true
	}
	allow = true
	defer t.recovered("block_break")
	return fn(h, worldID, x, y, z, playerID)
}

// InvokeBlockUse reports the interaction outcome. Default: Pass.
func (t *Table) InvokeBlockUse(h bridge.Handle, worldID int64, x, y, z int, playerID int64, hand Hand) (res ActionResult) {
	t.mu.RLock()
	fn := t.blockUse
	t.mu.RUnlock()
	if fn == nil {
		return Pass
	}
	res = Pass
	defer t.recovered("block_use")
	return fn(h, worldID, x, y, z, playerID, hand)
}

func (t *Table) InvokeBlockSteppedOn(h bridge.Handle, worldID int64, x, y, z int, entityID int64) {
	t.mu.RLock()
	fn := t.blockSteppedOn
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_stepped_on")
	fn(h, worldID, x, y, z, entityID)
}

func (t *Table) InvokeBlockFallenUpon(h bridge.Handle, worldID int64, x, y, z int, entityID int64, fallDistance float64) {
	t.mu.RLock()
	fn := t.blockFallenUpon
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_fallen_upon")
	fn(h, worldID, x, y, z, entityID, fallDistance)
}

func (t *Table) InvokeBlockRandomTick(h bridge.Handle, worldID int64, x, y, z int) {
	t.mu.RLock()
	fn := t.blockRandomTick
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_random_tick")
	fn(h, worldID, x, y, z)
}

func (t *Table) InvokeBlockPlaced(h bridge.Handle, worldID int64, x, y, z int, playerID int64) {
	t.mu.RLock()
	fn := t.blockPlaced
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_placed")
	fn(h, worldID, x, y, z, playerID)
}

func (t *Table) InvokeBlockRemoved(h bridge.Handle, worldID int64, x, y, z int) {
	t.mu.RLock()
	fn := t.blockRemoved
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_removed")
	fn(h, worldID, x, y, z)
}

func (t *Table) InvokeBlockNeighborChanged(h bridge.Handle, worldID int64, x, y, z, nx, ny, nz int) {
	t.mu.RLock()
	fn := t.blockNeighborChanged
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_neighbor_changed")
	fn(h, worldID, x, y, z, nx, ny, nz)
}

func (t *Table) InvokeBlockEntityInside(h bridge.Handle, worldID int64, x, y, z int, entityID int64) {
	t.mu.RLock()
	fn := t.blockEntityInside
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("block_entity_inside")
	fn(h, worldID, x, y, z, entityID)
}

func (t *Table) InvokeEntitySpawn(h bridge.Handle, entityID, worldID int64) {
	t.mu.RLock()
	fn := t.entitySpawn
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("entity_spawn")
	fn(h, entityID, worldID)
}

func (t *Table) InvokeEntityTick(h bridge.Handle, entityID int64) {
	t.mu.RLock()
	fn := t.entityTick
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("entity_tick")
	fn(h, entityID)
}

func (t *Table) InvokeEntityDeath(h bridge.Handle, entityID int64, source string) {
	t.mu.RLock()
	fn := t.entityDeath
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("entity_death")
	fn(h, entityID, source)
}

// InvokeEntityDamage asks whether the damage applies. Default: allow.
func (t *Table) InvokeEntityDamage(h bridge.Handle, entityID int64, source string, amount float64) (allow bool) {
	t.mu.RLock()
	fn := t.entityDamage
	t.mu.RUnlock()
	if fn == nil {
		return true
	}
	allow = true
	defer t.recovered("entity_damage")
	return fn(h, entityID, source, amount)
}

func (t *Table) InvokeEntityAttack(h bridge.Handle, entityID, targetID int64) {
	t.mu.RLock()
	fn := t.entityAttack
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("entity_attack")
	fn(h, entityID, targetID)
}

func (t *Table) InvokeEntityTarget(h bridge.Handle, entityID, targetID int64) {
	t.mu.RLock()
	fn := t.entityTarget
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("entity_target")
	fn(h, entityID, targetID)
}

func (t *Table) InvokeAnimalBreed(h bridge.Handle, parentID, partnerID, babyID int64) {
	t.mu.RLock()
	fn := t.animalBreed
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("animal_breed")
	fn(h, parentID, partnerID, babyID)
}

// InvokeItemUse reports the use outcome. Default: Pass.
func (t *Table) InvokeItemUse(h bridge.Handle, worldID, playerID int64, hand Hand) (res ActionResult) {
	t.mu.RLock()
	fn := t.itemUse
	t.mu.RUnlock()
	if fn == nil {
		return Pass
	}
	res = Pass
	defer t.recovered("item_use")
	return fn(h, worldID, playerID, hand)
}

func (t *Table) InvokeItemUseOnBlock(h bridge.Handle, worldID int64, x, y, z int, playerID int64, hand Hand) (res ActionResult) {
	t.mu.RLock()
	fn := t.itemUseOnBlock
	t.mu.RUnlock()
	if fn == nil {
		return Pass
	}
	res = Pass
	defer t.recovered("item_use_on_block")
	return fn(h, worldID, x, y, z, playerID, hand)
}

func (t *Table) InvokeItemUseOnEntity(h bridge.Handle, worldID, entityID, playerID int64, hand Hand) (res ActionResult) {
	t.mu.RLock()
	fn := t.itemUseOnEntity
	t.mu.RUnlock()
	if fn == nil {
		return Pass
	}
	res = Pass
	defer t.recovered("item_use_on_entity")
	return fn(h, worldID, entityID, playerID, hand)
}

// InvokeItemAttackEntity asks whether the attack proceeds. Default: allow.
func (t *Table) InvokeItemAttackEntity(h bridge.Handle, worldID, attackerID, targetID int64) (allow bool) {
	t.mu.RLock()
	fn := t.itemAttackEntity
	t.mu.RUnlock()
	if fn == nil {
		return true
	}
	allow = true
	defer t.recovered("item_attack_entity")
	return fn(h, worldID, attackerID, targetID)
}

// InvokeCommandExecute runs a scripted command. Default: 0.
func (t *Table) InvokeCommandExecute(h bridge.Handle, playerID int64, argsJSON string) (code int) {
	t.mu.RLock()
	fn := t.commandExecute
	t.mu.RUnlock()
	if fn == nil {
		return 0
	}
	defer t.recovered("command_execute")
	return fn(h, playerID, argsJSON)
}

func (t *Table) InvokeContainerOpened(h bridge.Handle, worldID, playerID int64) {
	t.mu.RLock()
	fn := t.containerOpened
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("container_opened")
	fn(h, worldID, playerID)
}

func (t *Table) InvokeContainerClosed(h bridge.Handle, worldID, playerID int64) {
	t.mu.RLock()
	fn := t.containerClosed
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("container_closed")
	fn(h, worldID, playerID)
}

func (t *Table) InvokeContainerTick(h bridge.Handle, worldID int64, x, y, z int) {
	t.mu.RLock()
	fn := t.containerTick
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("container_tick")
	fn(h, worldID, x, y, z)
}

// InvokeGoalCanUse asks whether a custom goal may activate. Default: deny —
// an unconfigured custom goal must never silently run.
func (t *Table) InvokeGoalCanUse(goalID string, entityID int64) (use bool) {
	t.mu.RLock()
	fn := t.goalCanUse
	t.mu.RUnlock()
	if fn == nil {
		return false
	}
	defer t.recovered("goal_can_use")
	return fn(goalID, entityID)
}

// InvokeGoalCanContinue asks whether a running custom goal may keep going.
// Default: deny.
func (t *Table) InvokeGoalCanContinue(goalID string, entityID int64) (cont bool) {
	t.mu.RLock()
	fn := t.goalCanContinue
	t.mu.RUnlock()
	if fn == nil {
		return false
	}
	defer t.recovered("goal_can_continue")
	return fn(goalID, entityID)
}

func (t *Table) InvokeGoalStart(goalID string, entityID int64) {
	t.mu.RLock()
	fn := t.goalStart
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("goal_start")
	fn(goalID, entityID)
}

func (t *Table) InvokeGoalTick(goalID string, entityID int64) {
	t.mu.RLock()
	fn := t.goalTick
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("goal_tick")
	fn(goalID, entityID)
}

func (t *Table) InvokeGoalStop(goalID string, entityID int64) {
	t.mu.RLock()
	fn := t.goalStop
	t.mu.RUnlock()
	if fn == nil {
		return
	}
	defer t.recovered("goal_stop")
	fn(goalID, entityID)
}
