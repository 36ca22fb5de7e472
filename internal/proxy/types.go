package proxy

import (
	"math"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/state"
)

// SpawnGroup is the population bucket an entity type spawns under.
type SpawnGroup int

const (
	SpawnMonster SpawnGroup = iota
	SpawnCreature
	SpawnAmbient
	SpawnWaterCreature
	SpawnMisc
)

// BlockSettings is the construction record captured at create time and
// consumed when the block type is registered. Field defaults match the
// engine's stock block: friction 0.6, speed and jump factors 1.0.
type BlockSettings struct {
	Hardness     float64
	Resistance   float64
	RequiresTool bool
	Luminance    int // 0-15 light emission
	Friction     float64
	SpeedFactor  float64
	JumpFactor   float64
	RandomTicks  bool
	Collidable   bool
	Replaceable  bool
	Burnable     bool
	Liquid       bool

	// Declared state properties, in encoding order, with one default value
	// index per property. Immutable after create.
	Properties []state.Property
	Defaults   []int
}

// DefaultBlockSettings returns settings matching a plain stone-like block.
func DefaultBlockSettings() BlockSettings {
	return BlockSettings{
		Hardness:    1.0,
		Resistance:  1.0,
		Friction:    0.6,
		SpeedFactor: 1.0,
		JumpFactor:  1.0,
		Collidable:  true,
	}
}

// ItemSettings is the item construction record. Attack attributes are NaN
// when unset, matching the wire convention of the creation entry points.
type ItemSettings struct {
	MaxStackSize    int
	MaxDamage       int // 0 = not damageable
	FireResistant   bool
	AttackDamage    float64
	AttackSpeed     float64
	AttackKnockback float64
}

// DefaultItemSettings returns a plain 64-stack item with no combat stats.
func DefaultItemSettings() ItemSettings {
	return ItemSettings{
		MaxStackSize:    64,
		AttackDamage:    math.NaN(),
		AttackSpeed:     math.NaN(),
		AttackKnockback: math.NaN(),
	}
}

// IsWeapon reports whether any combat attribute was set.
func (s ItemSettings) IsWeapon() bool {
	return !math.IsNaN(s.AttackDamage) || !math.IsNaN(s.AttackSpeed) || !math.IsNaN(s.AttackKnockback)
}

// EntitySettings is the entity construction record.
type EntitySettings struct {
	Width         float64
	Height        float64
	MaxHealth     float64
	MovementSpeed float64
	AttackDamage  float64
	SpawnGroup    SpawnGroup
	Archetype     goal.Archetype
	BreedingItem  string // item identifier, empty when not breedable

	// TickCallback opts this type into the per-tick dispatch round-trip.
	// Off by default: every invocation pays the cross-runtime cost.
	TickCallback bool
}

// ContainerSettings is the container construction record. A container binds
// an inventory to an already-registered (or queued) block type.
type ContainerSettings struct {
	BlockID       string // identifier of the owning block
	InventorySize int
	Title         string
	Ticks         bool
}

// GoalSettings is the reusable custom-goal definition record: the flag set
// and tick-rate default that behavior configs referencing this goal inherit.
type GoalSettings struct {
	Flags     []string
	EveryTick bool
}

// BlockType is a registered script-defined block. Lifecycle events forward
// through the dispatch table keyed by the type's handle; state variants
// encode through the declared property list.
type BlockType struct {
	Handle   bridge.Handle
	ID       bridge.Identifier
	Settings BlockSettings

	defaultState uint64
	table        *dispatch.Table
}

// DefaultState returns the encoded state for the declared default values.
func (b *BlockType) DefaultState() uint64 { return b.defaultState }

// EncodeState packs one value index per declared property.
func (b *BlockType) EncodeState(values []int) (uint64, error) {
	return state.Encode(b.Settings.Properties, values)
}

// DecodeState unpacks an encoded state produced by EncodeState.
func (b *BlockType) DecodeState(encoded uint64) []int {
	return state.Decode(b.Settings.Properties, encoded)
}

func (b *BlockType) OnBreak(worldID int64, x, y, z int, playerID int64) bool {
	return b.table.InvokeBlockBreak(b.Handle, worldID, x, y, z, playerID)
}

func (b *BlockType) OnUse(worldID int64, x, y, z int, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	return b.table.InvokeBlockUse(b.Handle, worldID, x, y, z, playerID, hand)
}

func (b *BlockType) OnSteppedOn(worldID int64, x, y, z int, entityID int64) {
	b.table.InvokeBlockSteppedOn(b.Handle, worldID, x, y, z, entityID)
}

func (b *BlockType) OnFallenUpon(worldID int64, x, y, z int, entityID int64, fallDistance float64) {
	b.table.InvokeBlockFallenUpon(b.Handle, worldID, x, y, z, entityID, fallDistance)
}

func (b *BlockType) OnRandomTick(worldID int64, x, y, z int) {
	if !b.Settings.RandomTicks {
		return
	}
	b.table.InvokeBlockRandomTick(b.Handle, worldID, x, y, z)
}

func (b *BlockType) OnPlaced(worldID int64, x, y, z int, playerID int64) {
	b.table.InvokeBlockPlaced(b.Handle, worldID, x, y, z, playerID)
}

func (b *BlockType) OnRemoved(worldID int64, x, y, z int) {
	b.table.InvokeBlockRemoved(b.Handle, worldID, x, y, z)
}

func (b *BlockType) OnNeighborChanged(worldID int64, x, y, z, nx, ny, nz int) {
	b.table.InvokeBlockNeighborChanged(b.Handle, worldID, x, y, z, nx, ny, nz)
}

func (b *BlockType) OnEntityInside(worldID int64, x, y, z int, entityID int64) {
	b.table.InvokeBlockEntityInside(b.Handle, worldID, x, y, z, entityID)
}

// ItemType is a registered script-defined item.
type ItemType struct {
	Handle   bridge.Handle
	ID       bridge.Identifier
	Settings ItemSettings

	table *dispatch.Table
}

func (i *ItemType) OnUse(worldID, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	return i.table.InvokeItemUse(i.Handle, worldID, playerID, hand)
}

func (i *ItemType) OnUseOnBlock(worldID int64, x, y, z int, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	return i.table.InvokeItemUseOnBlock(i.Handle, worldID, x, y, z, playerID, hand)
}

func (i *ItemType) OnUseOnEntity(worldID, entityID, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
	return i.table.InvokeItemUseOnEntity(i.Handle, worldID, entityID, playerID, hand)
}

func (i *ItemType) OnAttackEntity(worldID, attackerID, targetID int64) bool {
	return i.table.InvokeItemAttackEntity(i.Handle, worldID, attackerID, targetID)
}

// EntityType is a registered script-defined entity type. Behavior
// configuration is captured per type: nil means the archetype's default
// behavior set, an empty string means no behavior at all.
type EntityType struct {
	Handle   bridge.Handle
	ID       bridge.Identifier
	Settings EntitySettings

	Goals       *string
	TargetGoals *string
}

// ContainerType is a registered container bound to a block type.
type ContainerType struct {
	Handle   bridge.Handle
	ID       bridge.Identifier
	Settings ContainerSettings
}

// GoalDef is a registered reusable custom-goal definition. Its identifier
// string is the goalId custom behavior descriptors reference.
type GoalDef struct {
	Handle bridge.Handle
	ID     bridge.Identifier
	Def    goal.Definition
}
