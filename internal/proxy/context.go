// Package proxy implements the two-phase registration protocol that lets
// script-defined types become first-class native types: create captures a
// settings record under a fresh handle, register binds the handle to its
// final namespace:path identifier and installs the constructed type into an
// immutable registry. All registry tables are owned by one Context passed to
// every entry point; there is no package-level state.
package proxy

import (
	"sync"

	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/state"
)

// Context owns the handle allocator, the per-kind pending stores, the
// registered type tables, and the freeze flag. Create entry points are safe
// from any goroutine; register entry points must run on the engine's
// registration goroutine before Freeze.
type Context struct {
	log   *zap.Logger
	alloc *bridge.Allocator
	table *dispatch.Table

	pendingBlocks     *pending[BlockSettings]
	pendingItems      *pending[ItemSettings]
	pendingEntities   *pending[EntitySettings]
	pendingContainers *pending[ContainerSettings]
	pendingGoals      *pending[GoalSettings]

	// Behavior config attached between create and register, keyed by the
	// entity handle. Guarded by goalMu: attachment may arrive from the
	// isolate while the engine thread consumes at register time.
	goalMu          sync.Mutex
	attachedGoals   map[bridge.Handle]*string
	attachedTargets map[bridge.Handle]*string

	mu         sync.RWMutex
	frozen     bool
	blocks     map[bridge.Handle]*BlockType
	items      map[bridge.Handle]*ItemType
	entities   map[bridge.Handle]*EntityType
	containers map[bridge.Handle]*ContainerType
	goals      map[bridge.Handle]*GoalDef
	commands   map[bridge.Handle]*Command

	blockIDs     map[bridge.Identifier]bridge.Handle
	itemIDs      map[bridge.Identifier]bridge.Handle
	entityIDs    map[bridge.Identifier]bridge.Handle
	containerIDs map[bridge.Identifier]bridge.Handle
	goalIDs      map[string]*GoalDef
	commandNames map[string]*Command
}

// NewContext creates an empty registry context.
func NewContext(log *zap.Logger, table *dispatch.Table) *Context {
	return &Context{
		log:   log,
		alloc: bridge.NewAllocator(),
		table: table,

		pendingBlocks:     newPending[BlockSettings](),
		pendingItems:      newPending[ItemSettings](),
		pendingEntities:   newPending[EntitySettings](),
		pendingContainers: newPending[ContainerSettings](),
		pendingGoals:      newPending[GoalSettings](),

		attachedGoals:   make(map[bridge.Handle]*string),
		attachedTargets: make(map[bridge.Handle]*string),

		blocks:     make(map[bridge.Handle]*BlockType),
		items:      make(map[bridge.Handle]*ItemType),
		entities:   make(map[bridge.Handle]*EntityType),
		containers: make(map[bridge.Handle]*ContainerType),
		goals:      make(map[bridge.Handle]*GoalDef),
		commands:   make(map[bridge.Handle]*Command),

		blockIDs:     make(map[bridge.Identifier]bridge.Handle),
		itemIDs:      make(map[bridge.Identifier]bridge.Handle),
		entityIDs:    make(map[bridge.Identifier]bridge.Handle),
		containerIDs: make(map[bridge.Identifier]bridge.Handle),
		goalIDs:      make(map[string]*GoalDef),
		commandNames: make(map[string]*Command),
	}
}

// Dispatch returns the callback dispatch table this context routes through.
func (c *Context) Dispatch() *dispatch.Table { return c.table }

// Freeze closes the registries. Every registration entry point afterwards
// logs a protocol error and fails; the engine never accepts new types once
// gameplay starts.
func (c *Context) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	c.log.Info("registries frozen",
		zap.Int("blocks", len(c.blocks)),
		zap.Int("items", len(c.items)),
		zap.Int("entities", len(c.entities)),
		zap.Int("containers", len(c.containers)),
		zap.Int("goals", len(c.goals)),
		zap.Int("commands", len(c.commands)))
}

// Frozen reports whether the freeze point has passed.
func (c *Context) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// ── Blocks ─────────────────────────────────────────────────────────

// CreateBlock captures block settings and returns the handle to register
// them under. Callable from any goroutine.
func (c *Context) CreateBlock(s BlockSettings) bridge.Handle {
	if s.Defaults == nil {
		s.Defaults = make([]int, len(s.Properties))
	}
	h := c.alloc.Next()
	if err := c.pendingBlocks.put(h, s); err != nil {
		// Unreachable given the allocator contract; defensive.
		c.log.Error("pending block collision", zap.Int64("handle", int64(h)), zap.Error(err))
	}
	c.log.Debug("created block settings", zap.Int64("handle", int64(h)))
	return h
}

// RegisterBlock consumes the pending settings for h and installs the block
// type under namespace:path. Returns false (never panics, never aborts the
// batch) when the handle is unknown, the identifier is invalid or taken, or
// the registries are frozen.
func (c *Context) RegisterBlock(h bridge.Handle, namespace, path string) bool {
	id, ok := c.registrable(h, namespace, path, "block")
	if !ok {
		return false
	}
	s, err := c.pendingBlocks.take(h)
	if err != nil {
		c.log.Error("cannot register block: no pending settings",
			zap.Int64("handle", int64(h)), zap.String("id", id.String()))
		return false
	}
	defaultState, err := state.Encode(s.Properties, s.Defaults)
	if err != nil {
		c.log.Error("cannot register block: bad default state",
			zap.String("id", id.String()), zap.Error(err))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.blockIDs[id]; taken {
		c.log.Error("cannot register block: identifier taken", zap.String("id", id.String()))
		return false
	}
	b := &BlockType{Handle: h, ID: id, Settings: s, defaultState: defaultState, table: c.table}
	c.blocks[h] = b
	c.blockIDs[id] = h
	c.log.Info("registered block", zap.String("id", id.String()), zap.Int64("handle", int64(h)))
	return true
}

// Block returns a registered block type by handle.
func (c *Context) Block(h bridge.Handle) (*BlockType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[h]
	return b, ok
}

// BlockByID returns a registered block type by identifier.
func (c *Context) BlockByID(id bridge.Identifier) (*BlockType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.blockIDs[id]
	if !ok {
		return nil, false
	}
	return c.blocks[h], true
}

// ── Items ──────────────────────────────────────────────────────────

// CreateItem captures item settings and returns the registration handle.
func (c *Context) CreateItem(s ItemSettings) bridge.Handle {
	h := c.alloc.Next()
	if err := c.pendingItems.put(h, s); err != nil {
		c.log.Error("pending item collision", zap.Int64("handle", int64(h)), zap.Error(err))
	}
	c.log.Debug("created item settings", zap.Int64("handle", int64(h)))
	return h
}

// RegisterItem consumes pending settings and installs the item type.
func (c *Context) RegisterItem(h bridge.Handle, namespace, path string) bool {
	id, ok := c.registrable(h, namespace, path, "item")
	if !ok {
		return false
	}
	s, err := c.pendingItems.take(h)
	if err != nil {
		c.log.Error("cannot register item: no pending settings",
			zap.Int64("handle", int64(h)), zap.String("id", id.String()))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.itemIDs[id]; taken {
		c.log.Error("cannot register item: identifier taken", zap.String("id", id.String()))
		return false
	}
	it := &ItemType{Handle: h, ID: id, Settings: s, table: c.table}
	c.items[h] = it
	c.itemIDs[id] = h
	c.log.Info("registered item", zap.String("id", id.String()),
		zap.Int64("handle", int64(h)), zap.Bool("weapon", s.IsWeapon()))
	return true
}

// Item returns a registered item type by handle.
func (c *Context) Item(h bridge.Handle) (*ItemType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.items[h]
	return i, ok
}

// ItemByID returns a registered item type by identifier.
func (c *Context) ItemByID(id bridge.Identifier) (*ItemType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.itemIDs[id]
	if !ok {
		return nil, false
	}
	return c.items[h], true
}

// ── Entities ───────────────────────────────────────────────────────

// CreateEntity captures entity settings and returns the registration
// handle. Behavior configuration may be attached to the handle with
// SetEntityGoals / SetEntityTargetGoals until the register call consumes it.
func (c *Context) CreateEntity(s EntitySettings) bridge.Handle {
	h := c.alloc.Next()
	if err := c.pendingEntities.put(h, s); err != nil {
		c.log.Error("pending entity collision", zap.Int64("handle", int64(h)), zap.Error(err))
	}
	c.log.Debug("created entity settings",
		zap.Int64("handle", int64(h)), zap.String("archetype", s.Archetype.String()))
	return h
}

// SetEntityGoals attaches the main behavior list (a JSON array) to a
// created-but-unregistered entity handle. Passing the empty string is
// meaningful: it declares "no behavior at all", distinct from never calling
// this, which leaves the archetype's default set in place.
func (c *Context) SetEntityGoals(h bridge.Handle, goalsJSON string) {
	c.goalMu.Lock()
	c.attachedGoals[h] = &goalsJSON
	c.goalMu.Unlock()
}

// SetEntityTargetGoals attaches the targeting behavior list.
func (c *Context) SetEntityTargetGoals(h bridge.Handle, goalsJSON string) {
	c.goalMu.Lock()
	c.attachedTargets[h] = &goalsJSON
	c.goalMu.Unlock()
}

// RegisterEntity consumes pending settings plus any attached behavior
// configuration and installs the entity type.
func (c *Context) RegisterEntity(h bridge.Handle, namespace, path string) bool {
	id, ok := c.registrable(h, namespace, path, "entity")
	if !ok {
		return false
	}
	s, err := c.pendingEntities.take(h)
	if err != nil {
		c.log.Error("cannot register entity: no pending settings",
			zap.Int64("handle", int64(h)), zap.String("id", id.String()))
		return false
	}
	c.goalMu.Lock()
	goals := c.attachedGoals[h]
	targets := c.attachedTargets[h]
	delete(c.attachedGoals, h)
	delete(c.attachedTargets, h)
	c.goalMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.entityIDs[id]; taken {
		c.log.Error("cannot register entity: identifier taken", zap.String("id", id.String()))
		return false
	}
	e := &EntityType{Handle: h, ID: id, Settings: s, Goals: goals, TargetGoals: targets}
	c.entities[h] = e
	c.entityIDs[id] = h
	c.log.Info("registered entity", zap.String("id", id.String()),
		zap.Int64("handle", int64(h)), zap.String("archetype", s.Archetype.String()))
	return true
}

// Entity returns a registered entity type by handle.
func (c *Context) Entity(h bridge.Handle) (*EntityType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[h]
	return e, ok
}

// EntityByID returns a registered entity type by identifier.
func (c *Context) EntityByID(id bridge.Identifier) (*EntityType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entityIDs[id]
	if !ok {
		return nil, false
	}
	return c.entities[h], true
}

// ── Containers ─────────────────────────────────────────────────────

// CreateContainer captures container settings and returns the handle.
func (c *Context) CreateContainer(s ContainerSettings) bridge.Handle {
	h := c.alloc.Next()
	if err := c.pendingContainers.put(h, s); err != nil {
		c.log.Error("pending container collision", zap.Int64("handle", int64(h)), zap.Error(err))
	}
	return h
}

// RegisterContainer consumes pending settings and installs the container
// type.
func (c *Context) RegisterContainer(h bridge.Handle, namespace, path string) bool {
	id, ok := c.registrable(h, namespace, path, "container")
	if !ok {
		return false
	}
	s, err := c.pendingContainers.take(h)
	if err != nil {
		c.log.Error("cannot register container: no pending settings",
			zap.Int64("handle", int64(h)), zap.String("id", id.String()))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.containerIDs[id]; taken {
		c.log.Error("cannot register container: identifier taken", zap.String("id", id.String()))
		return false
	}
	ct := &ContainerType{Handle: h, ID: id, Settings: s}
	c.containers[h] = ct
	c.containerIDs[id] = h
	c.log.Info("registered container", zap.String("id", id.String()),
		zap.String("block", s.BlockID), zap.Int("slots", s.InventorySize))
	return true
}

// Container returns a registered container type by handle.
func (c *Context) Container(h bridge.Handle) (*ContainerType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ct, ok := c.containers[h]
	return ct, ok
}

// ContainerForBlock finds the container bound to a block identifier.
func (c *Context) ContainerForBlock(blockID string) (*ContainerType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ct := range c.containers {
		if ct.Settings.BlockID == blockID {
			return ct, true
		}
	}
	return nil, false
}

// ── Custom goal definitions ────────────────────────────────────────

// CreateGoal captures a reusable custom-goal definition.
func (c *Context) CreateGoal(s GoalSettings) bridge.Handle {
	h := c.alloc.Next()
	if err := c.pendingGoals.put(h, s); err != nil {
		c.log.Error("pending goal collision", zap.Int64("handle", int64(h)), zap.Error(err))
	}
	return h
}

// RegisterGoal consumes pending settings and binds namespace:path as the
// goalId behavior descriptors reference.
func (c *Context) RegisterGoal(h bridge.Handle, namespace, path string) bool {
	id, ok := c.registrable(h, namespace, path, "goal")
	if !ok {
		return false
	}
	s, err := c.pendingGoals.take(h)
	if err != nil {
		c.log.Error("cannot register goal: no pending settings",
			zap.Int64("handle", int64(h)), zap.String("id", id.String()))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.goalIDs[id.String()]; taken {
		c.log.Error("cannot register goal: identifier taken", zap.String("id", id.String()))
		return false
	}
	def := &GoalDef{Handle: h, ID: id, Def: goal.Definition{
		Flags:     goal.ParseFlags(s.Flags),
		EveryTick: s.EveryTick,
	}}
	c.goals[h] = def
	c.goalIDs[id.String()] = def
	c.log.Info("registered custom goal", zap.String("id", id.String()))
	return true
}

// GoalDefinition implements goal.DefinitionSource for the behavior factory.
func (c *Context) GoalDefinition(goalID string) (goal.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.goalIDs[goalID]
	if !ok {
		return goal.Definition{}, false
	}
	return def.Def, true
}

// ── Shared checks ──────────────────────────────────────────────────

// registrable validates the common preconditions of every register call:
// registries still open and a well-formed identifier.
func (c *Context) registrable(h bridge.Handle, namespace, path, kind string) (bridge.Identifier, bool) {
	if c.Frozen() {
		c.log.Error("cannot register after registry freeze",
			zap.String("kind", kind), zap.Int64("handle", int64(h)),
			zap.String("id", namespace+":"+path))
		return bridge.Identifier{}, false
	}
	id, err := bridge.NewIdentifier(namespace, path)
	if err != nil {
		c.log.Error("cannot register: bad identifier",
			zap.String("kind", kind), zap.Int64("handle", int64(h)), zap.Error(err))
		return bridge.Identifier{}, false
	}
	return id, true
}

// PendingCounts reports how many create calls still await registration, per
// kind, for startup diagnostics.
func (c *Context) PendingCounts() (blocks, items, entities, containers, goals int) {
	return c.pendingBlocks.len(), c.pendingItems.len(), c.pendingEntities.len(),
		c.pendingContainers.len(), c.pendingGoals.len()
}
