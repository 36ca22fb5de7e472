package scripting

import (
	"encoding/json"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/proxy"
	"github.com/redforge/server/internal/state"
)

// bridgeLoader builds the `bridge` Lua module. Registration functions queue
// work for the engine's pre-freeze flush; `on` installs event handlers into
// the dispatch table.
func (e *Engine) bridgeLoader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"register_block":          e.luaRegisterBlock,
		"register_item":           e.luaRegisterItem,
		"register_entity":         e.luaRegisterEntity,
		"register_container":      e.luaRegisterContainer,
		"register_goal":           e.luaRegisterGoal,
		"register_command":        e.luaRegisterCommand,
		"set_entity_goals":        e.luaSetEntityGoals,
		"set_entity_target_goals": e.luaSetEntityTargetGoals,
		"on":                      e.luaOn,
		"log":                     e.luaLog,
	})
	L.Push(mod)
	return 1
}

// ── Registration ───────────────────────────────────────────────────

// bridge.register_block(namespace, path, settings) -> handle
func (e *Engine) luaRegisterBlock(L *lua.LState) int {
	ns, path := L.CheckString(1), L.CheckString(2)
	t := L.OptTable(3, L.NewTable())

	s := proxy.DefaultBlockSettings()
	s.Hardness = tblFloat(t, "hardness", s.Hardness)
	s.Resistance = tblFloat(t, "resistance", s.Resistance)
	s.RequiresTool = tblBool(t, "requires_tool", false)
	s.Luminance = tblInt(t, "luminance", 0)
	s.Friction = tblFloat(t, "friction", s.Friction)
	s.SpeedFactor = tblFloat(t, "speed_factor", s.SpeedFactor)
	s.JumpFactor = tblFloat(t, "jump_factor", s.JumpFactor)
	s.RandomTicks = tblBool(t, "random_ticks", false)
	s.Collidable = tblBool(t, "collidable", s.Collidable)
	s.Replaceable = tblBool(t, "replaceable", false)
	s.Burnable = tblBool(t, "burnable", false)
	s.Liquid = tblBool(t, "liquid", false)

	props, defaults, err := parseProperties(t)
	if err != nil {
		L.RaiseError("register_block %s:%s: %v", ns, path, err)
		return 0
	}
	s.Properties = props
	s.Defaults = defaults

	h := e.queue.EnqueueBlock(s, ns, path)
	L.Push(lua.LNumber(h))
	return 1
}

// bridge.register_item(namespace, path, settings) -> handle
func (e *Engine) luaRegisterItem(L *lua.LState) int {
	ns, path := L.CheckString(1), L.CheckString(2)
	t := L.OptTable(3, L.NewTable())

	s := proxy.DefaultItemSettings()
	s.MaxStackSize = tblInt(t, "max_stack_size", s.MaxStackSize)
	s.MaxDamage = tblInt(t, "max_damage", 0)
	s.FireResistant = tblBool(t, "fire_resistant", false)
	s.AttackDamage = tblFloat(t, "attack_damage", math.NaN())
	s.AttackSpeed = tblFloat(t, "attack_speed", math.NaN())
	s.AttackKnockback = tblFloat(t, "attack_knockback", math.NaN())

	h := e.queue.EnqueueItem(s, ns, path)
	L.Push(lua.LNumber(h))
	return 1
}

// bridge.register_entity(namespace, path, settings) -> handle
//
// settings.goals / settings.target_goals, when present, attach behavior
// configuration to the handle before it is queued. An explicit empty list
// means "no behavior", distinct from omitting the field.
func (e *Engine) luaRegisterEntity(L *lua.LState) int {
	ns, path := L.CheckString(1), L.CheckString(2)
	t := L.OptTable(3, L.NewTable())

	s := proxy.EntitySettings{
		Width:         tblFloat(t, "width", 0.6),
		Height:        tblFloat(t, "height", 1.8),
		MaxHealth:     tblFloat(t, "max_health", 20),
		MovementSpeed: tblFloat(t, "movement_speed", 0.25),
		AttackDamage:  tblFloat(t, "attack_damage", 2),
		BreedingItem:  tblStr(t, "breeding_item", ""),
		TickCallback:  tblBool(t, "tick_callback", false),
	}
	s.SpawnGroup = parseSpawnGroup(tblStr(t, "spawn_group", "misc"))
	arch, err := parseArchetype(tblStr(t, "archetype", "pathfinder"))
	if err != nil {
		L.RaiseError("register_entity %s:%s: %v", ns, path, err)
		return 0
	}
	s.Archetype = arch

	h := e.queue.EnqueueEntity(s, ns, path)
	if gv := t.RawGetString("goals"); gv != lua.LNil {
		e.ctx.SetEntityGoals(h, behaviorJSON(gv))
	}
	if gv := t.RawGetString("target_goals"); gv != lua.LNil {
		e.ctx.SetEntityTargetGoals(h, behaviorJSON(gv))
	}
	L.Push(lua.LNumber(h))
	return 1
}

// bridge.register_container(namespace, path, settings) -> handle
func (e *Engine) luaRegisterContainer(L *lua.LState) int {
	ns, path := L.CheckString(1), L.CheckString(2)
	t := L.OptTable(3, L.NewTable())

	s := proxy.ContainerSettings{
		BlockID:       tblStr(t, "block", ""),
		InventorySize: tblInt(t, "size", 27),
		Title:         tblStr(t, "title", ""),
		Ticks:         tblBool(t, "ticks", false),
	}
	h := e.queue.EnqueueContainer(s, ns, path)
	L.Push(lua.LNumber(h))
	return 1
}

// bridge.register_goal(namespace, path, settings) -> handle
func (e *Engine) luaRegisterGoal(L *lua.LState) int {
	ns, path := L.CheckString(1), L.CheckString(2)
	t := L.OptTable(3, L.NewTable())

	s := proxy.GoalSettings{
		EveryTick: tblBool(t, "every_tick", true),
	}
	if fv, ok := t.RawGetString("flags").(*lua.LTable); ok {
		fv.ForEach(func(_, v lua.LValue) {
			s.Flags = append(s.Flags, lua.LVAsString(v))
		})
	}
	h := e.queue.EnqueueGoal(s, ns, path)
	L.Push(lua.LNumber(h))
	return 1
}

// bridge.register_command(name, description, args, permission, fn) -> handle
func (e *Engine) luaRegisterCommand(L *lua.LState) int {
	name := L.CheckString(1)
	description := L.OptString(2, "")
	argsTbl := L.OptTable(3, nil)
	permission := L.OptInt(4, 0)
	fn := L.CheckFunction(5)

	argsJSON := ""
	if argsTbl != nil {
		data, err := json.Marshal(luaToGo(argsTbl))
		if err != nil {
			L.RaiseError("register_command %s: %v", name, err)
			return 0
		}
		argsJSON = string(data)
	}
	h := e.ctx.RegisterCommand(name, description, argsJSON, permission)
	if h != 0 {
		e.commandFns[h] = fn
	}
	L.Push(lua.LNumber(h))
	return 1
}

// bridge.set_entity_goals(handle, goals)
func (e *Engine) luaSetEntityGoals(L *lua.LState) int {
	h := bridge.Handle(L.CheckInt64(1))
	e.ctx.SetEntityGoals(h, behaviorJSON(L.CheckAny(2)))
	return 0
}

// bridge.set_entity_target_goals(handle, goals)
func (e *Engine) luaSetEntityTargetGoals(L *lua.LState) int {
	h := bridge.Handle(L.CheckInt64(1))
	e.ctx.SetEntityTargetGoals(h, behaviorJSON(L.CheckAny(2)))
	return 0
}

// bridge.log(level, message)
func (e *Engine) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	switch level {
	case "debug":
		e.log.Debug(msg, zap.String("source", "lua"))
	case "warn":
		e.log.Warn(msg, zap.String("source", "lua"))
	case "error":
		e.log.Error(msg, zap.String("source", "lua"))
	default:
		e.log.Info(msg, zap.String("source", "lua"))
	}
	return 0
}

// ── Event handlers ─────────────────────────────────────────────────

// bridge.on(kind, fn) installs fn as the single handler for an event kind.
// Installing twice replaces the previous handler.
func (e *Engine) luaOn(L *lua.LState) int {
	kind := L.CheckString(1)
	fn := L.CheckFunction(2)

	switch kind {
	case "block_break":
		e.table.InstallBlockBreak(func(h bridge.Handle, worldID int64, x, y, z int, playerID int64) bool {
			return e.callBool(fn, kind, true,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(playerID))
		})
	case "block_use":
		e.table.InstallBlockUse(func(h bridge.Handle, worldID int64, x, y, z int, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
			return e.callAction(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(playerID), lua.LNumber(hand))
		})
	case "block_stepped_on":
		e.table.InstallBlockSteppedOn(func(h bridge.Handle, worldID int64, x, y, z int, entityID int64) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(entityID))
		})
	case "block_fallen_upon":
		e.table.InstallBlockFallenUpon(func(h bridge.Handle, worldID int64, x, y, z int, entityID int64, fallDistance float64) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(entityID), lua.LNumber(fallDistance))
		})
	case "block_random_tick":
		e.table.InstallBlockRandomTick(func(h bridge.Handle, worldID int64, x, y, z int) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z))
		})
	case "block_placed":
		e.table.InstallBlockPlaced(func(h bridge.Handle, worldID int64, x, y, z int, playerID int64) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(playerID))
		})
	case "block_removed":
		e.table.InstallBlockRemoved(func(h bridge.Handle, worldID int64, x, y, z int) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z))
		})
	case "block_neighbor_changed":
		e.table.InstallBlockNeighborChanged(func(h bridge.Handle, worldID int64, x, y, z, nx, ny, nz int) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z),
				lua.LNumber(nx), lua.LNumber(ny), lua.LNumber(nz))
		})
	case "block_entity_inside":
		e.table.InstallBlockEntityInside(func(h bridge.Handle, worldID int64, x, y, z int, entityID int64) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(entityID))
		})
	case "entity_spawn":
		e.table.InstallEntitySpawn(func(h bridge.Handle, entityID, worldID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(entityID), lua.LNumber(worldID))
		})
	case "entity_tick":
		e.table.InstallEntityTick(func(h bridge.Handle, entityID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(entityID))
		})
	case "entity_death":
		e.table.InstallEntityDeath(func(h bridge.Handle, entityID int64, source string) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(entityID), lua.LString(source))
		})
	case "entity_damage":
		e.table.InstallEntityDamage(func(h bridge.Handle, entityID int64, source string, amount float64) bool {
			return e.callBool(fn, kind, true,
				lua.LNumber(h), lua.LNumber(entityID), lua.LString(source), lua.LNumber(amount))
		})
	case "entity_attack":
		e.table.InstallEntityAttack(func(h bridge.Handle, entityID, targetID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(entityID), lua.LNumber(targetID))
		})
	case "entity_target":
		e.table.InstallEntityTarget(func(h bridge.Handle, entityID, targetID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(entityID), lua.LNumber(targetID))
		})
	case "animal_breed":
		e.table.InstallAnimalBreed(func(h bridge.Handle, parentID, partnerID, babyID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(parentID), lua.LNumber(partnerID), lua.LNumber(babyID))
		})
	case "item_use":
		e.table.InstallItemUse(func(h bridge.Handle, worldID, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
			return e.callAction(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(playerID), lua.LNumber(hand))
		})
	case "item_use_on_block":
		e.table.InstallItemUseOnBlock(func(h bridge.Handle, worldID int64, x, y, z int, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
			return e.callAction(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z), lua.LNumber(playerID), lua.LNumber(hand))
		})
	case "item_use_on_entity":
		e.table.InstallItemUseOnEntity(func(h bridge.Handle, worldID, entityID, playerID int64, hand dispatch.Hand) dispatch.ActionResult {
			return e.callAction(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(entityID), lua.LNumber(playerID), lua.LNumber(hand))
		})
	case "item_attack_entity":
		e.table.InstallItemAttackEntity(func(h bridge.Handle, worldID, attackerID, targetID int64) bool {
			return e.callBool(fn, kind, true,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(attackerID), lua.LNumber(targetID))
		})
	case "container_opened":
		e.table.InstallContainerOpened(func(h bridge.Handle, worldID, playerID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(playerID))
		})
	case "container_closed":
		e.table.InstallContainerClosed(func(h bridge.Handle, worldID, playerID int64) {
			e.callVoid(fn, kind, lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(playerID))
		})
	case "container_tick":
		e.table.InstallContainerTick(func(h bridge.Handle, worldID int64, x, y, z int) {
			e.callVoid(fn, kind,
				lua.LNumber(h), lua.LNumber(worldID), lua.LNumber(x), lua.LNumber(y), lua.LNumber(z))
		})
	case "goal_can_use":
		e.table.InstallGoalCanUse(func(goalID string, entityID int64) bool {
			return e.callBool(fn, kind, false, lua.LString(goalID), lua.LNumber(entityID))
		})
	case "goal_can_continue":
		e.table.InstallGoalCanContinue(func(goalID string, entityID int64) bool {
			return e.callBool(fn, kind, false, lua.LString(goalID), lua.LNumber(entityID))
		})
	case "goal_start":
		e.table.InstallGoalStart(func(goalID string, entityID int64) {
			e.callVoid(fn, kind, lua.LString(goalID), lua.LNumber(entityID))
		})
	case "goal_tick":
		e.table.InstallGoalTick(func(goalID string, entityID int64) {
			e.callVoid(fn, kind, lua.LString(goalID), lua.LNumber(entityID))
		})
	case "goal_stop":
		e.table.InstallGoalStop(func(goalID string, entityID int64) {
			e.callVoid(fn, kind, lua.LString(goalID), lua.LNumber(entityID))
		})
	default:
		L.RaiseError("unknown event kind %q", kind)
	}
	return 0
}

// ── Conversion helpers ─────────────────────────────────────────────

// parseProperties reads settings.properties (ordered array of property
// tables) and settings.defaults (one value index per property).
func parseProperties(t *lua.LTable) ([]state.Property, []int, error) {
	pv, ok := t.RawGetString("properties").(*lua.LTable)
	if !ok {
		return nil, nil, nil
	}
	var props []state.Property
	var perr error
	pv.ForEach(func(_, v lua.LValue) {
		if perr != nil {
			return
		}
		row, ok := v.(*lua.LTable)
		if !ok {
			perr = fmt.Errorf("property entry is not a table")
			return
		}
		name := tblStr(row, "name", "")
		if name == "" {
			perr = fmt.Errorf("property entry missing name")
			return
		}
		switch kind := tblStr(row, "type", ""); kind {
		case "bool":
			props = append(props, state.BoolProperty{PropName: name})
		case "int":
			props = append(props, state.IntProperty{
				PropName: name,
				Min:      tblInt(row, "min", 0),
				Max:      tblInt(row, "max", 0),
			})
		case "direction":
			allowed := state.HorizontalDirections()
			if lv, ok := row.RawGetString("values").(*lua.LTable); ok {
				allowed = allowed[:0]
				lv.ForEach(func(_, dv lua.LValue) {
					if perr != nil {
						return
					}
					d, err := state.ParseDirection(lua.LVAsString(dv))
					if err != nil {
						perr = fmt.Errorf("property %q: %w", name, err)
						return
					}
					allowed = append(allowed, d)
				})
			}
			props = append(props, state.DirectionProperty{PropName: name, Allowed: allowed})
		default:
			perr = fmt.Errorf("property %q: unknown type %q", name, kind)
		}
	})
	if perr != nil {
		return nil, nil, perr
	}

	var defaults []int
	if dv, ok := t.RawGetString("defaults").(*lua.LTable); ok {
		dv.ForEach(func(_, v lua.LValue) {
			defaults = append(defaults, int(lua.LVAsNumber(v)))
		})
	}
	return props, defaults, nil
}

func parseSpawnGroup(s string) proxy.SpawnGroup {
	switch s {
	case "monster":
		return proxy.SpawnMonster
	case "creature":
		return proxy.SpawnCreature
	case "ambient":
		return proxy.SpawnAmbient
	case "water_creature":
		return proxy.SpawnWaterCreature
	default:
		return proxy.SpawnMisc
	}
}

func parseArchetype(s string) (goal.Archetype, error) {
	switch s {
	case "pathfinder":
		return goal.ArchetypePathfinder, nil
	case "monster":
		return goal.ArchetypeMonster, nil
	case "animal":
		return goal.ArchetypeAnimal, nil
	case "projectile":
		return goal.ArchetypeProjectile, nil
	default:
		return 0, fmt.Errorf("unknown archetype %q", s)
	}
}

// behaviorJSON serializes a behavior configuration value. A Lua table becomes
// a JSON array of descriptor objects; a string passes through untouched so
// scripts may hand over pre-built JSON.
func behaviorJSON(v lua.LValue) string {
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		return ""
	}
	entries := make([]any, 0, t.MaxN())
	t.ForEach(func(_, row lua.LValue) {
		entries = append(entries, luaToGo(row))
	})
	data, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return string(data)
}

// luaToGo converts a Lua value into the shape encoding/json expects: tables
// with contiguous integer keys become slices, everything else becomes a map.
func luaToGo(v lua.LValue) any {
	switch lv := v.(type) {
	case lua.LBool:
		return bool(lv)
	case lua.LNumber:
		return float64(lv)
	case lua.LString:
		return string(lv)
	case *lua.LTable:
		if n := lv.MaxN(); n > 0 {
			arr := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, luaToGo(lv.RawGetInt(i)))
			}
			return arr
		}
		m := make(map[string]any)
		lv.ForEach(func(k, val lua.LValue) {
			m[lua.LVAsString(k)] = luaToGo(val)
		})
		return m
	default:
		return nil
	}
}

// jsonToLua decodes a JSON object into a Lua table.
func jsonToLua(L *lua.LState, data string) (lua.LValue, error) {
	if data == "" {
		return L.NewTable(), nil
	}
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return lua.LNil, err
	}
	return goToLua(L, v), nil
}

func goToLua(L *lua.LState, v any) lua.LValue {
	switch gv := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(gv)
	case float64:
		return lua.LNumber(gv)
	case string:
		return lua.LString(gv)
	case []any:
		t := L.NewTable()
		for i, item := range gv {
			t.RawSetInt(i+1, goToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range gv {
			t.RawSetString(k, goToLua(L, item))
		}
		return t
	default:
		return lua.LNil
	}
}

func tblFloat(t *lua.LTable, key string, def float64) float64 {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(v)
	}
	return def
}

func tblInt(t *lua.LTable, key string, def int) int {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(v)
	}
	return def
}

func tblBool(t *lua.LTable, key string, def bool) bool {
	if v, ok := t.RawGetString(key).(lua.LBool); ok {
		return bool(v)
	}
	return def
}

func tblStr(t *lua.LTable, key string, def string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return def
}
