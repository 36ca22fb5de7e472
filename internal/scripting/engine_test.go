package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/proxy"
)

type scriptEnv struct {
	ctx   *proxy.Context
	queue *proxy.Queue
	table *dispatch.Table
	eng   *Engine
}

// newScriptEnv writes the given source as scripts/core/init.lua in a temp
// dir and boots an engine on it.
func newScriptEnv(t *testing.T, source string) *scriptEnv {
	t.Helper()
	log := zap.NewNop()
	table := dispatch.NewTable(log)
	ctx := proxy.NewContext(log, table)
	queue := proxy.NewQueue(ctx, log)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "init.lua"), []byte(source), 0o644))

	eng, err := NewEngine(dir, ctx, queue, log)
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return &scriptEnv{ctx: ctx, queue: queue, table: table, eng: eng}
}

func TestEngineEmptyScriptsDir(t *testing.T) {
	log := zap.NewNop()
	table := dispatch.NewTable(log)
	ctx := proxy.NewContext(log, table)
	queue := proxy.NewQueue(ctx, log)

	eng, err := NewEngine(t.TempDir(), ctx, queue, log)
	require.NoError(t, err, "missing script subdirectories are not an error")
	eng.Close()
}

func TestEngineSyntaxErrorFailsLoad(t *testing.T) {
	log := zap.NewNop()
	table := dispatch.NewTable(log)
	ctx := proxy.NewContext(log, table)
	queue := proxy.NewQueue(ctx, log)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "bad.lua"), []byte("this is not lua ((("), 0o644))

	_, err := NewEngine(dir, ctx, queue, log)
	assert.Error(t, err)
}

func TestScriptRegistrationsLandAfterFlush(t *testing.T) {
	env := newScriptEnv(t, `
		local bridge = require("bridge")
		bridge.register_block("testns", "ore", {
			hardness = 3.0,
			properties = {
				{ type = "bool", name = "powered" },
				{ type = "int", name = "power", min = 0, max = 15 },
			},
			defaults = { 1, 5 },
		})
		bridge.register_item("testns", "blade", { attack_damage = 6.0 })
		bridge.register_goal("testns", "circle", { flags = { "move", "look" }, every_tick = false })
		bridge.register_entity("testns", "wolf", {
			archetype = "monster",
			max_health = 30,
			goals = {
				{ type = "float", priority = 0 },
				{ type = "custom", priority = 1, goalId = "testns:circle" },
			},
			target_goals = {},
		})
	`)

	assert.Equal(t, 4, env.queue.Len(), "registrations stay queued until the engine flushes")
	require.NoError(t, env.queue.FlushAll())

	b, ok := env.ctx.BlockByID(ident(t, "testns", "ore"))
	require.True(t, ok)
	assert.Equal(t, 3.0, b.Settings.Hardness)
	assert.Len(t, b.Settings.Properties, 2)
	assert.Equal(t, uint64(11), b.DefaultState())

	it, ok := env.ctx.ItemByID(ident(t, "testns", "blade"))
	require.True(t, ok)
	assert.True(t, it.Settings.IsWeapon())

	def, ok := env.ctx.GoalDefinition("testns:circle")
	require.True(t, ok)
	assert.False(t, def.EveryTick)

	e, ok := env.ctx.EntityByID(ident(t, "testns", "wolf"))
	require.True(t, ok)
	require.NotNil(t, e.Goals)
	assert.Contains(t, *e.Goals, "testns:circle")
	require.NotNil(t, e.TargetGoals)
	assert.Equal(t, "[]", *e.TargetGoals, "empty table means no targeting behavior")
}

func TestHandlerRoundTrip(t *testing.T) {
	env := newScriptEnv(t, `
		local bridge = require("bridge")
		bridge.on("block_break", function(handle, world, x, y, z, player)
			return player ~= 13
		end)
		bridge.on("block_use", function(handle, world, x, y, z, player, hand)
			return "consume"
		end)
		bridge.on("goal_can_use", function(goal_id, entity)
			return goal_id == "testns:circle"
		end)
	`)

	assert.True(t, env.table.InvokeBlockBreak(1, 1, 0, 0, 0, 7))
	assert.False(t, env.table.InvokeBlockBreak(1, 1, 0, 0, 0, 13))
	assert.Equal(t, dispatch.Consume, env.table.InvokeBlockUse(1, 1, 0, 0, 0, 7, dispatch.MainHand))
	assert.True(t, env.table.InvokeGoalCanUse("testns:circle", 1))
	assert.False(t, env.table.InvokeGoalCanUse("testns:other", 1))
}

func TestLuaErrorYieldsDefault(t *testing.T) {
	env := newScriptEnv(t, `
		local bridge = require("bridge")
		bridge.on("block_break", function() error("boom") end)
		bridge.on("item_use", function() error("boom") end)
		bridge.on("goal_can_use", function() error("boom") end)
	`)

	assert.True(t, env.table.InvokeBlockBreak(1, 1, 0, 0, 0, 7), "errored gate degrades to allow")
	assert.Equal(t, dispatch.Pass, env.table.InvokeItemUse(1, 1, 2, dispatch.MainHand))
	assert.False(t, env.table.InvokeGoalCanUse("ns:goal", 1), "errored goal check degrades to deny")
}

func TestUnknownEventKindRaises(t *testing.T) {
	log := zap.NewNop()
	table := dispatch.NewTable(log)
	ctx := proxy.NewContext(log, table)
	queue := proxy.NewQueue(ctx, log)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "core"), 0o755))
	src := `
		local bridge = require("bridge")
		bridge.on("block_polished", function() end)
	`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "init.lua"), []byte(src), 0o644))

	_, err := NewEngine(dir, ctx, queue, log)
	assert.Error(t, err)
}

func TestScriptedCommand(t *testing.T) {
	env := newScriptEnv(t, `
		local bridge = require("bridge")
		bridge.register_command("ember", "spawn wolves", {
			{ name = "count", type = "int" },
		}, 2, function(player, args)
			return args.count * 10 + player
		end)
	`)

	code, err := env.ctx.ExecuteCommand("ember 3", 4)
	require.NoError(t, err)
	assert.Equal(t, 34, code)

	_, err = env.ctx.ExecuteCommand("ember notanumber", 4)
	assert.Error(t, err)
}

func TestScriptSetGoalsByHandle(t *testing.T) {
	env := newScriptEnv(t, `
		local bridge = require("bridge")
		local h = bridge.register_entity("testns", "hopper", { archetype = "animal" })
		bridge.set_entity_goals(h, '[{"type":"panic","priority":1}]')
	`)

	require.NoError(t, env.queue.FlushAll())
	e, ok := env.ctx.EntityByID(ident(t, "testns", "hopper"))
	require.True(t, ok)
	require.NotNil(t, e.Goals)
	assert.Contains(t, *e.Goals, "panic")
	assert.Nil(t, e.TargetGoals, "never configured, archetype defaults apply")
}

func ident(t *testing.T, ns, path string) bridge.Identifier {
	t.Helper()
	id, err := bridge.NewIdentifier(ns, path)
	require.NoError(t, err)
	return id
}
