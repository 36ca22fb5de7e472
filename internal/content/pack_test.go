package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/proxy"
)

type loaderEnv struct {
	ctx    *proxy.Context
	queue  *proxy.Queue
	loader *Loader
	dir    string
}

func newLoaderEnv(t *testing.T) *loaderEnv {
	t.Helper()
	log := zap.NewNop()
	ctx := proxy.NewContext(log, dispatch.NewTable(log))
	queue := proxy.NewQueue(ctx, log)
	return &loaderEnv{
		ctx:    ctx,
		queue:  queue,
		loader: NewLoader(queue, ctx, log),
		dir:    t.TempDir(),
	}
}

func (env *loaderEnv) writePack(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, name), []byte(body), 0o644))
}

func packID(t *testing.T, ns, path string) bridge.Identifier {
	t.Helper()
	id, err := bridge.NewIdentifier(ns, path)
	require.NoError(t, err)
	return id
}

func TestLoadDirMissingIsNoop(t *testing.T) {
	env := newLoaderEnv(t)
	assert.NoError(t, env.loader.LoadDir(filepath.Join(env.dir, "nope")))
	assert.Equal(t, 0, env.queue.Len())
}

func TestLoadPackQueuesAllKinds(t *testing.T) {
	env := newLoaderEnv(t)
	env.writePack(t, "base.yml", `
namespace: testns
blocks:
  - path: ore
    hardness: 3.0
    random_ticks: true
    liquid: true
    properties:
      - { type: bool, name: powered }
      - { type: int, name: power, min: 0, max: 15 }
    defaults: [1, 5]
items:
  - path: blade
    attack_damage: 6.0
entities:
  - path: hopper
    archetype: animal
    max_health: 10
    goals:
      - { type: panic, priority: 1 }
    target_goals: []
containers:
  - path: chest
    block: testns:ore
    size: 27
    ticks: true
goals:
  - path: circle
    flags: [move, look]
    every_tick: false
`)

	require.NoError(t, env.loader.LoadDir(env.dir))
	assert.Equal(t, 5, env.queue.Len())
	require.NoError(t, env.queue.FlushAll())

	b, ok := env.ctx.BlockByID(packID(t, "testns", "ore"))
	require.True(t, ok)
	assert.Equal(t, 3.0, b.Settings.Hardness)
	assert.True(t, b.Settings.RandomTicks)
	assert.True(t, b.Settings.Liquid)
	assert.Equal(t, uint64(11), b.DefaultState())

	it, ok := env.ctx.ItemByID(packID(t, "testns", "blade"))
	require.True(t, ok)
	assert.True(t, it.Settings.IsWeapon())

	e, ok := env.ctx.EntityByID(packID(t, "testns", "hopper"))
	require.True(t, ok)
	assert.Equal(t, goal.ArchetypeAnimal, e.Settings.Archetype)
	assert.Equal(t, 10.0, e.Settings.MaxHealth)
	require.NotNil(t, e.Goals)
	assert.Contains(t, *e.Goals, "panic")
	require.NotNil(t, e.TargetGoals)
	assert.Equal(t, "[]", *e.TargetGoals)

	ct, ok := env.ctx.ContainerForBlock("testns:ore")
	require.True(t, ok)
	assert.Equal(t, 27, ct.Settings.InventorySize)
	assert.True(t, ct.Settings.Ticks)

	def, ok := env.ctx.GoalDefinition("testns:circle")
	require.True(t, ok)
	assert.Equal(t, goal.FlagMove|goal.FlagLook, def.Flags)
	assert.False(t, def.EveryTick)
}

func TestEntityWithoutGoalsKeepsDefaults(t *testing.T) {
	env := newLoaderEnv(t)
	env.writePack(t, "base.yml", `
namespace: testns
entities:
  - path: wolf
    archetype: monster
`)
	require.NoError(t, env.loader.LoadDir(env.dir))
	require.NoError(t, env.queue.FlushAll())

	e, ok := env.ctx.EntityByID(packID(t, "testns", "wolf"))
	require.True(t, ok)
	assert.Nil(t, e.Goals, "absent goals list keeps the archetype defaults")
	assert.Nil(t, e.TargetGoals)
}

func TestMalformedEntriesSkipped(t *testing.T) {
	env := newLoaderEnv(t)
	env.writePack(t, "base.yml", `
namespace: testns
blocks:
  - path: bad_prop
    properties:
      - { type: hexcolor, name: tint }
  - path: good
entities:
  - path: bad_arch
    archetype: demon
  - path: good_entity
`)
	require.NoError(t, env.loader.LoadDir(env.dir))
	assert.Equal(t, 2, env.queue.Len(), "bad entries dropped, good entries queued")
	require.NoError(t, env.queue.FlushAll())

	_, ok := env.ctx.BlockByID(packID(t, "testns", "good"))
	assert.True(t, ok)
	_, ok = env.ctx.EntityByID(packID(t, "testns", "good_entity"))
	assert.True(t, ok)
}

func TestBrokenPackDoesNotBlockOthers(t *testing.T) {
	env := newLoaderEnv(t)
	env.writePack(t, "a_broken.yml", "namespace: [not: valid\n")
	env.writePack(t, "b_nonamespace.yml", "blocks:\n  - path: orphan\n")
	env.writePack(t, "c_good.yml", "namespace: testns\nitems:\n  - path: cinder\n")

	require.NoError(t, env.loader.LoadDir(env.dir))
	require.NoError(t, env.queue.FlushAll())

	_, ok := env.ctx.ItemByID(packID(t, "testns", "cinder"))
	assert.True(t, ok)
}

func TestLoadFileErrors(t *testing.T) {
	env := newLoaderEnv(t)
	assert.Error(t, env.loader.LoadFile(filepath.Join(env.dir, "missing.yml")))

	env.writePack(t, "nons.yml", "items:\n  - path: x\n")
	assert.Error(t, env.loader.LoadFile(filepath.Join(env.dir, "nons.yml")))
}
