package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
)

func newTestTable() *Table {
	return NewTable(zap.NewNop())
}

func TestDefaultsWithoutHandlers(t *testing.T) {
	tbl := newTestTable()

	// Gate kinds default to allow.
	assert.True(t, tbl.InvokeBlockBreak(1, 1, 0, 0, 0, 2))
	assert.True(t, tbl.InvokeEntityDamage(1, 2, "fall", 3))
	assert.True(t, tbl.InvokeItemAttackEntity(1, 1, 2, 3))

	// Use-style kinds default to Pass.
	assert.Equal(t, Pass, tbl.InvokeBlockUse(1, 1, 0, 0, 0, 2, MainHand))
	assert.Equal(t, Pass, tbl.InvokeItemUse(1, 1, 2, MainHand))
	assert.Equal(t, Pass, tbl.InvokeItemUseOnBlock(1, 1, 0, 0, 0, 2, OffHand))
	assert.Equal(t, Pass, tbl.InvokeItemUseOnEntity(1, 1, 2, 3, MainHand))

	// Custom goal activation defaults to deny.
	assert.False(t, tbl.InvokeGoalCanUse("ns:goal", 1))
	assert.False(t, tbl.InvokeGoalCanContinue("ns:goal", 1))

	// Notify kinds are no-ops; just make sure they don't blow up.
	tbl.InvokeEntitySpawn(1, 2, 3)
	tbl.InvokeBlockRemoved(1, 1, 0, 0, 0)
	tbl.InvokeGoalTick("ns:goal", 1)
	assert.Equal(t, 0, tbl.InvokeCommandExecute(1, 2, "{}"))
}

func TestInstalledHandlerIsInvoked(t *testing.T) {
	tbl := newTestTable()

	var got struct {
		h        bridge.Handle
		worldID  int64
		x, y, z  int
		playerID int64
	}
	tbl.InstallBlockBreak(func(h bridge.Handle, worldID int64, x, y, z int, playerID int64) bool {
		got.h, got.worldID, got.x, got.y, got.z, got.playerID = h, worldID, x, y, z, playerID
		return false
	})

	assert.False(t, tbl.InvokeBlockBreak(7, 1, 10, 64, -3, 99))
	assert.Equal(t, bridge.Handle(7), got.h)
	assert.Equal(t, int64(1), got.worldID)
	assert.Equal(t, []int{10, 64, -3}, []int{got.x, got.y, got.z})
	assert.Equal(t, int64(99), got.playerID)
}

func TestInstallReplacesHandler(t *testing.T) {
	tbl := newTestTable()

	tbl.InstallItemUse(func(bridge.Handle, int64, int64, Hand) ActionResult { return Fail })
	assert.Equal(t, Fail, tbl.InvokeItemUse(1, 1, 2, MainHand))

	tbl.InstallItemUse(func(bridge.Handle, int64, int64, Hand) ActionResult { return Consume })
	assert.Equal(t, Consume, tbl.InvokeItemUse(1, 1, 2, MainHand))
}

func TestPanicFallsBackToDefault(t *testing.T) {
	tbl := newTestTable()

	tbl.InstallBlockBreak(func(bridge.Handle, int64, int, int, int, int64) bool {
		panic("handler bug")
	})
	assert.True(t, tbl.InvokeBlockBreak(1, 1, 0, 0, 0, 2), "panicking gate falls back to allow")

	tbl.InstallBlockUse(func(bridge.Handle, int64, int, int, int, int64, Hand) ActionResult {
		panic("handler bug")
	})
	assert.Equal(t, Pass, tbl.InvokeBlockUse(1, 1, 0, 0, 0, 2, MainHand))

	tbl.InstallGoalCanUse(func(string, int64) bool { panic("handler bug") })
	assert.False(t, tbl.InvokeGoalCanUse("ns:goal", 1))

	tbl.InstallEntityTick(func(bridge.Handle, int64) { panic("handler bug") })
	assert.NotPanics(t, func() { tbl.InvokeEntityTick(1, 2) })
}

func TestGoalHandlersKeyedByID(t *testing.T) {
	tbl := newTestTable()

	tbl.InstallGoalCanUse(func(goalID string, entityID int64) bool {
		return goalID == "redforge:circle_prey"
	})
	assert.True(t, tbl.InvokeGoalCanUse("redforge:circle_prey", 1))
	assert.False(t, tbl.InvokeGoalCanUse("redforge:other", 1))

	var order []string
	tbl.InstallGoalStart(func(goalID string, _ int64) { order = append(order, "start:"+goalID) })
	tbl.InstallGoalTick(func(goalID string, _ int64) { order = append(order, "tick:"+goalID) })
	tbl.InstallGoalStop(func(goalID string, _ int64) { order = append(order, "stop:"+goalID) })

	tbl.InvokeGoalStart("a:b", 1)
	tbl.InvokeGoalTick("a:b", 1)
	tbl.InvokeGoalStop("a:b", 1)
	assert.Equal(t, []string{"start:a:b", "tick:a:b", "stop:a:b"}, order)
}

func TestCommandExecute(t *testing.T) {
	tbl := newTestTable()
	tbl.InstallCommandExecute(func(h bridge.Handle, playerID int64, argsJSON string) int {
		if argsJSON == `{"count":3}` {
			return 3
		}
		return -1
	})
	assert.Equal(t, 3, tbl.InvokeCommandExecute(5, 1, `{"count":3}`))
	assert.Equal(t, -1, tbl.InvokeCommandExecute(5, 1, `{}`))
}
