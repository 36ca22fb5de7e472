package goal

import (
	"github.com/redforge/server/internal/dispatch"
)

// CustomGoal forwards all five lifecycle points across the runtime boundary
// through the dispatch table, keyed by the goal's string ID and the mob's
// identity. Flags and the every-tick setting come verbatim from the behavior
// descriptor, so the selector applies the same mutual exclusion it would to
// a built-in goal.
type CustomGoal struct {
	mob       Mob
	goalID    string
	table     *dispatch.Table
	flags     Flag
	everyTick bool
}

func NewCustomGoal(m Mob, goalID string, table *dispatch.Table, flags Flag, everyTick bool) *CustomGoal {
	return &CustomGoal{mob: m, goalID: goalID, table: table, flags: flags, everyTick: everyTick}
}

func (g *CustomGoal) CanUse() bool {
	return g.table.InvokeGoalCanUse(g.goalID, g.mob.ID())
}

func (g *CustomGoal) CanContinueToUse() bool {
	return g.table.InvokeGoalCanContinue(g.goalID, g.mob.ID())
}

func (g *CustomGoal) Start() {
	g.table.InvokeGoalStart(g.goalID, g.mob.ID())
}

func (g *CustomGoal) Tick() {
	g.table.InvokeGoalTick(g.goalID, g.mob.ID())
}

func (g *CustomGoal) Stop() {
	g.table.InvokeGoalStop(g.goalID, g.mob.ID())
}

func (g *CustomGoal) Flags() Flag                   { return g.flags }
func (g *CustomGoal) RequiresUpdateEveryTick() bool { return g.everyTick }

// GoalID returns the scripted goal key this delegate dispatches under.
func (g *CustomGoal) GoalID() string { return g.goalID }
