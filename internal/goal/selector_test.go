package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeGoal records lifecycle calls and answers CanUse/CanContinueToUse from
// settable fields.
type fakeGoal struct {
	name        string
	canUse      bool
	canContinue bool
	flags       Flag
	everyTick   bool

	events *[]string
	ticks  int
}

func (g *fakeGoal) CanUse() bool           { return g.canUse }
func (g *fakeGoal) CanContinueToUse() bool { return g.canContinue }
func (g *fakeGoal) Start()                 { *g.events = append(*g.events, g.name+":start") }
func (g *fakeGoal) Stop()                  { *g.events = append(*g.events, g.name+":stop") }
func (g *fakeGoal) Tick() {
	g.ticks++
	*g.events = append(*g.events, g.name+":tick")
}
func (g *fakeGoal) Flags() Flag                   { return g.flags }
func (g *fakeGoal) RequiresUpdateEveryTick() bool { return g.everyTick }

func newFakeGoal(name string, flags Flag, events *[]string) *fakeGoal {
	return &fakeGoal{name: name, canUse: true, canContinue: true, flags: flags, everyTick: true, events: events}
}

func TestSelectorStartsRunnableGoal(t *testing.T) {
	var events []string
	sel := NewSelector()
	g := newFakeGoal("a", FlagMove, &events)
	sel.Add(1, g)

	sel.Tick()
	assert.Equal(t, []string{"a:start", "a:tick"}, events)
	assert.True(t, sel.Running(0))
}

func TestSelectorFlagConflictBlocksLessImportant(t *testing.T) {
	var events []string
	sel := NewSelector()
	high := newFakeGoal("high", FlagMove, &events)
	low := newFakeGoal("low", FlagMove, &events)
	sel.Add(1, high)
	sel.Add(2, low)

	sel.Tick()
	assert.True(t, sel.Running(0))
	assert.False(t, sel.Running(1), "conflicting lower-importance goal must not start")
}

func TestSelectorDisjointFlagsRunTogether(t *testing.T) {
	var events []string
	sel := NewSelector()
	mover := newFakeGoal("mover", FlagMove, &events)
	looker := newFakeGoal("looker", FlagLook, &events)
	sel.Add(1, mover)
	sel.Add(2, looker)

	sel.Tick()
	assert.True(t, sel.Running(0))
	assert.True(t, sel.Running(1))
}

func TestSelectorPreemption(t *testing.T) {
	var events []string
	sel := NewSelector()
	high := newFakeGoal("high", FlagMove, &events)
	low := newFakeGoal("low", FlagMove, &events)
	high.canUse = false
	sel.Add(1, high)
	sel.Add(2, low)

	sel.Tick()
	assert.True(t, sel.Running(1))

	// The more important goal becomes runnable and evicts the running one.
	high.canUse = true
	events = events[:0]
	sel.Tick()
	assert.True(t, sel.Running(0))
	assert.False(t, sel.Running(1))
	assert.Equal(t, []string{"low:stop", "high:start", "high:tick"}, events)
}

func TestSelectorEqualPriorityConflictDoesNotPreempt(t *testing.T) {
	var events []string
	sel := NewSelector()
	first := newFakeGoal("first", FlagMove, &events)
	second := newFakeGoal("second", FlagMove, &events)
	second.canUse = false
	sel.Add(3, first)
	sel.Add(3, second)

	sel.Tick()
	assert.True(t, sel.Running(0))

	// Equal importance never steals flags from a running goal.
	second.canUse = true
	sel.Tick()
	assert.True(t, sel.Running(0))
	assert.False(t, sel.Running(1))
}

func TestSelectorStableTieOrder(t *testing.T) {
	var events []string
	sel := NewSelector()
	first := newFakeGoal("first", FlagMove, &events)
	second := newFakeGoal("second", FlagMove, &events)
	sel.Add(3, first)
	sel.Add(3, second)

	sel.Tick()
	// Insertion order wins the tie: "first" starts, "second" stays blocked.
	assert.True(t, sel.Running(0))
	assert.False(t, sel.Running(1))
	assert.Equal(t, []string{"first:start", "first:tick"}, events)
}

func TestSelectorStopsWhenCannotContinue(t *testing.T) {
	var events []string
	sel := NewSelector()
	g := newFakeGoal("a", FlagMove, &events)
	sel.Add(1, g)

	sel.Tick()
	g.canContinue = false
	g.canUse = false
	events = events[:0]
	sel.Tick()
	assert.False(t, sel.Running(0))
	assert.Equal(t, []string{"a:stop"}, events)
}

func TestSelectorEveryOtherTick(t *testing.T) {
	var events []string
	sel := NewSelector()
	lazy := newFakeGoal("lazy", FlagLook, &events)
	lazy.everyTick = false
	sel.Add(1, lazy)

	for i := 0; i < 6; i++ {
		sel.Tick()
	}
	// Ticks only on even selector ticks: 2, 4, 6.
	assert.Equal(t, 3, lazy.ticks)
}

func TestSelectorStopAll(t *testing.T) {
	var events []string
	sel := NewSelector()
	mover := newFakeGoal("mover", FlagMove, &events)
	looker := newFakeGoal("looker", FlagLook, &events)
	sel.Add(1, mover)
	sel.Add(2, looker)
	sel.Tick()

	events = events[:0]
	sel.StopAll()
	assert.ElementsMatch(t, []string{"mover:stop", "looker:stop"}, events)
	assert.False(t, sel.Running(0))
	assert.False(t, sel.Running(1))

	// Idempotent.
	sel.StopAll()
	assert.Len(t, events, 2)
}

func TestParseFlags(t *testing.T) {
	assert.Equal(t, FlagMove|FlagLook, ParseFlags([]string{"move", "look"}))
	assert.Equal(t, FlagJump, ParseFlags([]string{"JUMP"}))
	assert.Equal(t, Flag(0), ParseFlags([]string{"teleport"}), "unknown names ignored")
	assert.Equal(t, Flag(0), ParseFlags(nil))
}
