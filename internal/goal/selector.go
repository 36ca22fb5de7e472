package goal

import "sort"

type entry struct {
	priority int
	order    int // insertion order, breaks priority ties
	goal     Goal
	running  bool
}

// Selector runs a priority-ordered, flag-gated set of goals. Lower priority
// numbers are more important; ties keep insertion order. A goal may start
// only when every running goal it conflicts with is strictly less important,
// in which case the conflicting goal is stopped first.
//
// Each mob carries two selectors: the main behavior ladder and a separate
// target ladder, so targeting decisions run independently of movement.
type Selector struct {
	entries []*entry
	ticks   uint64
}

func NewSelector() *Selector {
	return &Selector{}
}

// Add inserts a goal at the given priority.
func (s *Selector) Add(priority int, g Goal) {
	s.entries = append(s.entries, &entry{priority: priority, order: len(s.entries), goal: g})
	sort.SliceStable(s.entries, func(i, j int) bool {
		if s.entries[i].priority != s.entries[j].priority {
			return s.entries[i].priority < s.entries[j].priority
		}
		return s.entries[i].order < s.entries[j].order
	})
}

// Len returns the number of installed goals.
func (s *Selector) Len() int {
	return len(s.entries)
}

// Tick advances the selector by one engine tick: stops goals that can no
// longer run, starts the most important runnable goals whose flags are
// free, and ticks everything running. Goals that did not ask for
// every-tick updates are only ticked every other engine tick.
func (s *Selector) Tick() {
	s.ticks++

	for _, e := range s.entries {
		if e.running && !e.goal.CanContinueToUse() {
			e.running = false
			e.goal.Stop()
		}
	}

	for _, e := range s.entries {
		if e.running || !e.goal.CanUse() {
			continue
		}
		blocked := false
		var preempted []*entry
		for _, o := range s.entries {
			if o == e || !o.running {
				continue
			}
			if o.goal.Flags()&e.goal.Flags() == 0 {
				continue
			}
			if o.priority <= e.priority {
				blocked = true
				break
			}
			preempted = append(preempted, o)
		}
		if blocked {
			continue
		}
		for _, o := range preempted {
			o.running = false
			o.goal.Stop()
		}
		e.running = true
		e.goal.Start()
	}

	for _, e := range s.entries {
		if !e.running {
			continue
		}
		if e.goal.RequiresUpdateEveryTick() || s.ticks%2 == 0 {
			e.goal.Tick()
		}
	}
}

// StopAll stops every running goal, used when the mob despawns or dies.
func (s *Selector) StopAll() {
	for _, e := range s.entries {
		if e.running {
			e.running = false
			e.goal.Stop()
		}
	}
}

// Running reports whether the goal at the given position is active. Test
// hook; positions follow the sorted priority order.
func (s *Selector) Running(i int) bool {
	return s.entries[i].running
}
