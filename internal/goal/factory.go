package goal

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/redforge/server/internal/dispatch"
)

// Factory translates declarative behavior configuration — an ordered JSON
// array of descriptors — into goals installed on a mob's selectors.
// Malformed or unsupported entries are logged and skipped; the rest of the
// array still installs.
type Factory struct {
	log   *zap.Logger
	table *dispatch.Table
	defs  DefinitionSource // may be nil
}

func NewFactory(log *zap.Logger, table *dispatch.Table, defs DefinitionSource) *Factory {
	return &Factory{log: log, table: table, defs: defs}
}

// descriptor is the JSON wire format for one behavior entry. Kind-specific
// fields are pointers so absent values fall back to the kind's defaults.
type descriptor struct {
	Type                    string   `json:"type"`
	Priority                *int     `json:"priority"`
	SpeedModifier           *float64 `json:"speedModifier"`
	FollowEvenIfNotSeen     *bool    `json:"followEvenIfNotSeen"`
	Yd                      *float64 `json:"yd"`
	LookDistance            *float64 `json:"lookDistance"`
	TemptItem               string   `json:"temptItem"`
	CanScare                *bool    `json:"canScare"`
	TargetType              string   `json:"targetType"`
	MustSee                 *bool    `json:"mustSee"`
	AlertOthers             *bool    `json:"alertOthers"`
	GoalID                  string   `json:"goalId"`
	Flags                   []string `json:"flags"`
	RequiresUpdateEveryTick *bool    `json:"requiresUpdateEveryTick"`
}

// Populate installs main-ladder behaviors from goalsJSON onto sel.
// Returns the number of goals installed.
func (f *Factory) Populate(sel *Selector, m Mob, goalsJSON string) int {
	return f.populate(sel, m, goalsJSON, false)
}

// PopulateTargets installs targeting behaviors onto the target selector.
func (f *Factory) PopulateTargets(sel *Selector, m Mob, goalsJSON string) int {
	return f.populate(sel, m, goalsJSON, true)
}

func (f *Factory) populate(sel *Selector, m Mob, goalsJSON string, targeting bool) int {
	if goalsJSON == "" {
		return 0
	}
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(goalsJSON), &raw); err != nil {
		f.log.Error("behavior config is not a JSON array", zap.Error(err))
		return 0
	}
	installed := 0
	for i, entry := range raw {
		var d descriptor
		if err := json.Unmarshal(entry, &d); err != nil {
			f.log.Warn("skipping malformed behavior entry",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		if d.Priority == nil {
			f.log.Warn("skipping behavior entry without priority",
				zap.Int("index", i), zap.String("type", d.Type))
			continue
		}
		var g Goal
		if targeting {
			g = f.buildTargetGoal(m, &d)
		} else {
			g = f.buildGoal(m, &d)
		}
		if g == nil {
			continue
		}
		sel.Add(*d.Priority, g)
		installed++
	}
	return installed
}

func (f *Factory) buildGoal(m Mob, d *descriptor) Goal {
	switch d.Type {
	case "float":
		return NewFloatGoal(m)
	case "melee_attack":
		return NewMeleeAttackGoal(m, floatOr(d.SpeedModifier, 1.0), boolOr(d.FollowEvenIfNotSeen, true))
	case "leap_at_target":
		return NewLeapAtTargetGoal(m, floatOr(d.Yd, 0.4))
	case "random_stroll":
		return NewRandomStrollGoal(m, floatOr(d.SpeedModifier, 1.0))
	case "water_avoiding_random_stroll":
		return NewWaterAvoidingRandomStrollGoal(m, floatOr(d.SpeedModifier, 1.0))
	case "look_at_player":
		return NewLookAtPlayerGoal(m, floatOr(d.LookDistance, 8.0))
	case "random_look_around":
		return NewRandomLookAroundGoal(m)
	case "panic":
		return NewPanicGoal(m, floatOr(d.SpeedModifier, 1.5))
	case "breed":
		if !f.requireAnimal(m, d.Type) {
			return nil
		}
		return NewBreedGoal(m, floatOr(d.SpeedModifier, 1.0))
	case "tempt":
		if !f.requireAnimal(m, d.Type) {
			return nil
		}
		item := d.TemptItem
		if item == "" {
			item = "redforge:wheat"
		}
		return NewTemptGoal(m, floatOr(d.SpeedModifier, 1.0), item, boolOr(d.CanScare, false))
	case "follow_parent":
		if !f.requireAnimal(m, d.Type) {
			return nil
		}
		return NewFollowParentGoal(m, floatOr(d.SpeedModifier, 1.1))
	case "custom":
		return f.buildCustomGoal(m, d)
	default:
		f.log.Warn("unknown behavior kind", zap.String("type", d.Type))
		return nil
	}
}

func (f *Factory) buildTargetGoal(m Mob, d *descriptor) Goal {
	switch d.Type {
	case "nearest_attackable_target":
		// Players are the only resolvable target class.
		if d.TargetType != "" && d.TargetType != "player" {
			f.log.Warn("unknown target type", zap.String("targetType", d.TargetType))
			return nil
		}
		return NewNearestAttackableTargetGoal(m, boolOr(d.MustSee, true))
	case "hurt_by_target":
		return NewHurtByTargetGoal(m, boolOr(d.AlertOthers, true))
	case "custom":
		return f.buildCustomGoal(m, d)
	default:
		f.log.Warn("unknown targeting behavior kind", zap.String("type", d.Type))
		return nil
	}
}

func (f *Factory) buildCustomGoal(m Mob, d *descriptor) Goal {
	if d.GoalID == "" {
		f.log.Warn("custom behavior entry missing goalId")
		return nil
	}
	var def Definition
	var haveDef bool
	if f.defs != nil {
		def, haveDef = f.defs.GoalDefinition(d.GoalID)
	}
	flags := def.Flags
	if d.Flags != nil {
		flags = ParseFlags(d.Flags)
	}
	everyTick := true
	if haveDef {
		everyTick = def.EveryTick
	}
	if d.RequiresUpdateEveryTick != nil {
		everyTick = *d.RequiresUpdateEveryTick
	}
	return NewCustomGoal(m, d.GoalID, f.table, flags, everyTick)
}

func (f *Factory) requireAnimal(m Mob, kind string) bool {
	if m.Archetype() == ArchetypeAnimal {
		return true
	}
	f.log.Warn("behavior kind requires animal archetype",
		zap.String("type", kind), zap.String("archetype", m.Archetype().String()))
	return false
}

func floatOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}
