// Package content loads declarative content packs: YAML files that register
// blocks, items, entities, containers, and custom goal definitions without a
// script. Packs go through the same registration queue as the scripting
// isolate, so everything lands in one total order at flush time.
package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/redforge/server/internal/goal"
	"github.com/redforge/server/internal/proxy"
	"github.com/redforge/server/internal/state"
)

// Pack is one content pack file.
type Pack struct {
	Namespace  string           `yaml:"namespace"`
	Blocks     []BlockEntry     `yaml:"blocks"`
	Items      []ItemEntry      `yaml:"items"`
	Entities   []EntityEntry    `yaml:"entities"`
	Containers []ContainerEntry `yaml:"containers"`
	Goals      []GoalEntry      `yaml:"goals"`
}

// PropertyEntry declares one block state property.
type PropertyEntry struct {
	Type   string   `yaml:"type"` // bool | int | direction
	Name   string   `yaml:"name"`
	Min    int      `yaml:"min"`
	Max    int      `yaml:"max"`
	Values []string `yaml:"values"` // direction subset, default horizontal
}

type BlockEntry struct {
	Path         string          `yaml:"path"`
	Hardness     *float64        `yaml:"hardness"`
	Resistance   *float64        `yaml:"resistance"`
	RequiresTool bool            `yaml:"requires_tool"`
	Luminance    int             `yaml:"luminance"`
	Friction     *float64        `yaml:"friction"`
	SpeedFactor  *float64        `yaml:"speed_factor"`
	JumpFactor   *float64        `yaml:"jump_factor"`
	RandomTicks  bool            `yaml:"random_ticks"`
	Collidable   *bool           `yaml:"collidable"`
	Replaceable  bool            `yaml:"replaceable"`
	Burnable     bool            `yaml:"burnable"`
	Liquid       bool            `yaml:"liquid"`
	Properties   []PropertyEntry `yaml:"properties"`
	Defaults     []int           `yaml:"defaults"`
}

type ItemEntry struct {
	Path            string   `yaml:"path"`
	MaxStackSize    *int     `yaml:"max_stack_size"`
	MaxDamage       int      `yaml:"max_damage"`
	FireResistant   bool     `yaml:"fire_resistant"`
	AttackDamage    *float64 `yaml:"attack_damage"`
	AttackSpeed     *float64 `yaml:"attack_speed"`
	AttackKnockback *float64 `yaml:"attack_knockback"`
}

type EntityEntry struct {
	Path          string   `yaml:"path"`
	Width         *float64 `yaml:"width"`
	Height        *float64 `yaml:"height"`
	MaxHealth     *float64 `yaml:"max_health"`
	MovementSpeed *float64 `yaml:"movement_speed"`
	AttackDamage  *float64 `yaml:"attack_damage"`
	SpawnGroup    string   `yaml:"spawn_group"`
	Archetype     string   `yaml:"archetype"`
	BreedingItem  string   `yaml:"breeding_item"`
	TickCallback  bool     `yaml:"tick_callback"`

	// A nil list keeps the archetype's stock behavior; an explicit empty
	// list registers the type with no behavior at all.
	Goals       []map[string]any `yaml:"goals"`
	TargetGoals []map[string]any `yaml:"target_goals"`
}

type ContainerEntry struct {
	Path  string `yaml:"path"`
	Block string `yaml:"block"`
	Size  int    `yaml:"size"`
	Title string `yaml:"title"`
	Ticks bool   `yaml:"ticks"`
}

type GoalEntry struct {
	Path      string   `yaml:"path"`
	Flags     []string `yaml:"flags"`
	EveryTick *bool    `yaml:"every_tick"`
}

// Loader feeds content packs into the registration queue.
type Loader struct {
	queue *proxy.Queue
	ctx   *proxy.Context
	log   *zap.Logger
}

func NewLoader(queue *proxy.Queue, ctx *proxy.Context, log *zap.Logger) *Loader {
	return &Loader{queue: queue, ctx: ctx, log: log}
}

// LoadDir loads every .yml/.yaml pack in dir in lexical order. A missing
// directory is not an error; a malformed file is logged and skipped so one
// broken pack cannot block the rest.
func (l *Loader) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read content dir %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext == ".yml" || ext == ".yaml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		if err := l.LoadFile(f); err != nil {
			l.log.Error("skipping content pack", zap.String("file", f), zap.Error(err))
		}
	}
	return nil
}

// LoadFile parses one pack file and queues every well-formed entry.
// Malformed entries are logged and skipped.
func (l *Loader) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pack: %w", err)
	}
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse pack: %w", err)
	}
	if p.Namespace == "" {
		return fmt.Errorf("pack %s has no namespace", path)
	}
	queued := l.load(&p)
	l.log.Info("loaded content pack",
		zap.String("file", path), zap.String("namespace", p.Namespace), zap.Int("queued", queued))
	return nil
}

func (l *Loader) load(p *Pack) int {
	queued := 0
	for _, b := range p.Blocks {
		s, err := b.settings()
		if err != nil {
			l.log.Warn("skipping block entry",
				zap.String("path", b.Path), zap.Error(err))
			continue
		}
		l.queue.EnqueueBlock(s, p.Namespace, b.Path)
		queued++
	}
	for _, it := range p.Items {
		l.queue.EnqueueItem(it.settings(), p.Namespace, it.Path)
		queued++
	}
	for _, en := range p.Entities {
		s, err := en.settings()
		if err != nil {
			l.log.Warn("skipping entity entry",
				zap.String("path", en.Path), zap.Error(err))
			continue
		}
		h := l.queue.EnqueueEntity(s, p.Namespace, en.Path)
		if en.Goals != nil {
			if js, err := behaviorJSON(en.Goals); err == nil {
				l.ctx.SetEntityGoals(h, js)
			} else {
				l.log.Warn("bad goals list", zap.String("path", en.Path), zap.Error(err))
			}
		}
		if en.TargetGoals != nil {
			if js, err := behaviorJSON(en.TargetGoals); err == nil {
				l.ctx.SetEntityTargetGoals(h, js)
			} else {
				l.log.Warn("bad target goals list", zap.String("path", en.Path), zap.Error(err))
			}
		}
		queued++
	}
	for _, c := range p.Containers {
		l.queue.EnqueueContainer(proxy.ContainerSettings{
			BlockID:       c.Block,
			InventorySize: c.Size,
			Title:         c.Title,
			Ticks:         c.Ticks,
		}, p.Namespace, c.Path)
		queued++
	}
	for _, g := range p.Goals {
		everyTick := true
		if g.EveryTick != nil {
			everyTick = *g.EveryTick
		}
		l.queue.EnqueueGoal(proxy.GoalSettings{
			Flags:     g.Flags,
			EveryTick: everyTick,
		}, p.Namespace, g.Path)
		queued++
	}
	return queued
}

func (b *BlockEntry) settings() (proxy.BlockSettings, error) {
	s := proxy.DefaultBlockSettings()
	s.Hardness = floatOr(b.Hardness, s.Hardness)
	s.Resistance = floatOr(b.Resistance, s.Resistance)
	s.RequiresTool = b.RequiresTool
	s.Luminance = b.Luminance
	s.Friction = floatOr(b.Friction, s.Friction)
	s.SpeedFactor = floatOr(b.SpeedFactor, s.SpeedFactor)
	s.JumpFactor = floatOr(b.JumpFactor, s.JumpFactor)
	s.RandomTicks = b.RandomTicks
	s.Replaceable = b.Replaceable
	s.Burnable = b.Burnable
	s.Liquid = b.Liquid
	if b.Collidable != nil {
		s.Collidable = *b.Collidable
	}
	for _, pe := range b.Properties {
		p, err := pe.property()
		if err != nil {
			return s, err
		}
		s.Properties = append(s.Properties, p)
	}
	s.Defaults = b.Defaults
	return s, nil
}

func (p *PropertyEntry) property() (state.Property, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("property missing name")
	}
	switch p.Type {
	case "bool":
		return state.BoolProperty{PropName: p.Name}, nil
	case "int":
		if p.Max < p.Min {
			return nil, fmt.Errorf("property %q: max < min", p.Name)
		}
		return state.IntProperty{PropName: p.Name, Min: p.Min, Max: p.Max}, nil
	case "direction":
		allowed := state.HorizontalDirections()
		if len(p.Values) > 0 {
			allowed = allowed[:0]
			for _, name := range p.Values {
				d, err := state.ParseDirection(name)
				if err != nil {
					return nil, fmt.Errorf("property %q: %w", p.Name, err)
				}
				allowed = append(allowed, d)
			}
		}
		return state.DirectionProperty{PropName: p.Name, Allowed: allowed}, nil
	default:
		return nil, fmt.Errorf("property %q: unknown type %q", p.Name, p.Type)
	}
}

func (it *ItemEntry) settings() proxy.ItemSettings {
	s := proxy.DefaultItemSettings()
	if it.MaxStackSize != nil {
		s.MaxStackSize = *it.MaxStackSize
	}
	s.MaxDamage = it.MaxDamage
	s.FireResistant = it.FireResistant
	if it.AttackDamage != nil {
		s.AttackDamage = *it.AttackDamage
	}
	if it.AttackSpeed != nil {
		s.AttackSpeed = *it.AttackSpeed
	}
	if it.AttackKnockback != nil {
		s.AttackKnockback = *it.AttackKnockback
	}
	return s
}

func (en *EntityEntry) settings() (proxy.EntitySettings, error) {
	s := proxy.EntitySettings{
		Width:         floatOr(en.Width, 0.6),
		Height:        floatOr(en.Height, 1.8),
		MaxHealth:     floatOr(en.MaxHealth, 20),
		MovementSpeed: floatOr(en.MovementSpeed, 0.25),
		AttackDamage:  floatOr(en.AttackDamage, 2),
		BreedingItem:  en.BreedingItem,
		TickCallback:  en.TickCallback,
	}
	switch en.SpawnGroup {
	case "monster":
		s.SpawnGroup = proxy.SpawnMonster
	case "creature":
		s.SpawnGroup = proxy.SpawnCreature
	case "ambient":
		s.SpawnGroup = proxy.SpawnAmbient
	case "water_creature":
		s.SpawnGroup = proxy.SpawnWaterCreature
	case "", "misc":
		s.SpawnGroup = proxy.SpawnMisc
	default:
		return s, fmt.Errorf("unknown spawn group %q", en.SpawnGroup)
	}
	switch en.Archetype {
	case "", "pathfinder":
		s.Archetype = goal.ArchetypePathfinder
	case "monster":
		s.Archetype = goal.ArchetypeMonster
	case "animal":
		s.Archetype = goal.ArchetypeAnimal
	case "projectile":
		s.Archetype = goal.ArchetypeProjectile
	default:
		return s, fmt.Errorf("unknown archetype %q", en.Archetype)
	}
	return s, nil
}

// behaviorJSON turns a YAML descriptor list into the JSON array the behavior
// factory parses.
func behaviorJSON(entries []map[string]any) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func floatOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}
