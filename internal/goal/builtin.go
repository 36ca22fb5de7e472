package goal

import (
	"math"
	"math/rand"
)

// FloatGoal keeps a mob from sinking: while in water it jumps.
type FloatGoal struct {
	mob Mob
}

func NewFloatGoal(m Mob) *FloatGoal { return &FloatGoal{mob: m} }

func (g *FloatGoal) CanUse() bool                  { return g.mob.IsInWater() }
func (g *FloatGoal) CanContinueToUse() bool        { return g.mob.IsInWater() }
func (g *FloatGoal) Start()                        {}
func (g *FloatGoal) Stop()                         {}
func (g *FloatGoal) Flags() Flag                   { return FlagJump }
func (g *FloatGoal) RequiresUpdateEveryTick() bool { return true }

func (g *FloatGoal) Tick() {
	if rand.Float64() < 0.8 {
		g.mob.Jump()
	}
}

// MeleeAttackGoal chases the mob's current target and hurts it in reach.
type MeleeAttackGoal struct {
	mob            Mob
	speed          float64
	followUnseen   bool
	attackCooldown int
}

const meleeReach = 2.0

func NewMeleeAttackGoal(m Mob, speed float64, followUnseen bool) *MeleeAttackGoal {
	return &MeleeAttackGoal{mob: m, speed: speed, followUnseen: followUnseen}
}

func (g *MeleeAttackGoal) CanUse() bool {
	t := g.mob.Target()
	return t != 0 && g.mob.IsAlive(t)
}

func (g *MeleeAttackGoal) CanContinueToUse() bool {
	t := g.mob.Target()
	if t == 0 || !g.mob.IsAlive(t) {
		return false
	}
	return g.followUnseen || g.mob.IsNavigating()
}

func (g *MeleeAttackGoal) Start() {
	g.attackCooldown = 0
	if x, y, z, ok := g.mob.EntityPos(g.mob.Target()); ok {
		g.mob.MoveTo(x, y, z, g.speed)
	}
}

func (g *MeleeAttackGoal) Tick() {
	t := g.mob.Target()
	if t == 0 {
		return
	}
	g.mob.LookAtEntity(t)
	if x, y, z, ok := g.mob.EntityPos(t); ok {
		g.mob.MoveTo(x, y, z, g.speed)
	}
	if g.attackCooldown > 0 {
		g.attackCooldown--
		return
	}
	if g.mob.DistanceTo(t) <= meleeReach {
		g.mob.DoHurtTarget(t)
		g.attackCooldown = 20
	}
}

func (g *MeleeAttackGoal) Stop() {
	g.mob.StopNavigation()
}

func (g *MeleeAttackGoal) Flags() Flag                   { return FlagMove | FlagLook }
func (g *MeleeAttackGoal) RequiresUpdateEveryTick() bool { return true }

// LeapAtTargetGoal makes a mid-range hop toward the target.
type LeapAtTargetGoal struct {
	mob Mob
	yd  float64
}

func NewLeapAtTargetGoal(m Mob, yd float64) *LeapAtTargetGoal {
	return &LeapAtTargetGoal{mob: m, yd: yd}
}

func (g *LeapAtTargetGoal) CanUse() bool {
	t := g.mob.Target()
	if t == 0 || !g.mob.IsAlive(t) {
		return false
	}
	d := g.mob.DistanceTo(t)
	return d >= 2 && d <= 4 && rand.Intn(5) == 0
}

func (g *LeapAtTargetGoal) CanContinueToUse() bool        { return false }
func (g *LeapAtTargetGoal) Start()                        { g.mob.Jump() }
func (g *LeapAtTargetGoal) Tick()                         {}
func (g *LeapAtTargetGoal) Stop()                         {}
func (g *LeapAtTargetGoal) Flags() Flag                   { return FlagMove | FlagJump }
func (g *LeapAtTargetGoal) RequiresUpdateEveryTick() bool { return false }

// RandomStrollGoal wanders to a random reachable position now and then.
type RandomStrollGoal struct {
	mob        Mob
	speed      float64
	avoidWater bool
	interval   int
	wantX      float64
	wantY      float64
	wantZ      float64
}

func NewRandomStrollGoal(m Mob, speed float64) *RandomStrollGoal {
	return &RandomStrollGoal{mob: m, speed: speed, interval: 120}
}

// NewWaterAvoidingRandomStrollGoal strolls but never picks a waterlogged
// destination.
func NewWaterAvoidingRandomStrollGoal(m Mob, speed float64) *RandomStrollGoal {
	return &RandomStrollGoal{mob: m, speed: speed, avoidWater: true, interval: 120}
}

func (g *RandomStrollGoal) CanUse() bool {
	if rand.Intn(g.interval) != 0 {
		return false
	}
	x, y, z, ok := g.mob.RandomReachablePos(10, g.avoidWater)
	if !ok {
		return false
	}
	g.wantX, g.wantY, g.wantZ = x, y, z
	return true
}

func (g *RandomStrollGoal) CanContinueToUse() bool        { return g.mob.IsNavigating() }
func (g *RandomStrollGoal) Start()                        { g.mob.MoveTo(g.wantX, g.wantY, g.wantZ, g.speed) }
func (g *RandomStrollGoal) Tick()                         {}
func (g *RandomStrollGoal) Stop()                         { g.mob.StopNavigation() }
func (g *RandomStrollGoal) Flags() Flag                   { return FlagMove }
func (g *RandomStrollGoal) RequiresUpdateEveryTick() bool { return false }

// LookAtPlayerGoal turns the mob's head toward a nearby player for a while.
type LookAtPlayerGoal struct {
	mob      Mob
	distance float64
	player   int64
	lookTime int
}

func NewLookAtPlayerGoal(m Mob, distance float64) *LookAtPlayerGoal {
	return &LookAtPlayerGoal{mob: m, distance: distance}
}

func (g *LookAtPlayerGoal) CanUse() bool {
	if rand.Float64() >= 0.02 {
		return false
	}
	g.player = g.mob.NearestPlayer(g.distance)
	return g.player != 0
}

func (g *LookAtPlayerGoal) CanContinueToUse() bool {
	return g.lookTime > 0 && g.mob.IsAlive(g.player) && g.mob.DistanceTo(g.player) <= g.distance
}

func (g *LookAtPlayerGoal) Start() { g.lookTime = 40 + rand.Intn(40) }

func (g *LookAtPlayerGoal) Tick() {
	g.mob.LookAtEntity(g.player)
	g.lookTime--
}

func (g *LookAtPlayerGoal) Stop()                         { g.player = 0 }
func (g *LookAtPlayerGoal) Flags() Flag                   { return FlagLook }
func (g *LookAtPlayerGoal) RequiresUpdateEveryTick() bool { return false }

// RandomLookAroundGoal idly looks in a random direction.
type RandomLookAroundGoal struct {
	mob      Mob
	lookTime int
	dirX     float64
	dirZ     float64
}

func NewRandomLookAroundGoal(m Mob) *RandomLookAroundGoal {
	return &RandomLookAroundGoal{mob: m}
}

func (g *RandomLookAroundGoal) CanUse() bool           { return rand.Float64() < 0.02 }
func (g *RandomLookAroundGoal) CanContinueToUse() bool { return g.lookTime >= 0 }

func (g *RandomLookAroundGoal) Start() {
	g.lookTime = 20 + rand.Intn(20)
	angle := rand.Float64() * 2 * math.Pi
	g.dirX, g.dirZ = math.Cos(angle), math.Sin(angle)
}

func (g *RandomLookAroundGoal) Tick() {
	g.lookTime--
	x, y, z := g.mob.Pos()
	g.mob.LookAt(x+g.dirX, y, z+g.dirZ)
}

func (g *RandomLookAroundGoal) Stop()                         {}
func (g *RandomLookAroundGoal) Flags() Flag                   { return FlagMove | FlagLook }
func (g *RandomLookAroundGoal) RequiresUpdateEveryTick() bool { return false }

// PanicGoal runs away after being hurt.
type PanicGoal struct {
	mob   Mob
	speed float64
}

func NewPanicGoal(m Mob, speed float64) *PanicGoal {
	return &PanicGoal{mob: m, speed: speed}
}

func (g *PanicGoal) CanUse() bool           { return g.mob.LastAttacker() != 0 }
func (g *PanicGoal) CanContinueToUse() bool { return g.mob.IsNavigating() }

func (g *PanicGoal) Start() {
	if x, y, z, ok := g.mob.RandomReachablePos(8, true); ok {
		g.mob.MoveTo(x, y, z, g.speed)
	}
}

func (g *PanicGoal) Tick()                         {}
func (g *PanicGoal) Stop()                         { g.mob.StopNavigation() }
func (g *PanicGoal) Flags() Flag                   { return FlagMove }
func (g *PanicGoal) RequiresUpdateEveryTick() bool { return true }

// BreedGoal walks to a partner in love and produces offspring.
type BreedGoal struct {
	mob     Mob
	speed   float64
	partner int64
}

func NewBreedGoal(m Mob, speed float64) *BreedGoal {
	return &BreedGoal{mob: m, speed: speed}
}

func (g *BreedGoal) CanUse() bool {
	if !g.mob.InLove() {
		return false
	}
	g.partner = g.mob.FindBreedPartner()
	return g.partner != 0
}

func (g *BreedGoal) CanContinueToUse() bool {
	return g.partner != 0 && g.mob.IsAlive(g.partner) && g.mob.InLove()
}

func (g *BreedGoal) Start() {}

func (g *BreedGoal) Tick() {
	g.mob.LookAtEntity(g.partner)
	if x, y, z, ok := g.mob.EntityPos(g.partner); ok {
		g.mob.MoveTo(x, y, z, g.speed)
	}
	if g.mob.DistanceTo(g.partner) <= 2 {
		g.mob.Breed(g.partner)
		g.partner = 0
	}
}

func (g *BreedGoal) Stop()                         { g.partner = 0 }
func (g *BreedGoal) Flags() Flag                   { return FlagMove | FlagLook }
func (g *BreedGoal) RequiresUpdateEveryTick() bool { return false }

// TemptGoal follows a player holding the tempt item.
type TemptGoal struct {
	mob      Mob
	speed    float64
	itemID   string
	canScare bool
	player   int64
}

func NewTemptGoal(m Mob, speed float64, itemID string, canScare bool) *TemptGoal {
	return &TemptGoal{mob: m, speed: speed, itemID: itemID, canScare: canScare}
}

const temptRange = 10.0

func (g *TemptGoal) CanUse() bool {
	g.player = g.mob.PlayerHolding(g.itemID, temptRange)
	return g.player != 0
}

func (g *TemptGoal) CanContinueToUse() bool {
	if g.player == 0 || !g.mob.IsAlive(g.player) {
		return false
	}
	if g.canScare && g.mob.DistanceTo(g.player) < 1.5 {
		return false
	}
	return g.mob.PlayerHolding(g.itemID, temptRange) == g.player
}

func (g *TemptGoal) Start() {}

func (g *TemptGoal) Tick() {
	g.mob.LookAtEntity(g.player)
	if g.mob.DistanceTo(g.player) > 2.5 {
		if x, y, z, ok := g.mob.EntityPos(g.player); ok {
			g.mob.MoveTo(x, y, z, g.speed)
		}
	}
}

func (g *TemptGoal) Stop() {
	g.player = 0
	g.mob.StopNavigation()
}

func (g *TemptGoal) Flags() Flag                   { return FlagMove | FlagLook }
func (g *TemptGoal) RequiresUpdateEveryTick() bool { return false }

// FollowParentGoal keeps a baby animal near its parent.
type FollowParentGoal struct {
	mob   Mob
	speed float64
}

func NewFollowParentGoal(m Mob, speed float64) *FollowParentGoal {
	return &FollowParentGoal{mob: m, speed: speed}
}

func (g *FollowParentGoal) CanUse() bool {
	p := g.mob.ParentID()
	return p != 0 && g.mob.DistanceTo(p) > 3
}

func (g *FollowParentGoal) CanContinueToUse() bool {
	p := g.mob.ParentID()
	return p != 0 && g.mob.IsAlive(p) && g.mob.DistanceTo(p) > 2
}

func (g *FollowParentGoal) Start() {}

func (g *FollowParentGoal) Tick() {
	if x, y, z, ok := g.mob.EntityPos(g.mob.ParentID()); ok {
		g.mob.MoveTo(x, y, z, g.speed)
	}
}

func (g *FollowParentGoal) Stop()                         { g.mob.StopNavigation() }
func (g *FollowParentGoal) Flags() Flag                   { return FlagMove }
func (g *FollowParentGoal) RequiresUpdateEveryTick() bool { return false }

// NearestAttackableTargetGoal acquires the closest player as attack target.
type NearestAttackableTargetGoal struct {
	mob     Mob
	mustSee bool
}

const targetFollowRange = 16.0

func NewNearestAttackableTargetGoal(m Mob, mustSee bool) *NearestAttackableTargetGoal {
	return &NearestAttackableTargetGoal{mob: m, mustSee: mustSee}
}

func (g *NearestAttackableTargetGoal) CanUse() bool {
	return g.mob.NearestPlayer(targetFollowRange) != 0
}

func (g *NearestAttackableTargetGoal) CanContinueToUse() bool {
	t := g.mob.Target()
	return t != 0 && g.mob.IsAlive(t) && g.mob.DistanceTo(t) <= targetFollowRange*1.5
}

func (g *NearestAttackableTargetGoal) Start() {
	g.mob.SetTarget(g.mob.NearestPlayer(targetFollowRange))
}

func (g *NearestAttackableTargetGoal) Tick()                         {}
func (g *NearestAttackableTargetGoal) Stop()                         { g.mob.SetTarget(0) }
func (g *NearestAttackableTargetGoal) Flags() Flag                   { return FlagTarget }
func (g *NearestAttackableTargetGoal) RequiresUpdateEveryTick() bool { return false }

// HurtByTargetGoal retaliates against whatever hurt the mob last.
type HurtByTargetGoal struct {
	mob         Mob
	alertOthers bool
	lastSeen    int64
}

func NewHurtByTargetGoal(m Mob, alertOthers bool) *HurtByTargetGoal {
	return &HurtByTargetGoal{mob: m, alertOthers: alertOthers}
}

func (g *HurtByTargetGoal) CanUse() bool {
	a := g.mob.LastAttacker()
	return a != 0 && a != g.lastSeen && g.mob.IsAlive(a)
}

func (g *HurtByTargetGoal) CanContinueToUse() bool {
	t := g.mob.Target()
	return t != 0 && g.mob.IsAlive(t)
}

func (g *HurtByTargetGoal) Start() {
	g.lastSeen = g.mob.LastAttacker()
	g.mob.SetTarget(g.lastSeen)
}

func (g *HurtByTargetGoal) Tick()                         {}
func (g *HurtByTargetGoal) Stop()                         { g.mob.SetTarget(0) }
func (g *HurtByTargetGoal) Flags() Flag                   { return FlagTarget }
func (g *HurtByTargetGoal) RequiresUpdateEveryTick() bool { return false }
