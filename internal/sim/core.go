// Package sim implements component C11: the coordinator that owns every
// manager (fixed-point/RNG primitives, physics world, hazards/obstacles,
// input, combat, player, wolves/packs, game-state, snapshot) and drives the
// single fixed-order per-frame update named in spec §5: input -> combat ->
// player abilities -> physics integrate+resolve -> wolves+packs ->
// game-state -> snapshot/checksum. This generalizes the teacher engine's
// internal/game.Engine.Update orchestration loop — one struct holding every
// subsystem, one exported Update(dt) entry point, an RWMutex guarding reads
// from a concurrent debug/render surface — to the simulation's manager set
// and fixed fraction-of-a-second timestep.
package sim

import (
	"sort"
	"sync"
	"time"

	"wolfpit/internal/sim/combat"
	"wolfpit/internal/sim/eventlog"
	"wolfpit/internal/sim/fixedpoint"
	"wolfpit/internal/sim/gamestate"
	"wolfpit/internal/sim/hazard"
	"wolfpit/internal/sim/input"
	"wolfpit/internal/sim/metrics"
	"wolfpit/internal/sim/physics"
	"wolfpit/internal/sim/player"
	"wolfpit/internal/sim/rng"
	"wolfpit/internal/sim/snapshot"
	"wolfpit/internal/sim/wolf"
)

// TickDt is the canonical fixed timestep (60Hz), matching the duration unit
// every package's canonical timings (spec §4.2) are expressed in.
var TickDt = fixedpoint.FromFloat(1.0 / 60.0)

const (
	MaxPlayers = 4
	MaxWolves  = 16
	MaxPacks   = 4

	// regenStaminaPerSec is the passive stamina regeneration rate applied
	// whenever a player isn't mid-action.
	regenStaminaPerSec = 0.35

	// playerRadius is the collision/hazard-check radius for every player
	// body, in normalized gameplay units.
	playerRadius = fixedpoint.Fixed(3277) // ~0.05
)

// Core is the simulation kernel's single aggregate root. A host process
// (cmd/simserver, or a rollback netcode peer) owns exactly one Core and
// drives it exclusively through this type's exported methods.
type Core struct {
	mu sync.RWMutex

	runSeed     uint64
	startWeapon uint32

	world     *physics.World
	gameState *gamestate.Manager
	hazards   *hazard.Table
	obstacles *hazard.Layout
	spawn     fixedpoint.Vec2

	players      map[uint32]*player.Player
	playerOrder  []uint32
	inputMgrs    map[uint32]*input.Manager
	pendingInput map[uint32]input.Record
	lastInput    map[uint32]input.Record

	wolves    map[uint32]*wolf.Wolf
	wolfOrder []uint32
	packs     map[uint32]*wolf.Pack
	packOrder []uint32

	lastChecksum uint64

	// events is an optional diagnostic sink; nil unless attached via
	// AttachEventLog, since replay/headless runs don't need one.
	events *eventlog.Log
}

// AttachEventLog wires a diagnostic event sink into the coordinator. Passing
// nil detaches it. Not required for correctness — only for observability.
func (c *Core) AttachEventLog(l *eventlog.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = l
}

// NewCore constructs a coordinator already initialized via InitRun(1, 0);
// callers call InitRun again to start a run with their own seed and weapon.
func NewCore() *Core {
	c := &Core{}
	c.InitRun(1, 0)
	return c
}

// InitRun initializes every manager, seeds the deterministic RNG streams,
// sets phase=Explore, frame=0, and places a single default player (id=1)
// at the arena spawn point — the external interface's documented effect
// for init_run. Additional human players for a multi-peer rollback session
// are registered afterward via AddPlayer.
func (c *Core) InitRun(seed uint64, startWeapon uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runSeed = seed
	c.startWeapon = startWeapon

	cfg := physics.DefaultConfig()
	c.world = physics.NewWorld(cfg)
	c.gameState = gamestate.NewManager()
	c.spawn = fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}

	stream := rng.NewStream(seed, 0, rng.ScopeHazard)
	c.obstacles = hazard.Generate(stream, 6, c.spawn, fixedpoint.FromFloat(0.15), fixedpoint.FromFloat(0.03), fixedpoint.FromFloat(0.08))
	for i, o := range c.obstacles.Obstacles() {
		bodyID := c.world.AllocateID()
		c.world.AddBody(physics.NewStaticBody(bodyID, o.Center, o.Radius))
		c.obstacles.Obstacles()[i].BodyID = bodyID
	}
	c.hazards = hazard.NewTable()

	c.players = make(map[uint32]*player.Player)
	c.inputMgrs = make(map[uint32]*input.Manager)
	c.pendingInput = make(map[uint32]input.Record)
	c.lastInput = make(map[uint32]input.Record)
	c.playerOrder = nil

	c.wolves = make(map[uint32]*wolf.Wolf)
	c.packs = make(map[uint32]*wolf.Pack)
	c.wolfOrder = nil
	c.packOrder = nil

	c.addPlayerLocked(1, player.Character(startWeapon%3), c.spawn)
	metrics.SetPlayerCount(len(c.players))
}

// ResetRun re-initializes the run while preserving the caller's config
// (the arena bounds/tuning carried in physics.Config, which InitRun always
// rebuilds to DefaultConfig — there is currently no run-scoped config
// surface beyond that, so ResetRun is InitRun with the given seed and the
// start weapon from the previous InitRun).
func (c *Core) ResetRun(seed uint64) {
	c.InitRun(seed, c.startWeapon)
}

// AddPlayer registers an additional player for a multi-peer session. The
// external interface's singular "player" accessors operate against
// whichever id the caller passes; this lets the same Core serve both a
// single-player host and a rollback-netcode peer group keyed by player id.
func (c *Core) AddPlayer(id uint32, character player.Character, pos fixedpoint.Vec2) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.players) >= MaxPlayers {
		return false
	}
	if _, exists := c.players[id]; exists {
		return false
	}
	c.addPlayerLocked(id, character, pos)
	metrics.SetPlayerCount(len(c.players))
	return true
}

// TryTransition attempts a game-state phase transition, per spec §4.7, and
// records the outcome for the debug/metrics surface.
func (c *Core) TryTransition(next gamestate.Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	ok := c.gameState.TryTransition(next, now)
	if ok {
		metrics.RecordPhaseTransition(phaseName(next))
	}
	return ok
}

func phaseName(p gamestate.Phase) string {
	switch p {
	case gamestate.Explore:
		return "explore"
	case gamestate.Fight:
		return "fight"
	case gamestate.Choose:
		return "choose"
	case gamestate.PowerUp:
		return "power_up"
	case gamestate.Risk:
		return "risk"
	case gamestate.Escalate:
		return "escalate"
	case gamestate.CashOut:
		return "cash_out"
	case gamestate.Reset:
		return "reset"
	case gamestate.GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

func (c *Core) addPlayerLocked(id uint32, character player.Character, pos fixedpoint.Vec2) {
	bodyID := c.world.AllocateID()
	c.world.AddBody(physics.NewDynamicBody(bodyID, c.denormalize(pos), playerRadius, fixedpoint.One))
	c.players[id] = player.NewPlayer(id, character, pos, bodyID)
	c.inputMgrs[id] = input.NewManager(int64(1000 / 60))
	c.playerOrder = append(c.playerOrder, id)
	sort.Slice(c.playerOrder, func(i, j int) bool { return c.playerOrder[i] < c.playerOrder[j] })
}

// denormalize maps a [0,1]^2 gameplay-space position into physics space
// using the world's configured bounds, the inverse of
// player.ReconcileWithBody's normalization.
func (c *Core) denormalize(pos fixedpoint.Vec2) fixedpoint.Vec2 {
	cfg := physics.DefaultConfig()
	span := fixedpoint.Vec2{X: cfg.MaxX.Sub(cfg.MinX), Y: cfg.MaxY.Sub(cfg.MinY)}
	return fixedpoint.Vec2{
		X: cfg.MinX.Add(pos.X.Mul(span.X)),
		Y: cfg.MinY.Add(pos.Y.Mul(span.Y)),
	}
}

// SpawnWolfPack creates a pack of n wolves (bounded to MaxPackMembers) at
// pos, registering a matching kinematic-free dynamic body per wolf for
// collision against players and obstacles.
func (c *Core) SpawnWolfPack(packID uint32, n int, pos fixedpoint.Vec2) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.packs[packID]; exists {
		return false
	}
	pack := wolf.NewPack(packID)
	for i := 0; i < n && i < wolf.MaxPackMembers && len(c.wolves) < MaxWolves; i++ {
		wolfID := uint32(len(c.wolves) + 1)
		bodyID := c.world.AllocateID()
		c.world.AddBody(physics.NewDynamicBody(bodyID, c.denormalize(pos), playerRadius, fixedpoint.One))
		w := wolf.NewWolf(wolfID, wolf.Normal, pos, bodyID)
		c.wolves[wolfID] = w
		c.wolfOrder = append(c.wolfOrder, wolfID)
		pack.AddMember(wolfID)
	}
	c.packs[packID] = pack
	c.packOrder = append(c.packOrder, packID)
	sort.Slice(c.wolfOrder, func(i, j int) bool { return c.wolfOrder[i] < c.wolfOrder[j] })
	sort.Slice(c.packOrder, func(i, j int) bool { return c.packOrder[i] < c.packOrder[j] })
	metrics.SetWolfCount(len(c.wolves))
	return true
}

// SpawnHazard places a hazard instance in world space (gameplay-normalized
// center, per AddPlayer/SpawnWolfPack convention), returning its assigned id
// and whether the bounded table had room. A full table is logged, not
// panicked, mirroring the rest of the kernel's bounded-collection posture.
func (c *Core) SpawnHazard(typ hazard.Type, pos fixedpoint.Vec2, radius, damage, cooldown, duration fixedpoint.Fixed) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.hazards.Add(typ, pos, radius, damage, cooldown, duration)
	if !ok {
		metrics.RecordDropped("hazards")
		if c.events != nil {
			c.events.Emit(eventlog.Event{
				Frame: c.gameState.FrameNumber,
				Type:  eventlog.HazardDropped,
			})
		}
		return 0, false
	}
	return rec.ID, true
}

// CreateExplosion registers a new expanding-radius area-impulse explosion
// (component C4 force propagation, spec scenario C's create_explosion) at
// pos, in gameplay-normalized world space per SpawnHazard/SpawnWolfPack's
// convention. It is stepped automatically inside World.Step each frame
// until CurrentRadius reaches maxRadius. Returns the explosion's id and
// whether the bounded registry had room.
func (c *Core) CreateExplosion(pos fixedpoint.Vec2, maxRadius, expansionSpeed, maxForce fixedpoint.Fixed) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := physics.NewExplosion(c.denormalize(pos), maxRadius, expansionSpeed, maxForce)
	return c.world.AddExplosion(e)
}

func planName(p wolf.PlanState) string {
	switch p {
	case wolf.PlanObserve:
		return "observe"
	case wolf.PlanCommit:
		return "commit"
	case wolf.PlanHarass:
		return "harass"
	case wolf.PlanRetreat:
		return "retreat"
	case wolf.PlanRegroup:
		return "regroup"
	default:
		return "unknown"
	}
}

// SetPlayerInput stores the next frame's input record for playerID, per
// spec §6's set_player_input contract. Values are clamped/normalized by
// input.NewRecordFromFloats. lightAttack/heavyAttack are the legacy
// 5-button fields, folded onto the authoritative 3-button leftHand/
// rightHand holds via the same mapping input.LegacyAdapter uses (Open
// Question decision: 3-button layout is authoritative, 5-button is
// additive).
func (c *Core) SetPlayerInput(playerID uint32, moveX, moveY float64, leftHand, rightHand, special, roll, jump, lightAttack, heavyAttack, block bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := input.NewRecordFromFloats(moveX, moveY, leftHand || lightAttack, rightHand || heavyAttack, special, jump, roll, block)
	c.pendingInput[playerID] = rec
}

// Update advances the simulation by exactly one frame of duration dt,
// running every manager in the fixed order from spec §5: input -> combat
// -> player abilities -> physics -> wolves+packs -> game-state. Checksum is
// computed separately via Checksum() rather than every Update, since a host
// that doesn't need per-frame verification shouldn't pay its cost.
func (c *Core) Update(dt fixedpoint.Fixed) {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateLocked(dt)
	metrics.RecordTick(time.Since(start))
}

func (c *Core) updateLocked(dt fixedpoint.Fixed) {
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)

	c.stepInputAndCombat(dt, now)
	c.stepPlayerAbilitiesAndMovement(dt, now)
	c.world.Step(dt)
	c.reconcilePlayersWithBodies()
	c.stepHazards(now)
	c.stepWolves(dt, now)

	c.gameState.AdvanceFrame()
}

func (c *Core) stepInputAndCombat(dt, now fixedpoint.Fixed) {
	currentTick := int64(c.gameState.FrameNumber)
	for _, id := range c.playerOrder {
		p := c.players[id]
		mgr := c.inputMgrs[id]

		rec, ok := c.pendingInput[id]
		if !ok {
			// Input prediction: replay the peer's last-known input, per
			// spec §4.8's advance_frame contract.
			rec = c.lastInput[id]
		}
		rec = mgr.Process(rec, currentTick)
		c.lastInput[id] = rec
		delete(c.pendingInput, id)

		if input.RollGesture(rec) || rec.RollRequest {
			dir := fixedpoint.Vec2{X: rec.MoveX, Y: rec.MoveY}
			if dir.LengthSq() == 0 {
				dir = p.Facing
			}
			p.Combat.TryStartRoll(dir, p.Stamina, now)
		} else if mgr.ConsumeBuffered(input.LightEdge, currentTick) {
			p.Combat.TryStartAttack(combat.Light, p.Stamina, now)
		} else if mgr.ConsumeBuffered(input.HeavyEdge, currentTick) {
			p.Combat.TryStartAttack(combat.Heavy, p.Stamina, now)
		} else if rec.SpecialEdge {
			c.triggerAbility(p, rec, now)
		}

		if rec.SpecialReleaseEdge {
			c.releaseAbility(p, now)
		}

		p.Combat.SetBlocking(rec.BlockRequest, p.Stamina, now, p.Facing)
		p.Combat.Update(dt, now)
	}
}

// triggerAbility dispatches the special-button press edge to whichever
// character ability FSM the player is running, per spec §4.3.
func (c *Core) triggerAbility(p *player.Player, rec input.Record, now fixedpoint.Fixed) {
	dir := fixedpoint.Vec2{X: rec.MoveX, Y: rec.MoveY}
	if dir.LengthSq() == 0 {
		dir = p.Facing
	}
	switch p.Character {
	case player.Warden:
		p.WardenStartCharge()
	case player.Raider:
		p.RaiderStartCharge(dir)
	case player.Kensei:
		p.KenseiDash(dir, now)
	}
}

// releaseAbility dispatches the special-button release edge; only the
// Warden's bash reacts to release (Raider's charge ends on timeout or
// explicit cancel, Kensei's dash is a single instant action), firing its
// one-shot hitbox once charge_level clears WardenMinCharge.
func (c *Core) releaseAbility(p *player.Player, now fixedpoint.Fixed) {
	if p.Character != player.Warden {
		return
	}
	charge, released := p.WardenRelease()
	if !released {
		return
	}
	c.applyWardenRelease(p, charge, now)
}

// Warden bash hitbox scaling (spec §4.3): radius, damage, and knockback
// impulse all scale linearly with WardenRelease's returned charge_level.
// The bash is an area shockwave rather than a directional swing, so it
// resolves with a zero FacingDot — blocking doesn't mitigate it.
var (
	wardenHitboxRadius = fixedpoint.FromFloat(0.12)
	wardenMaxDamage    = fixedpoint.FromFloat(0.35)
	wardenMaxImpulse   = fixedpoint.FromFloat(8.0)
)

// applyWardenRelease resolves the bash hitbox at the moment of release:
// every wolf and opposing player within the charge-scaled radius takes
// charge-scaled damage and a charge-scaled knockback impulse. Wolves are
// struck directly (mirroring stepHazards' own-state resolution); players
// are resolved through their own combat state so i-frames still gate the
// hit, respecting HandleIncomingAttack's ordered rules.
func (c *Core) applyWardenRelease(attacker *player.Player, charge fixedpoint.Fixed, now fixedpoint.Fixed) {
	radius := wardenHitboxRadius.Mul(charge)
	damage := wardenMaxDamage.Mul(charge)
	impulseMag := wardenMaxImpulse.Mul(charge)
	origin := attacker.Position

	for _, id := range c.wolfOrder {
		w := c.wolves[id]
		if origin.DistanceTo(w.Position) > radius {
			continue
		}
		w.ApplyHit(damage)
		if body := c.world.Body(w.BodyID()); body != nil {
			dir := c.denormalize(w.Position).Sub(c.denormalize(origin))
			if dir.LengthSq() > 0 {
				body.ApplyImpulse(dir.Normalized().Scale(impulseMag))
			}
		}
	}

	for _, id := range c.playerOrder {
		target := c.players[id]
		if target == attacker {
			continue
		}
		if origin.DistanceTo(target.Position) > radius {
			continue
		}
		dir := target.Position.Sub(origin)
		outcome := target.Combat.HandleIncomingAttack(combat.IncomingAttack{
			Dir:         dir,
			Damage:      damage,
			PoiseDamage: damage,
			InRange:     true,
			WeaponMult:  fixedpoint.One,
			AttackerMod: fixedpoint.One,
		}, now, 0, target.IsInvulnerable())
		target.HP = target.HP.Sub(outcome.Damage).Clamp(0, target.MaxHP)
		target.Stamina = target.Stamina.Sub(outcome.StaminaDrain).Clamp(0, target.MaxStamina)
		if outcome.StaminaRestore > 0 {
			target.Stamina = target.Stamina.Add(outcome.StaminaRestore).Clamp(0, target.MaxStamina)
		}
		if dir.LengthSq() > 0 {
			if body := c.world.Body(target.BodyID); body != nil {
				body.ApplyImpulse(dir.Normalized().Scale(impulseMag))
			}
		}
	}
}

func (c *Core) stepPlayerAbilitiesAndMovement(dt, now fixedpoint.Fixed) {
	for _, id := range c.playerOrder {
		p := c.players[id]

		switch p.Character {
		case player.Warden:
			p.WardenTickCharge(dt)
		case player.Raider:
			p.RaiderTick(dt)
		case player.Kensei:
			p.KenseiTick(dt)
		}

		rec := c.lastInput[id]
		inputDir := fixedpoint.Vec2{X: rec.MoveX, Y: rec.MoveY}
		mods := player.DefaultModifiers()
		if p.Combat.Blocking || p.Combat.IsBusy() {
			inputDir = fixedpoint.Vec2{}
		}
		p.Integrate(dt, inputDir, mods)

		if !p.Combat.Blocking && p.Combat.RollState == combat.RollNone {
			p.RegenStamina(dt, fixedpoint.FromFloat(regenStaminaPerSec))
		}

		if body := c.world.Body(p.BodyID); body != nil {
			body.Pos = c.denormalize(p.Position)
		}
	}

	for _, id := range c.wolfOrder {
		w := c.wolves[id]
		if body := c.world.Body(w.BodyID()); body != nil {
			body.Pos = c.denormalize(w.Position)
		}
	}
}

func (c *Core) reconcilePlayersWithBodies() {
	cfg := physics.DefaultConfig()
	for _, id := range c.playerOrder {
		p := c.players[id]
		body := c.world.Body(p.BodyID)
		if body == nil {
			continue
		}
		p.ReconcileWithBody(body.Pos, body.Vel, fixedpoint.Vec2{X: cfg.MinX, Y: cfg.MinY}, fixedpoint.Vec2{X: cfg.MaxX, Y: cfg.MaxY})
	}
	for _, id := range c.wolfOrder {
		w := c.wolves[id]
		body := c.world.Body(w.BodyID())
		if body == nil {
			continue
		}
		span := fixedpoint.Vec2{X: cfg.MaxX.Sub(cfg.MinX), Y: cfg.MaxY.Sub(cfg.MinY)}
		if span.X != 0 && span.Y != 0 {
			w.Position = fixedpoint.Vec2{
				X: body.Pos.X.Sub(cfg.MinX).Div(span.X),
				Y: body.Pos.Y.Sub(cfg.MinY).Div(span.Y),
			}
		}
	}
}

func (c *Core) stepHazards(now fixedpoint.Fixed) {
	records := c.hazards.Records()
	for _, id := range c.playerOrder {
		p := c.players[id]
		isRolling := p.Combat.RollState == combat.RollActive
		for i := range records {
			h := c.hazards.RecordAt(i)
			result := c.hazards.Evaluate(h, p.Position, now, isRolling)
			if !result.Triggered {
				continue
			}
			p.HP = p.HP.Sub(result.Damage).Clamp(0, p.MaxHP)
		}
	}
}

func (c *Core) stepWolves(dt, now fixedpoint.Fixed) {
	for _, packID := range c.packOrder {
		pack := c.packs[packID]
		members := c.packMembers(pack)

		target, hasTarget := c.nearestPlayer(pack)

		totalHP := fixedpoint.Zero
		for _, w := range members {
			p := wolf.Perception{}
			if hasTarget {
				p.PlayerVisible = true
				p.PlayerPos = target.Position
				p.DistanceToPlayer = w.Position.DistanceTo(target.Position)
			}
			p.PlanState = pack.Plan
			w.UpdatePerception(p, now)
			w.UpdateEmotion()
			w.UpdatePlan(p, dt)
			totalHP = totalHP.Add(w.HP)
		}

		avgHP := fixedpoint.Zero
		if len(members) > 0 {
			avgHP = totalHP.Div(fixedpoint.FromInt(len(members)))
		}
		prevPlan := pack.Plan
		pack.UpdatePlan(members, wolf.PlanInputs{AverageHealth: avgHP}, dt, now)
		if pack.Plan != prevPlan {
			metrics.RecordPackPlanTransition(planName(pack.Plan))
			if c.events != nil {
				c.events.Emit(eventlog.Event{
					Frame:    c.gameState.FrameNumber,
					Type:     eventlog.PackPlanTransition,
					SourceID: pack.ID,
					Payload:  planName(pack.Plan),
				})
			}
		}

		for _, v := range pack.Vocalizations() {
			for _, w := range members {
				if w.ID == v.WolfID {
					continue
				}
				if w.Position.DistanceTo(v.SourcePos) <= v.Range {
					wolf.React(w, v, now)
				}
			}
		}
		pack.ClearVocalizations()
	}
}

func (c *Core) packMembers(pack *wolf.Pack) []*wolf.Wolf {
	members := make([]*wolf.Wolf, 0, len(pack.MemberIDs))
	for _, id := range pack.MemberIDs {
		if w, ok := c.wolves[id]; ok {
			members = append(members, w)
		}
	}
	return members
}

// nearestPlayer returns the closest living player to a pack's first
// member, used as the pack's perception target. With a single player this
// is simply that player; with multiple peers the pack reacts to whichever
// is closest, consistent with a single shared wolf-pack antagonist.
func (c *Core) nearestPlayer(pack *wolf.Pack) (*player.Player, bool) {
	if len(pack.MemberIDs) == 0 || len(c.playerOrder) == 0 {
		return nil, false
	}
	anchor, ok := c.wolves[pack.MemberIDs[0]]
	if !ok {
		return nil, false
	}
	var best *player.Player
	var bestDist fixedpoint.Fixed
	for _, id := range c.playerOrder {
		p := c.players[id]
		if p.HP <= 0 {
			continue
		}
		d := anchor.Position.DistanceTo(p.Position)
		if best == nil || d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best, best != nil
}

// AdvanceFrame implements spec §4.8's advance_frame(inputs_per_player):
// apply each peer's input (if present) and run exactly one Update, relying
// on stepInputAndCombat's input-prediction fallback for any player id
// missing from inputs.
func (c *Core) AdvanceFrame(dt fixedpoint.Fixed, inputsPerPlayer map[uint32]input.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, rec := range inputsPerPlayer {
		c.pendingInput[id] = rec
	}
	c.updateLocked(dt)
}

// --- Readers (spec §6 "Readers" row) ---

func (c *Core) withPlayer(id uint32, fn func(p *player.Player)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.players[id]; ok {
		fn(p)
	}
}

func (c *Core) GetX(id uint32) float64 {
	var v float64
	c.withPlayer(id, func(p *player.Player) { v = p.Position.X.ToFloat() })
	return v
}

func (c *Core) GetY(id uint32) float64 {
	var v float64
	c.withPlayer(id, func(p *player.Player) { v = p.Position.Y.ToFloat() })
	return v
}

func (c *Core) GetVelX(id uint32) float64 {
	var v float64
	c.withPlayer(id, func(p *player.Player) { v = p.Velocity.X.ToFloat() })
	return v
}

func (c *Core) GetVelY(id uint32) float64 {
	var v float64
	c.withPlayer(id, func(p *player.Player) { v = p.Velocity.Y.ToFloat() })
	return v
}

func (c *Core) GetHP(id uint32) float64 {
	var v float64
	c.withPlayer(id, func(p *player.Player) { v = p.HP.ToFloat() })
	return v
}

func (c *Core) GetStamina(id uint32) float64 {
	var v float64
	c.withPlayer(id, func(p *player.Player) { v = p.Stamina.ToFloat() })
	return v
}

func (c *Core) GetPhase() gamestate.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameState.Phase
}

// PhaseName returns the current phase's diagnostic name, for introspection
// surfaces that shouldn't need to import package gamestate directly.
func (c *Core) PhaseName() string { return phaseName(c.GetPhase()) }

// FrameNumber returns the current frame counter, for introspection
// surfaces and replication headers.
func (c *Core) FrameNumber() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gameState.FrameNumber
}

// --- Combat triggers (spec §6 "Combat triggers" row) ---

// OnLightAttack attempts Idle -> Windup(Light) directly, for callers (e.g.
// a replayed netcode input stream) that trigger attacks without routing
// through the per-frame Record pipeline. Returns whether the attack
// started.
func (c *Core) OnLightAttack(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return false
	}
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	return p.Combat.TryStartAttack(combat.Light, p.Stamina, now)
}

func (c *Core) OnHeavyAttack(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return false
	}
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	return p.Combat.TryStartAttack(combat.Heavy, p.Stamina, now)
}

func (c *Core) OnSpecialAttack(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return false
	}
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	return p.Combat.TryStartAttack(combat.Special, p.Stamina, now)
}

func (c *Core) OnRollStart(id uint32, dirX, dirY float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return false
	}
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	dir := fixedpoint.Vec2{X: fixedpoint.FromFloat(dirX), Y: fixedpoint.FromFloat(dirY)}
	return p.Combat.TryStartRoll(dir, p.Stamina, now)
}

func (c *Core) SetBlocking(id uint32, blockRequest bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return
	}
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	p.Combat.SetBlocking(blockRequest, p.Stamina, now, p.Facing)
}

// HandleIncomingAttack resolves an attack against playerID's combat state,
// returning a combat.Outcome whose Resolution field carries the status code
// named in spec §6 (-1 Ignore, 0 Hit, 1 Block, 2 Parry).
func (c *Core) HandleIncomingAttack(id uint32, a combat.IncomingAttack) combat.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.players[id]
	if !ok {
		return combat.Outcome{Resolution: combat.ResIgnore}
	}
	now := fixedpoint.FromInt(int(c.gameState.FrameNumber)).Mul(TickDt)
	return p.Combat.HandleIncomingAttack(a, now, 0, p.IsInvulnerable())
}

// --- Enemy registry (spec §6 "Enemy registry" row) ---

// CreateEnemyBody creates a physics body for an externally indexed enemy
// (a wolf not yet tracked by a pack, or a scripted one-off entity) and
// records the index->body mapping in the game-state entity registry.
func (c *Core) CreateEnemyBody(index uint32, pos fixedpoint.Vec2, radius fixedpoint.Fixed) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	bodyID := c.world.AllocateID()
	c.world.AddBody(physics.NewDynamicBody(bodyID, c.denormalize(pos), radius, fixedpoint.One))
	c.gameState.Enemies.Set(index, bodyID)
	return bodyID
}

func (c *Core) DestroyEnemyBody(index uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bodyID, ok := c.gameState.Enemies.Get(index); ok {
		c.world.RemoveBody(bodyID)
		c.gameState.Enemies.Remove(index)
	}
}

func (c *Core) SetEnemyBodyPosition(index uint32, pos fixedpoint.Vec2) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	bodyID, ok := c.gameState.Enemies.Get(index)
	if !ok {
		return false
	}
	body := c.world.Body(bodyID)
	if body == nil {
		return false
	}
	body.Pos = c.denormalize(pos)
	return true
}

func (c *Core) ApplyEnemyKnockback(index uint32, impulse fixedpoint.Vec2) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	bodyID, ok := c.gameState.Enemies.Get(index)
	if !ok {
		return false
	}
	body := c.world.Body(bodyID)
	if body == nil {
		return false
	}
	body.ApplyImpulse(impulse)
	return true
}

// --- Snapshot (spec §6 "Snapshot" row, component C12) ---

func (c *Core) SaveState() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encode()
}

func (c *Core) LoadState(blob []byte) error {
	c.mu.Lock()
	err := c.decode(blob)
	frame := c.gameState.FrameNumber
	events := c.events
	c.mu.Unlock()
	if err == nil && events != nil {
		events.Emit(eventlog.Event{Frame: frame, Type: eventlog.SnapshotLoaded})
	}
	return err
}

func (c *Core) Checksum() uint64 {
	c.mu.RLock()
	blob := c.encode()
	c.mu.RUnlock()
	sum := snapshot.Checksum(blob, c.gameState.FrameNumber)
	c.mu.Lock()
	c.lastChecksum = sum
	c.mu.Unlock()
	metrics.RecordChecksum()
	return sum
}

func (c *Core) encode() []byte {
	w := snapshot.NewWriter()
	w.WriteU32(c.gameState.FrameNumber)
	w.WriteU64(c.runSeed)

	w.WriteByte(byte(c.gameState.Phase))
	w.WriteFixed(c.gameState.PhaseStartTime)
	w.WriteFixed(c.gameState.Gold)
	w.WriteFixed(c.gameState.Essence)
	w.WriteU32(uint32(c.gameState.RoomCount))
	w.WriteU32(c.gameState.Biome)

	encodeBodies(w, c.world)
	encodePlayers(w, c.playerOrder, c.players)
	encodeWolves(w, c.wolfOrder, c.wolves)
	encodePacks(w, c.packOrder, c.packs)
	encodeHazards(w, c.hazards)
	encodeObstacles(w, c.obstacles)

	return w.Bytes()
}

func (c *Core) decode(blob []byte) error {
	r, err := snapshot.NewReader(blob)
	if err != nil {
		return err
	}
	frame := r.ReadU32()
	runSeed := r.ReadU64()

	phase := gamestate.Phase(r.ReadByte())
	phaseStart := r.ReadFixed()
	gold := r.ReadFixed()
	essence := r.ReadFixed()
	roomCount := r.ReadU32()
	biome := r.ReadU32()

	c.gameState.FrameNumber = frame
	c.runSeed = runSeed
	c.gameState.Phase = phase
	c.gameState.PhaseStartTime = phaseStart
	c.gameState.Gold = gold
	c.gameState.Essence = essence
	c.gameState.RoomCount = int(roomCount)
	c.gameState.Biome = biome

	decodeBodies(r, c.world)
	c.players, c.playerOrder = decodePlayers(r)
	c.wolves, c.wolfOrder = decodeWolves(r)
	c.packs, c.packOrder = decodePacks(r)
	c.hazards = decodeHazards(r)
	c.obstacles = decodeObstacles(r)

	for id := range c.players {
		if _, ok := c.inputMgrs[id]; !ok {
			c.inputMgrs[id] = input.NewManager(int64(1000 / 60))
		}
	}
	return nil
}

func encodeBodies(w *snapshot.Writer, world *physics.World) {
	order := world.Order()
	w.WriteU32(uint32(len(order)))
	w.WriteU32(world.NextID())
	for _, id := range order {
		b := world.Body(id)
		w.WriteU32(b.ID)
		w.WriteByte(byte(b.Kind))
		w.WriteVec2(b.Pos)
		w.WriteVec2(b.Vel)
		w.WriteFixed(b.Radius)
		w.WriteFixed(b.InvMass)
		w.WriteFixed(b.Restitution)
		w.WriteFixed(b.Friction)
		w.WriteFixed(b.Drag)
		w.WriteU32(b.Layer)
		w.WriteU32(b.Mask)
		w.WriteVec2(b.HalfExtent)
		w.WriteBool(b.IsAABB)
		w.WriteBool(b.Sleeping())
		w.WriteI32(b.SleepTimer())
		onIncline, slope := b.Incline()
		w.WriteBool(onIncline)
		w.WriteFixed(slope)
	}
}

func decodeBodies(r *snapshot.Reader, world *physics.World) {
	count := r.ReadU32()
	nextID := r.ReadU32()
	for i := uint32(0); i < count; i++ {
		id := r.ReadU32()
		kind := physics.Kind(r.ReadByte())
		pos := r.ReadVec2()
		vel := r.ReadVec2()
		radius := r.ReadFixed()
		invMass := r.ReadFixed()
		restitution := r.ReadFixed()
		friction := r.ReadFixed()
		drag := r.ReadFixed()
		layer := r.ReadU32()
		mask := r.ReadU32()
		halfExtent := r.ReadVec2()
		isAABB := r.ReadBool()
		sleeping := r.ReadBool()
		sleepTimer := r.ReadI32()
		onIncline := r.ReadBool()
		slope := r.ReadFixed()

		b := world.Body(id)
		if b == nil {
			b = &physics.Body{ID: id}
			world.AddBody(b)
		}
		b.Kind = kind
		b.Pos = pos
		b.Vel = vel
		b.Radius = radius
		b.InvMass = invMass
		b.Restitution = restitution
		b.Friction = friction
		b.Drag = drag
		b.Layer = layer
		b.Mask = mask
		b.HalfExtent = halfExtent
		b.IsAABB = isAABB
		b.RestoreSleepState(sleeping, sleepTimer)
		b.SetIncline(onIncline, slope)
	}
	world.SetNextID(nextID)
}

func encodePlayers(w *snapshot.Writer, order []uint32, players map[uint32]*player.Player) {
	w.WriteU32(uint32(len(order)))
	for _, id := range order {
		p := players[id]
		w.WriteU32(p.ID)
		w.WriteByte(byte(p.Character))
		w.WriteVec2(p.Position)
		w.WriteVec2(p.Velocity)
		w.WriteVec2(p.Facing)
		w.WriteFixed(p.HP)
		w.WriteFixed(p.MaxHP)
		w.WriteFixed(p.Stamina)
		w.WriteFixed(p.MaxStamina)
		w.WriteU32(p.BodyID)
		encodeCombat(w, p.Combat)
		encodeAbility(w, &p.Ability)
	}
}

func decodePlayers(r *snapshot.Reader) (map[uint32]*player.Player, []uint32) {
	count := r.ReadU32()
	players := make(map[uint32]*player.Player, count)
	order := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		id := r.ReadU32()
		character := player.Character(r.ReadByte())
		pos := r.ReadVec2()
		vel := r.ReadVec2()
		facing := r.ReadVec2()
		hp := r.ReadFixed()
		maxHP := r.ReadFixed()
		stamina := r.ReadFixed()
		maxStamina := r.ReadFixed()
		bodyID := r.ReadU32()

		p := player.NewPlayer(id, character, pos, bodyID)
		p.Velocity = vel
		p.Facing = facing
		p.HP = hp
		p.MaxHP = maxHP
		p.Stamina = stamina
		p.MaxStamina = maxStamina
		decodeCombat(r, p.Combat)
		decodeAbility(r, &p.Ability)

		players[id] = p
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return players, order
}

func encodeCombat(w *snapshot.Writer, s *combat.State) {
	w.WriteByte(byte(s.AttackState))
	w.WriteByte(byte(s.AttackType))
	w.WriteFixed(s.Timer)
	w.WriteByte(byte(s.RollState))
	w.WriteFixed(s.RollTimer)
	w.WriteVec2(s.RollDir)
	w.WriteBool(s.Blocking)
	w.WriteVec2(s.BlockFace)
	w.WriteFixed(s.BlockStartTime)
	w.WriteBool(s.Stunned)
	w.WriteFixed(s.StunUntil)
	w.WriteU32(uint32(s.ComboCount))
	w.WriteFixed(s.ComboWindowEnd)
	w.WriteByte(byte(s.LastAttackType))
	w.WriteBool(s.CanCounter)
	w.WriteFixed(s.CounterWindowEnd)
	w.WriteFixed(s.ArmorValue)
	w.WriteFixed(s.HyperarmorUntil)
}

func decodeCombat(r *snapshot.Reader, s *combat.State) {
	s.AttackState = combat.AttackState(r.ReadByte())
	s.AttackType = combat.AttackType(r.ReadByte())
	s.Timer = r.ReadFixed()
	s.RollState = combat.RollState(r.ReadByte())
	s.RollTimer = r.ReadFixed()
	s.RollDir = r.ReadVec2()
	s.Blocking = r.ReadBool()
	s.BlockFace = r.ReadVec2()
	s.BlockStartTime = r.ReadFixed()
	s.Stunned = r.ReadBool()
	s.StunUntil = r.ReadFixed()
	s.ComboCount = int(r.ReadU32())
	s.ComboWindowEnd = r.ReadFixed()
	s.LastAttackType = combat.AttackType(r.ReadByte())
	s.CanCounter = r.ReadBool()
	s.CounterWindowEnd = r.ReadFixed()
	s.ArmorValue = r.ReadFixed()
	s.HyperarmorUntil = r.ReadFixed()
}

func encodeAbility(w *snapshot.Writer, a *player.AbilityState) {
	w.WriteByte(byte(a.Phase))
	w.WriteFixed(a.Timer)
	w.WriteFixed(a.ChargeLevel)
	w.WriteVec2(a.ChargeDir)
	w.WriteBool(a.Hyperarmor)
	w.WriteU32(uint32(a.ComboLevel))
	w.WriteFixed(a.ComboWindowEnd)
	w.WriteFixed(a.CooldownUntil)
}

func decodeAbility(r *snapshot.Reader, a *player.AbilityState) {
	a.Phase = player.AbilityPhase(r.ReadByte())
	a.Timer = r.ReadFixed()
	a.ChargeLevel = r.ReadFixed()
	a.ChargeDir = r.ReadVec2()
	a.Hyperarmor = r.ReadBool()
	a.ComboLevel = int(r.ReadU32())
	a.ComboWindowEnd = r.ReadFixed()
	a.CooldownUntil = r.ReadFixed()
}

func encodeWolves(w *snapshot.Writer, order []uint32, wolves map[uint32]*wolf.Wolf) {
	w.WriteU32(uint32(len(order)))
	for _, id := range order {
		wl := wolves[id]
		w.WriteU32(wl.ID)
		w.WriteVec2(wl.Position)
		w.WriteVec2(wl.Velocity)
		w.WriteVec2(wl.Facing)
		w.WriteFixed(wl.HP)
		w.WriteByte(byte(wl.Type))
		w.WriteByte(byte(wl.State))
		w.WriteByte(byte(wl.Emotion))
		w.WriteU32(wl.PackID)
		w.WriteByte(byte(wl.Role))
		w.WriteFixed(wl.Aggression)
		w.WriteFixed(wl.Morale)
		w.WriteFixed(wl.Stamina)
		w.WriteFixed(wl.Coordination)
		w.WriteVec2(wl.LastSeenPlayerPos)
		w.WriteFixed(wl.NoticedAt)
		w.WriteFixed(wl.StateTimer)
		w.WriteBool(wl.FleeOverride)
		w.WriteU32(wl.BodyID())
	}
}

func decodeWolves(r *snapshot.Reader) (map[uint32]*wolf.Wolf, []uint32) {
	count := r.ReadU32()
	wolves := make(map[uint32]*wolf.Wolf, count)
	order := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		id := r.ReadU32()
		pos := r.ReadVec2()
		vel := r.ReadVec2()
		facing := r.ReadVec2()
		hp := r.ReadFixed()
		kind := wolf.Kind(r.ReadByte())
		state := wolf.State(r.ReadByte())
		emotion := wolf.Emotion(r.ReadByte())
		packID := r.ReadU32()
		role := wolf.Role(r.ReadByte())
		aggression := r.ReadFixed()
		morale := r.ReadFixed()
		stamina := r.ReadFixed()
		coordination := r.ReadFixed()
		lastSeen := r.ReadVec2()
		noticedAt := r.ReadFixed()
		stateTimer := r.ReadFixed()
		fleeOverride := r.ReadBool()
		bodyID := r.ReadU32()

		wl := wolf.NewWolf(id, kind, pos, bodyID)
		wl.Velocity = vel
		wl.Facing = facing
		wl.HP = hp
		wl.State = state
		wl.Emotion = emotion
		wl.PackID = packID
		wl.Role = role
		wl.Aggression = aggression
		wl.Morale = morale
		wl.Stamina = stamina
		wl.Coordination = coordination
		wl.LastSeenPlayerPos = lastSeen
		wl.NoticedAt = noticedAt
		wl.StateTimer = stateTimer
		wl.FleeOverride = fleeOverride

		wolves[id] = wl
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return wolves, order
}

func encodePacks(w *snapshot.Writer, order []uint32, packs map[uint32]*wolf.Pack) {
	w.WriteU32(uint32(len(order)))
	for _, id := range order {
		p := packs[id]
		w.WriteU32(p.ID)
		w.WriteU32(uint32(len(p.MemberIDs)))
		for _, m := range p.MemberIDs {
			w.WriteU32(m)
		}
		w.WriteByte(byte(p.Plan))
		w.WriteFixed(p.Morale)
		w.WriteFixed(p.SyncTimer)
		w.WriteFixed(p.CoordinationBonus)
		w.WriteFixed(p.LastSuccessTime)
		w.WriteFixed(p.LastFailureTime)
		leaderID, hasLeader := p.LeaderID()
		w.WriteU32(leaderID)
		w.WriteBool(hasLeader)
		w.WriteFixed(p.RollingSuccessRate())
	}
}

func decodePacks(r *snapshot.Reader) (map[uint32]*wolf.Pack, []uint32) {
	count := r.ReadU32()
	packs := make(map[uint32]*wolf.Pack, count)
	order := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		id := r.ReadU32()
		memberCount := r.ReadU32()
		members := make([]uint32, memberCount)
		for j := range members {
			members[j] = r.ReadU32()
		}
		plan := wolf.PlanState(r.ReadByte())
		morale := r.ReadFixed()
		syncTimer := r.ReadFixed()
		coordBonus := r.ReadFixed()
		lastSuccess := r.ReadFixed()
		lastFailure := r.ReadFixed()
		leaderID := r.ReadU32()
		hasLeader := r.ReadBool()
		rollingSuccessRate := r.ReadFixed()

		p := wolf.NewPack(id)
		p.MemberIDs = members
		p.Plan = plan
		p.Morale = morale
		p.SyncTimer = syncTimer
		p.CoordinationBonus = coordBonus
		p.LastSuccessTime = lastSuccess
		p.LastFailureTime = lastFailure
		p.RestoreFields(leaderID, hasLeader, rollingSuccessRate)

		packs[id] = p
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return packs, order
}

func encodeHazards(w *snapshot.Writer, t *hazard.Table) {
	records := t.Records()
	w.WriteU32(uint32(len(records)))
	w.WriteU32(t.NextID())
	for _, h := range records {
		w.WriteU32(h.ID)
		w.WriteByte(byte(h.Type))
		w.WriteVec2(h.Center)
		w.WriteFixed(h.Radius)
		w.WriteFixed(h.Damage)
		w.WriteFixed(h.Cooldown)
		w.WriteFixed(h.LastTrigger)
		w.WriteBool(h.Active)
		w.WriteBool(h.Triggered)
		w.WriteFixed(h.ActivateTime)
		w.WriteFixed(h.Duration)
	}
}

func decodeHazards(r *snapshot.Reader) *hazard.Table {
	count := r.ReadU32()
	nextID := r.ReadU32()
	records := make([]hazard.Record, count)
	for i := range records {
		records[i] = hazard.Record{
			ID:           r.ReadU32(),
			Type:         hazard.Type(r.ReadByte()),
			Center:       r.ReadVec2(),
			Radius:       r.ReadFixed(),
			Damage:       r.ReadFixed(),
			Cooldown:     r.ReadFixed(),
			LastTrigger:  r.ReadFixed(),
			Active:       r.ReadBool(),
			Triggered:    r.ReadBool(),
			ActivateTime: r.ReadFixed(),
			Duration:     r.ReadFixed(),
		}
	}
	return hazard.Restore(records, nextID)
}

func encodeObstacles(w *snapshot.Writer, l *hazard.Layout) {
	obstacles := l.Obstacles()
	w.WriteU32(uint32(len(obstacles)))
	for _, o := range obstacles {
		w.WriteU32(o.ID)
		w.WriteVec2(o.Center)
		w.WriteFixed(o.Radius)
		w.WriteU32(o.BodyID)
	}
}

func decodeObstacles(r *snapshot.Reader) *hazard.Layout {
	count := r.ReadU32()
	obstacles := make([]hazard.Obstacle, count)
	for i := range obstacles {
		obstacles[i] = hazard.Obstacle{
			ID:     r.ReadU32(),
			Center: r.ReadVec2(),
			Radius: r.ReadFixed(),
			BodyID: r.ReadU32(),
		}
	}
	return hazard.RestoreLayout(obstacles)
}

// droppedRingEvents exposes the physics event queue's drop counter for the
// debug/metrics surface, matching the capacity-exceeded sentinel pattern
// carried throughout this kernel's bounded collections.
func (c *Core) droppedRingEvents() uint64 {
	return c.world.Events().Dropped()
}
