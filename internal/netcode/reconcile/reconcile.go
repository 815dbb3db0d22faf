// Package reconcile implements component C13: peer-phase consensus, the
// explicit phase_vote ballot protocol, and host-authoritative repair named
// in spec §4.9. It is grounded on two teacher patterns: the rate-limited,
// bounded-backpressure posture of internal/game/event_log.go (generalized
// already by wolfpit/internal/sim/eventlog) applied here to vote-flood
// protection via golang.org/x/time/rate, and the coordinator-mediated
// mutation style of internal/game.Engine (a vote never mutates
// *sim.Core directly — it only calls the one exported TryTransition entry
// point, exactly as every other external caller must).
package reconcile

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"wolfpit/internal/config"
	"wolfpit/internal/netcode/transport"
	"wolfpit/internal/netcode/wire"
	"wolfpit/internal/sim"
	"wolfpit/internal/sim/eventlog"
	"wolfpit/internal/sim/gamestate"
	"wolfpit/internal/sim/metrics"
)

// maxVoteInitiationsPerSec bounds how often a new ballot may be opened,
// independent of the configured vote duration. One limiter covers all
// initiators together, so spamming initiate messages cannot open ballots
// faster than this rate.
const maxVoteInitiationsPerSec = 2

// PeerPhaseView is one peer's self-reported phase_sync snapshot, per spec
// §6's peer message types.
type PeerPhaseView struct {
	PeerID             uint32
	Phase              gamestate.Phase
	PreviousPhase      gamestate.Phase
	Sequence           uint32
	StartTimeMillis    uint32
	TransitionInProgress bool
}

// ballot tracks one in-flight phase_vote.
type ballot struct {
	proposed   gamestate.Phase
	initiator  uint32
	deadline   time.Time
	votes      map[uint32]bool // peer id -> cast(true)/abstain tracked by presence
	totalPeers int
}

// Reconciler owns the peer-phase consensus state machine for one run. It
// never mutates *sim.Core directly outside of calling TryTransition, per
// spec §5's "mutate only via explicit coordinator-mediated calls" policy.
type Reconciler struct {
	mu sync.Mutex

	core   *sim.Core
	cfg    config.ReconcileConfig
	hostID uint32 // smallest known peer id, per spec §4.9 host-authoritative rule

	peerViews map[uint32]PeerPhaseView
	active    *ballot

	initiateLimiter *rate.Limiter
	events          *eventlog.Log
}

// New constructs a Reconciler bound to a simulation core and reconciliation
// configuration. events may be nil to disable diagnostic emission.
func New(core *sim.Core, cfg config.ReconcileConfig, events *eventlog.Log) *Reconciler {
	return &Reconciler{
		core:            core,
		cfg:             cfg,
		peerViews:       make(map[uint32]PeerPhaseView),
		initiateLimiter: rate.NewLimiter(rate.Limit(maxVoteInitiationsPerSec), maxVoteInitiationsPerSec),
		events:          events,
	}
}

// ObservePhaseSync records a peer's self-reported phase and, for the
// host-authoritative and latest-timestamp strategies, may trigger an
// immediate repair without waiting for an explicit vote.
func (r *Reconciler) ObservePhaseSync(view PeerPhaseView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peerViews[view.PeerID] = view
	if r.hostID == 0 || view.PeerID < r.hostID {
		r.hostID = view.PeerID
	}

	switch r.cfg.Strategy {
	case config.StrategyHostAuthoritative:
		r.repairHostAuthoritative()
	case config.StrategyLatestTimestamp:
		r.repairLatestTimestamp()
	}
}

// repairHostAuthoritative adopts the host's last-reported phase if the
// local core disagrees. The host is always the smallest observed peer id;
// no explicit host can be configured.
func (r *Reconciler) repairHostAuthoritative() {
	hostView, ok := r.peerViews[r.hostID]
	if !ok {
		return
	}
	r.applyIfDivergent(hostView.Phase)
}

// repairLatestTimestamp adopts whichever observed phase carries the
// greatest reported start time.
func (r *Reconciler) repairLatestTimestamp() {
	var latest PeerPhaseView
	var found bool
	for _, v := range r.peerViews {
		if !found || v.StartTimeMillis > latest.StartTimeMillis {
			latest = v
			found = true
		}
	}
	if found {
		r.applyIfDivergent(latest.Phase)
	}
}

func (r *Reconciler) applyIfDivergent(target gamestate.Phase) {
	if r.core.GetPhase() == target {
		return
	}
	metrics.RecordDesync()
	if r.events != nil {
		r.events.Emit(eventlog.Event{Type: eventlog.Desync, Payload: target})
	}
	if r.core.TryTransition(target) {
		metrics.RecordReconcileVote("accepted")
	}
}

// InitiateVote opens a new ballot for the majority strategy, rate-limited
// per spec §5's vote-flood protection. Returns false if a ballot is already
// active or the shared initiation rate allowance is exhausted.
func (r *Reconciler) InitiateVote(initiator uint32, proposed gamestate.Phase, duration time.Duration, totalPeers int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return false
	}
	if !r.initiateLimiter.Allow() {
		return false
	}
	r.active = &ballot{
		proposed:   proposed,
		initiator:  initiator,
		deadline:   time.Now().Add(duration),
		votes:      map[uint32]bool{initiator: true},
		totalPeers: totalPeers,
	}
	return true
}

// CastVote records one peer's ballot choice. Each peer may cast at most
// one vote per spec §4.9; a repeat call overwrites its own prior cast
// rather than counting twice.
func (r *Reconciler) CastVote(peerID uint32, accept bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return
	}
	r.active.votes[peerID] = accept
}

// Tick checks the active ballot's deadline, applying the transition if the
// winning share meets consensus_threshold and ending the vote either way.
// Callers should invoke Tick once per frame (or per wire-receive loop
// iteration); it is a no-op when no ballot is active.
func (r *Reconciler) Tick() {
	r.mu.Lock()
	b := r.active
	if b == nil || time.Now().Before(b.deadline) {
		r.mu.Unlock()
		return
	}
	r.active = nil

	accepts := 0
	for _, v := range b.votes {
		if v {
			accepts++
		}
	}
	share := 0.0
	if b.totalPeers > 0 {
		share = float64(accepts) / float64(b.totalPeers)
	}
	r.mu.Unlock()

	if share >= r.cfg.ConsensusThreshold {
		if r.core.TryTransition(b.proposed) {
			metrics.RecordReconcileVote("accepted")
		} else {
			metrics.RecordReconcileVote("rejected")
		}
	} else {
		metrics.RecordReconcileVote("timed_out")
	}
	if r.events != nil {
		r.events.Emit(eventlog.Event{Type: eventlog.ReconcileVote, SourceID: b.initiator, Payload: share})
	}
}

// HandleMessage decodes one inbound wire message addressed to the
// reconciler (TypePhaseSync or TypePhaseVote) and applies it. Any other
// message type is ignored; transport demultiplexing is the caller's job.
func (r *Reconciler) HandleMessage(from transport.Peer, m transport.Message) {
	switch m.Type {
	case wire.TypePhaseSync:
		// Body layout: peer_id:u32, phase:u8, previous_phase:u8,
		// sequence:u32, start_time_ms:u32, transition_in_progress:u8.
		if len(m.Body) < 15 {
			return
		}
		view := PeerPhaseView{
			PeerID:               le32(m.Body[0:4]),
			Phase:                gamestate.Phase(m.Body[4]),
			PreviousPhase:        gamestate.Phase(m.Body[5]),
			Sequence:             le32(m.Body[6:10]),
			StartTimeMillis:      le32(m.Body[10:14]),
			TransitionInProgress: m.Body[14] != 0,
		}
		r.ObservePhaseSync(view)
	case wire.TypePhaseVote:
		// Body layout: action:u8 (0=initiate,1=cast), proposed_phase:u8,
		// vote:u8, duration_ms:u32.
		if len(m.Body) < 7 {
			return
		}
		action := m.Body[0]
		proposed := gamestate.Phase(m.Body[1])
		accept := m.Body[2] != 0
		durationMs := le32(m.Body[3:7])
		switch action {
		case 0:
			r.InitiateVote(from.ID(), proposed, time.Duration(durationMs)*time.Millisecond, len(r.peerViews)+1)
		case 1:
			r.CastVote(from.ID(), accept)
		}
	}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
