package input

// LegacyAdapter maps a 5-discrete-button control scheme (light attack,
// heavy attack, special, block, roll as independent buttons) onto the
// authoritative 3-button (per-hand press/hold) Record, so older replay
// captures or alternate frontends can still drive the simulation without
// the combat state machine ever branching on which layout produced the
// input.
type LegacyAdapter struct{}

// LegacyButtons is the 5-button control surface being adapted.
type LegacyButtons struct {
	MoveX, MoveY                             float64
	LightAttack, HeavyAttack, SpecialAttack   bool
	Block, Roll                              bool
}

// Translate converts a LegacyButtons frame into the canonical Record. Light
// and heavy attacks are mapped onto the left/right hand press duration
// model: a light-attack press is a short left-hand tap, a heavy-attack
// press is a held right-hand press, matching the duration thresholds
// Manager.trackHand already classifies against.
func (LegacyAdapter) Translate(b LegacyButtons) Record {
	rec := NewRecordFromFloats(b.MoveX, b.MoveY, b.LightAttack, b.HeavyAttack, b.SpecialAttack, false, b.Roll, b.Block)
	rec.RollRequest = b.Roll
	rec.BlockRequest = b.Block
	return rec
}
