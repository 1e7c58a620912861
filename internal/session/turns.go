package session

// Phase is the coarse game state.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// turnScheduler owns the phase, the round counter and the expert rotation.
// The expert is tracked by nickname and seat so roster churn cannot shift it.
type turnScheduler struct {
	phase      Phase
	round      int
	expertName string
	expertSeat uint64
}

func newTurnScheduler() *turnScheduler {
	return &turnScheduler{phase: PhaseWaiting, round: 1}
}

func (t *turnScheduler) begin(active []*Player) {
	t.phase = PhasePlaying
	t.round = 1
	t.setExpert(active[0])
}

// advance rotates the expert to the next seated active player. Passing the end
// of the seat order wraps to the first player and bumps the round; once the
// round exceeds the live player count the game is finished. It reports whether
// a new round should start.
func (t *turnScheduler) advance(active []*Player) bool {
	if t.phase != PhasePlaying {
		return false
	}
	if len(active) == 0 {
		t.finish()
		return false
	}

	var next *Player
	for _, p := range active {
		if p.seat > t.expertSeat {
			next = p
			break
		}
	}
	if next == nil {
		next = active[0]
		t.round++
	}

	if t.round > len(active) {
		t.finish()
		return false
	}
	t.setExpert(next)
	return true
}

func (t *turnScheduler) finish() {
	t.phase = PhaseFinished
	t.expertName = ""
	t.expertSeat = 0
}

func (t *turnScheduler) reset() {
	t.phase = PhaseWaiting
	t.round = 1
	t.expertName = ""
	t.expertSeat = 0
}

func (t *turnScheduler) setExpert(p *Player) {
	t.expertName = p.Nickname
	t.expertSeat = p.seat
}

func (t *turnScheduler) playing() bool {
	return t.phase == PhasePlaying
}
