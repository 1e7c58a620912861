package session

import (
	"sort"
	"time"
)

// registry owns the active roster, the players waiting out their grace window,
// and nickname uniqueness across both.
type registry struct {
	maxPlayers int

	active       []*Player // ordered by seat
	byID         map[string]*Player
	disconnected map[string]*Player // nickname -> player
	nextSeat     uint64

	leadership
}

func newRegistry(maxPlayers int) *registry {
	return &registry{
		maxPlayers:   maxPlayers,
		byID:         make(map[string]*Player),
		disconnected: make(map[string]*Player),
	}
}

func (r *registry) get(connID string) *Player {
	return r.byID[connID]
}

// lookup resolves a nickname in active first, then disconnected.
func (r *registry) lookup(nickname string) *Player {
	for _, p := range r.active {
		if p.Nickname == nickname {
			return p
		}
	}
	return r.disconnected[nickname]
}

func (r *registry) isDisconnected(nickname string) bool {
	_, ok := r.disconnected[nickname]
	return ok
}

func (r *registry) count() int {
	return len(r.active)
}

// add creates a new connected player. The caller has already ruled out a reconnect.
func (r *registry) add(connID, nickname string, now time.Time) (*Player, error) {
	if len(r.active) >= r.maxPlayers {
		return nil, ErrRoomFull
	}
	if r.lookup(nickname) != nil {
		return nil, ErrNicknameTaken
	}

	r.nextSeat++
	p := &Player{
		ID:        connID,
		Nickname:  nickname,
		Connected: true,
		JoinTime:  now,
		seat:      r.nextSeat,
	}
	r.active = append(r.active, p)
	r.byID[connID] = p

	if r.leaderID == "" {
		r.leaderID = connID
	}
	return p, nil
}

// restore moves a disconnected player back to the active roster under connID.
// It returns the player and its previous connection id.
func (r *registry) restore(connID, nickname string) (*Player, string, error) {
	p, ok := r.disconnected[nickname]
	if !ok {
		return nil, "", ErrUnknownReconnectTarget
	}
	delete(r.disconnected, nickname)

	oldID := p.ID
	p.ID = connID
	p.Connected = true
	r.byID[connID] = p
	r.insertBySeat(p)

	if p.WasRoomLeader || r.leaderID == "" {
		r.leaderID = connID
	}
	p.WasRoomLeader = false
	return p, oldID, nil
}

// detach moves an active player into the disconnected set, keeping its seat,
// score and ready flag. Leadership is handed off immediately.
func (r *registry) detach(connID string) *Player {
	p := r.unlink(connID)
	if p == nil {
		return nil
	}
	p.Connected = false
	if r.leaderID == connID {
		p.WasRoomLeader = true
		r.handOff(r.active)
	}
	r.disconnected[p.Nickname] = p
	return p
}

// remove deletes an active player outright and frees its nickname.
func (r *registry) remove(connID string) *Player {
	p := r.unlink(connID)
	if p == nil {
		return nil
	}
	if r.leaderID == connID {
		r.handOff(r.active)
	}
	return p
}

// purge permanently drops a disconnected player.
func (r *registry) purge(nickname string) *Player {
	p, ok := r.disconnected[nickname]
	if !ok {
		return nil
	}
	delete(r.disconnected, nickname)
	return p
}

func (r *registry) toggleReady(connID string) bool {
	p := r.byID[connID]
	if p == nil {
		return false
	}
	p.Ready = !p.Ready
	return p.Ready
}

func (r *registry) allReady() bool {
	for _, p := range r.active {
		if !p.Ready {
			return false
		}
	}
	return true
}

// resetAll clears ready and score on every known player, connected or not.
func (r *registry) resetAll() {
	for _, p := range r.active {
		p.Ready = false
		p.Score = 0
	}
	for _, p := range r.disconnected {
		p.Ready = false
		p.Score = 0
	}
}

// disconnectedPlayers returns the grace-window players in seat order.
func (r *registry) disconnectedPlayers() []*Player {
	out := make([]*Player, 0, len(r.disconnected))
	for _, p := range r.disconnected {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seat < out[j].seat })
	return out
}

func (r *registry) unlink(connID string) *Player {
	p := r.byID[connID]
	if p == nil {
		return nil
	}
	delete(r.byID, connID)
	for i, q := range r.active {
		if q == p {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
	return p
}

func (r *registry) insertBySeat(p *Player) {
	i := sort.Search(len(r.active), func(i int) bool { return r.active[i].seat > p.seat })
	r.active = append(r.active, nil)
	copy(r.active[i+1:], r.active[i:])
	r.active[i] = p
}
