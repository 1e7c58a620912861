package session

// leadership tracks the room leader. leaderID is empty only when nobody is
// connected; otherwise it names an active player.
type leadership struct {
	leaderID string
}

// LeaderID returns the connection id of the room leader, or "".
func (l *leadership) LeaderID() string {
	return l.leaderID
}

func (l *leadership) isLeader(connID string) bool {
	return connID != "" && l.leaderID == connID
}

// handOff gives leadership to the earliest seated active player.
func (l *leadership) handOff(active []*Player) {
	if len(active) == 0 {
		l.leaderID = ""
		return
	}
	l.leaderID = active[0].ID
}
