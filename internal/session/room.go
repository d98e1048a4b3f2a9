// Package session implements the session manager (C4): per-room game
// instances behind a single mailbox goroutine, player color
// assignment, reconnect handling, reset voting, chat relay, and the
// process-wide lobby registry. Grounded on the Hub pattern of the
// teacher's websocket handler, generalized from a flat socket
// registry into one actor per room.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"twofold-chess/internal/board"
	"twofold-chess/internal/coordinator"
)

// Member is one connected (or recently disconnected) room occupant.
type Member struct {
	SessionID string
	Username  string
	Color     board.Color
	Connected bool
}

// Broadcaster is implemented by the transport adapter (C5); the room
// actor calls it after committing a mutation, never before.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event string, payload any)
	SendToSession(sessionID string, event string, payload any)
}

// HistoryRecorder is the narrow interface C4 uses to persist finished
// games; the History sink proper lives outside this module's scope.
type HistoryRecorder interface {
	SaveFinishedGame(room *Room, g *coordinator.Game)
}

type pendingReconnect struct {
	roomID    string
	color     board.Color
	expiresAt time.Time
}

// Room owns one Game and its member table. Game mutations go through
// its mailbox, so moves, resets and chat in a room are serialized. The
// member table is guarded by mu instead and is changed outside the
// mailbox, so membership changes are not ordered against game
// mutations.
type Room struct {
	ID         string
	Host       string
	IsPrivate  bool
	CreatedAt  time.Time
	LastActive time.Time

	Game *coordinator.Game

	mu      sync.Mutex
	members map[string]*Member // sessionID -> member
	mailbox chan func()

	broadcaster Broadcaster
	history     HistoryRecorder
	logger      *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newRoom(id, host string, isPrivate bool, b Broadcaster, h HistoryRecorder, logger *zap.Logger) *Room {
	r := &Room{
		ID:          id,
		Host:        host,
		IsPrivate:   isPrivate,
		CreatedAt:   time.Now(),
		LastActive:  time.Now(),
		Game:        coordinator.NewGame(),
		members:     make(map[string]*Member),
		mailbox:     make(chan func(), 64),
		broadcaster: b,
		history:     h,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
	go r.run()
	return r
}

// run is the room's single-goroutine mailbox loop: every mutation to
// Game executes here, one at a time, so gameplay state needs no
// separate lock. The member table is not touched here; see mu.
func (r *Room) run() {
	for {
		select {
		case fn := <-r.mailbox:
			fn()
		case <-r.stopCh:
			return
		}
	}
}

// Do submits fn to the room's mailbox and blocks until it has run.
// Used by the manager and by tests; transport handlers should prefer
// the narrower methods below.
func (r *Room) Do(fn func()) {
	done := make(chan struct{})
	r.mailbox <- func() {
		fn()
		close(done)
	}
	<-done
}

func (r *Room) touch() {
	r.mu.Lock()
	r.LastActive = time.Now()
	r.mu.Unlock()
}

func (r *Room) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// MemberCount returns the number of currently connected members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.members {
		if m.Connected {
			n++
		}
	}
	return n
}

// Snapshot returns a defensive copy of the member table for the
// lobby list and player_joined-style broadcasts.
func (r *Room) Snapshot() []Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	return out
}
