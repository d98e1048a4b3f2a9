package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"twofold-chess/internal/board"
	"twofold-chess/internal/coordinator"
)

// Session errors, surfaced to clients as an `error` event (§7).
var (
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
)

// LobbyInfo is the wire shape for one entry in the public lobby list.
type LobbyInfo struct {
	Room      string
	Host      string
	IsPrivate bool
	CreatedAt time.Time
}

// Manager is the process-wide guarded map of rooms: the lobby
// registry. Cross-room reads (get_lobbies) take a snapshot under a
// short read lock and never block a room's own mutation path, which
// lives entirely inside that room's mailbox goroutine.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	reconnectMu sync.Mutex
	reconnect   map[string]pendingReconnect // username -> pending slot

	broadcaster     Broadcaster
	history         HistoryRecorder
	logger          *zap.Logger
	reconnectWindow time.Duration

	gcInterval   time.Duration
	idleTimeout  time.Duration
	stopGC       chan struct{}
	gcStartOnce  sync.Once
}

// Options configures timing knobs that SPEC_FULL pins to concrete
// defaults but leaves overridable for tests.
type Options struct {
	ReconnectWindow time.Duration
	GCInterval      time.Duration
	IdleTimeout     time.Duration
}

func DefaultOptions() Options {
	return Options{
		ReconnectWindow: 30 * time.Second,
		GCInterval:      1 * time.Minute,
		IdleTimeout:     30 * time.Minute,
	}
}

func NewManager(b Broadcaster, h HistoryRecorder, logger *zap.Logger, opts Options) *Manager {
	if opts.ReconnectWindow == 0 {
		opts.ReconnectWindow = DefaultOptions().ReconnectWindow
	}
	if opts.GCInterval == 0 {
		opts.GCInterval = DefaultOptions().GCInterval
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultOptions().IdleTimeout
	}
	return &Manager{
		rooms:           make(map[string]*Room),
		reconnect:       make(map[string]pendingReconnect),
		broadcaster:     b,
		history:         h,
		logger:          logger,
		reconnectWindow: opts.ReconnectWindow,
		gcInterval:      opts.GCInterval,
		idleTimeout:     opts.IdleTimeout,
		stopGC:          make(chan struct{}),
	}
}

// CreateLobby creates an empty room with an explicit privacy flag, or
// returns ErrRoomAlreadyExists. Used by the create_lobby event.
func (m *Manager) CreateLobby(roomID, host string, isPrivate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[roomID]; exists {
		return ErrRoomAlreadyExists
	}
	m.rooms[roomID] = newRoom(roomID, host, isPrivate, m.broadcaster, m.history, m.logger)
	return nil
}

func (m *Manager) getOrCreateRoom(roomID, host string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		r = newRoom(roomID, host, false, m.broadcaster, m.history, m.logger)
		m.rooms[roomID] = r
	}
	return r
}

func (m *Manager) room(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// Join registers sessionID/username into roomID, creating the room on
// first join. First joiner becomes White, second Black, a third or
// later is rejected with ErrRoomFull (the third-joiner Open Question
// is pinned to rejection — no spectator mode). If username matches a
// pending reconnect slot for this room within the grace window, the
// prior color is restored instead of assigning a new one.
func (m *Manager) Join(sessionID, username, roomID string) (room *Room, color board.Color, isNewGame bool, err error) {
	room = m.getOrCreateRoom(roomID, username)
	room.touch()

	if restored, ok := m.takeReconnectSlot(username, roomID); ok {
		room.mu.Lock()
		room.members[sessionID] = &Member{SessionID: sessionID, Username: username, Color: restored, Connected: true}
		room.mu.Unlock()
		return room, restored, false, nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	used := map[board.Color]bool{}
	connectedCount := 0
	for _, mem := range room.members {
		if mem.Connected {
			used[mem.Color] = true
			connectedCount++
		}
	}

	if connectedCount >= 2 {
		return room, 0, false, ErrRoomFull
	}

	var assigned board.Color
	switch {
	case !used[board.White]:
		assigned = board.White
	case !used[board.Black]:
		assigned = board.Black
	default:
		return room, 0, false, ErrRoomFull
	}

	room.members[sessionID] = &Member{SessionID: sessionID, Username: username, Color: assigned, Connected: true}
	isNewGame = connectedCount == 0
	return room, assigned, isNewGame, nil
}

// Disconnect marks sessionID as disconnected but keeps its color
// reserved in a side index for ReconnectWindow, so a network blip
// does not force a fresh color assignment on rejoin.
func (m *Manager) Disconnect(roomID, sessionID string) {
	room, ok := m.room(roomID)
	if !ok {
		return
	}
	room.mu.Lock()
	mem, ok := room.members[sessionID]
	if ok {
		mem.Connected = false
	}
	room.mu.Unlock()
	if !ok {
		return
	}

	m.reconnectMu.Lock()
	m.reconnect[mem.Username] = pendingReconnect{
		roomID:    roomID,
		color:     mem.Color,
		expiresAt: time.Now().Add(m.reconnectWindow),
	}
	m.reconnectMu.Unlock()
}

func (m *Manager) takeReconnectSlot(username, roomID string) (board.Color, bool) {
	m.reconnectMu.Lock()
	defer m.reconnectMu.Unlock()
	slot, ok := m.reconnect[username]
	if !ok || slot.roomID != roomID || time.Now().After(slot.expiresAt) {
		return 0, false
	}
	delete(m.reconnect, username)
	return slot.color, true
}

// Leave removes sessionID from roomID's member table entirely
// (distinct from Disconnect, which preserves a reconnect slot);
// used for leave_lobby and explicit departures. If the room becomes
// empty it is deleted immediately per the lobby lifecycle rule.
func (m *Manager) Leave(roomID, sessionID string) {
	room, ok := m.room(roomID)
	if !ok {
		return
	}
	room.mu.Lock()
	delete(room.members, sessionID)
	empty := len(room.members) == 0
	room.mu.Unlock()

	if empty {
		m.deleteRoom(roomID)
	}
}

func (m *Manager) deleteRoom(roomID string) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
	}
	m.mu.Unlock()
	if ok {
		room.stop()
	}
}

// ColorOf resolves sessionID's assigned color within roomID, for
// callers (the transport adapter) that must not trust a
// client-declared color on an inbound move.
func (m *Manager) ColorOf(roomID, sessionID string) (board.Color, bool) {
	room, ok := m.room(roomID)
	if !ok {
		return 0, false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	mem, ok := room.members[sessionID]
	if !ok {
		return 0, false
	}
	return mem.Color, true
}

// GameState returns the current game for roomID without mutating
// membership, for the get_game_state event (a reconnecting client
// refreshing its view, not rejoining).
func (m *Manager) GameState(roomID string) (*coordinator.Game, error) {
	room, ok := m.room(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	var g *coordinator.Game
	room.Do(func() { g = room.Game })
	return g, nil
}

// SubmitMove routes a validated move request to the room's actor and
// returns the coordinator's result.
func (m *Manager) SubmitMove(roomID string, color board.Color, boardName coordinator.BoardName, mv board.Move) (coordinator.Result, error) {
	room, ok := m.room(roomID)
	if !ok {
		return coordinator.Result{}, ErrRoomNotFound
	}
	room.touch()
	var res coordinator.Result
	room.Do(func() {
		res = room.Game.Submit(color, boardName, mv)
		if !res.OK {
			return
		}
		if m.broadcaster != nil {
			m.broadcaster.BroadcastToRoom(roomID, "game_update", res.Game.Snapshot())
		}
		if m.history != nil && res.Game.GameOver {
			go m.history.SaveFinishedGame(room, res.Game)
		}
	})
	return res, nil
}

// VoteReset records color's reset vote for roomID and reports
// whether it triggered the actual reset.
func (m *Manager) VoteReset(roomID string, color board.Color) (didReset bool, err error) {
	room, ok := m.room(roomID)
	if !ok {
		return false, ErrRoomNotFound
	}
	room.touch()
	room.Do(func() {
		didReset = room.Game.RecordResetVote(color)
		if m.broadcaster == nil {
			return
		}
		if didReset {
			m.broadcaster.BroadcastToRoom(roomID, "game_reset", room.Game.Snapshot())
		} else {
			m.broadcaster.BroadcastToRoom(roomID, "reset_votes_update", map[string]coordinator.ResetVotes{"votes": room.Game.ResetVotes})
		}
	})
	return didReset, nil
}

// ResetLocal performs a unilateral, immediate reset for a
// single-browser (local) game.
func (m *Manager) ResetLocal(roomID string) error {
	room, ok := m.room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()
	room.Do(func() {
		room.Game.ResetImmediate()
		if m.broadcaster != nil {
			m.broadcaster.BroadcastToRoom(roomID, "game_reset", room.Game.Snapshot())
		}
	})
	return nil
}

// FinishGame backs the legacy finish_game event: it force-ends the
// room's game with the declared winner, persists it through the
// history sink exactly like a naturally-concluded game, then resets
// the room so play can continue.
func (m *Manager) FinishGame(roomID string, winner coordinator.Winner, moveCount int) error {
	room, ok := m.room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.touch()
	room.Do(func() {
		if m.logger != nil {
			m.logger.Info("finish_game_declared",
				zap.String("room_id", roomID),
				zap.Int("declared_move_count", moveCount),
				zap.Int("recorded_move_count", len(room.Game.Moves)))
		}
		room.Game.ForceFinish(winner)
		if m.history != nil {
			// ResetImmediate below replaces the boards and move slice
			// rather than mutating them, so a shallow copy keeps the
			// finished state intact for the history goroutine.
			finished := *room.Game
			go m.history.SaveFinishedGame(room, &finished)
		}
		room.Game.ResetImmediate()
		if m.broadcaster != nil {
			m.broadcaster.BroadcastToRoom(roomID, "game_reset", room.Game.Snapshot())
		}
	})
	return nil
}

// Chat broadcasts a chat message scoped to the room. Content is not
// interpreted server-side beyond a length cap. It is routed through
// the room's mailbox so a chat message is never delivered out of
// order relative to a move commit that raced it.
const maxChatMessageLen = 2000

func (m *Manager) Chat(roomID, sender, message string) error {
	room, ok := m.room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	if len(message) > maxChatMessageLen {
		message = message[:maxChatMessageLen]
	}
	room.touch()
	room.Do(func() {
		if m.broadcaster != nil {
			m.broadcaster.BroadcastToRoom(roomID, "chat_message", map[string]string{"sender": sender, "message": message})
		}
	})
	return nil
}

// GetLobbies returns every public, non-full room, snapshotted under
// a read lock that never blocks an individual room's own mutation.
func (m *Manager) GetLobbies() []LobbyInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]LobbyInfo, 0, len(rooms))
	for _, r := range rooms {
		if r.IsPrivate {
			continue
		}
		if r.MemberCount() >= 2 {
			continue
		}
		out = append(out, LobbyInfo{Room: r.ID, Host: r.Host, IsPrivate: r.IsPrivate, CreatedAt: r.CreatedAt})
	}
	return out
}

// StartGC launches the idle room/lobby sweep, grounded on the
// ticker-driven shape of the teacher's stale-game cleanup service,
// simplified to a single in-process sweep since this manager owns
// the only copy of room state (no distributed lock needed).
func (m *Manager) StartGC() {
	m.gcStartOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(m.gcInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					m.sweepIdleRooms()
				case <-m.stopGC:
					return
				}
			}
		}()
	})
}

func (m *Manager) StopGC() {
	close(m.stopGC)
}

func (m *Manager) sweepIdleRooms() {
	cutoff := time.Now().Add(-m.idleTimeout)
	m.mu.RLock()
	var stale []string
	for id, r := range m.rooms {
		r.mu.Lock()
		idle := r.LastActive.Before(cutoff)
		r.mu.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		if m.logger != nil {
			m.logger.Info("room_gc_evict", zap.String("room_id", id))
		}
		m.deleteRoom(id)
	}
}
