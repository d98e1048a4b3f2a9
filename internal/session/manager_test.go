package session

import (
	"sync"
	"testing"
	"time"

	"twofold-chess/internal/board"
	"twofold-chess/internal/coordinator"
)

type stubBroadcaster struct {
	mu    sync.Mutex
	sent  []string
	toSID []string
}

func (s *stubBroadcaster) BroadcastToRoom(roomID, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, event)
}

func (s *stubBroadcaster) SendToSession(sessionID, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toSID = append(s.toSID, sessionID)
}

type stubHistory struct {
	mu    sync.Mutex
	saved int
}

func (s *stubHistory) SaveFinishedGame(room *Room, g *coordinator.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved++
}

func testOptions() Options {
	return Options{ReconnectWindow: 50 * time.Millisecond, GCInterval: time.Hour, IdleTimeout: time.Hour}
}

func TestJoin_AssignsWhiteThenBlackThenRejects(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())

	_, c1, isNew1, err := m.Join("s1", "alice", "room1")
	if err != nil || c1 != board.White || !isNew1 {
		t.Fatalf("expected alice=White,new game, got color=%v new=%v err=%v", c1, isNew1, err)
	}

	_, c2, isNew2, err := m.Join("s2", "bob", "room1")
	if err != nil || c2 != board.Black || isNew2 {
		t.Fatalf("expected bob=Black,not new, got color=%v new=%v err=%v", c2, isNew2, err)
	}

	_, _, _, err = m.Join("s3", "carol", "room1")
	if err != ErrRoomFull {
		t.Fatalf("expected third joiner rejected with ErrRoomFull, got %v", err)
	}
}

func TestDisconnect_ReconnectWithinWindowRestoresColor(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	_, _, _, _ = m.Join("s1", "alice", "room1")
	_, black, _, _ := m.Join("s2", "bob", "room1")

	m.Disconnect("room1", "s2")

	room, _ := m.room("room1")
	if room.MemberCount() != 1 {
		t.Fatalf("expected disconnected member to stop counting, got %d", room.MemberCount())
	}

	_, restored, isNew, err := m.Join("s3", "bob", "room1")
	if err != nil {
		t.Fatalf("expected reconnect to succeed, got %v", err)
	}
	if restored != black {
		t.Fatalf("expected reconnect to restore color %v, got %v", black, restored)
	}
	if isNew {
		t.Fatalf("reconnect must not be treated as a fresh game start")
	}
}

func TestDisconnect_ReconnectAfterWindowAssignsFresh(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	_, _, _, _ = m.Join("s1", "alice", "room1")
	_, _, _, _ = m.Join("s2", "bob", "room1")

	m.Disconnect("room1", "s2")
	time.Sleep(80 * time.Millisecond) // past the 50ms test reconnect window

	// alice is still connected, so bob rejoining after the window
	// expires is treated as a normal join and takes the open Black
	// slot again (there's only one open slot either way).
	_, color, _, err := m.Join("s3", "bob", "room1")
	if err != nil {
		t.Fatalf("expected rejoin to succeed, got %v", err)
	}
	if color != board.Black {
		t.Fatalf("expected the only open slot (Black), got %v", color)
	}
}

func TestLeave_DeletesEmptyRoom(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	_, _, _, _ = m.Join("s1", "alice", "room1")

	m.Leave("room1", "s1")

	if _, ok := m.room("room1"); ok {
		t.Fatalf("expected empty room to be deleted")
	}
}

func TestVoteReset_RequiresBothColors(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	_, _, _, _ = m.Join("s1", "alice", "room1")
	_, _, _, _ = m.Join("s2", "bob", "room1")

	didReset, err := m.VoteReset("room1", board.White)
	if err != nil || didReset {
		t.Fatalf("single vote must not reset, got reset=%v err=%v", didReset, err)
	}

	didReset, err = m.VoteReset("room1", board.Black)
	if err != nil || !didReset {
		t.Fatalf("expected both votes to trigger reset, got reset=%v err=%v", didReset, err)
	}
}

func TestSubmitMove_RecordsHistoryOnGameOver(t *testing.T) {
	hist := &stubHistory{}
	m := NewManager(&stubBroadcaster{}, hist, nil, testOptions())
	_, _, _, _ = m.Join("s1", "alice", "room1")
	_, _, _, _ = m.Join("s2", "bob", "room1")

	room, _ := m.room("room1")
	room.Do(func() {
		room.Game.Main = board.NewEmptyBoard()
		room.Game.Secondary = board.NewStandardBoard()
		b := room.Game.Main
		b.Squares[0][7] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[1][6] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p7"}
		b.Squares[1][7] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p8"}
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[7][0] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R1"}
		room.Game.Turn = board.White
		room.Game.ActivePhase = coordinator.Main
	})

	res, err := m.SubmitMove("room1", board.White, coordinator.Main, board.Move{
		From: board.Square{Row: 7, Col: 0}, To: board.Square{Row: 0, Col: 0},
	})
	if err != nil || !res.OK {
		t.Fatalf("expected back-rank mate move to be accepted, got ok=%v err=%v (%v)", res.OK, err, res.Err)
	}
	if !res.Game.GameOver {
		t.Fatalf("expected checkmate to end the game")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hist.mu.Lock()
		n := hist.saved
		hist.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected history to be recorded once the game ended")
}

func TestGetLobbies_FiltersPrivateAndFull(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	if err := m.CreateLobby("public-open", "alice", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.CreateLobby("private-room", "bob", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.CreateLobby("public-full", "carol", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, _, _ = m.Join("s1", "carol", "public-full")
	_, _, _, _ = m.Join("s2", "dave", "public-full")

	lobbies := m.GetLobbies()
	if len(lobbies) != 1 || lobbies[0].Room != "public-open" {
		t.Fatalf("expected only public-open listed, got %+v", lobbies)
	}
}

func TestSweepIdleRooms_EvictsPastTimeout(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, Options{
		ReconnectWindow: time.Minute,
		GCInterval:      time.Hour,
		IdleTimeout:     10 * time.Millisecond,
	})
	_ = m.CreateLobby("stale", "alice", false)

	time.Sleep(30 * time.Millisecond)
	m.sweepIdleRooms()

	if _, ok := m.room("stale"); ok {
		t.Fatalf("expected idle room to be evicted")
	}
}

func TestInstallDebugScenario_MainCheckmateEndsGame(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	if err := m.InstallDebugScenario("dbg", ScenarioMainWhiteCheckmatesBlack); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	room, ok := m.room("dbg")
	if !ok {
		t.Fatalf("expected scenario to create the room")
	}

	var res coordinator.Result
	room.Do(func() {
		res = room.Game.Submit(board.White, coordinator.Main, board.Move{
			From: board.Square{Row: 7, Col: 0}, To: board.Square{Row: 0, Col: 0},
		})
	})
	if !res.OK || !res.Game.GameOver || res.Game.Winner != coordinator.WhiteWinner {
		t.Fatalf("expected the preset mate-in-one to resolve in white's favor, got %+v", res)
	}
}

func TestInstallDebugScenario_UnknownNameRejected(t *testing.T) {
	m := NewManager(&stubBroadcaster{}, &stubHistory{}, nil, testOptions())
	if err := m.InstallDebugScenario("dbg", "not_a_real_scenario"); err != ErrUnknownScenario {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
}
