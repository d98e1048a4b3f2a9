package transport

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"twofold-chess/internal/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub, *session.Manager) {
	t.Helper()
	hub := NewHub(nil)
	mgr := session.NewManager(hub, nil, nil, session.Options{
		ReconnectWindow: time.Second,
		GCInterval:      time.Hour,
		IdleTimeout:     time.Hour,
	})
	srv := NewServer(hub, mgr, nil)

	r := mux.NewRouter()
	r.HandleFunc("/ws/rooms/{roomId}", srv.ServeWS)
	ts := httptest.NewServer(r)
	return ts, hub, mgr
}

func dial(t *testing.T, ts *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/rooms/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	env := inboundEnvelope{Type: eventType, Payload: data}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) outboundEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env outboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return env
}

func TestJoin_SendsGameStateThenBroadcastsPlayerJoined(t *testing.T) {
	ts, _, _ := newTestServer(t)
	defer ts.Close()

	alice := dial(t, ts, "room1")
	defer alice.Close()

	sendEvent(t, alice, "join", joinPayload{Username: "alice", Room: "room1"})

	env := readEnvelope(t, alice)
	if env.Type != "game_state" {
		t.Fatalf("expected game_state, got %s", env.Type)
	}

	env = readEnvelope(t, alice)
	if env.Type != "player_joined" {
		t.Fatalf("expected player_joined broadcast to self, got %s", env.Type)
	}

	// The first joiner into an empty room also starts a fresh game.
	env = readEnvelope(t, alice)
	if env.Type != "game_start" {
		t.Fatalf("expected game_start for the first joiner, got %s", env.Type)
	}
}

func TestJoin_SecondPlayerDoesNotRestartGame(t *testing.T) {
	ts, _, _ := newTestServer(t)
	defer ts.Close()

	alice := dial(t, ts, "room1")
	defer alice.Close()
	sendEvent(t, alice, "join", joinPayload{Username: "alice", Room: "room1"})
	readEnvelope(t, alice) // game_state
	readEnvelope(t, alice) // player_joined (self)
	readEnvelope(t, alice) // game_start (alice was the first joiner)

	bob := dial(t, ts, "room1")
	defer bob.Close()
	sendEvent(t, bob, "join", joinPayload{Username: "bob", Room: "room1"})
	readEnvelope(t, bob) // game_state

	// alice should see bob's player_joined and nothing else: the game
	// already started when alice joined, so a second joiner never
	// re-triggers game_start.
	env := readEnvelope(t, alice)
	if env.Type != "player_joined" {
		t.Fatalf("expected alice to observe bob's player_joined, got %s", env.Type)
	}
}

func TestMove_IllegalMoveSendsMoveErrorOnlyToMover(t *testing.T) {
	ts, _, _ := newTestServer(t)
	defer ts.Close()

	alice := dial(t, ts, "room1")
	defer alice.Close()
	sendEvent(t, alice, "join", joinPayload{Username: "alice", Room: "room1"})
	readEnvelope(t, alice) // game_state
	readEnvelope(t, alice) // player_joined (self)
	readEnvelope(t, alice) // game_start (alice was the first joiner)

	bob := dial(t, ts, "room1")
	defer bob.Close()
	sendEvent(t, bob, "join", joinPayload{Username: "bob", Room: "room1"})
	readEnvelope(t, bob)   // game_state
	readEnvelope(t, bob)   // player_joined (broadcast includes bob himself)
	readEnvelope(t, alice) // player_joined (bob's join)

	// bob (Black) tries to move out of turn.
	sendEvent(t, bob, "move", movePayload{
		Room: "room1", BoardType: "main",
		Move: moveWire{From: squareWire{6, 0}, To: squareWire{5, 0}},
	})

	env := readEnvelope(t, bob)
	if env.Type != "move_error" {
		t.Fatalf("expected move_error for out-of-turn move, got %s", env.Type)
	}
}

func TestFinishGame_PersistsAndBroadcastsReset(t *testing.T) {
	ts, _, mgr := newTestServer(t)
	defer ts.Close()

	alice := dial(t, ts, "room1")
	defer alice.Close()
	sendEvent(t, alice, "join", joinPayload{Username: "alice", Room: "room1"})
	readEnvelope(t, alice) // game_state
	readEnvelope(t, alice) // player_joined (self)
	readEnvelope(t, alice) // game_start (alice was the first joiner)

	sendEvent(t, alice, "finish_game", finishGamePayload{Room: "room1", Winner: "white"})

	env := readEnvelope(t, alice)
	if env.Type != "game_reset" {
		t.Fatalf("expected game_reset after finish_game, got %s", env.Type)
	}

	g, err := mgr.GameState("room1")
	if err != nil {
		t.Fatalf("GameState: %v", err)
	}
	if g.GameOver {
		t.Fatalf("expected the room's game to be reset (not GameOver) after finish_game")
	}
}

func TestUnknownEventType_SendsError(t *testing.T) {
	ts, _, _ := newTestServer(t)
	defer ts.Close()

	c := dial(t, ts, "room1")
	defer c.Close()

	raw, _ := json.Marshal(inboundEnvelope{Type: "not_a_real_event", Payload: json.RawMessage("{}")})
	if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := readEnvelope(t, c)
	if env.Type != "error" {
		t.Fatalf("expected error event, got %s", env.Type)
	}
}
