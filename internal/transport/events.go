// Package transport implements the transport adapter (C5): a
// bidirectional, message-oriented websocket channel per client
// session, the full client/server event vocabulary of SPEC_FULL §6,
// and the Hub/Client skeleton grounded on the teacher's
// internal/handlers/websocket.go (ping/pong, read/write deadlines, a
// buffered per-client send channel), generalized from a flat
// session/player registry to a room-keyed one and wired to
// session.Manager instead of a Mongo-backed game document.
package transport

import (
	"encoding/json"
	"fmt"

	"twofold-chess/internal/board"
	"twofold-chess/internal/coordinator"
)

// inboundEnvelope is the shape every client->server event arrives in:
// a type tag plus a type-specific payload decoded lazily so a
// malformed payload for one event never breaks parsing of the
// envelope itself.
type inboundEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// outboundEnvelope is what every server->client broadcast or direct
// send is wrapped in, matching the event/payload split already fixed
// by session.Broadcaster's signature.
type outboundEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func encodeOutbound(event string, payload any) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Type: event, Payload: payload})
}

// Client -> server payload shapes (SPEC_FULL §6).

type joinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

type createLobbyPayload struct {
	RoomID    string `json:"roomId"`
	Host      string `json:"host"`
	IsPrivate bool   `json:"isPrivate"`
}

type leaveLobbyPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type squareWire [2]int

func (s squareWire) toSquare() board.Square {
	return board.Square{Row: s[0], Col: s[1]}
}

type moveWire struct {
	From      squareWire `json:"from"`
	To        squareWire `json:"to"`
	Piece     string     `json:"piece,omitempty"`
	Captured  string     `json:"captured,omitempty"`
	Castle    string     `json:"castle,omitempty"`
	EnPassant bool       `json:"en_passant,omitempty"`
	Promotion string     `json:"promotion,omitempty"`
}

// movePayload carries the client's advisory `board` field in neither
// name nor shape: SPEC_FULL §9 mandates the server never decode, let
// alone trust, a client-supplied board snapshot, so this struct has
// no field for it at all. Any such field in the wire JSON is silently
// ignored by json.Unmarshal rather than rejected, same as any other
// unknown field.
type movePayload struct {
	Room      string   `json:"room"`
	BoardType string   `json:"boardType"`
	Move      moveWire `json:"move"`
}

func (m moveWire) toBoardMove() (board.Move, error) {
	mv := board.Move{From: m.From.toSquare(), To: m.To.toSquare()}
	if m.Promotion != "" {
		kind, ok := board.ParsePromotionKind(m.Promotion)
		if !ok {
			return board.Move{}, fmt.Errorf("invalid promotion piece %q", m.Promotion)
		}
		mv.Promotion = kind
		mv.HasPromo = true
	}
	return mv, nil
}

func parseBoardName(s string) (coordinator.BoardName, bool) {
	switch s {
	case "main":
		return coordinator.Main, true
	case "secondary":
		return coordinator.Secondary, true
	default:
		return coordinator.NoBoard, false
	}
}

func parseColor(s string) (board.Color, bool) {
	switch s {
	case "white", "White":
		return board.White, true
	case "black", "Black":
		return board.Black, true
	default:
		return 0, false
	}
}

func parseWinner(s string) (coordinator.Winner, bool) {
	switch s {
	case "white", "White":
		return coordinator.WhiteWinner, true
	case "black", "Black":
		return coordinator.BlackWinner, true
	case "draw", "Draw":
		return coordinator.DrawWinner, true
	default:
		return coordinator.NoWinner, false
	}
}

type resetPayload struct {
	Room string `json:"room"`
}

type voteResetPayload struct {
	Room  string `json:"room"`
	Color string `json:"color"`
}

type chatPayload struct {
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// finishGamePayload backs the legacy manual-end event. moves is
// accepted only for its length (a move count to log), never trusted
// as authoritative game state.
type finishGamePayload struct {
	Room   string          `json:"room"`
	Winner string          `json:"winner"`
	Board  json.RawMessage `json:"board,omitempty"`
	Moves  []json.RawMessage `json:"moves,omitempty"`
}

type getGameStatePayload struct {
	Room string `json:"room"`
}

// Server -> client payload shapes that aren't just a coordinator.Snapshot.

type moveErrorPayload struct {
	Message       string `json:"message"`
	ExpectedBoard string `json:"expectedBoard,omitempty"`
	ActualBoard   string `json:"actualBoard,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type lobbyEntryWire struct {
	Room      string `json:"room"`
	Host      string `json:"host"`
	IsPrivate bool   `json:"is_private"`
	CreatedAt string `json:"createdAt"`
}

type playerEventPayload struct {
	Color    string `json:"color"`
	Username string `json:"username"`
}

type resetVotesPayload struct {
	Votes map[string]bool `json:"votes"`
}
