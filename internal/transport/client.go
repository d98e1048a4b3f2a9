package transport

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"twofold-chess/internal/board"
	"twofold-chess/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one upgraded websocket connection, bound to exactly one
// room for its whole lifetime. Grounded on the teacher's per-socket
// Client (readPump/writePump, ping/pong keepalive, buffered send
// channel); generalized so the room a client belongs to is fixed by
// the upgrade route instead of looked up per message.
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	manager   *session.Manager
	logger    *zap.Logger
	sessionID string
	roomID    string
	username  string
	send      chan []byte
}

// Server wires the transport adapter to an http.Handler. ServeWS is
// registered at `/ws/rooms/{roomId}`.
type Server struct {
	hub     *Hub
	manager *session.Manager
	logger  *zap.Logger
}

func NewServer(hub *Hub, manager *session.Manager, logger *zap.Logger) *Server {
	return &Server{hub: hub, manager: manager, logger: logger}
}

// ServeWS upgrades the HTTP request to a websocket connection and
// starts the client's read/write pumps. The room id in the URL fixes
// which room's broadcasts the socket receives for its entire lifetime,
// and is the room used for `join` and `move`. The other room-scoped
// events (`reset`, `vote_reset`, `chat_message`, `finish_game`,
// `get_game_state`, `leave_lobby`) act on the room named in their own
// payload.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("ws_upgrade_failed", zap.Error(err))
		}
		return
	}

	sid, err := newSessionID()
	if err != nil {
		conn.Close()
		return
	}

	c := &Client{
		conn:      conn,
		hub:       s.hub,
		manager:   s.manager,
		logger:    s.logger,
		sessionID: sid,
		roomID:    roomID,
		send:      make(chan []byte, sendBufferSize),
	}

	s.hub.JoinRoom(roomID, c)

	go c.writePump()
	go c.readPump()
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// deliver enqueues data for this client's writePump, dropping the
// connection instead of blocking the hub if the client is too far
// behind to keep up.
func (c *Client) deliver(data []byte) {
	select {
	case c.send <- data:
	default:
		c.conn.Close()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer c.onDisconnect()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) onDisconnect() {
	c.hub.Remove(c)
	c.conn.Close()
	if c.username != "" {
		c.manager.Disconnect(c.roomID, c.sessionID)
		c.hub.BroadcastToRoom(c.roomID, "player_disconnected", playerEventPayload{Username: c.username})
	}
}

func (c *Client) handleMessage(data []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("malformed message")
		return
	}

	switch env.Type {
	case "join":
		c.handleJoin(env.Payload)
	case "create_lobby":
		c.handleCreateLobby(env.Payload)
	case "get_lobbies":
		c.handleGetLobbies()
	case "leave_lobby":
		c.handleLeaveLobby(env.Payload)
	case "move":
		c.handleMove(env.Payload)
	case "reset":
		c.handleReset(env.Payload)
	case "vote_reset":
		c.handleVoteReset(env.Payload)
	case "chat_message":
		c.handleChat(env.Payload)
	case "finish_game":
		c.handleFinishGame(env.Payload)
	case "get_game_state":
		c.handleGetGameState(env.Payload)
	default:
		c.sendError("unknown event type: " + env.Type)
	}
}

func (c *Client) sendError(message string) {
	c.hub.SendToSession(c.sessionID, "error", errorPayload{Message: message})
}

func (c *Client) handleJoin(raw json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Username == "" {
		c.sendError("invalid join payload")
		return
	}

	room, color, isNewGame, err := c.manager.Join(c.sessionID, p.Username, c.roomID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.username = p.Username

	c.hub.SendToSession(c.sessionID, "game_state", room.Game.Snapshot())
	c.hub.BroadcastToRoom(c.roomID, "player_joined", playerEventPayload{Color: color.String(), Username: p.Username})
	if isNewGame {
		c.hub.BroadcastToRoom(c.roomID, "game_start", room.Game.Snapshot())
	}
}

func (c *Client) handleCreateLobby(raw json.RawMessage) {
	var p createLobbyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomID == "" {
		c.sendError("invalid create_lobby payload")
		return
	}
	if err := c.manager.CreateLobby(p.RoomID, p.Host, p.IsPrivate); err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.SendToSession(c.sessionID, "lobby_created", lobbyEntryWire{Room: p.RoomID, Host: p.Host, IsPrivate: p.IsPrivate})
}

func (c *Client) handleGetLobbies() {
	lobbies := c.manager.GetLobbies()
	wire := make([]lobbyEntryWire, 0, len(lobbies))
	for _, l := range lobbies {
		wire = append(wire, lobbyEntryWire{
			Room:      l.Room,
			Host:      l.Host,
			IsPrivate: l.IsPrivate,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}
	c.hub.SendToSession(c.sessionID, "lobby_list", wire)
}

func (c *Client) handleLeaveLobby(raw json.RawMessage) {
	var p leaveLobbyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid leave_lobby payload")
		return
	}
	c.manager.Leave(p.RoomID, c.sessionID)
	c.hub.BroadcastToRoom(p.RoomID, "player_left", playerEventPayload{Username: p.Username})
}

func (c *Client) handleMove(raw json.RawMessage) {
	var p movePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid move payload")
		return
	}

	boardName, ok := parseBoardName(p.BoardType)
	if !ok {
		c.sendError("invalid board type: " + p.BoardType)
		return
	}

	mv, err := p.Move.toBoardMove()
	if err != nil {
		c.sendError(err.Error())
		return
	}

	color, ok := c.colorInRoom()
	if !ok {
		c.sendError("not a player in this room")
		return
	}

	res, err := c.manager.SubmitMove(c.roomID, color, boardName, mv)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if !res.OK {
		c.hub.SendToSession(c.sessionID, "move_error", moveErrorPayload{
			Message:       string(res.Err.Reason),
			ExpectedBoard: res.Err.ExpectedBoard.String(),
			ActualBoard:   p.BoardType,
		})
		return
	}
	// The manager already broadcasts game_update on success; nothing
	// further to send here.
}

func (c *Client) handleReset(raw json.RawMessage) {
	var p resetPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid reset payload")
		return
	}
	if err := c.manager.ResetLocal(p.Room); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleVoteReset(raw json.RawMessage) {
	var p voteResetPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid vote_reset payload")
		return
	}
	color, ok := parseColor(p.Color)
	if !ok {
		c.sendError("invalid color: " + p.Color)
		return
	}
	if _, err := c.manager.VoteReset(p.Room, color); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleChat(raw json.RawMessage) {
	var p chatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid chat_message payload")
		return
	}
	if err := c.manager.Chat(p.Room, p.Sender, p.Message); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleFinishGame(raw json.RawMessage) {
	var p finishGamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid finish_game payload")
		return
	}
	winner, ok := parseWinner(p.Winner)
	if !ok {
		c.sendError("invalid winner: " + p.Winner)
		return
	}
	if err := c.manager.FinishGame(p.Room, winner, len(p.Moves)); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleGetGameState(raw json.RawMessage) {
	var p getGameStatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.sendError("invalid get_game_state payload")
		return
	}
	g, err := c.manager.GameState(p.Room)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.SendToSession(c.sessionID, "game_state", g.Snapshot())
}

// colorInRoom resolves the caller's color from the room's member
// table rather than trusting a client-declared color on the move
// payload.
func (c *Client) colorInRoom() (board.Color, bool) {
	return c.manager.ColorOf(c.roomID, c.sessionID)
}
