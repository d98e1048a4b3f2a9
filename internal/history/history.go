// Package history implements the out-of-scope History sink behind
// the narrow interface the session manager calls through
// (session.HistoryRecorder) and the richer read/write surface the
// HTTP API (POST/GET /api/games) needs. Persistence is fire-and-forget
// with bounded retry, grounded on the teacher's audit-log write path:
// a failed write is logged, never surfaced to the players, and never
// blocks the move that triggered it (SPEC_FULL §4.6).
package history

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"twofold-chess/internal/coordinator"
	"twofold-chess/internal/db"
	"twofold-chess/internal/session"
)

// MoveEntry is one persisted ply, flattened out of coordinator.MoveRecord
// for storage in the moves collection.
type MoveEntry struct {
	Board      string `bson:"board" json:"board"`
	Color      string `bson:"color" json:"color"`
	Notation   string `bson:"notation" json:"notation"`
	MoveNumber int    `bson:"moveNumber" json:"moveNumber"`
}

// FinishedGame is the document store's wire/storage shape for a
// completed twofold game.
type FinishedGame struct {
	RoomID                string      `bson:"roomId" json:"roomId"`
	Host                  string      `bson:"host" json:"host"`
	Winner                string      `bson:"winner" json:"winner"`
	MainBoardOutcome      string      `bson:"mainBoardOutcome" json:"mainBoardOutcome"`
	SecondaryBoardOutcome string      `bson:"secondaryBoardOutcome" json:"secondaryBoardOutcome"`
	Moves                 []MoveEntry `bson:"moves" json:"moves"`
	FinishedAt            time.Time   `bson:"finishedAt" json:"finishedAt"`
}

const (
	maxRetries   = 3
	retryBackoff = 200 * time.Millisecond
	writeTimeout = 5 * time.Second
)

// Sink is the Mongo-backed implementation of the History sink. It
// satisfies session.HistoryRecorder.
type Sink struct {
	db     *db.MongoDB
	logger *zap.Logger
}

func NewSink(database *db.MongoDB, logger *zap.Logger) *Sink {
	return &Sink{db: database, logger: logger}
}

// SaveFinishedGame implements session.HistoryRecorder. The manager
// already dispatches this call with `go` from the room actor, so a
// slow or retried Mongo write can never be mistaken for a failure of
// the move that ended the game.
func (s *Sink) SaveFinishedGame(room *session.Room, g *coordinator.Game) {
	fg := toFinishedGame(room, g)
	go s.persistWithRetry(fg)
}

func toFinishedGame(room *session.Room, g *coordinator.Game) *FinishedGame {
	winner := "none"
	switch g.Winner {
	case coordinator.WhiteWinner:
		winner = "white"
	case coordinator.BlackWinner:
		winner = "black"
	case coordinator.DrawWinner:
		winner = "draw"
	}

	moves := make([]MoveEntry, 0, len(g.Moves))
	for i, m := range g.Moves {
		moves = append(moves, MoveEntry{
			Board:      m.Board.String(),
			Color:      m.Color.String(),
			Notation:   m.Notation,
			MoveNumber: i + 1,
		})
	}

	return &FinishedGame{
		RoomID:                room.ID,
		Host:                  room.Host,
		Winner:                winner,
		MainBoardOutcome:      g.Main.Outcome.String(),
		SecondaryBoardOutcome: g.Secondary.Outcome.String(),
		Moves:                 moves,
		FinishedAt:            time.Now(),
	}
}

func (s *Sink) persistWithRetry(fg *FinishedGame) {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = s.write(ctx, fg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(retryBackoff * time.Duration(attempt+1))
	}
	if s.logger != nil {
		s.logger.Error("history_persist_failed",
			zap.String("room_id", fg.RoomID),
			zap.Int("attempts", maxRetries),
			zap.Error(err))
	}
}

func (s *Sink) write(ctx context.Context, fg *FinishedGame) error {
	if _, err := s.db.Games().InsertOne(ctx, fg); err != nil {
		return err
	}
	if len(fg.Moves) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(fg.Moves))
	for _, m := range fg.Moves {
		docs = append(docs, bson.M{
			"roomId":     fg.RoomID,
			"board":      m.Board,
			"color":      m.Color,
			"notation":   m.Notation,
			"moveNumber": m.MoveNumber,
		})
	}
	_, err := s.db.Moves().InsertMany(ctx, docs)
	return err
}

// RecordManual persists a caller-declared result for the legacy
// `finish_game` event. The client-supplied board/move payload is
// advisory only (SPEC_FULL §9); only the declared winner and move
// count are trusted enough to log, and even those never feed back
// into gameplay state.
func (s *Sink) RecordManual(ctx context.Context, roomID, winner string, moveCount int) error {
	_, err := s.db.Games().InsertOne(ctx, bson.M{
		"roomId":     roomID,
		"winner":     winner,
		"moveCount":  moveCount,
		"finishedAt": time.Now(),
		"manual":     true,
	})
	return err
}

// ListGames returns the most recently finished games, newest first.
func (s *Sink) ListGames(ctx context.Context, limit int) ([]*FinishedGame, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "finishedAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.db.Games().Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*FinishedGame
	for cur.Next(ctx) {
		var fg FinishedGame
		if err := cur.Decode(&fg); err != nil {
			continue
		}
		out = append(out, &fg)
	}
	return out, cur.Err()
}
