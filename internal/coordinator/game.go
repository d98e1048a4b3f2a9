// Package coordinator implements the twofold coordinator (C3): it
// couples two board.Board instances, mirrors captures between them,
// gates check responses to the board the check occurred on, and
// drives the turn/phase state machine described by the per-move
// algorithm in the specification.
package coordinator

import (
	"time"

	"twofold-chess/internal/board"
)

// BoardName identifies one of the two coupled boards.
type BoardName int

const (
	Main BoardName = iota
	Secondary
	NoBoard
)

func (n BoardName) String() string {
	switch n {
	case Main:
		return "main"
	case Secondary:
		return "secondary"
	default:
		return "none"
	}
}

// Winner is the game's overall result once GameOver is set.
type Winner int

const (
	NoWinner Winner = iota
	WhiteWinner
	BlackWinner
	DrawWinner
)

// MoveRecord is one human-readable entry in the game's move log.
type MoveRecord struct {
	Board     BoardName
	Color     board.Color
	Notation  string
	From, To  board.Square
	Timestamp time.Time
}

// ResetVotes tracks each color's vote to restart a finished or
// in-progress multiplayer game.
type ResetVotes struct {
	White, Black bool
}

// Game is the two-board coupling described by the data model: two
// boards, whose turn it is, which board is active, whether a check
// response is pending, and the accumulated move log and outcome.
type Game struct {
	Main, Secondary     *board.Board
	Turn                board.Color
	ActivePhase         BoardName
	RespondingToCheckOn BoardName
	Moves               []MoveRecord
	Winner              Winner
	GameOver            bool
	ResetVotes          ResetVotes

	// castledOnce tracks whether each color has castled on either
	// board this game: "castling is only permitted on one board per
	// game per side" (§4.3).
	castledOnce map[board.Color]bool
}

// NewGame returns a freshly initialized Game: standard start position
// duplicated on both boards, White to move on Main.
func NewGame() *Game {
	return &Game{
		Main:                board.NewStandardBoard(),
		Secondary:           board.NewStandardBoard(),
		Turn:                board.White,
		ActivePhase:         Main,
		RespondingToCheckOn: NoBoard,
		castledOnce:         map[board.Color]bool{},
	}
}

func (g *Game) boardByName(n BoardName) *board.Board {
	if n == Main {
		return g.Main
	}
	return g.Secondary
}

func (g *Game) setBoard(n BoardName, b *board.Board) {
	if n == Main {
		g.Main = b
	} else {
		g.Secondary = b
	}
}

func (g *Game) otherBoard(n BoardName) BoardName {
	if n == Main {
		return Secondary
	}
	return Main
}
