package coordinator

import "twofold-chess/internal/board"

// Snapshot is the wire shape broadcast to clients: a full, serialized
// view of Game with no hidden state. Piece encoding follows the
// board package's Cell convention (single letter, case for color,
// pawns keep their numeric id).
type Snapshot struct {
	MainBoard                [8][8]string        `json:"mainBoard"`
	SecondaryBoard           [8][8]string        `json:"secondaryBoard"`
	Turn                     string               `json:"turn"`
	ActiveBoardPhase         string               `json:"active_board_phase"`
	Moves                    []string             `json:"moves"`
	Winner                   string               `json:"winner,omitempty"`
	GameOver                 bool                 `json:"game_over"`
	MainBoardOutcome         string               `json:"main_board_outcome"`
	SecondaryBoardOutcome    string               `json:"secondary_board_outcome"`
	IsRespondingToCheckOnBoard string             `json:"is_responding_to_check_on_board,omitempty"`
	EnPassantTarget          string               `json:"en_passant_target"`
	CastlingRights           castlingRightsWire   `json:"castling_rights"`
	ResetVotes               ResetVotes           `json:"reset_votes"`
}

type castlingRightsWire struct {
	White sideCastleWire `json:"white"`
	Black sideCastleWire `json:"black"`
}

type sideCastleWire struct {
	K bool `json:"k"`
	Q bool `json:"q"`
}

// Snapshot renders the current game state for the wire. Main and
// Secondary can legitimately have different en passant targets and
// castling rights (they are independent boards), but §3's snapshot
// shape carries a single combined view; the active-phase board's
// state is authoritative for both fields, matching what a player
// actually needs to decide their next move.
func (g *Game) Snapshot() Snapshot {
	active := g.boardByName(g.ActivePhase)

	moves := make([]string, 0, len(g.Moves))
	for _, m := range g.Moves {
		moves = append(moves, m.Notation)
	}

	s := Snapshot{
		MainBoard:             board.Grid(g.Main),
		SecondaryBoard:        board.Grid(g.Secondary),
		Turn:                  g.Turn.String(),
		ActiveBoardPhase:      g.ActivePhase.String(),
		Moves:                 moves,
		GameOver:              g.GameOver,
		MainBoardOutcome:      g.Main.Outcome.String(),
		SecondaryBoardOutcome: g.Secondary.Outcome.String(),
		EnPassantTarget:       board.EnPassantCell(active),
		CastlingRights: castlingRightsWire{
			White: sideCastleWire{K: active.CastlingRights.White.K, Q: active.CastlingRights.White.Q},
			Black: sideCastleWire{K: active.CastlingRights.Black.K, Q: active.CastlingRights.Black.Q},
		},
		ResetVotes: g.ResetVotes,
	}

	if g.RespondingToCheckOn != NoBoard {
		s.IsRespondingToCheckOnBoard = g.RespondingToCheckOn.String()
	}

	switch g.Winner {
	case WhiteWinner:
		s.Winner = "white"
	case BlackWinner:
		s.Winner = "black"
	case DrawWinner:
		s.Winner = "draw"
	}

	return s
}
