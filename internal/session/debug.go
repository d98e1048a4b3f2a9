package session

import (
	"fmt"

	"twofold-chess/internal/board"
	"twofold-chess/internal/coordinator"
)

// Scenario names. The first six mirror the preset states the original
// implementation shipped for manual testing; the last three are new
// since that implementation had no castling/en passant/promotion at
// all.
const (
	ScenarioMainWhiteCheckmatesBlack      = "main_white_checkmates_black"
	ScenarioSecondaryBlackCheckmatesWhite = "secondary_black_checkmates_white"
	ScenarioMainStalemateBlackToMove      = "main_stalemate_black_to_move"
	ScenarioSecondaryStalemateWhiteToMove = "secondary_stalemate_white_to_move"
	ScenarioMainBlackInCheck              = "main_black_in_check_black_to_move"
	ScenarioSecondaryWhiteInCheck         = "secondary_white_in_check_white_to_move"
	ScenarioPromotionReady                = "promotion_ready"
	ScenarioCastlingReady                 = "castling_ready"
	ScenarioEnPassantReady                = "en_passant_ready"
)

var ErrUnknownScenario = fmt.Errorf("unknown debug scenario")

// InstallDebugScenario replaces roomID's game with a preset state.
// This is the only non-move path that mutates a game; callers at the
// HTTP boundary are responsible for disabling it outside development
// builds (SPEC_FULL §4.4).
func (m *Manager) InstallDebugScenario(roomID, scenario string) error {
	g, err := buildScenario(scenario)
	if err != nil {
		return err
	}
	room, ok := m.room(roomID)
	if !ok {
		room = m.getOrCreateRoom(roomID, "debug")
	}
	room.touch()
	room.Do(func() {
		room.Game = g
		if m.broadcaster != nil {
			m.broadcaster.BroadcastToRoom(roomID, "game_state", g.Snapshot())
		}
	})
	return nil
}

func buildScenario(name string) (*coordinator.Game, error) {
	g := coordinator.NewGame()
	g.Main = board.NewEmptyBoard()
	g.Secondary = board.NewEmptyBoard()

	switch name {
	case ScenarioMainWhiteCheckmatesBlack:
		// White to deliver back-rank mate on Main; Secondary untouched
		// (standard start) so the game continues there if the mate
		// doesn't end it outright.
		g.Secondary = board.NewStandardBoard()
		b := g.Main
		b.Squares[0][7] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[1][6] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p7"}
		b.Squares[1][7] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p8"}
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[7][0] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R1"}
		g.Turn = board.White
		g.ActivePhase = coordinator.Main

	case ScenarioSecondaryBlackCheckmatesWhite:
		g.Main = board.NewStandardBoard()
		b := g.Secondary
		b.Squares[7][7] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[6][6] = &board.Piece{Kind: board.Pawn, Color: board.White, ID: "P6"}
		b.Squares[6][7] = &board.Piece{Kind: board.Pawn, Color: board.White, ID: "P8"}
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[0][0] = &board.Piece{Kind: board.Rook, Color: board.Black, ID: "r1"}
		g.Turn = board.Black
		g.ActivePhase = coordinator.Secondary

	case ScenarioMainStalemateBlackToMove:
		g.Secondary = board.NewStandardBoard()
		b := g.Main
		b.Squares[0][0] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[2][1] = &board.Piece{Kind: board.Queen, Color: board.White, ID: "Q1"}
		b.Squares[1][7] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		g.Turn = board.Black
		g.ActivePhase = coordinator.Main

	case ScenarioSecondaryStalemateWhiteToMove:
		g.Main = board.NewStandardBoard()
		b := g.Secondary
		b.Squares[7][7] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[5][6] = &board.Piece{Kind: board.Queen, Color: board.Black, ID: "q1"}
		b.Squares[6][0] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		g.Turn = board.White
		g.ActivePhase = coordinator.Secondary

	case ScenarioMainBlackInCheck:
		g.Secondary = board.NewStandardBoard()
		b := g.Main
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[0][0] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R1"}
		g.Turn = board.Black
		g.ActivePhase = coordinator.Main
		g.RespondingToCheckOn = coordinator.Main

	case ScenarioSecondaryWhiteInCheck:
		g.Main = board.NewStandardBoard()
		b := g.Secondary
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[7][0] = &board.Piece{Kind: board.Rook, Color: board.Black, ID: "r1"}
		g.Turn = board.White
		g.ActivePhase = coordinator.Secondary
		g.RespondingToCheckOn = coordinator.Secondary

	case ScenarioPromotionReady:
		g.Secondary = board.NewStandardBoard()
		b := g.Main
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[1][0] = &board.Piece{Kind: board.Pawn, Color: board.White, ID: "P1"}
		g.Turn = board.White
		g.ActivePhase = coordinator.Main

	case ScenarioCastlingReady:
		g.Secondary = board.NewStandardBoard()
		b := g.Main
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[7][7] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R2"}
		b.Squares[7][0] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R1"}
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.CastlingRights.White = board.CastleSide{K: true, Q: true}
		g.Turn = board.White
		g.ActivePhase = coordinator.Main

	case ScenarioEnPassantReady:
		g.Secondary = board.NewStandardBoard()
		b := g.Main
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.Squares[3][4] = &board.Piece{Kind: board.Pawn, Color: board.White, ID: "P5"}
		b.Squares[1][3] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p4"}
		g.Turn = board.Black
		g.ActivePhase = coordinator.Main

	default:
		return nil, ErrUnknownScenario
	}

	return g, nil
}
