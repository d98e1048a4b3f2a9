package coordinator

import (
	"testing"

	"twofold-chess/internal/board"
)

func sq(r, c int) board.Square { return board.Square{Row: r, Col: c} }

func mustSubmit(t *testing.T, g *Game, color board.Color, b BoardName, from, to board.Square) Result {
	t.Helper()
	res := g.Submit(color, b, board.Move{From: from, To: to})
	if !res.OK {
		t.Fatalf("expected move %v->%v on %v to succeed, got reason %v", from, to, b, res.Err)
	}
	return res
}

func TestCaptureMirror_MainCaptureRemovesSecondaryByID(t *testing.T) {
	g := NewGame()
	g.Main = board.NewEmptyBoard()
	g.Secondary = board.NewEmptyBoard()
	g.Main.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Main.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Main.Squares[3][2] = &board.Piece{Kind: board.Knight, Color: board.White, ID: "n1"}
	g.Main.Squares[1][1] = &board.Piece{Kind: board.Knight, Color: board.Black, ID: "n2"}

	g.Secondary.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Secondary.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Secondary.Squares[5][5] = &board.Piece{Kind: board.Knight, Color: board.Black, ID: "n2"}

	res := g.Submit(board.White, Main, board.Move{From: sq(3, 2), To: sq(1, 1)})
	if !res.OK {
		t.Fatalf("expected capture to succeed, got %v", res.Err)
	}

	if _, _, ok := g.Secondary.FindByID("n2"); ok {
		t.Fatalf("expected secondary board's n2 to be removed by the capture mirror")
	}
}

func TestCaptureMirror_EnPassantCaptureOnMainMirrorsToSecondary(t *testing.T) {
	g := NewGame()
	g.Main = board.NewEmptyBoard()
	g.Secondary = board.NewEmptyBoard()

	g.Main.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Main.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Main.Squares[4][4] = &board.Piece{Kind: board.Pawn, Color: board.White, ID: "P1"} // e4, just double-pushed
	g.Main.Squares[4][3] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p1"} // d4
	target := board.Square{Row: 5, Col: 4}                                              // e3
	g.Main.EnPassantTarget = &target

	g.Secondary.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Secondary.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Secondary.Squares[1][1] = &board.Piece{Kind: board.Pawn, Color: board.White, ID: "P1"} // mirror, untouched

	g.Turn = board.Black

	res := g.Submit(board.Black, Main, board.Move{From: sq(4, 3), To: sq(5, 4)})
	if !res.OK {
		t.Fatalf("expected en passant capture to succeed, got %v", res.Err)
	}

	if g.Main.Get(sq(4, 4)) != nil {
		t.Fatalf("expected the en-passant-captured pawn removed from Main")
	}
	if _, _, ok := g.Secondary.FindByID("P1"); ok {
		t.Fatalf("expected the mirrored pawn P1 removed from Secondary")
	}
}

func TestCheckGating_MustRespondOnCheckedBoard(t *testing.T) {
	g := NewGame()
	g.Main = board.NewEmptyBoard()
	g.Secondary = board.NewEmptyBoard()
	g.Main.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Main.Squares[0][0] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Main.Squares[7][1] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R1"}

	g.Secondary.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Secondary.Squares[0][0] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Secondary.Squares[6][6] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p7"}

	// White delivers check on Main: rook b1 -> b8, attacking the king
	// along the back rank.
	res := g.Submit(board.White, Main, board.Move{From: sq(7, 1), To: sq(0, 1)})
	if !res.OK {
		t.Fatalf("expected rook move to succeed, got %v", res.Err)
	}
	if g.RespondingToCheckOn != Main {
		t.Fatalf("expected RespondingToCheckOn=Main, got %v", g.RespondingToCheckOn)
	}
	if g.Turn != board.Black {
		t.Fatalf("expected turn to pass to black")
	}

	// Black tries to play on Secondary: must be rejected.
	bad := g.Submit(board.Black, Secondary, board.Move{From: sq(6, 6), To: sq(5, 6)})
	if bad.OK || bad.Err.Reason != ReasonMustRespondToCheckOn {
		t.Fatalf("expected MustRespondToCheckOn, got %+v", bad)
	}
}

func TestCheckGating_EscapingCheckPinsPhaseToSameBoard(t *testing.T) {
	g := NewGame()
	g.Main = board.NewEmptyBoard()
	g.Secondary = board.NewEmptyBoard()
	g.Main.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Main.Squares[0][0] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Main.Squares[7][1] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R1"}

	g.Secondary.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
	g.Secondary.Squares[0][0] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
	g.Secondary.Squares[6][6] = &board.Piece{Kind: board.Pawn, Color: board.Black, ID: "p7"}

	// White delivers check on Main: rook b1 -> b8.
	mustSubmit(t, g, board.White, Main, sq(7, 1), sq(0, 1))
	if g.RespondingToCheckOn != Main {
		t.Fatalf("expected RespondingToCheckOn=Main, got %v", g.RespondingToCheckOn)
	}

	// Black escapes check by moving the king off the back rank, without
	// delivering a check back.
	res := mustSubmit(t, g, board.Black, Main, sq(0, 0), sq(1, 0))
	if res.Game.RespondingToCheckOn != NoBoard {
		t.Fatalf("expected check to clear after escape, got %v", res.Game.RespondingToCheckOn)
	}
	if res.Game.ActivePhase != Main {
		t.Fatalf("expected active phase pinned to Main after escaping check there, got %v", res.Game.ActivePhase)
	}
	if res.Game.Turn != board.White {
		t.Fatalf("expected turn to pass back to white")
	}
}

func TestCastlingOnce_SecondBoardRejected(t *testing.T) {
	g := NewGame()
	g.Main = board.NewEmptyBoard()
	g.Secondary = board.NewEmptyBoard()
	for _, b := range []*board.Board{g.Main, g.Secondary} {
		b.Squares[7][4] = &board.Piece{Kind: board.King, Color: board.White, ID: "K1"}
		b.Squares[7][7] = &board.Piece{Kind: board.Rook, Color: board.White, ID: "R2"}
		b.Squares[0][4] = &board.Piece{Kind: board.King, Color: board.Black, ID: "k1"}
		b.CastlingRights.White = board.CastleSide{K: true, Q: true}
	}

	res := g.Submit(board.White, Main, board.Move{From: sq(7, 4), To: sq(7, 6)})
	if !res.OK {
		t.Fatalf("expected castle to succeed: %v", res.Err)
	}
	if g.Secondary.CastlingRights.White.K || g.Secondary.CastlingRights.White.Q {
		t.Fatalf("expected secondary castling rights cleared immediately after castling on main")
	}

	// advance black and return to white's secondary turn
	g.Turn = board.White
	g.ActivePhase = Secondary
	g.RespondingToCheckOn = NoBoard

	bad := g.Submit(board.White, Secondary, board.Move{From: sq(7, 4), To: sq(7, 6)})
	if bad.OK {
		t.Fatalf("expected second castle attempt to be rejected")
	}
}

func TestResetVote_RequiresBothColors(t *testing.T) {
	g := NewGame()
	if reset := g.RecordResetVote(board.White); reset {
		t.Fatalf("single vote must not reset")
	}
	if !g.ResetVotes.White || g.ResetVotes.Black {
		t.Fatalf("expected only white's vote recorded")
	}
	if reset := g.RecordResetVote(board.Black); !reset {
		t.Fatalf("expected both votes to trigger reset")
	}
	if len(g.Moves) != 0 || g.ResetVotes.White || g.ResetVotes.Black {
		t.Fatalf("expected a clean reset state")
	}
}

func TestSubmit_RejectsWrongTurn(t *testing.T) {
	g := NewGame()
	res := g.Submit(board.Black, Main, board.Move{From: sq(1, 4), To: sq(3, 4)})
	if res.OK || res.Err.Reason != ReasonNotYourTurn {
		t.Fatalf("expected NotYourTurn, got %+v", res)
	}
}

func TestSubmit_PhaseTogglesAfterNonCheckingMove(t *testing.T) {
	g := NewGame()
	res := mustSubmit(t, g, board.White, Main, sq(6, 4), sq(4, 4))
	if res.Game.ActivePhase != Secondary {
		t.Fatalf("expected phase to toggle to Secondary, got %v", g.ActivePhase)
	}
	if g.Turn != board.Black {
		t.Fatalf("expected turn to flip to black")
	}
}
