package board

import "testing"

func TestNewStandardBoard_PieceCount(t *testing.T) {
	b := NewStandardBoard()
	count := 0
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if b.Squares[r][c] != nil {
				count++
			}
		}
	}
	if count != 32 {
		t.Fatalf("expected 32 pieces, got %d", count)
	}
	if _, ok := b.FindKing(White); !ok {
		t.Fatalf("expected a white king")
	}
	if _, ok := b.FindKing(Black); !ok {
		t.Fatalf("expected a black king")
	}
}

func TestLegalMoves_OpeningPawnPush(t *testing.T) {
	b := NewStandardBoard()
	moves, err := LegalMoves(b, Square{6, 4}) // e2
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	want := map[Square]bool{{5, 4}: true, {4, 4}: true}
	if len(moves) != 2 {
		t.Fatalf("expected 2 opening pawn moves, got %d: %v", len(moves), moves)
	}
	for _, m := range moves {
		if !want[m] {
			t.Fatalf("unexpected move %v", m)
		}
	}
}

func TestApplyMove_SimplePawnPush(t *testing.T) {
	b := NewStandardBoard()
	next, applied, err := ApplyMove(b, White, Move{From: Square{6, 4}, To: Square{4, 4}})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if next.Get(Square{4, 4}) == nil || next.Get(Square{4, 4}).ID != "P5" {
		t.Fatalf("expected P5 on e4")
	}
	if next.EnPassantTarget == nil || *next.EnPassantTarget != (Square{5, 4}) {
		t.Fatalf("expected en passant target e3, got %v", next.EnPassantTarget)
	}
	if applied.Captured != nil {
		t.Fatalf("expected no capture")
	}
	// original board must be untouched
	if b.Get(Square{6, 4}) == nil {
		t.Fatalf("ApplyMove must not mutate its input board")
	}
}

func TestApplyMove_EnPassantCaptureRemovesPassedPawn(t *testing.T) {
	b := NewEmptyBoard()
	b.Squares[7][4] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[0][4] = &Piece{Kind: King, Color: Black, ID: "k1"}
	b.Squares[4][4] = &Piece{Kind: Pawn, Color: White, ID: "P1"} // e4, just double-pushed
	b.Squares[4][3] = &Piece{Kind: Pawn, Color: Black, ID: "p1"} // d4
	target := Square{5, 4}                                      // e3
	b.EnPassantTarget = &target

	next, applied, err := ApplyMove(b, Black, Move{From: Square{4, 3}, To: Square{5, 4}})
	if err != nil {
		t.Fatalf("ApplyMove en passant: %v", err)
	}
	if !applied.EnPassant {
		t.Fatalf("expected Applied.EnPassant=true")
	}
	if applied.Captured == nil || applied.Captured.ID != "P1" {
		t.Fatalf("expected the passed-over pawn P1 to be captured, got %v", applied.Captured)
	}
	if next.Get(Square{4, 4}) != nil {
		t.Fatalf("expected the captured pawn removed from e4")
	}
	if next.Get(Square{5, 4}) == nil || next.Get(Square{5, 4}).ID != "p1" {
		t.Fatalf("expected the capturing pawn to land on e3")
	}
	if next.EnPassantTarget != nil {
		t.Fatalf("expected the en passant target cleared on the very next ply, got %v", next.EnPassantTarget)
	}
}

func TestApplyMove_EnPassantTargetClearsEvenWhenUnused(t *testing.T) {
	b := NewEmptyBoard()
	b.Squares[7][4] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[0][4] = &Piece{Kind: King, Color: Black, ID: "k1"}
	b.Squares[4][4] = &Piece{Kind: Pawn, Color: White, ID: "P1"}
	target := Square{5, 4}
	b.EnPassantTarget = &target

	// Black moves the king instead of capturing en passant.
	next, _, err := ApplyMove(b, Black, Move{From: Square{0, 4}, To: Square{0, 3}})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if next.EnPassantTarget != nil {
		t.Fatalf("expected the unused en passant target to clear on the next ply, got %v", next.EnPassantTarget)
	}
}

func TestApplyMove_RejectsSelfCheck(t *testing.T) {
	b := NewEmptyBoard()
	b.Squares[7][4] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[6][4] = &Piece{Kind: Rook, Color: White, ID: "R1"} // pinned, blocking e-file check
	b.Squares[0][4] = &Piece{Kind: Rook, Color: Black, ID: "r1"}
	b.Squares[0][0] = &Piece{Kind: King, Color: Black, ID: "k1"}

	_, _, err := ApplyMove(b, White, Move{From: Square{6, 4}, To: Square{6, 0}})
	if err != ErrIllegalMove {
		t.Fatalf("expected ErrIllegalMove for a pinned rook moving off the file, got %v", err)
	}
}

func TestApplyMove_PromotionRequiresChoice(t *testing.T) {
	b := NewEmptyBoard()
	b.Squares[7][4] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[0][4] = &Piece{Kind: King, Color: Black, ID: "k1"}
	b.Squares[1][0] = &Piece{Kind: Pawn, Color: White, ID: "P1"}
	_, _, err := ApplyMove(b, White, Move{From: Square{1, 0}, To: Square{0, 0}})
	if err != ErrPromotionRequired {
		t.Fatalf("expected ErrPromotionRequired, got %v", err)
	}

	_, applied, err := ApplyMove(b, White, Move{From: Square{1, 0}, To: Square{0, 0}, HasPromo: true, Promotion: Queen})
	if err != nil {
		t.Fatalf("ApplyMove with explicit promotion: %v", err)
	}
	if !applied.Promoted {
		t.Fatalf("expected Promoted=true")
	}
}

func TestCastling_RightsClearOnce(t *testing.T) {
	b := NewEmptyBoard()
	b.Squares[7][4] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[7][7] = &Piece{Kind: Rook, Color: White, ID: "R2"}
	b.Squares[0][4] = &Piece{Kind: King, Color: Black, ID: "k1"}
	b.CastlingRights.White = CastleSide{K: true, Q: true}

	next, applied, err := ApplyMove(b, White, Move{From: Square{7, 4}, To: Square{7, 6}})
	if err != nil {
		t.Fatalf("ApplyMove castle: %v", err)
	}
	if applied.Castle != Kingside {
		t.Fatalf("expected Kingside castle, got %v", applied.Castle)
	}
	if next.CastlingRights.White.K || next.CastlingRights.White.Q {
		t.Fatalf("expected both white castling rights cleared after castling")
	}
	if next.Get(Square{7, 5}) == nil || next.Get(Square{7, 5}).Kind != Rook {
		t.Fatalf("expected rook to land on f1")
	}
}

func TestClassify_Checkmate(t *testing.T) {
	// classic back-rank mate: white king on h1 boxed in by its own
	// pawns on g2 and h2, black queen on a1 checking along the first
	// rank, white has no escape.
	b := NewEmptyBoard()
	b.Squares[7][7] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[6][6] = &Piece{Kind: Pawn, Color: White, ID: "P7"}
	b.Squares[6][7] = &Piece{Kind: Pawn, Color: White, ID: "P8"}
	b.Squares[0][0] = &Piece{Kind: King, Color: Black, ID: "k1"}
	b.Squares[7][0] = &Piece{Kind: Queen, Color: Black, ID: "q1"}

	status := Classify(b, White)
	if status != StatusCheckmate {
		t.Fatalf("expected checkmate, got %v", status)
	}
}

func TestIsInsufficientMaterial_KingVsKing(t *testing.T) {
	b := NewEmptyBoard()
	b.Squares[7][4] = &Piece{Kind: King, Color: White, ID: "K1"}
	b.Squares[0][4] = &Piece{Kind: King, Color: Black, ID: "k1"}
	if !IsInsufficientMaterial(b) {
		t.Fatalf("expected king vs king to be insufficient material")
	}
}
