package board

import "errors"

// Errors surfaced by ApplyMove and LegalMoves. The coordinator
// translates these into its own Reason enum at the room boundary.
var (
	ErrNoSuchPiece        = errors.New("no piece at source square")
	ErrNotYourPiece        = errors.New("piece does not belong to mover")
	ErrIllegalMove         = errors.New("destination is not a legal move for this piece")
	ErrMovesIntoCheck      = errors.New("move leaves mover's king in check")
	ErrPromotionRequired   = errors.New("promotion requires an explicit piece choice")
	ErrInvalidPromotion    = errors.New("promotion piece must be queen, rook, bishop, or knight")
)

// CastleDir names a castling side for a requested move.
type CastleDir int

const (
	NoCastle CastleDir = iota
	Kingside
	Queenside
)

// Move is a fully-specified move request against one board.
type Move struct {
	From, To  Square
	Promotion Kind // meaningful only when the move reaches the back rank
	HasPromo  bool
}

// Applied describes what happened when a move was applied, for
// notation generation and the capture mirror.
type Applied struct {
	Move           Move
	Piece          *Piece
	Captured       *Piece // nil if no capture
	CapturedSquare Square // valid only if Captured != nil
	EnPassant      bool
	Castle         CastleDir
	Promoted       bool
}

// LegalMoves returns the squares a piece at from may legally move to:
// pseudo-legal moves filtered by "does not leave the mover's own king
// in check", plus castling destinations when eligible.
func LegalMoves(b *Board, from Square) ([]Square, error) {
	p := b.Get(from)
	if p == nil {
		return nil, ErrNoSuchPiece
	}

	candidates := PseudoLegalMoves(b, from)
	var legal []Square
	for _, to := range candidates {
		sim := simulateMove(b, from, to, Queen)
		if kingSq, ok := sim.FindKing(p.Color); ok && !AttacksSquare(sim, kingSq, p.Color.Opponent()) {
			legal = append(legal, to)
		}
	}

	if p.Kind == King {
		legal = append(legal, castlingDestinations(b, p.Color)...)
	}

	return legal, nil
}

// IsInCheck reports whether side's king is currently attacked.
func IsInCheck(b *Board, side Color) bool {
	kingSq, ok := b.FindKing(side)
	if !ok {
		return false
	}
	return AttacksSquare(b, kingSq, side.Opponent())
}

// HasAnyLegalMove reports whether side has at least one legal move
// anywhere on the board.
func HasAnyLegalMove(b *Board, side Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.Squares[r][c]
			if p == nil || p.Color != side {
				continue
			}
			moves, err := LegalMoves(b, Square{r, c})
			if err == nil && len(moves) > 0 {
				return true
			}
		}
	}
	return false
}

// GameStatus is the per-board classification HasAnyLegalMove/IsInCheck
// feed into.
type GameStatus int

const (
	StatusActivePlay GameStatus = iota
	StatusCheckmate
	StatusStalemate
)

// Classify reports whether side (to move on this board) is in
// checkmate, stalemate, or still has moves available.
func Classify(b *Board, side Color) GameStatus {
	if HasAnyLegalMove(b, side) {
		return StatusActivePlay
	}
	if IsInCheck(b, side) {
		return StatusCheckmate
	}
	return StatusStalemate
}

// IsInsufficientMaterial reports a standard FIDE insufficient-material
// draw condition: king vs king, king+minor vs king, or king+bishop vs
// king+bishop with same-colored bishops. This is a supplement beyond
// the two statuses Classify names; the coordinator does not call it,
// so no board outcome is ever set from it.
func IsInsufficientMaterial(b *Board) bool {
	var minorsWhite, minorsBlack int
	var bishopSquaresWhite, bishopSquaresBlack []Square
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.Squares[r][c]
			if p == nil || p.Kind == King {
				continue
			}
			switch p.Kind {
			case Bishop:
				if p.Color == White {
					minorsWhite++
					bishopSquaresWhite = append(bishopSquaresWhite, Square{r, c})
				} else {
					minorsBlack++
					bishopSquaresBlack = append(bishopSquaresBlack, Square{r, c})
				}
			case Knight:
				if p.Color == White {
					minorsWhite++
				} else {
					minorsBlack++
				}
			default:
				return false // pawn, rook, or queen present: sufficient material
			}
		}
	}
	if minorsWhite == 0 && minorsBlack == 0 {
		return true
	}
	if minorsWhite <= 1 && minorsBlack == 0 || minorsBlack <= 1 && minorsWhite == 0 {
		return true
	}
	if minorsWhite == 1 && minorsBlack == 1 && len(bishopSquaresWhite) == 1 && len(bishopSquaresBlack) == 1 {
		return squareColor(bishopSquaresWhite[0]) == squareColor(bishopSquaresBlack[0])
	}
	return false
}

func squareColor(sq Square) int {
	return (sq.Row + sq.Col) % 2
}

// simulateMove applies a move on a copy without mutating b, for use
// in legality checks. promotionChoice is only consulted if the move
// reaches the back rank; Queen is used since simulation only cares
// about the resulting king safety, not the final piece kind shown to
// the player.
func simulateMove(b *Board, from, to Square, promotionChoice Kind) *Board {
	sim := b.Copy()
	applyRaw(sim, from, to, promotionChoice, true)
	return sim
}

// ApplyMove validates and applies m against b, returning a new board
// and a description of what happened. b is not mutated.
func ApplyMove(b *Board, side Color, m Move) (*Board, Applied, error) {
	p := b.Get(m.From)
	if p == nil {
		return nil, Applied{}, ErrNoSuchPiece
	}
	if p.Color != side {
		return nil, Applied{}, ErrNotYourPiece
	}

	legal, _ := LegalMoves(b, m.From)
	found := false
	for _, sq := range legal {
		if sq == m.To {
			found = true
			break
		}
	}
	if !found {
		return nil, Applied{}, ErrIllegalMove
	}

	destRow := 0
	if p.Color == Black {
		destRow = 7
	}
	reachesBackRank := p.Kind == Pawn && m.To.Row == destRow
	if reachesBackRank {
		if !m.HasPromo {
			return nil, Applied{}, ErrPromotionRequired
		}
		if m.Promotion != Queen && m.Promotion != Rook && m.Promotion != Bishop && m.Promotion != Knight {
			return nil, Applied{}, ErrInvalidPromotion
		}
	}

	castleDir := castleDirFor(p, m.From, m.To)

	next := b.Copy()
	applied := applyRaw(next, m.From, m.To, m.Promotion, false)
	applied.Move = m
	applied.Castle = castleDir

	if kingSq, ok := next.FindKing(side); ok && AttacksSquare(next, kingSq, side.Opponent()) {
		return nil, Applied{}, ErrMovesIntoCheck
	}

	return next, applied, nil
}

// applyRaw performs the mechanical board mutation for a move already
// known to be pseudo-legal: piece relocation, capture removal,
// castling rook move, en passant pawn removal, promotion, castling
// rights bookkeeping, and en passant target bookkeeping. silent
// disables promotion piece substitution during legality simulation
// (callers there only care about king safety, not the exact result).
func applyRaw(b *Board, from, to Square, promotion Kind, silent bool) Applied {
	p := b.Get(from)
	applied := Applied{Piece: p}

	enPassantCapture := p.Kind == Pawn && b.EnPassantTarget != nil && to == *b.EnPassantTarget && b.Get(to) == nil

	if enPassantCapture {
		capSq := Square{from.Row, to.Col}
		applied.Captured = b.Get(capSq)
		applied.CapturedSquare = capSq
		applied.EnPassant = true
		b.set(capSq, nil)
	} else if target := b.Get(to); target != nil {
		applied.Captured = target
		applied.CapturedSquare = to
	}

	castleDir := castleDirFor(p, from, to)
	if castleDir != NoCastle {
		row := from.Row
		if castleDir == Kingside {
			rook := b.Get(Square{row, 7})
			b.set(Square{row, 7}, nil)
			b.set(Square{row, 5}, rook)
		} else {
			rook := b.Get(Square{row, 0})
			b.set(Square{row, 0}, nil)
			b.set(Square{row, 3}, rook)
		}
	}

	b.set(from, nil)

	destRow := 0
	if p.Color == Black {
		destRow = 7
	}
	if p.Kind == Pawn && to.Row == destRow && !silent {
		promoted := &Piece{Kind: promotion, Color: p.Color, ID: p.ID}
		b.set(to, promoted)
		applied.Promoted = true
	} else if p.Kind == Pawn && to.Row == destRow && silent {
		promoted := &Piece{Kind: Queen, Color: p.Color, ID: p.ID}
		b.set(to, promoted)
	} else {
		b.set(to, p)
	}

	updateCastlingRights(b, p, from, applied.Captured, applied.CapturedSquare)

	if p.Kind == Pawn && abs(to.Row-from.Row) == 2 {
		mid := Square{(from.Row + to.Row) / 2, from.Col}
		b.EnPassantTarget = &mid
	} else {
		b.EnPassantTarget = nil
	}

	return applied
}

func castleDirFor(p *Piece, from, to Square) CastleDir {
	if p == nil || p.Kind != King {
		return NoCastle
	}
	if to.Col-from.Col == 2 {
		return Kingside
	}
	if from.Col-to.Col == 2 {
		return Queenside
	}
	return NoCastle
}

func updateCastlingRights(b *Board, moved *Piece, from Square, captured *Piece, capturedSq Square) {
	clear := func(c Color) *CastleSide { return b.CastlingRights.forColor(c) }

	if moved.Kind == King {
		side := clear(moved.Color)
		side.K, side.Q = false, false
	}
	if moved.Kind == Rook {
		homeRow := 7
		if moved.Color == Black {
			homeRow = 0
		}
		if from.Row == homeRow {
			side := clear(moved.Color)
			if from.Col == 7 {
				side.K = false
			} else if from.Col == 0 {
				side.Q = false
			}
		}
	}
	if captured != nil && captured.Kind == Rook {
		homeRow := 7
		if captured.Color == Black {
			homeRow = 0
		}
		if capturedSq.Row == homeRow {
			side := clear(captured.Color)
			if capturedSq.Col == 7 {
				side.K = false
			} else if capturedSq.Col == 0 {
				side.Q = false
			}
		}
	}
}

// castlingDestinations returns the king's castling target squares
// for side if eligible, per the four preconditions in the rules
// engine spec: right retained, rook present and correct color, path
// clear, and the king not currently/through/into check.
func castlingDestinations(b *Board, side Color) []Square {
	kingSq, ok := b.FindKing(side)
	if !ok {
		return nil
	}
	row := 7
	if side == Black {
		row = 0
	}
	if kingSq != (Square{row, 4}) {
		return nil
	}
	if IsInCheck(b, side) {
		return nil
	}

	rights := b.CastlingRights.forColor(side)
	var out []Square

	tryCastle := func(has bool, rookCol int, pathCols, traverseCols []int) {
		if !has {
			return
		}
		rook := b.Get(Square{row, rookCol})
		if rook == nil || rook.Kind != Rook || rook.Color != side {
			return
		}
		for _, c := range pathCols {
			if b.Get(Square{row, c}) != nil {
				return
			}
		}
		for _, c := range traverseCols {
			if AttacksSquare(b, Square{row, c}, side.Opponent()) {
				return
			}
		}
		out = append(out, Square{row, traverseCols[len(traverseCols)-1]})
	}

	tryCastle(rights.K, 7, []int{5, 6}, []int{5, 6})
	tryCastle(rights.Q, 0, []int{1, 2, 3}, []int{3, 2})

	return out
}
