package board

// PseudoLegalMoves returns the squares a piece at from could move to
// ignoring whether the move leaves its own king in check. Castling is
// produced by the rules engine (LegalMoves), not here.
func PseudoLegalMoves(b *Board, from Square) []Square {
	p := b.Get(from)
	if p == nil {
		return nil
	}
	switch p.Kind {
	case Pawn:
		return pawnMoves(b, from, p.Color)
	case Knight:
		return knightMoves(b, from, p.Color)
	case Bishop:
		return rayMoves(b, from, p.Color, diagonalDirs)
	case Rook:
		return rayMoves(b, from, p.Color, cardinalDirs)
	case Queen:
		return rayMoves(b, from, p.Color, append(append([]Square{}, cardinalDirs...), diagonalDirs...))
	case King:
		return kingMoves(b, from, p.Color)
	}
	return nil
}

var cardinalDirs = []Square{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
var diagonalDirs = []Square{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
var knightOffsets = []Square{
	{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
	{1, -2}, {1, 2}, {2, -1}, {2, 1},
}

func pawnMoves(b *Board, from Square, c Color) []Square {
	var dir, startRow int
	if c == White {
		dir, startRow = -1, 6
	} else {
		dir, startRow = 1, 1
	}

	var out []Square

	one := Square{from.Row + dir, from.Col}
	if one.InBounds() && b.Get(one) == nil {
		out = append(out, one)
		two := Square{from.Row + 2*dir, from.Col}
		if from.Row == startRow && b.Get(two) == nil {
			out = append(out, two)
		}
	}

	for _, dc := range []int{-1, 1} {
		diag := Square{from.Row + dir, from.Col + dc}
		if !diag.InBounds() {
			continue
		}
		if target := b.Get(diag); target != nil && target.Color != c {
			out = append(out, diag)
		} else if b.EnPassantTarget != nil && diag == *b.EnPassantTarget {
			out = append(out, diag)
		}
	}

	return out
}

func knightMoves(b *Board, from Square, c Color) []Square {
	var out []Square
	for _, off := range knightOffsets {
		to := Square{from.Row + off.Row, from.Col + off.Col}
		if !to.InBounds() {
			continue
		}
		if target := b.Get(to); target == nil || target.Color != c {
			out = append(out, to)
		}
	}
	return out
}

func kingMoves(b *Board, from Square, c Color) []Square {
	var out []Square
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			to := Square{from.Row + dr, from.Col + dc}
			if !to.InBounds() {
				continue
			}
			if target := b.Get(to); target == nil || target.Color != c {
				out = append(out, to)
			}
		}
	}
	return out
}

func rayMoves(b *Board, from Square, c Color, dirs []Square) []Square {
	var out []Square
	for _, d := range dirs {
		for step := 1; step < 8; step++ {
			to := Square{from.Row + d.Row*step, from.Col + d.Col*step}
			if !to.InBounds() {
				break
			}
			target := b.Get(to)
			if target == nil {
				out = append(out, to)
				continue
			}
			if target.Color != c {
				out = append(out, to)
			}
			break
		}
	}
	return out
}

// AttacksSquare reports whether any piece of byColor pseudo-legally
// attacks sq. Pawn attacks are diagonal-only (no forward pushes), and
// this never recurses through legality filtering, so it is safe to
// call from inside LegalMoves' self-check simulation.
func AttacksSquare(b *Board, sq Square, byColor Color) bool {
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.Squares[r][c]
			if p == nil || p.Color != byColor {
				continue
			}
			from := Square{r, c}
			if pieceAttacks(b, from, p, sq) {
				return true
			}
		}
	}
	return false
}

func pieceAttacks(b *Board, from Square, p *Piece, sq Square) bool {
	switch p.Kind {
	case Pawn:
		dir := -1
		if p.Color == Black {
			dir = 1
		}
		return sq.Row == from.Row+dir && (sq.Col == from.Col-1 || sq.Col == from.Col+1)
	case Knight:
		for _, off := range knightOffsets {
			if sq == (Square{from.Row + off.Row, from.Col + off.Col}) {
				return true
			}
		}
		return false
	case King:
		dr, dc := abs(sq.Row-from.Row), abs(sq.Col-from.Col)
		return dr <= 1 && dc <= 1 && (dr != 0 || dc != 0)
	case Bishop:
		return rayAttacks(b, from, sq, diagonalDirs)
	case Rook:
		return rayAttacks(b, from, sq, cardinalDirs)
	case Queen:
		return rayAttacks(b, from, sq, diagonalDirs) || rayAttacks(b, from, sq, cardinalDirs)
	}
	return false
}

func rayAttacks(b *Board, from, sq Square, dirs []Square) bool {
	for _, d := range dirs {
		for step := 1; step < 8; step++ {
			to := Square{from.Row + d.Row*step, from.Col + d.Col*step}
			if !to.InBounds() {
				break
			}
			if to == sq {
				return true
			}
			if b.Get(to) != nil {
				break
			}
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
