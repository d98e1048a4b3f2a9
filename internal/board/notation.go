package board

import "fmt"

// Notation renders a move in a short algebraic-like form for the
// human-readable move log. It is deliberately simpler than full SAN
// disambiguation since the move log is descriptive, not a
// re-parseable record (From/To squares on the MoveRecord serve that).
// checkmate/inCheck describe the opponent's status after the move.
func Notation(applied Applied, checkmate, inCheck bool) string {
	p := applied.Piece

	if applied.Castle == Kingside {
		return suffixFor(checkmate, inCheck, "O-O")
	}
	if applied.Castle == Queenside {
		return suffixFor(checkmate, inCheck, "O-O-O")
	}

	letter := pieceLetter(p.Kind)
	capture := ""
	if applied.Captured != nil {
		capture = "x"
		if p.Kind == Pawn && letter == "" {
			letter = string(rune('a' + applied.Move.From.Col))
		}
	}

	promo := ""
	if applied.Promoted {
		promo = "=" + pieceLetter(applied.Promotion())
	}

	move := fmt.Sprintf("%s%s%s%s", letter, capture, applied.Move.To.String(), promo)
	if applied.EnPassant {
		move += " e.p."
	}
	return suffixFor(checkmate, inCheck, move)
}

func (a Applied) Promotion() Kind {
	if a.Move.HasPromo {
		return a.Move.Promotion
	}
	return Queen
}

// ParsePromotionKind maps a client-supplied promotion letter
// ("Q", "R", "B", "N") to a Kind. Used only to decode a move request.
func ParsePromotionKind(letter string) (Kind, bool) {
	switch letter {
	case "Q", "q":
		return Queen, true
	case "R", "r":
		return Rook, true
	case "B", "b":
		return Bishop, true
	case "N", "n":
		return Knight, true
	default:
		return 0, false
	}
}

func pieceLetter(k Kind) string {
	switch k {
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

func suffixFor(checkmate, inCheck bool, move string) string {
	if checkmate {
		return move + "#"
	}
	if inCheck {
		return move + "+"
	}
	return move
}
