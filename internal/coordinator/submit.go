package coordinator

import (
	"errors"
	"time"

	"twofold-chess/internal/board"
)

// Reason names why a submitted move was rejected, per §4.3's output
// contract.
type Reason string

const (
	ReasonNotYourTurn           Reason = "NotYourTurn"
	ReasonWrongBoard            Reason = "WrongBoard"
	ReasonMustRespondToCheckOn  Reason = "MustRespondToCheckOn"
	ReasonNoSuchPiece           Reason = "NoSuchPiece"
	ReasonMovesIntoCheck        Reason = "MovesIntoCheck"
	ReasonDestinationBlocked    Reason = "DestinationBlocked"
	ReasonPathBlocked           Reason = "PathBlocked"
	ReasonGameOver              Reason = "GameOver"
	ReasonPromotionRequired     Reason = "PromotionRequired"
)

// IllegalMoveError carries a Reason and, for MustRespondToCheckOn,
// the board the defender must play on.
type IllegalMoveError struct {
	Reason         Reason
	ExpectedBoard  BoardName
}

func (e *IllegalMoveError) Error() string {
	return string(e.Reason)
}

// Result is the outcome of a Submit call: either an accepted move
// (with a pointer to the game itself, as it stands after the move) or
// a rejection.
type Result struct {
	OK       bool
	Game     *Game
	Err      *IllegalMoveError
}

// Submit attempts to play move on boardName as color. It implements
// the nine-step per-move algorithm: turn/board/check-gate validation,
// delegation to the rules engine, the capture mirror, per-board
// outcome re-evaluation, and the phase/turn transition.
func (g *Game) Submit(color board.Color, boardName BoardName, mv board.Move) Result {
	if g.GameOver {
		return reject(ReasonGameOver, NoBoard)
	}
	if color != g.Turn {
		return reject(ReasonNotYourTurn, NoBoard)
	}

	if g.RespondingToCheckOn != NoBoard && boardName != g.RespondingToCheckOn {
		return reject(ReasonMustRespondToCheckOn, g.RespondingToCheckOn)
	}

	if boardName != g.ActivePhase {
		other := g.otherBoard(g.ActivePhase)
		phaseBoard := g.boardByName(g.ActivePhase)
		if !(phaseBoard.Outcome != board.Active && boardName == other && g.boardByName(other).Outcome == board.Active) {
			return reject(ReasonWrongBoard, g.ActivePhase)
		}
	}

	pre := g.boardByName(boardName)
	next, applied, err := board.ApplyMove(pre, color, mv)
	if err != nil {
		return Result{OK: false, Err: translateErr(err, g.ActivePhase)}
	}

	if applied.Castle != board.NoCastle {
		if g.castledOnce[color] {
			// should have been rejected already by rights clearing, but
			// guard explicitly per the "once per game" rule.
			return reject(ReasonPathBlocked, boardName)
		}
		g.castledOnce[color] = true
		g.clearCastlingRightsBothBoards(color)
	}

	g.setBoard(boardName, next)

	g.applyCaptureMirror(boardName, applied)

	opponent := color.Opponent()
	mainStatus, secondaryStatus := g.reevaluateOutcomes(color, opponent)

	deliveredCheckOn := g.determineCheckBoard(mainStatus, secondaryStatus)

	g.recordMove(boardName, color, applied, mainStatus, secondaryStatus)

	g.transition(boardName, color, opponent, deliveredCheckOn)

	return Result{OK: true, Game: g}
}

func reject(reason Reason, expected BoardName) Result {
	return Result{OK: false, Err: &IllegalMoveError{Reason: reason, ExpectedBoard: expected}}
}

func translateErr(err error, expected BoardName) *IllegalMoveError {
	switch {
	case errors.Is(err, board.ErrNoSuchPiece), errors.Is(err, board.ErrNotYourPiece):
		return &IllegalMoveError{Reason: ReasonNoSuchPiece, ExpectedBoard: expected}
	case errors.Is(err, board.ErrMovesIntoCheck):
		return &IllegalMoveError{Reason: ReasonMovesIntoCheck, ExpectedBoard: expected}
	case errors.Is(err, board.ErrPromotionRequired), errors.Is(err, board.ErrInvalidPromotion):
		return &IllegalMoveError{Reason: ReasonPromotionRequired, ExpectedBoard: expected}
	case errors.Is(err, board.ErrIllegalMove):
		return &IllegalMoveError{Reason: ReasonPathBlocked, ExpectedBoard: expected}
	default:
		return &IllegalMoveError{Reason: ReasonPathBlocked, ExpectedBoard: expected}
	}
}

// applyCaptureMirror implements the variant's cross-board capture
// rule (§4.3 step 7): a Main capture removes the same-id piece from
// Secondary; en passant captures mirror regardless of which board
// the capturer played on; Secondary non-en-passant captures never
// mirror onto Main.
func (g *Game) applyCaptureMirror(playedOn BoardName, applied board.Applied) {
	if applied.Captured == nil {
		return
	}
	id := applied.Captured.ID

	if playedOn == Main {
		if sq, _, ok := g.Secondary.FindByID(id); ok {
			g.Secondary = removePiece(g.Secondary, sq)
		}
		return
	}

	// playedOn == Secondary
	if applied.EnPassant {
		if sq, _, ok := g.Main.FindByID(id); ok {
			g.Main = removePiece(g.Main, sq)
		}
	}
}

func removePiece(b *board.Board, sq board.Square) *board.Board {
	next := b.Copy()
	next.Squares[sq.Row][sq.Col] = nil
	return next
}

type boardStatus struct {
	status  board.GameStatus
	inCheck bool
}

// reevaluateOutcomes re-evaluates the opponent's status on both
// boards (§4.3 step 8): marks checkmate/stalemate outcomes and
// returns each board's classification plus whether the opponent is
// merely in check on it.
func (g *Game) reevaluateOutcomes(mover, opponent board.Color) (main, secondary boardStatus) {
	eval := func(b *board.Board) (*board.Board, boardStatus) {
		if b.Outcome != board.Active {
			return b, boardStatus{status: board.StatusActivePlay}
		}
		status := board.Classify(b, opponent)
		nb := b
		switch status {
		case board.StatusCheckmate:
			nb = b.Copy()
			if mover == board.White {
				nb.Outcome = board.WhiteWins
			} else {
				nb.Outcome = board.BlackWins
			}
		case board.StatusStalemate:
			nb = b.Copy()
			nb.Outcome = board.DrawStalemate
		}
		return nb, boardStatus{status: status, inCheck: status != board.StatusStalemate && board.IsInCheck(b, opponent)}
	}

	newMain, mainRes := eval(g.Main)
	newSecondary, secondaryRes := eval(g.Secondary)
	g.Main = newMain
	g.Secondary = newSecondary
	return mainRes, secondaryRes
}

// determineCheckBoard returns which board (if any) now holds the
// opponent in check but not mate, for the phase/turn transition.
func (g *Game) determineCheckBoard(main, secondary boardStatus) BoardName {
	if main.status == board.StatusActivePlay && main.inCheck {
		return Main
	}
	if secondary.status == board.StatusActivePlay && secondary.inCheck {
		return Secondary
	}
	return NoBoard
}

func (g *Game) recordMove(playedOn BoardName, color board.Color, applied board.Applied, main, secondary boardStatus) {
	checkStatus := main
	if playedOn == Secondary {
		checkStatus = secondary
	}
	notation := board.Notation(applied, checkStatus.status == board.StatusCheckmate, checkStatus.status == board.StatusActivePlay && checkStatus.inCheck)
	g.Moves = append(g.Moves, MoveRecord{
		Board:     playedOn,
		Color:     color,
		Notation:  notation,
		From:      applied.Move.From,
		To:        applied.Move.To,
		Timestamp: time.Now(),
	})
}

// transition implements §4.3 step 9: the phase/turn state machine.
func (g *Game) transition(playedOn BoardName, mover, opponent board.Color, checkBoard BoardName) {
	wasRespondingOn := g.RespondingToCheckOn

	if checkBoard != NoBoard {
		g.RespondingToCheckOn = checkBoard
		g.ActivePhase = checkBoard
		g.Turn = opponent
		g.finalizeGameOver(mover)
		return
	}

	g.RespondingToCheckOn = NoBoard

	if wasRespondingOn == playedOn {
		// The mover just escaped check on the board they were forced to
		// play on; the phase stays pinned there rather than toggling.
		g.ActivePhase = playedOn
		g.Turn = opponent
		g.finalizeGameOver(mover)
		return
	}

	otherName := g.otherBoard(playedOn)
	other := g.boardByName(otherName)
	if other.Outcome == board.Active {
		g.ActivePhase = otherName
	} else {
		g.ActivePhase = playedOn
	}
	g.Turn = opponent

	g.finalizeGameOver(mover)
}

// finalizeGameOver implements Invariant 4 of the data model:
// game_over ⇔ either board's outcome is a checkmate, OR both boards
// are non-Active. A checkmate on either board is decisive for the
// whole game immediately, since it is a full win for the mover, not
// merely a win on that board; a stalemate only freezes the board it
// occurred on and the game continues on the other board until it too
// resolves (mate, or stalemate for a draw).
func (g *Game) finalizeGameOver(mover board.Color) {
	if g.Main.Outcome == board.WhiteWins || g.Secondary.Outcome == board.WhiteWins {
		g.GameOver = true
		g.Winner = WhiteWinner
		return
	}
	if g.Main.Outcome == board.BlackWins || g.Secondary.Outcome == board.BlackWins {
		g.GameOver = true
		g.Winner = BlackWinner
		return
	}

	mainActive := g.Main.Outcome == board.Active
	secondaryActive := g.Secondary.Outcome == board.Active
	if !mainActive && !secondaryActive {
		g.GameOver = true
		g.Winner = DrawWinner
	}
}

func (g *Game) clearCastlingRightsBothBoards(c board.Color) {
	clear := func(b *board.Board) *board.Board {
		nb := b.Copy()
		side := nb.CastlingRights.White
		if c == board.Black {
			side = nb.CastlingRights.Black
		}
		side.K, side.Q = false, false
		if c == board.White {
			nb.CastlingRights.White = side
		} else {
			nb.CastlingRights.Black = side
		}
		return nb
	}
	g.Main = clear(g.Main)
	g.Secondary = clear(g.Secondary)
}
