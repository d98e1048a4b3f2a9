package coordinator

import "twofold-chess/internal/board"

// RecordResetVote records color's vote to reset the game. When both
// colors have voted, the game is re-initialized atomically (fresh
// boards, empty move list, votes cleared) and didReset reports true
// so the caller knows to broadcast game_reset rather than
// reset_votes_update.
func (g *Game) RecordResetVote(color board.Color) (didReset bool) {
	if color == board.White {
		g.ResetVotes.White = true
	} else {
		g.ResetVotes.Black = true
	}
	if g.ResetVotes.White && g.ResetVotes.Black {
		g.resetInPlace()
		return true
	}
	return false
}

// ResetImmediate performs a unilateral reset, used for a local
// (single-browser) game where there is no second vote to collect.
func (g *Game) ResetImmediate() {
	g.resetInPlace()
}

// ForceFinish ends the game immediately with the given winner,
// without touching either board. It backs the legacy finish_game
// event (§6), whose client-supplied board/move payload is advisory
// only: the server records the declared result but never trusts the
// client's board state as authoritative.
func (g *Game) ForceFinish(winner Winner) {
	g.GameOver = true
	g.Winner = winner
}

func (g *Game) resetInPlace() {
	g.Main = board.NewStandardBoard()
	g.Secondary = board.NewStandardBoard()
	g.Turn = board.White
	g.ActivePhase = Main
	g.RespondingToCheckOn = NoBoard
	g.Moves = nil
	g.Winner = NoWinner
	g.GameOver = false
	g.ResetVotes = ResetVotes{}
	g.castledOnce = map[board.Color]bool{}
}
