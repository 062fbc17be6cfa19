package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var (
	ErrGameNotPlaying = fmt.Errorf("%w: game is not in progress", apperror.ErrInvalidMove)
	ErrNotYourTurn    = fmt.Errorf("%w: it's not your turn", apperror.ErrInvalidMove)
	ErrInvalidCell    = fmt.Errorf("%w: invalid cell index", apperror.ErrInvalidMove)
	ErrCellOccupied   = fmt.Errorf("%w: cell is already occupied", apperror.ErrInvalidMove)
)

// MakeTurn places symbol at cell and advances the room: a win or a full board
// finishes the game, anything else hands the turn to the other symbol.
// On error the room is left untouched.
func MakeTurn(room *entity.Room, symbol string, cell int) error {
	if err := validateMove(room, symbol, cell); err != nil {
		return err
	}

	room.Board[cell] = symbol
	updateGameStatus(room, symbol)

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(room *entity.Room, symbol string, cell int) error {
	if !room.IsPlaying() {
		return ErrGameNotPlaying
	}

	if room.Turn != symbol {
		return ErrNotYourTurn
	}

	if cell < 0 || cell >= len(room.Board) {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if room.Board[cell] != entity.EmptyCell {
		return ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(room *entity.Room, symbol string) {
	if winner, line := DetectWinner(room.Board, room.Size); winner != "" {
		room.Winner = winner
		room.WinningLine = line
		room.Status = entity.StatusFinished
		return
	}

	if len(room.EmptyCells()) == 0 {
		room.Winner = entity.PlayerTie
		room.Status = entity.StatusFinished
		return
	}

	room.Turn = toggleMark(symbol)
}

func toggleMark(currentMark string) string {
	if currentMark == entity.PlayerX {
		return entity.PlayerO
	}
	return entity.PlayerX
}
