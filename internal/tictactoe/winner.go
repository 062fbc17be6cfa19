package tictactoe

import "github.com/rocketscienceinc/tictactoe-rooms/internal/entity"

// WinLines enumerates the 2*size+2 candidate lines of a size x size board:
// rows, then columns, then the main diagonal, then the anti-diagonal.
func WinLines(size int) [][]int {
	if size < 1 {
		return nil
	}

	lines := make([][]int, 0, 2*size+2)

	for row := 0; row < size; row++ {
		lines = append(lines, stride(row*size, 1, size))
	}

	for col := 0; col < size; col++ {
		lines = append(lines, stride(col, size, size))
	}

	lines = append(lines, stride(0, size+1, size))
	lines = append(lines, stride(size-1, size-1, size))

	return lines
}

func stride(start, step, length int) []int {
	line := make([]int, length)
	for i := range line {
		line[i] = start + i*step
	}

	return line
}

// DetectWinner returns the winning symbol and the first winning line in
// WinLines order, or an empty symbol and an empty line.
func DetectWinner(board []string, size int) (string, []int) {
	if len(board) != size*size {
		return "", []int{}
	}

	for _, line := range WinLines(size) {
		first := board[line[0]]
		if first == entity.EmptyCell {
			continue
		}

		won := true
		for _, cell := range line[1:] {
			if board[cell] != first {
				won = false
				break
			}
		}

		if won {
			return first, line
		}
	}

	return "", []int{}
}
