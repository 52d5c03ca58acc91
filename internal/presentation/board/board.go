// Package board draws a program grid with the live tokens marked on it.
package board

import (
	"strings"

	"github.com/aretw0/steprelay/pkg/domain"
)

// Overlay contains the dynamic state to draw on the grid.
type Overlay struct {
	Tokens []domain.TokenView
}

// Marks used for a single token on a cell.
const (
	MarkMoving  = 'o'
	MarkWaiting = 'w'
	MarkReading = 'r'
)

// GenerateBoard returns the program lines with every token cell replaced by
// a mark: the token's mark when it is alone, the number of tokens when
// several share a cell ('+' above nine). Tokens off the grid are not drawn.
func GenerateBoard(lines []string, overlay *Overlay) string {
	grid := make([][]rune, len(lines))
	for i, line := range lines {
		grid[i] = []rune(line)
	}

	if overlay != nil {
		counts := make(map[domain.Position]int)
		first := make(map[domain.Position]domain.TokenView)
		for _, t := range overlay.Tokens {
			if counts[t.Pos] == 0 {
				first[t.Pos] = t
			}
			counts[t.Pos]++
		}

		for pos, n := range counts {
			if pos.Row < 0 || pos.Row >= len(grid) || pos.Col < 0 {
				continue
			}
			row := grid[pos.Row]
			for len(row) <= pos.Col {
				row = append(row, ' ')
			}
			switch {
			case n == 1:
				row[pos.Col] = mark(first[pos])
			case n <= 9:
				row[pos.Col] = rune('0' + n)
			default:
				row[pos.Col] = '+'
			}
			grid[pos.Row] = row
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString("  | ")
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func mark(t domain.TokenView) rune {
	switch {
	case t.Waiting():
		return MarkWaiting
	case t.State == "reading":
		return MarkReading
	}
	return MarkMoving
}
