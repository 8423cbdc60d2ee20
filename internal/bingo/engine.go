// Package bingo holds the pure game rules: grid evaluation, the shuffle,
// the canonical card layout, and round fingerprinting. No state, no I/O.
package bingo

// GridSize is the side length of a card grid.
const GridSize = 5

// CellCount is the number of cells on a card.
const CellCount = GridSize * GridSize

// Grid is a card laid out row-major.
type Grid [GridSize][GridSize]int

// WinResult reports which lines of a grid are fully covered by the called
// set. Cells lists the [row,col] coordinate of every cell belonging to a
// matched line, appended per line without deduplication: a cell sitting on
// two matched lines (the center cell on both diagonals) appears twice.
// The UI relies on this passthrough for highlighting.
type WinResult struct {
	Rows      []int    `json:"rows"`
	Cols      []int    `json:"cols"`
	Diagonals []string `json:"diagonals"`
	Cells     [][2]int `json:"cells"`
}

// Win reports whether at least one row, column, or diagonal matched.
func (w WinResult) Win() bool {
	return len(w.Rows) > 0 || len(w.Cols) > 0 || len(w.Diagonals) > 0
}

// Evaluate checks every row, every column, and both diagonals of the grid
// against the called set. A line is matched iff all 5 of its cells have
// been called.
func Evaluate(grid Grid, called map[int]bool) WinResult {
	result := WinResult{
		Rows:      []int{},
		Cols:      []int{},
		Diagonals: []string{},
		Cells:     [][2]int{},
	}

	for r := 0; r < GridSize; r++ {
		matched := true
		for c := 0; c < GridSize; c++ {
			if !called[grid[r][c]] {
				matched = false
				break
			}
		}
		if matched {
			result.Rows = append(result.Rows, r)
			for c := 0; c < GridSize; c++ {
				result.Cells = append(result.Cells, [2]int{r, c})
			}
		}
	}

	for c := 0; c < GridSize; c++ {
		matched := true
		for r := 0; r < GridSize; r++ {
			if !called[grid[r][c]] {
				matched = false
				break
			}
		}
		if matched {
			result.Cols = append(result.Cols, c)
			for r := 0; r < GridSize; r++ {
				result.Cells = append(result.Cells, [2]int{r, c})
			}
		}
	}

	mainDiag, antiDiag := true, true
	for i := 0; i < GridSize; i++ {
		if !called[grid[i][i]] {
			mainDiag = false
		}
		if !called[grid[i][GridSize-1-i]] {
			antiDiag = false
		}
	}
	if mainDiag {
		result.Diagonals = append(result.Diagonals, "main")
		for i := 0; i < GridSize; i++ {
			result.Cells = append(result.Cells, [2]int{i, i})
		}
	}
	if antiDiag {
		result.Diagonals = append(result.Diagonals, "anti")
		for i := 0; i < GridSize; i++ {
			result.Cells = append(result.Cells, [2]int{i, GridSize - 1 - i})
		}
	}

	return result
}

// CalledSet converts a called-numbers snapshot into a membership set.
func CalledSet(numbers []int) map[int]bool {
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set
}
