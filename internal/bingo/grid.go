package bingo

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Shuffle returns a uniformly random permutation of 1..25.
func Shuffle() []int {
	numbers := make([]int, CellCount)
	for i := range numbers {
		numbers[i] = i + 1
	}
	rand.Shuffle(len(numbers), func(i, j int) {
		numbers[i], numbers[j] = numbers[j], numbers[i]
	})
	return numbers
}

// Canonical renders a permutation as the comma-joined string stored on the
// card row. This string carries the global uniqueness constraint.
func Canonical(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ParseNumbers parses a stored card layout back into its 25 integers.
// Anything that does not decode to exactly 25 integers is malformed.
func ParseNumbers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != CellCount {
		return nil, fmt.Errorf("expected %d numbers, got %d", CellCount, len(parts))
	}
	numbers := make([]int, CellCount)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", p, i)
		}
		numbers[i] = n
	}
	return numbers, nil
}

// Reshape lays out a 25-number sequence as a row-major 5x5 grid.
func Reshape(numbers []int) Grid {
	var grid Grid
	for i, n := range numbers {
		grid[i/GridSize][i%GridSize] = n
	}
	return grid
}

// ParseCalled parses a comma-separated called-numbers snapshot. Malformed
// input degrades to an empty snapshot rather than an error, so every line
// simply evaluates to not-matched.
func ParseCalled(s string) []int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var numbers []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		numbers = append(numbers, n)
	}
	return numbers
}
