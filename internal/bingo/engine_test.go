package bingo

import (
	"reflect"
	"testing"
)

// sequentialGrid lays out 1..25 row-major.
func sequentialGrid() Grid {
	var grid Grid
	for i := 0; i < CellCount; i++ {
		grid[i/GridSize][i%GridSize] = i + 1
	}
	return grid
}

func TestEvaluateNoWin(t *testing.T) {
	grid := sequentialGrid()
	res := Evaluate(grid, CalledSet([]int{1, 2, 3, 4})) // row 0 missing its 5th cell

	if res.Win() {
		t.Fatalf("expected no win, got %+v", res)
	}
	if len(res.Rows) != 0 || len(res.Cols) != 0 || len(res.Diagonals) != 0 || len(res.Cells) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestEvaluateRow(t *testing.T) {
	grid := sequentialGrid()
	// row 2 holds specific values; the called set is a superset of them
	grid[2] = [GridSize]int{7, 14, 21, 3, 9}
	called := CalledSet([]int{7, 14, 21, 3, 9, 24})

	res := Evaluate(grid, called)

	if !res.Win() {
		t.Fatal("expected a win")
	}
	if !reflect.DeepEqual(res.Rows, []int{2}) {
		t.Errorf("rows = %v, want [2]", res.Rows)
	}
	wantCells := [][2]int{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}}
	if !reflect.DeepEqual(res.Cells, wantCells) {
		t.Errorf("cells = %v, want %v", res.Cells, wantCells)
	}
}

func TestEvaluateColumn(t *testing.T) {
	grid := sequentialGrid()
	// column 3 of the sequential grid is 4, 9, 14, 19, 24
	res := Evaluate(grid, CalledSet([]int{4, 9, 14, 19, 24}))

	if !reflect.DeepEqual(res.Cols, []int{3}) {
		t.Fatalf("cols = %v, want [3]", res.Cols)
	}
	if len(res.Rows) != 0 || len(res.Diagonals) != 0 {
		t.Errorf("unexpected extra matches: %+v", res)
	}
	wantCells := [][2]int{{0, 3}, {1, 3}, {2, 3}, {3, 3}, {4, 3}}
	if !reflect.DeepEqual(res.Cells, wantCells) {
		t.Errorf("cells = %v, want %v", res.Cells, wantCells)
	}
}

func TestEvaluateBothDiagonalsDuplicatesCenterCell(t *testing.T) {
	grid := sequentialGrid()
	// main diagonal: 1 7 13 19 25; anti diagonal: 5 9 13 17 21
	called := CalledSet([]int{1, 7, 13, 19, 25, 5, 9, 17, 21})

	res := Evaluate(grid, called)

	if !reflect.DeepEqual(res.Diagonals, []string{"main", "anti"}) {
		t.Fatalf("diagonals = %v, want [main anti]", res.Diagonals)
	}
	// the center cell lies on both diagonals and must appear twice
	center := 0
	for _, cell := range res.Cells {
		if cell == [2]int{2, 2} {
			center++
		}
	}
	if center != 2 {
		t.Errorf("center cell appeared %d times in cells, want 2", center)
	}
	if len(res.Cells) != 10 {
		t.Errorf("len(cells) = %d, want 10", len(res.Cells))
	}
}

func TestEvaluateFullCoverage(t *testing.T) {
	grid := sequentialGrid()
	all := make([]int, CellCount)
	for i := range all {
		all[i] = i + 1
	}

	res := Evaluate(grid, CalledSet(all))

	if len(res.Rows) != 5 || len(res.Cols) != 5 || len(res.Diagonals) != 2 {
		t.Fatalf("expected every line matched, got %+v", res)
	}
	if len(res.Cells) != 12*GridSize {
		t.Errorf("len(cells) = %d, want %d", len(res.Cells), 12*GridSize)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	for i := 0; i < 50; i++ {
		numbers := Shuffle()
		if len(numbers) != CellCount {
			t.Fatalf("len = %d, want %d", len(numbers), CellCount)
		}
		seen := make(map[int]bool, CellCount)
		for _, n := range numbers {
			if n < 1 || n > CellCount {
				t.Fatalf("number %d out of range", n)
			}
			if seen[n] {
				t.Fatalf("duplicate number %d", n)
			}
			seen[n] = true
		}
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	numbers := Shuffle()
	parsed, err := ParseNumbers(Canonical(numbers))
	if err != nil {
		t.Fatalf("ParseNumbers: %v", err)
	}
	if !reflect.DeepEqual(parsed, numbers) {
		t.Errorf("round trip mismatch: %v != %v", parsed, numbers)
	}
}

func TestParseNumbersMalformed(t *testing.T) {
	cases := []string{
		"",
		"1,2,3",
		"1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,x,25",
	}
	for _, c := range cases {
		if _, err := ParseNumbers(c); err == nil {
			t.Errorf("ParseNumbers(%q): expected error", c)
		}
	}
}

func TestReshape(t *testing.T) {
	numbers := make([]int, CellCount)
	for i := range numbers {
		numbers[i] = i + 1
	}
	grid := Reshape(numbers)
	if grid[0][0] != 1 || grid[0][4] != 5 || grid[1][0] != 6 || grid[4][4] != 25 {
		t.Errorf("unexpected layout: %v", grid)
	}
}

func TestParseCalled(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"plain", "1,2,3", []int{1, 2, 3}},
		{"spaces", " 4 , 5 ,6 ", []int{4, 5, 6}},
		{"trailing comma", "7,8,", []int{7, 8}},
		{"empty", "", nil},
		{"garbage degrades to empty", "1,two,3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCalled(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCalled(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	full := make([]int, CellCount)
	for i := range full {
		full[i] = i + 1
	}

	// same shuffle at different reveal depths shares a round
	early := Fingerprint(full, full[:5])
	late := Fingerprint(full, full[:20])
	if early != late {
		t.Errorf("full-sequence fingerprints differ across depths: %s != %s", early, late)
	}

	// the prefix fallback does not: depth changes the round
	fbEarly := Fingerprint(nil, full[:5])
	fbLate := Fingerprint(nil, full[:20])
	if fbEarly == fbLate {
		t.Error("prefix fallback should vary with reveal depth")
	}
	if fbEarly == early {
		t.Error("fallback fingerprint should differ from full-sequence fingerprint")
	}

	// a short "full" sequence is not trusted and falls back
	if Fingerprint(full[:10], full[:5]) != fbEarly {
		t.Error("partial full sequence should use the prefix fallback")
	}
}
