package bingo

import (
	"encoding/json"
	"fmt"
)

const (
	Rows        = 3
	Cols        = 9
	PerRow      = 5
	CardNumbers = Rows * PerRow

	MinNumber = 1
	MaxNumber = 90
)

// columnRanges are the inclusive value ranges of the nine ticket columns.
var columnRanges = [Cols][2]int{
	{1, 9}, {10, 19}, {20, 29}, {30, 39},
	{40, 49}, {50, 59}, {60, 69}, {70, 79}, {80, 90},
}

// ColumnRange returns the inclusive low and high value allowed in column col.
func ColumnRange(col int) (int, int) {
	r := columnRanges[col]
	return r[0], r[1]
}

// Grid is a 3x9 ticket layout. A zero cell is empty and serializes as null.
type Grid [Rows][Cols]int

func (g Grid) MarshalJSON() ([]byte, error) {
	var out [Rows][Cols]*int
	for r := range g {
		for c := range g[r] {
			if g[r][c] != 0 {
				v := g[r][c]
				out[r][c] = &v
			}
		}
	}
	return json.Marshal(out)
}

func (g *Grid) UnmarshalJSON(data []byte) error {
	var in [Rows][Cols]*int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for r := range in {
		for c := range in[r] {
			g[r][c] = 0
			if in[r][c] != nil {
				g[r][c] = *in[r][c]
			}
		}
	}
	return nil
}

// Card is an immutable bingo ticket identified by its code.
type Card struct {
	Code    string `json:"code"`
	Numbers Grid   `json:"numbers"`
}

// Values returns the filled cells in row-major order.
func (c Card) Values() []int {
	vals := make([]int, 0, CardNumbers)
	for r := range c.Numbers {
		for _, v := range c.Numbers[r] {
			if v != 0 {
				vals = append(vals, v)
			}
		}
	}
	return vals
}

// Validate checks the ticket structure: 5 numbers per row, unique values inside
// their column range and columns ascending top to bottom.
func (c Card) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("%w: missing code", ErrInvalidCard)
	}

	seen := make(map[int]bool, CardNumbers)
	for r := range c.Numbers {
		count := 0
		for col, v := range c.Numbers[r] {
			if v == 0 {
				continue
			}
			count++
			lo, hi := ColumnRange(col)
			if v < lo || v > hi {
				return fmt.Errorf("%w: %s value %d outside column %d range %d-%d", ErrInvalidCard, c.Code, v, col, lo, hi)
			}
			if seen[v] {
				return fmt.Errorf("%w: %s duplicate value %d", ErrInvalidCard, c.Code, v)
			}
			seen[v] = true
		}
		if count != PerRow {
			return fmt.Errorf("%w: %s row %d has %d numbers, want %d", ErrInvalidCard, c.Code, r, count, PerRow)
		}
	}

	for col := 0; col < Cols; col++ {
		prev := 0
		for r := 0; r < Rows; r++ {
			v := c.Numbers[r][col]
			if v == 0 {
				continue
			}
			if v <= prev {
				return fmt.Errorf("%w: %s column %d not ascending", ErrInvalidCard, c.Code, col)
			}
			prev = v
		}
	}

	return nil
}
