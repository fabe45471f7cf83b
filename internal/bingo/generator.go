package bingo

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Rand is the source of uniform randomness used for draws, generation and
// quick picks. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the math/rand/v2 global source.
var DefaultRand Rand = globalRand{}

// CardCode returns the catalog code of the i-th generated card, starting at 1.
func CardCode(i int) string {
	return fmt.Sprintf("CARD%d", i)
}

type Generator struct {
	rng Rand
}

func NewGenerator(rng Rand) *Generator {
	if rng == nil {
		rng = DefaultRand
	}
	return &Generator{rng: rng}
}

// Generate builds count cards keyed by code CARD1..CARDn.
func (g *Generator) Generate(count int) (map[string]Card, error) {
	cards := make(map[string]Card, count)
	for i := 1; i <= count; i++ {
		card, err := g.GenerateCard(CardCode(i))
		if err != nil {
			return nil, err
		}
		cards[card.Code] = card
	}
	return cards, nil
}

// GenerateCard builds a single card with the given code.
func (g *Generator) GenerateCard(code string) (Card, error) {
	grid, err := g.grid()
	if err != nil {
		return Card{}, fmt.Errorf("generate %s: %w", code, err)
	}
	return Card{Code: code, Numbers: grid}, nil
}

func (g *Generator) grid() (Grid, error) {
	var grid Grid
	var rowCount [Rows]int
	used := make(map[int]bool, CardNumbers)

	// one number per column so every column is covered
	for c := 0; c < Cols; c++ {
		open := make([]int, 0, Rows)
		for r := 0; r < Rows; r++ {
			if rowCount[r] < PerRow {
				open = append(open, r)
			}
		}
		if len(open) == 0 {
			return grid, fmt.Errorf("%w: column %d", ErrNoFreeSlot, c)
		}
		r := open[g.rng.IntN(len(open))]
		v := g.pick(c)
		grid[r][c] = v
		used[v] = true
		rowCount[r]++
	}

	// top every row up to five numbers
	for r := 0; r < Rows; r++ {
		for rowCount[r] < PerRow {
			empty := make([]int, 0, Cols)
			for c := 0; c < Cols; c++ {
				if grid[r][c] == 0 {
					empty = append(empty, c)
				}
			}
			if len(empty) == 0 {
				return grid, fmt.Errorf("%w: row %d", ErrNoFreeSlot, r)
			}
			c := empty[g.rng.IntN(len(empty))]
			v := g.pick(c)
			for used[v] {
				v = g.pick(c)
			}
			grid[r][c] = v
			used[v] = true
			rowCount[r]++
		}
	}

	// ticket format: columns read ascending top to bottom
	for c := 0; c < Cols; c++ {
		vals := make([]int, 0, Rows)
		for r := 0; r < Rows; r++ {
			if grid[r][c] != 0 {
				vals = append(vals, grid[r][c])
			}
		}
		slices.Sort(vals)
		i := 0
		for r := 0; r < Rows; r++ {
			if grid[r][c] != 0 {
				grid[r][c] = vals[i]
				i++
			}
		}
	}

	return grid, nil
}

func (g *Generator) pick(col int) int {
	lo, hi := ColumnRange(col)
	return lo + g.rng.IntN(hi-lo+1)
}
