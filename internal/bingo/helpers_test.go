package bingo

import (
	"math/rand/v2"
	"slices"
)

// testCard is a valid ticket:
//
//	row0:  1 10 20 30 40  .  .  .  .
//	row1:  2  .  .  .  . 50 60 70 80
//	row2:  . 11 21  .  . 51 61  . 81
func testCard(code string) Card {
	var g Grid
	g[0] = [Cols]int{1, 10, 20, 30, 40, 0, 0, 0, 0}
	g[1] = [Cols]int{2, 0, 0, 0, 0, 50, 60, 70, 80}
	g[2] = [Cols]int{0, 11, 21, 0, 0, 51, 61, 0, 81}
	return Card{Code: code, Numbers: g}
}

// rowCard puts the given five numbers on row 0 and fills the rest with
// numbers that the tests never call.
func rowCard(code string, row0 [PerRow]int) Card {
	var g Grid
	copy(g[0][:], row0[:])
	g[1] = [Cols]int{0, 0, 0, 0, 0, 55, 65, 75, 85}
	g[2] = [Cols]int{0, 0, 0, 0, 0, 56, 66, 76, 86}
	return Card{Code: code, Numbers: g}
}

func catalogOf(cards ...Card) *Catalog {
	m := make(map[string]Card, len(cards))
	for _, c := range cards {
		m[c.Code] = c
	}
	return NewCatalog(m)
}

// scriptRand makes the session draw the scripted numbers in order, then the
// smallest remaining number once the script runs out.
type scriptRand struct {
	s     *Session
	order []int
}

func (r *scriptRand) IntN(n int) int {
	if len(r.order) == 0 {
		return 0
	}
	want := r.order[0]
	r.order = r.order[1:]
	i := slices.Index(r.s.Remaining(), want)
	if i < 0 {
		panic("scripted number already drawn")
	}
	return i
}

func scriptedSession(catalog *Catalog, order ...int) (*Session, *scriptRand) {
	r := &scriptRand{order: order}
	s := NewSession(catalog, WithRand(r))
	r.s = s
	return s, r
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func drawAll(s *Session, n int) []DrawResult {
	out := make([]DrawResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.Draw())
	}
	return out
}
