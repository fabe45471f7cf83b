package bingo

import (
	"fmt"
	"slices"
)

// DrawPool holds the undrawn numbers and the ordered call history.
// remaining is kept ascending so displays need not re-sort it.
type DrawPool struct {
	remaining []int
	history   []int
}

// NewDrawPool returns a full pool of 1..90 with an empty history.
func NewDrawPool() *DrawPool {
	p := &DrawPool{
		remaining: make([]int, 0, MaxNumber),
		history:   make([]int, 0, MaxNumber),
	}
	for n := MinNumber; n <= MaxNumber; n++ {
		p.remaining = append(p.remaining, n)
	}
	return p
}

// Draw removes a uniformly random remaining number and appends it to the
// history. It reports false when the pool is exhausted.
func (p *DrawPool) Draw(rng Rand) (int, bool) {
	if len(p.remaining) == 0 {
		return 0, false
	}
	i := rng.IntN(len(p.remaining))
	n := p.remaining[i]
	p.remaining = slices.Delete(p.remaining, i, i+1)
	p.history = append(p.history, n)
	return n, true
}

// Undo pops the last called number back into the pool. It reports false
// when nothing has been called.
func (p *DrawPool) Undo() (int, bool) {
	if len(p.history) == 0 {
		return 0, false
	}
	n := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	i, _ := slices.BinarySearch(p.remaining, n)
	p.remaining = slices.Insert(p.remaining, i, n)
	return n, true
}

func (p *DrawPool) Remaining() []int { return slices.Clone(p.remaining) }

func (p *DrawPool) History() []int { return slices.Clone(p.history) }

// Last returns the most recent call, if any.
func (p *DrawPool) Last() (int, bool) {
	if len(p.history) == 0 {
		return 0, false
	}
	return p.history[len(p.history)-1], true
}

func (p *DrawPool) Called() CalledSet { return NewCalledSet(p.history) }

// Validate checks that remaining and history partition 1..90.
func (p *DrawPool) Validate() error {
	seen := make(map[int]bool, MaxNumber)
	for _, part := range [][]int{p.remaining, p.history} {
		for _, n := range part {
			if n < MinNumber || n > MaxNumber {
				return fmt.Errorf("%w: number %d out of range", ErrCorruptState, n)
			}
			if seen[n] {
				return fmt.Errorf("%w: number %d appears twice", ErrCorruptState, n)
			}
			seen[n] = true
		}
	}
	if len(seen) != MaxNumber {
		return fmt.Errorf("%w: pool covers %d of %d numbers", ErrCorruptState, len(seen), MaxNumber)
	}
	return nil
}

// restorePool rebuilds a pool from persisted slices. remaining is sorted.
func restorePool(remaining, history []int) *DrawPool {
	p := &DrawPool{
		remaining: slices.Clone(remaining),
		history:   slices.Clone(history),
	}
	if p.remaining == nil {
		p.remaining = []int{}
	}
	if p.history == nil {
		p.history = []int{}
	}
	slices.Sort(p.remaining)
	return p
}
