package bingo

import "errors"

var (
	// ErrNoFreeSlot means the generator could not place a required number.
	// It indicates a logic bug, never a normal runtime condition.
	ErrNoFreeSlot = errors.New("no free slot on card")

	ErrInvalidCard  = errors.New("invalid card")
	ErrCorruptState = errors.New("corrupt session state")
)
