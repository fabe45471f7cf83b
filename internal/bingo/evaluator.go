package bingo

// CalledSet is a lookup of called numbers.
type CalledSet map[int]bool

func NewCalledSet(history []int) CalledSet {
	called := make(CalledSet, len(history))
	for _, n := range history {
		called[n] = true
	}
	return called
}

// Result is the outcome of checking one card.
type Result int

const (
	None Result = iota
	Line
	FullHouse
)

func (r Result) String() string {
	switch r {
	case Line:
		return "LINE!"
	case FullHouse:
		return "FULL HOUSE!"
	default:
		return "No win yet"
	}
}

// CheckLine reports whether any row has all of its numbers called.
func CheckLine(card Card, called CalledSet) bool {
	for r := range card.Numbers {
		complete := true
		for _, v := range card.Numbers[r] {
			if v != 0 && !called[v] {
				complete = false
				break
			}
		}
		if complete {
			return true
		}
	}
	return false
}

// CheckFullHouse reports whether every number on the card was called.
func CheckFullHouse(card Card, called CalledSet) bool {
	for r := range card.Numbers {
		for _, v := range card.Numbers[r] {
			if v != 0 && !called[v] {
				return false
			}
		}
	}
	return true
}

// Evaluate is the single-card check: a full house outranks a line.
func Evaluate(card Card, called CalledSet) Result {
	if CheckFullHouse(card, called) {
		return FullHouse
	}
	if CheckLine(card, called) {
		return Line
	}
	return None
}
