package bingo

import (
	"slices"
	"strconv"
	"strings"
)

// Catalog is the read-only set of cards available to a session, ordered by
// code with numeric suffixes compared as numbers (CARD2 before CARD10).
type Catalog struct {
	cards map[string]Card
	codes []string
}

func NewCatalog(cards map[string]Card) *Catalog {
	c := &Catalog{
		cards: make(map[string]Card, len(cards)),
		codes: make([]string, 0, len(cards)),
	}
	for code, card := range cards {
		if card.Code == "" {
			card.Code = code
		}
		c.cards[code] = card
		c.codes = append(c.codes, code)
	}
	slices.SortFunc(c.codes, compareCodes)
	return c
}

func (c *Catalog) Get(code string) (Card, bool) {
	card, ok := c.cards[code]
	return card, ok
}

func (c *Catalog) Has(code string) bool {
	_, ok := c.cards[code]
	return ok
}

func (c *Catalog) Len() int { return len(c.codes) }

// Codes returns every code in catalog order.
func (c *Catalog) Codes() []string { return slices.Clone(c.codes) }

// Search returns codes containing filter, case-insensitively.
func (c *Catalog) Search(filter string) []string {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return c.Codes()
	}
	out := make([]string, 0)
	for _, code := range c.codes {
		if strings.Contains(strings.ToLower(code), filter) {
			out = append(out, code)
		}
	}
	return out
}

// Pick returns up to n distinct codes chosen uniformly at random.
func (c *Catalog) Pick(rng Rand, n int) []string {
	if n > len(c.codes) {
		n = len(c.codes)
	}
	if n <= 0 {
		return []string{}
	}
	codes := c.Codes()
	// partial Fisher-Yates
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(codes)-i)
		codes[i], codes[j] = codes[j], codes[i]
	}
	return codes[:n]
}

func compareCodes(a, b string) int {
	ap, an, aok := splitCode(a)
	bp, bn, bok := splitCode(b)
	if ap != bp || !aok || !bok {
		return strings.Compare(a, b)
	}
	if an != bn {
		if an < bn {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitCode(code string) (string, int, bool) {
	i := len(code)
	for i > 0 && code[i-1] >= '0' && code[i-1] <= '9' {
		i--
	}
	if i == len(code) {
		return code, 0, false
	}
	n, err := strconv.Atoi(code[i:])
	if err != nil {
		return code, 0, false
	}
	return code[:i], n, true
}
