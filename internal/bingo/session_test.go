package bingo

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRange() []int {
	out := make([]int, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		out = append(out, n)
	}
	return out
}

func TestDrawExhaustion(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")), WithRand(seeded(7)))
	require.True(t, s.Start(nil))

	for i, res := range drawAll(s, MaxNumber) {
		require.Truef(t, res.OK, "draw %d rejected", i+1)
	}

	assert.Empty(t, s.Remaining())
	history := s.History()
	require.Len(t, history, MaxNumber)
	slices.Sort(history)
	assert.Equal(t, fullRange(), history)

	res := s.Draw()
	assert.False(t, res.OK)
	assert.Len(t, s.History(), MaxNumber)
}

func TestDrawUndoInverse(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")), WithRand(seeded(11)))
	require.True(t, s.Start(nil))

	for i := 0; i < 30; i++ {
		remaining, history := s.Remaining(), s.History()

		drawn := s.Draw()
		require.True(t, drawn.OK)
		undone := s.Undo()
		require.True(t, undone.OK)

		assert.Equal(t, drawn.Number, undone.Number)
		assert.Equal(t, remaining, s.Remaining())
		assert.Equal(t, history, s.History())

		require.True(t, s.Draw().OK)
	}
}

func TestDrawAndUndoRejectedWhenIdle(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")))

	assert.False(t, s.Draw().OK)
	assert.False(t, s.Undo().OK)
	assert.Empty(t, s.History())
}

func TestUndoRejectedWithEmptyHistory(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")))
	require.True(t, s.Start(nil))

	res := s.Undo()
	assert.False(t, res.OK)
	assert.Len(t, s.Remaining(), MaxNumber)
}

func TestReentrantDrawAndUndoRejected(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")), WithRand(seeded(3)))
	var nested []bool
	s.Subscribe(func(e Event) {
		if e.Type != EventNumberCalled {
			return
		}
		nested = append(nested, s.Draw().OK, s.Undo().OK, s.End(func() bool { return true }))
	})
	require.True(t, s.Start(nil))

	res := s.Draw()
	require.True(t, res.OK)
	assert.Equal(t, []bool{false, false, false}, nested)
	assert.Equal(t, []int{res.Number}, s.History())

	// the guard is released once the draw completes
	assert.True(t, s.Draw().OK)
}

func TestStartSelection(t *testing.T) {
	t.Parallel()

	cat := catalogOf(testCard("CARD1"), testCard("CARD2"), testCard("CARD10"))

	t.Run("defaults to every card", func(t *testing.T) {
		s := NewSession(cat)
		require.True(t, s.Start(nil))
		assert.Equal(t, []string{"CARD1", "CARD2", "CARD10"}, s.Selected())
	})

	t.Run("keeps a prior selection", func(t *testing.T) {
		s := NewSession(cat)
		require.True(t, s.SetSelection([]string{"CARD10", "CARD1"}))
		require.True(t, s.Start(nil))
		assert.Equal(t, []string{"CARD10", "CARD1"}, s.Selected())
	})

	t.Run("drops unknown and duplicate codes", func(t *testing.T) {
		s := NewSession(cat)
		require.True(t, s.Start([]string{"CARD2", "NOPE", "CARD2"}))
		assert.Equal(t, []string{"CARD2"}, s.Selected())
	})

	t.Run("frozen while active", func(t *testing.T) {
		s := NewSession(cat)
		require.True(t, s.Start([]string{"CARD1"}))
		assert.False(t, s.SetSelection([]string{"CARD2"}))
		_, ok := s.QuickPick(1)
		assert.False(t, ok)
		assert.False(t, s.Start(nil))
		assert.Equal(t, []string{"CARD1"}, s.Selected())
	})
}

func TestAutoCheckCreditsLineThenFullHouse(t *testing.T) {
	t.Parallel()

	order := []int{1, 10, 20, 30, 40, 2, 50, 60, 70, 80, 11, 21, 51, 61, 81}
	s, _ := scriptedSession(catalogOf(testCard("CARD1")), order...)
	s.SetAutoCheck(true)
	require.True(t, s.Start(nil))

	var events []Win
	s.Subscribe(func(e Event) {
		if e.Type == EventWin {
			events = append(events, *e.Win)
		}
	})

	results := drawAll(s, len(order))
	for i, res := range results {
		require.Equal(t, order[i], res.Number)
		switch i {
		case 4:
			assert.Equal(t, []Win{{Kind: WinLine, Code: "CARD1"}}, res.Wins)
		case len(order) - 1:
			assert.Equal(t, []Win{{Kind: WinFullHouse, Code: "CARD1"}}, res.Wins)
		default:
			assert.Emptyf(t, res.Wins, "draw %d", i+1)
		}
	}

	w := s.Wins()
	assert.True(t, w.FirstLineCalled)
	assert.True(t, w.FirstFullHouseCalled)
	assert.Equal(t, []string{"CARD1"}, w.LineWinners)
	assert.Equal(t, []string{"CARD1"}, w.FullHouseWinners)
	assert.Equal(t, []Win{{Kind: WinLine, Code: "CARD1"}, {Kind: WinFullHouse, Code: "CARD1"}}, events)
}

func TestAutoCheckOffCreditsNothing(t *testing.T) {
	t.Parallel()

	s, _ := scriptedSession(catalogOf(rowCard("CARD1", [PerRow]int{1, 2, 3, 4, 5})))
	require.True(t, s.Start(nil))

	for _, res := range drawAll(s, 5) {
		assert.Empty(t, res.Wins)
	}
	assert.False(t, s.Wins().FirstLineCalled)

	got, ok := s.Check("CARD1")
	require.True(t, ok)
	assert.Equal(t, Line, got)
}

func TestTieBreakFollowsSelectionOrder(t *testing.T) {
	t.Parallel()

	a := rowCard("A", [PerRow]int{1, 2, 3, 4, 5})
	b := rowCard("B", [PerRow]int{6, 7, 8, 9, 5})
	s, _ := scriptedSession(catalogOf(a, b), 1, 2, 3, 4, 6, 7, 8, 9, 5)
	s.SetAutoCheck(true)
	require.True(t, s.Start([]string{"B", "A"}))

	results := drawAll(s, 9)
	assert.Equal(t, []Win{{Kind: WinLine, Code: "B"}}, results[8].Wins)
	assert.Equal(t, []string{"B"}, s.Wins().LineWinners)
}

func TestFirstLineIsNeverReassigned(t *testing.T) {
	t.Parallel()

	a := rowCard("A", [PerRow]int{1, 2, 3, 4, 5})
	b := rowCard("B", [PerRow]int{6, 7, 8, 9, 10})
	s, _ := scriptedSession(catalogOf(a, b), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	s.SetAutoCheck(true)
	require.True(t, s.Start(nil))

	results := drawAll(s, 10)
	assert.Equal(t, []Win{{Kind: WinLine, Code: "A"}}, results[4].Wins)
	for _, res := range results[5:] {
		assert.Empty(t, res.Wins)
	}
	w := s.Wins()
	assert.True(t, w.FirstLineCalled)
	assert.Equal(t, []string{"A"}, w.LineWinners)
}

func TestUndoRetractsWinningCall(t *testing.T) {
	t.Parallel()

	s, _ := scriptedSession(catalogOf(rowCard("CARD1", [PerRow]int{1, 2, 3, 4, 5})), 1, 2, 3, 4, 5)
	s.SetAutoCheck(true)
	require.True(t, s.Start(nil))

	drawAll(s, 5)
	require.Equal(t, []string{"CARD1"}, s.Wins().LineWinners)
	require.True(t, s.Wins().FirstLineCalled)

	res := s.Undo()
	require.True(t, res.OK)
	assert.Equal(t, 5, res.Number)
	assert.Empty(t, res.Wins)

	w := s.Wins()
	assert.False(t, w.FirstLineCalled)
	assert.NotContains(t, w.LineWinners, "CARD1")
}

func TestUndoReplaysSurvivingWin(t *testing.T) {
	t.Parallel()

	s, _ := scriptedSession(catalogOf(rowCard("CARD1", [PerRow]int{1, 2, 3, 4, 5})), 1, 2, 3, 4, 5, 9)
	s.SetAutoCheck(true)
	require.True(t, s.Start(nil))
	drawAll(s, 6)

	res := s.Undo()
	require.True(t, res.OK)
	assert.Equal(t, 9, res.Number)
	assert.Equal(t, []Win{{Kind: WinLine, Code: "CARD1", Replayed: true}}, res.Wins)
	assert.True(t, s.Wins().FirstLineCalled)
}

func TestUndoOnlyResweepsPreviousWinners(t *testing.T) {
	t.Parallel()

	// A completes its line while auto-check is off. B completes on the first
	// checked call and wins the tie on selection order. Retracting that call
	// re-examines B only, so A's standing line is not credited.
	a := rowCard("A", [PerRow]int{1, 2, 3, 4, 5})
	b := rowCard("B", [PerRow]int{6, 7, 8, 9, 10})
	s, _ := scriptedSession(catalogOf(a, b))
	require.True(t, s.Start([]string{"B", "A"}))

	drawAll(s, 9)
	s.SetAutoCheck(true)

	res := s.Draw()
	require.True(t, res.OK)
	assert.Equal(t, 10, res.Number)
	assert.Equal(t, []Win{{Kind: WinLine, Code: "B"}}, res.Wins)

	undo := s.Undo()
	require.True(t, undo.OK)
	assert.Empty(t, undo.Wins)
	assert.False(t, s.Wins().FirstLineCalled)

	got, ok := s.Check("A")
	require.True(t, ok)
	assert.Equal(t, Line, got)
}

func TestUndoSkipsUnknownWinner(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")))
	st := DefaultState()
	st.GameActive = true
	st.CalledNumbers = []int{1, 2, 3}
	st.Numbers = fullRange()[3:]
	st.FirstLineCalled = true
	st.LastLineCards = []string{"GHOST"}
	require.NoError(t, s.Restore(st))

	res := s.Undo()
	require.True(t, res.OK)
	assert.Empty(t, res.Wins)
	assert.False(t, s.Wins().FirstLineCalled)
	assert.Empty(t, s.Wins().LineWinners)
}

func TestCheckPrefersFullHouse(t *testing.T) {
	t.Parallel()

	card := testCard("CARD1")
	s, _ := scriptedSession(catalogOf(card), card.Values()...)
	require.True(t, s.Start(nil))
	drawAll(s, CardNumbers)

	called := NewCalledSet(s.History())
	assert.True(t, CheckLine(card, called))
	assert.True(t, CheckFullHouse(card, called))

	got, ok := s.Check("CARD1")
	require.True(t, ok)
	assert.Equal(t, FullHouse, got)
	assert.Equal(t, "FULL HOUSE!", got.String())

	_, ok = s.Check("MISSING")
	assert.False(t, ok)
}

func TestEndRequiresConfirmation(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("CARD1")), WithRand(seeded(5)))
	assert.False(t, s.End(func() bool { return true }), "idle session cannot end")

	require.True(t, s.Start(nil))
	drawAll(s, 3)

	assert.False(t, s.End(nil))
	assert.False(t, s.End(func() bool { return false }))
	assert.True(t, s.Active())
	assert.Len(t, s.History(), 3)

	var ended bool
	s.Subscribe(func(e Event) { ended = ended || e.Type == EventGameEnded })
	require.True(t, s.End(func() bool { return true }))

	assert.True(t, ended)
	assert.False(t, s.Active())
	assert.Empty(t, s.History())
	assert.Empty(t, s.Remaining())
	assert.Empty(t, s.Selected())
	assert.Equal(t, WinRecord{LineWinners: []string{}, FullHouseWinners: []string{}}, s.Wins())
}

func TestQuickPick(t *testing.T) {
	t.Parallel()

	cat := catalogOf(testCard("CARD1"), testCard("CARD2"), testCard("CARD3"), testCard("CARD4"))
	s := NewSession(cat, WithRand(seeded(9)))

	picked, ok := s.QuickPick(3)
	require.True(t, ok)
	assert.Len(t, picked, 3)
	assert.Equal(t, picked, s.Selected())
	for _, code := range picked {
		assert.True(t, cat.Has(code))
	}

	picked, ok = s.QuickPick(10)
	require.True(t, ok)
	assert.ElementsMatch(t, cat.Codes(), picked)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	s, _ := scriptedSession(catalogOf(testCard("CARD1")), 7, 3)
	snap := s.Snapshot()
	assert.False(t, snap.Active)
	assert.False(t, snap.CanDraw)
	assert.Equal(t, []string{}, snap.Selected)

	require.True(t, s.Start(nil))
	drawAll(s, 2)

	snap = s.Snapshot()
	assert.True(t, snap.Active)
	assert.True(t, snap.CanDraw)
	assert.True(t, snap.CanUndo)
	assert.True(t, snap.SelectionLocked)
	assert.Equal(t, []int{7, 3}, snap.History)
	assert.Equal(t, 3, snap.Last)
	assert.Equal(t, MaxNumber-2, snap.RemainingCount)
	assert.True(t, slices.IsSorted(snap.Remaining))
}

func TestApplySettingsEmitsOnce(t *testing.T) {
	t.Parallel()

	s := NewSession(catalogOf(testCard("A")))
	var events []EventType
	s.Subscribe(func(e Event) { events = append(events, e.Type) })

	want := Settings{Audio: false, Speech: false, NightMode: false, AutoCheck: true}
	s.ApplySettings(want)
	assert.Equal(t, want, s.Settings())
	assert.Equal(t, []EventType{EventSettingsChanged}, events)

	s.ApplySettings(want)
	assert.Len(t, events, 1)
}
