package bingo

import (
	"slices"

	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventGameStarted      EventType = "game-started"
	EventNumberCalled     EventType = "number-called"
	EventNumberUndone     EventType = "number-undone"
	EventWin              EventType = "win"
	EventGameEnded        EventType = "game-ended"
	EventSelectionChanged EventType = "selection-changed"
	EventSettingsChanged  EventType = "settings-changed"
)

type WinKind string

const (
	WinLine      WinKind = "LINE"
	WinFullHouse WinKind = "FULL_HOUSE"
)

// Win credits a card with the first line or first full house of the game.
// Replayed marks credits re-established by an undo rather than a new call.
type Win struct {
	Kind     WinKind `json:"kind"`
	Code     string  `json:"code"`
	Replayed bool    `json:"replayed,omitempty"`
}

type Event struct {
	Type   EventType
	Number int
	Win    *Win
}

// Listener receives session events synchronously, while the operation that
// produced them is still in flight.
type Listener func(Event)

// Confirm asks the user to approve a destructive action.
type Confirm func() bool

type Settings struct {
	Audio     bool `json:"audio"`
	Speech    bool `json:"speech"`
	NightMode bool `json:"nightMode"`
	AutoCheck bool `json:"autoCheck"`
}

func DefaultSettings() Settings {
	return Settings{Audio: true, Speech: true, NightMode: true}
}

type WinRecord struct {
	FirstLineCalled      bool     `json:"firstLineCalled"`
	FirstFullHouseCalled bool     `json:"firstFullHouseCalled"`
	LineWinners          []string `json:"lineWinners"`
	FullHouseWinners     []string `json:"fullHouseWinners"`
}

func (w WinRecord) clone() WinRecord {
	w.LineWinners = slices.Clone(w.LineWinners)
	w.FullHouseWinners = slices.Clone(w.FullHouseWinners)
	if w.LineWinners == nil {
		w.LineWinners = []string{}
	}
	if w.FullHouseWinners == nil {
		w.FullHouseWinners = []string{}
	}
	return w
}

type DrawResult struct {
	Number int   `json:"number"`
	OK     bool  `json:"ok"`
	Wins   []Win `json:"wins"`
}

type UndoResult struct {
	Number int   `json:"number"`
	OK     bool  `json:"ok"`
	Wins   []Win `json:"wins"`
}

// Snapshot is the queryable view of a session used for rendering.
type Snapshot struct {
	Active          bool      `json:"active"`
	Remaining       []int     `json:"remaining"`
	RemainingCount  int       `json:"remainingCount"`
	History         []int     `json:"history"`
	Last            int       `json:"last,omitempty"`
	Selected        []string  `json:"selected"`
	Wins            WinRecord `json:"wins"`
	Settings        Settings  `json:"settings"`
	CanDraw         bool      `json:"canDraw"`
	CanUndo         bool      `json:"canUndo"`
	SelectionLocked bool      `json:"selectionLocked"`
}

// Session is the caller state machine: Idle until Start, Active until End.
// It is not safe for concurrent use; callers serialize access.
type Session struct {
	catalog   *Catalog
	rng       Rand
	pool      *DrawPool
	selected  []string
	wins      WinRecord
	active    bool
	settings  Settings
	calling   bool
	listeners []Listener
}

type Option func(*Session)

func WithRand(rng Rand) Option {
	return func(s *Session) { s.rng = rng }
}

func WithSettings(settings Settings) Option {
	return func(s *Session) { s.settings = settings }
}

func NewSession(catalog *Catalog, opts ...Option) *Session {
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	s := &Session{
		catalog:  catalog,
		rng:      DefaultRand,
		pool:     restorePool(nil, nil),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Session) emit(e Event) {
	for _, l := range s.listeners {
		l(e)
	}
}

func (s *Session) Catalog() *Catalog { return s.catalog }

func (s *Session) Active() bool { return s.active }

func (s *Session) Remaining() []int { return s.pool.Remaining() }

func (s *Session) History() []int { return s.pool.History() }

func (s *Session) Selected() []string { return slices.Clone(s.selected) }

func (s *Session) Wins() WinRecord { return s.wins.clone() }

func (s *Session) Settings() Settings { return s.settings }

// Start begins a game. An empty selection keeps the current one, and with
// nothing selected every catalog card is put in play.
func (s *Session) Start(selection []string) bool {
	if s.active || s.calling {
		return false
	}
	if len(selection) > 0 {
		s.selected = s.filterCodes(selection)
	}
	if len(s.selected) == 0 {
		s.selected = s.catalog.Codes()
	}
	s.pool = NewDrawPool()
	s.wins = WinRecord{}
	s.active = true
	s.emit(Event{Type: EventGameStarted})
	return true
}

// Draw calls the next number and, with auto-check on, sweeps the active
// cards for first wins. Rejected draws leave the session untouched.
func (s *Session) Draw() DrawResult {
	if !s.active || s.calling {
		log.Debugf("draw rejected: active=%t calling=%t", s.active, s.calling)
		return DrawResult{}
	}
	s.calling = true
	defer func() { s.calling = false }()

	n, ok := s.pool.Draw(s.rng)
	if !ok {
		log.Debug("draw rejected: pool exhausted")
		return DrawResult{}
	}
	s.emit(Event{Type: EventNumberCalled, Number: n})

	res := DrawResult{Number: n, OK: true, Wins: []Win{}}
	if s.settings.AutoCheck {
		res.Wins = s.sweep(s.selected, false)
	}
	return res
}

// Undo retracts the last call. Only cards holding a win credit can lose it,
// so only those cards are re-swept against the shortened history.
func (s *Session) Undo() UndoResult {
	if !s.active || s.calling {
		return UndoResult{}
	}
	s.calling = true
	defer func() { s.calling = false }()

	n, ok := s.pool.Undo()
	if !ok {
		return UndoResult{}
	}

	affected := make([]string, 0, len(s.wins.LineWinners)+len(s.wins.FullHouseWinners))
	for _, code := range append(slices.Clone(s.wins.LineWinners), s.wins.FullHouseWinners...) {
		if !slices.Contains(affected, code) {
			affected = append(affected, code)
		}
	}
	s.wins = WinRecord{}

	s.emit(Event{Type: EventNumberUndone, Number: n})
	return UndoResult{Number: n, OK: true, Wins: s.sweep(affected, true)}
}

// End stops the game once confirm approves it.
func (s *Session) End(confirm Confirm) bool {
	if !s.active || s.calling {
		return false
	}
	if confirm == nil || !confirm() {
		return false
	}
	s.pool = restorePool(nil, nil)
	s.selected = nil
	s.wins = WinRecord{}
	s.active = false
	s.emit(Event{Type: EventGameEnded})
	return true
}

// SetSelection replaces the cards in play. The selection is frozen while a
// game is active. Unknown codes and duplicates are dropped.
func (s *Session) SetSelection(codes []string) bool {
	if s.active {
		return false
	}
	s.selected = s.filterCodes(codes)
	s.emit(Event{Type: EventSelectionChanged})
	return true
}

// QuickPick selects n random catalog cards.
func (s *Session) QuickPick(n int) ([]string, bool) {
	if s.active {
		return nil, false
	}
	s.selected = s.catalog.Pick(s.rng, n)
	s.emit(Event{Type: EventSelectionChanged})
	return slices.Clone(s.selected), true
}

// Check evaluates one card against the numbers called so far.
func (s *Session) Check(code string) (Result, bool) {
	card, ok := s.catalog.Get(code)
	if !ok {
		return None, false
	}
	return Evaluate(card, s.pool.Called()), true
}

func (s *Session) SetAutoCheck(on bool) { s.updateSettings(func(st *Settings) { st.AutoCheck = on }) }

func (s *Session) SetAudio(on bool) { s.updateSettings(func(st *Settings) { st.Audio = on }) }

func (s *Session) SetSpeech(on bool) { s.updateSettings(func(st *Settings) { st.Speech = on }) }

func (s *Session) SetNightMode(on bool) { s.updateSettings(func(st *Settings) { st.NightMode = on }) }

// ApplySettings replaces every toggle at once and emits a single change
// event. An identical settings value emits nothing.
func (s *Session) ApplySettings(settings Settings) {
	if settings == s.settings {
		return
	}
	s.updateSettings(func(st *Settings) { *st = settings })
}

func (s *Session) updateSettings(fn func(*Settings)) {
	fn(&s.settings)
	s.emit(Event{Type: EventSettingsChanged})
}

func (s *Session) Snapshot() Snapshot {
	remaining := s.pool.Remaining()
	snap := Snapshot{
		Active:          s.active,
		Remaining:       remaining,
		RemainingCount:  len(remaining),
		History:         s.pool.History(),
		Selected:        s.Selected(),
		Wins:            s.wins.clone(),
		Settings:        s.settings,
		CanDraw:         s.active && len(remaining) > 0,
		SelectionLocked: s.active,
	}
	if snap.Selected == nil {
		snap.Selected = []string{}
	}
	if last, ok := s.pool.Last(); ok {
		snap.Last = last
		snap.CanUndo = s.active
	}
	return snap
}

// sweep credits the first line and first full house among codes, in order.
// Line and full house are tracked independently.
func (s *Session) sweep(codes []string, replayed bool) []Win {
	called := s.pool.Called()
	wins := []Win{}
	for _, code := range codes {
		if s.wins.FirstLineCalled && s.wins.FirstFullHouseCalled {
			break
		}
		card, ok := s.catalog.Get(code)
		if !ok {
			log.Debugf("sweep: skipping unknown card %s", code)
			continue
		}
		if !s.wins.FirstLineCalled && CheckLine(card, called) {
			s.wins.FirstLineCalled = true
			s.wins.LineWinners = append(s.wins.LineWinners, code)
			wins = append(wins, Win{Kind: WinLine, Code: code, Replayed: replayed})
		}
		if !s.wins.FirstFullHouseCalled && CheckFullHouse(card, called) {
			s.wins.FirstFullHouseCalled = true
			s.wins.FullHouseWinners = append(s.wins.FullHouseWinners, code)
			wins = append(wins, Win{Kind: WinFullHouse, Code: code, Replayed: replayed})
		}
	}
	for i := range wins {
		s.emit(Event{Type: EventWin, Win: &wins[i]})
	}
	return wins
}

func (s *Session) filterCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if !s.catalog.Has(code) {
			log.Debugf("selection: skipping unknown card %s", code)
			continue
		}
		if slices.Contains(out, code) {
			continue
		}
		out = append(out, code)
	}
	return out
}
