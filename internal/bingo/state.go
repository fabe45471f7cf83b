package bingo

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// State is the persisted session blob. Field names follow the browser
// storage format so existing saves keep loading.
type State struct {
	Numbers                []int    `json:"numbers"`
	CalledNumbers          []int    `json:"calledNumbers"`
	GameActive             bool     `json:"gameActive"`
	SoundEnabled           bool     `json:"soundEnabled"`
	TTSEnabled             bool     `json:"ttsEnabled"`
	NightMode              bool     `json:"nightMode"`
	AutoCheck              bool     `json:"autoCheck"`
	SelectedCards          []string `json:"selectedCards"`
	FirstLineCalled        bool     `json:"firstLineCalled"`
	FirstFullHouseCalled   bool     `json:"firstFullHouseCalled"`
	LastLineCards          []string `json:"lastLineCards"`
	LastFullHouseCards     []string `json:"lastFullHouseCards"`
	SelectCardsBtnDisabled bool     `json:"selectCardsBtnDisabled"`
	CardSelectDisabled     bool     `json:"cardSelectDisabled"`
}

// DefaultState is a fresh idle session: sound, speech and night mode on.
func DefaultState() State {
	d := DefaultSettings()
	return State{
		Numbers:            []int{},
		CalledNumbers:      []int{},
		SoundEnabled:       d.Audio,
		TTSEnabled:         d.Speech,
		NightMode:          d.NightMode,
		AutoCheck:          d.AutoCheck,
		SelectedCards:      []string{},
		LastLineCards:      []string{},
		LastFullHouseCards: []string{},
		CardSelectDisabled: true,
	}
}

func MarshalState(st State) (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

// UnmarshalState decodes a blob. Missing fields keep their defaults and an
// empty blob yields DefaultState.
func UnmarshalState(blob string) (State, error) {
	st := DefaultState()
	if strings.TrimSpace(blob) == "" {
		return st, nil
	}
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return DefaultState(), fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return st, nil
}

// State captures everything needed to rebuild the session after a reload.
// The two UI flags are derived from the active flag.
func (s *Session) State() State {
	w := s.wins.clone()
	selected := s.Selected()
	if selected == nil {
		selected = []string{}
	}
	return State{
		Numbers:                s.pool.Remaining(),
		CalledNumbers:          s.pool.History(),
		GameActive:             s.active,
		SoundEnabled:           s.settings.Audio,
		TTSEnabled:             s.settings.Speech,
		NightMode:              s.settings.NightMode,
		AutoCheck:              s.settings.AutoCheck,
		SelectedCards:          selected,
		FirstLineCalled:        w.FirstLineCalled,
		FirstFullHouseCalled:   w.FirstFullHouseCalled,
		LastLineCards:          w.LineWinners,
		LastFullHouseCards:     w.FullHouseWinners,
		SelectCardsBtnDisabled: s.active,
		CardSelectDisabled:     !s.active,
	}
}

// Restore replaces the session with st. An active state whose numbers do not
// partition 1..90 is rejected and the session is left unchanged.
func (s *Session) Restore(st State) error {
	if s.calling {
		return fmt.Errorf("%w: restore during a draw", ErrCorruptState)
	}
	pool := restorePool(nil, nil)
	if st.GameActive {
		pool = restorePool(st.Numbers, st.CalledNumbers)
		if err := pool.Validate(); err != nil {
			return err
		}
	}

	s.pool = pool
	s.active = st.GameActive
	s.selected = s.filterCodes(st.SelectedCards)
	s.wins = WinRecord{
		FirstLineCalled:      st.FirstLineCalled,
		FirstFullHouseCalled: st.FirstFullHouseCalled,
		LineWinners:          dedupe(st.LastLineCards),
		FullHouseWinners:     dedupe(st.LastFullHouseCards),
	}
	s.settings = Settings{
		Audio:     st.SoundEnabled,
		Speech:    st.TTSEnabled,
		NightMode: st.NightMode,
		AutoCheck: st.AutoCheck,
	}
	return nil
}

func dedupe(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
