package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/bingobongo/internal/bingo"
	"github.com/avvvet/bingobongo/internal/comm"
	"github.com/avvvet/bingobongo/internal/store"
	log "github.com/sirupsen/logrus"
)

const saveTimeout = 10 * time.Second

// Publisher receives every session event once the operation producing it
// has completed and the state has been saved.
type Publisher interface {
	Publish(msg *comm.WSMessage)
}

// SessionService serializes access to the caller session and saves it after
// every mutating operation.
type SessionService struct {
	mu       sync.Mutex
	session  *bingo.Session
	store    store.Store
	key      string
	instance string
	pending  []*comm.WSMessage

	pubMu      sync.RWMutex
	publishers []Publisher
}

// NewSessionService restores the session saved under key. A corrupt blob is
// logged and replaced by a fresh idle session.
func NewSessionService(ctx context.Context, session *bingo.Session, st store.Store, key string) (*SessionService, error) {
	s := &SessionService{
		session: session,
		store:   st,
		key:     key,
	}

	blob, err := st.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	state, err := bingo.UnmarshalState(blob)
	if err != nil {
		log.Warnf("discarding saved session: %v", err)
	}
	if err := session.Restore(state); err != nil {
		log.Warnf("discarding saved session: %v", err)
		_ = session.Restore(bingo.DefaultState())
	}
	if session.Active() {
		log.Infof("restored active game: %d called, %d left", len(session.History()), len(session.Remaining()))
	}

	session.Subscribe(s.onEvent)
	return s, nil
}

func (s *SessionService) AddPublisher(p Publisher) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.publishers = append(s.publishers, p)
}

// SetInstance stamps outgoing messages with the process instance id.
func (s *SessionService) SetInstance(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instance = id
}

func (s *SessionService) Catalog() *bingo.Catalog {
	return s.session.Catalog()
}

func (s *SessionService) Snapshot() bingo.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Snapshot()
}

// Check evaluates one card against the current calls.
func (s *SessionService) Check(code string) (bingo.Card, bingo.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.session.Catalog().Get(code)
	if !ok {
		return bingo.Card{}, bingo.None, false
	}
	res, _ := s.session.Check(code)
	return card, res, true
}

func (s *SessionService) Start(ctx context.Context, codes []string) (bingo.Snapshot, bool, error) {
	var ok bool
	var snap bingo.Snapshot
	err := s.mutate(ctx, func() bool {
		ok = s.session.Start(codes)
		snap = s.session.Snapshot()
		return ok
	})
	return snap, ok, err
}

func (s *SessionService) Draw(ctx context.Context) (bingo.DrawResult, error) {
	var res bingo.DrawResult
	err := s.mutate(ctx, func() bool {
		res = s.session.Draw()
		return res.OK
	})
	return res, err
}

func (s *SessionService) Undo(ctx context.Context) (bingo.UndoResult, error) {
	var res bingo.UndoResult
	err := s.mutate(ctx, func() bool {
		res = s.session.Undo()
		return res.OK
	})
	return res, err
}

// End stops the game. confirm carries the user's answer to the end prompt.
func (s *SessionService) End(ctx context.Context, confirm bool) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func() bool {
		ok = s.session.End(func() bool { return confirm })
		return ok
	})
	return ok, err
}

func (s *SessionService) SetSelection(ctx context.Context, codes []string) (bingo.Snapshot, bool, error) {
	var ok bool
	var snap bingo.Snapshot
	err := s.mutate(ctx, func() bool {
		ok = s.session.SetSelection(codes)
		snap = s.session.Snapshot()
		return ok
	})
	return snap, ok, err
}

func (s *SessionService) QuickPick(ctx context.Context, n int) ([]string, bool, error) {
	var ok bool
	var codes []string
	err := s.mutate(ctx, func() bool {
		codes, ok = s.session.QuickPick(n)
		return ok
	})
	return codes, ok, err
}

// UpdateSettings applies the toggles present in req as one change.
func (s *SessionService) UpdateSettings(ctx context.Context, req comm.SettingsRequest) (bingo.Settings, error) {
	var settings bingo.Settings
	err := s.mutate(ctx, func() bool {
		settings = s.session.Settings()
		if req.Audio != nil {
			settings.Audio = *req.Audio
		}
		if req.Speech != nil {
			settings.Speech = *req.Speech
		}
		if req.NightMode != nil {
			settings.NightMode = *req.NightMode
		}
		if req.AutoCheck != nil {
			settings.AutoCheck = *req.AutoCheck
		}
		if settings == s.session.Settings() {
			return false
		}
		s.session.ApplySettings(settings)
		return true
	})
	return settings, err
}

// mutate runs fn under the session lock, saves the state when fn reports a
// change, then publishes the events fn produced.
func (s *SessionService) mutate(ctx context.Context, fn func() bool) error {
	s.mu.Lock()
	var err error
	if fn() {
		err = s.persistLocked(ctx)
	}
	msgs := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.publish(msgs)
	return err
}

// persistLocked saves the state once the session has changed in memory. The
// save must outlive a cancelled request, so it drops the caller's cancellation.
func (s *SessionService) persistLocked(ctx context.Context) error {
	blob, err := bingo.MarshalState(s.session.State())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.store.Put(ctx, s.key, blob); err != nil {
		log.Errorf("Error [SessionService.persist] %s", err)
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (s *SessionService) publish(msgs []*comm.WSMessage) {
	if len(msgs) == 0 {
		return
	}
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	for _, msg := range msgs {
		for _, p := range s.publishers {
			p.Publish(msg)
		}
	}
}

// onEvent runs inside a session operation, with s.mu held.
func (s *SessionService) onEvent(e bingo.Event) {
	var msg *comm.WSMessage
	var err error

	settings := s.session.Settings()
	switch e.Type {
	case bingo.EventNumberCalled:
		call := comm.CallMessage{
			Number:  e.Number,
			History: s.session.History(),
			Left:    len(s.session.Remaining()),
			Sound:   settings.Audio,
		}
		if settings.Speech {
			call.Speak = strconv.Itoa(e.Number)
		}
		msg, err = comm.NewMessage(string(e.Type), call)
	case bingo.EventNumberUndone:
		msg, err = comm.NewMessage(string(e.Type), comm.UndoData{Number: e.Number, History: s.session.History()})
	case bingo.EventWin:
		msg, err = comm.NewMessage(string(e.Type), comm.WinData{
			Kind:     e.Win.Kind,
			Code:     e.Win.Code,
			Replayed: e.Win.Replayed,
			Text:     Narration(*e.Win),
			Speak:    settings.Speech,
		})
	default:
		msg, err = comm.NewMessage(string(e.Type), comm.StateData{Snapshot: s.session.Snapshot()})
	}
	if err != nil {
		log.Errorf("Error [SessionService.onEvent] marshaling %s: %v", e.Type, err)
		return
	}
	msg.Instance = s.instance
	s.pending = append(s.pending, msg)
}

// Narration is the announcement text for a win, e.g. "Bingobongo, LINE, CARD7".
func Narration(w bingo.Win) string {
	kind := strings.ReplaceAll(string(w.Kind), "_", " ")
	return fmt.Sprintf("Bingobongo, %s, %s", kind, w.Code)
}
