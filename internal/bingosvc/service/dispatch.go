package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avvvet/bingobongo/internal/comm"
	log "github.com/sirupsen/logrus"
)

// Dispatch handles a command from a websocket client or the NATS command
// subject and returns the reply for the sender.
func (s *SessionService) Dispatch(ctx context.Context, msg *comm.WSMessage) *comm.WSMessage {
	data, err := s.dispatch(ctx, msg)
	if err != nil {
		log.Errorf("Error [SessionService.Dispatch] %s: %s", msg.Type, err)
		return s.reply(comm.TypeError, msg.SocketId, comm.ErrorData{Error: err.Error()})
	}
	return s.reply(comm.ResponseType(msg.Type), msg.SocketId, data)
}

func (s *SessionService) dispatch(ctx context.Context, msg *comm.WSMessage) (any, error) {
	switch msg.Type {
	case comm.CmdStartGame:
		var req comm.StartRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		snap, ok, err := s.Start(ctx, req.Codes)
		return map[string]any{"ok": ok, "snapshot": snap}, err

	case comm.CmdDraw:
		return s.Draw(ctx)

	case comm.CmdUndo:
		return s.Undo(ctx)

	case comm.CmdEndGame:
		var req comm.EndRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		ok, err := s.End(ctx, req.Confirm)
		return map[string]any{"ok": ok}, err

	case comm.CmdSelect:
		var req comm.SelectionRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		snap, ok, err := s.SetSelection(ctx, req.Codes)
		return map[string]any{"ok": ok, "snapshot": snap}, err

	case comm.CmdQuickPick:
		var req comm.SelectionRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		codes, ok, err := s.QuickPick(ctx, req.QuickPick)
		return map[string]any{"ok": ok, "codes": codes}, err

	case comm.CmdCheckCard:
		var req comm.CheckRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		card, res, ok := s.Check(req.Code)
		if !ok {
			return nil, fmt.Errorf("unknown card %q", req.Code)
		}
		return comm.CheckData{Code: card.Code, Result: res.String(), Card: &card}, nil

	case comm.CmdSettings:
		var req comm.SettingsRequest
		if err := decode(msg, &req); err != nil {
			return nil, err
		}
		return s.UpdateSettings(ctx, req)

	case comm.CmdGetState:
		return comm.StateData{Snapshot: s.Snapshot()}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func decode(msg *comm.WSMessage, v any) error {
	if len(msg.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
	}
	return nil
}

func (s *SessionService) reply(msgType, socketId string, data any) *comm.WSMessage {
	msg, err := comm.NewMessage(msgType, data)
	if err != nil {
		log.Errorf("Error [SessionService.reply] marshaling %s: %v", msgType, err)
		msg = &comm.WSMessage{Type: comm.TypeError}
	}
	msg.SocketId = socketId
	s.mu.Lock()
	msg.Instance = s.instance
	s.mu.Unlock()
	return msg
}
