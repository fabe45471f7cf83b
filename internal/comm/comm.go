package comm

import (
	"encoding/json"

	"github.com/avvvet/bingobongo/internal/bingo"
)

// WSMessage is the envelope shared by websocket clients and the NATS subjects.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "draw", "number-called"
	Data     json.RawMessage `json:"data,omitempty"`
	SocketId string          `json:"socketid,omitempty"`
	Instance string          `json:"instance,omitempty"`
}

// commands accepted from presentation clients
const (
	CmdStartGame = "start-game"
	CmdDraw      = "draw"
	CmdUndo      = "undo"
	CmdEndGame   = "end-game"
	CmdSelect    = "select-cards"
	CmdQuickPick = "quick-pick"
	CmdCheckCard = "check-card"
	CmdSettings  = "settings"
	CmdGetState  = "get-state"

	TypeState = "state"
	TypeError = "error"
)

// ResponseType names the reply to a command, e.g. "draw-response".
func ResponseType(cmd string) string {
	return cmd + "-response"
}

// CallMessage announces a called number with the history so far.
type CallMessage struct {
	Number  int    `json:"number"`
	History []int  `json:"history"`
	Left    int    `json:"left"`
	Sound   bool   `json:"sound"`
	Speak   string `json:"speak,omitempty"` // text to speak when speech is on
}

type UndoData struct {
	Number  int   `json:"number"`
	History []int `json:"history"`
}

type WinData struct {
	Kind     bingo.WinKind `json:"kind"`
	Code     string        `json:"code"`
	Replayed bool          `json:"replayed,omitempty"`
	Text     string        `json:"text"` // narration, e.g. "Bingobongo, LINE, CARD7"
	Speak    bool          `json:"speak"`
}

type StateData struct {
	Snapshot bingo.Snapshot `json:"snapshot"`
}

type CheckData struct {
	Code   string      `json:"code"`
	Result string      `json:"result"` // "No win yet", "LINE!", "FULL HOUSE!"
	Card   *bingo.Card `json:"card,omitempty"`
}

type StartRequest struct {
	Codes []string `json:"codes"`
}

type SelectionRequest struct {
	Codes     []string `json:"codes"`
	QuickPick int      `json:"quickPick"`
}

type CheckRequest struct {
	Code string `json:"code"`
}

// SettingsRequest changes only the toggles that are set.
type SettingsRequest struct {
	Audio     *bool `json:"audio"`
	Speech    *bool `json:"speech"`
	NightMode *bool `json:"nightMode"`
	AutoCheck *bool `json:"autoCheck"`
}

type EndRequest struct {
	Confirm bool `json:"confirm"`
}

type ErrorData struct {
	Error string `json:"error"`
}

// NewMessage marshals data into a message of the given type.
func NewMessage(msgType string, data any) (*WSMessage, error) {
	msg := &WSMessage{Type: msgType}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg.Data = raw
	return msg, nil
}
