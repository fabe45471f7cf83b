package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avvvet/bingobongo/internal/bingosvc/service"
	"github.com/avvvet/bingobongo/internal/bingosvc/ws"
	"github.com/avvvet/bingobongo/internal/comm"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	svc       *service.SessionService
	ws        *ws.Ws
	port      string
}

func NewHandler(svc *service.SessionService, socket *ws.Ws, port string) *Handler {
	return &Handler{
		svc:  svc,
		ws:   socket,
		port: port,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, code int, err string) {
	h.CreateResponse(w, Response{Message: http.StatusText(code), Code: code, Error: err})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "bingobongo caller is running at port " + h.port,
		Code:    http.StatusOK,
		Data:    map[string]int{"cards": h.svc.Catalog().Len(), "sockets": h.ws.Count()},
	})
}

func (h *Handler) StateHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{Message: "state", Code: http.StatusOK, Data: h.svc.Snapshot()})
}

// CardsHandler lists the catalog codes containing the q filter.
func (h *Handler) CardsHandler(w http.ResponseWriter, r *http.Request) {
	codes := h.svc.Catalog().Search(r.URL.Query().Get("q"))
	h.CreateResponse(w, Response{Message: "cards", Code: http.StatusOK, Data: codes})
}

func (h *Handler) CardHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	card, ok := h.svc.Catalog().Get(code)
	if !ok {
		h.fail(w, http.StatusNotFound, "unknown card "+code)
		return
	}
	h.CreateResponse(w, Response{Message: "card", Code: http.StatusOK, Data: card})
}

func (h *Handler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	card, res, ok := h.svc.Check(code)
	if !ok {
		h.fail(w, http.StatusNotFound, "unknown card "+code)
		return
	}
	h.CreateResponse(w, Response{
		Message: res.String(),
		Code:    http.StatusOK,
		Data:    comm.CheckData{Code: card.Code, Result: res.String(), Card: &card},
	})
}

func (h *Handler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var req comm.StartRequest
	if !h.decode(w, r, &req) {
		return
	}
	snap, ok, err := h.svc.Start(r.Context(), req.Codes)
	h.result(w, "game started", "a game is already in progress", snap, ok, err)
}

func (h *Handler) DrawHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Draw(r.Context())
	h.result(w, "number called", "no game in progress or all numbers called", res, res.OK, err)
}

func (h *Handler) UndoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Undo(r.Context())
	h.result(w, "call undone", "nothing to undo", res, res.OK, err)
}

// EndHandler needs {"confirm": true}; anything else leaves the game running.
func (h *Handler) EndHandler(w http.ResponseWriter, r *http.Request) {
	var req comm.EndRequest
	if !h.decode(w, r, &req) {
		return
	}
	ok, err := h.svc.End(r.Context(), req.Confirm)
	h.result(w, "game ended", "end not confirmed or no game in progress", h.svc.Snapshot(), ok, err)
}

func (h *Handler) SelectionHandler(w http.ResponseWriter, r *http.Request) {
	var req comm.SelectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.QuickPick > 0 {
		codes, ok, err := h.svc.QuickPick(r.Context(), req.QuickPick)
		h.result(w, "cards picked", "selection is locked while a game is in progress", codes, ok, err)
		return
	}
	snap, ok, err := h.svc.SetSelection(r.Context(), req.Codes)
	h.result(w, "selection updated", "selection is locked while a game is in progress", snap, ok, err)
}

func (h *Handler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req comm.SettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	settings, err := h.svc.UpdateSettings(r.Context(), req)
	h.result(w, "settings updated", "", settings, true, err)
}

// result maps a session operation to a response. Rejected operations are a
// conflict with the current game state; a failed save is a server error.
func (h *Handler) result(w http.ResponseWriter, msg, rejected string, data any, ok bool, err error) {
	switch {
	case err != nil:
		h.CreateResponse(w, Response{Message: msg, Code: http.StatusInternalServerError, Data: data, Error: err.Error()})
	case !ok:
		h.CreateResponse(w, Response{Message: "rejected", Code: http.StatusConflict, Data: h.svc.Snapshot(), Error: rejected})
	default:
		h.CreateResponse(w, Response{Message: msg, Code: http.StatusOK, Data: data})
	}
}
