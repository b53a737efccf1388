// Package httpapi exposes the session over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/xtding233/riskwheel/internal/game"
	"github.com/xtding233/riskwheel/internal/reward"
	"github.com/xtding233/riskwheel/internal/service"
	"github.com/xtding233/riskwheel/internal/storage"
)

// GameService is what the handlers need from the service layer.
type GameService interface {
	State(ctx context.Context) (game.View, error)
	Start(ctx context.Context) (game.View, error)
	Spin(ctx context.Context) (game.View, error)
	Leave(ctx context.Context) (game.View, error)
	GiveUp(ctx context.Context) ([]reward.Record, game.View, error)
	MoneyRevive(ctx context.Context, requestedCost int) (bool, game.View, error)
	AdsRevive(ctx context.Context) (game.View, error)
	Inventory(ctx context.Context) (map[string]int, error)
	ClearInventory(ctx context.Context) error
	Balance(ctx context.Context) (int, error)
	History(ctx context.Context, limit int) ([]storage.Result, error)
}

type HandlerDeps struct {
	Serv   GameService
	Logger zerolog.Logger
}

type Handler struct {
	serv GameService
	log  zerolog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv, log: deps.Logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

type giveUpResponse struct {
	Lost    []reward.Record `json:"lost"`
	Session game.View       `json:"session"`
}

type moneyReviveRequest struct {
	Cost int `json:"cost"`
}

type moneyReviveResponse struct {
	Revived bool      `json:"revived"`
	Session game.View `json:"session"`
}

type walletResponse struct {
	Cash int `json:"cash"`
}

const maxHistory = 100

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, h.serv.State)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, h.serv.Start)
}

func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	v, err := h.serv.Spin(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	// resolution arrives later as events
	writeJSON(w, http.StatusAccepted, v)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, h.serv.Leave)
}

func (h *Handler) GiveUp(w http.ResponseWriter, r *http.Request) {
	lost, v, err := h.serv.GiveUp(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if lost == nil {
		lost = []reward.Record{}
	}
	writeJSON(w, http.StatusOK, giveUpResponse{Lost: lost, Session: v})
}

func (h *Handler) MoneyRevive(w http.ResponseWriter, r *http.Request) {
	payload, err := decode[moneyReviveRequest](r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	ok, v, err := h.serv.MoneyRevive(r.Context(), payload.Cost)
	if err != nil {
		h.fail(w, err)
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, moneyReviveResponse{Revived: ok, Session: v})
}

func (h *Handler) AdsRevive(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, h.serv.AdsRevive)
}

func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.serv.Inventory(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) ClearInventory(w http.ResponseWriter, r *http.Request) {
	if err := h.serv.ClearInventory(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Wallet(w http.ResponseWriter, r *http.Request) {
	bal, err := h.serv.Balance(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletResponse{Cash: bal})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxHistory {
			h.fail(w, service.BadRequest("limit must be between 1 and %d", maxHistory))
			return
		}
		limit = n
	}
	res, err := h.serv.History(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if res == nil {
		res = []storage.Result{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request, fn func(context.Context) (game.View, error)) {
	v, err := fn(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrCannotSpin),
		errors.Is(err, game.ErrCannotLeave),
		errors.Is(err, game.ErrNoPendingDecision):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into T. An empty body yields the zero T.
func decode[T any](body io.Reader) (T, error) {
	var v T
	if body == nil {
		return v, nil
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil && !errors.Is(err, io.EOF) {
		return v, service.BadRequest("decode body: %v", err)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
