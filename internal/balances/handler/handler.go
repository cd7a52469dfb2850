package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillchain/internal/balances"
	id "skillchain/pkg/domain"
	"skillchain/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

type Service interface {
	Account(ctx context.Context, who id.AccountID) (balances.Account, error)
}

// BalanceResponse renders an account's funds. Total saturates at the balance maximum.
type BalanceResponse struct {
	Account  id.AccountID `json:"account"`
	Free     id.Balance   `json:"free"`
	Reserved id.Balance   `json:"reserved"`
	Total    id.Balance   `json:"total"`
}

// Handler serves read-only balance queries.
type Handler struct {
	balances Service
}

func New(balances Service) *Handler {
	return &Handler{balances: balances}
}

func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/accounts/{account}/balance", h.HandleBalance)
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	acct, err := h.balances.Account(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &BalanceResponse{
		Account:  account,
		Free:     acct.Free,
		Reserved: acct.Reserved,
		Total:    acct.Total(),
	})
}
