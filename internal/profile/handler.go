package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "skillchain/pkg/domain"
	"skillchain/pkg/platform/httputil"
	"skillchain/pkg/requestcontext"
)

type Reader interface {
	Profile(ctx context.Context, account id.AccountID) (*Profile, error)
}

// Handler serves account profiles.
type Handler struct {
	profiles Reader
	logger   *slog.Logger
}

func NewHandler(profiles Reader, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logger}
}

func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/accounts/{account}/profile", h.HandleProfile)
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.profiles.Profile(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load profile",
			"account", account,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
