package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillchain/internal/endorsement/models"
	id "skillchain/pkg/domain"
	"skillchain/pkg/platform/httputil"
	"skillchain/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the endorsement operations the handler exposes.
type Service interface {
	Endorse(ctx context.Context, caller id.AccountID, credentialID id.CredentialID, stake id.Balance) error
	Endorsements(ctx context.Context, credentialID id.CredentialID) ([]models.Endorsement, error)
	Score(ctx context.Context, credentialID id.CredentialID) (id.Balance, error)
}

// Handler serves endorsement ledger endpoints.
type Handler struct {
	endorsements Service
	logger       *slog.Logger
}

func New(endorsements Service, logger *slog.Logger) *Handler {
	return &Handler{endorsements: endorsements, logger: logger}
}

// RegisterCalls mounts the signed endorse call. r must already require authentication.
func (h *Handler) RegisterCalls(r chi.Router) {
	r.Post("/credentials/{id}/endorsements", h.HandleEndorse)
}

func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/credentials/{id}/endorsements", h.HandleEndorsements)
	r.Get("/credentials/{id}/score", h.HandleScore)
}

func (h *Handler) HandleEndorse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccount(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[EndorseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	stake := req.Amount()
	if err := h.endorsements.Endorse(ctx, caller, credentialID, stake); err != nil {
		h.logger.WarnContext(ctx, "endorse rejected",
			"caller", caller,
			"credential_id", credentialID,
			"stake", stake,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &EndorseResponse{
		CredentialID: credentialID,
		Endorser:     caller,
		Stake:        stake,
	})
}

func (h *Handler) HandleEndorsements(w http.ResponseWriter, r *http.Request) {
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.endorsements.Endorsements(r.Context(), credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &EndorsementsResponse{CredentialID: credentialID, Endorsements: list})
}

func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	score, err := h.endorsements.Score(r.Context(), credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ScoreResponse{CredentialID: credentialID, Score: score})
}
