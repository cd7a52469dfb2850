package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillchain/internal/registry/models"
	id "skillchain/pkg/domain"
	"skillchain/pkg/platform/httputil"
	"skillchain/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the registry operations the handler exposes.
type Service interface {
	Mint(ctx context.Context, caller id.AccountID, metadataRef []byte, soulbound bool) (id.CredentialID, error)
	Verify(ctx context.Context, caller id.AccountID, credentialID id.CredentialID) error
	Credential(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error)
	AccountCredentials(ctx context.Context, account id.AccountID) ([]id.CredentialID, error)
	NextCredentialID(ctx context.Context) (id.CredentialID, error)
}

// Handler serves credential registry endpoints.
type Handler struct {
	registry Service
	logger   *slog.Logger
}

func New(registry Service, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// RegisterCalls mounts the signed ledger calls. r must already require authentication.
func (h *Handler) RegisterCalls(r chi.Router) {
	r.Post("/credentials", h.HandleMint)
	r.Post("/credentials/{id}/verify", h.HandleVerify)
}

// RegisterQueries mounts the read-only state queries.
func (h *Handler) RegisterQueries(r chi.Router) {
	r.Get("/credentials/next-id", h.HandleNextID)
	r.Get("/credentials/{id}", h.HandleGetCredential)
	r.Get("/accounts/{account}/credentials", h.HandleAccountCredentials)
}

func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := httputil.RequireAccount(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	credentialID, err := h.registry.Mint(ctx, caller, req.Ref(), req.Soulbound)
	if err != nil {
		h.logger.WarnContext(ctx, "mint rejected",
			"caller", caller,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &MintResponse{ID: credentialID})
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
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

	if err := h.registry.Verify(ctx, caller, credentialID); err != nil {
		h.logger.WarnContext(ctx, "verify rejected",
			"caller", caller,
			"credential_id", credentialID,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &VerifyResponse{ID: credentialID, Verified: true})
}

func (h *Handler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	credential, err := h.registry.Credential(r.Context(), credentialID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToCredentialResponse(credential))
}

func (h *Handler) HandleAccountCredentials(w http.ResponseWriter, r *http.Request) {
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ids, err := h.registry.AccountCredentials(r.Context(), account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AccountCredentialsResponse{Account: account, Credentials: ids})
}

func (h *Handler) HandleNextID(w http.ResponseWriter, r *http.Request) {
	next, err := h.registry.NextCredentialID(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &NextIDResponse{NextCredentialID: next})
}
